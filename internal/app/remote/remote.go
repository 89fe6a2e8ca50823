// Package remote exposes the player to media-session style remote controls:
// a fixed set of named commands, each with an availability that follows the
// player state.
package remote

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/mo"

	"github.com/osa030/playqueue/internal/app/signal"
	"github.com/osa030/playqueue/internal/domain/item"
)

// Errors
var (
	ErrUnknownCommand     = errors.New("unknown command")
	ErrCommandUnavailable = errors.New("command unavailable")
	ErrMissingPosition    = errors.New("position is required")
)

// Controls is the part of the player remote commands drive.
type Controls interface {
	Play()
	Pause()
	TogglePlayPause()
	IsPlaying() bool
	Next() error
	Previous() error
	Seek(to time.Duration) error
	SkipForward() error
	SkipBackward() error
	CanSeek() bool
	CanAdvanceToNext() bool
	CanReturnToPrevious() bool
	CurrentItem() *signal.Value[mo.Option[item.ID]]
}

// Args carries command arguments.
type Args struct {
	Position mo.Option[time.Duration] // Seek target
}

// Command is a remote command.
type Command interface {
	// Name returns the command name (used on the wire).
	Name() string
	// Description returns a human-readable description.
	Description() string
	// Available reports whether the command can currently be executed.
	Available(c Controls) bool
	// Execute runs the command.
	Execute(c Controls, args Args) error
}

// registry holds registered commands in registration order.
var (
	registry = make(map[string]Command)
	order    []string
)

// Register registers a command. A command registered twice replaces the
// first one and keeps its position.
func Register(cmd Command) {
	if _, ok := registry[cmd.Name()]; !ok {
		order = append(order, cmd.Name())
	}
	registry[cmd.Name()] = cmd
}

// GetRegistered returns all registered commands in registration order.
func GetRegistered() []Command {
	out := make([]Command, 0, len(order))
	for _, name := range order {
		out = append(out, registry[name])
	}
	return out
}

// Lookup returns a registered command.
func Lookup(name string) (Command, bool) {
	cmd, ok := registry[name]
	return cmd, ok
}
