package remote

import (
	"maps"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/playqueue/internal/app/playback"
	"github.com/osa030/playqueue/internal/app/signal"
)

// Availability maps command names to whether they can be executed.
type Availability map[string]bool

// Watchable is a signal whose changes can make availability stale.
type Watchable interface {
	Watch(fn func()) string
	Unsubscribe(id string)
}

type watch struct {
	source Watchable
	id     string
}

// Bridge dispatches remote commands to the player and keeps their
// availability current. Like the player, it must be used from the executor.
type Bridge struct {
	controls     Controls
	commands     []Command
	availability *signal.Value[Availability]
	watches      []watch
}

// NewBridge creates a bridge over commands. Availability is recomputed every
// time one of triggers changes.
func NewBridge(c Controls, commands []Command, triggers ...Watchable) *Bridge {
	b := &Bridge{
		controls:     c,
		commands:     commands,
		availability: signal.New("availability", Availability{}, func(a, b Availability) bool { return maps.Equal(a, b) }),
	}
	b.Refresh()
	for _, t := range triggers {
		b.watches = append(b.watches, watch{source: t, id: t.Watch(b.Refresh)})
	}
	return b
}

// ForPlayer creates a bridge with all registered commands, refreshed by the
// player signals that commands depend on.
func ForPlayer(p *playback.Player) *Bridge {
	return NewBridge(p, GetRegistered(), p.CurrentItem(), p.State(), p.Navigability(), p.Time())
}

// Close stops following the triggers.
func (b *Bridge) Close() {
	for _, w := range b.watches {
		w.source.Unsubscribe(w.id)
	}
	b.watches = nil
}

// Availability returns the availability signal.
func (b *Bridge) Availability() *signal.Value[Availability] {
	return b.availability
}

// Commands returns the commands of the bridge.
func (b *Bridge) Commands() []Command {
	return b.commands
}

// Refresh recomputes availability.
func (b *Bridge) Refresh() {
	next := lo.SliceToMap(b.commands, func(cmd Command) (string, bool) {
		return cmd.Name(), cmd.Available(b.controls)
	})
	if b.availability.Set(next) {
		zlog.Debug().Msgf("remote: availability changed: %v", next)
	}
}

// Execute runs the named command if it is available.
func (b *Bridge) Execute(name string, args Args) error {
	cmd, ok := lo.Find(b.commands, func(cmd Command) bool { return cmd.Name() == name })
	if !ok {
		return errors.Wrapf(ErrUnknownCommand, "%q", name)
	}
	if !cmd.Available(b.controls) {
		return errors.Wrapf(ErrCommandUnavailable, "%q", name)
	}
	zlog.Info().Msgf("remote: command: name=%s", name)
	if err := cmd.Execute(b.controls, args); err != nil {
		return errors.Wrapf(err, "command %q", name)
	}
	b.Refresh()
	return nil
}
