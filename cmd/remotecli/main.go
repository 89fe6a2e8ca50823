// Package main provides the remote control CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	"github.com/samber/lo"

	"github.com/osa030/playqueue/internal/api/httpapi"
)

var (
	app    = kingpin.New("playqueue-remotecli", "playqueue remote control client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "API token (or set PLAYQUEUE_TOKEN env)").Envar("PLAYQUEUE_TOKEN").String()

	// state command
	stateCmd = app.Command("state", "Show the player state").Default()

	// items command
	itemsCmd = app.Command("items", "List queued items").Alias("list")

	// add command
	addCmd      = app.Command("add", "Add an item")
	addKind     = addCmd.Arg("kind", "Resolver kind").Required().String()
	addLocator  = addCmd.Arg("locator", "Content locator").String()
	addTitle    = addCmd.Flag("title", "Display title").String()
	addSettings = addCmd.Flag("set", "Resolver setting (key=value, repeatable)").StringMap()
	addBefore   = addCmd.Flag("before", "Insert before this item").String()
	addAfter    = addCmd.Flag("after", "Insert after this item").String()
	addPrepend  = addCmd.Flag("prepend", "Insert at the start of the queue").Bool()
	addCurrent  = addCmd.Flag("current", "Make the new item current").Bool()

	// remove command
	removeCmd = app.Command("remove", "Remove an item")
	removeID  = removeCmd.Arg("item-id", "Item ID").Required().String()

	// clear command
	clearCmd = app.Command("clear", "Remove all items")

	// current command
	currentCmd = app.Command("current", "Make an item current")
	currentID  = currentCmd.Arg("item-id", "Item ID").Required().String()

	// command command
	commandCmd      = app.Command("command", "Execute a remote command").Alias("cmd")
	commandName     = commandCmd.Arg("name", "Command name (see 'commands')").Required().String()
	commandPosition = commandCmd.Flag("position", "Seek position (e.g. 1m30s)").Duration()

	// commands command
	commandsCmd = app.Command("commands", "List remote commands and their availability")

	// resume command
	resumeCmd      = app.Command("resume", "Resume an item at a position")
	resumeID       = resumeCmd.Arg("item-id", "Item ID").Required().String()
	resumePosition = resumeCmd.Flag("position", "Resume position (default: item default position)").Duration()

	// speed command
	speedCmd   = app.Command("speed", "Set the playback speed")
	speedValue = speedCmd.Arg("value", "Speed (e.g. 1.5)").Required().Float64()

	// repeat command
	repeatCmd  = app.Command("repeat", "Set the repeat mode")
	repeatMode = repeatCmd.Arg("mode", "Repeat mode").Required().Enum("off", "one", "all")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	c := newClient(*server, *token, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	switch command {
	case stateCmd.FullCommand():
		err = showState(ctx, c)
	case itemsCmd.FullCommand():
		err = listItems(ctx, c)
	case addCmd.FullCommand():
		err = addItem(ctx, c)
	case removeCmd.FullCommand():
		err = c.removeItem(ctx, *removeID)
		report(err, "Item removed")
	case clearCmd.FullCommand():
		err = c.clear(ctx)
		report(err, "Queue cleared")
	case currentCmd.FullCommand():
		err = c.setCurrent(ctx, *currentID)
		report(err, "Current item changed")
	case commandCmd.FullCommand():
		err = c.command(ctx, *commandName, httpapi.CommandRequest{PositionMs: durationMs(*commandPosition)})
		report(err, fmt.Sprintf("Command %s executed", *commandName))
	case commandsCmd.FullCommand():
		err = listCommands(ctx, c)
	case resumeCmd.FullCommand():
		err = c.resume(ctx, httpapi.ResumeRequest{ItemID: *resumeID, PositionMs: durationMs(*resumePosition)})
		report(err, "Resume requested")
	case speedCmd.FullCommand():
		err = c.setSpeed(ctx, *speedValue)
		report(err, fmt.Sprintf("Speed set to %.2f", *speedValue))
	case repeatCmd.FullCommand():
		err = c.setRepeat(ctx, *repeatMode)
		report(err, fmt.Sprintf("Repeat mode set to %s", *repeatMode))
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func report(err error, msg string) {
	if err == nil {
		fmt.Println(msg)
	}
}

// durationMs converts a flag value to milliseconds; zero means unset.
func durationMs(d time.Duration) *int64 {
	if d <= 0 {
		return nil
	}
	return lo.ToPtr(d.Milliseconds())
}

func showState(ctx context.Context, c *client) error {
	s, err := c.state(ctx)
	if err != nil {
		return err
	}
	fmt.Print(formatState(s))
	return nil
}

func formatState(s httpapi.StateResponse) string {
	var b strings.Builder
	fmt.Fprintln(&b, "\n=== PLAYER STATE ===")
	fmt.Fprintf(&b, "State: %s\n", s.State)
	fmt.Fprintf(&b, "Repeat: %s\n", s.Repeat)
	fmt.Fprintf(&b, "Navigation: %s\n", s.Navigation)
	fmt.Fprintf(&b, "Previous: %v  Next: %v\n", s.CanReturnToPrevious, s.CanAdvanceToNext)

	speed := fmt.Sprintf("%.2f", s.Speed.Value)
	if s.Speed.Min != nil && s.Speed.Max != nil {
		speed += fmt.Sprintf(" [%.1f, %.1f]", *s.Speed.Min, *s.Speed.Max)
	}
	fmt.Fprintf(&b, "Speed: %s\n", speed)

	if s.Current == "" {
		fmt.Fprintln(&b, "\nNo current item")
	} else {
		fmt.Fprintf(&b, "\nCurrent: %s\n", s.Current)
		if s.Time != nil {
			fmt.Fprintf(&b, "  Position: %s (seekable %s - %s)\n",
				msString(s.Time.PositionMs), msString(s.Time.SeekableStartMs), msString(s.Time.SeekableEndMs))
		}
		for _, r := range s.Ranges {
			fmt.Fprintf(&b, "  Range: %s %s - %s\n", r.Kind, msString(r.StartMs), msString(r.EndMs))
		}
	}
	if s.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", s.Error)
	}
	if s.Metrics != nil {
		fmt.Fprintf(&b, "Metrics (%s): playing=%s stalls=%d dropped_frames=%d bitrate=%.0f\n",
			s.Metrics.Trigger, s.Metrics.Total.PlayingDuration, s.Metrics.Total.Stalls,
			s.Metrics.Total.DroppedFrames, s.Metrics.Total.Bitrate)
	}

	fmt.Fprintf(&b, "\nItems (%d):\n", len(s.Items))
	writeItems(&b, s.Items, s.Current)
	fmt.Fprintln(&b)
	return b.String()
}

func listItems(ctx context.Context, c *client) error {
	items, err := c.items(ctx)
	if err != nil {
		return err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Items (%d):\n", len(items))
	writeItems(&b, items, "")
	fmt.Print(b.String())
	return nil
}

func writeItems(b *strings.Builder, items []httpapi.ItemResponse, current string) {
	for i, it := range items {
		marker := " "
		if it.ID == current {
			marker = ">"
		}
		fmt.Fprintf(b, "%s %2d. %s %s [%s] %s", marker, i+1, it.ID, it.Title, it.Kind, it.Status)
		if it.Error != "" {
			fmt.Fprintf(b, " (%s)", it.Error)
		}
		fmt.Fprintln(b)
	}
}

func addItem(ctx context.Context, c *client) error {
	settings := lo.MapValues(*addSettings, func(v string, _ string) any { return v })
	id, err := c.addItem(ctx, httpapi.AddItemRequest{
		Kind:     *addKind,
		Locator:  *addLocator,
		Title:    *addTitle,
		Settings: settings,
		Before:   *addBefore,
		After:    *addAfter,
		Prepend:  *addPrepend,
		Current:  *addCurrent,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Item added: %s\n", id)
	return nil
}

func listCommands(ctx context.Context, c *client) error {
	commands, err := c.commands(ctx)
	if err != nil {
		return err
	}
	names := lo.Keys(commands)
	slices.Sort(names)
	fmt.Println("Commands:")
	for _, name := range names {
		state := "unavailable"
		if commands[name] {
			state = "available"
		}
		fmt.Printf("  %-15s %s\n", name, state)
	}
	return nil
}

func msString(v int64) string {
	return (time.Duration(v) * time.Millisecond).String()
}
