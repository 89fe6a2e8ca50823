package remote

func hasCurrent(c Controls) bool {
	return c.CurrentItem().Get().IsPresent()
}

// PlayCommand starts or resumes playback.
type PlayCommand struct{}

func (PlayCommand) Name() string {
	return "play"
}

func (PlayCommand) Description() string {
	return "Start or resume playback"
}

func (PlayCommand) Available(c Controls) bool {
	return hasCurrent(c) && !c.IsPlaying()
}

func (PlayCommand) Execute(c Controls, _ Args) error {
	c.Play()
	return nil
}

// PauseCommand pauses playback.
type PauseCommand struct{}

func (PauseCommand) Name() string {
	return "pause"
}

func (PauseCommand) Description() string {
	return "Pause playback"
}

func (PauseCommand) Available(c Controls) bool {
	return hasCurrent(c) && c.IsPlaying()
}

func (PauseCommand) Execute(c Controls, _ Args) error {
	c.Pause()
	return nil
}

// ToggleCommand toggles between play and pause.
type ToggleCommand struct{}

func (ToggleCommand) Name() string {
	return "toggle"
}

func (ToggleCommand) Description() string {
	return "Toggle play and pause"
}

func (ToggleCommand) Available(c Controls) bool {
	return hasCurrent(c)
}

func (ToggleCommand) Execute(c Controls, _ Args) error {
	c.TogglePlayPause()
	return nil
}

// SkipForwardCommand seeks forward by the configured interval.
type SkipForwardCommand struct{}

func (SkipForwardCommand) Name() string {
	return "skip-forward"
}

func (SkipForwardCommand) Description() string {
	return "Skip forward"
}

func (SkipForwardCommand) Available(c Controls) bool {
	return c.CanSeek()
}

func (SkipForwardCommand) Execute(c Controls, _ Args) error {
	return c.SkipForward()
}

// SkipBackwardCommand seeks backward by the configured interval.
type SkipBackwardCommand struct{}

func (SkipBackwardCommand) Name() string {
	return "skip-backward"
}

func (SkipBackwardCommand) Description() string {
	return "Skip backward"
}

func (SkipBackwardCommand) Available(c Controls) bool {
	return c.CanSeek()
}

func (SkipBackwardCommand) Execute(c Controls, _ Args) error {
	return c.SkipBackward()
}

// PreviousCommand returns to the previous item or to the start of the
// current one.
type PreviousCommand struct{}

func (PreviousCommand) Name() string {
	return "previous"
}

func (PreviousCommand) Description() string {
	return "Previous item or restart"
}

func (PreviousCommand) Available(c Controls) bool {
	return c.CanReturnToPrevious()
}

func (PreviousCommand) Execute(c Controls, _ Args) error {
	return c.Previous()
}

// NextCommand advances to the next item.
type NextCommand struct{}

func (NextCommand) Name() string {
	return "next"
}

func (NextCommand) Description() string {
	return "Next item"
}

func (NextCommand) Available(c Controls) bool {
	return c.CanAdvanceToNext()
}

func (NextCommand) Execute(c Controls, _ Args) error {
	return c.Next()
}

// SeekCommand seeks the current item to a position.
type SeekCommand struct{}

func (SeekCommand) Name() string {
	return "seek"
}

func (SeekCommand) Description() string {
	return "Seek to a position"
}

func (SeekCommand) Available(c Controls) bool {
	return c.CanSeek()
}

func (SeekCommand) Execute(c Controls, args Args) error {
	to, ok := args.Position.Get()
	if !ok {
		return ErrMissingPosition
	}
	return c.Seek(to)
}

func init() {
	Register(PlayCommand{})
	Register(PauseCommand{})
	Register(ToggleCommand{})
	Register(SkipForwardCommand{})
	Register(SkipBackwardCommand{})
	Register(PreviousCommand{})
	Register(NextCommand{})
	Register(SeekCommand{})
}
