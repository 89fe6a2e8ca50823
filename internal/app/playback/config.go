package playback

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/playqueue/internal/app/queue"
	"github.com/osa030/playqueue/internal/infra/config"
)

// Config holds player configuration.
type Config struct {
	PreloadWindow    int              // Items handed to the engine, current included
	Repeat           queue.RepeatMode // Initial repeat mode
	Navigation       queue.Navigation // Previous command policy
	DVREdgeTolerance time.Duration    // Distance to the live edge still considered at the edge
	SkipForward      time.Duration    // Skip forward interval
	SkipBackward     time.Duration    // Skip backward interval
	MetricsLimit     int              // History and event log cap
	MetricsInterval  time.Duration    // Periodic metrics snapshot interval
	StartPaused      bool             // Do not start playing on creation
}

// DefaultConfig returns the default player configuration.
func DefaultConfig() Config {
	return Config{
		PreloadWindow:    2,
		Repeat:           queue.RepeatOff,
		Navigation:       queue.Navigation{Mode: queue.NavigationSmart, Threshold: 3 * time.Second},
		DVREdgeTolerance: 20 * time.Second,
		SkipForward:      10 * time.Second,
		SkipBackward:     10 * time.Second,
		MetricsLimit:     100,
		MetricsInterval:  time.Second,
	}
}

// ConfigFrom builds the player configuration from the application configuration.
func ConfigFrom(cfg *config.Config) (Config, error) {
	repeat, ok := queue.ParseRepeatMode(cfg.Playback.Repeat)
	if !ok {
		return Config{}, errors.Newf("invalid repeat mode: %s", cfg.Playback.Repeat)
	}
	mode, ok := queue.ParseNavigationMode(cfg.Playback.Navigation)
	if !ok {
		return Config{}, errors.Newf("invalid navigation mode: %s", cfg.Playback.Navigation)
	}

	return Config{
		PreloadWindow:    cfg.Playback.PreloadWindow,
		Repeat:           repeat,
		Navigation:       queue.Navigation{Mode: mode, Threshold: cfg.Playback.SmartThreshold()},
		DVREdgeTolerance: cfg.Playback.DVREdgeTolerance(),
		SkipForward:      cfg.Playback.SkipForward(),
		SkipBackward:     cfg.Playback.SkipBackward(),
		MetricsLimit:     cfg.Metrics.Limit,
		MetricsInterval:  cfg.Metrics.Interval(),
		StartPaused:      cfg.Playback.StartPaused,
	}, nil
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.PreloadWindow <= 0 {
		c.PreloadWindow = d.PreloadWindow
	}
	if c.SkipForward <= 0 {
		c.SkipForward = d.SkipForward
	}
	if c.SkipBackward <= 0 {
		c.SkipBackward = d.SkipBackward
	}
	if c.MetricsLimit <= 0 {
		c.MetricsLimit = d.MetricsLimit
	}
	if c.MetricsInterval <= 0 {
		c.MetricsInterval = d.MetricsInterval
	}
	return c
}
