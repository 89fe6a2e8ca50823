// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Playback  PlaybackConfig   `yaml:"playback"`
	Metrics   MetricsConfig    `yaml:"metrics"`
	Engine    EngineConfig     `yaml:"engine"`
	Resolvers []ResolverConfig `yaml:"resolvers" validate:"dive"`
	Items     []ItemConfig     `yaml:"items" validate:"dive"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr  string      `yaml:"addr" default:":8080"`
	Token string      `yaml:"token"` // Remote control token; empty disables authentication
	Hooks HooksConfig `yaml:"hooks"`
}

// HooksConfig lists shell commands run around the server lifetime.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// PlaybackConfig represents playback control configuration.
type PlaybackConfig struct {
	PreloadWindow      int    `yaml:"preload_window" default:"2" validate:"gte=1,lte=16"`
	Repeat             string `yaml:"repeat" default:"off" validate:"oneof=off one all"`
	Navigation         string `yaml:"navigation" default:"smart" validate:"oneof=immediate smart"`
	SmartThresholdMs   int    `yaml:"smart_threshold_ms" default:"3000" validate:"gte=0,lte=60000"`
	DVREdgeToleranceMs int    `yaml:"dvr_edge_tolerance_ms" default:"20000" validate:"gte=0,lte=300000"`
	SkipForwardSec     int    `yaml:"skip_forward_sec" default:"10" validate:"gte=1,lte=600"`
	SkipBackwardSec    int    `yaml:"skip_backward_sec" default:"10" validate:"gte=1,lte=600"`
	StartPaused        bool   `yaml:"start_paused"`
}

// SmartThreshold returns the elapsed time from which smart previous seeks to start.
func (p PlaybackConfig) SmartThreshold() time.Duration {
	return time.Duration(p.SmartThresholdMs) * time.Millisecond
}

// DVREdgeTolerance returns the distance to the live edge still considered at the edge.
func (p PlaybackConfig) DVREdgeTolerance() time.Duration {
	return time.Duration(p.DVREdgeToleranceMs) * time.Millisecond
}

// SkipForward returns the skip forward interval.
func (p PlaybackConfig) SkipForward() time.Duration {
	return time.Duration(p.SkipForwardSec) * time.Second
}

// SkipBackward returns the skip backward interval.
func (p PlaybackConfig) SkipBackward() time.Duration {
	return time.Duration(p.SkipBackwardSec) * time.Second
}

// MetricsConfig represents metrics history configuration.
type MetricsConfig struct {
	Limit      int `yaml:"limit" default:"100" validate:"gte=1,lte=10000"`
	IntervalMs int `yaml:"interval_ms" default:"1000" validate:"gte=100,lte=60000"`
}

// Interval returns the periodic snapshot interval.
func (m MetricsConfig) Interval() time.Duration {
	return time.Duration(m.IntervalMs) * time.Millisecond
}

// EngineConfig represents the simulated engine configuration.
type EngineConfig struct {
	TickIntervalMs int `yaml:"tick_interval_ms" default:"250" validate:"gte=10,lte=10000"`
	LoadLatencyMs  int `yaml:"load_latency_ms" default:"200" validate:"gte=0,lte=60000"`
}

// TickInterval returns the periodic time signal interval.
func (e EngineConfig) TickInterval() time.Duration {
	return time.Duration(e.TickIntervalMs) * time.Millisecond
}

// LoadLatency returns the simulated time an item takes to become ready.
func (e EngineConfig) LoadLatency() time.Duration {
	return time.Duration(e.LoadLatencyMs) * time.Millisecond
}

// ResolverConfig represents a single resolver configuration.
type ResolverConfig struct {
	Kind     string         `yaml:"kind" validate:"required"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// ItemConfig represents an item queued at startup.
type ItemConfig struct {
	Kind     string         `yaml:"kind" validate:"required"`
	Locator  string         `yaml:"locator"`
	Title    string         `yaml:"title"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// DefaultResolvers are used when no resolver is configured.
var DefaultResolvers = []ResolverConfig{
	{Kind: "static"},
	{Kind: "unavailable"},
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML data.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if len(cfg.Resolvers) == 0 {
		cfg.Resolvers = append([]ResolverConfig(nil), DefaultResolvers...)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("PLAYQUEUE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("PLAYQUEUE_TOKEN"); v != "" {
		c.Server.Token = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	// Validate resolver coverage
	if err := c.validateKinds(); err != nil {
		return err
	}

	return nil
}

// validateKinds checks that resolver kinds are unique and that every seeded
// item has a resolver.
func (c *Config) validateKinds() error {
	kinds := make(map[string]bool, len(c.Resolvers))
	for i, r := range c.Resolvers {
		if kinds[r.Kind] {
			return errors.Newf("duplicate resolver kind: %s (resolver index %d)", r.Kind, i)
		}
		kinds[r.Kind] = true
	}

	for i, it := range c.Items {
		if !kinds[it.Kind] {
			return errors.Newf("no resolver for item kind: %s (item index %d)", it.Kind, i)
		}
	}

	return nil
}
