package resolver

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/playqueue/internal/domain/item"
	"github.com/osa030/playqueue/internal/domain/timeline"
)

// KindStatic is the kind of descriptors resolved from their own settings.
const KindStatic = "static"

// StaticResolverConfig holds the resolver-wide settings.
type StaticResolverConfig struct {
	Latency time.Duration `mapstructure:"latency"` // Simulated resolution time
}

// StaticItemSettings holds the per-descriptor settings.
type StaticItemSettings struct {
	URL            string          `mapstructure:"url"`
	Classification string          `mapstructure:"classification" default:"on_demand" validate:"oneof=on_demand live dvr"`
	Duration       time.Duration   `mapstructure:"duration" validate:"gte=0"`
	Ranges         []RangeSettings `mapstructure:"ranges" validate:"dive"`
}

// RangeSettings describes a timeline range.
type RangeSettings struct {
	Kind  string        `mapstructure:"kind" validate:"omitempty,oneof=blocked opening_credits closing_credits opening closing"`
	Start time.Duration `mapstructure:"start" validate:"gte=0"`
	End   time.Duration `mapstructure:"end" validate:"gtfield=Start"`
}

// StaticResolver builds resources from the descriptor settings.
type StaticResolver struct {
	config *StaticResolverConfig
}

// NewStaticResolver creates a new StaticResolver.
func NewStaticResolver(settings map[string]any) (*StaticResolver, error) {
	var config StaticResolverConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	zlog.Debug().Msgf("static resolver config: %+v", config)
	return &StaticResolver{config: &config}, nil
}

// Kind returns the resolver kind.
func (r *StaticResolver) Kind() string {
	return KindStatic
}

// Resolve builds a resource from d. Each call produces a new identity.
func (r *StaticResolver) Resolve(ctx context.Context, d item.Descriptor) (*item.Resource, error) {
	if r.config.Latency > 0 {
		select {
		case <-time.After(r.config.Latency):
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "resolution canceled")
		}
	}

	var s StaticItemSettings
	if err := decodeSettings(d.Settings, &s); err != nil {
		return nil, errors.Wrapf(err, "invalid settings for %q", d.Locator)
	}

	return buildResource(d.Locator, lo.Ternary(s.URL != "", s.URL, d.Locator), s.Classification, s.Duration, s.Ranges)
}

// buildResource creates a resource with a new identity.
func buildResource(locator, url, classification string, duration time.Duration, rs []RangeSettings) (*item.Resource, error) {
	c := timeline.ParseClassification(classification)
	if c == timeline.OnDemand && duration == 0 {
		return nil, errors.Newf("on-demand content %q has no duration", locator)
	}

	ranges := make([]timeline.Range, 0, len(rs))
	for _, r := range rs {
		kind, err := timeline.ParseRangeKind(lo.Ternary(r.Kind != "", r.Kind, "blocked"))
		if err != nil {
			return nil, err
		}
		rng, err := timeline.NewRange(kind, r.Start, r.End)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, rng)
	}

	return &item.Resource{
		Identity:       uuid.New().String(),
		URL:            url,
		Classification: c,
		Duration:       duration,
		Ranges:         ranges,
	}, nil
}
