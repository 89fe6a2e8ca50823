package resolver

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/osa030/playqueue/internal/domain/item"
)

// KindUnavailable is the kind of descriptors that never resolve.
const KindUnavailable = "unavailable"

// UnavailableConfig holds the reason reported for unavailable content.
type UnavailableConfig struct {
	Reason string `mapstructure:"reason" default:"content unavailable"`
}

// UnavailableResolver fails every resolution. Descriptors may override the
// reason with their own "reason" setting.
type UnavailableResolver struct {
	config *UnavailableConfig
}

// NewUnavailableResolver creates a new UnavailableResolver.
func NewUnavailableResolver(settings map[string]any) (*UnavailableResolver, error) {
	var config UnavailableConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	return &UnavailableResolver{config: &config}, nil
}

// Kind returns the resolver kind.
func (r *UnavailableResolver) Kind() string {
	return KindUnavailable
}

// Resolve always fails with ErrUnavailable.
func (r *UnavailableResolver) Resolve(_ context.Context, d item.Descriptor) (*item.Resource, error) {
	reason := r.config.Reason
	if v, ok := d.Settings["reason"].(string); ok && v != "" {
		reason = v
	}
	return nil, errors.Wrap(ErrUnavailable, reason)
}
