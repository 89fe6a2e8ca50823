package resolver

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/playqueue/internal/domain/item"
	"github.com/osa030/playqueue/internal/infra/manifest"
)

// KindManifest is the kind of descriptors whose locator points to a manifest.
const KindManifest = "manifest"

// ManifestResolverConfig holds the resolver-wide settings.
type ManifestResolverConfig struct {
	BaseURL  string        `mapstructure:"base_url" validate:"omitempty,url"`
	Timeout  time.Duration `mapstructure:"timeout" default:"10s"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// ManifestResolver fetches manifests over HTTP.
type ManifestResolver struct {
	client *manifest.Client
}

// NewManifestResolver creates a new ManifestResolver.
func NewManifestResolver(settings map[string]any) (*ManifestResolver, error) {
	var config ManifestResolverConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	client, err := manifest.New(manifest.Config{
		BaseURL:  config.BaseURL,
		Timeout:  config.Timeout,
		CacheTTL: config.CacheTTL,
	})
	if err != nil {
		return nil, err
	}
	zlog.Debug().Msgf("manifest resolver config: %+v", config)
	return &ManifestResolver{client: client}, nil
}

// Kind returns the resolver kind.
func (r *ManifestResolver) Kind() string {
	return KindManifest
}

// Resolve fetches the manifest of d.Locator. Missing, gone and legally
// blocked manifests are reported as unavailable content.
func (r *ManifestResolver) Resolve(ctx context.Context, d item.Descriptor) (*item.Resource, error) {
	m, err := r.client.Fetch(ctx, d.Locator)
	if err != nil {
		if apiErr, ok := manifest.AsAPIError(err); ok && isUnavailable(apiErr.Status) {
			return nil, errors.Wrapf(ErrUnavailable, "%s: %v", d.Locator, apiErr)
		}
		return nil, errors.Wrapf(err, "fetch manifest %q", d.Locator)
	}

	ranges := lo.Map(m.Ranges, func(mr manifest.Range, _ int) RangeSettings {
		return RangeSettings{Kind: mr.Kind, Start: mr.Start(), End: mr.End()}
	})
	return buildResource(d.Locator, m.URL, m.Classification, m.Duration(), ranges)
}

func isUnavailable(status int) bool {
	switch status {
	case http.StatusForbidden, http.StatusNotFound, http.StatusGone, http.StatusUnavailableForLegalReasons:
		return true
	default:
		return false
	}
}
