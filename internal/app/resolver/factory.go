package resolver

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/playqueue/internal/infra/config"
)

// NewRegistryFromConfig creates a registry from configuration.
func NewRegistryFromConfig(cfgs []config.ResolverConfig) (*Registry, error) {
	if len(cfgs) == 0 {
		return nil, errors.New("no resolvers configured")
	}

	registry := NewRegistry()
	for i, rcfg := range cfgs {
		var res Resolver
		var err error
		zlog.Debug().Msgf("creating resolver: index=%d kind=%s settings=%+v", i+1, rcfg.Kind, rcfg.Settings)
		switch rcfg.Kind {
		case KindStatic:
			res, err = NewStaticResolver(rcfg.Settings)

		case KindUnavailable:
			res, err = NewUnavailableResolver(rcfg.Settings)

		case KindManifest:
			res, err = NewManifestResolver(rcfg.Settings)

		default:
			return nil, errors.Newf("unsupported resolver kind: %s (resolver index %d)", rcfg.Kind, i)
		}

		if err != nil {
			return nil, errors.Wrapf(err, "failed to create resolver (index %d, kind %s)", i, rcfg.Kind)
		}

		registry.Register(res)
		zlog.Info().Msgf("registered resolver: index=%d kind=%s", i+1, rcfg.Kind)
	}

	return registry, nil
}
