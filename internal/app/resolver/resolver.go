// Package resolver turns item content descriptors into playable resources.
package resolver

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/playqueue/internal/domain/item"
)

// Errors
var (
	ErrUnknownKind = errors.New("unknown resolver kind")
	ErrUnavailable = errors.New("content unavailable")
)

// Resolver is the interface for content resolution strategies.
type Resolver interface {
	// Resolve produces the resource for d. It may block and must honor ctx.
	Resolve(ctx context.Context, d item.Descriptor) (*item.Resource, error)

	// Kind returns the descriptor kind handled (used in config).
	Kind() string
}

// Registry dispatches descriptors to the resolver of their kind.
type Registry struct {
	resolvers map[string]Resolver
}

// NewRegistry creates a registry with the given resolvers.
func NewRegistry(resolvers ...Resolver) *Registry {
	r := &Registry{resolvers: make(map[string]Resolver, len(resolvers))}
	for _, res := range resolvers {
		r.Register(res)
	}
	return r
}

// Register adds or replaces the resolver of its kind.
func (r *Registry) Register(res Resolver) {
	r.resolvers[res.Kind()] = res
}

// Kinds returns the registered kinds.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.resolvers))
	for k := range r.resolvers {
		kinds = append(kinds, k)
	}
	return kinds
}

// Resolve resolves d with the resolver of its kind.
func (r *Registry) Resolve(ctx context.Context, d item.Descriptor) (*item.Resource, error) {
	res, ok := r.resolvers[d.Kind]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownKind, "kind %q", d.Kind)
	}

	resource, err := res.Resolve(ctx, d)
	if err != nil {
		zlog.Warn().Msgf("resolution failed: kind=%s locator=%s error=%v", d.Kind, d.Locator, err)
		return nil, err
	}
	zlog.Debug().Msgf("resolved: kind=%s locator=%s identity=%s classification=%s", d.Kind, d.Locator, resource.Identity, resource.Classification)
	return resource, nil
}
