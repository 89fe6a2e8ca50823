// Package item provides the Item domain entity.
package item

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/osa030/playqueue/internal/domain/timeline"
)

// ID identifies an item for its whole lifetime.
type ID string

// NewID returns a fresh random item ID.
func NewID() ID {
	return ID(uuid.New().String())
}

// Descriptor describes content to be resolved into a playable resource.
type Descriptor struct {
	Kind     string         // Resolver kind (e.g. "static")
	Locator  string         // Content locator understood by the resolver
	Title    string         // Display title
	Settings map[string]any // Resolver-specific settings
}

// Resource is a playable resource produced by resolving a descriptor.
type Resource struct {
	Identity       string                  // Changes whenever a new resource is produced
	URL            string                  // Media URL
	Classification timeline.Classification // Timeline classification
	Duration       time.Duration           // Length when on-demand, seekable backlog when DVR
	Ranges         []timeline.Range        // Blocked and credits ranges
}

// Item is a playable unit of the queue.
type Item struct {
	id         ID
	descriptor Descriptor
	generation int
	status     Status
	resource   *Resource
	err        error
}

// New creates an unresolved item with a fresh ID.
func New(d Descriptor) *Item {
	return NewWithID(NewID(), d)
}

// NewWithID creates an unresolved item with the given ID.
func NewWithID(id ID, d Descriptor) *Item {
	return &Item{
		id:         id,
		descriptor: d,
		status:     StatusUnresolved,
	}
}

// ID returns the item ID.
func (i *Item) ID() ID {
	return i.id
}

// Descriptor returns the current content descriptor.
func (i *Item) Descriptor() Descriptor {
	return i.descriptor
}

// Title returns the descriptor title, falling back to the ID.
func (i *Item) Title() string {
	if i.descriptor.Title != "" {
		return i.descriptor.Title
	}
	return string(i.id)
}

// Generation is incremented each time the descriptor is replaced.
func (i *Item) Generation() int {
	return i.generation
}

// Status returns the resolution status.
func (i *Item) Status() Status {
	return i.status
}

// Resource returns the resolved resource, if any.
func (i *Item) Resource() (*Resource, bool) {
	return i.resource, i.resource != nil
}

// Err returns the failure, if the item failed.
func (i *Item) Err() error {
	return i.err
}

// IsPlayable returns true if the item has a resource and has not failed.
func (i *Item) IsPlayable() bool {
	return i.status == StatusReady
}

// SetDescriptor replaces the content descriptor in place. The item goes back
// to unresolved and any in-flight resolution becomes stale.
func (i *Item) SetDescriptor(d Descriptor) {
	i.descriptor = d
	i.generation++
	i.status = StatusUnresolved
	i.resource = nil
	i.err = nil
}

// BeginResolve marks the item as resolving and returns the generation the
// result must be reported with.
func (i *Item) BeginResolve() (int, error) {
	if err := i.transition(StatusResolving); err != nil {
		return 0, err
	}
	return i.generation, nil
}

// Resolve records a resolved resource. Stale results are ignored and false is
// returned.
func (i *Item) Resolve(generation int, r *Resource) bool {
	if generation != i.generation || r == nil {
		return false
	}
	if err := i.transition(StatusReady); err != nil {
		return false
	}
	i.resource = r
	return true
}

// Fail records a failure. Resolution failures must carry the generation they
// were started with; engine failures use the current generation.
func (i *Item) Fail(generation int, origin Origin, cause error) bool {
	if generation != i.generation {
		return false
	}
	if err := i.transition(StatusFailed); err != nil {
		return false
	}
	i.err = NewError(i.id, origin, cause)
	return true
}

func (i *Item) transition(to Status) error {
	if !CanTransition(i.status, to) {
		return errors.Newf("invalid item status transition: %s -> %s (item_id=%s)", i.status, to, i.id)
	}
	i.status = to
	return nil
}
