package item

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Origin tells where an item failure came from.
type Origin int

const (
	OriginResolution Origin = iota // Descriptor could not be resolved
	OriginEngine                   // Playback engine failed (network, decode)
)

// String returns the string representation of the origin.
func (o Origin) String() string {
	switch o {
	case OriginResolution:
		return "resolution"
	case OriginEngine:
		return "engine"
	default:
		return "unknown"
	}
}

// Error is the single error type for item failures, whatever their origin.
type Error struct {
	ItemID ID
	Origin Origin
	Err    error
}

// NewError wraps cause into an item error.
func NewError(id ID, origin Origin, cause error) *Error {
	if cause == nil {
		cause = errors.New("unspecified failure")
	}
	return &Error{ItemID: id, Origin: origin, Err: cause}
}

func (e *Error) Error() string {
	return fmt.Sprintf("item %s: %s failure: %v", e.ItemID, e.Origin, e.Err)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// AsError extracts an item error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
