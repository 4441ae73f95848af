package transform

import (
	"errors"
	"fmt"
)

// ErrInvalidSchema is returned when a capability-model document is
// structurally malformed: an unrecognised content kind, a structured
// schema that is not an Enum, a missing schema on a property node.
// The error is fatal to the whole transformation (all-or-nothing).
var ErrInvalidSchema = errors.New("transform: invalid schema")

// UnmappedUnitError is returned when a content node declares a unit that
// has no canonical mapping in the vocabulary. Like ErrInvalidSchema it is
// fatal to the whole transformation: a silently skipped unit would let
// mismatched measurements reach the store.
type UnmappedUnitError struct {
	// Unit is the vendor unit keyword that failed to resolve.
	Unit string
}

func (e *UnmappedUnitError) Error() string {
	return fmt.Sprintf("transform: unmapped unit %q", e.Unit)
}
