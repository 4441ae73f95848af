package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedEnvelope is returned when an event payload cannot be
	// decoded into an envelope.
	ErrMalformedEnvelope = errors.New("ingest: malformed event envelope")

	// ErrForeignScope is returned when an event's application id does not
	// match this pipeline's configured scope. The event belongs to another
	// tenant and is ignored without advancing the checkpoint.
	ErrForeignScope = errors.New("ingest: event outside pipeline scope")

	// ErrTimestampUnresolved is returned when neither the transport
	// creation-time property nor the enqueued time parses. The event
	// cannot be timestamped; there is no default-to-now fallback.
	ErrTimestampUnresolved = errors.New("ingest: event timestamp unresolved")
)

// InvalidValueError marks one sample whose raw value does not fit its
// attribute's declared data type. It is scoped to that sample only.
type InvalidValueError struct {
	Attribute string
	DataType  string
	Reason    string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("ingest: invalid %s value for %q: %s", e.DataType, e.Attribute, e.Reason)
}
