package catalog

import "errors"

// Domain errors for the catalog package.
// Check with errors.Is().
var (
	// ErrUnexpectedStatus is returned when the catalog API answers with a
	// non-success HTTP status.
	ErrUnexpectedStatus = errors.New("catalog: unexpected response status")

	// ErrMalformedDocument is returned when a capability-model document or
	// envelope cannot be decoded into the closed content variant.
	ErrMalformedDocument = errors.New("catalog: malformed document")
)
