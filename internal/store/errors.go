package store

import "errors"

var (
	// ErrAttributeNotFound is returned when an attribute lookup matches no
	// row. The attribute may have been deleted from the model while devices
	// still report it; callers treat this as a per-sample condition.
	ErrAttributeNotFound = errors.New("store: attribute not found")

	// ErrParentNotFound is returned when the configured parent equipment
	// node cannot be created or resolved.
	ErrParentNotFound = errors.New("store: parent equipment not found")

	// ErrUnsupportedDataType is returned when a time-series write names a
	// data type with no upsert procedure.
	ErrUnsupportedDataType = errors.New("store: unsupported data type")

	// ErrValueTypeMismatch is returned when a batch value cannot be
	// converted to the column type its data-type tag requires.
	ErrValueTypeMismatch = errors.New("store: value type mismatch")
)
