package store

import (
	"context"
	"time"

	"github.com/twinbridge/twinbridge-core/internal/model"
)

// AttributeIdentity is the resolved downstream identity of one attribute:
// the stable numeric id used by time-series writes plus the declared data
// type that selects the target history column family.
type AttributeIdentity struct {
	ID       int64
	DataType model.DataType
}

// ModelStore persists the synchronised type graph and equipment instances.
type ModelStore interface {
	// EnsureLibrary creates the type library if it does not exist yet.
	EnsureLibrary(ctx context.Context, library, displayName string) error

	// EnsureParent resolves (creating on demand) the equipment node all
	// synchronised instances hang under, returning its id.
	EnsureParent(ctx context.Context, parentFqn string) (int64, error)

	// SaveTypes submits one type package as a single atomic import.
	SaveTypes(ctx context.Context, pkg *model.TypePackage) error

	// SaveInstances submits one instance package as a single atomic import.
	SaveInstances(ctx context.Context, pkg *model.InstancePackage) error

	// FetchTypeFingerprints returns the persisted version tag for each of
	// the named equipment types in the library, keyed by relative name.
	// Types without a persisted tag are absent from the result.
	FetchTypeFingerprints(ctx context.Context, library string, names []string) (map[string]string, error)

	// FetchInstanceFingerprints returns the persisted version tag for each
	// equipment instance matching the given dot-joined fqn paths, keyed by
	// relative name.
	FetchInstanceFingerprints(ctx context.Context, fqns []string) (map[string]string, error)
}

// TelemetryStore resolves attribute identities and persists samples.
type TelemetryStore interface {
	// LookupAttribute resolves one attribute to its downstream identity.
	// childEquipment is empty for attributes directly on the equipment.
	// Returns ErrAttributeNotFound when no row matches.
	LookupAttribute(ctx context.Context, equipmentType, equipment, childEquipment, attribute string) (AttributeIdentity, error)

	// UpsertTimeSeries writes one column batch of samples. ids, values and
	// timestamps are index-aligned; every sample carries a "good" quality
	// status. Idempotent per (id, timestamp).
	UpsertTimeSeries(ctx context.Context, dataType model.DataType, ids []int64, values []any, timestamps []time.Time) error
}

// Store is the full downstream store surface.
type Store interface {
	ModelStore
	TelemetryStore

	// HealthCheck verifies the store connection is usable.
	HealthCheck(ctx context.Context) error

	// Close releases the connection pool.
	Close()
}
