package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/twinbridge/twinbridge-core/internal/infrastructure/logging"
	"github.com/twinbridge/twinbridge-core/internal/store"
)

// Resolver maps (equipment type, equipment, child equipment, attribute)
// to the attribute's downstream identity, caching successful resolutions
// for the lifetime of the process.
//
// The cache is shared by concurrent stream partitions. It is never
// evicted: the catalog bounds the attribute count. Misses are NOT cached,
// so an attribute created after a failed lookup resolves on the next
// event that references it.
type Resolver struct {
	store  store.TelemetryStore
	logger *logging.Logger

	mu    sync.RWMutex
	cache map[string]store.AttributeIdentity
}

// NewResolver builds a resolver over the given store.
func NewResolver(st store.TelemetryStore, logger *logging.Logger) *Resolver {
	return &Resolver{
		store:  st,
		logger: logger.With("component", "resolver"),
		cache:  make(map[string]store.AttributeIdentity),
	}
}

// Resolve returns the identity for one attribute. ok is false when the
// attribute is unknown downstream (deleted from the model but still
// reported by the device) or the lookup failed; the caller drops that
// sample and continues.
func (r *Resolver) Resolve(ctx context.Context, equipmentType, equipment, childEquipment, attribute string) (store.AttributeIdentity, bool) {
	key := cacheKey(equipmentType, equipment, childEquipment, attribute)

	r.mu.RLock()
	identity, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return identity, true
	}

	identity, err := r.store.LookupAttribute(ctx, equipmentType, equipment, childEquipment, attribute)
	if err != nil {
		if errors.Is(err, store.ErrAttributeNotFound) {
			r.logger.Warn("telemetry for unknown attribute",
				"attribute", attribute,
				"child_equipment", childEquipment,
				"equipment", equipment,
				"equipment_type", equipmentType)
		} else {
			r.logger.Warn("attribute lookup failed", "attribute", attribute, "error", err)
		}
		return store.AttributeIdentity{}, false
	}

	r.mu.Lock()
	r.cache[key] = identity
	r.mu.Unlock()
	return identity, true
}

// CacheSize returns the number of cached identities.
func (r *Resolver) CacheSize() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

func cacheKey(equipmentType, equipment, childEquipment, attribute string) string {
	return fmt.Sprintf("%s|%s|%s|%s",
		equipmentType, strings.ToLower(equipment), strings.ToLower(childEquipment), strings.ToLower(attribute))
}
