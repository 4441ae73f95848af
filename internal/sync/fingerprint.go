package sync

import "sync"

// Fingerprints is a concurrency-safe map of entity key to last-synced
// version tag. The orchestrator is the only writer; the operational API
// reads it for diagnostics, so access is guarded rather than assumed
// single-threaded.
//
// The zero value is not usable; construct with NewFingerprints.
type Fingerprints struct {
	mu   sync.RWMutex
	tags map[string]string
}

// NewFingerprints returns an empty fingerprint cache.
func NewFingerprints() *Fingerprints {
	return &Fingerprints{tags: make(map[string]string)}
}

// Get returns the cached tag for key.
func (f *Fingerprints) Get(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	tag, ok := f.tags[key]
	return tag, ok
}

// Set records the tag for key.
func (f *Fingerprints) Set(key, tag string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tags[key] = tag
}

// SetAll records every tag in the given map.
func (f *Fingerprints) SetAll(tags map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, tag := range tags {
		f.tags[key] = tag
	}
}

// Len returns the number of cached entries.
func (f *Fingerprints) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.tags)
}

// Snapshot returns a copy of the cache for diagnostics.
func (f *Fingerprints) Snapshot() map[string]string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]string, len(f.tags))
	for key, tag := range f.tags {
		out[key] = tag
	}
	return out
}
