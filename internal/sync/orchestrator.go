package sync

import (
	"context"
	"fmt"
	"sort"
	"strings"
	gosync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/twinbridge/twinbridge-core/internal/catalog"
	"github.com/twinbridge/twinbridge-core/internal/infrastructure/config"
	"github.com/twinbridge/twinbridge-core/internal/infrastructure/logging"
	"github.com/twinbridge/twinbridge-core/internal/model"
	"github.com/twinbridge/twinbridge-core/internal/store"
	"github.com/twinbridge/twinbridge-core/internal/transform"
)

// Catalog is the slice of the upstream client the orchestrator uses.
type Catalog interface {
	ListDeviceTemplates(ctx context.Context) ([]catalog.DeviceTemplate, error)
	ListDevices(ctx context.Context) ([]catalog.Device, error)
	DeviceProperties(ctx context.Context, deviceID string) (map[string]any, error)
}

// Recorder receives per-cycle metrics. A nil Recorder disables recording.
type Recorder interface {
	RecordSyncCycle(duration time.Duration, typesChanged, instancesChanged int, failed bool)
}

// Result summarises one completed sync cycle.
type Result struct {
	TypesChanged     int
	InstancesChanged int
	Duration         time.Duration
	CompletedAt      time.Time
	Err              error
}

// Status is a diagnostic snapshot of the orchestrator.
type Status struct {
	Cycles               uint64
	LastResult           Result
	TypeFingerprints     int
	InstanceFingerprints int
}

// Orchestrator runs the incremental model synchronisation loop.
//
// Cycles are strictly sequential: runMu serialises RunCycle, so a cycle
// triggered through the operational API can never overlap with one started
// by the interval timer, no matter how long a store write takes.
type Orchestrator struct {
	catalog  Catalog
	store    store.ModelStore
	logger   *logging.Logger
	recorder Recorder

	library            string
	libraryDisplayName string
	parentFqn          model.FQN
	interval           time.Duration

	types     *Fingerprints
	instances *Fingerprints

	runMu gosync.Mutex // held for the duration of a cycle

	mu         gosync.Mutex
	cycles     uint64
	lastResult Result
}

// New builds an orchestrator. The fingerprint caches are owned by the
// caller so independent sync sessions never share state.
func New(cat Catalog, st store.ModelStore, cfg config.SyncConfig, types, instances *Fingerprints, recorder Recorder, logger *logging.Logger) *Orchestrator {
	return &Orchestrator{
		catalog:            cat,
		store:              st,
		logger:             logger.With("component", "sync"),
		recorder:           recorder,
		library:            cfg.Library,
		libraryDisplayName: cfg.LibraryDisplayName,
		parentFqn:          model.NewFQN(strings.Split(cfg.ParentFqn, ".")...),
		interval:           time.Duration(cfg.IntervalSeconds) * time.Second,
		types:              types,
		instances:          instances,
	}
}

// Bootstrap ensures the type library and the parent equipment node exist.
// Must succeed before Run is started.
func (o *Orchestrator) Bootstrap(ctx context.Context) error {
	if err := o.store.EnsureLibrary(ctx, o.library, o.libraryDisplayName); err != nil {
		return fmt.Errorf("bootstrapping library: %w", err)
	}

	parentID, err := o.store.EnsureParent(ctx, o.parentFqn.String())
	if err != nil {
		return fmt.Errorf("bootstrapping parent: %w", err)
	}

	o.logger.Info("store bootstrapped", "library", o.library, "parent_fqn", o.parentFqn.String(), "parent_id", parentID)
	return nil
}

// Run executes one cycle immediately, then keeps cycling on the fixed
// interval until ctx is cancelled. Cycle failures are recorded and retried
// on the next tick; only cancellation stops the loop.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.RunCycle(ctx)

	timer := time.NewTimer(o.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			o.RunCycle(ctx)
			timer.Reset(o.interval)
		}
	}
}

// RunCycle performs one full sync cycle: types first, then instances.
// A failure in the type phase skips the instance phase for this cycle.
// Concurrent callers are serialised.
func (o *Orchestrator) RunCycle(ctx context.Context) Result {
	o.runMu.Lock()
	defer o.runMu.Unlock()

	start := time.Now()
	result := Result{}

	typesChanged, err := o.syncTypes(ctx)
	result.TypesChanged = typesChanged
	if err != nil {
		result.Err = err
	} else {
		instancesChanged, err := o.syncInstances(ctx)
		result.InstancesChanged = instancesChanged
		result.Err = err
	}

	result.Duration = time.Since(start)
	result.CompletedAt = time.Now()

	if result.Err != nil {
		o.logger.Error("sync cycle failed", "error", result.Err, "duration", result.Duration)
	} else {
		o.logger.Info("sync cycle complete",
			"types_changed", result.TypesChanged,
			"instances_changed", result.InstancesChanged,
			"duration", result.Duration)
	}

	if o.recorder != nil {
		o.recorder.RecordSyncCycle(result.Duration, result.TypesChanged, result.InstancesChanged, result.Err != nil)
	}

	o.mu.Lock()
	o.cycles++
	o.lastResult = result
	o.mu.Unlock()

	return result
}

// Status returns a diagnostic snapshot.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Status{
		Cycles:               o.cycles,
		LastResult:           o.lastResult,
		TypeFingerprints:     o.types.Len(),
		InstanceFingerprints: o.instances.Len(),
	}
}

// syncTypes diffs device templates against cached fingerprints, transforms
// the changed capability models and submits them as one type package.
func (o *Orchestrator) syncTypes(ctx context.Context) (int, error) {
	templates, err := o.catalog.ListDeviceTemplates(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing device templates: %w", err)
	}

	firstCycle := o.types.Len() == 0
	changes := make(map[string]string)
	changed := make([]catalog.DeviceTemplate, 0, len(templates))

	for _, tpl := range templates {
		if tag, ok := o.types.Get(tpl.ID); ok && tag == tpl.Etag {
			continue
		}
		changes[tpl.ID] = tpl.Etag
		changed = append(changed, tpl)
	}

	if firstCycle && len(changed) > 0 {
		// First cycle since start: seed fingerprints from the store so an
		// unchanged catalog does not re-import after a restart. Pruning
		// happens before any transform, so a template the store already
		// holds at this version is neither re-submitted nor able to abort
		// the cycle.
		candidates := make([]string, 0, len(changed))
		for _, tpl := range changed {
			candidates = append(candidates, tpl.ID)
		}
		persisted, err := o.store.FetchTypeFingerprints(ctx, o.library, candidates)
		if err != nil {
			o.logger.Warn("fetching persisted type fingerprints failed", "error", err)
		} else {
			o.types.SetAll(persisted)
			for name, tag := range persisted {
				if changes[name] == tag {
					delete(changes, name)
				}
			}
		}
	}

	if len(changes) == 0 {
		return 0, nil
	}

	pkg := &model.TypePackage{Meta: newMeta("types")}
	for _, tpl := range changed {
		if _, ok := changes[tpl.ID]; !ok {
			continue
		}

		root := model.EquipmentType{
			Fqn:          model.NewFQN(o.library, tpl.ID),
			RelativeName: tpl.ID,
			DisplayName:  tpl.DisplayName.String(),
			Description:  tpl.Description,
			Document:     model.Document{model.FingerprintKey: tpl.Etag},
		}

		// One malformed document aborts the whole cycle: the package is a
		// single atomic write and a partial type graph must not reach the
		// store. Fingerprints stay untouched, so every entity is retried
		// next cycle.
		extraction, err := transform.Extract(o.library, &tpl.CapabilityModel)
		if err != nil {
			return 0, fmt.Errorf("transforming template %s: %w", tpl.ID, err)
		}

		root.Attributes = extraction.Attributes
		for _, child := range extraction.ChildTypes {
			pkg.EquipmentTypes = append(pkg.EquipmentTypes, child)
			root.ChildEquipment = append(root.ChildEquipment, model.ChildEquipmentLink{
				RelativeName: child.RelativeName,
				DisplayName:  child.DisplayName,
				ChildTypeFqn: child.Fqn,
			})
		}
		pkg.EnumerationTypes = append(pkg.EnumerationTypes, extraction.Enumerations...)
		pkg.EquipmentTypes = append(pkg.EquipmentTypes, root)
	}

	if err := o.store.SaveTypes(ctx, pkg); err != nil {
		return 0, fmt.Errorf("saving type package: %w", err)
	}

	o.types.SetAll(changes)
	return len(changes), nil
}

// syncInstances diffs devices against cached fingerprints and submits the
// changed equipment instances, including their current configuration
// attribute values, as one instance package.
func (o *Orchestrator) syncInstances(ctx context.Context) (int, error) {
	devices, err := o.catalog.ListDevices(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing devices: %w", err)
	}

	firstCycle := o.instances.Len() == 0
	changes := make(map[string]string)
	changed := make([]catalog.Device, 0, len(devices))

	for _, dev := range devices {
		name := strings.ToLower(dev.ID)
		if tag, ok := o.instances.Get(name); ok && tag == dev.Etag {
			continue
		}
		changes[name] = dev.Etag
		changed = append(changed, dev)
	}

	if firstCycle && len(changed) > 0 {
		// Same prune-before-build order as syncTypes; a pruned device also
		// skips its property fetch.
		candidates := make([]string, 0, len(changed))
		for _, dev := range changed {
			candidates = append(candidates, o.parentFqn.Child(strings.ToLower(dev.ID)).String())
		}
		persisted, err := o.store.FetchInstanceFingerprints(ctx, candidates)
		if err != nil {
			o.logger.Warn("fetching persisted instance fingerprints failed", "error", err)
		} else {
			o.instances.SetAll(persisted)
			for name, tag := range persisted {
				if changes[name] == tag {
					delete(changes, name)
				}
			}
		}
	}

	if len(changes) == 0 {
		return 0, nil
	}

	pkg := &model.InstancePackage{Meta: newMeta("instances")}
	for _, dev := range changed {
		name := strings.ToLower(dev.ID)
		if _, ok := changes[name]; !ok {
			continue
		}

		eq := model.Equipment{
			RelativeName: name,
			DisplayName:  dev.DisplayName,
			Fqn:          o.parentFqn.Child(name),
			TypeFqn:      model.NewFQN(o.library, dev.Template),
			Document:     model.Document{model.FingerprintKey: dev.Etag},
		}

		props, err := o.catalog.DeviceProperties(ctx, dev.ID)
		if err != nil {
			return 0, fmt.Errorf("fetching properties for device %s: %w", dev.ID, err)
		}

		propNames := make([]string, 0, len(props))
		for propName := range props {
			propNames = append(propNames, propName)
		}
		sort.Strings(propNames)

		for _, propName := range propNames {
			attrName := strings.ToLower(propName)
			eq.Attributes = append(eq.Attributes, model.AttributeValue{
				RelativeName: attrName,
				Fqn:          eq.Fqn.Child(attrName),
				Value:        props[propName],
			})
		}

		pkg.Equipment = append(pkg.Equipment, eq)
	}

	if err := o.store.SaveInstances(ctx, pkg); err != nil {
		return 0, fmt.Errorf("saving instance package: %w", err)
	}

	o.instances.SetAll(changes)
	return len(changes), nil
}

func newMeta(source string) model.PackageMeta {
	return model.PackageMeta{
		ID:        uuid.NewString(),
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
}
