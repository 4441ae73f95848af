package ingest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/twinbridge/twinbridge-core/internal/infrastructure/logging"
	"github.com/twinbridge/twinbridge-core/internal/model"
	"github.com/twinbridge/twinbridge-core/internal/store"
)

// Recorder receives per-event ingest metrics. A nil Recorder disables
// recording.
type Recorder interface {
	RecordEvent(samples, dropped, failedBatches int)
}

// Tap receives a summary of every processed event for live diagnostics.
// A nil Tap disables publishing.
type Tap interface {
	PublishEvent(ev TapEvent)
}

// TapEvent is the live-diagnostics view of one processed event.
type TapEvent struct {
	DeviceID  string    `json:"device_id"`
	Component string    `json:"component,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Samples   int       `json:"samples"`
	Dropped   int       `json:"dropped"`
}

// Pipeline processes one decoded stream event per invocation: scope
// filter, timestamp resolution, attribute resolution, demultiplexing and
// one write per non-empty batch.
//
// Error contract: a nil return means every derived batch was attempted
// (successfully or not) and the event's checkpoint may advance.
// ErrForeignScope means the event belongs to another tenant and was
// ignored. Any other error aborts the event before its writes; the
// checkpoint must be withheld so the event is redelivered.
type Pipeline struct {
	resolver      *Resolver
	store         store.TelemetryStore
	applicationID string
	logger        *logging.Logger
	recorder      Recorder
	tap           Tap
}

// NewPipeline builds a pipeline scoped to one catalog application.
func NewPipeline(resolver *Resolver, st store.TelemetryStore, applicationID string, recorder Recorder, tap Tap, logger *logging.Logger) *Pipeline {
	return &Pipeline{
		resolver:      resolver,
		store:         st,
		applicationID: applicationID,
		logger:        logger.With("component", "ingest"),
		recorder:      recorder,
		tap:           tap,
	}
}

// Process handles one event.
func (p *Pipeline) Process(ctx context.Context, ev *Envelope) error {
	if ev.ApplicationID != p.applicationID {
		return fmt.Errorf("%w: application %q", ErrForeignScope, ev.ApplicationID)
	}

	timestamp, err := ev.Timestamp()
	if err != nil {
		return err
	}

	equipment := strings.ToLower(ev.DeviceID)
	childEquipment := strings.ToLower(ev.Component)

	values := ev.Values()
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		samples []Sample
		dropped int
	)
	for _, name := range names {
		attribute := strings.ToLower(name)
		identity, ok := p.resolver.Resolve(ctx, ev.TemplateID, equipment, childEquipment, attribute)
		if !ok {
			dropped++
			continue
		}
		samples = append(samples, Sample{
			Attribute: attribute,
			ID:        identity.ID,
			DataType:  identity.DataType,
			Value:     values[name],
		})
	}

	batches, sampleErrs := Demux(timestamp, samples)
	for _, sampleErr := range sampleErrs {
		p.logger.Warn("sample dropped", "device", ev.DeviceID, "error", sampleErr)
	}
	dropped += len(sampleErrs)

	// Every non-empty batch is an independent write. One batch failing
	// must not block the others; failures are reported per batch and the
	// checkpoint still advances once all were attempted.
	failedBatches := 0
	for _, dataType := range model.AllDataTypes() {
		batch, ok := batches[dataType]
		if !ok || batch.Len() == 0 {
			continue
		}
		if err := p.store.UpsertTimeSeries(ctx, dataType, batch.IDs, batch.Values, batch.Timestamps); err != nil {
			failedBatches++
			p.logger.Error("batch write failed",
				"data_type", string(dataType),
				"samples", batch.Len(),
				"device", ev.DeviceID,
				"error", err)
		}
	}

	if p.recorder != nil {
		p.recorder.RecordEvent(len(samples), dropped, failedBatches)
	}
	if p.tap != nil {
		p.tap.PublishEvent(TapEvent{
			DeviceID:  ev.DeviceID,
			Component: ev.Component,
			Timestamp: timestamp,
			Samples:   len(samples),
			Dropped:   dropped,
		})
	}

	return nil
}
