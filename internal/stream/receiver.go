package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/twinbridge/twinbridge-core/internal/infrastructure/logging"
	"github.com/twinbridge/twinbridge-core/internal/infrastructure/mqtt"
	"github.com/twinbridge/twinbridge-core/internal/ingest"
)

// Broker is the subset of the MQTT client the receiver uses.
type Broker interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Processor handles one decoded event. See ingest.Pipeline for the
// error contract.
type Processor interface {
	Process(ctx context.Context, ev *ingest.Envelope) error
}

// Checkpoints persists per-partition cursors.
type Checkpoints interface {
	Position(ctx context.Context, partition string) (time.Time, bool, error)
	Advance(ctx context.Context, partition string, position time.Time) error
}

// Stats is a snapshot of receiver counters since startup.
type Stats struct {
	Processed int64 `json:"processed"`
	Skipped   int64 `json:"skipped"`
	Foreign   int64 `json:"foreign"`
	Malformed int64 `json:"malformed"`
	Failed    int64 `json:"failed"`
}

// Receiver consumes telemetry events from the broker's event topics
// and feeds them through the pipeline with at-least-once semantics.
//
// Per partition, the checkpoint cursor is the broker enqueue time of
// the last fully processed event, which is the event's position on the
// partition. The cursor advances only when Process returns nil.
// Redeliveries strictly behind the cursor are skipped; an event at the
// cursor is reprocessed and the idempotent per-sample upsert absorbs
// the duplicate, so distinct events are never lost to a shared enqueue
// time or a lagging device clock. Foreign-scope events are ignored but
// do not advance the cursor, so the position always refers to an event
// of this application.
type Receiver struct {
	broker      Broker
	processor   Processor
	checkpoints Checkpoints
	qos         byte
	logger      *logging.Logger

	mu        sync.Mutex
	positions map[string]time.Time
	loaded    map[string]bool
	stats     Stats
}

// NewReceiver builds a receiver. qos is the subscription QoS from the
// mqtt config section.
func NewReceiver(broker Broker, processor Processor, checkpoints Checkpoints, qos byte, logger *logging.Logger) *Receiver {
	return &Receiver{
		broker:      broker,
		processor:   processor,
		checkpoints: checkpoints,
		qos:         qos,
		logger:      logger.With("component", "stream"),
		positions:   make(map[string]time.Time),
		loaded:      make(map[string]bool),
	}
}

// Run subscribes to all event partitions and blocks until ctx is
// cancelled. Always returns ctx.Err() after a successful subscribe.
func (r *Receiver) Run(ctx context.Context) error {
	topic := mqtt.Topics{}.AllEvents()

	err := r.broker.Subscribe(topic, r.qos, func(topic string, payload []byte) error {
		return r.handle(ctx, topic, payload)
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}

	r.logger.Info("stream receiver started", "topic", topic, "qos", int(r.qos))

	<-ctx.Done()

	if err := r.broker.Unsubscribe(topic); err != nil {
		r.logger.Warn("unsubscribe failed during shutdown", "topic", topic, "error", err)
	}
	return ctx.Err()
}

// Stats returns a snapshot of the receiver counters.
func (r *Receiver) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// handle processes one raw message. A nil return acknowledges the
// message to the broker; errors are logged by the MQTT client and the
// checkpoint stays put, so a redelivery will retry the event.
func (r *Receiver) handle(ctx context.Context, topic string, payload []byte) error {
	partition, ok := mqtt.EventPartition(topic)
	if !ok {
		r.logger.Warn("message on unexpected topic", "topic", topic)
		return nil
	}

	ev, err := ingest.DecodeEnvelope(payload)
	if err != nil {
		// A payload that cannot be decoded will never succeed; drop it
		// rather than blocking the partition.
		r.count(func(s *Stats) { s.Malformed++ })
		r.logger.Warn("dropping malformed event", "partition", partition, "error", err)
		return nil
	}

	enqueuedAt, positioned := ev.EnqueuedAt()
	if positioned {
		position, known, err := r.position(ctx, partition)
		if err != nil {
			r.count(func(s *Stats) { s.Failed++ })
			return fmt.Errorf("reading checkpoint: %w", err)
		}
		if known && enqueuedAt.Before(position) {
			// The broker already delivered past this position before a
			// restart. Only strictly older events are skipped; an event
			// at the cursor is reprocessed and deduplicated by the
			// idempotent upsert.
			r.count(func(s *Stats) { s.Skipped++ })
			return nil
		}
	}

	switch err := r.processor.Process(ctx, ev); {
	case err == nil:
		if positioned {
			if err := r.advance(ctx, partition, enqueuedAt); err != nil {
				r.count(func(s *Stats) { s.Failed++ })
				return err
			}
		}
		r.count(func(s *Stats) { s.Processed++ })
		return nil
	case errors.Is(err, ingest.ErrForeignScope):
		// Another tenant's event. Ignore it, but leave the cursor on
		// the last event of this application.
		r.count(func(s *Stats) { s.Foreign++ })
		return nil
	case errors.Is(err, ingest.ErrTimestampUnresolved):
		// Redelivery can never supply a timestamp the event does not
		// carry, so retrying would poison the partition. Ack and drop.
		r.count(func(s *Stats) { s.Malformed++ })
		r.logger.Warn("dropping event without usable timestamp",
			"partition", partition,
			"device", ev.DeviceID,
			"error", err)
		return nil
	default:
		r.count(func(s *Stats) { s.Failed++ })
		r.logger.Warn("event processing failed, awaiting redelivery",
			"partition", partition,
			"device", ev.DeviceID,
			"error", err)
		return err
	}
}

// position returns the cursor for a partition, loading it from the
// checkpoint store on first touch.
func (r *Receiver) position(ctx context.Context, partition string) (time.Time, bool, error) {
	r.mu.Lock()
	if r.loaded[partition] {
		pos, ok := r.positions[partition]
		r.mu.Unlock()
		return pos, ok, nil
	}
	r.mu.Unlock()

	pos, ok, err := r.checkpoints.Position(ctx, partition)
	if err != nil {
		return time.Time{}, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded[partition] = true
	if ok {
		r.positions[partition] = pos
	}
	pos, ok = r.positions[partition]
	return pos, ok, nil
}

func (r *Receiver) advance(ctx context.Context, partition string, position time.Time) error {
	if err := r.checkpoints.Advance(ctx, partition, position); err != nil {
		return fmt.Errorf("advancing checkpoint: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded[partition] = true
	if position.After(r.positions[partition]) {
		r.positions[partition] = position
	}
	return nil
}

func (r *Receiver) count(update func(*Stats)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	update(&r.stats)
}
