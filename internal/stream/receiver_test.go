package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/twinbridge/twinbridge-core/internal/infrastructure/logging"
	"github.com/twinbridge/twinbridge-core/internal/infrastructure/mqtt"
	"github.com/twinbridge/twinbridge-core/internal/ingest"
)

type mockProcessor struct {
	processed []*ingest.Envelope
	err       error
}

func (m *mockProcessor) Process(_ context.Context, ev *ingest.Envelope) error {
	m.processed = append(m.processed, ev)
	return m.err
}

type mockCheckpoints struct {
	positions map[string]time.Time
	advances  int
	err       error
}

func newMockCheckpoints() *mockCheckpoints {
	return &mockCheckpoints{positions: make(map[string]time.Time)}
}

func (m *mockCheckpoints) Position(_ context.Context, partition string) (time.Time, bool, error) {
	if m.err != nil {
		return time.Time{}, false, m.err
	}
	pos, ok := m.positions[partition]
	return pos, ok, nil
}

func (m *mockCheckpoints) Advance(_ context.Context, partition string, position time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.advances++
	if position.After(m.positions[partition]) {
		m.positions[partition] = position
	}
	return nil
}

type mockBroker struct {
	mu      sync.Mutex
	topic   string
	handler mqtt.MessageHandler
}

func (m *mockBroker) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topic = topic
	m.handler = handler
	return nil
}

func (m *mockBroker) Unsubscribe(string) error { return nil }

func (m *mockBroker) subscribed() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.topic, m.handler != nil
}

func newTestReceiver(p *mockProcessor, c *mockCheckpoints) *Receiver {
	return NewReceiver(&mockBroker{}, p, c, 1, logging.Default())
}

func eventPayload(enqueued string) []byte {
	return []byte(fmt.Sprintf(
		`{"applicationId":"app-1","deviceId":"Truck1","templateId":"dtmi:example:truck;1","telemetry":{"Temp":1.5},"enqueuedTime":%q}`,
		enqueued))
}

const eventTopic = "twinbridge/events/partition-0"

func TestHandle_AdvancesCheckpointOnSuccess(t *testing.T) {
	p := &mockProcessor{}
	c := newMockCheckpoints()
	r := newTestReceiver(p, c)

	err := r.handle(context.Background(), eventTopic, eventPayload("2025-06-01T12:00:00Z"))
	if err != nil {
		t.Fatalf("handle() error = %v", err)
	}

	if len(p.processed) != 1 {
		t.Fatalf("processed = %d events, want 1", len(p.processed))
	}
	want := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if got := c.positions["partition-0"]; !got.Equal(want) {
		t.Errorf("checkpoint = %v, want %v", got, want)
	}
	if s := r.Stats(); s.Processed != 1 {
		t.Errorf("Stats().Processed = %d, want 1", s.Processed)
	}
}

func TestHandle_SkipsOnlyEventsBehindCursor(t *testing.T) {
	p := &mockProcessor{}
	c := newMockCheckpoints()
	c.positions["partition-0"] = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r := newTestReceiver(p, c)

	// Strictly behind the cursor: the broker already delivered past it.
	if err := r.handle(context.Background(), eventTopic, eventPayload("2025-06-01T11:59:00Z")); err != nil {
		t.Fatalf("handle() error = %v", err)
	}
	if s := r.Stats(); s.Skipped != 1 {
		t.Errorf("Stats().Skipped = %d, want 1", s.Skipped)
	}

	// At the cursor: ambiguous, so it is reprocessed and the idempotent
	// write absorbs a duplicate. After it: processed normally.
	for _, enqueued := range []string{"2025-06-01T12:00:00Z", "2025-06-01T12:00:01Z"} {
		if err := r.handle(context.Background(), eventTopic, eventPayload(enqueued)); err != nil {
			t.Fatalf("handle(%s) error = %v", enqueued, err)
		}
	}
	if len(p.processed) != 2 {
		t.Errorf("processed = %d events, want 2", len(p.processed))
	}
}

func TestHandle_LaggingDeviceClockStillProcessed(t *testing.T) {
	p := &mockProcessor{}
	c := newMockCheckpoints()
	r := newTestReceiver(p, c)

	if err := r.handle(context.Background(), eventTopic, eventPayload("2025-06-01T10:00:00Z")); err != nil {
		t.Fatalf("handle() error = %v", err)
	}

	// Distinct event enqueued after the cursor but stamped by a device
	// clock running half an hour behind it. The cursor tracks enqueue
	// order, not sample time, so the event must process.
	lagging := []byte(`{"applicationId":"app-1","deviceId":"Truck2","templateId":"dtmi:example:truck;1",` +
		`"telemetry":{"Temp":2.5},"enqueuedTime":"2025-06-01T10:00:05Z",` +
		`"messageProperties":{"iothub-creation-time-utc":"2025-06-01T09:30:00Z"}}`)
	if err := r.handle(context.Background(), eventTopic, lagging); err != nil {
		t.Fatalf("handle() error = %v", err)
	}

	if len(p.processed) != 2 {
		t.Fatalf("processed %d events, want 2", len(p.processed))
	}
	if s := r.Stats(); s.Skipped != 0 {
		t.Errorf("Stats().Skipped = %d, want 0", s.Skipped)
	}
	want := time.Date(2025, 6, 1, 10, 0, 5, 0, time.UTC)
	if got := c.positions["partition-0"]; !got.Equal(want) {
		t.Errorf("checkpoint = %v, want enqueue position %v", got, want)
	}
}

func TestHandle_UnpositionedEventProcessedWithoutAdvance(t *testing.T) {
	p := &mockProcessor{}
	c := newMockCheckpoints()
	r := newTestReceiver(p, c)

	// No enqueue time means no stream position: the event still
	// processes, but the cursor stays put.
	payload := []byte(`{"applicationId":"app-1","deviceId":"Truck1","templateId":"dtmi:example:truck;1",` +
		`"telemetry":{"Temp":1.5},` +
		`"messageProperties":{"iothub-creation-time-utc":"2025-06-01T12:00:00Z"}}`)
	if err := r.handle(context.Background(), eventTopic, payload); err != nil {
		t.Fatalf("handle() error = %v", err)
	}

	if len(p.processed) != 1 {
		t.Errorf("processed = %d events, want 1", len(p.processed))
	}
	if c.advances != 0 {
		t.Errorf("checkpoint advances = %d, want 0", c.advances)
	}
}

func TestHandle_ForeignScopeIgnoredWithoutAdvance(t *testing.T) {
	p := &mockProcessor{err: fmt.Errorf("%w: application %q", ingest.ErrForeignScope, "other")}
	c := newMockCheckpoints()
	r := newTestReceiver(p, c)

	err := r.handle(context.Background(), eventTopic, eventPayload("2025-06-01T12:00:00Z"))
	if err != nil {
		t.Fatalf("handle() error = %v, want nil for foreign event", err)
	}

	if c.advances != 0 {
		t.Errorf("checkpoint advances = %d for foreign event, want 0", c.advances)
	}
	if s := r.Stats(); s.Foreign != 1 {
		t.Errorf("Stats().Foreign = %d, want 1", s.Foreign)
	}
}

func TestHandle_ProcessFailureWithholdsCheckpoint(t *testing.T) {
	p := &mockProcessor{err: errors.New("store unavailable")}
	c := newMockCheckpoints()
	r := newTestReceiver(p, c)

	err := r.handle(context.Background(), eventTopic, eventPayload("2025-06-01T12:00:00Z"))
	if err == nil {
		t.Fatal("handle() error = nil, want error so the event is redelivered")
	}

	if c.advances != 0 {
		t.Errorf("checkpoint advances = %d after failure, want 0", c.advances)
	}

	// Retry after the store recovers: same event processes and the
	// cursor moves.
	p.err = nil
	if err := r.handle(context.Background(), eventTopic, eventPayload("2025-06-01T12:00:00Z")); err != nil {
		t.Fatalf("handle() retry error = %v", err)
	}
	if c.advances != 1 {
		t.Errorf("checkpoint advances = %d after retry, want 1", c.advances)
	}
}

func TestHandle_MalformedPayloadDropped(t *testing.T) {
	p := &mockProcessor{}
	c := newMockCheckpoints()
	r := newTestReceiver(p, c)

	if err := r.handle(context.Background(), eventTopic, []byte("{not json")); err != nil {
		t.Fatalf("handle() error = %v, want nil for malformed payload", err)
	}

	if len(p.processed) != 0 {
		t.Errorf("processed = %d events, want 0", len(p.processed))
	}
	if c.advances != 0 {
		t.Errorf("checkpoint advances = %d, want 0", c.advances)
	}
	if s := r.Stats(); s.Malformed != 1 {
		t.Errorf("Stats().Malformed = %d, want 1", s.Malformed)
	}
}

func TestHandle_UnresolvableTimestampAckedAndDropped(t *testing.T) {
	p := &mockProcessor{err: fmt.Errorf("%w: device %s", ingest.ErrTimestampUnresolved, "Truck1")}
	c := newMockCheckpoints()
	r := newTestReceiver(p, c)

	// Redelivery can never supply the missing timestamp, so the event is
	// acked instead of poisoning the partition.
	if err := r.handle(context.Background(), eventTopic, eventPayload("2025-06-01T12:00:00Z")); err != nil {
		t.Fatalf("handle() error = %v, want nil for unresolvable timestamp", err)
	}

	if c.advances != 0 {
		t.Errorf("checkpoint advances = %d, want 0", c.advances)
	}
	if s := r.Stats(); s.Malformed != 1 {
		t.Errorf("Stats().Malformed = %d, want 1", s.Malformed)
	}
}

func TestHandle_PartitionsTrackedIndependently(t *testing.T) {
	p := &mockProcessor{}
	c := newMockCheckpoints()
	r := newTestReceiver(p, c)

	if err := r.handle(context.Background(), "twinbridge/events/partition-0", eventPayload("2025-06-01T12:00:00Z")); err != nil {
		t.Fatalf("handle() error = %v", err)
	}
	if err := r.handle(context.Background(), "twinbridge/events/partition-1", eventPayload("2025-06-01T11:00:00Z")); err != nil {
		t.Fatalf("handle() error = %v", err)
	}

	// partition-1's older enqueue time is not behind its own (empty)
	// cursor, so both events process.
	if len(p.processed) != 2 {
		t.Errorf("processed = %d events, want 2", len(p.processed))
	}
	if len(c.positions) != 2 {
		t.Errorf("checkpointed partitions = %d, want 2", len(c.positions))
	}
}

func TestRun_SubscribesAndStopsOnCancel(t *testing.T) {
	broker := &mockBroker{}
	r := NewReceiver(broker, &mockProcessor{}, newMockCheckpoints(), 1, logging.Default())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	// Wait for the subscription to register, then cancel.
	deadline := time.After(2 * time.Second)
	topic, ok := broker.subscribed()
	for !ok {
		select {
		case <-deadline:
			t.Fatal("timeout waiting for subscribe")
		case <-time.After(10 * time.Millisecond):
		}
		topic, ok = broker.subscribed()
	}
	if want := (mqtt.Topics{}).AllEvents(); topic != want {
		t.Errorf("subscribed topic = %q, want %q", topic, want)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
