package ingest

import (
	"encoding/json"
	"fmt"
	"time"
)

// creationTimeKey is the transport-level message property carrying the
// device-side creation time. Preferred over the broker enqueue time.
const creationTimeKey = "iothub-creation-time-utc"

// Envelope is one decoded telemetry or property-change event from the
// stream. Telemetry events carry a telemetry map; property events carry a
// properties map. Both map attribute names to raw values.
type Envelope struct {
	ApplicationID     string            `json:"applicationId"`
	DeviceID          string            `json:"deviceId"`
	TemplateID        string            `json:"templateId"`
	Component         string            `json:"component,omitempty"`
	Telemetry         map[string]any    `json:"telemetry,omitempty"`
	Properties        map[string]any    `json:"properties,omitempty"`
	EnqueuedTime      string            `json:"enqueuedTime,omitempty"`
	MessageProperties map[string]string `json:"messageProperties,omitempty"`
	Enrichments       map[string]any    `json:"enrichments,omitempty"`
	MessageSource     string            `json:"messageSource,omitempty"`
}

// DecodeEnvelope parses one event payload.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var ev Envelope
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	return &ev, nil
}

// Values returns the attribute map this event carries: telemetry when
// present, otherwise the property map. Both feed the same demux path.
func (e *Envelope) Values() map[string]any {
	if len(e.Telemetry) > 0 {
		return e.Telemetry
	}
	return e.Properties
}

// EnqueuedAt parses the broker enqueue time, the event's position on its
// partition. Distinct from Timestamp, which prefers the device-side
// creation time and stamps the stored samples.
func (e *Envelope) EnqueuedAt() (time.Time, bool) {
	if e.EnqueuedTime == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, e.EnqueuedTime)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// Timestamp resolves the event time. The transport creation-time property
// wins; the enqueue time is the fallback. If neither parses the event
// cannot be timestamped and must fail outright.
func (e *Envelope) Timestamp() (time.Time, error) {
	if raw, ok := e.MessageProperties[creationTimeKey]; ok {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return ts, nil
		}
	}

	if e.EnqueuedTime != "" {
		if ts, err := time.Parse(time.RFC3339Nano, e.EnqueuedTime); err == nil {
			return ts, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: device %s", ErrTimestampUnresolved, e.DeviceID)
}
