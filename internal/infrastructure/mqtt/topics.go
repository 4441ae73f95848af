package mqtt

import "fmt"

// Topic prefixes for the TwinBridge broker namespace.
//
// Upstream telemetry arrives on per-partition event topics:
// twinbridge/events/{partition}. The partition segment is assigned by
// the publisher and is the unit of ordering and checkpointing.
const (
	// TopicPrefix is the base for all TwinBridge topics.
	TopicPrefix = "twinbridge"

	// TopicPrefixEvents is the base for telemetry event topics.
	TopicPrefixEvents = "twinbridge/events"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "twinbridge/system"
)

// Topics provides builders for TwinBridge MQTT topics. Using these
// helpers keeps topic naming consistent across the codebase.
type Topics struct{}

// Events returns the telemetry event topic for one partition.
//
// Example: twinbridge/events/partition-0
func (Topics) Events(partition string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixEvents, partition)
}

// AllEvents returns a pattern matching every event partition.
//
// Pattern: twinbridge/events/+
func (Topics) AllEvents() string {
	return fmt.Sprintf("%s/+", TopicPrefixEvents)
}

// SystemStatus returns the bridge status topic. The bridge publishes
// retained online/offline messages here, including its Last Will.
//
// Example: twinbridge/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// EventPartition extracts the partition segment from an event topic.
// ok is false when the topic is not under the events prefix.
func EventPartition(topic string) (partition string, ok bool) {
	prefix := TopicPrefixEvents + "/"
	if len(topic) <= len(prefix) || topic[:len(prefix)] != prefix {
		return "", false
	}
	partition = topic[len(prefix):]
	for i := 0; i < len(partition); i++ {
		if partition[i] == '/' {
			return "", false
		}
	}
	return partition, true
}
