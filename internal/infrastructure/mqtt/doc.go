// Package mqtt provides MQTT client connectivity for TwinBridge Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// TwinBridge consumes the upstream telemetry stream over MQTT. Each
// event partition is one topic under twinbridge/events/; the stream
// receiver subscribes to all of them and checkpoints per partition.
//
//	Upstream publisher → MQTT Broker → TwinBridge Core
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllEvents(), 1,
//	    func(topic string, payload []byte) error {
//	        return receiver.Handle(topic, payload)
//	    })
package mqtt
