// Package mqtt provides MQTT client connectivity for FieldFlow Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Domain event publishing with QoS guarantees
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// FieldFlow uses MQTT as a one-way event bus: the core publishes
// tenant lifecycle and stock events, downstream integrations
// (notification services, sync workers) subscribe. The core never
// consumes from the bus.
//
//	FieldFlow Core → MQTT Broker → Downstream Consumers
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Event payloads carry IDs, never credentials or tokens
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.TenantSubscription(42)
//	client.PublishEvent(topic, map[string]any{"active": false})
package mqtt
