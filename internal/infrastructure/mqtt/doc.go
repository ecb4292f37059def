// Package mqtt provides MQTT client connectivity for the bridge.
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
// MQTT is the bridge's only southbound transport. Devices (Tasmota,
// zigbee2mqtt, ESPHome and friends) publish state and accept commands on
// their own topic schemes; the bridge subscribes and publishes on the exact
// topics named in device configuration.
//
//	MQTT devices ↔ Broker ↔ Bridge ↔ Matter-style node graph
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
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe("stat/lamp-office/POWER", 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	client.PublishString("cmnd/lamp-office/POWER", "ON")
package mqtt
