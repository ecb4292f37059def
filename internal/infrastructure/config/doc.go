// Package config loads and validates the bridge's YAML configuration.
//
// Configuration is resolved in three layers: built-in defaults, the YAML
// file, and IH8HA_* environment variable overrides. Structural validation
// happens here; per-device-type topic and option validation is owned by the
// device type registry, which knows each type's schema.
//
// # Usage
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	client, err := mqtt.Connect(cfg.MQTT)
package config
