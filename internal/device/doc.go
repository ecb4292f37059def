// Package device is the bridge's device abstraction layer: what a device
// type is, how configs are validated against it, and how each configured
// device keeps its MQTT topics and its graph node in sync.
//
// # Structure
//
// Three layers, leaf first:
//
//   - Converters (convert.go): pure value translation between wire encodings
//     (brightness 0-255, RRGGBB hex) and graph encodings (level and
//     hue/saturation/value on 0-254).
//   - Descriptors (descriptor.go plus one file per type): immutable per-type
//     records carrying the topic and option schemas, the node shape, initial
//     state derivation, and the sync instance factory. Adding a device type
//     means adding a descriptor file and one line in RegisterBuiltins;
//     nothing in dispatch changes.
//   - Sync instances (sync.go plus the per-type files): one per configured
//     device, owning the inbound message handling and the node change
//     subscriptions for that device.
//
// # Error policy
//
// Configuration problems are caught before any device is constructed and
// are fatal. Everything at message time is not: unparseable payloads are
// logged and dropped, and rejected downstream writes (node mutations,
// publishes) are logged and abandoned without retry.
package device
