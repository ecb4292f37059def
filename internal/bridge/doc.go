// Package bridge assembles and runs the device graph.
//
// The bridge validates every configured device against its type
// descriptor (collecting all violations into one failure), builds a
// node and a sync instance per device, subscribes the union of their
// MQTT topics once, and fans each inbound message out to every sync
// instance. Device IDs are derived deterministically from the bridge
// ID and the device name, so endpoint identity survives
// restarts and config reordering.
//
// Attribute changes on any node flow to three optional sinks: the
// SQLite state store (so a restarted bridge resumes from the last
// known graph state), the telemetry writer, and observers registered
// with OnChange (the websocket hub). Reachability is never restored
// from persistence; devices are offline until they announce.
package bridge
