// Package influxdb provides optional time-series telemetry for the bridge.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, non-blocking batched writes, and health monitoring.
//
// # Purpose
//
// When enabled, every attribute change the bridge applies to a node is
// recorded as a point, along with device reachability transitions. This
// gives dashboards a history of what the devices actually did without the
// bridge holding any of it in memory.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    // ErrDisabled when turned off in config; bridge runs without telemetry
//	}
//	defer client.Close()
//
//	client.WriteAttributeChange("lamp-office", "DimmableLightDevice", "levelControl", "currentLevel", 127)
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are delivered via the
// SetOnError callback. Connection and health check errors are returned
// directly.
package influxdb
