package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteAttributeChange records a single attribute-level state change.
//
// Every change the bridge applies to a node (onOff flips, level moves,
// hue/saturation updates) can be recorded here for dashboards and history.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - deviceName: Configured device name (e.g., "lamp-office")
//   - deviceType: Device type name (e.g., "DimmableLightDevice")
//   - cluster: Cluster the attribute belongs to (e.g., "levelControl")
//   - attribute: Attribute name (e.g., "currentLevel")
//   - value: The new value, coerced to float64 (booleans as 0/1)
func (c *Client) WriteAttributeChange(deviceName, deviceType, cluster, attribute string, value float64) {
	c.writePoint(
		"attribute_changes",
		map[string]string{
			"device":    deviceName,
			"type":      deviceType,
			"cluster":   cluster,
			"attribute": attribute,
		},
		map[string]interface{}{
			"value": value,
		},
	)
}

// WriteReachability records a device availability transition.
//
// Parameters:
//   - deviceName: Configured device name
//   - reachable: Whether the device is currently reachable
func (c *Client) WriteReachability(deviceName string, reachable bool) {
	value := 0.0
	if reachable {
		value = 1.0
	}

	c.writePoint(
		"reachability",
		map[string]string{
			"device": deviceName,
		},
		map[string]interface{}{
			"reachable": value,
		},
	)
}

// writePoint is the common write path. Points are dropped silently when the
// client is not connected; telemetry is best effort.
func (c *Client) writePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
