package mqtt

import "fmt"

// statusTopicPrefix is the root of the bridge's own topic space.
//
// Device topics are never derived from this prefix. They come verbatim from
// device configuration, because every firmware (Tasmota, zigbee2mqtt, ESPHome)
// has its own topic conventions and the bridge adapts to them, not the other
// way around. The bridge only owns its status topic.
const statusTopicPrefix = "ih8ha/bridge"

// StatusTopic returns the retained status topic for a bridge instance.
//
// Topic: ih8ha/bridge/<client_id>/status
//
// The bridge publishes online/offline JSON payloads here, and the broker
// publishes the LWT payload here on unexpected disconnect.
func StatusTopic(clientID string) string {
	return fmt.Sprintf("%s/%s/status", statusTopicPrefix, clientID)
}
