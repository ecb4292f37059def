package device

import (
	"github.com/nm47/ih8homeassistant/internal/infrastructure/config"
	"github.com/nm47/ih8homeassistant/internal/matter"
)

// newOnOffDescriptor builds the descriptor for simple on/off devices.
//
// Plugs and non-dimmable lights share identical sync behaviour; the type
// name only changes the device type the endpoint advertises, so the one
// descriptor constructor serves both registrations.
func newOnOffDescriptor(typeName TypeName) *Descriptor {
	return &Descriptor{
		Type:         typeName,
		Capabilities: []Capability{CapabilityAvailability, CapabilityOnOff},
		Topics: TopicSchema{
			Required: []string{TopicGetOnline, TopicGetOn, TopicSetOn},
		},
		Options: onOffOptionSchema(),
		Shape: func() matter.Shape {
			return matter.Shape{
				DeviceType: string(typeName),
				Clusters: []matter.ClusterShape{
					{Name: matter.ClusterBasicInformation},
					{Name: matter.ClusterOnOff},
				},
			}
		},
		Endpoint: func(cfg *config.DeviceConfig) EndpointConfig {
			return EndpointConfig{
				State: matter.State{
					matter.ClusterBasicInformation: {matter.AttrReachable: false},
					matter.ClusterOnOff:            {matter.AttrOnOff: false},
				},
				Topics: []string{
					cfg.Topics[TopicGetOnline],
					cfg.Topics[TopicGetOn],
				},
			}
		},
		NewSync: func(b Binding) Syncer {
			return &onOffSync{syncBase: newSyncBase(b)}
		},
	}
}

// onOffOptionSchema is shared by every type with availability and on/off
// string payloads.
func onOffOptionSchema() OptionSchema {
	return OptionSchema{
		OptionOnValue: {
			Type:        OptionTypeString,
			Default:     "ON",
			Description: "payload representing the on state",
		},
		OptionOffValue: {
			Type:        OptionTypeString,
			Default:     "OFF",
			Description: "payload representing the off state",
		},
		OptionOnlineValue: {
			Type:        OptionTypeString,
			Default:     "Online",
			Description: "availability payload marking the device reachable",
		},
		OptionOfflineValue: {
			Type:        OptionTypeString,
			Default:     "Offline",
			Description: "availability payload marking the device unreachable",
		},
	}
}

// onOffSync synchronises a plain on/off device.
type onOffSync struct {
	syncBase
}

// Start subscribes to onOff changes so controller writes (and device echoes)
// are pushed back out as commands.
func (s *onOffSync) Start() error {
	return s.node.Subscribe(matter.ClusterOnOff, matter.AttrOnOff, func(v any) {
		on, ok := v.(bool)
		if !ok {
			return
		}
		s.publish(s.topic(TopicSetOn), s.onOffPayload(on))
	})
}

func (s *onOffSync) HandleMessage(topic string, payload []byte) bool {
	switch topic {
	case s.topic(TopicGetOnline):
		s.handleAvailability(payload)
		return true
	case s.topic(TopicGetOn):
		s.handleOnOffPayload(payload)
		return true
	}
	return false
}

func (s *onOffSync) Stop() {}
