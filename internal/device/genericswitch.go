package device

import (
	"github.com/nm47/ih8homeassistant/internal/infrastructure/config"
	"github.com/nm47/ih8homeassistant/internal/matter"
)

// newGenericSwitchDescriptor builds the descriptor for momentary switches.
//
// The switch is output-only: a press event on the graph side publishes a
// fixed command payload. The only inbound traffic is availability.
func newGenericSwitchDescriptor() *Descriptor {
	return &Descriptor{
		Type:         TypeGenericSwitch,
		Capabilities: []Capability{CapabilityAvailability, CapabilitySwitch},
		Topics: TopicSchema{
			Required: []string{TopicGetOnline, TopicSetCommand},
		},
		Options: genericSwitchOptionSchema(),
		Shape: func() matter.Shape {
			return matter.Shape{
				DeviceType: string(TypeGenericSwitch),
				Clusters: []matter.ClusterShape{
					{Name: matter.ClusterBasicInformation},
					{Name: matter.ClusterSwitch, Features: []string{"momentarySwitch"}},
				},
			}
		},
		Endpoint: func(cfg *config.DeviceConfig) EndpointConfig {
			return EndpointConfig{
				State: matter.State{
					matter.ClusterBasicInformation: {matter.AttrReachable: false},
					matter.ClusterSwitch:           {matter.AttrCurrentPosition: 0},
				},
				Topics: []string{
					cfg.Topics[TopicGetOnline],
				},
			}
		},
		NewSync: func(b Binding) Syncer {
			return &genericSwitchSync{syncBase: newSyncBase(b)}
		},
	}
}

func genericSwitchOptionSchema() OptionSchema {
	return OptionSchema{
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
		OptionCommandValue: {
			Type:        OptionTypeString,
			Default:     "TOGGLE",
			Description: "payload published on a switch press",
		},
	}
}

// genericSwitchSync synchronises a momentary switch.
type genericSwitchSync struct {
	syncBase
}

func (s *genericSwitchSync) Start() error {
	return s.node.SubscribeEvent(matter.ClusterSwitch, matter.EventInitialPress, func() {
		s.publish(s.topic(TopicSetCommand), s.optionString(OptionCommandValue))
	})
}

func (s *genericSwitchSync) HandleMessage(topic string, payload []byte) bool {
	if topic == s.topic(TopicGetOnline) {
		s.handleAvailability(payload)
		return true
	}
	return false
}

func (s *genericSwitchSync) Stop() {}
