package device

import (
	"strconv"

	"github.com/nm47/ih8homeassistant/internal/infrastructure/config"
	"github.com/nm47/ih8homeassistant/internal/matter"
)

// newDimmableDescriptor builds the descriptor for dimmable lights.
func newDimmableDescriptor() *Descriptor {
	return &Descriptor{
		Type: TypeDimmableLight,
		Capabilities: []Capability{
			CapabilityAvailability, CapabilityOnOff, CapabilityDimming,
		},
		Topics: TopicSchema{
			Required: []string{
				TopicGetOnline, TopicGetOn, TopicSetOn,
				TopicGetBrightness, TopicSetBrightness,
			},
		},
		Options: onOffOptionSchema(),
		Shape: func() matter.Shape {
			return matter.Shape{
				DeviceType: string(TypeDimmableLight),
				Clusters: []matter.ClusterShape{
					{Name: matter.ClusterBasicInformation},
					{Name: matter.ClusterOnOff},
					{Name: matter.ClusterLevelControl, Features: []string{"onOff"}},
				},
			}
		},
		Endpoint: func(cfg *config.DeviceConfig) EndpointConfig {
			return EndpointConfig{
				State: matter.State{
					matter.ClusterBasicInformation: {matter.AttrReachable: false},
					matter.ClusterOnOff:            {matter.AttrOnOff: false},
					matter.ClusterLevelControl:     {matter.AttrCurrentLevel: maxLevel},
				},
				Topics: []string{
					cfg.Topics[TopicGetOnline],
					cfg.Topics[TopicGetOn],
					cfg.Topics[TopicGetBrightness],
				},
			}
		},
		NewSync: func(b Binding) Syncer {
			return &dimmableSync{syncBase: newSyncBase(b)}
		},
	}
}

// dimmableSync synchronises an on/off device with a brightness channel.
type dimmableSync struct {
	syncBase
}

func (s *dimmableSync) Start() error {
	err := s.node.Subscribe(matter.ClusterOnOff, matter.AttrOnOff, func(v any) {
		on, ok := v.(bool)
		if !ok {
			return
		}
		s.publish(s.topic(TopicSetOn), s.onOffPayload(on))
	})
	if err != nil {
		return err
	}

	return s.node.Subscribe(matter.ClusterLevelControl, matter.AttrCurrentLevel, func(v any) {
		level, ok := v.(int)
		if !ok {
			return
		}
		s.publish(s.topic(TopicSetBrightness), strconv.Itoa(LevelToBrightness(level)))
	})
}

func (s *dimmableSync) HandleMessage(topic string, payload []byte) bool {
	switch topic {
	case s.topic(TopicGetOnline):
		s.handleAvailability(payload)
		return true
	case s.topic(TopicGetOn):
		s.handleOnOffPayload(payload)
		return true
	case s.topic(TopicGetBrightness):
		s.handleBrightnessPayload(payload)
		return true
	}
	return false
}

func (s *dimmableSync) handleBrightnessPayload(payload []byte) {
	b, err := ParseBrightness(string(payload))
	if err != nil {
		s.log.Warn("invalid brightness payload",
			"device", s.cfg.Name,
			"payload", string(payload),
			"error", err,
		)
		return
	}
	s.setState(matter.State{
		matter.ClusterLevelControl: {matter.AttrCurrentLevel: BrightnessToLevel(b)},
	})
}

func (s *dimmableSync) Stop() {}
