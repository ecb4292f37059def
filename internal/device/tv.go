package device

import (
	"encoding/json"

	"github.com/nm47/ih8homeassistant/internal/infrastructure/config"
	"github.com/nm47/ih8homeassistant/internal/matter"
)

// newTelevisionDescriptor builds the descriptor for TVs.
//
// Interim mapping: the TV is exposed as a plain on/off endpoint. Its state
// topic carries a composite JSON payload (Tasmota STATE style) from which
// only the POWER field is read; inputs, volume, and the rest wait on a
// richer endpoint shape.
func newTelevisionDescriptor() *Descriptor {
	return &Descriptor{
		Type:         TypeTelevision,
		Capabilities: []Capability{CapabilityAvailability, CapabilityOnOff},
		Topics: TopicSchema{
			Required: []string{TopicGetOnline, TopicGetState, TopicSetPower},
		},
		Options: onOffOptionSchema(),
		Shape: func() matter.Shape {
			return matter.Shape{
				DeviceType: string(TypeTelevision),
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
					cfg.Topics[TopicGetState],
				},
			}
		},
		NewSync: func(b Binding) Syncer {
			return &televisionSync{syncBase: newSyncBase(b)}
		},
	}
}

// televisionSync synchronises a TV through its composite state payload.
type televisionSync struct {
	syncBase
}

func (s *televisionSync) Start() error {
	return s.node.Subscribe(matter.ClusterOnOff, matter.AttrOnOff, func(v any) {
		on, ok := v.(bool)
		if !ok {
			return
		}
		s.publish(s.topic(TopicSetPower), s.onOffPayload(on))
	})
}

func (s *televisionSync) HandleMessage(topic string, payload []byte) bool {
	switch topic {
	case s.topic(TopicGetOnline):
		s.handleAvailability(payload)
		return true
	case s.topic(TopicGetState):
		s.handleStatePayload(payload)
		return true
	}
	return false
}

// handleStatePayload extracts the POWER field from a composite JSON state
// payload. Unknown fields are ignored; malformed JSON or an unrecognised
// POWER value leaves onOff untouched.
func (s *televisionSync) handleStatePayload(payload []byte) {
	var state struct {
		Power string `json:"POWER"`
	}
	if err := json.Unmarshal(payload, &state); err != nil {
		s.log.Warn("malformed TV state payload",
			"device", s.cfg.Name,
			"payload", string(payload),
			"error", err,
		)
		return
	}

	switch state.Power {
	case s.optionString(OptionOnValue):
		s.setState(matter.State{matter.ClusterOnOff: {matter.AttrOnOff: true}})
	case s.optionString(OptionOffValue):
		s.setState(matter.State{matter.ClusterOnOff: {matter.AttrOnOff: false}})
	default:
		s.log.Warn("unrecognised TV POWER value",
			"device", s.cfg.Name,
			"power", state.Power,
		)
	}
}

func (s *televisionSync) Stop() {}
