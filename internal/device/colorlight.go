package device

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nm47/ih8homeassistant/internal/infrastructure/config"
	"github.com/nm47/ih8homeassistant/internal/matter"
)

// colorPublishDebounce is the window for coalescing paired hue/saturation
// changes into a single outbound RGB publish. Controller colour gestures
// deliver hue and saturation as back-to-back attribute writes.
const colorPublishDebounce = 50 * time.Millisecond

// newColorLightDescriptor builds the descriptor for extended colour lights.
func newColorLightDescriptor() *Descriptor {
	return &Descriptor{
		Type: TypeExtendedColorLight,
		Capabilities: []Capability{
			CapabilityAvailability, CapabilityOnOff, CapabilityDimming, CapabilityColor,
		},
		Topics: TopicSchema{
			Required: []string{
				TopicGetOnline, TopicGetOn, TopicSetOn,
				TopicGetBrightness, TopicSetBrightness,
				TopicGetRGB, TopicSetRGB,
			},
		},
		Options: colorOptionSchema(),
		Shape: func() matter.Shape {
			return matter.Shape{
				DeviceType: string(TypeExtendedColorLight),
				Clusters: []matter.ClusterShape{
					{Name: matter.ClusterBasicInformation},
					{Name: matter.ClusterOnOff},
					{Name: matter.ClusterLevelControl, Features: []string{"onOff"}},
					{Name: matter.ClusterColorControl, Features: []string{"hueSaturation"}},
				},
			}
		},
		Endpoint: func(cfg *config.DeviceConfig) EndpointConfig {
			return EndpointConfig{
				State: matter.State{
					matter.ClusterBasicInformation: {matter.AttrReachable: false},
					matter.ClusterOnOff:            {matter.AttrOnOff: false},
					matter.ClusterLevelControl:     {matter.AttrCurrentLevel: maxLevel},
					matter.ClusterColorControl: {
						matter.AttrCurrentHue:        0,
						matter.AttrCurrentSaturation: 0,
					},
				},
				Topics: []string{
					cfg.Topics[TopicGetOnline],
					cfg.Topics[TopicGetOn],
					cfg.Topics[TopicGetBrightness],
					cfg.Topics[TopicGetRGB],
				},
			}
		},
		NewSync: func(b Binding) Syncer {
			return &colorSync{
				syncBase: newSyncBase(b),
				debounce: newDebouncer(colorPublishDebounce),
			}
		},
	}
}

func colorOptionSchema() OptionSchema {
	schema := onOffOptionSchema()
	schema[OptionHex] = OptionSpec{
		Type:        OptionTypeBoolean,
		Default:     true,
		Description: "RGB payloads as RRGGBB hex (false: decimal r,g,b)",
	}
	schema[OptionHexPrefix] = OptionSpec{
		Type:        OptionTypeString,
		Default:     "",
		Description: "prefix expected and emitted on hex RGB payloads",
	}
	return schema
}

// colorSync synchronises an extended colour light.
//
// Colour flows one way: graph to wire. Inbound RGB payloads are parsed and
// logged so broken device publishes surface in diagnostics, but they never
// touch the colorControl cluster, which is commanded only from the graph
// side.
type colorSync struct {
	syncBase
	debounce *debouncer
}

func (s *colorSync) Start() error {
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

	err = s.node.Subscribe(matter.ClusterLevelControl, matter.AttrCurrentLevel, func(v any) {
		level, ok := v.(int)
		if !ok {
			return
		}
		s.publish(s.topic(TopicSetBrightness), strconv.Itoa(LevelToBrightness(level)))
	})
	if err != nil {
		return err
	}

	// Hue and saturation arrive as a near-simultaneous pair from a colour
	// gesture; either one schedules a single composite publish.
	scheduleColor := func(any) {
		s.debounce.schedule(s.publishColor)
	}
	if err := s.node.Subscribe(matter.ClusterColorControl, matter.AttrCurrentHue, scheduleColor); err != nil {
		return err
	}
	return s.node.Subscribe(matter.ClusterColorControl, matter.AttrCurrentSaturation, scheduleColor)
}

// publishColor composes and publishes the current colour. It reads hue,
// saturation, and level at fire time, so a brightness change landing inside
// the debounce window is reflected in the publish.
func (s *colorSync) publishColor() {
	hue := s.intAttr(matter.ClusterColorControl, matter.AttrCurrentHue)
	sat := s.intAttr(matter.ClusterColorControl, matter.AttrCurrentSaturation)
	level := s.intAttr(matter.ClusterLevelControl, matter.AttrCurrentLevel)

	rgb := HSVToRGB(HSV{
		H: uint8(clamp(hue, 0, maxLevel)),   //nolint:gosec // clamped to byte range
		S: uint8(clamp(sat, 0, maxLevel)),   //nolint:gosec // clamped to byte range
		V: uint8(clamp(level, 0, maxLevel)), //nolint:gosec // clamped to byte range
	})

	s.publish(s.topic(TopicSetRGB), s.encodeColor(rgb))
}

// intAttr reads an integer attribute, returning 0 when unset.
func (s *colorSync) intAttr(cluster, attr string) int {
	v, ok := s.node.Get(cluster, attr)
	if !ok {
		return 0
	}
	i, _ := v.(int)
	return i
}

// encodeColor renders a colour in the configured wire format.
func (s *colorSync) encodeColor(c RGB) string {
	if s.optionBool(OptionHex) {
		return EncodeColorHex(c, s.optionString(OptionHexPrefix))
	}
	return fmt.Sprintf("%d,%d,%d", c.R, c.G, c.B)
}

// parseColor parses a wire colour in the configured format.
func (s *colorSync) parseColor(payload string) (RGB, error) {
	if s.optionBool(OptionHex) {
		return ParseColorHex(payload, s.optionString(OptionHexPrefix))
	}

	parts := strings.Split(payload, ",")
	if len(parts) != 3 {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, payload)
	}
	var channels [3]uint8
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > 255 {
			return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, payload)
		}
		channels[i] = uint8(v) //nolint:gosec // range checked above
	}
	return RGB{R: channels[0], G: channels[1], B: channels[2]}, nil
}

func (s *colorSync) HandleMessage(topic string, payload []byte) bool {
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
	case s.topic(TopicGetRGB):
		s.handleColorPayload(payload)
		return true
	}
	return false
}

func (s *colorSync) handleBrightnessPayload(payload []byte) {
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

// handleColorPayload parses inbound colour for diagnostics only; colour is
// never written back into the graph from the wire side.
func (s *colorSync) handleColorPayload(payload []byte) {
	rgb, err := s.parseColor(string(payload))
	if err != nil {
		s.log.Warn("invalid colour payload",
			"device", s.cfg.Name,
			"payload", string(payload),
			"error", err,
		)
		return
	}
	s.log.Debug("device colour reported, not applied",
		"device", s.cfg.Name,
		"rgb", EncodeColorHex(rgb, ""),
	)
}

func (s *colorSync) Stop() {
	s.debounce.stop()
}
