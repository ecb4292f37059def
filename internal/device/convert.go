package device

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value range constants for the two sides of the bridge.
const (
	// maxBrightness is the top of the MQTT brightness range.
	maxBrightness = 255

	// maxLevel is the top of the graph-side level/hue/saturation range.
	maxLevel = 254

	// hueDegrees is a full hue circle before scaling to the byte range.
	hueDegrees = 360.0
)

// RGB is a colour in 8-bit-per-channel RGB.
type RGB struct {
	R uint8
	G uint8
	B uint8
}

// HSV is a colour in the graph's native hue/saturation/value encoding:
// all three components scaled onto [0,254].
type HSV struct {
	H uint8
	S uint8
	V uint8
}

// BrightnessToLevel maps an MQTT brightness (0-255) onto a graph level (0-254).
//
// The mapping saturates rather than rescaling: values pass through unchanged
// and only 255 is capped to 254. Wire 255 and 254 therefore collapse to the
// same level; every other value survives a round-trip exactly.
func BrightnessToLevel(b int) int {
	return clamp(b, 0, maxLevel)
}

// LevelToBrightness maps a graph level (0-254) onto an MQTT brightness.
func LevelToBrightness(level int) int {
	return clamp(level, 0, maxLevel)
}

// ParseBrightness parses an MQTT brightness payload.
//
// Returns:
//   - int: The parsed brightness in [0,255]
//   - error: ErrInvalidBrightness if not an integer or out of range
func ParseBrightness(payload string) (int, error) {
	b, err := strconv.Atoi(strings.TrimSpace(payload))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBrightness, payload)
	}
	if b < 0 || b > maxBrightness {
		return 0, fmt.Errorf("%w: %d out of range", ErrInvalidBrightness, b)
	}
	return b, nil
}

// ParseColorHex parses an RRGGBB hex colour payload.
//
// If prefix is non-empty and the payload starts with it, the prefix is
// stripped first. Exactly six hex digits must remain.
//
// Returns:
//   - RGB: The parsed colour
//   - error: ErrInvalidColor on malformed input
func ParseColorHex(payload string, prefix string) (RGB, error) {
	s := payload
	if prefix != "" {
		s = strings.TrimPrefix(s, prefix)
	}
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, payload)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, payload)
	}

	return RGB{
		R: uint8(v >> 16),       //nolint:gosec // 24-bit value, shifts bound each channel
		G: uint8(v >> 8 & 0xff), //nolint:gosec // masked to 8 bits
		B: uint8(v & 0xff),      //nolint:gosec // masked to 8 bits
	}, nil
}

// EncodeColorHex renders a colour as a lowercase RRGGBB hex string,
// prepending prefix if given.
func EncodeColorHex(c RGB, prefix string) string {
	return fmt.Sprintf("%s%02x%02x%02x", prefix, c.R, c.G, c.B)
}

// RGBToHSV converts an RGB colour to the graph's HSV encoding.
//
// Hue is degrees scaled onto [0,254], saturation and value are fractions
// scaled onto [0,254]. Grayscale inputs (zero saturation) yield hue 0.
// Final integer conversion rounds half away from zero.
func RGBToHSV(c RGB) HSV {
	r := float64(c.R) / 255.0
	g := float64(c.G) / 255.0
	b := float64(c.B) / 255.0

	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	delta := maxC - minC

	var hueDeg float64
	switch {
	case delta == 0:
		hueDeg = 0
	case maxC == r:
		hueDeg = 60 * math.Mod((g-b)/delta, 6)
	case maxC == g:
		hueDeg = 60 * ((b-r)/delta + 2)
	default:
		hueDeg = 60 * ((r-g)/delta + 4)
	}
	if hueDeg < 0 {
		hueDeg += hueDegrees
	}

	var sat float64
	if maxC > 0 {
		sat = delta / maxC
	}

	return HSV{
		H: scaleToByte(hueDeg / hueDegrees),
		S: scaleToByte(sat),
		V: scaleToByte(maxC),
	}
}

// HSVToRGB converts the graph's HSV encoding back to RGB.
func HSVToRGB(c HSV) RGB {
	h := float64(c.H) / float64(maxLevel) * hueDegrees
	s := float64(c.S) / float64(maxLevel)
	v := float64(c.V) / float64(maxLevel)

	chroma := v * s
	hPrime := h / 60
	x := chroma * (1 - math.Abs(math.Mod(hPrime, 2)-1))

	var r, g, b float64
	switch {
	case hPrime < 1:
		r, g, b = chroma, x, 0
	case hPrime < 2:
		r, g, b = x, chroma, 0
	case hPrime < 3:
		r, g, b = 0, chroma, x
	case hPrime < 4:
		r, g, b = 0, x, chroma
	case hPrime < 5:
		r, g, b = x, 0, chroma
	default:
		r, g, b = chroma, 0, x
	}

	m := v - chroma
	return RGB{
		R: channelToByte(r + m),
		G: channelToByte(g + m),
		B: channelToByte(b + m),
	}
}

// scaleToByte maps a fraction in [0,1] onto [0,254], rounding half away
// from zero.
func scaleToByte(f float64) uint8 {
	return uint8(math.Round(f * maxLevel)) //nolint:gosec // f in [0,1], result bounded by 254
}

// channelToByte maps a fraction in [0,1] onto [0,255], rounding half away
// from zero.
func channelToByte(f float64) uint8 {
	return uint8(math.Round(f * 255)) //nolint:gosec // f in [0,1], result bounded by 255
}

// clamp bounds v to [lo,hi].
func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
