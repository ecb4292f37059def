package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrUnknownType) {
//	    // handle unknown type case
//	}
var (
	// ErrDuplicateType is returned when registering a type name twice.
	ErrDuplicateType = errors.New("device: duplicate type registration")

	// ErrUnknownType is returned when a type name is not registered.
	ErrUnknownType = errors.New("device: unknown type")

	// ErrInvalidConfig is returned when device configuration validation fails.
	ErrInvalidConfig = errors.New("device: invalid configuration")

	// ErrInvalidBrightness is returned when a brightness payload is not an
	// integer in [0,255].
	ErrInvalidBrightness = errors.New("device: invalid brightness value")

	// ErrInvalidColor is returned when a colour payload is not a valid
	// 6-digit hex string.
	ErrInvalidColor = errors.New("device: invalid colour value")
)
