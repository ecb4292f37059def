package bridge

import "errors"

// Domain-specific errors for bridge operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidDeviceConfig is returned when one or more configured
	// devices fail validation. The error message aggregates every
	// violation found across all devices.
	ErrInvalidDeviceConfig = errors.New("bridge: invalid device configuration")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("bridge: already started")

	// ErrStateNotFound is returned when no persisted state exists for a
	// device name.
	ErrStateNotFound = errors.New("bridge: persisted state not found")
)
