package matter

import "errors"

// Domain-specific errors for node operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnknownCluster is returned when a write targets a cluster the
	// node's shape does not carry.
	ErrUnknownCluster = errors.New("matter: unknown cluster for node shape")

	// ErrNilCallback is returned when subscribing with a nil callback.
	ErrNilCallback = errors.New("matter: subscription callback cannot be nil")
)
