package engine

import "github.com/cockroachdb/errors"

var (
	// ErrNoSuitableDevice is returned when no physical device passes every
	// suitability check. It is permanent.
	ErrNoSuitableDevice = errors.New("failed to find a suitable GPU")
	// ErrContextCreationFailed marks failures to open the logical device.
	ErrContextCreationFailed = errors.New("failed to create device context")
	ErrNoSupportedFormat     = errors.New("no supported format")
	// ErrUnsupportedTransition is a programming error: the engine asked for
	// an image layout transition it does not know how to perform.
	ErrUnsupportedTransition = errors.New("unsupported layout transition")
)
