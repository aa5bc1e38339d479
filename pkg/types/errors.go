package types

import "errors"

// Failure taxonomy. Backend unavailability and bad configuration are hard
// errors; an extraction that ran but found nothing is reported through an
// unsuccessful ExtractionResult instead.
var (
	// ErrServiceUnavailable means the selected backend is unreachable or
	// failed its health check. It is surfaced immediately; there is no
	// silent downgrade to a lower-fidelity local estimator.
	ErrServiceUnavailable = errors.New("extraction backend unavailable")

	// ErrInvalidConfig means the AxisConfig cannot describe a real axis
	// pair. Rejected before any pixel work begins.
	ErrInvalidConfig = errors.New("invalid axis configuration")

	// ErrImageDecode means the input bytes could not be decoded as an
	// image in any supported format.
	ErrImageDecode = errors.New("image decode failed")
)
