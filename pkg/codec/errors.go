package codec

import "errors"

var (
	// ErrNotInitialized is returned when an operation that needs a
	// configured encoder runs before InitEncode, after Release, or
	// with no delivery callback registered.
	ErrNotInitialized = errors.New("codec: encoder is not initialized")
	// ErrInvalidParameter is returned for nil or zero-sized required
	// inputs.
	ErrInvalidParameter = errors.New("codec: invalid parameter")
	// ErrDeliveryFailed is returned when the delivery callback
	// rejected a frame; the pipeline is not currently taking frames.
	ErrDeliveryFailed = errors.New("codec: frame delivery failed")
)
