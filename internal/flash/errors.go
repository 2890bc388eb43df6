package flash

import "errors"

var (
	// ErrAlreadyRotated is returned when a registry is rotated twice, and
	// wrapped by the panic raised when a rotated registry or its maps are
	// written to. Only the middleware that created a registry may rotate
	// it, once.
	ErrAlreadyRotated = errors.New("flash: registry already rotated")

	// ErrMalformedState is wrapped by decoding errors for persisted state that
	// cannot be normalized.
	ErrMalformedState = errors.New("flash: malformed persisted state")
)
