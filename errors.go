package bucketry

import "errors"

var (
	// ErrInvalidReference is returned when a stored name cannot be parsed
	// into a scheme, bucket and key.
	ErrInvalidReference = errors.New("invalid reference")
	// ErrUnknownScheme is returned when a reference uses a scheme with no
	// configured endpoint.
	ErrUnknownScheme = errors.New("unknown scheme")
	// ErrReadOnly is returned by mutating operations while read-only mode is on.
	ErrReadOnly = errors.New("storage is read-only")
	// ErrNameExhausted is returned when collision avoidance runs out of retries.
	ErrNameExhausted = errors.New("available name exhausted")
	// ErrNotFound is returned when an object does not exist.
	ErrNotFound = errors.New("not found")
	// ErrBackend wraps any failure surfaced by the backend capability.
	ErrBackend = errors.New("backend error")
)

// IsNotFound reports whether err means the object does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
