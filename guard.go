package bucketry

import "fmt"

// AccessGuard enforces read-only mode. Every mutating storage operation
// passes through Check before any metadata resolution, naming or backend
// call, so a rejected operation has produced zero side effects.
type AccessGuard struct {
	readOnly bool
}

// NewAccessGuard returns a guard for the given mode. The flag is fixed at
// construction; the engine never flips it at runtime.
func NewAccessGuard(readOnly bool) AccessGuard {
	return AccessGuard{readOnly: readOnly}
}

// Check returns ErrReadOnly for the named operation while read-only mode is
// enabled, nil otherwise.
func (g AccessGuard) Check(op string) error {
	if g.readOnly {
		return fmt.Errorf("%s: %w", op, ErrReadOnly)
	}
	return nil
}

// ReadOnly reports whether mutating operations are blocked.
func (g AccessGuard) ReadOnly() bool {
	return g.readOnly
}
