package transport

import (
	"errors"
	"fmt"
)

// Error kinds returned by the transport engine.
var (
	// ErrConfiguration indicates an invalid or inconsistent Context setup.
	ErrConfiguration = errors.New("transport: invalid configuration")

	// ErrInvalidState indicates a State violating its invariants.
	ErrInvalidState = errors.New("transport: invalid state")

	// ErrDensity indicates a negative or non-finite density from a locals callback.
	ErrDensity = errors.New("transport: invalid density")

	// ErrMagnet indicates a non-finite magnetic field from a locals callback.
	ErrMagnet = errors.New("transport: invalid magnetic field")

	// ErrMaterial indicates a medium bound to an unknown material index.
	ErrMaterial = errors.New("transport: invalid material")

	// ErrOutOfRange indicates a kinetic energy outside the tables in strict mode.
	ErrOutOfRange = errors.New("transport: kinetic energy out of table range")

	// ErrClosed indicates use of a Context after Close.
	ErrClosed = errors.New("transport: context closed")

	// ErrStalled indicates the step budget of a single call was exhausted.
	ErrStalled = errors.New("transport: step budget exhausted")
)

// Error is the typed error returned by Transport. Code is one of the
// package sentinels and is exposed through Unwrap.
type Error struct {
	Code    error
	Op      string
	Step    int
	Message string
}

func (e *Error) Error() string {
	if e.Step > 0 {
		return fmt.Sprintf("%v: %s (step %d): %s", e.Code, e.Op, e.Step, e.Message)
	}
	return fmt.Sprintf("%v: %s: %s", e.Code, e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Code
}

func newError(code error, op string, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}
