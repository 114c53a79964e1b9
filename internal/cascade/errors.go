package cascade

import (
	"errors"
	"fmt"
)

// Protocol-level programming errors: role violations and out-of-order
// checksum delivery are fatal assertions, never recovered from.
var (
	// ErrRoleViolation is returned when a method is invoked on an entity of
	// the wrong role, e.g. GenerateKey called on a receiver.
	ErrRoleViolation = errors.New("cascade: role violation")

	// ErrOutOfOrderChecksum is returned when a checksum arrives for a block
	// other than the expected next one, violating the strictly increasing
	// (pass, block) delivery order.
	ErrOutOfOrderChecksum = errors.New("cascade: checksum received out of order")

	// ErrInvalidConfig is returned by NewCascade for invalid construction
	// parameters.
	ErrInvalidConfig = errors.New("cascade: invalid configuration")

	// ErrNotWired is returned when an operation requires a classical
	// channel or oracle that hasn't been attached yet.
	ErrNotWired = errors.New("cascade: entity is not wired to a peer/oracle")
)

// ProtocolError wraps a fatal protocol violation with the entity and state
// it occurred in, following the wrapped-error-with-cause pattern used by
// eventloop/errors.go's TypeError/RangeError, so errors.Is/As keep working.
type ProtocolError struct {
	Entity string
	State  int
	Cause  error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("cascade: entity %q (state %d): %v", e.Entity, e.State, e.Cause)
}

func (e *ProtocolError) Unwrap() error {
	return e.Cause
}
