package hegossip

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration indicates parameters that must prevent a grid from being
	// used at all: a broken bit budget or fusion weights that do not sum to the
	// quantization factor.
	ErrConfiguration = errors.New("hegossip: invalid configuration")

	// ErrRange indicates a value that does not fit its configured bit width or
	// the signed plaintext range of the Paillier modulus.
	ErrRange = errors.New("hegossip: value out of range")

	// ErrNoInverse indicates a modular inverse was requested for a pair that is
	// not coprime.
	ErrNoInverse = errors.New("hegossip: modular inverse does not exist")

	// ErrProtocolViolation indicates a node received or missed a message in a
	// way the topology does not allow.
	ErrProtocolViolation = errors.New("hegossip: protocol violation")

	// ErrNotEncrypted indicates an operation needed the encrypted channel of an
	// estimate that does not carry one.
	ErrNotEncrypted = errors.New("hegossip: estimate is not encrypted")
)

// Error wraps an underlying error with the operation that produced it.
type Error struct {
	Op  string // Operation that failed
	Err error  // Underlying error
}

func (e *Error) Error() string {
	return fmt.Sprintf("hegossip.%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf returns an *Error for op whose chain includes kind, so callers can
// match it with errors.Is.
func Errorf(op string, kind error, format string, args ...any) error {
	return &Error{
		Op:  op,
		Err: fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...)),
	}
}
