package stats

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when a precondition on the input is violated:
// empty sequences, mismatched lengths, too few samples or a zero-variance
// regressor. Nothing is mutated before it is returned.
var ErrInvalidInput = errors.New("invalid input")

// InputError describes which operation rejected its input and why.
type InputError struct {
	Op     string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Op, ErrInvalidInput, e.Reason)
}

// Unwrap lets errors.Is(err, ErrInvalidInput) match.
func (e *InputError) Unwrap() error { return ErrInvalidInput }

func invalid(op, format string, args ...any) error {
	return &InputError{Op: op, Reason: fmt.Sprintf(format, args...)}
}
