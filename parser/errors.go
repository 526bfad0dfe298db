package parser

import (
	"errors"
	"fmt"
)

var (
	ErrUnexpectedToken = errors.New("unexpected")
	ErrInvalidChar     = errors.New("invalid")
	ErrUnexpectedEOF   = errors.New("unexpected end of input")
	ErrBusNumber       = errors.New("bus number out of range")
)

// PositionError locates a failure in the command stream. Column is 1-based and
// zero when the error is not tied to a character.
type PositionError struct {
	Line   int
	Column int
	Err    error
}

func (e *PositionError) Error() string {
	if e.Column == 0 {
		return fmt.Sprintf("%v at line %d", e.Err, e.Line)
	}
	return fmt.Sprintf("%v at line %d offset %d", e.Err, e.Line, e.Column)
}

func (e *PositionError) Unwrap() error {
	return e.Err
}

func unexpected(token string) error {
	return fmt.Errorf("%w %q", ErrUnexpectedToken, token)
}

func invalid(c byte) error {
	return fmt.Errorf("%w %q", ErrInvalidChar, string([]byte{c}))
}
