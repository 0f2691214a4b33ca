package types

import (
	"errors"
	"fmt"
)

// Error is a classified error. Two errors match with errors.Is when their
// codes are equal, so a wrapped or annotated copy still matches the table
// entry it came from.
type Error struct {
	Err  error
	Code int
}

func (e Error) Error() string {
	return e.Err.Error()
}

func (e Error) Unwrap() error {
	return e.Err
}

// Is implements the errors.Is contract by comparing codes.
func (e Error) Is(target error) bool {
	var t Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// With returns a copy with a string appended at the end of the message.
func (e Error) With(detail string) Error {
	return Error{
		Err:  fmt.Errorf("%w: %v", e.Err, detail),
		Code: e.Code,
	}
}

// Withf returns a copy with a formatted string appended at the end of the
// message.
func (e Error) Withf(format string, args ...any) Error {
	return e.With(fmt.Sprintf(format, args...))
}

// WithErr returns a copy wrapping the cause.
func (e Error) WithErr(err error) Error {
	return Error{
		Err:  fmt.Errorf("%w: %w", e.Err, err),
		Code: e.Code,
	}
}
