package ingest

import (
	"errors"
	"fmt"
)

// ErrMalformedInput is the sentinel wrapped by every MalformedInputError.
var ErrMalformedInput = errors.New("malformed audit input")

// MalformedInputError means the payload was empty or of a shape that cannot
// carry a report at all. Messy text never produces it.
type MalformedInputError struct {
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMalformedInput, e.Reason)
}

func (e *MalformedInputError) Unwrap() error {
	return ErrMalformedInput
}

func malformed(format string, args ...interface{}) error {
	return &MalformedInputError{Reason: fmt.Sprintf(format, args...)}
}
