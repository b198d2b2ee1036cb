package gorelay

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOptions is returned for configuration errors detected before
	// any query is executed.
	ErrInvalidOptions = errors.New("invalid pagination options")
	// ErrInvalidFilter is returned for structurally invalid filter trees.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrMalformedCursor matches every *MalformedCursorError.
	ErrMalformedCursor = errors.New("malformed cursor")
)

// MalformedCursorError reports a cursor token that cannot be decoded or does
// not match the active key list. It is a client input error.
type MalformedCursorError struct {
	Cursor string
	Err    error
}

func newMalformedCursorError(cursor string, err error) *MalformedCursorError {
	return &MalformedCursorError{Cursor: cursor, Err: err}
}

func (e *MalformedCursorError) Error() string {
	return fmt.Sprintf("malformed cursor '%s': %v", e.Cursor, e.Err)
}

func (e *MalformedCursorError) Unwrap() error {
	return e.Err
}

func (e *MalformedCursorError) Is(target error) bool {
	return target == ErrMalformedCursor
}

func invalidOptionsf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOptions, fmt.Sprintf(format, args...))
}

func invalidFilterf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidFilter, fmt.Sprintf(format, args...))
}
