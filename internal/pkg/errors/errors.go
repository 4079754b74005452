package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources. Every layer
	// surfaces absence through it so callers can tell "gone" from "broken".
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrKindMismatch is returned when a stored entity exists under the
	// requested id but with a different record kind.
	ErrKindMismatch = errors.New("record kind mismatch")
)
