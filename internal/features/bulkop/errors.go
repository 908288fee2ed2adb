package bulkop

import "errors"

var (
	// ErrEmptyBatch is returned when Validate is called without any rows.
	ErrEmptyBatch = errors.New("empty batch")

	// ErrInvalidOperationState is returned when a transition is requested
	// from a status that does not permit it.
	ErrInvalidOperationState = errors.New("invalid operation state")

	// ErrUndoWindowExpired is returned when Undo is called after the
	// operation's undo deadline.
	ErrUndoWindowExpired = errors.New("undo window expired")

	// ErrOperationNotFound is returned for unknown operation ids.
	ErrOperationNotFound = errors.New("operation not found")
)
