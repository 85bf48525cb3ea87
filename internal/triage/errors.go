package triage

import (
	"errors"
	"fmt"
)

// Category is the machine-checkable failure class surfaced to clients so
// they can distinguish retry-later (not_ready, timeout) from gave-up
// (generation_failed).
type Category string

const (
	CategoryNotReady   Category = "not_ready"
	CategoryTimeout    Category = "timeout"
	CategoryGeneration Category = "generation_failed"
)

// Error is a triage failure with a stable category and the underlying cause.
type Error struct {
	Category Category
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("triage %s: %v", e.Category, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// CategoryOf extracts the failure category from err, defaulting to
// generation_failed for anything untyped.
func CategoryOf(err error) Category {
	var te *Error
	if errors.As(err, &te) {
		return te.Category
	}
	return CategoryGeneration
}
