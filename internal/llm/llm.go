// Package llm defines the generation backend boundary and the process-wide
// lifecycle wrapper that gates access to it.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotReady is returned when generation is requested before the resource
// has been loaded, or after a failed load that has not been retried.
var ErrNotReady = errors.New("inference resource not ready")

// LoadError wraps the underlying cause of a failed resource load.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("inference resource load failed: %v", e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Generator is the external text-generation resource. Load performs the
// one-time, potentially slow initialization; Generate must only be called
// after a successful Load and is not safe for concurrent use.
type Generator interface {
	Load(ctx context.Context) error
	Generate(ctx context.Context, prompt string) (string, error)
	Location() string
}
