package llm

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/linnemanlabs/go-core/log"
)

// State is the lifecycle position of the shared inference resource.
type State string

const (
	StateUnloaded State = "unloaded"
	StateLoading  State = "loading"
	StateReady    State = "ready"
	StateFailed   State = "failed"
)

// Handle wraps a Generator with tri-state lifecycle tracking and a
// single-flight load. Exactly one Handle exists per process; callers receive
// it by injection. Load is idempotent: once Ready it returns immediately,
// concurrent callers during Loading join the in-flight attempt, and a call
// after Failed retries from scratch.
type Handle struct {
	gen    Generator
	logger log.Logger

	mu      sync.Mutex
	state   State
	lastErr error

	sf singleflight.Group
}

// NewHandle wraps gen in an Unloaded handle.
func NewHandle(gen Generator, logger log.Logger) *Handle {
	if logger == nil {
		logger = log.Nop()
	}
	return &Handle{
		gen:    gen,
		logger: logger,
		state:  StateUnloaded,
	}
}

// Load brings the resource to Ready, performing the one-time initialization
// at most once across concurrent callers. On failure the handle transitions
// to Failed and returns a *LoadError; a later Load retries.
func (h *Handle) Load(ctx context.Context) error {
	h.mu.Lock()
	if h.state == StateReady {
		h.mu.Unlock()
		return nil
	}
	h.mu.Unlock()

	_, err, _ := h.sf.Do("load", func() (any, error) {
		h.setState(StateLoading, nil)
		h.logger.Info(ctx, "loading inference resource", "location", h.gen.Location())

		// The load outlives any single caller; a cancelled request must
		// not abort the shared initialization for everyone queued behind it.
		if err := h.gen.Load(context.WithoutCancel(ctx)); err != nil {
			lerr := &LoadError{Err: err}
			h.setState(StateFailed, lerr)
			h.logger.Error(ctx, err, "inference resource load failed")
			return nil, lerr
		}

		h.setState(StateReady, nil)
		h.logger.Info(ctx, "inference resource ready", "location", h.gen.Location())
		return nil, nil
	})
	return err
}

// Ready reports whether the resource is loaded, without blocking or paying
// any generation cost.
func (h *Handle) Ready() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state == StateReady
}

// State returns the current lifecycle state and, for Failed, the load error.
func (h *Handle) State() (State, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state, h.lastErr
}

// Location describes where the underlying resource lives (model id,
// endpoint, adapter path). Valid in any state.
func (h *Handle) Location() string {
	return h.gen.Location()
}

// Generate invokes the underlying resource. The caller is responsible for
// serializing access; the handle only enforces that the resource is Ready.
func (h *Handle) Generate(ctx context.Context, prompt string) (string, error) {
	if !h.Ready() {
		return "", ErrNotReady
	}
	return h.gen.Generate(ctx, prompt)
}

func (h *Handle) setState(s State, err error) {
	h.mu.Lock()
	h.state = s
	h.lastErr = err
	h.mu.Unlock()
}
