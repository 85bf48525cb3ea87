package triage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/logtriage/internal/llm"
	"github.com/linnemanlabs/logtriage/internal/sanitize"
)

// DefaultTimeout bounds the generation step when no timeout is configured.
// Generous because the backing resource may be CPU-bound.
const DefaultTimeout = 2 * time.Minute

// outcomeComplete is the metrics label for successful runs, alongside the
// failure categories.
const outcomeComplete = "complete"

// Notifier receives completed triage results, off the request path.
type Notifier interface {
	Send(ctx context.Context, r *Result) error
}

// Service orchestrates triage requests against the shared inference
// resource. The resource has one physical execution context, so all
// generation runs behind genMu; requests queue strictly and the configured
// timeout starts only after the lock is acquired. Queue wait is therefore
// unbounded under sustained load; correctness over tail latency.
type Service struct {
	handle   *llm.Handle
	logger   log.Logger
	metrics  *Metrics
	notifier Notifier
	timeout  time.Duration

	genMu sync.Mutex
}

// NewService creates the triage orchestrator. notifier may be nil; a zero
// timeout selects DefaultTimeout.
func NewService(handle *llm.Handle, logger log.Logger, metrics *Metrics, notifier Notifier, timeout time.Duration) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		handle:   handle,
		logger:   logger,
		metrics:  metrics,
		notifier: notifier,
		timeout:  timeout,
	}
}

// Triage builds a sanitized prompt for req, ensures the inference resource
// is loaded, and runs one serialized, timeout-bounded generation. Malformed
// input still produces a best-effort prompt; failures carry a typed
// Category.
func (s *Service) Triage(ctx context.Context, req *Request) (*Result, error) {
	id := ulid.Make().String()
	L := s.logger.With("triage_id", id, "log_type", req.LogType, "event_id", req.EventID)

	prompt := sanitize.BuildPrompt(sanitize.Input{
		LogType: req.LogType,
		EventID: req.EventID,
		Source:  req.Source,
		Time:    req.Time,
		Message: req.Message,
	})

	if err := s.handle.Load(ctx); err != nil {
		s.observe(string(CategoryNotReady), 0)
		return nil, &Error{Category: CategoryNotReady, Err: err}
	}

	waitStart := time.Now()
	s.genMu.Lock()
	wait := time.Since(waitStart)
	s.metrics.observeQueueWait(wait)

	start := time.Now()
	genCtx, cancel := context.WithTimeout(ctx, s.timeout)

	type genOut struct {
		text string
		err  error
	}
	done := make(chan genOut, 1)

	// The goroutine owns the lock until the resource call actually returns,
	// so an abandoned invocation can never interleave with the next waiter.
	go func() {
		defer s.genMu.Unlock()
		defer cancel()
		text, err := s.handle.Generate(genCtx, prompt)
		done <- genOut{text: text, err: err}
	}()

	select {
	case out := <-done:
		dur := time.Since(start)
		if out.err != nil {
			return nil, s.generateError(ctx, L, out.err, dur)
		}

		result := &Result{
			ID:          id,
			LogType:     req.LogType,
			EventID:     req.EventID,
			Source:      req.Source,
			InputPrompt: prompt,
			OutputText:  sanitize.StripLeakage(out.text, prompt),
			CreatedAt:   start,
			Duration:    dur.Seconds(),
		}
		s.observe(outcomeComplete, dur)
		L.Info(ctx, "triage complete", "duration", result.Duration, "queue_wait", wait.Seconds())

		if s.notifier != nil {
			go func() {
				nctx, ncancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
				defer ncancel()
				if err := s.notifier.Send(nctx, result); err != nil {
					L.Warn(nctx, "triage notification failed", "error", err)
				}
			}()
		}
		return result, nil

	case <-genCtx.Done():
		dur := time.Since(start)
		return nil, s.generateError(ctx, L, genCtx.Err(), dur)
	}
}

// Health ensures a load has been attempted and reports resource state and
// location. It never touches the generation lock, so startup problems are
// diagnosable independent of the triage path.
func (s *Service) Health(ctx context.Context) *Health {
	err := s.handle.Load(ctx)

	state, lastErr := s.handle.State()
	h := &Health{
		Ready:    state == llm.StateReady,
		State:    string(state),
		Location: s.handle.Location(),
	}
	if err != nil {
		h.Error = err.Error()
	} else if lastErr != nil {
		h.Error = lastErr.Error()
	}
	return h
}

func (s *Service) generateError(ctx context.Context, L log.Logger, err error, dur time.Duration) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		s.observe(string(CategoryTimeout), dur)
		L.Warn(ctx, "triage generation timed out", "timeout", s.timeout.Seconds())
		return &Error{Category: CategoryTimeout, Err: err}
	case errors.Is(err, llm.ErrNotReady):
		s.observe(string(CategoryNotReady), dur)
		return &Error{Category: CategoryNotReady, Err: err}
	default:
		s.observe(string(CategoryGeneration), dur)
		L.Error(ctx, err, "triage generation failed")
		return &Error{Category: CategoryGeneration, Err: err}
	}
}

func (s *Service) observe(outcome string, dur time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.TriagesTotal.WithLabelValues(outcome).Inc()
	if dur > 0 {
		s.metrics.GenerationDuration.WithLabelValues(outcome).Observe(dur.Seconds())
	}
}
