package llm

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeGen is a scriptable Generator for handle lifecycle tests.
type fakeGen struct {
	loadCalls atomic.Int32
	loadErr   error
	loadGate  chan struct{} // if non-nil, Load blocks until closed

	genOut string
	genErr error
}

func (f *fakeGen) Load(context.Context) error {
	f.loadCalls.Add(1)
	if f.loadGate != nil {
		<-f.loadGate
	}
	return f.loadErr
}

func (f *fakeGen) Generate(context.Context, string) (string, error) {
	return f.genOut, f.genErr
}

func (f *fakeGen) Location() string { return "fake:test" }

func TestHandle_LoadTransitionsToReady(t *testing.T) {
	t.Parallel()

	g := &fakeGen{}
	h := NewHandle(g, nil)

	if st, _ := h.State(); st != StateUnloaded {
		t.Fatalf("initial state = %q, want %q", st, StateUnloaded)
	}
	if h.Ready() {
		t.Fatal("Ready() = true before Load")
	}

	if err := h.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !h.Ready() {
		t.Fatal("Ready() = false after successful Load")
	}
	if st, err := h.State(); st != StateReady || err != nil {
		t.Errorf("State() = %q, %v, want ready, nil", st, err)
	}
}

func TestHandle_LoadIdempotent(t *testing.T) {
	t.Parallel()

	g := &fakeGen{}
	h := NewHandle(g, nil)

	for i := 0; i < 3; i++ {
		if err := h.Load(context.Background()); err != nil {
			t.Fatalf("Load %d: %v", i, err)
		}
	}
	if n := g.loadCalls.Load(); n != 1 {
		t.Errorf("Load called %d times, want 1", n)
	}
}

func TestHandle_ConcurrentLoadSingleFlight(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	g := &fakeGen{loadGate: gate}
	h := NewHandle(g, nil)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = h.Load(context.Background())
		}(i)
	}

	// Let callers pile up behind the in-flight load, then release it.
	time.Sleep(50 * time.Millisecond)
	if st, _ := h.State(); st != StateLoading {
		t.Errorf("state during load = %q, want %q", st, StateLoading)
	}
	close(gate)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("caller %d Load: %v", i, err)
		}
	}
	if n := g.loadCalls.Load(); n != 1 {
		t.Errorf("Load called %d times, want 1", n)
	}
}

func TestHandle_LoadFailureThenRetry(t *testing.T) {
	t.Parallel()

	g := &fakeGen{loadErr: errors.New("no adapter")}
	h := NewHandle(g, nil)

	err := h.Load(context.Background())
	if err == nil {
		t.Fatal("Load succeeded, want failure")
	}
	var lerr *LoadError
	if !errors.As(err, &lerr) {
		t.Fatalf("error type = %T, want *LoadError", err)
	}
	if st, serr := h.State(); st != StateFailed || serr == nil {
		t.Errorf("State() = %q, %v, want failed with error", st, serr)
	}
	if h.Ready() {
		t.Fatal("Ready() = true after failed load")
	}

	// A later Load retries from scratch.
	g.loadErr = nil
	if err := h.Load(context.Background()); err != nil {
		t.Fatalf("retry Load: %v", err)
	}
	if !h.Ready() {
		t.Fatal("Ready() = false after retry")
	}
	if n := g.loadCalls.Load(); n != 2 {
		t.Errorf("Load called %d times, want 2", n)
	}
}

func TestHandle_GenerateRequiresReady(t *testing.T) {
	t.Parallel()

	g := &fakeGen{genOut: "note"}
	h := NewHandle(g, nil)

	if _, err := h.Generate(context.Background(), "p"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Generate before load = %v, want ErrNotReady", err)
	}

	if err := h.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	out, err := h.Generate(context.Background(), "p")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "note" {
		t.Errorf("Generate = %q, want %q", out, "note")
	}
}

func TestLoadError_Unwrap(t *testing.T) {
	t.Parallel()

	inner := errors.New("boom")
	err := &LoadError{Err: inner}
	if !errors.Is(err, inner) {
		t.Error("LoadError does not unwrap to inner error")
	}
}
