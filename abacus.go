package abacus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/abacus/internal/runtime"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/keymap"
)

// DivideByZeroMessage is shown on the history line while the error display is latched.
const DivideByZeroMessage = "Cannot divide by zero"

// Engine is the high-level entry point for the Abacus library.
// It wraps the internal runtime and owns the presentation rules around it:
// key mapping and the error display latch.
type Engine struct {
	runtime         *runtime.Engine
	hooks           domain.LifecycleHooks
	logger          *slog.Logger
	errorClearDelay time.Duration
	now             func() time.Time
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithErrorClearDelay sets how long an error display stays latched (default 2s).
func WithErrorClearDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.errorClearDelay = d
		}
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New initializes a new Abacus Engine.
func New(opts ...Option) *Engine {
	eng := &Engine{
		errorClearDelay: domain.DefaultErrorClearDelay,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	eng.runtime = runtime.NewEngine(
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithClock(eng.now),
	)
	return eng
}

// Start creates a fresh accumulator for the session.
func (e *Engine) Start(ctx context.Context, sessionID string) *domain.State {
	e.logger.DebugContext(ctx, "session started", "session_id", sessionID)
	return domain.NewState(sessionID)
}

// Dispatch applies one input and returns the next state. The given state is never mutated.
//
// A latched error display is dropped first: if it has expired the accumulator is cleared,
// otherwise the input itself acts as the acknowledgement and also clears it.
// On domain.ErrDivideByZero the returned state keeps the arithmetic fields unchanged and
// latches the error display.
func (e *Engine) Dispatch(ctx context.Context, state *domain.State, in domain.Input) (*domain.State, error) {
	if state == nil {
		state = domain.NewState("")
	}
	if state.Faulted() {
		state = e.acknowledge(state)
		if in.Action == domain.ActionClear {
			return state, nil
		}
	}

	next, err := e.runtime.Dispatch(ctx, state, in)
	if err == nil {
		return next, nil
	}

	if errors.Is(err, domain.ErrDivideByZero) {
		faulted := state.Snapshot()
		at := e.now()
		faulted.Fault = DivideByZeroMessage
		faulted.FaultAt = &at
		e.logger.InfoContext(ctx, "division by zero",
			"session_id", state.SessionID,
			"history", state.History,
		)
		return faulted, err
	}
	return state, err
}

// Press maps a key name (see package keymap) and dispatches it.
func (e *Engine) Press(ctx context.Context, state *domain.State, key string) (*domain.State, error) {
	in, err := keymap.Lookup(key)
	if err != nil {
		return state, err
	}
	return e.Dispatch(ctx, state, in)
}

// Settle clears an error display whose delay has elapsed. It returns state itself when
// nothing changes, so callers can compare pointers to decide whether to persist.
func (e *Engine) Settle(state *domain.State) *domain.State {
	if !state.Faulted() || state.FaultAt == nil {
		return state
	}
	if e.now().Sub(*state.FaultAt) < e.errorClearDelay {
		return state
	}
	return e.acknowledge(state)
}

// ErrorClearDelay reports how long an error display stays latched.
func (e *Engine) ErrorClearDelay() time.Duration {
	return e.errorClearDelay
}

// Evaluate runs a whole key sequence against a fresh accumulator.
// It stops at the first failing key and returns the state reached so far.
func (e *Engine) Evaluate(ctx context.Context, keys []string) (*domain.State, error) {
	state := domain.NewState("")
	for i, key := range keys {
		next, err := e.Press(ctx, state, key)
		if err != nil {
			return next, fmt.Errorf("key %d (%q): %w", i+1, key, err)
		}
		state = next
	}
	return state, nil
}

// acknowledge drops an error display the way the auto-clear does: by clearing the accumulator.
func (e *Engine) acknowledge(state *domain.State) *domain.State {
	next := state.Snapshot()
	next.Reset()
	return next
}
