package ports

import (
	"context"
	"time"

	"github.com/aretw0/abacus/pkg/domain"
)

// Calculator is the stateless dispatch surface of the accumulator.
// Adapters hold the state (in a store, a terminal loop, a request) and pass it in.
type Calculator interface {
	// Start creates a fresh accumulator for a session.
	Start(ctx context.Context, sessionID string) *domain.State

	// Dispatch applies one input and returns the next state without mutating the given one.
	Dispatch(ctx context.Context, state *domain.State, in domain.Input) (*domain.State, error)

	// Press maps a key name to an input and dispatches it.
	Press(ctx context.Context, state *domain.State, key string) (*domain.State, error)

	// Settle drops an error display whose delay has elapsed.
	Settle(state *domain.State) *domain.State

	// Evaluate runs a key sequence against a fresh accumulator.
	Evaluate(ctx context.Context, keys []string) (*domain.State, error)

	// ErrorClearDelay reports how long an error display stays latched.
	ErrorClearDelay() time.Duration
}
