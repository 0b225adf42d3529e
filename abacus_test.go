package abacus_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestEngine_DemoCalculation(t *testing.T) {
	eng := abacus.New()

	state, err := eng.Evaluate(context.Background(), []string{"Escape", "1", "2", "3", "+", "4", "5", "6", "="})
	require.NoError(t, err)
	assert.Equal(t, "579", state.Display().Current)
	assert.Equal(t, "123 + 456 =", state.Display().History)
}

func TestEngine_PressUnknownKey(t *testing.T) {
	eng := abacus.New()
	ctx := context.Background()
	state := eng.Start(ctx, "s")

	next, err := eng.Press(ctx, state, "%")
	assert.ErrorIs(t, err, domain.ErrUnknownKey)
	assert.Same(t, state, next)
}

func TestEngine_EvaluateReportsFailingKey(t *testing.T) {
	eng := abacus.New()

	state, err := eng.Evaluate(context.Background(), []string{"4", "/", "0", "="})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDivideByZero)
	assert.Contains(t, err.Error(), `key 4 ("=")`)
	assert.True(t, state.Faulted())
}

func TestEngine_FaultLatchAndSettle(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	eng := abacus.New(abacus.WithClock(clock.Now), abacus.WithErrorClearDelay(2*time.Second))
	ctx := context.Background()

	state, err := eng.Evaluate(ctx, []string{"9", "/", "0"})
	require.NoError(t, err)

	faulted, err := eng.Press(ctx, state, "Enter")
	require.ErrorIs(t, err, domain.ErrDivideByZero)
	require.True(t, faulted.Faulted())
	assert.Equal(t, clock.t, *faulted.FaultAt)

	// Arithmetic fields are untouched
	assert.Equal(t, 9.0, *faulted.Previous)
	assert.Equal(t, domain.OpDivide, faulted.Operator)
	assert.Equal(t, "0", faulted.Current())
	assert.False(t, state.Faulted(), "input state must not be mutated")

	// Before the delay nothing changes
	clock.Advance(time.Second)
	assert.Same(t, faulted, eng.Settle(faulted))

	// After the delay the accumulator is cleared
	clock.Advance(time.Second)
	settled := eng.Settle(faulted)
	assert.NotSame(t, faulted, settled)
	assert.False(t, settled.Faulted())
	assert.Equal(t, domain.ModeIdle, settled.Mode())
	assert.Equal(t, "0", settled.Display().Current)
	assert.Empty(t, settled.Display().History)
}

func TestEngine_InputWhileFaultedStartsFresh(t *testing.T) {
	eng := abacus.New()
	ctx := context.Background()

	state, _ := eng.Evaluate(ctx, []string{"9", "/", "0", "="})
	require.True(t, state.Faulted())

	next, err := eng.Press(ctx, state, "4")
	require.NoError(t, err)
	assert.False(t, next.Faulted())
	assert.Equal(t, "4", next.Current())
	assert.Nil(t, next.Previous)

	cleared, err := eng.Press(ctx, state, "Escape")
	require.NoError(t, err)
	assert.False(t, cleared.Faulted())
	assert.Equal(t, domain.ModeIdle, cleared.Mode())
}

func TestEngine_HooksAreWired(t *testing.T) {
	var folds int
	eng := abacus.New(abacus.WithLifecycleHooks(domain.LifecycleHooks{
		OnFold: func(ctx context.Context, e *domain.FoldEvent) { folds++ },
	}))

	_, err := eng.Evaluate(context.Background(), []string{"1", "+", "1", "+", "1", "="})
	require.NoError(t, err)
	assert.Equal(t, 2, folds)
}

func TestEngine_DispatchNilStateStartsFresh(t *testing.T) {
	eng := abacus.New()

	next, err := eng.Dispatch(context.Background(), nil, domain.Digit('7'))
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "7", next.Current())
}
