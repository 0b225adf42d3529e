package ports

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/aretw0/abacus/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		prev := 12.5
		state := domain.NewState(sessionID)
		state.SetEntry("-0.50")
		state.Previous = &prev
		state.Operator = domain.OpMultiply
		state.History = "12.5 ×"

		require.NoError(t, store.Save(ctx, sessionID, state), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "-0.50", loaded.Current())
		assert.Equal(t, -0.5, loaded.Value)
		require.NotNil(t, loaded.Previous)
		assert.Equal(t, 12.5, *loaded.Previous)
		assert.Equal(t, domain.OpMultiply, loaded.Operator)
		assert.Equal(t, domain.ModeEnteringSecondOperand, loaded.Mode())
		assert.Equal(t, "12.5 ×", loaded.History)
	})

	t.Run("Isolation", func(t *testing.T) {
		state := domain.NewState(sessionID)
		state.SetValue(7)
		require.NoError(t, store.Save(ctx, sessionID, state))

		state.SetValue(8)
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 7.0, loaded.Value, "mutating the saved pointer must not leak into the store")

		loaded.SetValue(9)
		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 7.0, again.Value, "mutating a loaded state must not leak into the store")
	})

	t.Run("Non-Finite Values", func(t *testing.T) {
		state := domain.NewState(sessionID)
		state.SetValue(math.Inf(1))
		require.NoError(t, store.Save(ctx, sessionID, state))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.True(t, math.IsInf(loaded.Value, 1))
		assert.Equal(t, "Infinity", loaded.Current())
	})

	t.Run("Fault Latch", func(t *testing.T) {
		at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		state := domain.NewState(sessionID)
		state.Fault = "Cannot divide by zero"
		state.FaultAt = &at
		require.NoError(t, store.Save(ctx, sessionID, state))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.True(t, loaded.Faulted())
		require.NotNil(t, loaded.FaultAt)
		assert.True(t, at.Equal(*loaded.FaultAt))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, domain.NewState(sessionID)))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, domain.NewState(id1)))
		require.NoError(t, store.Save(ctx, id2, domain.NewState(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
