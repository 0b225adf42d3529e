package domain_test

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/aretw0/abacus/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_CurrentTracksEntry(t *testing.T) {
	s := domain.NewState("s1")
	assert.Equal(t, "0", s.Current())

	s.SetEntry("0.")
	assert.Equal(t, "0.", s.Current())
	assert.Equal(t, 0.0, s.Value)

	s.SetEntry("-12.50")
	assert.Equal(t, "-12.50", s.Current())
	assert.Equal(t, -12.5, s.Value)

	s.SetValue(42)
	assert.False(t, s.Editing)
	assert.Equal(t, "42", s.Current())
}

func TestState_Mode(t *testing.T) {
	prev := 5.0
	tests := []struct {
		name  string
		state domain.State
		want  domain.Mode
	}{
		{"Idle", domain.State{}, domain.ModeIdle},
		{"Operator Pending", domain.State{Previous: &prev, Operator: domain.OpAdd, WaitingForOperand: true}, domain.ModeOperatorPending},
		{"Entering Second", domain.State{Previous: &prev, Operator: domain.OpAdd}, domain.ModeEnteringSecondOperand},
		{"Result", domain.State{ShouldResetDisplay: true}, domain.ModeResultDisplayed},
		{"Chained After Result", domain.State{Previous: &prev, Operator: domain.OpAdd, WaitingForOperand: true, ShouldResetDisplay: true}, domain.ModeOperatorPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.Mode())
		})
	}
}

func TestState_Reset(t *testing.T) {
	prev := 3.0
	s := &domain.State{SessionID: "keep", Value: 9, Previous: &prev, Operator: domain.OpMultiply, History: "3 ×"}
	s.Reset()
	assert.Equal(t, domain.State{SessionID: "keep"}, *s)
}

func TestState_SnapshotIsDeep(t *testing.T) {
	prev := 3.0
	now := time.Now()
	s := &domain.State{Previous: &prev, FaultAt: &now}

	c := s.Snapshot()
	*c.Previous = 10
	assert.Equal(t, 3.0, *s.Previous)
	assert.NotSame(t, s.FaultAt, c.FaultAt)
}

func TestState_Display(t *testing.T) {
	s := domain.NewState("s1")
	s.SetEntry("1234567890123")
	s.History = "5 +"

	d := s.Display()
	assert.Equal(t, "1.234568e+12", d.Current)
	assert.Equal(t, "5 +", d.History)
	assert.Empty(t, d.Error)

	s.Fault = domain.ErrDivideByZero.Error()
	d = s.Display()
	assert.Equal(t, domain.ErrorDisplay, d.Current)
	assert.Equal(t, "cannot divide by zero", d.History)
	assert.Equal(t, "cannot divide by zero", d.Error)
}

func TestState_JSONRoundTrip(t *testing.T) {
	prev := math.Inf(1)
	s := &domain.State{
		SessionID:         "s1",
		Value:             0.1,
		Entry:             "0.10",
		Editing:           true,
		Previous:          &prev,
		Operator:          domain.OpDivide,
		WaitingForOperand: false,
		History:           "Infinity ÷",
	}

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"value":"0.1"`)
	assert.Contains(t, string(data), `"previous":"Infinity"`)

	var loaded domain.State
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, "0.10", loaded.Current())
	assert.Equal(t, 0.1, loaded.Value)
	require.NotNil(t, loaded.Previous)
	assert.True(t, math.IsInf(*loaded.Previous, 1))
	assert.Equal(t, domain.OpDivide, loaded.Operator)
	assert.Equal(t, "s1", loaded.SessionID)
}
