package domain

import (
	"encoding/json"
	"testing"
)

func TestDiff(t *testing.T) {
	pending := ModeOperatorPending
	entering := ModeEnteringSecondOperand

	tests := []struct {
		name     string
		old      *State
		new      *State
		wantDiff *StateDiff // nil means we expect no diff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new:  &State{SessionID: "sess-1", Value: 5, History: ""},
			wantDiff: &StateDiff{
				SessionID: "sess-1",
				Current:   ptr("5"),
				History:   ptr(""),
				Mode:      ptrMode(ModeIdle),
			},
		},
		{
			name:     "No Changes",
			old:      &State{SessionID: "sess-1", Value: 5},
			new:      &State{SessionID: "sess-1", Entry: "5", Editing: true, Value: 5},
			wantDiff: nil,
		},
		{
			name: "Operator Pressed",
			old:  &State{SessionID: "sess-1", Value: 5},
			new: &State{
				SessionID:         "sess-1",
				Value:             5,
				Previous:          f(5),
				Operator:          OpAdd,
				WaitingForOperand: true,
				History:           "5 +",
			},
			wantDiff: &StateDiff{
				SessionID: "sess-1",
				History:   ptr("5 +"),
				Mode:      &pending,
			},
		},
		{
			name: "Second Operand Typed",
			old: &State{
				SessionID:         "sess-1",
				Value:             5,
				Previous:          f(5),
				Operator:          OpAdd,
				WaitingForOperand: true,
				History:           "5 +",
			},
			new: &State{
				SessionID: "sess-1",
				Entry:     "3",
				Editing:   true,
				Value:     3,
				Previous:  f(5),
				Operator:  OpAdd,
				History:   "5 +",
			},
			wantDiff: &StateDiff{
				SessionID: "sess-1",
				Current:   ptr("3"),
				Mode:      &entering,
			},
		},
		{
			name: "Fault Latched",
			old:  &State{SessionID: "sess-1", Value: 0, Previous: f(9), Operator: OpDivide, History: "9 ÷"},
			new:  &State{SessionID: "sess-1", Value: 0, Previous: f(9), Operator: OpDivide, History: "9 ÷", Fault: "cannot divide by zero"},
			wantDiff: &StateDiff{
				SessionID: "sess-1",
				Current:   ptr("Error"),
				History:   ptr("cannot divide by zero"),
				Error:     ptr("cannot divide by zero"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if tt.wantDiff == nil {
				if got != nil {
					gotJSON, _ := json.Marshal(got)
					t.Fatalf("expected no diff, got %s", gotJSON)
				}
				return
			}
			if got == nil {
				t.Fatalf("expected diff, got nil")
			}

			gotJSON, _ := json.Marshal(got)
			wantJSON, _ := json.Marshal(tt.wantDiff)
			if string(gotJSON) != string(wantJSON) {
				t.Errorf("Diff() =\n%s\nwant\n%s", gotJSON, wantJSON)
			}
		})
	}
}

func ptr(s string) *string { return &s }
func ptrMode(m Mode) *Mode { return &m }
func f(v float64) *float64 { return &v }
