package domain

import (
	"encoding/json"
	"time"
)

// Mode is the coarse position of the accumulator in its state machine.
type Mode string

const (
	ModeIdle                  Mode = "idle"                    // No operator pending
	ModeOperatorPending       Mode = "operator_pending"        // Operator chosen, second operand not started
	ModeEnteringSecondOperand Mode = "entering_second_operand" // Second operand being typed
	ModeResultDisplayed       Mode = "result_displayed"        // Equals produced the current value
)

// State is the accumulator record folded by the engine.
//
// The current operand is held as a typed Value. While the user is typing, Entry keeps the
// literal text (so "0." and "-0.50" survive) and Editing is set; Current reconstructs the
// literal either way.
type State struct {
	// SessionID identifies the owner of the state when it is persisted.
	SessionID string `json:"session_id,omitempty"`

	// Value is the numeric current operand.
	Value float64 `json:"value"`

	// Entry is the literal being typed. Only meaningful when Editing is true.
	Entry string `json:"entry,omitempty"`

	// Editing is true while Entry is the authoritative representation of Value.
	Editing bool `json:"editing,omitempty"`

	// Previous holds the first operand while an operator is pending.
	Previous *float64 `json:"previous,omitempty"`

	// Operator is the pending operation, empty when idle.
	Operator Operator `json:"operator,omitempty"`

	// WaitingForOperand is set right after an operator, before any digit of the next operand.
	WaitingForOperand bool `json:"waiting_for_operand"`

	// ShouldResetDisplay is set right after equals, so the next digit starts a fresh entry.
	ShouldResetDisplay bool `json:"should_reset_display"`

	// History summarises the pending or last operation ("5 +", "5 + 3 =").
	History string `json:"history"`

	// Fault is the presentation-owned error message latched after a failed operation.
	// The engine never reads it; hosts clear it after ErrorClearDelay.
	Fault string `json:"fault,omitempty"`

	// FaultAt records when Fault was latched.
	FaultAt *time.Time `json:"fault_at,omitempty"`

	// Sealed carries the encrypted form of the whole state when it is persisted through an
	// encrypting store. Every other field except SessionID is zero in that case.
	Sealed string `json:"sealed,omitempty"`
}

// NewState creates a clean accumulator for the given session.
func NewState(sessionID string) *State {
	return &State{SessionID: sessionID}
}

// Current returns the current operand as a decimal literal.
func (s *State) Current() string {
	if s.Editing {
		return s.Entry
	}
	return NumberString(s.Value)
}

// SetEntry replaces the current operand with a typed literal.
func (s *State) SetEntry(text string) {
	s.Entry = text
	s.Editing = true
	s.Value = ParseNumber(text)
}

// SetValue replaces the current operand with a computed value.
func (s *State) SetValue(v float64) {
	s.Value = v
	s.Entry = ""
	s.Editing = false
}

// Reset restores the defaults, keeping the session identity.
func (s *State) Reset() {
	*s = State{SessionID: s.SessionID}
}

// Mode classifies the state.
func (s *State) Mode() Mode {
	switch {
	case s.Operator != "" && s.WaitingForOperand:
		return ModeOperatorPending
	case s.Operator != "":
		return ModeEnteringSecondOperand
	case s.ShouldResetDisplay:
		return ModeResultDisplayed
	}
	return ModeIdle
}

// Faulted reports whether an error display is latched.
func (s *State) Faulted() bool {
	return s.Fault != ""
}

// Snapshot creates a deep copy of the state.
func (s *State) Snapshot() *State {
	if s == nil {
		return nil
	}
	c := *s
	if s.Previous != nil {
		p := *s.Previous
		c.Previous = &p
	}
	if s.FaultAt != nil {
		t := *s.FaultAt
		c.FaultAt = &t
	}
	return &c
}

// Display renders the state for a renderer.
func (s *State) Display() Display {
	if s.Faulted() {
		return Display{
			Current: ErrorDisplay,
			History: s.Fault,
			Mode:    s.Mode(),
			Error:   s.Fault,
		}
	}
	return Display{
		Current: FormatText(s.Current()),
		History: s.History,
		Mode:    s.Mode(),
	}
}

// Display is the pair of lines a renderer shows after every input.
type Display struct {
	Current string `json:"current"`
	History string `json:"history"`
	Mode    Mode   `json:"mode"`
	Error   string `json:"error,omitempty"`
}

// MarshalJSON encodes numbers as literals so Infinity and NaN results survive persistence.
func (s State) MarshalJSON() ([]byte, error) {
	type plain State
	aux := struct {
		plain
		Value    string  `json:"value"`
		Previous *string `json:"previous,omitempty"`
	}{
		plain: plain(s),
		Value: NumberString(s.Value),
	}
	if s.Previous != nil {
		p := NumberString(*s.Previous)
		aux.Previous = &p
	}
	return json.Marshal(aux)
}

// UnmarshalJSON decodes the representation written by MarshalJSON.
func (s *State) UnmarshalJSON(data []byte) error {
	type plain State
	aux := struct {
		*plain
		Value    string  `json:"value"`
		Previous *string `json:"previous,omitempty"`
	}{
		plain: (*plain)(s),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.Value = 0
	if aux.Value != "" {
		s.Value = ParseNumber(aux.Value)
	}
	s.Previous = nil
	if aux.Previous != nil {
		p := ParseNumber(*aux.Previous)
		s.Previous = &p
	}
	return nil
}
