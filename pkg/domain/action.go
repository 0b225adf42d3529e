package domain

import (
	"fmt"
	"strings"
)

// Action names the kind of event fed to the engine.
// Names match the data-action attributes of the calculator keypad.
type Action string

const (
	ActionDigit      Action = "digit"
	ActionDecimal    Action = "decimal"
	ActionOperator   Action = "operator"
	ActionEquals     Action = "equals"
	ActionClear      Action = "clear"
	ActionClearEntry Action = "clear-entry"
	ActionBackspace  Action = "backspace"
	ActionToggleSign Action = "toggle-sign"
)

// Input is a single event for the accumulator.
// Digit is set for ActionDigit, Operator for ActionOperator.
type Input struct {
	Action   Action   `json:"action"`
	Digit    string   `json:"digit,omitempty"`
	Operator Operator `json:"operator,omitempty"`
}

// Digit builds a digit input.
func Digit(d rune) Input {
	return Input{Action: ActionDigit, Digit: string(d)}
}

// Op builds an operator input.
func Op(op Operator) Input {
	return Input{Action: ActionOperator, Operator: op}
}

// Command builds an input that carries no payload (equals, clear, ...).
func Command(a Action) Input {
	return Input{Action: a}
}

// String returns a compact label used in logs and metrics.
func (i Input) String() string {
	switch i.Action {
	case ActionDigit:
		return i.Digit
	case ActionOperator:
		return string(i.Operator)
	}
	return string(i.Action)
}

// ParseAction maps an action name (and optional value) to an Input.
// Operator names ("add", "divide") are accepted directly as actions.
func ParseAction(name, value string) (Input, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch Action(name) {
	case ActionDigit, "number":
		if len(value) != 1 || value[0] < '0' || value[0] > '9' {
			return Input{}, fmt.Errorf("%w: %q", ErrInvalidDigit, value)
		}
		return Digit(rune(value[0])), nil
	case ActionOperator:
		op, err := ParseOperator(value)
		if err != nil {
			return Input{}, err
		}
		return Op(op), nil
	case ActionDecimal, ActionEquals, ActionClear, ActionClearEntry, ActionBackspace, ActionToggleSign:
		return Command(Action(name)), nil
	}

	if op := Operator(name); op.Valid() {
		return Op(op), nil
	}
	return Input{}, fmt.Errorf("%w: %q", ErrUnknownAction, name)
}
