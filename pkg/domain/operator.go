package domain

import (
	"fmt"
	"strings"
)

// Operator is one of the four arithmetic operations.
type Operator string

const (
	OpAdd      Operator = "add"
	OpSubtract Operator = "subtract"
	OpMultiply Operator = "multiply"
	OpDivide   Operator = "divide"
)

// Operators lists every supported operator in keypad order.
var Operators = []Operator{OpAdd, OpSubtract, OpMultiply, OpDivide}

// Symbol returns the glyph used in the history line.
func (o Operator) Symbol() string {
	switch o {
	case OpAdd:
		return "+"
	case OpSubtract:
		return "−"
	case OpMultiply:
		return "×"
	case OpDivide:
		return "÷"
	}
	return string(o)
}

// Valid reports whether o is a supported operator.
func (o Operator) Valid() bool {
	switch o {
	case OpAdd, OpSubtract, OpMultiply, OpDivide:
		return true
	}
	return false
}

// ParseOperator accepts operator names ("add") as well as ASCII and display symbols ("+", "×").
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "add", "+", "plus":
		return OpAdd, nil
	case "subtract", "-", "−", "minus":
		return OpSubtract, nil
	case "multiply", "*", "×", "x", "times":
		return OpMultiply, nil
	case "divide", "/", "÷":
		return OpDivide, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOperator, s)
}
