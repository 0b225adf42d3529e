package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/abacus/pkg/domain"
)

// ModeError is the pseudo-mode drawn for a latched error display. The accumulator
// fields keep their mode while it is shown.
const ModeError domain.Mode = "error"

// Transition is one edge of the accumulator state machine.
// Key is a representative key that takes the edge.
type Transition struct {
	From   domain.Mode
	To     domain.Mode
	Label  string
	Key    string
	Dashed bool
}

// Modes lists the nodes in drawing order.
var Modes = []domain.Mode{
	domain.ModeIdle,
	domain.ModeOperatorPending,
	domain.ModeEnteringSecondOperand,
	domain.ModeResultDisplayed,
	ModeError,
}

// Transitions is the edge list of the accumulator.
var Transitions = []Transition{
	{From: domain.ModeIdle, To: domain.ModeIdle, Label: "digit . = ± ⌫", Key: "7"},
	{From: domain.ModeIdle, To: domain.ModeOperatorPending, Label: "operator", Key: "+"},
	{From: domain.ModeOperatorPending, To: domain.ModeOperatorPending, Label: "operator (swap) or =", Key: "*"},
	{From: domain.ModeOperatorPending, To: domain.ModeEnteringSecondOperand, Label: "digit .", Key: "3"},
	{From: domain.ModeOperatorPending, To: domain.ModeIdle, Label: "C", Key: "Escape"},
	{From: domain.ModeEnteringSecondOperand, To: domain.ModeEnteringSecondOperand, Label: "digit . ± ⌫ CE", Key: "4"},
	{From: domain.ModeEnteringSecondOperand, To: domain.ModeOperatorPending, Label: "operator (fold)", Key: "-"},
	{From: domain.ModeEnteringSecondOperand, To: domain.ModeResultDisplayed, Label: "=", Key: "="},
	{From: domain.ModeEnteringSecondOperand, To: domain.ModeIdle, Label: "C", Key: "Escape"},
	{From: domain.ModeResultDisplayed, To: domain.ModeResultDisplayed, Label: "± ⌫", Key: "Backspace"},
	{From: domain.ModeResultDisplayed, To: domain.ModeIdle, Label: "digit . C", Key: "9"},
	{From: domain.ModeResultDisplayed, To: domain.ModeOperatorPending, Label: "operator", Key: "*"},
	{From: domain.ModeEnteringSecondOperand, To: ModeError, Label: "÷ 0", Key: "=", Dashed: true},
	{From: ModeError, To: domain.ModeIdle, Label: "timeout or any key", Key: "7", Dashed: true},
}

// Overlay marks where a live accumulator currently is.
type Overlay struct {
	Current domain.Mode
}

// OverlayFor derives the overlay of a state.
func OverlayFor(s *domain.State) *Overlay {
	if s.Faulted() {
		return &Overlay{Current: ModeError}
	}
	return &Overlay{Current: s.Mode()}
}

// GenerateMermaid renders the state machine as a Mermaid flowchart:
// idle is a circle, the error latch a hexagon, every other mode a rectangle.
// Error edges are dotted. The overlay, when given, highlights the current mode.
func GenerateMermaid(overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, mode := range Modes {
		opener, closer := "[", "]"
		switch mode {
		case domain.ModeIdle:
			opener, closer = "((", "))"
		case ModeError:
			opener, closer = "{{", "}}"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", nodeID(mode), opener, mode, closer)
	}

	for _, t := range Transitions {
		label := strings.ReplaceAll(t.Label, "\"", "'")
		arrow := fmt.Sprintf("-- \"%s\" -->", label)
		if t.Dashed {
			arrow = fmt.Sprintf("-. \"%s\" .->", label)
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", nodeID(t.From), arrow, nodeID(t.To))
	}

	if overlay != nil && overlay.Current != "" {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on both light and dark themes
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		fmt.Fprintf(&sb, "    class %s current;\n", nodeID(overlay.Current))
	}

	return sb.String()
}

func nodeID(m domain.Mode) string {
	return strings.ReplaceAll(string(m), "-", "_")
}
