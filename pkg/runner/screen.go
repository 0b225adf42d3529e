package runner

import (
	"fmt"
	"io"

	"github.com/aretw0/abacus/pkg/domain"
)

// Screen presents the accumulator to the user.
type Screen interface {
	// Show renders the display after a change.
	Show(domain.Display) error

	// Notice writes a message that is not part of the display (errors, help).
	Notice(msg string) error
}

// TextScreen writes the two display lines as plain text.
type TextScreen struct {
	w io.Writer
}

// NewTextScreen creates a screen writing to w.
func NewTextScreen(w io.Writer) *TextScreen {
	return &TextScreen{w: w}
}

func (s *TextScreen) Show(d domain.Display) error {
	_, err := fmt.Fprintf(s.w, "%s\n%s\n", d.History, d.Current)
	return err
}

func (s *TextScreen) Notice(msg string) error {
	_, err := fmt.Fprintln(s.w, msg)
	return err
}
