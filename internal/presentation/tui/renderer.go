package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/abacus/pkg/keymap"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// Without options the style follows the terminal background.
func NewRenderer(opts ...glamour.TermRendererOption) (func(string) (string, error), error) {
	if len(opts) == 0 {
		opts = []glamour.TermRendererOption{glamour.WithAutoStyle()}
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("markdown renderer: %w", err)
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}, nil
}

// HelpMarkdown documents the key bindings as a markdown table.
func HelpMarkdown() string {
	var b strings.Builder
	b.WriteString("# Keys\n\n")
	b.WriteString("| Key | Action |\n")
	b.WriteString("|-----|--------|\n")
	for _, binding := range keymap.Bindings {
		keys := make([]string, len(binding.Keys))
		for i, k := range binding.Keys {
			keys[i] = "`" + k + "`"
		}
		fmt.Fprintf(&b, "| %s | %s |\n", strings.Join(keys, " "), binding.Description)
	}
	b.WriteString("\nType `help` to show this table again and `quit` to leave.\n")
	return b.String()
}

// RenderHelp renders HelpMarkdown through render, falling back to the raw markdown.
func RenderHelp(render func(string) (string, error)) string {
	md := HelpMarkdown()
	if render == nil {
		return md
	}
	out, err := render(md)
	if err != nil {
		return md
	}
	return out
}
