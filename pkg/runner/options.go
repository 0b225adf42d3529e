package runner

import (
	"io"
	"log/slog"

	"github.com/aretw0/abacus/pkg/session"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithSessions persists the accumulator under sessionID after every change.
func WithSessions(manager *session.Manager, sessionID string) Option {
	return func(r *Runner) {
		r.sessions = manager
		r.sessionID = sessionID
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithInput sets the source of user input.
func WithInput(in io.Reader) Option {
	return func(r *Runner) {
		r.input = in
	}
}

// WithOutput sets where the default screen, prompts and help are written.
func WithOutput(out io.Writer) Option {
	return func(r *Runner) {
		r.output = out
	}
}

// WithScreen replaces the plain text screen.
func WithScreen(screen Screen) Option {
	return func(r *Runner) {
		r.screen = screen
	}
}

// WithKeyMode reads single keystrokes instead of lines.
func WithKeyMode() Option {
	return func(r *Runner) {
		r.keyMode = true
	}
}

// WithHelp sets the text shown for the help command.
func WithHelp(help string) Option {
	return func(r *Runner) {
		r.help = help
	}
}
