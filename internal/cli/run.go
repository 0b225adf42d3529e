package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/internal/presentation/tui"
	"github.com/aretw0/abacus/pkg/runner"
)

// RunOptions configures an interactive session.
type RunOptions struct {
	// SessionID persists the accumulator in the configured store. Empty keeps it in memory.
	SessionID string
	// Keys reads single keystrokes from a raw terminal instead of lines.
	Keys bool
	// Demo plays the scripted 123 + 456 = calculation instead of reading input.
	Demo bool
	// Quiet hides the banner and system messages.
	Quiet bool

	Input  *os.File
	Output io.Writer
}

// RunSession runs the calculator in the terminal until the user quits.
func RunSession(ctx context.Context, app *App, opts RunOptions) error {
	in, out := opts.Input, opts.Output
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	keyMode := opts.Keys && runner.IsTerminal(in)
	if opts.Keys && !keyMode {
		app.Logger.Warn("key mode needs a terminal, falling back to line mode")
	}

	if !opts.Quiet {
		tui.PrintBanner(out)
		printSystemMessage(out, "abacus %s. Type 'help' for keys, 'quit' to leave.", strings.TrimSpace(abacus.Version))
	}

	if keyMode {
		restore, err := runner.MakeRaw(in)
		if err != nil {
			return fmt.Errorf("failed to enter raw mode: %w", err)
		}
		defer func() { _ = restore() }()
		out = runner.NewCRLFWriter(out)
	}

	displayOpts := []tui.DisplayOption{}
	if keyMode {
		displayOpts = append(displayOpts, tui.WithInPlace())
	}
	display := tui.NewDisplay(out, displayOpts...)

	help := tui.HelpMarkdown()
	if render, err := tui.NewRenderer(); err == nil {
		help = tui.RenderHelp(render)
	} else {
		app.Logger.Debug("markdown renderer unavailable", "err", err)
	}

	runnerOpts := []runner.Option{
		runner.WithLogger(app.Logger),
		runner.WithInput(in),
		runner.WithOutput(out),
		runner.WithScreen(display),
		runner.WithHelp(help),
	}
	if opts.SessionID != "" {
		runnerOpts = append(runnerOpts, runner.WithSessions(app.Sessions, opts.SessionID))
		app.Logger.Info("session active", "session_id", opts.SessionID, "store", app.Config.Store.Kind)
	}
	if keyMode {
		runnerOpts = append(runnerOpts, runner.WithKeyMode())
	}

	r := runner.New(app.Engine, runnerOpts...)

	var err error
	if opts.Demo {
		err = r.Play(ctx, runner.DemoSteps())
	} else {
		err = r.Run(ctx)
	}

	if !opts.Quiet && err == nil && opts.SessionID != "" {
		printSystemMessage(out, "Session '%s' saved at %s.", opts.SessionID, r.State().Display().Current)
	}
	return handleExecutionError(err)
}
