package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/keymap"
	"github.com/aretw0/abacus/pkg/ports"
	"github.com/aretw0/abacus/pkg/session"
)

// Commands understood besides key names.
const (
	CommandQuit = "quit"
	CommandHelp = "help"
)

// settleRetry re-arms the clear timer when the engine clock has not caught up yet.
const settleRetry = 50 * time.Millisecond

// Runner handles the input loop of the accumulator.
type Runner struct {
	engine    ports.Calculator
	sessions  *session.Manager
	sessionID string
	logger    *slog.Logger

	input   io.Reader
	output  io.Writer
	screen  Screen
	keyMode bool
	help    string

	state *domain.State
	clear *time.Timer
}

type inputResult struct {
	text string
	err  error
}

// New creates a Runner reading from stdin and writing plain text to stdout.
func New(engine ports.Calculator, opts ...Option) *Runner {
	r := &Runner{
		engine: engine,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		input:  os.Stdin,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.screen == nil {
		r.screen = NewTextScreen(r.output)
	}
	return r
}

// State returns the last state the runner showed.
func (r *Runner) State() *domain.State {
	return r.state
}

// Run shows the display and processes input until quit, end of input or ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.init(ctx); err != nil {
		return err
	}
	defer r.clear.Stop()

	done := make(chan struct{})
	defer close(done)
	inputs := r.pump(done)

	for {
		r.prompt()

		select {
		case <-ctx.Done():
			r.logger.Debug("runner interrupted", "err", ctx.Err())
			return nil

		case res, ok := <-inputs:
			if !ok {
				return nil
			}
			if res.err != nil {
				return fmt.Errorf("input error: %w", res.err)
			}
			quit, err := r.handle(ctx, res.text)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}

		case <-r.clear.C:
			if err := r.settle(ctx); err != nil {
				return err
			}
		}
	}
}

// Play feeds steps to the accumulator, showing the display after each one and waiting
// the step delay before the next.
func (r *Runner) Play(ctx context.Context, steps []Step) error {
	if err := r.init(ctx); err != nil {
		return err
	}
	defer r.clear.Stop()

	for _, step := range steps {
		if err := r.press(ctx, []string{step.Key}); err != nil {
			return err
		}
		if step.Delay <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(step.Delay):
		}
	}
	return nil
}

func (r *Runner) init(ctx context.Context) error {
	r.clear = time.NewTimer(time.Hour)
	r.clear.Stop()

	if r.sessions == nil {
		r.state = r.engine.Start(ctx, r.sessionID)
	}
	state, err := r.apply(ctx, func(_ context.Context, s *domain.State) (*domain.State, error) {
		return r.engine.Settle(s), nil
	})
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if state.Faulted() {
		r.clear.Reset(r.engine.ErrorClearDelay())
	}
	return r.screen.Show(state.Display())
}

func (r *Runner) handle(ctx context.Context, text string) (bool, error) {
	clean, err := SanitizeInput(text)
	if err != nil {
		return false, r.screen.Notice(fmt.Sprintf("Error: %v. Please try again.", err))
	}
	clean = strings.TrimSpace(clean)

	switch strings.ToLower(clean) {
	case "":
		return false, nil
	case CommandQuit, "exit":
		return true, nil
	case CommandHelp, "?":
		return false, r.screen.Notice(r.helpText())
	}

	return false, r.press(ctx, keymap.Tokenize(clean))
}

// press applies keys in order and stops at the first rejected key.
func (r *Runner) press(ctx context.Context, keys []string) error {
	state, err := r.apply(ctx, func(ctx context.Context, s *domain.State) (*domain.State, error) {
		s = r.engine.Settle(s)
		for _, key := range keys {
			next, err := r.engine.Press(ctx, s, key)
			if err != nil {
				return next, fmt.Errorf("key %q: %w", key, err)
			}
			s = next
		}
		return s, nil
	})

	switch {
	case err == nil:
		r.clear.Stop()
	case errors.Is(err, domain.ErrDivideByZero):
		r.clear.Reset(r.engine.ErrorClearDelay())
	case errors.Is(err, domain.ErrUnknownKey), errors.Is(err, domain.ErrInvalidDigit):
		r.logger.Debug("key rejected", "session_id", r.sessionID, "err", err)
		if err := r.screen.Notice(fmt.Sprintf("Error: %v", err)); err != nil {
			return err
		}
	default:
		return err
	}
	return r.screen.Show(state.Display())
}

func (r *Runner) settle(ctx context.Context) error {
	state, err := r.apply(ctx, func(_ context.Context, s *domain.State) (*domain.State, error) {
		return r.engine.Settle(s), nil
	})
	if err != nil {
		return err
	}
	if state.Faulted() {
		r.clear.Reset(settleRetry)
		return nil
	}
	r.logger.Debug("error display cleared", "session_id", r.sessionID)
	return r.screen.Show(state.Display())
}

// apply runs fn against the current state, through the session manager when one is set.
func (r *Runner) apply(ctx context.Context, fn session.UpdateFunc) (*domain.State, error) {
	var (
		next *domain.State
		err  error
	)
	if r.sessions != nil {
		next, err = r.sessions.Update(ctx, r.sessionID, fn)
	} else {
		next, err = fn(ctx, r.state)
	}
	if next != nil {
		r.state = next
	}
	return r.state, err
}

func (r *Runner) prompt() {
	if !r.keyMode {
		fmt.Fprint(r.output, "> ")
	}
}

func (r *Runner) helpText() string {
	if r.help != "" {
		return r.help
	}
	var b strings.Builder
	for _, binding := range keymap.Bindings {
		fmt.Fprintf(&b, "%-16s %s\n", strings.Join(binding.Keys, " "), binding.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

// pump reads input in the background so the loop can also wait on the clear timer.
func (r *Runner) pump(done <-chan struct{}) <-chan inputResult {
	ch := make(chan inputResult)
	read := r.lineReader()
	if r.keyMode {
		read = NewKeyReader(r.input).ReadKey
	}

	go func() {
		defer close(ch)
		for {
			text, err := read()
			if text != "" {
				select {
				case ch <- inputResult{text: text}:
				case <-done:
					return
				}
			}
			if err == io.EOF {
				return
			}
			if err != nil {
				select {
				case ch <- inputResult{err: err}:
				case <-done:
				}
				return
			}
		}
	}()
	return ch
}

func (r *Runner) lineReader() func() (string, error) {
	br := bufio.NewReader(r.input)
	return func() (string, error) {
		line, err := br.ReadString('\n')
		if line = strings.TrimRight(line, "\r\n"); line == "" && err == nil {
			// A blank line still reaches the loop so the prompt is repeated.
			return " ", nil
		}
		return line, err
	}
}
