package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/abacus/pkg/domain"
)

// Engine is the accumulator state machine.
// It holds no session state: every operation takes the *domain.State it mutates,
// and the caller owns that state exclusively for the duration of the call.
type Engine struct {
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	now    func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithClock overrides the time source used to stamp events.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates a new engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// InputDigit types a digit into the current operand.
// After an operator or a result the digit starts a fresh entry; a lone "0" is replaced.
func (e *Engine) InputDigit(s *domain.State, d rune) error {
	if d < '0' || d > '9' {
		return fmt.Errorf("%w: %q", domain.ErrInvalidDigit, d)
	}

	if s.WaitingForOperand || s.ShouldResetDisplay {
		s.SetEntry(string(d))
		s.WaitingForOperand = false
		s.ShouldResetDisplay = false
		return nil
	}

	cur := s.Current()
	if cur == "0" || !domain.IsPlainLiteral(cur) {
		s.SetEntry(string(d))
		return nil
	}
	s.SetEntry(cur + string(d))
	return nil
}

// InputDecimalPoint appends a decimal point. A second point in the same operand is a no-op.
func (e *Engine) InputDecimalPoint(s *domain.State) error {
	if s.WaitingForOperand || s.ShouldResetDisplay {
		s.SetEntry("0.")
		s.WaitingForOperand = false
		s.ShouldResetDisplay = false
		return nil
	}

	cur := s.Current()
	if !domain.IsPlainLiteral(cur) {
		s.SetEntry("0.")
		return nil
	}
	if !strings.Contains(cur, ".") {
		s.SetEntry(cur + ".")
	}
	return nil
}

// InputOperator selects the pending operator.
//
// With nothing pending the current operand becomes the first operand. With an operator
// pending and a new operand typed since, the pending operation is folded first, so
// 5 + 3 + evaluates (5+3) before recording the second +. With an operator pending and no
// new operand, the operator is swapped without recomputing.
//
// A fold that divides by zero returns domain.ErrDivideByZero and leaves s untouched.
func (e *Engine) InputOperator(ctx context.Context, s *domain.State, op domain.Operator) error {
	if !op.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownOperator, op)
	}

	input := s.Value
	switch {
	case s.Previous == nil:
		s.Previous = &input
	case s.Operator != "" && !s.WaitingForOperand:
		result, err := e.fold(ctx, s, s.Operator, *s.Previous, input)
		if err != nil {
			return err
		}
		s.SetValue(result)
		s.Previous = &result
	}

	s.WaitingForOperand = true
	s.Operator = op
	s.History = fmt.Sprintf("%s %s", domain.FormatNumber(*s.Previous), op.Symbol())
	return nil
}

// Equals folds the pending operation. It is a no-op unless an operator is pending and a
// second operand has been typed. A division by zero returns domain.ErrDivideByZero and
// leaves s untouched.
func (e *Engine) Equals(ctx context.Context, s *domain.State) error {
	if s.Previous == nil || s.Operator == "" || s.WaitingForOperand {
		return nil
	}

	prev, cur := *s.Previous, s.Value
	result, err := e.fold(ctx, s, s.Operator, prev, cur)
	if err != nil {
		return err
	}

	s.History = fmt.Sprintf("%s %s %s =", domain.FormatNumber(prev), s.Operator.Symbol(), domain.FormatNumber(cur))
	s.SetValue(result)
	s.Previous = nil
	s.Operator = ""
	s.WaitingForOperand = false
	s.ShouldResetDisplay = true
	return nil
}

// Clear resets the whole accumulator.
func (e *Engine) Clear(s *domain.State) {
	s.Reset()
}

// ClearEntry resets the current operand only; a pending operation survives.
func (e *Engine) ClearEntry(s *domain.State) {
	s.SetValue(0)
}

// Backspace removes the last character of the current operand, flooring at "0".
// A computed value that is not a plain literal (exponent form, Infinity) floors at once.
func (e *Engine) Backspace(s *domain.State) {
	cur := s.Current()
	if len(cur) <= 1 || (!s.Editing && !domain.IsPlainLiteral(cur)) {
		s.SetValue(0)
		return
	}

	next := cur[:len(cur)-1]
	if next == "-" {
		s.SetValue(0)
		return
	}
	s.SetEntry(next)
}

// ToggleSign negates the current operand unless it is "0".
func (e *Engine) ToggleSign(s *domain.State) {
	cur := s.Current()
	if cur == "0" {
		return
	}

	if !s.Editing {
		s.SetValue(-s.Value)
		return
	}
	if strings.HasPrefix(cur, "-") {
		s.SetEntry(cur[1:])
		return
	}
	s.SetEntry("-" + cur)
}

// Dispatch applies a single input to a copy of state and returns the copy.
// On error the original state is returned unchanged alongside the error.
func (e *Engine) Dispatch(ctx context.Context, state *domain.State, in domain.Input) (*domain.State, error) {
	next := state.Snapshot()
	if next == nil {
		next = domain.NewState("")
	}

	if err := e.apply(ctx, next, in); err != nil {
		e.logger.Debug("input rejected",
			"session_id", state.SessionID,
			"input", in.String(),
			"err", err,
		)
		if e.hooks.OnError != nil {
			e.hooks.OnError(ctx, &domain.ErrorEvent{
				EventBase: e.event(domain.EventError, state.SessionID),
				Input:     in,
				Err:       err,
			})
		}
		return state, err
	}

	e.logger.Debug("input applied",
		"session_id", next.SessionID,
		"input", in.String(),
		"current", next.Current(),
		"mode", next.Mode(),
	)
	if e.hooks.OnInput != nil {
		e.hooks.OnInput(ctx, &domain.InputEvent{
			EventBase: e.event(domain.EventInput, next.SessionID),
			Input:     in,
			Mode:      next.Mode(),
		})
	}
	return next, nil
}

func (e *Engine) apply(ctx context.Context, s *domain.State, in domain.Input) error {
	switch in.Action {
	case domain.ActionDigit:
		if len(in.Digit) != 1 {
			return fmt.Errorf("%w: %q", domain.ErrInvalidDigit, in.Digit)
		}
		return e.InputDigit(s, rune(in.Digit[0]))
	case domain.ActionDecimal:
		return e.InputDecimalPoint(s)
	case domain.ActionOperator:
		return e.InputOperator(ctx, s, in.Operator)
	case domain.ActionEquals:
		return e.Equals(ctx, s)
	case domain.ActionClear:
		e.Clear(s)
	case domain.ActionClearEntry:
		e.ClearEntry(s)
	case domain.ActionBackspace:
		e.Backspace(s)
	case domain.ActionToggleSign:
		e.ToggleSign(s)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownAction, in.Action)
	}
	return nil
}

func (e *Engine) fold(ctx context.Context, s *domain.State, op domain.Operator, a, b float64) (float64, error) {
	result, err := Apply(op, a, b)
	if err != nil {
		return 0, err
	}
	if e.hooks.OnFold != nil {
		e.hooks.OnFold(ctx, &domain.FoldEvent{
			EventBase: e.event(domain.EventFold, s.SessionID),
			Operator:  op,
			Left:      a,
			Right:     b,
			Result:    result,
		})
	}
	return result, nil
}

func (e *Engine) event(t domain.EventType, sessionID string) domain.EventBase {
	return domain.EventBase{
		Timestamp: e.now(),
		Type:      t,
		SessionID: sessionID,
	}
}
