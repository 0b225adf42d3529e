package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventInput EventType = "input"
	EventFold  EventType = "fold"
	EventError EventType = "error"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
}

// InputEvent is emitted after an input has been applied.
type InputEvent struct {
	EventBase
	Input Input `json:"input"`
	Mode  Mode  `json:"mode"`
}

// FoldEvent is emitted whenever a pending operator collapses two operands into one,
// either on equals or while chaining into a new operator.
type FoldEvent struct {
	EventBase
	Operator Operator `json:"operator"`
	Left     float64  `json:"left"`
	Right    float64  `json:"right"`
	Result   float64  `json:"result"`
}

// ErrorEvent is emitted when an input is rejected.
type ErrorEvent struct {
	EventBase
	Input Input `json:"input"`
	Err   error `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnInput func(context.Context, *InputEvent)
	OnFold  func(context.Context, *FoldEvent)
	OnError func(context.Context, *ErrorEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnInput: chain(h.OnInput, other.OnInput),
		OnFold:  chain(h.OnFold, other.OnFold),
		OnError: chain(h.OnError, other.OnError),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
