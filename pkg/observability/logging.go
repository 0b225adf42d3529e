package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/abacus/pkg/domain"
)

// LogHooks returns lifecycle hooks that write one structured record per event.
// Inputs log at debug, folds at info, rejected inputs at warn.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnInput: func(ctx context.Context, e *domain.InputEvent) {
			logger.DebugContext(ctx, "input",
				"session_id", e.SessionID,
				"input", e.Input.String(),
				"mode", e.Mode,
			)
		},
		OnFold: func(ctx context.Context, e *domain.FoldEvent) {
			logger.InfoContext(ctx, "fold",
				"session_id", e.SessionID,
				"operator", e.Operator,
				"left", domain.NumberString(e.Left),
				"right", domain.NumberString(e.Right),
				"result", domain.NumberString(e.Result),
			)
		},
		OnError: func(ctx context.Context, e *domain.ErrorEvent) {
			logger.WarnContext(ctx, "input rejected",
				"session_id", e.SessionID,
				"input", e.Input.String(),
				"kind", ErrorKind(e.Err),
				"err", e.Err,
			)
		},
	}
}
