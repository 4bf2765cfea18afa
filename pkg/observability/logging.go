package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/nexusmind/pkg/domain"
)

// LoggingHooks logs every lifecycle event to logger.
// Stage starts are logged at debug level, failures and halts at warn.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSessionStart: func(ctx context.Context, e *domain.SessionEvent) {
			logger.InfoContext(ctx, "session_start",
				"session_id", e.SessionID,
				"query", e.Query,
			)
		},
		OnStageStart: func(ctx context.Context, e *domain.StageEvent) {
			logger.DebugContext(ctx, "stage_start",
				"session_id", e.SessionID,
				"stage", e.Stage.DisplayName(),
				"stage_number", e.Stage.Number(),
			)
		},
		OnStageFinish: func(ctx context.Context, e *domain.StageEvent) {
			attrs := []any{
				"session_id", e.SessionID,
				"stage", e.Stage.DisplayName(),
				"duration_ms", e.Duration.Milliseconds(),
			}
			if e.Entry == nil {
				logger.InfoContext(ctx, "stage_finish", attrs...)
				return
			}
			attrs = append(attrs, "summary", e.Entry.Summary)
			if e.Entry.Note != "" {
				attrs = append(attrs, "note", e.Entry.Note)
			}
			if e.Entry.Failed() {
				logger.WarnContext(ctx, "stage_failed", append(attrs, "err", e.Entry.Error)...)
				return
			}
			logger.InfoContext(ctx, "stage_finish", attrs...)
		},
		OnHalt: func(ctx context.Context, e *domain.HaltEvent) {
			logger.WarnContext(ctx, "session_halted",
				"session_id", e.SessionID,
				"stage", e.Stage.DisplayName(),
				"reason", e.Reason,
			)
		},
		OnSessionFinish: func(ctx context.Context, e *domain.SessionEvent) {
			logger.InfoContext(ctx, "session_finish",
				"session_id", e.SessionID,
				"status", e.Status,
				"duration_ms", e.Duration.Milliseconds(),
				"confidence", e.Confidence[:],
			)
		},
	}
}
