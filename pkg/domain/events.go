package domain

import (
	"context"
	"time"
)

// SessionEvent describes the start or end of a session run.
type SessionEvent struct {
	SessionID  string
	Query      string
	Status     Status
	Duration   time.Duration    // Zero on start
	Confidence ConfidenceVector // Zero on start
}

// StageEvent describes the start or end of a single stage.
type StageEvent struct {
	SessionID string
	Stage     StageKind
	StartedAt time.Time
	Duration  time.Duration // Zero on start
	Entry     *TraceEntry   // Nil on start
}

// HaltEvent is emitted when the initialization guard stops the pipeline.
type HaltEvent struct {
	SessionID string
	Stage     StageKind
	Message   string
	Reason    string
}

// LifecycleHooks defines callbacks for pipeline observability.
// Any field may be nil.
type LifecycleHooks struct {
	OnSessionStart  func(context.Context, *SessionEvent)
	OnStageStart    func(context.Context, *StageEvent)
	OnStageFinish   func(context.Context, *StageEvent)
	OnHalt          func(context.Context, *HaltEvent)
	OnSessionFinish func(context.Context, *SessionEvent)
}
