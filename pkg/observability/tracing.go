package observability

import (
	"context"
	"sync"

	"github.com/aretw0/nexusmind/pkg/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope used by NewTracer callers.
const TracerName = "github.com/aretw0/nexusmind"

type stageKey struct {
	session string
	stage   domain.StageKind
}

// Tracer turns lifecycle events into spans: one "nexusmind.session" span per
// run with a child span per stage. Concurrent sessions are tracked by id.
type Tracer struct {
	tracer trace.Tracer

	mu       sync.Mutex
	sessions map[string]sessionSpan
	stages   map[stageKey]trace.Span
}

type sessionSpan struct {
	ctx  context.Context
	span trace.Span
}

// NewTracer creates a Tracer that starts spans on t.
func NewTracer(t trace.Tracer) *Tracer {
	return &Tracer{
		tracer:   t,
		sessions: make(map[string]sessionSpan),
		stages:   make(map[stageKey]trace.Span),
	}
}

// Hooks returns lifecycle hooks that emit spans.
func (t *Tracer) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSessionStart:  t.sessionStart,
		OnStageStart:    t.stageStart,
		OnStageFinish:   t.stageFinish,
		OnHalt:          t.halt,
		OnSessionFinish: t.sessionFinish,
	}
}

func (t *Tracer) sessionStart(ctx context.Context, e *domain.SessionEvent) {
	ctx, span := t.tracer.Start(ctx, "nexusmind.session",
		trace.WithAttributes(
			attribute.String("session.id", e.SessionID),
			attribute.Int("query.length", len(e.Query)),
		),
	)
	t.mu.Lock()
	t.sessions[e.SessionID] = sessionSpan{ctx: ctx, span: span}
	t.mu.Unlock()
}

func (t *Tracer) stageStart(ctx context.Context, e *domain.StageEvent) {
	t.mu.Lock()
	if parent, ok := t.sessions[e.SessionID]; ok {
		ctx = parent.ctx
	}
	t.mu.Unlock()

	_, span := t.tracer.Start(ctx, e.Stage.DisplayName(),
		trace.WithAttributes(
			attribute.String("session.id", e.SessionID),
			attribute.Int("stage.number", e.Stage.Number()),
		),
	)
	t.mu.Lock()
	t.stages[stageKey{e.SessionID, e.Stage}] = span
	t.mu.Unlock()
}

func (t *Tracer) stageFinish(_ context.Context, e *domain.StageEvent) {
	key := stageKey{e.SessionID, e.Stage}
	t.mu.Lock()
	span, ok := t.stages[key]
	delete(t.stages, key)
	t.mu.Unlock()
	if !ok {
		return
	}

	if e.Entry != nil {
		span.SetAttributes(attribute.String("stage.summary", e.Entry.Summary))
		if e.Entry.Failed() {
			span.SetStatus(codes.Error, e.Entry.Error)
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}
	span.End()
}

func (t *Tracer) halt(_ context.Context, e *domain.HaltEvent) {
	t.mu.Lock()
	s, ok := t.sessions[e.SessionID]
	t.mu.Unlock()
	if !ok {
		return
	}
	s.span.AddEvent("halted", trace.WithAttributes(
		attribute.String("halt.reason", e.Reason),
		attribute.String("halt.stage", e.Stage.DisplayName()),
	))
}

func (t *Tracer) sessionFinish(_ context.Context, e *domain.SessionEvent) {
	t.mu.Lock()
	s, ok := t.sessions[e.SessionID]
	delete(t.sessions, e.SessionID)
	t.mu.Unlock()
	if !ok {
		return
	}

	s.span.SetAttributes(
		attribute.String("session.status", string(e.Status)),
		attribute.Float64Slice("session.confidence", e.Confidence[:]),
	)
	if e.Status == domain.StatusHalted {
		s.span.SetStatus(codes.Error, "halted")
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}
