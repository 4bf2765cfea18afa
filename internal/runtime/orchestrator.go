package runtime

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/aretw0/nexusmind/pkg/ports"
	"github.com/google/uuid"
)

// Request is the input of a single pipeline run.
type Request struct {
	Query             string         `json:"query"`
	SessionID         string         `json:"session_id,omitempty"`
	OperationalParams map[string]any `json:"parameters,omitempty"`
	InitialContext    map[string]any `json:"context,omitempty"`
}

// Orchestrator drives the fixed eight-stage sequence for one query at a time.
// It holds no per-session state and may be shared by concurrent runs.
type Orchestrator struct {
	factory ports.StageFactory
	hooks   domain.LifecycleHooks
	newID   func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLifecycleHooks registers observers for session and stage events.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *Orchestrator) {
		o.hooks = hooks
	}
}

// WithIDGenerator overrides how session ids are generated when a request has none.
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		o.newID = fn
	}
}

// NewSessionID returns a fresh "session-<uuid>" identifier.
func NewSessionID() string {
	return "session-" + uuid.NewString()
}

// New creates an Orchestrator. The factory is called once per kind to check
// that it yields exactly the eight stages, in order, before any run.
func New(factory ports.StageFactory, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		factory: factory,
		newID:   NewSessionID,
	}
	for _, opt := range opts {
		opt(o)
	}
	if _, err := o.instantiate(); err != nil {
		return nil, err
	}
	return o, nil
}

// instantiate builds a fresh stage list for one run.
func (o *Orchestrator) instantiate() ([]ports.Stage, error) {
	if o.factory == nil {
		return nil, fmt.Errorf("no stage factory: %w", domain.ErrInvalidStageSequence)
	}
	kinds := domain.StageKinds()
	stages := make([]ports.Stage, 0, len(kinds))
	for _, kind := range kinds {
		st := o.factory(kind)
		if st == nil {
			return nil, fmt.Errorf("no stage for %s: %w", kind, domain.ErrInvalidStageSequence)
		}
		if st.Kind() != kind {
			return nil, fmt.Errorf("position %d expects %s, got %s: %w",
				kind.Number(), kind, st.Kind(), domain.ErrInvalidStageSequence)
		}
		stages = append(stages, st)
	}
	return stages, nil
}

// Run processes one query through the pipeline and returns the finished session.
//
// Stage faults never make Run fail: they are recorded in the trace. Run only
// returns an error for caller mistakes (an empty query) or a broken factory.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*domain.Session, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, domain.ErrEmptyQuery
	}
	stages, err := o.instantiate()
	if err != nil {
		return nil, err
	}

	id := req.SessionID
	if id == "" {
		id = o.newID()
	}
	s := domain.NewSession(id, req.Query)
	s.Context = domain.NewAccumulatedContext(maps.Clone(req.InitialContext), maps.Clone(req.OperationalParams))

	if err := s.Transition(domain.StatusRunning); err != nil {
		return nil, err
	}
	if o.hooks.OnSessionStart != nil {
		o.hooks.OnSessionStart(ctx, &domain.SessionEvent{SessionID: s.ID, Query: s.Query, Status: s.Status})
	}

	for _, st := range stages {
		out := o.runStage(ctx, st, s)

		if st.Kind() != domain.StageInitialization {
			continue
		}
		if decision := CheckHalt(st.Kind(), out, s.Context); decision.Halted {
			if err := o.halt(ctx, s, decision); err != nil {
				return nil, err
			}
			return s, nil
		}
	}

	extractFinal(s)
	if err := s.Transition(domain.StatusCompleted); err != nil {
		return nil, err
	}
	o.finish(ctx, s)
	return s, nil
}

// runStage executes one stage, merges its update and appends its trace entry.
// It returns the stage output, or nil when the stage faulted.
func (o *Orchestrator) runStage(ctx context.Context, st ports.Stage, s *domain.Session) *ports.StageOutput {
	kind := st.Kind()
	started := time.Now()
	if o.hooks.OnStageStart != nil {
		o.hooks.OnStageStart(ctx, &domain.StageEvent{SessionID: s.ID, Stage: kind, StartedAt: started})
	}

	entry := domain.TraceEntry{
		StageNumber: kind.Number(),
		StageName:   kind.DisplayName(),
	}

	out, err := execute(ctx, st, s)
	switch {
	case err != nil:
		entry.Error = (&domain.StageFault{Number: kind.Number(), Stage: kind, Err: err}).Error()
		out = nil
	case !out.HasUpdate():
		entry.Summary = summaryOf(out)
		entry.Note = fmt.Sprintf("%s returned no context update", kind.DisplayName())
	default:
		entry.Summary = summaryOf(out)
		if result, mergeErr := decodeUpdate(kind, out); mergeErr != nil {
			entry.Error = mergeErr.Error()
		} else {
			s.Context.Set(result)
		}
	}
	if out != nil {
		entry.Metrics = out.Metrics
		if out.ErrorMessage != "" && entry.Error == "" {
			entry.Error = out.ErrorMessage
		}
	}

	elapsed := time.Since(started)
	entry.DurationMS = elapsed.Milliseconds()
	s.Trace = append(s.Trace, entry)

	if o.hooks.OnStageFinish != nil {
		o.hooks.OnStageFinish(ctx, &domain.StageEvent{
			SessionID: s.ID,
			Stage:     kind,
			StartedAt: started,
			Duration:  elapsed,
			Entry:     s.LastTrace(),
		})
	}
	return out
}

// execute invokes the stage, converting a panic into a fault.
func execute(ctx context.Context, st ports.Stage, s *domain.Session) (out *ports.StageOutput, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	out, err = st.Execute(ctx, s.Graph, s)
	if err == nil && out == nil {
		out = &ports.StageOutput{}
	}
	return out, err
}

func summaryOf(out *ports.StageOutput) string {
	if out == nil {
		return ""
	}
	return out.Summary
}

// halt applies the initialization guard's decision to the session.
// The guard marks the Initialization trace entry instead of appending a new
// one, so a halted session has exactly one trace entry.
func (o *Orchestrator) halt(ctx context.Context, s *domain.Session, d HaltDecision) error {
	s.FinalAnswer = d.Message
	s.FinalConfidence = domain.ConfidenceVector{}

	if entry := s.LastTrace(); entry != nil {
		if entry.Error != "" && entry.Error != d.Reason {
			entry.Note = strings.TrimSpace(strings.Join([]string{entry.Note, entry.Error}, " "))
		}
		entry.Error = HaltTraceError
		entry.Reason = d.Reason
	}

	if err := s.Transition(domain.StatusHalted); err != nil {
		return err
	}
	if o.hooks.OnHalt != nil {
		o.hooks.OnHalt(ctx, &domain.HaltEvent{
			SessionID: s.ID,
			Stage:     domain.StageInitialization,
			Message:   d.Message,
			Reason:    d.Reason,
		})
	}
	o.finish(ctx, s)
	return nil
}

func (o *Orchestrator) finish(ctx context.Context, s *domain.Session) {
	if o.hooks.OnSessionFinish == nil {
		return
	}
	o.hooks.OnSessionFinish(ctx, &domain.SessionEvent{
		SessionID:  s.ID,
		Query:      s.Query,
		Status:     s.Status,
		Duration:   s.Duration(),
		Confidence: s.FinalConfidence,
	})
}
