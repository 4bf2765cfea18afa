package domain

import (
	"fmt"
	"time"

	"github.com/aretw0/nexusmind/pkg/graph"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusCreated   Status = "created"
	StatusRunning   Status = "running"   // A stage is executing or about to
	StatusHalted    Status = "halted"    // Initialization guard stopped the pipeline
	StatusCompleted Status = "completed" // All stages attempted, final outputs extracted
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusHalted || s == StatusCompleted
}

// CanTransition reports whether moving from s to next is allowed.
// RUNNING -> RUNNING is the move from one stage to the next.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusCreated:
		return next == StatusRunning
	case StatusRunning:
		return next == StatusRunning || next == StatusHalted || next == StatusCompleted
	}
	return false
}

// ConfidenceVector is the final four-dimensional confidence of a session:
// empirical support, theoretical basis, methodological rigor, consensus alignment.
type ConfidenceVector [4]float64

// TraceEntry records one stage attempt.
type TraceEntry struct {
	StageNumber int            `json:"stage_number"`
	StageName   string         `json:"stage_name"`
	DurationMS  int64          `json:"duration_ms"`
	Summary     string         `json:"summary,omitempty"`
	Error       string         `json:"error,omitempty"`
	Reason      string         `json:"reason,omitempty"`
	Note        string         `json:"note,omitempty"`
	Metrics     map[string]any `json:"metrics,omitempty"`
}

// Failed reports whether the entry carries an error.
func (e TraceEntry) Failed() bool {
	return e.Error != ""
}

// Session is the per-query record. It exclusively owns its Graph.
type Session struct {
	ID              string              `json:"session_id"`
	Query           string              `json:"query"`
	Graph           *graph.Graph        `json:"graph"`
	Context         *AccumulatedContext `json:"accumulated_context"`
	Trace           []TraceEntry        `json:"trace"`
	FinalAnswer     string              `json:"final_answer"`
	FinalConfidence ConfidenceVector    `json:"final_confidence_vector"`
	Status          Status              `json:"status"`
	StartedAt       time.Time           `json:"started_at"`
	FinishedAt      time.Time           `json:"finished_at,omitzero"`
}

// NewSession creates a session in the CREATED state with an empty graph and context.
func NewSession(id, query string) *Session {
	g := graph.New()
	g.Metadata()[graph.MetaQuery] = query
	g.Metadata()[graph.MetaSessionID] = id
	return &Session{
		ID:      id,
		Query:   query,
		Graph:   g,
		Context: NewAccumulatedContext(nil, nil),
		Trace:   []TraceEntry{},
		Status:  StatusCreated,
	}
}

// Transition moves the session to next, stamping start and finish times.
func (s *Session) Transition(next Status) error {
	if !s.Status.CanTransition(next) {
		return fmt.Errorf("%s -> %s: %w", s.Status, next, ErrInvalidTransition)
	}
	now := time.Now().UTC()
	if s.Status == StatusCreated {
		s.StartedAt = now
	}
	if next.Terminal() {
		s.FinishedAt = now
	}
	s.Status = next
	return nil
}

// Duration returns how long the session ran, or has been running.
func (s *Session) Duration() time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Halted reports whether the initialization guard stopped the pipeline.
func (s *Session) Halted() bool {
	return s.Status == StatusHalted
}

// LastTrace returns a pointer to the most recent trace entry, or nil.
func (s *Session) LastTrace() *TraceEntry {
	if len(s.Trace) == 0 {
		return nil
	}
	return &s.Trace[len(s.Trace)-1]
}
