package ports

import (
	"context"
	"reflect"

	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/aretw0/nexusmind/pkg/graph"
)

// Stage is one step of the fixed reasoning pipeline.
//
// Execute may read and mutate g in place; it has exclusive access to it for the
// duration of the call. A stage must not assume earlier stages ran and reads
// their results through domain.ResultOf, which reports absence.
type Stage interface {
	Kind() domain.StageKind
	Execute(ctx context.Context, g *graph.Graph, s *domain.Session) (*StageOutput, error)
}

// StageOutput is what a stage hands back to the orchestrator.
type StageOutput struct {
	// Result is the typed context update. It must be of the stage's own kind.
	Result domain.StageResult

	// Raw is a loosely typed alternative to Result, either {stage_name: {...}}
	// or the bare inner map. It is decoded when Result is nil.
	Raw map[string]any

	Summary string
	Metrics map[string]any

	// ErrorMessage signals a notable problem that is not a raised fault.
	ErrorMessage string
}

// HasUpdate reports whether the output carries a context update.
// A typed nil Result counts as no update.
func (o *StageOutput) HasUpdate() bool {
	if o == nil {
		return false
	}
	if len(o.Raw) > 0 {
		return true
	}
	if o.Result == nil {
		return false
	}
	v := reflect.ValueOf(o.Result)
	return v.Kind() != reflect.Pointer || !v.IsNil()
}

// StageFactory builds the stage for a kind, or returns nil when it has none.
type StageFactory func(kind domain.StageKind) Stage
