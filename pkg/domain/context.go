package domain

import (
	"encoding/json"
	"fmt"
)

// AccumulatedContext is the growing set of stage outputs available to later stages,
// seeded with the caller's initial context and operational parameters.
// Stage results are keyed by kind, so each kind appears at most once.
type AccumulatedContext struct {
	InitialContext    map[string]any
	OperationalParams map[string]any

	results map[StageKind]StageResult
}

// NewAccumulatedContext seeds a context. A nil params map becomes an empty one.
func NewAccumulatedContext(initial, params map[string]any) *AccumulatedContext {
	if params == nil {
		params = make(map[string]any)
	}
	return &AccumulatedContext{
		InitialContext:    initial,
		OperationalParams: params,
		results:           make(map[StageKind]StageResult),
	}
}

// Set records r under its own kind, replacing any earlier record of that kind.
func (c *AccumulatedContext) Set(r StageResult) {
	if c.results == nil {
		c.results = make(map[StageKind]StageResult)
	}
	c.results[r.Kind()] = r
}

// Get returns the record published by the given stage kind.
func (c *AccumulatedContext) Get(kind StageKind) (StageResult, bool) {
	r, ok := c.results[kind]
	return r, ok
}

// Has reports whether the stage kind has published a record.
func (c *AccumulatedContext) Has(kind StageKind) bool {
	_, ok := c.results[kind]
	return ok
}

// Kinds returns the kinds that have published a record, in pipeline order.
func (c *AccumulatedContext) Kinds() []StageKind {
	var out []StageKind
	for _, k := range StageKinds() {
		if _, ok := c.results[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// ResultOf returns the typed record for T's stage kind, reporting absence.
//
//	init, ok := domain.ResultOf[*domain.InitializationResult](s.Context)
func ResultOf[T StageResult](c *AccumulatedContext) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	r, ok := c.results[zero.Kind()]
	if !ok {
		return zero, false
	}
	typed, ok := r.(T)
	return typed, ok
}

type wireContext struct {
	InitialContext    map[string]any                 `json:"initial_context,omitempty"`
	OperationalParams map[string]any                 `json:"operational_params"`
	Stages            map[StageKind]json.RawMessage `json:"stages,omitempty"`
}

// MarshalJSON encodes stage records under their stage names.
func (c *AccumulatedContext) MarshalJSON() ([]byte, error) {
	w := wireContext{
		InitialContext:    c.InitialContext,
		OperationalParams: c.OperationalParams,
		Stages:            make(map[StageKind]json.RawMessage, len(c.results)),
	}
	for kind, r := range c.results {
		raw, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("marshal %s result: %w", kind, err)
		}
		w.Stages[kind] = raw
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes each stage entry into the record type of its kind.
func (c *AccumulatedContext) UnmarshalJSON(data []byte) error {
	var w wireContext
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	decoded := NewAccumulatedContext(w.InitialContext, w.OperationalParams)
	for kind, raw := range w.Stages {
		r, err := NewResult(kind)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, r); err != nil {
			return fmt.Errorf("unmarshal %s result: %w", kind, err)
		}
		decoded.Set(r)
	}

	*c = *decoded
	return nil
}
