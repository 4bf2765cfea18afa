package runtime_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/aretw0/nexusmind/internal/runtime"
	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/aretw0/nexusmind/pkg/graph"
	"github.com/aretw0/nexusmind/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedStage runs fn, or returns a minimal valid output for its kind.
type scriptedStage struct {
	kind domain.StageKind
	fn   func(ctx context.Context, g *graph.Graph, s *domain.Session) (*ports.StageOutput, error)
}

func (s *scriptedStage) Kind() domain.StageKind { return s.kind }

func (s *scriptedStage) Execute(ctx context.Context, g *graph.Graph, sess *domain.Session) (*ports.StageOutput, error) {
	if s.fn != nil {
		return s.fn(ctx, g, sess)
	}
	return defaultOutput(s.kind, g, sess)
}

func defaultOutput(kind domain.StageKind, g *graph.Graph, s *domain.Session) (*ports.StageOutput, error) {
	switch kind {
	case domain.StageInitialization:
		root := graph.NewNode(s.ID+"-root", s.Query, graph.NodeTypeRoot)
		if err := g.AddNode(root); err != nil {
			return nil, err
		}
		return &ports.StageOutput{Result: &domain.InitializationResult{RootNodeID: root.ID}, Summary: "root created"}, nil
	case domain.StageComposition:
		return &ports.StageOutput{Result: &domain.CompositionResult{
			FinalComposedOutput: domain.ComposedOutput{Title: "T", ExecutiveSummary: "X"},
		}}, nil
	case domain.StageReflection:
		return &ports.StageOutput{Result: &domain.ReflectionResult{
			FinalConfidenceVector: []float64{0.9, 0.8, 0.7, 0.6},
		}}, nil
	}
	r, _ := domain.NewResult(kind)
	return &ports.StageOutput{Result: r, Summary: kind.String() + " done"}, nil
}

// pipeline builds a factory with overrides for some kinds.
func pipeline(overrides map[domain.StageKind]func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error)) ports.StageFactory {
	return func(kind domain.StageKind) ports.Stage {
		return &scriptedStage{kind: kind, fn: overrides[kind]}
	}
}

func newOrchestrator(t *testing.T, factory ports.StageFactory, opts ...runtime.Option) *runtime.Orchestrator {
	t.Helper()
	o, err := runtime.New(factory, opts...)
	require.NoError(t, err)
	return o
}

func TestRun_CompletesAllStages(t *testing.T) {
	o := newOrchestrator(t, pipeline(nil))

	s, err := o.Run(context.Background(), runtime.Request{Query: "why is the sky blue?"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, s.Status)
	require.Len(t, s.Trace, 8)
	for i, entry := range s.Trace {
		assert.Equal(t, i+1, entry.StageNumber)
		assert.Equal(t, domain.StageKinds()[i].DisplayName(), entry.StageName)
		assert.Empty(t, entry.Error)
	}
	assert.True(t, strings.HasPrefix(s.FinalAnswer, "X"))
	assert.Equal(t, "X"+runtime.ReportSuffix, s.FinalAnswer)
	assert.Equal(t, domain.ConfidenceVector{0.9, 0.8, 0.7, 0.6}, s.FinalConfidence)
	assert.True(t, strings.HasPrefix(s.ID, "session-"))
	assert.Equal(t, s.ID, s.Graph.Metadata()[graph.MetaSessionID])
	assert.Equal(t, "why is the sky blue?", s.Graph.Metadata()[graph.MetaQuery])
	assert.NotNil(t, s.Context.OperationalParams)
	assert.False(t, s.FinishedAt.IsZero())
}

func TestRun_EmptyQuery(t *testing.T) {
	o := newOrchestrator(t, pipeline(nil))
	_, err := o.Run(context.Background(), runtime.Request{Query: "   "})
	assert.ErrorIs(t, err, domain.ErrEmptyQuery)
}

func TestRun_SeedsContext(t *testing.T) {
	params := map[string]any{"initial_confidence": 0.7}
	var seen *domain.AccumulatedContext
	o := newOrchestrator(t, pipeline(map[domain.StageKind]func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error){
		domain.StageDecomposition: func(_ context.Context, g *graph.Graph, s *domain.Session) (*ports.StageOutput, error) {
			seen = s.Context
			return defaultOutput(domain.StageDecomposition, g, s)
		},
	}))

	s, err := o.Run(context.Background(), runtime.Request{
		Query:             "q",
		SessionID:         "fixed",
		OperationalParams: params,
		InitialContext:    map[string]any{"domain": "optics"},
	})
	require.NoError(t, err)
	assert.Equal(t, "fixed", s.ID)
	require.NotNil(t, seen)
	assert.Equal(t, 0.7, seen.OperationalParams["initial_confidence"])
	assert.Equal(t, "optics", seen.InitialContext["domain"])
	assert.True(t, seen.Has(domain.StageInitialization), "later stages see earlier results")

	// The caller's map is not shared with the session.
	s.Context.OperationalParams["extra"] = true
	assert.NotContains(t, params, "extra")
}

func TestRun_HaltsOnMissingRoot(t *testing.T) {
	var ran []domain.StageKind
	var mu sync.Mutex
	record := func(kind domain.StageKind) func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error) {
		return func(_ context.Context, g *graph.Graph, s *domain.Session) (*ports.StageOutput, error) {
			mu.Lock()
			ran = append(ran, kind)
			mu.Unlock()
			return defaultOutput(kind, g, s)
		}
	}
	overrides := map[domain.StageKind]func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error){
		domain.StageInitialization: func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error) {
			return &ports.StageOutput{Result: &domain.InitializationResult{}, Summary: "no root"}, nil
		},
	}
	for _, k := range domain.StageKinds()[1:] {
		overrides[k] = record(k)
	}

	var halts []*domain.HaltEvent
	o := newOrchestrator(t, pipeline(overrides), runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnHalt: func(_ context.Context, e *domain.HaltEvent) { halts = append(halts, e) },
	}))

	s, err := o.Run(context.Background(), runtime.Request{Query: "q"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusHalted, s.Status)
	assert.Equal(t, domain.ConfidenceVector{0, 0, 0, 0}, s.FinalConfidence)
	require.Len(t, s.Trace, 1)
	assert.Equal(t, runtime.HaltTraceError, s.Trace[0].Error)
	assert.Equal(t, "InitializationStage did not provide root_node_id.", s.Trace[0].Reason)
	assert.Equal(t, "Processing halted: Graph initialization failed (missing root_node_id).", s.FinalAnswer)
	assert.Empty(t, ran, "no stage runs after a halt")
	require.Len(t, halts, 1)
}

func TestRun_HaltPriority(t *testing.T) {
	tests := []struct {
		name       string
		init       func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error)
		wantAnswer string
		wantReason string
	}{
		{
			name: "explicit error message wins",
			init: func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error) {
				return &ports.StageOutput{
					ErrorMessage: "model unavailable",
					Result:       &domain.InitializationResult{RootNodeID: "r", Error: "ignored"},
				}, nil
			},
			wantAnswer: "Processing halted: Initialization failed with error: model unavailable",
			wantReason: "model unavailable",
		},
		{
			name: "error key in context",
			init: func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error) {
				return &ports.StageOutput{Raw: map[string]any{
					"initialization": map[string]any{"error": "bad query", "root_node_id": "r"},
				}}, nil
			},
			wantAnswer: "Processing halted: Initialization failed with error from context: bad query",
			wantReason: "bad query",
		},
		{
			name: "structured error in context",
			init: func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error) {
				return &ports.StageOutput{Raw: map[string]any{
					"initialization": map[string]any{"error": map[string]any{"code": 7, "msg": "db down"}},
				}}, nil
			},
			wantAnswer: `Processing halted: Initialization failed with error from context: {"code":7,"msg":"db down"}`,
			wantReason: `{"code":7,"msg":"db down"}`,
		},
		{
			name: "empty error in context",
			init: func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error) {
				return &ports.StageOutput{Raw: map[string]any{
					"initialization": map[string]any{"error": map[string]any{}},
				}}, nil
			},
			wantAnswer: "Processing halted: Graph initialization failed (missing root_node_id).",
			wantReason: "InitializationStage did not provide root_node_id.",
		},
		{
			name: "raised fault",
			init: func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error) {
				return nil, errors.New("boom")
			},
			wantAnswer: "Processing halted: Graph initialization failed (missing root_node_id).",
			wantReason: "InitializationStage did not provide root_node_id.",
		},
		{
			name: "panic",
			init: func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error) {
				panic("nil map")
			},
			wantAnswer: "Processing halted: Graph initialization failed (missing root_node_id).",
			wantReason: "InitializationStage did not provide root_node_id.",
		},
		{
			name: "no update",
			init: func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error) {
				return nil, nil
			},
			wantAnswer: "Processing halted: Graph initialization failed (missing root_node_id).",
			wantReason: "InitializationStage did not provide root_node_id.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newOrchestrator(t, pipeline(map[domain.StageKind]func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error){
				domain.StageInitialization: tt.init,
			}))
			s, err := o.Run(context.Background(), runtime.Request{Query: "q"})
			require.NoError(t, err)
			assert.Equal(t, domain.StatusHalted, s.Status)
			assert.Equal(t, tt.wantAnswer, s.FinalAnswer)
			require.Len(t, s.Trace, 1)
			assert.Equal(t, tt.wantReason, s.Trace[0].Reason)
			assert.Equal(t, domain.ConfidenceVector{}, s.FinalConfidence)
		})
	}
}

func TestRun_StageFaultDoesNotStopPipeline(t *testing.T) {
	var after []domain.StageKind
	overrides := map[domain.StageKind]func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error){
		domain.StageHypothesis: func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error) {
			return nil, errors.New("hypothesis generator offline")
		},
	}
	for _, k := range domain.StageKinds()[3:] {
		overrides[k] = func(ctx context.Context, g *graph.Graph, s *domain.Session) (*ports.StageOutput, error) {
			after = append(after, k)
			return defaultOutput(k, g, s)
		}
	}
	o := newOrchestrator(t, pipeline(overrides))

	s, err := o.Run(context.Background(), runtime.Request{Query: "q"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, s.Status)
	assert.Equal(t, domain.StageKinds()[3:], after)
	require.Len(t, s.Trace, 8)
	for _, entry := range s.Trace {
		if entry.StageNumber == domain.StageHypothesis.Number() {
			assert.Contains(t, entry.Error, "hypothesis generator offline")
			continue
		}
		assert.Empty(t, entry.Error, "stage %s", entry.StageName)
	}
	assert.False(t, s.Context.Has(domain.StageHypothesis))
}

func TestRun_PanicIsRecoveredAsFault(t *testing.T) {
	o := newOrchestrator(t, pipeline(map[domain.StageKind]func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error){
		domain.StageEvidence: func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error) {
			var m map[string]int
			m["x"]++
			return nil, nil
		},
	}))
	s, err := o.Run(context.Background(), runtime.Request{Query: "q"})
	require.NoError(t, err)
	require.Len(t, s.Trace, 8)
	assert.Contains(t, s.Trace[3].Error, "panic")
}

func TestRun_FinalAnswerFallbacks(t *testing.T) {
	tests := []struct {
		name        string
		composition func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error)
		want        string
	}{
		{
			name: "no composition output",
			composition: func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error) {
				return &ports.StageOutput{Summary: "nothing to say"}, nil
			},
			want: runtime.AnswerNoComposition,
		},
		{
			name: "composition without summary",
			composition: func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error) {
				return &ports.StageOutput{Result: &domain.CompositionResult{
					FinalComposedOutput: map[string]any{"title": "only a title"},
				}}, nil
			},
			want: runtime.AnswerCompositionFail,
		},
		{
			name: "unparsable composition",
			composition: func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error) {
				return &ports.StageOutput{Raw: map[string]any{"final_composed_output": "plain text"}}, nil
			},
			want: runtime.AnswerCompositionFail,
		},
		{
			name: "raw map form",
			composition: func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error) {
				return &ports.StageOutput{Raw: map[string]any{
					"composition": map[string]any{
						"final_composed_output": map[string]any{"executive_summary": "Y", "key_findings": []any{"a"}},
					},
				}}, nil
			},
			want: "Y" + runtime.ReportSuffix,
		},
		{
			name: "empty composed output",
			composition: func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error) {
				return &ports.StageOutput{Raw: map[string]any{
					"composition": map[string]any{"final_composed_output": map[string]any{}},
				}}, nil
			},
			want: runtime.AnswerNoComposition,
		},
		{
			name: "composition fault",
			composition: func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error) {
				return nil, errors.New("llm timeout")
			},
			want: runtime.AnswerNoComposition,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newOrchestrator(t, pipeline(map[domain.StageKind]func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error){
				domain.StageComposition: tt.composition,
			}))
			s, err := o.Run(context.Background(), runtime.Request{Query: "q"})
			require.NoError(t, err)
			assert.Equal(t, domain.StatusCompleted, s.Status, "composition problems never halt")
			assert.Equal(t, tt.want, s.FinalAnswer)
		})
	}
}

func TestRun_DefaultConfidenceWithoutReflection(t *testing.T) {
	o := newOrchestrator(t, pipeline(map[domain.StageKind]func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error){
		domain.StageReflection: func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error) {
			return &ports.StageOutput{Result: &domain.ReflectionResult{}}, nil
		},
	}))
	s, err := o.Run(context.Background(), runtime.Request{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, domain.ConfidenceVector{0.1, 0.1, 0.1, 0.1}, s.FinalConfidence)
}

func TestRun_MergeBoundary(t *testing.T) {
	tests := []struct {
		name      string
		out       *ports.StageOutput
		wantError string
		wantNote  bool
		merged    bool
	}{
		{
			name:   "typed result",
			out:    &ports.StageOutput{Result: &domain.EvidenceResult{IterationsCompleted: 2}},
			merged: true,
		},
		{
			name:   "bare raw map",
			out:    &ports.StageOutput{Raw: map[string]any{"iterations_completed": 3.0}},
			merged: true,
		},
		{
			name:      "wrong kind",
			out:       &ports.StageOutput{Result: &domain.HypothesisResult{}},
			wantError: "does not match",
		},
		{
			name:      "raw keyed by another stage",
			out:       &ports.StageOutput{Raw: map[string]any{"reflection": map[string]any{}}},
			wantError: "does not match",
		},
		{
			name:      "fails validation",
			out:       &ports.StageOutput{Result: &domain.EvidenceResult{IterationsCompleted: -1}},
			wantError: "iterations_completed",
		},
		{
			name:     "missing update",
			out:      &ports.StageOutput{Summary: "nothing"},
			wantNote: true,
		},
		{
			name:     "typed nil result",
			out:      &ports.StageOutput{Result: (*domain.EvidenceResult)(nil)},
			wantNote: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newOrchestrator(t, pipeline(map[domain.StageKind]func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error){
				domain.StageEvidence: func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error) {
					return tt.out, nil
				},
			}))
			s, err := o.Run(context.Background(), runtime.Request{Query: "q"})
			require.NoError(t, err)
			require.Len(t, s.Trace, 8)

			entry := s.Trace[domain.StageEvidence.Number()-1]
			if tt.wantError != "" {
				assert.Contains(t, entry.Error, tt.wantError)
			} else {
				assert.Empty(t, entry.Error)
			}
			if tt.wantNote {
				assert.NotEmpty(t, entry.Note)
			}
			assert.Equal(t, tt.merged, s.Context.Has(domain.StageEvidence))
			assert.Equal(t, domain.StatusCompleted, s.Status)
		})
	}
}

func TestRun_InvalidReflectionVectorIsRejected(t *testing.T) {
	o := newOrchestrator(t, pipeline(map[domain.StageKind]func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error){
		domain.StageReflection: func(context.Context, *graph.Graph, *domain.Session) (*ports.StageOutput, error) {
			return &ports.StageOutput{Result: &domain.ReflectionResult{FinalConfidenceVector: []float64{2, 0, 0, 0}}}, nil
		},
	}))
	s, err := o.Run(context.Background(), runtime.Request{Query: "q"})
	require.NoError(t, err)
	assert.NotEmpty(t, s.Trace[7].Error)
	assert.Equal(t, runtime.DefaultConfidence, s.FinalConfidence)
}

func TestRun_IndependentSessions(t *testing.T) {
	o := newOrchestrator(t, pipeline(nil))
	ctx := context.Background()

	var wg sync.WaitGroup
	sessions := make([]*domain.Session, 2)
	for i := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := o.Run(ctx, runtime.Request{Query: "same query"})
			assert.NoError(t, err)
			sessions[i] = s
		}()
	}
	wg.Wait()

	require.NotNil(t, sessions[0])
	require.NotNil(t, sessions[1])
	assert.NotEqual(t, sessions[0].ID, sessions[1].ID)
	assert.NotSame(t, sessions[0].Graph, sessions[1].Graph)
	for n := range sessions[0].Graph.Nodes() {
		assert.False(t, sessions[1].Graph.HasNode(n.ID), "node %s shared across sessions", n.ID)
	}
}

func TestRun_HooksOrder(t *testing.T) {
	var events []string
	hooks := domain.LifecycleHooks{
		OnSessionStart:  func(context.Context, *domain.SessionEvent) { events = append(events, "session:start") },
		OnStageStart:    func(_ context.Context, e *domain.StageEvent) { events = append(events, "start:"+e.Stage.String()) },
		OnStageFinish:   func(_ context.Context, e *domain.StageEvent) { events = append(events, "finish:"+e.Stage.String()) },
		OnSessionFinish: func(_ context.Context, e *domain.SessionEvent) { events = append(events, "session:"+string(e.Status)) },
	}
	o := newOrchestrator(t, pipeline(nil), runtime.WithLifecycleHooks(hooks), runtime.WithIDGenerator(func() string { return "fixed-id" }))

	s, err := o.Run(context.Background(), runtime.Request{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", s.ID)

	require.Len(t, events, 2+2*8)
	assert.Equal(t, "session:start", events[0])
	assert.Equal(t, "start:initialization", events[1])
	assert.Equal(t, "finish:initialization", events[2])
	assert.Equal(t, "session:completed", events[len(events)-1])
}

func TestNew_ValidatesSequence(t *testing.T) {
	_, err := runtime.New(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidStageSequence)

	_, err = runtime.New(func(kind domain.StageKind) ports.Stage {
		if kind == domain.StageEvidence {
			return nil
		}
		return &scriptedStage{kind: kind}
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStageSequence)

	_, err = runtime.New(func(kind domain.StageKind) ports.Stage {
		if kind == domain.StageComposition {
			return &scriptedStage{kind: domain.StageReflection}
		}
		return &scriptedStage{kind: kind}
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStageSequence)
}
