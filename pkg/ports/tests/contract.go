package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/aretw0/nexusmind/pkg/graph"
	"github.com/aretw0/nexusmind/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SampleSession builds a finished session with a small graph, a populated
// context and a two-entry trace.
func SampleSession(id string) *domain.Session {
	s := domain.NewSession(id, "how do tides work?")
	root := graph.NewNode(id+"-root", "how do tides work?", graph.NodeTypeRoot)
	dim := graph.NewNode(id+"-dim", "Scope", graph.NodeTypeDimension)
	_ = s.Graph.AddNode(root)
	_ = s.Graph.AddNode(dim)
	_ = s.Graph.AddEdge(graph.NewEdge(id+"-e", root.ID, dim.ID, graph.EdgeTypeDecompositionOf, 0.9))

	s.Context.OperationalParams["initial_confidence"] = 0.8
	s.Context.Set(&domain.InitializationResult{RootNodeID: root.ID})
	s.Context.Set(&domain.DecompositionResult{DimensionNodeIDs: []string{dim.ID}})
	s.Trace = append(s.Trace,
		domain.TraceEntry{StageNumber: 1, StageName: "InitializationStage", DurationMS: 1, Summary: "root created"},
		domain.TraceEntry{StageNumber: 2, StageName: "DecompositionStage", DurationMS: 2, Summary: "1 dimension"},
	)
	s.FinalAnswer = "Tides follow the moon.\n\n(Full report details generated)"
	s.FinalConfidence = domain.ConfidenceVector{0.7, 0.6, 0.5, 0.4}
	s.Status = domain.StatusCompleted
	s.StartedAt = time.Now().UTC().Add(-time.Second)
	s.FinishedAt = time.Now().UTC()
	return s
}

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store ports.SessionStore) {
	t.Helper()
	ctx := context.Background()
	sessionID := fmt.Sprintf("contract-test-session-%d", time.Now().UnixNano())

	t.Run("Save and Load", func(t *testing.T) {
		s := SampleSession(sessionID)
		require.NoError(t, store.Save(ctx, s), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, s.ID, loaded.ID)
		assert.Equal(t, s.Query, loaded.Query)
		assert.Equal(t, s.FinalAnswer, loaded.FinalAnswer)
		assert.Equal(t, s.FinalConfidence, loaded.FinalConfidence)
		assert.Equal(t, s.Status, loaded.Status)
		assert.Len(t, loaded.Trace, 2)

		require.NotNil(t, loaded.Graph)
		assert.Equal(t, 2, loaded.Graph.NodeCount())
		assert.Equal(t, 1, loaded.Graph.EdgeCount())

		init, ok := domain.ResultOf[*domain.InitializationResult](loaded.Context)
		require.True(t, ok)
		assert.Equal(t, sessionID+"-root", init.RootNodeID)
		// JSON persistence turns numbers into float64.
		assert.NotNil(t, loaded.Context.OperationalParams["initial_confidence"])
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		s := SampleSession(sessionID)
		s.FinalAnswer = "revised"
		require.NoError(t, store.Save(ctx, s))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "revised", loaded.FinalAnswer)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, SampleSession(sessionID)))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Deleting twice should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, SampleSession(id1)))
		require.NoError(t, store.Save(ctx, SampleSession(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
