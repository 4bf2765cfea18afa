package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/nexusmind/pkg/adapters/memory"
	"github.com/aretw0/nexusmind/pkg/ports"
	"github.com/aretw0/nexusmind/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.SessionStore = (*memory.Store)(nil)

func TestMemoryStore_Contract(t *testing.T) {
	tests.RunSessionStoreContract(t, memory.NewStore())
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	s := tests.SampleSession("isolated")
	require.NoError(t, store.Save(ctx, s))

	s.FinalAnswer = "mutated after save"
	require.NoError(t, s.Graph.RemoveNode("isolated-dim"))

	loaded, err := store.Load(ctx, "isolated")
	require.NoError(t, err)
	assert.NotEqual(t, "mutated after save", loaded.FinalAnswer)
	assert.Equal(t, 2, loaded.Graph.NodeCount())
}
