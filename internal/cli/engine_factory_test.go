package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/nexusmind"
	"github.com/aretw0/nexusmind/internal/config"
	"github.com/aretw0/nexusmind/internal/logging"
	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResources(t *testing.T, cfg *config.Config) *Resources {
	t.Helper()
	res, err := CreateEngine(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { res.Close() })
	return res
}

func TestCreateEngine_MemoryWithMetrics(t *testing.T) {
	res := newResources(t, config.Default())
	require.NotNil(t, res.Metrics)

	_, err := res.Engine.ProcessQuery(context.Background(), nexusmind.Request{Query: "q"})
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(res.Metrics, "nexusmind_sessions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCreateEngine_StdoutTracing(t *testing.T) {
	cfg := config.Default()
	cfg.Telemetry.Tracing = true
	cfg.Telemetry.TraceExporter = config.TraceStdout
	res, err := CreateEngine(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)

	_, err = res.Engine.ProcessQuery(context.Background(), nexusmind.Request{Query: "q"})
	require.NoError(t, err)
	assert.NoError(t, res.Close())
}

func TestCreateEngine_FileStore(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Kind = config.StoreFile
	cfg.Store.Path = t.TempDir()
	cfg.Telemetry = config.TelemetryConfig{}
	res := newResources(t, cfg)
	assert.Nil(t, res.Metrics)

	_, err := res.Engine.ProcessQuery(context.Background(), nexusmind.Request{Query: "q", SessionID: "s-1"})
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(cfg.Store.Path, "s-1.json"))
	assert.NoError(t, err)
}

func TestCreateEngine_RedisWithEncryption(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Store.Kind = config.StoreRedis
	cfg.Store.Redis.Addr = mr.Addr()
	cfg.Encryption.Key = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	cfg.PII.Patterns = []string{"(?i)email"}
	cfg.Telemetry.Tracing = true
	res := newResources(t, cfg)

	ctx := context.Background()
	_, err := res.Engine.ProcessQuery(ctx, nexusmind.Request{
		Query:          "q",
		SessionID:      "s-1",
		InitialContext: map[string]any{"email": "someone@example.com"},
	})
	require.NoError(t, err)

	raw, err := mr.Get("nexusmind:session:s-1")
	require.NoError(t, err)
	assert.NotContains(t, raw, "someone@example.com")
	assert.Contains(t, raw, "__encrypted__")

	loaded, err := res.Engine.Session(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "***", loaded.Context.InitialContext["email"])
	assert.Equal(t, domain.StatusCompleted, loaded.Status)
}

func TestCreateEngine_RedisUnavailable(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Kind = config.StoreRedis
	cfg.Store.Redis.Addr = "127.0.0.1:1"

	_, err := CreateEngine(context.Background(), cfg, logging.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to redis")
}

func TestCreateEngine_InvalidPipelineParams(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.Params = map[string]any{"hypotheses_per_dimension": 0}

	_, err := CreateEngine(context.Background(), cfg, logging.NewNop())
	assert.ErrorIs(t, err, nexusmind.ErrInvalidParameters)
}

func TestRunQuery_Outputs(t *testing.T) {
	eng := newResources(t, config.Default()).Engine
	ctx := context.Background()

	t.Run("Plain With Trace", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, RunQuery(ctx, eng, QueryOptions{Query: "q", Trace: true}, &out))
		assert.Contains(t, out.String(), "confidence: empirical=")
		assert.Contains(t, out.String(), "8. ReflectionStage")
	})

	t.Run("JSON", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, RunQuery(ctx, eng, QueryOptions{Query: "q", SessionID: "json-1", JSON: true}, &out))
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
		assert.Equal(t, "json-1", decoded["session_id"])
	})

	t.Run("Mermaid", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, RunQuery(ctx, eng, QueryOptions{Query: "q", Mermaid: true}, &out))
		assert.True(t, strings.HasPrefix(out.String(), "graph TD"))
	})

	t.Run("Params File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "params.yaml")
		require.NoError(t, os.WriteFile(path, []byte("hypotheses_per_dimension: 1\n"), 0644))

		var out bytes.Buffer
		require.NoError(t, RunQuery(ctx, eng, QueryOptions{Query: "q", SessionID: "p-1", ParamsPath: path}, &out))
		s, err := eng.Session(ctx, "p-1")
		require.NoError(t, err)
		assert.Equal(t, 7, s.Graph.Statistics().NodesByType["hypothesis"])
	})

	t.Run("Bad Context", func(t *testing.T) {
		err := RunQuery(ctx, eng, QueryOptions{Query: "q", Context: "{"}, &bytes.Buffer{})
		assert.ErrorContains(t, err, "--context")
	})

	t.Run("Empty Query", func(t *testing.T) {
		err := RunQuery(ctx, eng, QueryOptions{Query: " "}, &bytes.Buffer{})
		assert.ErrorIs(t, err, domain.ErrEmptyQuery)
	})
}

func TestRunInteractive(t *testing.T) {
	eng := newResources(t, config.Default()).Engine

	var out bytes.Buffer
	err := RunInteractive(context.Background(), eng, QueryOptions{}, strings.NewReader("one\ntwo\nexit\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out.String(), "confidence:"))
}

func TestSessionCommands(t *testing.T) {
	eng := newResources(t, config.Default()).Engine
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, ListSessions(ctx, eng, &out))
	assert.Contains(t, out.String(), "No sessions found.")

	_, err := eng.ProcessQuery(ctx, nexusmind.Request{Query: "What is entropy?", SessionID: "s-1"})
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, ListSessions(ctx, eng, &out))
	assert.Contains(t, out.String(), "s-1")
	assert.Contains(t, out.String(), "What is entropy?")

	out.Reset()
	require.NoError(t, ShowSession(ctx, eng, "s-1", false, false, &out))
	assert.Contains(t, out.String(), "Session: s-1 (completed)")
	assert.Contains(t, out.String(), "1. InitializationStage")

	out.Reset()
	require.NoError(t, ExportGraph(ctx, eng, "s-1", "json", &out))
	assert.Contains(t, out.String(), `"nodes"`)
	assert.Error(t, ExportGraph(ctx, eng, "s-1", "dot", &out))

	out.Reset()
	require.NoError(t, DeleteSession(ctx, eng, "s-1", &out))
	assert.ErrorIs(t, ShowSession(ctx, eng, "s-1", true, false, &out), domain.ErrSessionNotFound)
}

func TestLoadParams(t *testing.T) {
	params, err := LoadParams("")
	require.NoError(t, err)
	assert.Nil(t, params)

	_, err = LoadParams(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
