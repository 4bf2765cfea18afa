package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/nexusmind"
	"github.com/aretw0/nexusmind/internal/logging"
	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/aretw0/nexusmind/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, opts ...nexusmind.Option) *nexusmind.Engine {
	t.Helper()
	eng, err := nexusmind.New(opts...)
	require.NoError(t, err)
	return eng
}

func newHandler(t *testing.T, eng Engine, opts ...Option) http.Handler {
	t.Helper()
	return NewHandler(eng, append([]Option{WithLogger(logging.NewNop())}, opts...)...)
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestGetHealth(t *testing.T) {
	rr := do(t, newHandler(t, nil), "GET", "/health", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestGetInfo(t *testing.T) {
	rr := do(t, newHandler(t, nil), "GET", "/info", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), nexusmind.Version)
}

func TestPostQuery(t *testing.T) {
	h := newHandler(t, newEngine(t))

	rr := do(t, h, "POST", "/query", map[string]any{"query": "Why is the sky blue?", "session_id": "s-1"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp QueryResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "s-1", resp.SessionID)
	assert.Equal(t, domain.StatusCompleted, resp.Status)
	assert.Len(t, resp.Trace, 8)
	assert.NotEmpty(t, resp.Answer)
	require.NotNil(t, resp.Graph)
	assert.Positive(t, resp.Graph.NodeCount())
}

func TestPostQuery_BadRequests(t *testing.T) {
	h := newHandler(t, newEngine(t))

	tests := []struct {
		name string
		body string
	}{
		{"Malformed JSON", "{"},
		{"Empty Query", `{"query": ""}`},
		{"Invalid Parameters", `{"query": "q", "parameters": {"hypotheses_per_dimension": 0}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/query", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestSessions_Lifecycle(t *testing.T) {
	h := newHandler(t, newEngine(t))
	require.Equal(t, http.StatusOK, do(t, h, "POST", "/query", map[string]any{"query": "q", "session_id": "s-1"}).Code)

	rr := do(t, h, "GET", "/sessions", nil)
	assert.JSONEq(t, `{"sessions": ["s-1"]}`, rr.Body.String())

	rr = do(t, h, "GET", "/sessions/s-1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp QueryResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "s-1", resp.SessionID)

	rr = do(t, h, "DELETE", "/sessions/s-1", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, h, "GET", "/sessions/s-1", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "session not found")
}

func TestListSessions_Empty(t *testing.T) {
	rr := do(t, newHandler(t, newEngine(t)), "GET", "/sessions", nil)
	assert.JSONEq(t, `{"sessions": []}`, rr.Body.String())
}

func TestGetGraph(t *testing.T) {
	h := newHandler(t, newEngine(t))
	require.Equal(t, http.StatusOK, do(t, h, "POST", "/query", map[string]any{"query": "q", "session_id": "s-1"}).Code)

	rr := do(t, h, "GET", "/sessions/s-1/graph", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var g map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &g))
	assert.Contains(t, g, "nodes")

	rr = do(t, h, "GET", "/sessions/s-1/graph?format=mermaid", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Body.String(), "graph TD\n"))
	assert.Contains(t, rr.Body.String(), "class ")

	rr = do(t, h, "GET", "/sessions/s-1/graph?format=dot", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, "GET", "/sessions/missing/graph", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	eng := newEngine(t, nexusmind.WithLifecycleHooks(metrics.Hooks()))
	h := newHandler(t, eng, WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	require.Equal(t, http.StatusOK, do(t, h, "POST", "/query", map[string]any{"query": "q"}).Code)

	rr := do(t, h, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `nexusmind_sessions_total{status="completed"} 1`)
}

func TestSubscribeEvents_Session(t *testing.T) {
	streams := NewStreamManager(logging.NewNop())
	eng := newEngine(t, nexusmind.WithLifecycleHooks(streams.Hooks()))
	srv := httptest.NewServer(newHandler(t, eng, WithStreams(streams)))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/sessions/s-1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "event: ping\n", line)

	body := strings.NewReader(`{"query": "q", "session_id": "s-1"}`)
	post, err := http.Post(srv.URL+"/query", "application/json", body)
	require.NoError(t, err)
	post.Body.Close()
	require.Equal(t, http.StatusOK, post.StatusCode)

	// The stream ends after the session_finish event.
	var events []string
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		if name, ok := strings.CutPrefix(scanner.Text(), "event: "); ok {
			events = append(events, name)
		}
	}

	require.NotEmpty(t, events)
	assert.Equal(t, EventSessionStart, events[0])
	assert.Equal(t, EventSessionFinish, events[len(events)-1])
	var stages int
	for _, e := range events {
		if e == EventStageFinish {
			stages++
		}
	}
	assert.Equal(t, 8, stages)
}

func TestStreamManager_UnsubscribeIsIdempotent(t *testing.T) {
	sm := NewStreamManager(logging.NewNop())
	ch, cancel := sm.Subscribe("s")
	assert.Equal(t, 1, sm.Subscribers("s"))

	cancel()
	cancel()
	assert.Equal(t, 0, sm.Subscribers("s"))
	_, open := <-ch
	assert.False(t, open)

	// Broadcasting without subscribers is a no-op.
	sm.Broadcast("s", Message{Event: "x", Data: "{}"})
}
