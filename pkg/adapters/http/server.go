package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/nexusmind"
	mermaid "github.com/aretw0/nexusmind/internal/presentation/graph"
	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/aretw0/nexusmind/pkg/graph"
	"github.com/go-chi/chi/v5"
)

// Engine defines the subset of the NexusMind facade served over HTTP.
type Engine interface {
	ProcessQuery(ctx context.Context, req nexusmind.Request) (*domain.Session, error)
	Session(ctx context.Context, id string) (*domain.Session, error)
	Sessions(ctx context.Context) ([]string, error)
	DeleteSession(ctx context.Context, id string) error
}

// Server serves the query and session endpoints.
type Server struct {
	Engine  Engine
	Streams *StreamManager
	Logger  *slog.Logger
	metrics http.Handler
}

// Option configures the handler.
type Option func(*Server)

// WithStreams shares a StreamManager whose Hooks are registered on the engine,
// enabling GET /sessions/{id}/events.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithMetricsHandler mounts h (usually promhttp.Handler) at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	server := &Server{
		Engine: engine,
		Logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(server)
	}
	if server.Streams == nil {
		server.Streams = NewStreamManager(server.Logger)
	}

	r := chi.NewRouter()
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Post("/query", server.PostQuery)
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", server.ListSessions)
		r.Get("/{id}", server.GetSession)
		r.Delete("/{id}", server.DeleteSession)
		r.Get("/{id}/graph", server.GetGraph)
		r.Get("/{id}/events", server.SubscribeEvents)
	})
	if server.metrics != nil {
		r.Handle("/metrics", server.metrics)
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// QueryResponse is the body returned by POST /query and GET /sessions/{id}.
type QueryResponse struct {
	SessionID        string                 `json:"session_id"`
	Status           domain.Status          `json:"status"`
	Answer           string                 `json:"answer"`
	ConfidenceVector domain.ConfidenceVector `json:"confidence_vector"`
	Trace            []domain.TraceEntry    `json:"trace"`
	Graph            *graph.Graph           `json:"graph"`
	ExecutionTimeMS  int64                  `json:"execution_time_ms"`
}

func newQueryResponse(s *domain.Session) QueryResponse {
	return QueryResponse{
		SessionID:        s.ID,
		Status:           s.Status,
		Answer:           s.FinalAnswer,
		ConfidenceVector: s.FinalConfidence,
		Trace:            s.Trace,
		Graph:            s.Graph,
		ExecutionTimeMS:  s.Duration().Milliseconds(),
	}
}

// PostQuery handles the POST /query request.
func (s *Server) PostQuery(w http.ResponseWriter, r *http.Request) {
	var body nexusmind.Request
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("PostQuery: invalid request body", "err", err)
		return
	}

	sess, err := s.Engine.ProcessQuery(r.Context(), body)
	if err != nil && sess == nil {
		s.writeError(w, "PostQuery", err)
		return
	}
	if err != nil {
		// The run finished but could not be stored.
		s.Logger.Error("PostQuery: session not persisted", "session_id", sess.ID, "err", err)
	}
	s.writeJSON(w, http.StatusOK, newQueryResponse(sess))
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Sessions(r.Context())
	if err != nil {
		s.writeError(w, "ListSessions", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Engine.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, "GetSession", err)
		return
	}
	s.writeJSON(w, http.StatusOK, newQueryResponse(sess))
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, "DeleteSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetGraph handles the GET /sessions/{id}/graph request.
// format=mermaid renders a flowchart with the extracted subgraphs highlighted.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Engine.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, "GetGraph", err)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		s.writeJSON(w, http.StatusOK, sess.Graph)
	case "mermaid":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(mermaid.GenerateMermaid(sess.Graph, mermaid.SessionOverlay(sess))))
	default:
		http.Error(w, fmt.Sprintf("Unknown graph format %q", format), http.StatusBadRequest)
	}
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "nexusmind-http",
		"version": strings.TrimSpace(nexusmind.Version),
	})
}

// SubscribeEvents handles the GET /sessions/{id}/events request (SSE).
// Clients subscribe before posting a query with the same session_id.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sessionID := chi.URLParam(r, "id")
	s.Logger.Info("SSE: subscribing to session", "session_id", sessionID)

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE: client disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, msg.Data)
			flusher.Flush()
			if msg.Event == EventSessionFinish {
				return
			}
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error(op+" failed", "err", err)
	} else {
		s.Logger.Warn(op+" rejected", "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyQuery), errors.Is(err, nexusmind.ErrInvalidParameters):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
