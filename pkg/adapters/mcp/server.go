package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/nexusmind"
	mermaid "github.com/aretw0/nexusmind/internal/presentation/graph"
	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Tool names exposed to agents.
const (
	ToolQuery      = "asr_got.query"
	ToolGetSession = "get_session"
)

// SessionsURI lists stored session ids.
const SessionsURI = "nexusmind://sessions"

// QueryResult is the structured output of the query tool.
type QueryResult struct {
	SessionID        string                  `json:"session_id" jsonschema_description:"Identifier of the finished session"`
	Status           domain.Status           `json:"status" jsonschema_description:"completed or halted"`
	Answer           string                  `json:"answer" jsonschema_description:"Final answer text"`
	ConfidenceVector domain.ConfidenceVector `json:"confidence_vector" jsonschema_description:"Empirical support, theoretical basis, methodological rigor, consensus alignment"`
	Trace            []domain.TraceEntry     `json:"trace" jsonschema_description:"One entry per stage attempted"`
	ExecutionTimeMS  int64                   `json:"execution_time_ms"`
}

// Engine defines the interface required by the MCP server.
type Engine interface {
	ProcessQuery(ctx context.Context, req nexusmind.Request) (*domain.Session, error)
	Session(ctx context.Context, id string) (*domain.Session, error)
	Sessions(ctx context.Context) ([]string, error)
}

// Server wraps the NexusMind Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine:    engine,
		logger:    logger,
		mcpServer: server.NewMCPServer("nexusmind-mcp", strings.TrimSpace(nexusmind.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	queryTool := mcp.NewTool(ToolQuery,
		mcp.WithDescription("Run a query through the eight-stage graph-of-thoughts pipeline and return the answer, confidence vector and trace."),
		mcp.WithString("query", mcp.Required(), mcp.Description("The question to analyze")),
		mcp.WithString("session_id", mcp.Description("Session id to use (optional, generated when omitted)")),
		mcp.WithString("parameters", mcp.Description("JSON object of operational parameters (optional)")),
		mcp.WithString("context", mcp.Description("JSON object of initial context (optional)")),
		mcp.WithOutputSchema[QueryResult](),
	)
	s.mcpServer.AddTool(queryTool, mcp.NewStructuredToolHandler(s.handleQuery))

	s.mcpServer.AddTool(mcp.NewTool(ToolGetSession,
		mcp.WithDescription("Get a finished session record as JSON, or its graph as a Mermaid flowchart."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("The session id")),
		mcp.WithString("format", mcp.Description("'json' (default) or 'mermaid'")),
	), s.handleGetSession)
}

func (s *Server) handleQuery(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (QueryResult, error) {
	req := nexusmind.Request{}
	req.Query, _ = args["query"].(string)
	req.SessionID, _ = args["session_id"].(string)

	var err error
	if req.OperationalParams, err = objectArg(args, "parameters"); err != nil {
		return QueryResult{}, err
	}
	if req.InitialContext, err = objectArg(args, "context"); err != nil {
		return QueryResult{}, err
	}

	sess, err := s.engine.ProcessQuery(ctx, req)
	if err != nil && sess == nil {
		return QueryResult{}, fmt.Errorf("query failed: %w", err)
	}
	if err != nil {
		s.logger.Error("MCP Query: session not persisted", "session_id", sess.ID, "err", err)
	}

	return QueryResult{
		SessionID:        sess.ID,
		Status:           sess.Status,
		Answer:           sess.FinalAnswer,
		ConfidenceVector: sess.FinalConfidence,
		Trace:            sess.Trace,
		ExecutionTimeMS:  sess.Duration().Milliseconds(),
	}, nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, _ := args["session_id"].(string)
	if id == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	sess, err := s.engine.Session(ctx, id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("session %q not found", id)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	format, _ := args["format"].(string)
	switch format {
	case "", "json":
		data, err := json.Marshal(sess)
		if err != nil {
			return nil, fmt.Errorf("encode session: %w", err)
		}
		return mcp.NewToolResultText(string(data)), nil
	case "mermaid":
		return mcp.NewToolResultText(mermaid.GenerateMermaid(sess.Graph, nil)), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown format %q", format)), nil
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(SessionsURI, "Stored Sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.engine.Sessions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		if ids == nil {
			ids = []string{}
		}
		jsonBytes, _ := json.Marshal(ids)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      SessionsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

// objectArg accepts either a JSON object or a string holding one.
func objectArg(args map[string]any, name string) (map[string]any, error) {
	switch v := args[name].(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		var out map[string]any
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, fmt.Errorf("%s must be a JSON object: %w", name, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be a JSON object, got %T", name, v)
	}
}
