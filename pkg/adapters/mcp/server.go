package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/internal/presentation/graph"
	"github.com/aretw0/abacus/internal/presentation/tui"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/keymap"
	"github.com/aretw0/abacus/pkg/ports"
	"github.com/aretw0/abacus/pkg/runner"
	"github.com/aretw0/abacus/pkg/session"
	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Resource URIs.
const (
	StateMachineURI         = "abacus://state-machine"
	KeymapURI               = "abacus://keymap"
	SessionStateMachinePath = "abacus://sessions/{session_id}/state-machine"
)

// DisplayResult aligns with the HTTP Session schema and is returned by every tool.
type DisplayResult struct {
	SessionID string `json:"session_id,omitempty" jsonschema_description:"Session the display belongs to"`
	Current   string `json:"current" jsonschema_description:"Main display line"`
	History   string `json:"history" jsonschema_description:"Pending or last operation"`
	Mode      string `json:"mode" jsonschema_description:"idle, operator_pending, entering_second_operand or result_displayed"`
	Error     string `json:"error,omitempty" jsonschema_description:"Latched error message; clears after a short delay or on the next key"`
}

// PressArgs are the arguments of the press tool.
type PressArgs struct {
	SessionID  string   `json:"session_id"`
	Keys       []string `json:"keys,omitempty"`
	Expression string   `json:"expression,omitempty"`
}

// SessionArgs are the arguments of the display and clear tools.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// EvaluateArgs are the arguments of the evaluate tool.
type EvaluateArgs struct {
	Keys       []string `json:"keys,omitempty"`
	Expression string   `json:"expression,omitempty"`
}

// Server exposes the accumulator as an MCP server.
type Server struct {
	engine    ports.Calculator
	sessions  *session.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine ports.Calculator, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		sessions:  sessions,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		mcpServer: server.NewMCPServer("abacus-mcp", strings.TrimSpace(abacus.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, mainly for in-process clients.
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

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Requested-With"},
	})

	mux := http.NewServeMux()
	mux.Handle("/sse", corsHandler(sseServer.SSEHandler()))
	mux.Handle("/message", corsHandler(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

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

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	pressTool := mcp.NewTool("press",
		mcp.WithDescription("Press calculator keys in a session, in order. Keys are 0-9, '.', '+', '-', '*', '/', "+
			"'=' or 'Enter', 'Backspace', 'Escape' (clear), 'Delete' (clear entry) and 'F9' (toggle sign). "+
			"The session is created on first use."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithArray("keys", mcp.Description("Key names, e.g. [\"1\", \"2\", \"+\", \"3\", \"Enter\"]"), mcp.WithStringItems()),
		mcp.WithString("expression", mcp.Description("Alternative to keys: a typed line such as \"12 + 3 =\"")),
		mcp.WithOutputSchema[DisplayResult](),
	)
	s.mcpServer.AddTool(pressTool, mcp.NewStructuredToolHandler(s.handlePress))

	displayTool := mcp.NewTool("display",
		mcp.WithDescription("Read the display of an existing session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithOutputSchema[DisplayResult](),
	)
	s.mcpServer.AddTool(displayTool, mcp.NewStructuredToolHandler(s.handleDisplay))

	clearTool := mcp.NewTool("clear",
		mcp.WithDescription("Reset a session to 0, dropping any pending operation or error."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithOutputSchema[DisplayResult](),
	)
	s.mcpServer.AddTool(clearTool, mcp.NewStructuredToolHandler(s.handleClear))

	evaluateTool := mcp.NewTool("evaluate",
		mcp.WithDescription("Run a key sequence on a fresh calculator without touching any session. "+
			"Operations fold left to right: 2 + 3 * 4 = gives 20."),
		mcp.WithArray("keys", mcp.Description("Key names"), mcp.WithStringItems()),
		mcp.WithString("expression", mcp.Description("Alternative to keys: a typed line such as \"123 + 456 =\"")),
		mcp.WithOutputSchema[DisplayResult](),
	)
	s.mcpServer.AddTool(evaluateTool, mcp.NewStructuredToolHandler(s.handleEvaluate))
}

func (s *Server) handlePress(ctx context.Context, request mcp.CallToolRequest, args PressArgs) (DisplayResult, error) {
	keys, err := resolveKeys(args.Keys, args.Expression)
	if err != nil {
		return DisplayResult{}, err
	}

	state, err := s.sessions.Update(ctx, args.SessionID, func(ctx context.Context, st *domain.State) (*domain.State, error) {
		st = s.engine.Settle(st)
		for _, key := range keys {
			next, err := s.engine.Press(ctx, st, key)
			if err != nil {
				return next, fmt.Errorf("key %q: %w", key, err)
			}
			st = next
		}
		return st, nil
	})

	switch {
	case err == nil:
		return newDisplayResult(args.SessionID, state), nil
	case errors.Is(err, domain.ErrDivideByZero):
		s.logger.Debug("MCP press: division by zero", "session_id", args.SessionID)
		return newDisplayResult(args.SessionID, state), nil
	}
	s.logger.Warn("MCP press failed", "session_id", args.SessionID, "err", err)
	return DisplayResult{}, err
}

func (s *Server) handleDisplay(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (DisplayResult, error) {
	state, err := s.sessions.UpdateExisting(ctx, args.SessionID, func(_ context.Context, st *domain.State) (*domain.State, error) {
		return s.engine.Settle(st), nil
	})
	if err != nil {
		return DisplayResult{}, err
	}
	return newDisplayResult(args.SessionID, state), nil
}

func (s *Server) handleClear(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (DisplayResult, error) {
	state, err := s.sessions.Update(ctx, args.SessionID, func(ctx context.Context, st *domain.State) (*domain.State, error) {
		return s.engine.Dispatch(ctx, st, domain.Command(domain.ActionClear))
	})
	if err != nil {
		return DisplayResult{}, err
	}
	return newDisplayResult(args.SessionID, state), nil
}

func (s *Server) handleEvaluate(ctx context.Context, request mcp.CallToolRequest, args EvaluateArgs) (DisplayResult, error) {
	keys, err := resolveKeys(args.Keys, args.Expression)
	if err != nil {
		return DisplayResult{}, err
	}

	state, err := s.engine.Evaluate(ctx, keys)
	if err != nil && !errors.Is(err, domain.ErrDivideByZero) {
		return DisplayResult{}, err
	}
	return newDisplayResult("", state), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(StateMachineURI, "Accumulator state machine",
		mcp.WithResourceDescription("Mermaid diagram of the accumulator modes and the keys that move between them"),
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      StateMachineURI,
				MIMEType: "text/plain",
				Text:     graph.GenerateMermaid(nil),
			},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource(KeymapURI, "Key bindings",
		mcp.WithMIMEType("text/markdown"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      KeymapURI,
				MIMEType: "text/markdown",
				Text:     tui.HelpMarkdown(),
			},
		}, nil
	})

	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(SessionStateMachinePath, "Session state machine",
		mcp.WithTemplateDescription("State machine diagram with the session's current mode highlighted"),
		mcp.WithTemplateMIMEType("text/plain"),
	), s.readSessionStateMachine)
}

func (s *Server) readSessionStateMachine(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	id := strings.TrimSuffix(strings.TrimPrefix(uri, "abacus://sessions/"), "/state-machine")
	if id == uri || id == "" {
		return nil, fmt.Errorf("unexpected resource %q", uri)
	}

	state, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     graph.GenerateMermaid(graph.OverlayFor(s.engine.Settle(state))),
		},
	}, nil
}

func resolveKeys(keys []string, expression string) ([]string, error) {
	if len(keys) > 0 {
		return keys, nil
	}
	clean, err := runner.SanitizeInput(expression)
	if err != nil {
		return nil, fmt.Errorf("input rejected: %w", err)
	}
	keys = keymap.Tokenize(clean)
	if len(keys) == 0 {
		return nil, errors.New("either keys or expression is required")
	}
	return keys, nil
}

func newDisplayResult(sessionID string, state *domain.State) DisplayResult {
	d := state.Display()
	return DisplayResult{
		SessionID: sessionID,
		Current:   d.Current,
		History:   d.History,
		Mode:      string(d.Mode),
		Error:     d.Error,
	}
}
