package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/internal/logging"
	"github.com/aretw0/abacus/internal/ratelimit"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/keymap"
	"github.com/aretw0/abacus/pkg/ports"
	"github.com/aretw0/abacus/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// InputRequest is the body of POST /sessions/{sessionId}/input.
type InputRequest struct {
	Key    string `json:"key,omitempty"`
	Action string `json:"action,omitempty"`
	Value  string `json:"value,omitempty"`
}

// Input resolves the request to an engine input. Key wins over Action.
func (r InputRequest) Input() (domain.Input, error) {
	switch {
	case r.Key != "":
		return keymap.Lookup(r.Key)
	case r.Action != "":
		return domain.ParseAction(r.Action, r.Value)
	}
	return domain.Input{}, errors.New("either key or action is required")
}

// EvaluateRequest is the body of POST /evaluate.
type EvaluateRequest struct {
	Keys       []string `json:"keys,omitempty"`
	Expression string   `json:"expression,omitempty"`
}

// SessionResponse describes one session after a request.
type SessionResponse struct {
	SessionID string         `json:"session_id"`
	Display   domain.Display `json:"display"`
	Operator  string         `json:"operator,omitempty"`
	Previous  string         `json:"previous,omitempty"`
	Error     string         `json:"error,omitempty"`
}

func newSessionResponse(id string, s *domain.State) SessionResponse {
	resp := SessionResponse{
		SessionID: id,
		Display:   s.Display(),
		Operator:  string(s.Operator),
	}
	if s.Previous != nil {
		resp.Previous = domain.NumberString(*s.Previous)
	}
	return resp
}

// Server serves the calculator over HTTP. Sessions are persisted through a session.Manager.
type Server struct {
	Engine   ports.Calculator
	Sessions *session.Manager
	Streams  *StreamManager

	logger      *slog.Logger
	limiter     *ratelimit.Limiter
	corsOrigins []string
	metrics     http.Handler

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// Ensure Server implements ServerInterface
var _ ServerInterface = (*Server)(nil)

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request and stream logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRateLimiter throttles requests per client address.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(s *Server) {
		s.limiter = l
	}
}

// WithCORSOrigins restricts cross-origin callers. Empty allows any origin.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// New creates the server.
func New(engine ports.Calculator, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		Engine:   engine,
		Sessions: sessions,
		logger:   logging.NewNop(),
		timers:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	return s
}

// Handler builds the router: CORS, rate limiting and OpenAPI validation in front of the API.
func (s *Server) Handler() (http.Handler, error) {
	doc, err := GetSwagger()
	if err != nil {
		return nil, err
	}
	validate, err := RequestValidator(doc)
	if err != nil {
		return nil, err
	}

	origins := s.corsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(s.limiter.Middleware(nil))
	r.Use(s.requestLogger)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Group(func(api chi.Router) {
		api.Use(validate)
		HandlerFromMux(s, api, func(w http.ResponseWriter, r *http.Request, err error) {
			writeError(w, http.StatusBadRequest, err.Error())
		})
	})
	return r, nil
}

// Close stops pending error-clear timers. In-flight requests are not affected.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Abacus API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := GetSwagger(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "abacus-http",
		"version":     strings.TrimSpace(abacus.Version),
		"api_version": apiVersion,
	})
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.logger.Error("ListSessions failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// GetSession handles the GET /sessions/{sessionId} request. A latched error whose delay
// has elapsed is cleared (and persisted) before the display is returned.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request, sessionId string) {
	var before *domain.State
	state, err := s.Sessions.UpdateExisting(r.Context(), sessionId, func(ctx context.Context, st *domain.State) (*domain.State, error) {
		before = st
		return s.Engine.Settle(st), nil
	})
	if err != nil {
		s.writeSessionError(w, sessionId, err)
		return
	}

	s.broadcast(sessionId, before, state)
	writeJSON(w, http.StatusOK, newSessionResponse(sessionId, state))
}

// DeleteSession handles the DELETE /sessions/{sessionId} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request, sessionId string) {
	s.cancelClear(sessionId)
	if err := s.Sessions.Delete(r.Context(), sessionId); err != nil {
		s.writeSessionError(w, sessionId, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PostInput handles the POST /sessions/{sessionId}/input request.
func (s *Server) PostInput(w http.ResponseWriter, r *http.Request, sessionId string) {
	var body InputRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		s.logger.Warn("PostInput: Invalid request body", "err", err)
		return
	}
	in, err := body.Input()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var before *domain.State
	state, err := s.Sessions.Update(r.Context(), sessionId, func(ctx context.Context, st *domain.State) (*domain.State, error) {
		before = st
		return s.Engine.Dispatch(ctx, s.Engine.Settle(st), in)
	})

	switch {
	case err == nil:
		s.broadcast(sessionId, before, state)
		writeJSON(w, http.StatusOK, newSessionResponse(sessionId, state))
	case errors.Is(err, domain.ErrDivideByZero):
		s.broadcast(sessionId, before, state)
		s.scheduleClear(sessionId)
		resp := newSessionResponse(sessionId, state)
		resp.Error = err.Error()
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	default:
		s.writeSessionError(w, sessionId, err)
	}
}

// Evaluate handles the POST /evaluate request.
func (s *Server) Evaluate(w http.ResponseWriter, r *http.Request) {
	var body EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	keys := body.Keys
	if len(keys) == 0 {
		keys = keymap.Tokenize(body.Expression)
	}
	if len(keys) == 0 {
		writeError(w, http.StatusBadRequest, "either keys or expression is required")
		return
	}

	state, err := s.Engine.Evaluate(r.Context(), keys)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, state.Display())
	case errors.Is(err, domain.ErrDivideByZero):
		writeJSON(w, http.StatusUnprocessableEntity, state.Display())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

// SubscribeEvents handles the GET /events request (SSE). The first data event carries the
// full display when the session exists; later events carry diffs.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request, params SubscribeEventsParams) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	sessionID := params.SessionId
	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: Subscribing to Session Updates", "session_id", sessionID)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	if state, err := s.Sessions.Load(r.Context(), sessionID); err == nil {
		if data, err := json.Marshal(domain.Diff(nil, state)); err == nil {
			fmt.Fprintf(w, "data: %s\n\n", data)
		}
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) broadcast(sessionID string, before, after *domain.State) {
	diff := domain.Diff(before, after)
	if diff == nil {
		return
	}
	diff.SessionID = sessionID
	data, err := json.Marshal(diff)
	if err != nil {
		s.logger.Error("failed to encode diff", "session_id", sessionID, "err", err)
		return
	}
	s.Streams.Broadcast(sessionID, string(data))
}

// scheduleClear settles the session once the error delay elapses, so subscribers see the
// error display go away without polling.
func (s *Server) scheduleClear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if t, ok := s.timers[sessionID]; ok {
		t.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(s.Engine.ErrorClearDelay(), func() {
		s.mu.Lock()
		if s.timers[sessionID] == t {
			delete(s.timers, sessionID)
		}
		s.mu.Unlock()
		s.settle(sessionID)
	})
	s.timers[sessionID] = t
}

func (s *Server) cancelClear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[sessionID]; ok {
		t.Stop()
		delete(s.timers, sessionID)
	}
}

func (s *Server) settle(sessionID string) {
	var before *domain.State
	state, err := s.Sessions.UpdateExisting(context.Background(), sessionID, func(ctx context.Context, st *domain.State) (*domain.State, error) {
		before = st
		return s.Engine.Settle(st), nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			s.logger.Warn("failed to clear error display", "session_id", sessionID, "err", err)
		}
		return
	}
	s.broadcast(sessionID, before, state)
}

func (s *Server) writeSessionError(w http.ResponseWriter, sessionID string, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidSessionID),
		errors.Is(err, domain.ErrInvalidDigit),
		errors.Is(err, domain.ErrUnknownOperator),
		errors.Is(err, domain.ErrUnknownAction),
		errors.Is(err, domain.ErrUnknownKey):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("session request failed", "session_id", sessionID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
