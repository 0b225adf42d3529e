package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/abacus"
	httpadapter "github.com/aretw0/abacus/pkg/adapters/http"
	"github.com/aretw0/abacus/pkg/adapters/memory"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, opts ...httpadapter.Option) (*httpadapter.Server, http.Handler) {
	t.Helper()
	eng := abacus.New(abacus.WithErrorClearDelay(100 * time.Millisecond))
	srv := httpadapter.New(eng, session.NewManager(memory.NewStore()), opts...)
	t.Cleanup(srv.Close)

	h, err := srv.Handler()
	require.NoError(t, err)
	return srv, h
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func press(t *testing.T, h http.Handler, id string, keys ...string) *httptest.ResponseRecorder {
	t.Helper()
	var w *httptest.ResponseRecorder
	for _, k := range keys {
		body, _ := json.Marshal(map[string]string{"key": k})
		w = do(t, h, http.MethodPost, "/sessions/"+id+"/input", string(body))
	}
	return w
}

func TestServer_HealthAndInfo(t *testing.T) {
	_, h := newServer(t)

	w := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/info", "")
	require.Equal(t, http.StatusOK, w.Code)
	info := decode[map[string]string](t, w)
	assert.Equal(t, "abacus-http", info["app"])
	assert.Equal(t, strings.TrimSpace(abacus.Version), info["version"])
	assert.Equal(t, "1.0.0", info["api_version"])

	w = do(t, h, http.MethodGet, "/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")
}

func TestServer_InputFlow(t *testing.T) {
	_, h := newServer(t)

	w := press(t, h, "calc", "1", "2", "3", "+", "4", "5", "6", "Enter")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[httpadapter.SessionResponse](t, w)
	assert.Equal(t, "calc", resp.SessionID)
	assert.Equal(t, "579", resp.Display.Current)
	assert.Equal(t, "123 + 456 =", resp.Display.History)
	assert.Equal(t, domain.ModeResultDisplayed, resp.Display.Mode)

	w = do(t, h, http.MethodGet, "/sessions/calc", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "579", decode[httpadapter.SessionResponse](t, w).Display.Current)
}

func TestServer_ActionInput(t *testing.T) {
	_, h := newServer(t)

	for _, body := range []string{
		`{"action":"digit","value":"7"}`,
		`{"action":"operator","value":"×"}`,
		`{"action":"number","value":"6"}`,
	} {
		w := do(t, h, http.MethodPost, "/sessions/a/input", body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := do(t, h, http.MethodPost, "/sessions/a/input", `{"action":"equals"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "42", decode[httpadapter.SessionResponse](t, w).Display.Current)
}

func TestServer_InputValidation(t *testing.T) {
	_, h := newServer(t)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"unknown field", "/sessions/a/input", `{"keystroke":"1"}`},
		{"unknown action", "/sessions/a/input", `{"action":"sqrt"}`},
		{"empty body object", "/sessions/a/input", `{}`},
		{"unbound key", "/sessions/a/input", `{"key":"%"}`},
		{"bad digit", "/sessions/a/input", `{"action":"digit","value":"12"}`},
		{"bad session id", "/sessions/.hidden/input", `{"key":"1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.NotEmpty(t, decode[map[string]string](t, w)["error"])
		})
	}
}

func TestServer_DivideByZeroLatchesAndClears(t *testing.T) {
	_, h := newServer(t)

	press(t, h, "z", "9", "/", "0")
	w := press(t, h, "z", "=")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	resp := decode[httpadapter.SessionResponse](t, w)
	assert.Equal(t, domain.ErrorDisplay, resp.Display.Current)
	assert.Equal(t, abacus.DivideByZeroMessage, resp.Display.History)
	assert.Equal(t, domain.ErrDivideByZero.Error(), resp.Error)
	assert.Equal(t, "9", resp.Previous)
	assert.Equal(t, "divide", resp.Operator)

	// Still latched on an immediate read
	w = do(t, h, http.MethodGet, "/sessions/z", "")
	assert.Equal(t, domain.ErrorDisplay, decode[httpadapter.SessionResponse](t, w).Display.Current)

	require.Eventually(t, func() bool {
		w := do(t, h, http.MethodGet, "/sessions/z", "")
		d := decode[httpadapter.SessionResponse](t, w).Display
		return d.Current == "0" && d.Mode == domain.ModeIdle
	}, 2*time.Second, 20*time.Millisecond)
}

func TestServer_SessionsLifecycle(t *testing.T) {
	_, h := newServer(t)

	w := do(t, h, http.MethodGet, "/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sessions":[]}`, w.Body.String())

	press(t, h, "one", "1")
	press(t, h, "two", "2")

	w = do(t, h, http.MethodGet, "/sessions", "")
	assert.JSONEq(t, `{"sessions":["one","two"]}`, w.Body.String())

	w = do(t, h, http.MethodDelete, "/sessions/one", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, "/sessions/one", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Evaluate(t *testing.T) {
	_, h := newServer(t)

	w := do(t, h, http.MethodPost, "/evaluate", `{"expression":"5 + 3 + 2 ="}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "10", decode[domain.Display](t, w).Current)

	w = do(t, h, http.MethodPost, "/evaluate", `{"keys":["2","+","3","*","4","="]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "20", decode[domain.Display](t, w).Current)

	w = do(t, h, http.MethodPost, "/evaluate", `{"expression":"1/0="}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, domain.ErrorDisplay, decode[domain.Display](t, w).Current)

	w = do(t, h, http.MethodPost, "/evaluate", `{"expression":"2 ^ 3"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/evaluate", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_CORS(t *testing.T) {
	_, h := newServer(t, httpadapter.WithCORSOrigins([]string{"https://calc.example"}))

	req := httptest.NewRequest(http.MethodOptions, "/sessions/a/input", nil)
	req.Header.Set("Origin", "https://calc.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "https://calc.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_Metrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "abacus_inputs_total 1\n")
	})
	_, h := newServer(t, httpadapter.WithMetricsHandler(metrics))

	w := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "abacus_inputs_total")
}

func TestServer_SubscribeEvents(t *testing.T) {
	_, h := newServer(t)
	ts := httptest.NewServer(h)
	defer ts.Close()

	press(t, h, "live", "4")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events?session_id=live", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if line := scanner.Text(); strings.HasPrefix(line, "data: ") {
				events <- strings.TrimPrefix(line, "data: ")
			}
		}
		close(events)
	}()

	next := func() domain.StateDiff {
		t.Helper()
		select {
		case msg := <-events:
			var diff domain.StateDiff
			require.NoError(t, json.Unmarshal([]byte(msg), &diff), msg)
			return diff
		case <-ctx.Done():
			t.Fatal("timed out waiting for event")
		}
		return domain.StateDiff{}
	}

	require.Equal(t, "connected", <-events)

	initial := next()
	require.NotNil(t, initial.Current)
	assert.Equal(t, "4", *initial.Current)

	press(t, h, "live", "2")
	diff := next()
	require.NotNil(t, diff.Current)
	assert.Equal(t, "42", *diff.Current)
	assert.Nil(t, diff.History, "only changed fields are sent")
	assert.Equal(t, "live", diff.SessionID)
}

func TestServer_SubscribeEventsRequiresSession(t *testing.T) {
	_, h := newServer(t)

	w := do(t, h, http.MethodGet, "/events", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
