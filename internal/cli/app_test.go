package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/abacus/internal/config"
	"github.com/aretw0/abacus/internal/logging"
	"github.com/aretw0/abacus/pkg/adapters/file"
	"github.com/aretw0/abacus/pkg/adapters/memory"
	redisadapter "github.com/aretw0/abacus/pkg/adapters/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, cfg config.Config, opts ...AppOption) *App {
	t.Helper()
	opts = append([]AppOption{WithAppLogger(logging.NewNop())}, opts...)
	app, err := NewApp(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestNewApp_StoreSelection(t *testing.T) {
	cfg := config.Default()
	app := newTestApp(t, cfg)
	assert.IsType(t, &memory.Store{}, app.Store)

	cfg.Store.Kind = config.StoreFile
	cfg.Store.Dir = t.TempDir()
	app = newTestApp(t, cfg)
	assert.IsType(t, &file.Store{}, app.Store)

	mr := miniredis.RunT(t)
	cfg.Store.Kind = config.StoreRedis
	cfg.Redis.Addr = mr.Addr()
	app = newTestApp(t, cfg)
	assert.IsType(t, &redisadapter.Store{}, app.Store)

	_, err := app.Sessions.LoadOrStart(context.Background(), "desk")
	require.NoError(t, err)
	assert.True(t, mr.Exists(cfg.Redis.Prefix+"state:desk"))
}

func TestNewApp_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := config.Default()
	cfg.Store.Kind = config.StoreRedis
	cfg.Redis.Addr = addr

	_, err := NewApp(context.Background(), cfg, WithAppLogger(logging.NewNop()))
	assert.Error(t, err)
}

func TestNewApp_FileStorePersists(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Kind = config.StoreFile
	cfg.Store.Dir = t.TempDir()
	app := newTestApp(t, cfg)

	ctx := context.Background()
	state, err := app.Sessions.LoadOrStart(ctx, "desk")
	require.NoError(t, err)
	state, err = app.Engine.Press(ctx, state, "7")
	require.NoError(t, err)
	require.NoError(t, app.Sessions.Save(ctx, "desk", state))

	assert.FileExists(t, filepath.Join(cfg.Store.Dir, "desk.json"))
}

func TestNewApp_EncryptedStore(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Kind = config.StoreFile
	cfg.Store.Dir = t.TempDir()
	cfg.Store.EncryptionKey = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	app := newTestApp(t, cfg)

	ctx := context.Background()
	state, err := app.Engine.Evaluate(ctx, []string{"1", "2", "+", "3", "0"})
	require.NoError(t, err)
	require.NoError(t, app.Sessions.Save(ctx, "vault", state))

	raw, err := os.ReadFile(filepath.Join(cfg.Store.Dir, "vault.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"sealed"`)
	assert.NotContains(t, string(raw), "12 +")

	loaded, err := app.Sessions.Load(ctx, "vault")
	require.NoError(t, err)
	assert.Equal(t, "30", loaded.Current())
	assert.Equal(t, "12 +", loaded.History)

	plain := cfg
	plain.Store.EncryptionKey = ""
	envelope, err := newTestApp(t, plain).Sessions.Load(ctx, "vault")
	require.NoError(t, err)
	assert.NotEmpty(t, envelope.Sealed, "without the key only the envelope is visible")
}

func TestHTTPServer_MetricsAndRateLimit(t *testing.T) {
	cfg := config.Default()
	cfg.HTTP.RateLimit = 1
	cfg.HTTP.Burst = 2
	app := newTestApp(t, cfg, WithMetrics())

	api := NewHTTPServer(app)
	t.Cleanup(api.Close)
	handler, err := api.Handler()
	require.NoError(t, err)

	ctx := context.Background()
	_, err = app.Engine.Evaluate(ctx, []string{"2", "+", "2", "="})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `abacus_folds_total{operator="add"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	codes := map[int]int{}
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		codes[rec.Code]++
	}
	assert.Positive(t, codes[http.StatusTooManyRequests])
}

func TestRunSession_LineMode(t *testing.T) {
	in := writeInput(t, "7 * 6 =\nquit\n")
	var out bytes.Buffer

	app := newTestApp(t, config.Default())
	err := RunSession(context.Background(), app, RunOptions{
		SessionID: "desk",
		Input:     in,
		Output:    &out,
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "7 × 6 =")
	assert.Contains(t, out.String(), "Session 'desk' saved at 42.")

	state, err := app.Store.Load(context.Background(), "desk")
	require.NoError(t, err)
	assert.Equal(t, "42", state.Current())
}

func TestRunSession_KeysFallBackWithoutTerminal(t *testing.T) {
	in := writeInput(t, "1+1=\n")

	app := newTestApp(t, config.Default())
	err := RunSession(context.Background(), app, RunOptions{
		Keys:   true,
		Quiet:  true,
		Input:  in,
		Output: io.Discard,
	})
	assert.NoError(t, err)
}

func TestHandleExecutionError(t *testing.T) {
	assert.NoError(t, handleExecutionError(context.Canceled))
	assert.NoError(t, handleExecutionError(io.EOF))
	assert.Error(t, handleExecutionError(assert.AnError))
}

func writeInput(t *testing.T, content string) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}
