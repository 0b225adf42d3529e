package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/abacus/internal/ratelimit"
	httpadapter "github.com/aretw0/abacus/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// NewHTTPServer builds the HTTP adapter from the app config.
func NewHTTPServer(app *App) *httpadapter.Server {
	opts := []httpadapter.Option{
		httpadapter.WithLogger(app.Logger),
		httpadapter.WithCORSOrigins(app.Config.HTTP.CORSOrigins),
	}
	if limiter := ratelimit.New(app.Config.HTTP.RateLimit, app.Config.HTTP.Burst, ratelimit.DefaultIdleTTL); limiter != nil {
		opts = append(opts, httpadapter.WithRateLimiter(limiter))
	}
	if app.Registry != nil {
		opts = append(opts, httpadapter.WithMetricsHandler(promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{})))
	}
	return httpadapter.New(app.Engine, app.Sessions, opts...)
}

// Serve runs the HTTP API on port until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, app *App, port int) error {
	api := NewHTTPServer(app)
	defer api.Close()

	handler, err := api.Handler()
	if err != nil {
		return fmt.Errorf("failed to build handler: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		app.Logger.Info("HTTP server listening", "address", srv.Addr, "store", app.Config.Store.Kind)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err

	case <-ctx.Done():
		app.Logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			return srv.Close()
		}
		return nil
	}
}
