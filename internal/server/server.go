// Package server assembles the HTTP surface: the Connect services, health
// and metrics endpoints, served over h2c.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/multas/internal/auth"
	"github.com/mmynk/multas/internal/groups"
	"github.com/mmynk/multas/internal/metrics"
	"github.com/mmynk/multas/internal/middleware"
	"github.com/mmynk/multas/internal/service"
	"github.com/mmynk/multas/internal/settlement"
	"github.com/mmynk/multas/internal/storage"
)

// Deps holds everything the router needs.
type Deps struct {
	Store         storage.Store
	Engine        *settlement.Engine
	Groups        *groups.Manager
	Authenticator auth.Authenticator
	JWT           *auth.JWTManager
	Metrics       *metrics.Recorder
	Gatherer      prometheus.Gatherer
	Logger        *slog.Logger
}

// NewRouter registers the Connect services next to /healthz and /metrics.
func NewRouter(d Deps) http.Handler {
	logging := connect.WithInterceptors(middleware.LoggingInterceptor(d.Metrics))
	authed := connect.WithInterceptors(middleware.RequireAuth(d.JWT))

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/healthz", healthz)
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Mount(service.NewAuthServiceHandler(
		service.NewAuthService(d.Authenticator, d.Store, d.JWT, d.Logger),
		middleware.RequireAuth(d.JWT),
		logging,
	))
	r.Mount(service.NewGroupServiceHandler(service.NewGroupService(d.Groups, d.Engine, d.Logger), logging, authed))
	r.Mount(service.NewEvidenceServiceHandler(service.NewEvidenceService(d.Groups, d.Logger), logging, authed))
	r.Mount(service.NewChallengeServiceHandler(service.NewChallengeService(d.Groups, d.Engine, d.Logger), logging, authed))
	r.Mount(service.NewLogServiceHandler(service.NewLogService(d.Groups, d.Logger), logging, authed))

	return r
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Serve listens on addr until ctx is cancelled, then drains in-flight
// requests for up to five seconds.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	srv := &http.Server{
		Addr:              addr,
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("Server stopped")
	return nil
}
