package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/specialistvlad/refgraph/internal/ctxlog"
	"github.com/specialistvlad/refgraph/internal/metrics"
)

// generationState is what the health endpoint reports about watch mode.
type generationState struct {
	current atomic.Pointer[string]
}

func (s *generationState) set(generation string) { s.current.Store(&generation) }

func (s *generationState) get() string {
	if p := s.current.Load(); p != nil {
		return *p
	}
	return ""
}

// healthHandler answers 200 once a generation has been built and 503 before.
func (a *App) healthHandler(state *generationState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
		gen := state.get()
		if gen == "" {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintln(w, "STARTING")
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK %s\n", gen)
	}
}

func (a *App) healthMux(state *generationState, m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler(state))
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))
	return mux
}

// startHealthCheckServer runs the health and metrics endpoints of watch mode.
func (a *App) startHealthCheckServer(ctx context.Context, port int, state *generationState, m *metrics.Metrics) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Configuring health check server.")

	addr := fmt.Sprintf(":%d", port)
	a.httpServer = &http.Server{
		Addr:              addr,
		Handler:           a.healthMux(state, m),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Health check server starting.", "address", fmt.Sprintf("http://localhost%s/health", addr))
		// ListenAndServe returns ErrServerClosed on graceful shutdown.
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Health check server failed unexpectedly.", "error", err)
		}
	}()
}

func (a *App) closeHealthCheckServer(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	if a.httpServer == nil {
		logger.Debug("Health check server was not running.")
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	logger.Info("Shutting down health check server.")
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Health check server shutdown failed.", "error", err)
		return err
	}
	a.httpServer = nil
	logger.Debug("Health check server shut down gracefully.")
	return nil
}
