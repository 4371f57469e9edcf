package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

var operationalRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tollfree_migration",
		Name:      "operational_requests_total",
		Help:      "Requests served by the operational endpoint, by endpoint and status code.",
	},
	[]string{"endpoint", "code"},
)

// countRequests wraps h so every response is counted under endpoint.
func countRequests(endpoint string, h http.Handler) http.Handler {
	return promhttp.InstrumentHandlerCounter(
		operationalRequestsTotal.MustCurryWith(prometheus.Labels{"endpoint": endpoint}), h)
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// NewRouter builds the operational router: /metrics and /healthz.
func NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", countRequests("metrics", promhttp.Handler()))
	r.Method(http.MethodGet, "/healthz", countRequests("healthz", http.HandlerFunc(healthz)))
	return r
}

// MetricsServer serves the operational endpoint while a run is in progress.
type MetricsServer struct {
	server *http.Server
	logger *slog.Logger
}

// NewMetricsServer creates a server listening on addr.
func NewMetricsServer(addr string, logger *slog.Logger) *MetricsServer {
	return &MetricsServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.With("component", "metrics_server"),
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *MetricsServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Metrics server listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server failed: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	s.logger.Info("Metrics server stopped")
	return nil
}
