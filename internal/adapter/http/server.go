package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/collision-query-service/internal/observability"
	"github.com/couchcryptid/collision-query-service/internal/query"
)

// Querier answers dashboard queries. *query.Engine satisfies it.
type Querier interface {
	sharedobs.ReadinessChecker
	Run(ctx context.Context, params query.Params) (query.Result, error)
	Options(ctx context.Context) (query.Options, error)
}

// Server exposes the query API alongside health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer   *http.Server
	engine       Querier
	logger       *slog.Logger
	metrics      *observability.Metrics
	recordsLimit int

	// liveCtx is the parent of every live session; Shutdown cancels it.
	liveCtx  context.Context
	stopLive context.CancelFunc
}

// NewServer creates an HTTP server with the /api/v1 query routes plus
// /healthz, /readyz, and /metrics. recordsLimit caps the number of features
// returned by /api/v1/records.
func NewServer(addr string, engine Querier, recordsLimit int, logger *slog.Logger, metrics *observability.Metrics) *Server {
	mux := http.NewServeMux()
	liveCtx, stopLive := context.WithCancel(context.Background())

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		engine:       engine,
		logger:       logger,
		metrics:      metrics,
		recordsLimit: recordsLimit,
		liveCtx:      liveCtx,
		stopLive:     stopLive,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(engine))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/summary", s.handleSummary)
	mux.HandleFunc("GET /api/v1/options", s.handleOptions)
	mux.HandleFunc("GET /api/v1/records", s.handleRecords)
	mux.HandleFunc("GET /api/v1/live", s.handleLive)

	s.httpServer.Handler = requestLogger(logger)(mux)
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown closes live sessions and gracefully drains the remaining
// connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopLive()
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// writeError maps query errors onto status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, query.ErrInvalidParams):
		status = http.StatusBadRequest
	case errors.Is(err, query.ErrNotReady):
		status = http.StatusServiceUnavailable
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}
