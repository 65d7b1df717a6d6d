// Package server exposes the trend engine and recorded snapshots over HTTP.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"AgriGenie/internal/collector"
	"AgriGenie/internal/metrics"
	"AgriGenie/internal/recorder"
	"AgriGenie/internal/trend"
)

const defaultRequestTimeout = 30 * time.Second

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	collector *collector.Collector
	recorder  recorder.Recorder
	engine    *trend.Engine
	validate  *validator.Validate
	logger    *zap.Logger
	timeout   time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithEngine sets the engine used for caller-supplied records.
func WithEngine(e *trend.Engine) Option {
	return func(s *Server) { s.engine = e }
}

// WithRequestTimeout bounds each request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// New creates a Server.
func New(col *collector.Collector, rec recorder.Recorder, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		collector: col,
		recorder:  rec,
		engine:    trend.NewEngine(),
		validate:  validator.New(),
		logger:    logger.With(zap.String("component", "http")),
		timeout:   defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/market", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/trend", s.handleTrendQuery)
		r.Post("/trend", s.handleTrendRecords)
		r.Get("/snapshots", s.handleSnapshots)
		r.Get("/snapshots/latest", s.handleLatestSnapshot)
	})
	return r
}

// instrument counts requests by matched route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok", "source": s.collector.Source()})
}
