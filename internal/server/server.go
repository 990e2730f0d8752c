// Package server exposes the metrics and health endpoints while a run is
// in progress.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HTTPRecorder receives per-request measurements.
type HTTPRecorder interface {
	ObserveHTTPRequest(method, route string, code int, duration time.Duration)
}

// Server serves /metrics, /healthz, and /readyz.
type Server struct {
	router  chi.Router
	logger  *zap.Logger
	ready   func() bool
	httpSrv *http.Server
}

// New builds the router. ready reports whether a run is active; nil means
// always ready.
func New(metrics http.Handler, recorder HTTPRecorder, ready func() bool, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ready == nil {
		ready = func() bool { return true }
	}
	s := &Server{logger: logger, ready: ready}

	r := chi.NewRouter()
	r.Use(s.recoverMiddleware)
	if recorder != nil {
		r.Use(metricsMiddleware(recorder))
	}
	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr in the background. The returned address is the
// bound one, which differs from addr when addr uses port 0.
func (s *Server) Start(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	s.httpSrv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		s.logger.Info("metrics server started", zap.String("addr", ln.Addr().String()))
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server error", zap.Error(err))
		}
	}()
	return ln.Addr().String(), nil
}

// Shutdown stops the listener, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	if !s.ready() {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "idle"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Debug("response write failed", zap.Error(err))
	}
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func metricsMiddleware(recorder HTTPRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			route := "unknown"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			recorder.ObserveHTTPRequest(r.Method, route, ww.status, time.Since(start))
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
