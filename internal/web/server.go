package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/vbonduro/platewise/internal/metrics"
	"github.com/vbonduro/platewise/internal/service"
)

const shutdownTimeout = 10 * time.Second

type Options struct {
	// RateLimitRPS is the sustained per-client rate on model backed routes.
	// Zero disables limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

type Server struct {
	service *service.MealService
	metrics *metrics.Recorder
	limiter *rateLimiterStore
	mux     *http.ServeMux
	logger  *slog.Logger
}

func NewServer(svc *service.MealService, rec *metrics.Recorder, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		service: svc,
		metrics: rec,
		limiter: newRateLimiterStore(opts.RateLimitRPS, opts.RateLimitBurst),
		mux:     http.NewServeMux(),
		logger:  logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", s.metrics.Handler())

	s.mux.Handle("POST /v1/meals", s.rateLimited(s.handleLogMeal))
	s.mux.HandleFunc("GET /v1/meals", s.handleListMeals)
	s.mux.HandleFunc("GET /v1/meals/{id}", s.handleGetMeal)
	s.mux.Handle("PATCH /v1/meals/{id}", s.rateLimited(s.handleReviseMeal))
	s.mux.HandleFunc("DELETE /v1/meals/{id}", s.handleDeleteMeal)
	s.mux.HandleFunc("GET /v1/meals/{id}/photo", s.handleGetPhoto)

	s.mux.Handle("POST /v1/meal-plans", s.rateLimited(s.handleGeneratePlan))
	s.mux.HandleFunc("GET /v1/meal-plans/latest", s.handleLatestPlan)
	s.mux.Handle("POST /v1/meal-plans/replacement", s.rateLimited(s.handleReplaceMeal))

	s.mux.Handle("POST /v1/insights", s.rateLimited(s.handleInsights))
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLogger logs each request and records it under the matched route
// pattern so path parameters do not explode metric cardinality.
func requestLogger(logger *slog.Logger, rec *metrics.Recorder, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sr, r)

		elapsed := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		rec.HTTPRequest(r.Method, route, sr.status, elapsed)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sr.status,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, s.metrics, securityHeaders(s.mux)).ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests before returning.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
