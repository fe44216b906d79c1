package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/posmock/posmock/internal/clock"
	"github.com/posmock/posmock/tracing"
)

// NewRouter wires all routes and middleware for the responder's surface.
func NewRouter(h *Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestSpan)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/", h.handleIndex)
	r.Get("/health", h.handleHealth)

	r.Route("/mocks", func(r chi.Router) {
		r.Post("/payment", h.handlePayment)
		r.Post("/fiscal", h.handleFiscal)
		r.Post("/fiscal/new", h.handleFiscalNew)
		r.Post("/kds", h.handleKDS)
		r.Get("/{service}/status", h.handleStatus)

		r.Get("/config", h.handleGetConfig)
		r.Post("/config", h.handleBulkConfig)
		r.Get("/config/{service}", h.handleGetServiceConfig)
		r.Put("/config/{service}", h.handleSetServiceConfig)

		r.Get("/logs", h.handleLogs)

		r.Get("/pending", h.handlePending)
		r.Post("/pending/{id}/resolve", h.handleResolve)
	})

	return r
}

// requestLogger logs each request with its outcome status and latency.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := clock.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", clock.Since(start)))
		})
	}
}

// requestSpan opens a server span per request so handler work nests under
// one trace alongside the engine's decide spans.
func requestSpan(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracing.StartSpan(r.Context(), r.Method+" "+r.URL.Path, "SERVER")
		span.WithAttributes(map[string]string{
			"http.method": r.Method,
			"http.path":   r.URL.Path,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
		tracing.EndSpan(span, nil)
	})
}
