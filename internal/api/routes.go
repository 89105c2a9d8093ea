package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/alexanderramin/pistemind/internal/logging"
)

// NewRouter mounts the session API with the standard middleware stack.
func NewRouter(h *Handler, log *logging.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers the session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.CreateSession)
			r.Get("/", h.ListSessions)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetSession)
				r.Get("/events", h.ListEvents)
				r.Post("/scenario", h.GenerateScenario)
				r.Post("/choice", h.RecordChoice)
				r.Post("/explanation", h.RecordExplanation)
				r.Post("/feedback", h.GenerateFeedback)
				r.Post("/complete", h.Complete)
				r.Post("/abandon", h.Abandon)
			})
		})
		r.Get("/analytics", h.SystemAnalytics)
		r.Get("/users/{id}/performance", h.UserPerformance)
		r.Post("/maintenance/cleanup", h.Cleanup)
	})
}

// requestLogger logs one line per request through the structured logger.
func requestLogger(log *logging.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logging.Nop()
	}
	log = log.With("component", "http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("http_request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", chiMiddleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
