package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Service health
		r.Get("/health", s.handleHealth)

		// System metrics
		r.Get("/metrics", s.handleMetrics)

		// Target endpoints
		r.Route("/targets", func(r chi.Router) {
			r.Get("/", s.handleListTargets)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetTarget)
				r.Get("/status", s.handleGetTargetStatus)
				r.Get("/metrics", s.handleGetTargetMetrics)
				r.Delete("/metrics", s.handleResetTargetMetrics)
				r.Post("/check", s.handleCheckTarget)
			})
		})

		// WebSocket event stream
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
