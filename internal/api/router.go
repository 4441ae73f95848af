package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/twinbridge/twinbridge-core/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required, used by load balancers)
		r.Get("/health", s.handleHealth)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Use(s.requireScope(auth.ScopeRead))

			r.Get("/status", s.handleStatus)
			r.Get("/checkpoints", s.handleCheckpoints)

			// Live telemetry tap
			r.Get("/ws", s.handleWebSocket)

			// Mutating operations need the admin scope
			r.Group(func(r chi.Router) {
				r.Use(s.requireScope(auth.ScopeAdmin))

				r.Post("/sync/run", s.handleSyncRun)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "resource not found")
	})

	return r
}
