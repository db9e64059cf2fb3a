package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iconic-inc/iconic-erp-sub000/internal/rbac/domain"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.clientIPMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.telemetryMiddleware)
	r.Use(s.bodyLimitMiddleware)

	r.Get("/healthz", s.handleHealth)

	// Unauthenticated: sign-in and refresh carry their own credentials.
	r.Post("/auth/signin", s.handleSignIn)
	r.Post("/auth/refresh-token", s.handleRefreshToken)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Delete("/auth/signout", s.handleSignOut)

		r.Route("/rbac", func(r chi.Router) {
			readAny := domain.Action{Verb: domain.VerbRead, Scope: domain.ScopeAny}
			createAny := domain.Action{Verb: domain.VerbCreate, Scope: domain.ScopeAny}
			updateAny := domain.Action{Verb: domain.VerbUpdate, Scope: domain.ScopeAny}

			r.With(s.requirePermission("role", readAny)).Get("/roles", s.handleListRoles)
			r.With(s.requirePermission("role", createAny)).Post("/roles", s.handleCreateRole)
			r.With(s.requirePermission("role", updateAny)).Put("/roles/{slug}", s.handleUpdateRole)

			r.With(s.requirePermission("resource", readAny)).Get("/resources", s.handleListResources)
			r.With(s.requirePermission("resource", createAny)).Post("/resources", s.handleCreateResource)
		})
	})

	return r
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
