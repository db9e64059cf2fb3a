// Package server is the HTTP surface of the auth core: sign-in, token
// refresh, sign-out, and role/resource administration, with authentication
// and permission middleware in front of the protected routes.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/iconic-inc/iconic-erp-sub000/internal/audit"
	"github.com/iconic-inc/iconic-erp-sub000/internal/config"
	"github.com/iconic-inc/iconic-erp-sub000/internal/identity/service"
	"github.com/iconic-inc/iconic-erp-sub000/internal/rbac/engine"
	rbacrepo "github.com/iconic-inc/iconic-erp-sub000/internal/rbac/repository"
)

// Server wires the auth service, permission index, and RBAC repositories
// into an HTTP server.
type Server struct {
	cfg       *config.Config
	logger    *slog.Logger
	auth      *service.AuthService
	index     *engine.Index
	roles     rbacrepo.RoleRepository
	resources rbacrepo.ResourceRepository
	audit     audit.AuditLogger

	httpServer    *http.Server
	tracer        trace.Tracer
	authDecisions metric.Int64Counter
}

// New builds the Server and its router. auditLogger may be nil.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	auth *service.AuthService,
	index *engine.Index,
	roles rbacrepo.RoleRepository,
	resources rbacrepo.ResourceRepository,
	auditLogger audit.AuditLogger,
) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	meter := otel.Meter("erp-auth/server")
	authDecisions, err := meter.Int64Counter("auth.decisions",
		metric.WithDescription("authorization decisions by resource and outcome"))
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:           cfg,
		logger:        logger,
		auth:          auth,
		index:         index,
		roles:         roles,
		resources:     resources,
		audit:         auditLogger,
		tracer:        otel.Tracer("erp-auth/server"),
		authDecisions: authDecisions,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.buildRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the router. Used by tests and by callers that manage the
// listener themselves.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.cfg.HTTPAddr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
