// server runs the auth HTTP API: sign-in, token refresh, sign-out, and
// role/resource administration.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iconic-inc/iconic-erp-sub000/internal/audit"
	auditproducer "github.com/iconic-inc/iconic-erp-sub000/internal/audit/producer"
	auditrepo "github.com/iconic-inc/iconic-erp-sub000/internal/audit/repository"
	"github.com/iconic-inc/iconic-erp-sub000/internal/config"
	"github.com/iconic-inc/iconic-erp-sub000/internal/db"
	identityrepo "github.com/iconic-inc/iconic-erp-sub000/internal/identity/repository"
	"github.com/iconic-inc/iconic-erp-sub000/internal/identity/service"
	"github.com/iconic-inc/iconic-erp-sub000/internal/rbac/engine"
	rbacrepo "github.com/iconic-inc/iconic-erp-sub000/internal/rbac/repository"
	"github.com/iconic-inc/iconic-erp-sub000/internal/security"
	"github.com/iconic-inc/iconic-erp-sub000/internal/server"
	sessionrepo "github.com/iconic-inc/iconic-erp-sub000/internal/session/repository"
	"github.com/iconic-inc/iconic-erp-sub000/internal/telemetry/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	var handler slog.Handler
	if cfg.Env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	ctx := context.Background()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "erp-auth", cfg.OTLPInsecure)
	if err != nil {
		logger.Error("telemetry", "error", err)
		os.Exit(1)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
		os.Exit(1)
	}
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error("db", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	producer, err := auditproducer.NewKafkaProducer(cfg.AuditKafkaBrokersList(), cfg.AuditKafkaTopic)
	if err != nil {
		logger.Error("audit producer", "error", err)
		os.Exit(1)
	}
	if producer != nil {
		defer producer.Close()
	}

	var emitter audit.Emitter
	if producer != nil {
		emitter = producer
	}
	auditLogger := audit.NewLogger(auditrepo.NewPostgresRepository(conn), server.ClientIP, emitter)

	identities := identityrepo.NewPostgresRepository(conn)
	sessions := sessionrepo.NewPostgresRepository(conn)
	roles := rbacrepo.NewPostgresRoleRepository(conn)
	resources := rbacrepo.NewPostgresResourceRepository(conn)

	authSvc := service.NewAuthService(
		identities,
		sessions,
		security.NewHasher(cfg.BcryptCost),
		security.NewTokenCodec(cfg.TokenIssuer),
		auditLogger,
		cfg.AccessTTL(),
		cfg.RefreshTTL(),
	)
	index := engine.NewIndex(roles, resources)

	srv, err := server.New(cfg, logger, authSvc, index, roles, resources, auditLogger)
	if err != nil {
		logger.Error("server", "error", err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("serve", "error", err)
			os.Exit(1)
		}
	case <-quit:
		logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
		logger.Info("http server stopped")
	}
}
