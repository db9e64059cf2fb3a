// Package audit records security-relevant auth events. Writing an event is
// best-effort: the auth flow must never fail because the audit trail did.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iconic-inc/iconic-erp-sub000/internal/audit/domain"
	auditrepo "github.com/iconic-inc/iconic-erp-sub000/internal/audit/repository"
)

// Event actions recorded by the auth core.
const (
	ActionSignInSuccess    = "signin_success"
	ActionSignInFailure    = "signin_failure"
	ActionTokenRefresh     = "token_refresh"
	ActionReplayDetected   = "replay_detected"
	ActionSignOut          = "signout"
	ActionPermissionDenied = "permission_denied"
)

// IPExtractor returns the client IP from the request context.
type IPExtractor func(context.Context) string

// Emitter forwards an audit entry to an event pipeline (e.g. Kafka). May be
// nil; emission is best-effort like persistence.
type Emitter interface {
	Emit(ctx context.Context, e *domain.AuditLog) error
}

// AuditLogger writes a single audit event with explicit action/resource.
// Used by the auth flow and the permission middleware.
type AuditLogger interface {
	LogEvent(ctx context.Context, identityID, action, resource, metadata string)
}

// Logger implements AuditLogger using the audit repository, an optional IP
// extractor, and an optional emitter.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
	emitter     Emitter
}

// NewLogger returns an AuditLogger that persists to repo, resolves client IPs
// with ipExtractor (nil records "unknown"), and forwards to emitter (nil
// disables forwarding).
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor, emitter Emitter) *Logger {
	return &Logger{repo: repo, ipExtractor: ipExtractor, emitter: emitter}
}

// LogEvent writes one audit entry. Best-effort: errors are logged, not returned.
func (l *Logger) LogEvent(ctx context.Context, identityID, action, resource, metadata string) {
	if l == nil || l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		ip = l.ipExtractor(ctx)
	}
	entry := &domain.AuditLog{
		ID:         uuid.New().String(),
		IdentityID: identityID,
		Action:     action,
		Resource:   resource,
		IP:         ip,
		Metadata:   metadata,
		CreatedAt:  time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		slog.Error("audit: persist event failed", "action", action, "resource", resource, "error", err)
	}
	if l.emitter != nil {
		if err := l.emitter.Emit(ctx, entry); err != nil {
			slog.Error("audit: emit event failed", "action", action, "error", err)
		}
	}
}
