package repository

import (
	"context"

	"github.com/iconic-inc/iconic-erp-sub000/internal/audit/domain"
)

// Repository defines persistence for audit log entries.
type Repository interface {
	Create(ctx context.Context, e *domain.AuditLog) error
	ListByIdentity(ctx context.Context, identityID string, limit int32) ([]*domain.AuditLog, error)
}
