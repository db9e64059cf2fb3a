package repository

import (
	"context"
	"database/sql"

	"github.com/iconic-inc/iconic-erp-sub000/internal/audit/domain"
)

// PostgresRepository persists audit entries in the audit_logs table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the audit entry.
func (r *PostgresRepository) Create(ctx context.Context, e *domain.AuditLog) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, identity_id, action, resource, ip, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.IdentityID, e.Action, e.Resource, e.IP, e.Metadata, e.CreatedAt)
	return err
}

// ListByIdentity returns up to limit recent entries for the identity, newest first.
func (r *PostgresRepository) ListByIdentity(ctx context.Context, identityID string, limit int32) ([]*domain.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, identity_id, action, resource, ip, metadata, created_at
		FROM audit_logs WHERE identity_id = $1
		ORDER BY created_at DESC LIMIT $2`, identityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.AuditLog
	for rows.Next() {
		var e domain.AuditLog
		if err := rows.Scan(&e.ID, &e.IdentityID, &e.Action, &e.Resource, &e.IP, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
