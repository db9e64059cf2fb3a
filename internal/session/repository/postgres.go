package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/iconic-inc/iconic-erp-sub000/internal/session/domain"
)

// PostgresRepository persists sessions in the sessions table. The used-token
// history is stored as a JSONB array of hashes.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sessionColumns = `id, identity_id, device_id, public_key, private_key,
	refresh_token_hash, used_token_hashes, created_at, updated_at`

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	return scanSession(row)
}

// GetByIdentityAndDevice returns the session for the identity/device pair, or
// nil if the device has no live session.
func (r *PostgresRepository) GetByIdentityAndDevice(ctx context.Context, identityID, deviceID string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE identity_id = $1 AND device_id = $2`,
		identityID, deviceID)
	return scanSession(row)
}

// Upsert creates or overwrites the session for (identity_id, device_id).
// On conflict the row is fully replaced, including an empty used-token
// history: a fresh sign-in starts a new rotation chain.
func (r *PostgresRepository) Upsert(ctx context.Context, s *domain.Session) error {
	used, err := json.Marshal(s.UsedTokenHashes)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (identity_id, device_id) DO UPDATE SET
			id = EXCLUDED.id,
			public_key = EXCLUDED.public_key,
			private_key = EXCLUDED.private_key,
			refresh_token_hash = EXCLUDED.refresh_token_hash,
			used_token_hashes = '[]'::jsonb,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at`,
		s.ID, s.IdentityID, s.DeviceID, s.PublicKey, s.PrivateKey,
		s.RefreshTokenHash, used, s.CreatedAt, s.UpdatedAt)
	return err
}

// Rotate performs the compare-and-swap on the current refresh token hash in a
// single conditional UPDATE. Zero rows affected means a concurrent refresh
// rotated first; that is the one race that must not be papered over.
func (r *PostgresRepository) Rotate(ctx context.Context, sessionID, oldHash, newHash string, usedHashes []string) error {
	used, err := json.Marshal(usedHashes)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET refresh_token_hash = $3, used_token_hashes = $4, updated_at = now()
		WHERE id = $1 AND refresh_token_hash = $2`,
		sessionID, oldHash, newHash, used)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRotateConflict
	}
	return nil
}

// Delete removes the session row. Deleting a missing row is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var s domain.Session
	var used []byte
	err := row.Scan(&s.ID, &s.IdentityID, &s.DeviceID, &s.PublicKey, &s.PrivateKey,
		&s.RefreshTokenHash, &used, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if len(used) > 0 {
		if err := json.Unmarshal(used, &s.UsedTokenHashes); err != nil {
			return nil, err
		}
	}
	return &s, nil
}
