package repository

import (
	"context"
	"errors"

	"github.com/iconic-inc/iconic-erp-sub000/internal/session/domain"
)

// ErrRotateConflict is returned by Rotate when the session's current refresh
// token no longer matches the expected one: a concurrent refresh already won.
var ErrRotateConflict = errors.New("refresh token already rotated")

// Repository defines persistence for sessions.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	GetByIdentityAndDevice(ctx context.Context, identityID, deviceID string) (*domain.Session, error)
	// Upsert creates or overwrites the session for (IdentityID, DeviceID).
	// The used-token history is reset; this is the fresh sign-in path, never
	// the refresh path.
	Upsert(ctx context.Context, s *domain.Session) error
	// Rotate atomically swaps the current refresh token hash from oldHash to
	// newHash and replaces the used-token history, succeeding only if the
	// stored hash still equals oldHash. Returns ErrRotateConflict otherwise.
	Rotate(ctx context.Context, sessionID, oldHash, newHash string, usedHashes []string) error
	Delete(ctx context.Context, id string) error
}
