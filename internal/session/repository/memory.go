package repository

import (
	"context"
	"sync"

	"github.com/iconic-inc/iconic-erp-sub000/internal/session/domain"
)

// MemoryRepository is an in-memory session store for tests and local runs.
// The mutex gives Rotate the same compare-and-swap guarantee the Postgres
// conditional UPDATE provides.
type MemoryRepository struct {
	mu   sync.Mutex
	byID map[string]*domain.Session
}

// NewMemoryRepository returns an empty in-memory session repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*domain.Session)}
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *MemoryRepository) GetByIdentityAndDevice(ctx context.Context, identityID, deviceID string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byID {
		if s.IdentityID == identityID && s.DeviceID == deviceID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) Upsert(ctx context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.byID {
		if existing.IdentityID == s.IdentityID && existing.DeviceID == s.DeviceID {
			delete(r.byID, id)
			break
		}
	}
	cp := *s
	cp.UsedTokenHashes = nil
	r.byID[cp.ID] = &cp
	return nil
}

func (r *MemoryRepository) Rotate(ctx context.Context, sessionID, oldHash, newHash string, usedHashes []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[sessionID]
	if !ok || s.RefreshTokenHash != oldHash {
		return ErrRotateConflict
	}
	s.RefreshTokenHash = newHash
	s.UsedTokenHashes = append([]string{}, usedHashes...)
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}
