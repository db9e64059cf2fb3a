package repository

import (
	"context"
	"sync"

	"github.com/iconic-inc/iconic-erp-sub000/internal/audit/domain"
)

// MemoryRepository is an in-memory audit store for tests and local runs.
type MemoryRepository struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

// NewMemoryRepository returns an empty in-memory audit repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Create(ctx context.Context, e *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *MemoryRepository) ListByIdentity(ctx context.Context, identityID string, limit int32) ([]*domain.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.AuditLog
	for i := len(r.entries) - 1; i >= 0 && (limit <= 0 || int32(len(out)) < limit); i-- {
		if r.entries[i].IdentityID == identityID {
			cp := *r.entries[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

// All returns every entry in insertion order. Test helper.
func (r *MemoryRepository) All() []*domain.AuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.AuditLog, len(r.entries))
	copy(out, r.entries)
	return out
}
