package auditlog

import (
	"context"
	"sync"
)

// MemoryRecorder keeps entries in memory. Used in tests and when no audit
// database is configured.
type MemoryRecorder struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemoryRecorder creates an empty MemoryRecorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (r *MemoryRecorder) Record(ctx context.Context, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *MemoryRecorder) ListByOwner(ctx context.Context, owner string, limit int) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Entry
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].Owner != owner {
			continue
		}
		out = append(out, r.entries[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
