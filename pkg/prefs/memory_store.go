package prefs

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store for tests and single-process setups.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*PreferenceRecord // key: strategyID + "/" + owner
	order   []string                     // insertion order of keys
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*PreferenceRecord)}
}

func recordKey(strategyID, owner string) string {
	return strategyID + "/" + owner
}

func (s *MemoryStore) Put(ctx context.Context, record *PreferenceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(record.StrategyID, record.Owner)
	if _, exists := s.records[key]; !exists {
		s.order = append(s.order, key)
	}
	s.records[key] = record.Clone()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, strategyID, owner string) (*PreferenceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[recordKey(strategyID, owner)]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Clone(), nil
}

func (s *MemoryStore) ListByStrategy(ctx context.Context, strategyID string, filter StatusFilter, limit int) ([]*PreferenceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*PreferenceRecord
	for _, key := range s.order {
		r := s.records[key]
		if r.StrategyID != strategyID || !filter.Matches(r) {
			continue
		}
		out = append(out, r.Clone())
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) ListByOwner(ctx context.Context, owner string, filter StatusFilter) ([]*PreferenceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*PreferenceRecord
	for _, key := range s.order {
		r := s.records[key]
		if r.Owner != owner || !filter.Matches(r) {
			continue
		}
		out = append(out, r.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StrategyID < out[j].StrategyID })
	return out, nil
}
