package prefs

import "context"

// StatusFilter narrows list queries. The zero value matches every record.
type StatusFilter struct {
	Status Status
}

// Matches reports whether a record passes the filter.
func (f StatusFilter) Matches(r *PreferenceRecord) bool {
	return f.Status == "" || r.Status() == f.Status
}

// Store persists preference records keyed by (strategy, owner). Mutation is
// upsert-only: cancellation and pruning rewrite the record's inactive status
// rather than deleting rows.
type Store interface {
	// Put upserts a record by (strategy_id, owner).
	Put(ctx context.Context, record *PreferenceRecord) error

	// Get fetches one record, or ErrNotFound.
	Get(ctx context.Context, strategyID, owner string) (*PreferenceRecord, error)

	// ListByStrategy lists records for a strategy in insertion order, with an
	// optional status filter and result limit (0 = no limit).
	ListByStrategy(ctx context.Context, strategyID string, filter StatusFilter, limit int) ([]*PreferenceRecord, error)

	// ListByOwner lists one owner's records across all strategies.
	ListByOwner(ctx context.Context, owner string, filter StatusFilter) ([]*PreferenceRecord, error)
}
