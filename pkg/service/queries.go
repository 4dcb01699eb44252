package service

import (
	"context"

	"github.com/yieldworks/compounder/pkg/auditlog"
	"github.com/yieldworks/compounder/pkg/prefs"
)

// Query surface. Read-only: none of these mutate stored state.

// GetRecord fetches one preference record by (strategy, owner).
func (s *Service) GetRecord(ctx context.Context, strategyID, owner string) (*prefs.PreferenceRecord, error) {
	return s.store.Get(ctx, strategyID, owner)
}

// ListByStrategy lists a strategy's records with an optional status filter
// and result limit.
func (s *Service) ListByStrategy(ctx context.Context, strategyID string, filter prefs.StatusFilter, limit int) ([]*prefs.PreferenceRecord, error) {
	return s.store.ListByStrategy(ctx, strategyID, filter, limit)
}

// ListByOwner lists an owner's records across all strategies with an
// optional status filter.
func (s *Service) ListByOwner(ctx context.Context, owner string, filter prefs.StatusFilter) ([]*prefs.PreferenceRecord, error) {
	return s.store.ListByOwner(ctx, owner, filter)
}

// ListRuns returns an owner's recorded compound runs, newest first.
func (s *Service) ListRuns(ctx context.Context, owner string, limit int) ([]auditlog.Entry, error) {
	return s.audit.ListByOwner(ctx, owner, limit)
}
