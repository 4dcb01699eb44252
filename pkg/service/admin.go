package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/yieldworks/compounder/pkg/prefs"
)

// SetAdmin transfers the administrator identity. Only the current
// administrator may transfer it.
func (s *Service) SetAdmin(caller, newAdmin string) error {
	if err := ValidateAddress(newAdmin); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if caller != s.admin {
		return fmt.Errorf("%w: only the administrator may transfer admin", ErrUnauthorized)
	}
	s.admin = newAdmin
	return nil
}

// AllowStrategy adds a strategy id to the allowed catalog with its fee
// configuration. An empty integration schema passes blobs through
// unexamined; a non-empty one is compiled here so submission never pays
// schema-compile cost.
func (s *Service) AllowStrategy(caller, strategyID string, settings StrategySettings) error {
	if !s.isAdmin(caller) {
		return fmt.Errorf("%w: only the administrator may allow strategies", ErrUnauthorized)
	}
	if strategyID == "" {
		return fmt.Errorf("empty strategy id")
	}
	if settings.FeeBps > settings.FeeCapBps {
		return fmt.Errorf("strategy %s: default fee %d bps exceeds cap %d bps", strategyID, settings.FeeBps, settings.FeeCapBps)
	}
	if settings.FeeCapBps > 0 {
		if err := ValidateAddress(settings.FeeRecipient); err != nil {
			return fmt.Errorf("fee recipient: %w", err)
		}
	}
	if settings.IntegrationSchema != "" {
		compiled, err := jsonschema.CompileString(strategyID+".schema.json", settings.IntegrationSchema)
		if err != nil {
			return fmt.Errorf("strategy %s: invalid integration schema: %w", strategyID, err)
		}
		settings.schema = compiled
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.strategies[strategyID] = settings
	return nil
}

// RemoveStrategy removes a strategy id from the allowed catalog. Existing
// records survive; they simply stop accepting submissions and triggers.
func (s *Service) RemoveStrategy(caller, strategyID string) error {
	if !s.isAdmin(caller) {
		return fmt.Errorf("%w: only the administrator may remove strategies", ErrUnauthorized)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.strategies[strategyID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStrategy, strategyID)
	}
	delete(s.strategies, strategyID)
	return nil
}

// SetFeeConfig updates a strategy's fee settings in place.
func (s *Service) SetFeeConfig(caller, strategyID string, feeBps, feeCapBps uint32, recipient string) error {
	if !s.isAdmin(caller) {
		return fmt.Errorf("%w: only the administrator may set fees", ErrUnauthorized)
	}
	if feeBps > feeCapBps {
		return fmt.Errorf("strategy %s: fee %d bps exceeds cap %d bps", strategyID, feeBps, feeCapBps)
	}
	if feeCapBps > 0 {
		if err := ValidateAddress(recipient); err != nil {
			return fmt.Errorf("fee recipient: %w", err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	settings, ok := s.strategies[strategyID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStrategy, strategyID)
	}
	settings.FeeBps = feeBps
	settings.FeeCapBps = feeCapBps
	settings.FeeRecipient = recipient
	s.strategies[strategyID] = settings
	return nil
}

// ListStrategies returns the allowed strategy ids, sorted.
func (s *Service) ListStrategies() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.strategies))
	for id := range s.strategies {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// PruneExpired marks active records idle past the retention window as
// expired. It mutates status only; rows are never deleted.
func (s *Service) PruneExpired(ctx context.Context, caller string, retention time.Duration) (int, error) {
	if !s.isAdmin(caller) {
		return 0, fmt.Errorf("%w: only the administrator may prune", ErrUnauthorized)
	}
	if retention <= 0 {
		return 0, fmt.Errorf("retention must be positive")
	}

	cutoff := s.now().UTC().Add(-retention)
	pruned := 0
	for _, strategyID := range s.ListStrategies() {
		records, err := s.store.ListByStrategy(ctx, strategyID, prefs.StatusFilter{Status: prefs.StatusActive}, 0)
		if err != nil {
			return pruned, err
		}
		for _, record := range records {
			if !record.UpdatedAt.Before(cutoff) {
				continue
			}
			record.Inactive = &prefs.InactiveStatus{EndType: prefs.EndExpiry, EndedAt: s.now().UTC()}
			record.UpdatedAt = s.now().UTC()
			if err := s.store.Put(ctx, record); err != nil {
				return pruned, err
			}
			pruned++
		}
	}
	if pruned > 0 {
		s.logger.InfoContext(ctx, "pruned stale preference records", "count", pruned,
			"retention", retention.String())
	}
	return pruned, nil
}
