package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/yieldworks/compounder/pkg/allocator"
	"github.com/yieldworks/compounder/pkg/auditlog"
	"github.com/yieldworks/compounder/pkg/compiler"
	"github.com/yieldworks/compounder/pkg/prefs"
	"github.com/yieldworks/compounder/pkg/protocol"
)

// CompoundRequest triggers one compounding run.
type CompoundRequest struct {
	Owner      string
	StrategyID string
	// GrossReward is the observed reward total, in reward-denom minor units.
	GrossReward int64
	// FeeBps optionally overrides the strategy's configured fee. It is
	// still bounded by the strategy's cap.
	FeeBps *uint32
}

// CompoundResult is the ordered output of one run: the fee transfer (when
// any) followed by every destination's instructions in preference order,
// plus the parallel event list for auditing.
type CompoundResult struct {
	Instructions []protocol.Message          `json:"instructions"`
	Conditional  []protocol.ConditionalGroup `json:"conditional,omitempty"`
	Events       []protocol.Event            `json:"events"`
	GrossAmount  int64                       `json:"gross_amount"`
	FeeAmount    int64                       `json:"fee_amount"`
	Distributed  int64                       `json:"distributed"`
	SkippedCount int                         `json:"skipped_count"`
}

// Compound runs the full pipeline for one owner: authorization, fee split,
// proportional allocation, instruction compilation. Validation and
// authorization reject before any compilation work; a compilation error
// aborts the whole run with no partial instruction list.
func (s *Service) Compound(ctx context.Context, caller string, req CompoundRequest) (*CompoundResult, error) {
	if err := ValidateAddress(req.Owner); err != nil {
		return nil, err
	}
	if !s.mayTrigger(caller, req.Owner) {
		return nil, fmt.Errorf("%w: %s may not trigger compounding for %s", ErrUnauthorized, caller, req.Owner)
	}
	if req.GrossReward < 0 {
		return nil, fmt.Errorf("negative reward total %d", req.GrossReward)
	}

	settings, ok := s.strategySettings(req.StrategyID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, req.StrategyID)
	}

	record, err := s.store.Get(ctx, req.StrategyID, req.Owner)
	if errors.Is(err, prefs.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s/%s", prefs.ErrNoActiveRecord, req.StrategyID, req.Owner)
	}
	if err != nil {
		return nil, err
	}
	if record.Status() != prefs.StatusActive {
		return nil, fmt.Errorf("%w: %s/%s is %s", prefs.ErrNoActiveRecord, req.StrategyID, req.Owner, record.Status())
	}

	feeBps := settings.FeeBps
	if req.FeeBps != nil {
		feeBps = *req.FeeBps
	}
	split, err := allocator.SplitFee(req.GrossReward, feeBps, settings.FeeCapBps,
		s.catalog.RewardDenom, req.Owner, settings.FeeRecipient)
	if err != nil {
		return nil, err
	}

	allocations, err := allocator.Allocate(record.Preferences, split.Remaining)
	if err != nil {
		return nil, err
	}

	outcomes, err := s.registry.Compile(ctx, req.Owner, allocations)
	if err != nil {
		return nil, err
	}

	result := &CompoundResult{
		GrossAmount: req.GrossReward,
		FeeAmount:   split.Fee,
		Distributed: split.Remaining,
	}
	if split.Transfer != nil {
		result.Instructions = append(result.Instructions, *split.Transfer)
	}
	for _, outcome := range outcomes {
		if outcome.Status == compiler.StatusSkipped {
			result.SkippedCount++
		}
		result.Instructions = append(result.Instructions, outcome.Bundle.Primary...)
		result.Conditional = append(result.Conditional, outcome.Bundle.Conditional...)
		result.Events = append(result.Events, outcome.Bundle.Events...)
	}

	s.recordRun(ctx, record, result)
	s.logger.InfoContext(ctx, "compound compiled",
		"owner", req.Owner, "strategy", req.StrategyID,
		"gross", req.GrossReward, "fee", split.Fee,
		"instructions", len(result.Instructions), "skipped", result.SkippedCount)
	return result, nil
}

// mayTrigger allows the owner, the delegated executor, and the
// administrator.
func (s *Service) mayTrigger(caller, owner string) bool {
	if caller == owner {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return caller == s.executor || caller == s.admin
}

func (s *Service) recordRun(ctx context.Context, record *prefs.PreferenceRecord, result *CompoundResult) {
	err := s.audit.Record(ctx, auditlog.Entry{
		ID:               uuid.NewString(),
		Owner:            record.Owner,
		StrategyID:       record.StrategyID,
		GrossAmount:      result.GrossAmount,
		FeeAmount:        result.FeeAmount,
		InstructionCount: len(result.Instructions),
		SkippedCount:     result.SkippedCount,
		CreatedAt:        s.now().UTC(),
	})
	if err != nil {
		// Advisory only: the compiled result is already safe to return.
		s.logger.WarnContext(ctx, "audit record failed", "owner", record.Owner, "error", err)
	}
}
