// Package auditlog records compound runs for after-the-fact review. The log
// is advisory: a recording failure is reported to the caller's logger, never
// allowed to fail the compound itself.
package auditlog

import (
	"context"
	"time"
)

// Entry summarizes one compound run.
type Entry struct {
	ID               string    `json:"id"`
	Owner            string    `json:"owner"`
	StrategyID       string    `json:"strategy_id"`
	GrossAmount      int64     `json:"gross_amount"`
	FeeAmount        int64     `json:"fee_amount"`
	InstructionCount int       `json:"instruction_count"`
	SkippedCount     int       `json:"skipped_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// Recorder persists compound run entries.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error

	// ListByOwner returns an owner's entries, newest first, up to limit
	// (0 = no limit).
	ListByOwner(ctx context.Context, owner string, limit int) ([]Entry, error)
}
