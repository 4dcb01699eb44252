package auditlog

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresRecorder implements Recorder on PostgreSQL.
type PostgresRecorder struct {
	db *sql.DB
}

// NewPostgresRecorder wraps db and ensures the schema exists.
func NewPostgresRecorder(db *sql.DB) (*PostgresRecorder, error) {
	r := &PostgresRecorder{db: db}
	if err := r.migrate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *PostgresRecorder) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS compound_runs (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		strategy_id TEXT NOT NULL,
		gross_amount BIGINT NOT NULL,
		fee_amount BIGINT NOT NULL,
		instruction_count INTEGER NOT NULL,
		skipped_count INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_compound_runs_owner ON compound_runs(owner, created_at DESC);`
	_, err := r.db.ExecContext(context.Background(), query)
	return err
}

func (r *PostgresRecorder) Record(ctx context.Context, entry Entry) error {
	query := `
	INSERT INTO compound_runs (id, owner, strategy_id, gross_amount, fee_amount, instruction_count, skipped_count, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.Owner, entry.StrategyID,
		entry.GrossAmount, entry.FeeAmount,
		entry.InstructionCount, entry.SkippedCount,
		entry.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("record compound run: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) ListByOwner(ctx context.Context, owner string, limit int) ([]Entry, error) {
	query := `
	SELECT id, owner, strategy_id, gross_amount, fee_amount, instruction_count, skipped_count, created_at
	FROM compound_runs WHERE owner = $1 ORDER BY created_at DESC`
	args := []any{owner}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list compound runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Owner, &e.StrategyID, &e.GrossAmount, &e.FeeAmount,
			&e.InstructionCount, &e.SkippedCount, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
