package prefs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists preference records in SQLite. Preference sets and
// inactive status are stored as JSON columns; the (strategy_id, owner) pair
// is the upsert key.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps db and runs the schema migration.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS preference_records (
		id TEXT NOT NULL,
		strategy_id TEXT NOT NULL,
		owner TEXT NOT NULL,
		preferences JSON NOT NULL,
		integration_blob JSON,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		inactive JSON,
		seq INTEGER,
		PRIMARY KEY (strategy_id, owner)
	);
	CREATE INDEX IF NOT EXISTS idx_preference_records_owner ON preference_records(owner);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

func (s *SQLiteStore) Put(ctx context.Context, record *PreferenceRecord) error {
	prefJSON, err := json.Marshal(record.Preferences)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	var inactiveJSON []byte
	if record.Inactive != nil {
		inactiveJSON, err = json.Marshal(record.Inactive)
		if err != nil {
			return fmt.Errorf("encode inactive status: %w", err)
		}
	}

	query := `
	INSERT INTO preference_records (id, strategy_id, owner, preferences, integration_blob, created_at, updated_at, inactive, seq)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM preference_records))
	ON CONFLICT (strategy_id, owner) DO UPDATE SET
		preferences = excluded.preferences,
		integration_blob = excluded.integration_blob,
		updated_at = excluded.updated_at,
		inactive = excluded.inactive`
	_, err = s.db.ExecContext(ctx, query,
		record.ID, record.StrategyID, record.Owner,
		string(prefJSON), nullable(record.IntegrationBlob),
		record.CreatedAt.UTC().Format(time.RFC3339Nano),
		record.UpdatedAt.UTC().Format(time.RFC3339Nano),
		nullable(inactiveJSON),
	)
	if err != nil {
		return fmt.Errorf("persist preference record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, strategyID, owner string) (*PreferenceRecord, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT id, strategy_id, owner, preferences, integration_blob, created_at, updated_at, inactive
	FROM preference_records WHERE strategy_id = ? AND owner = ?`, strategyID, owner)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get preference record: %w", err)
	}
	return r, nil
}

func (s *SQLiteStore) ListByStrategy(ctx context.Context, strategyID string, filter StatusFilter, limit int) ([]*PreferenceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, strategy_id, owner, preferences, integration_blob, created_at, updated_at, inactive
	FROM preference_records WHERE strategy_id = ? ORDER BY seq`, strategyID)
	if err != nil {
		return nil, fmt.Errorf("list by strategy: %w", err)
	}
	return collect(rows, filter, limit)
}

func (s *SQLiteStore) ListByOwner(ctx context.Context, owner string, filter StatusFilter) ([]*PreferenceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, strategy_id, owner, preferences, integration_blob, created_at, updated_at, inactive
	FROM preference_records WHERE owner = ? ORDER BY strategy_id`, owner)
	if err != nil {
		return nil, fmt.Errorf("list by owner: %w", err)
	}
	return collect(rows, filter, 0)
}

// The status filter is applied in Go, not SQL: status is derived from the
// inactive JSON column and the derivation lives in one place.
func collect(rows *sql.Rows, filter StatusFilter, limit int) ([]*PreferenceRecord, error) {
	defer func() { _ = rows.Close() }()

	var out []*PreferenceRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		if !filter.Matches(r) {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*PreferenceRecord, error) {
	var (
		r                      PreferenceRecord
		prefJSON               string
		blobJSON, inactiveJSON sql.NullString
		createdAt, updatedAt   string
	)
	if err := row.Scan(&r.ID, &r.StrategyID, &r.Owner, &prefJSON, &blobJSON, &createdAt, &updatedAt, &inactiveJSON); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(prefJSON), &r.Preferences); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	if blobJSON.Valid {
		r.IntegrationBlob = json.RawMessage(blobJSON.String)
	}
	if inactiveJSON.Valid {
		var inactive InactiveStatus
		if err := json.Unmarshal([]byte(inactiveJSON.String), &inactive); err != nil {
			return nil, fmt.Errorf("decode inactive status: %w", err)
		}
		r.Inactive = &inactive
	}
	var err error
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}
	if r.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("decode updated_at: %w", err)
	}
	return &r, nil
}

func nullable(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
