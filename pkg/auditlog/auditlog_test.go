package auditlog_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yieldworks/compounder/pkg/auditlog"
)

func entry(id, owner string, gross int64, at time.Time) auditlog.Entry {
	return auditlog.Entry{
		ID:               id,
		Owner:            owner,
		StrategyID:       "autocompound-v1",
		GrossAmount:      gross,
		FeeAmount:        gross / 100,
		InstructionCount: 3,
		SkippedCount:     0,
		CreatedAt:        at,
	}
}

func TestMemoryRecorder(t *testing.T) {
	ctx := context.Background()
	rec := auditlog.NewMemoryRecorder()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, rec.Record(ctx, entry("a", "cosmos1alice", 100, base)))
	require.NoError(t, rec.Record(ctx, entry("b", "cosmos1bob", 200, base.Add(time.Hour))))
	require.NoError(t, rec.Record(ctx, entry("c", "cosmos1alice", 300, base.Add(2*time.Hour))))

	t.Run("newest first per owner", func(t *testing.T) {
		runs, err := rec.ListByOwner(ctx, "cosmos1alice", 0)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, "c", runs[0].ID)
		assert.Equal(t, "a", runs[1].ID)
	})

	t.Run("limit", func(t *testing.T) {
		runs, err := rec.ListByOwner(ctx, "cosmos1alice", 1)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, "c", runs[0].ID)
	})

	t.Run("unknown owner", func(t *testing.T) {
		runs, err := rec.ListByOwner(ctx, "cosmos1nobody", 0)
		require.NoError(t, err)
		assert.Empty(t, runs)
	})
}

func newMockRecorder(t *testing.T) (*auditlog.PostgresRecorder, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS compound_runs").
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec, err := auditlog.NewPostgresRecorder(db)
	require.NoError(t, err)
	return rec, mock
}

func TestPostgresRecorderRecord(t *testing.T) {
	rec, mock := newMockRecorder(t)
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO compound_runs").
		WithArgs("run-1", "cosmos1alice", "autocompound-v1", int64(1_000_000), int64(10_000), 3, 0, at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, rec.Record(context.Background(), entry("run-1", "cosmos1alice", 1_000_000, at)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecorderListByOwner(t *testing.T) {
	rec, mock := newMockRecorder(t)
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	cols := []string{"id", "owner", "strategy_id", "gross_amount", "fee_amount", "instruction_count", "skipped_count", "created_at"}

	t.Run("without limit", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM compound_runs WHERE owner = \\$1 ORDER BY created_at DESC").
			WithArgs("cosmos1alice").
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow("run-2", "cosmos1alice", "autocompound-v1", int64(200), int64(2), 3, 0, at.Add(time.Hour)).
				AddRow("run-1", "cosmos1alice", "autocompound-v1", int64(100), int64(1), 3, 0, at))

		runs, err := rec.ListByOwner(context.Background(), "cosmos1alice", 0)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, "run-2", runs[0].ID)
		assert.Equal(t, int64(100), runs[1].GrossAmount)
	})

	t.Run("with limit", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM compound_runs WHERE owner = \\$1 ORDER BY created_at DESC LIMIT \\$2").
			WithArgs("cosmos1alice", 1).
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow("run-2", "cosmos1alice", "autocompound-v1", int64(200), int64(2), 3, 0, at))

		runs, err := rec.ListByOwner(context.Background(), "cosmos1alice", 1)
		require.NoError(t, err)
		require.Len(t, runs, 1)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
