package prefs_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/yieldworks/compounder/pkg/destinations"
	"github.com/yieldworks/compounder/pkg/prefs"
)

func newRecord(t *testing.T, strategyID, owner string) *prefs.PreferenceRecord {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &prefs.PreferenceRecord{
		ID:         uuid.NewString(),
		Owner:      owner,
		StrategyID: strategyID,
		Preferences: prefs.PreferenceSet{
			action(destinations.NativeStake{ValidatorAddress: "val1"}, "1"),
		},
		IntegrationBlob: json.RawMessage(`{"note":"x"}`),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// runStoreTests exercises the Store contract against any implementation.
func runStoreTests(t *testing.T, store prefs.Store) {
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		_, err := store.Get(ctx, "strat-a", "cosmos1nobody")
		assert.ErrorIs(t, err, prefs.ErrNotFound)
	})

	t.Run("put and get", func(t *testing.T) {
		rec := newRecord(t, "strat-a", "cosmos1alice")
		require.NoError(t, store.Put(ctx, rec))

		got, err := store.Get(ctx, "strat-a", "cosmos1alice")
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
		assert.Equal(t, rec.Preferences[0].Destination, got.Preferences[0].Destination)
		assert.JSONEq(t, string(rec.IntegrationBlob), string(got.IntegrationBlob))
		assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("put is upsert", func(t *testing.T) {
		rec := newRecord(t, "strat-a", "cosmos1alice")
		rec.Preferences = prefs.PreferenceSet{
			action(destinations.SendFunds{Recipient: "cosmos1bob"}, "1"),
		}
		require.NoError(t, store.Put(ctx, rec))

		got, err := store.Get(ctx, "strat-a", "cosmos1alice")
		require.NoError(t, err)
		assert.Equal(t, destinations.KindSendFunds, got.Preferences[0].Destination.Kind())
	})

	t.Run("list by strategy insertion order", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, newRecord(t, "strat-b", "cosmos1carol")))
		require.NoError(t, store.Put(ctx, newRecord(t, "strat-b", "cosmos1dave")))
		require.NoError(t, store.Put(ctx, newRecord(t, "strat-b", "cosmos1erin")))

		records, err := store.ListByStrategy(ctx, "strat-b", prefs.StatusFilter{}, 0)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "cosmos1carol", records[0].Owner)
		assert.Equal(t, "cosmos1dave", records[1].Owner)
		assert.Equal(t, "cosmos1erin", records[2].Owner)
	})

	t.Run("list by strategy with limit", func(t *testing.T) {
		records, err := store.ListByStrategy(ctx, "strat-b", prefs.StatusFilter{}, 2)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("status filter", func(t *testing.T) {
		cancelled := newRecord(t, "strat-b", "cosmos1dave")
		cancelled.Inactive = &prefs.InactiveStatus{
			EndType: prefs.EndCancellation,
			EndedAt: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		}
		require.NoError(t, store.Put(ctx, cancelled))

		active, err := store.ListByStrategy(ctx, "strat-b", prefs.StatusFilter{Status: prefs.StatusActive}, 0)
		require.NoError(t, err)
		assert.Len(t, active, 2)

		gone, err := store.ListByStrategy(ctx, "strat-b", prefs.StatusFilter{Status: prefs.StatusCancelled}, 0)
		require.NoError(t, err)
		require.Len(t, gone, 1)
		assert.Equal(t, "cosmos1dave", gone[0].Owner)
	})

	t.Run("records are isolated from caller mutation", func(t *testing.T) {
		rec := newRecord(t, "strat-iso", "cosmos1frank")
		rec.Inactive = &prefs.InactiveStatus{
			EndType: prefs.EndCancellation,
			EndedAt: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		}
		require.NoError(t, store.Put(ctx, rec))

		// Mutating the put record after the fact must not reach the store.
		rec.Preferences[0] = action(destinations.SendFunds{Recipient: "cosmos1mallory"}, "1")
		rec.Inactive.EndType = prefs.EndExpiry

		got, err := store.Get(ctx, "strat-iso", "cosmos1frank")
		require.NoError(t, err)
		assert.Equal(t, destinations.KindNativeStake, got.Preferences[0].Destination.Kind())
		require.NotNil(t, got.Inactive)
		assert.Equal(t, prefs.EndCancellation, got.Inactive.EndType)

		// Nor may mutating a read result change stored state.
		got.Preferences[0] = action(destinations.SendFunds{Recipient: "cosmos1mallory"}, "1")
		got.Inactive.EndType = prefs.EndExpiry

		again, err := store.Get(ctx, "strat-iso", "cosmos1frank")
		require.NoError(t, err)
		assert.Equal(t, destinations.KindNativeStake, again.Preferences[0].Destination.Kind())
		assert.Equal(t, prefs.EndCancellation, again.Inactive.EndType)
	})

	t.Run("list by owner spans strategies", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, newRecord(t, "strat-c", "cosmos1carol")))

		records, err := store.ListByOwner(ctx, "cosmos1carol", prefs.StatusFilter{})
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "strat-b", records[0].StrategyID)
		assert.Equal(t, "strat-c", records[1].StrategyID)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, prefs.NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	db, err := sql.Open("sqlite", "file:prefs_test?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	// Shared-cache memory DBs vanish when the last connection closes.
	db.SetMaxIdleConns(1)

	store, err := prefs.NewSQLiteStore(db)
	require.NoError(t, err)
	runStoreTests(t, store)
}
