package allocator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yieldworks/compounder/pkg/allocator"
	"github.com/yieldworks/compounder/pkg/destinations"
	"github.com/yieldworks/compounder/pkg/fixedpoint"
	"github.com/yieldworks/compounder/pkg/prefs"
)

func action(d destinations.Destination, weight string) prefs.DestinationAction {
	return prefs.DestinationAction{Destination: d, Weight: fixedpoint.MustWeight(weight)}
}

func TestAllocate(t *testing.T) {
	tests := []struct {
		name    string
		weights []string
		total   int64
		want    []int64
	}{
		{"exact quarters", []string{"0.25", "0.75"}, 100, []int64{25, 75}},
		{"thirds truncate, last absorbs", []string{"0.333333333333333333", "0.333333333333333333", "0.333333333333333334"}, 100, []int64{33, 33, 34}},
		{"single destination", []string{"1"}, 7, []int64{7}},
		{"zero total", []string{"0.5", "0.5"}, 0, []int64{0, 0}},
		{"indivisible unit", []string{"0.5", "0.5"}, 1, []int64{0, 1}},
		{"zero weight entry", []string{"0", "1"}, 500, []int64{0, 500}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := make(prefs.PreferenceSet, len(tt.weights))
			for i, w := range tt.weights {
				set[i] = action(destinations.Unallocated{}, w)
			}
			got, err := allocator.Allocate(set, tt.total)
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))

			var sum int64
			for i, alloc := range got {
				assert.Equal(t, tt.want[i], alloc.Amount, "index %d", i)
				sum += alloc.Amount
			}
			assert.Equal(t, tt.total, sum, "allocations must conserve the total")
		})
	}
}

func TestAllocatePreservesOrder(t *testing.T) {
	set := prefs.PreferenceSet{
		action(destinations.SendFunds{Recipient: "cosmos1first"}, "0.1"),
		action(destinations.NativeStake{ValidatorAddress: "val2"}, "0.2"),
		action(destinations.Unallocated{}, "0.7"),
	}
	got, err := allocator.Allocate(set, 1000)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, destinations.KindSendFunds, got[0].Destination.Kind())
	assert.Equal(t, destinations.KindNativeStake, got[1].Destination.Kind())
	assert.Equal(t, destinations.KindUnallocated, got[2].Destination.Kind())
}

func TestAllocateRejectsInvalidInput(t *testing.T) {
	valid := prefs.PreferenceSet{action(destinations.Unallocated{}, "1")}

	_, err := allocator.Allocate(valid, -1)
	assert.Error(t, err)

	short := prefs.PreferenceSet{action(destinations.Unallocated{}, "0.9")}
	_, err = allocator.Allocate(short, 100)
	assert.ErrorIs(t, err, prefs.ErrInvalidPreferences)
}

func TestSplitFee(t *testing.T) {
	t.Run("one percent of a million", func(t *testing.T) {
		split, err := allocator.SplitFee(1_000_000, 100, 500, "ureward", "cosmos1owner", "cosmos1fees")
		require.NoError(t, err)
		assert.Equal(t, int64(10_000), split.Fee)
		assert.Equal(t, int64(990_000), split.Remaining)
		require.NotNil(t, split.Transfer)
		assert.Equal(t, "cosmos1fees", split.Transfer.ToAddress)
		assert.Equal(t, int64(10_000), split.Transfer.Amount[0].Amount)
	})

	t.Run("fee truncates toward zero", func(t *testing.T) {
		// 99 * 100 / 10000 = 0.99, truncated to 0.
		split, err := allocator.SplitFee(99, 100, 500, "ureward", "o", "f")
		require.NoError(t, err)
		assert.Equal(t, int64(0), split.Fee)
		assert.Equal(t, int64(99), split.Remaining)
		assert.Nil(t, split.Transfer, "zero fee must not produce a transfer")
	})

	t.Run("zero fee bps", func(t *testing.T) {
		split, err := allocator.SplitFee(1_000_000, 0, 500, "ureward", "o", "f")
		require.NoError(t, err)
		assert.Equal(t, int64(0), split.Fee)
		assert.Equal(t, int64(1_000_000), split.Remaining)
		assert.Nil(t, split.Transfer)
	})

	t.Run("fee above cap", func(t *testing.T) {
		_, err := allocator.SplitFee(1_000_000, 501, 500, "ureward", "o", "f")
		assert.ErrorIs(t, err, allocator.ErrFeeExceedsMaximum)
	})

	t.Run("no overflow on large amounts", func(t *testing.T) {
		gross := int64(9_000_000_000_000_000_000)
		split, err := allocator.SplitFee(gross, 10_000, 10_000, "ureward", "o", "f")
		require.NoError(t, err)
		assert.Equal(t, gross, split.Fee)
		assert.Equal(t, int64(0), split.Remaining)
	})

	t.Run("negative gross rejected", func(t *testing.T) {
		_, err := allocator.SplitFee(-1, 0, 500, "ureward", "o", "f")
		assert.Error(t, err)
	})
}
