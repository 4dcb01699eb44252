package destinations_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yieldworks/compounder/pkg/destinations"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		dest    destinations.Destination
		wantErr bool
	}{
		{"unallocated", destinations.Unallocated{}, false},
		{"native stake", destinations.NativeStake{ValidatorAddress: "cosmosvaloper1abcdefgh"}, false},
		{"native stake missing validator", destinations.NativeStake{}, true},
		{"send funds", destinations.SendFunds{Recipient: "cosmos1recipient0000"}, false},
		{"send funds missing recipient", destinations.SendFunds{}, true},
		{"token swap", destinations.TokenSwap{TargetDenom: "uatom"}, false},
		{"token swap missing denom", destinations.TokenSwap{}, true},
		{"token swap slippage over 100%", destinations.TokenSwap{TargetDenom: "uatom", MaxSlippageBps: 10_001}, true},
		{"liquid stake", destinations.LiquidStake{}, false},
		{"provide liquidity", destinations.ProvideLiquidity{PoolID: 7}, false},
		{"provide liquidity missing pool", destinations.ProvideLiquidity{}, true},
		{"lottery ticket", destinations.LotteryTicket{LotteryID: 3, LuckyNumber: 42}, false},
		{"lottery missing id", destinations.LotteryTicket{}, true},
		{"place bet", destinations.PlaceBet{GameID: 9, Prediction: "home"}, false},
		{"place bet missing prediction", destinations.PlaceBet{GameID: 9}, true},
		{"campaign donate", destinations.CampaignDonate{FundID: 1}, false},
		{"campaign donate missing fund", destinations.CampaignDonate{}, true},
		{"vault deposit", destinations.VaultDeposit{VaultID: 2}, false},
		{"vault deposit missing vault", destinations.VaultDeposit{}, true},
		{"ibc forward", destinations.IBCForward{Channel: "channel-0", Receiver: "osmo1recv"}, false},
		{"ibc forward missing receiver", destinations.IBCForward{Channel: "channel-0"}, true},
		{"perp position", destinations.PerpPosition{MarketID: "ATOM-PERP", Leverage: 3}, false},
		{"perp position zero leverage", destinations.PerpPosition{MarketID: "ATOM-PERP"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.dest.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, destinations.ErrInvalidParams)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSpecResolve(t *testing.T) {
	t.Run("single variant", func(t *testing.T) {
		spec := destinations.Spec{NativeStake: &destinations.NativeStake{ValidatorAddress: "val"}}
		d, err := spec.Resolve()
		require.NoError(t, err)
		assert.Equal(t, destinations.KindNativeStake, d.Kind())
	})

	t.Run("empty envelope rejected", func(t *testing.T) {
		_, err := destinations.Spec{}.Resolve()
		assert.Error(t, err)
	})

	t.Run("two variants rejected", func(t *testing.T) {
		spec := destinations.Spec{
			Unallocated: &destinations.Unallocated{},
			SendFunds:   &destinations.SendFunds{Recipient: "x"},
		}
		_, err := spec.Resolve()
		assert.Error(t, err)
	})
}

func TestWrapCoversEveryKind(t *testing.T) {
	samples := []destinations.Destination{
		destinations.Unallocated{},
		destinations.NativeStake{ValidatorAddress: "val"},
		destinations.SendFunds{Recipient: "acct"},
		destinations.TokenSwap{TargetDenom: "uatom"},
		destinations.LiquidStake{},
		destinations.ProvideLiquidity{PoolID: 1},
		destinations.LotteryTicket{LotteryID: 1},
		destinations.PlaceBet{GameID: 1, Prediction: "yes"},
		destinations.CampaignDonate{FundID: 1},
		destinations.VaultDeposit{VaultID: 1},
		destinations.IBCForward{Channel: "channel-0", Receiver: "r"},
		destinations.PerpPosition{MarketID: "m", Leverage: 1},
	}
	require.Len(t, samples, len(destinations.AllKinds()))

	seen := map[destinations.Kind]bool{}
	for _, d := range samples {
		spec := destinations.Wrap(d)

		back, err := spec.Resolve()
		require.NoError(t, err, d.Kind())
		assert.Equal(t, d, back)
		seen[d.Kind()] = true
	}
	for _, k := range destinations.AllKinds() {
		assert.True(t, seen[k], "kind %s missing a sample", k)
	}
}

func TestSpecJSONShape(t *testing.T) {
	spec := destinations.Spec{TokenSwap: &destinations.TokenSwap{TargetDenom: "uosmo", MaxSlippageBps: 50}}
	data, err := json.Marshal(spec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"token_swap":{"target_denom":"uosmo","max_slippage_bps":50}}`, string(data))
}

func TestMinViable(t *testing.T) {
	assert.Equal(t, int64(1_000_000), destinations.MinViable(destinations.KindLotteryTicket))
	assert.Equal(t, int64(50_000), destinations.MinViable(destinations.KindLiquidStake))
	assert.Equal(t, int64(0), destinations.MinViable(destinations.KindNativeStake))
	assert.Equal(t, int64(0), destinations.MinViable(destinations.KindUnallocated))
}
