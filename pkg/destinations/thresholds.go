package destinations

import "errors"

// ErrInvalidParams wraps every per-variant parameter validation failure.
var ErrInvalidParams = errors.New("invalid destination parameters")

// minViable is the smallest allocation, in reward-denom minor units, a kind
// will act on. Below it the compiler skips the destination instead of
// emitting dust-sized instructions downstream protocols reject.
var minViable = map[Kind]int64{
	KindLiquidStake:      50_000,
	KindProvideLiquidity: 10_000,
	KindLotteryTicket:    1_000_000,
	KindPlaceBet:         100_000,
	KindCampaignDonate:   25_000,
}

// MinViable returns the minimum viable allocation for a kind, or zero when
// the kind has no threshold.
func MinViable(k Kind) int64 {
	return minViable[k]
}
