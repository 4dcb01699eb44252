// Package destinations defines the closed set of actions a user can route
// reward share into. Each kind carries exactly the parameters its integration
// needs. The instruction compiler and the grant deriver are both keyed by this
// set; a kind without a registered handler is a wiring bug, not a runtime
// fallback.
package destinations

import "fmt"

// Kind identifies one supported destination integration.
type Kind string

const (
	KindUnallocated      Kind = "unallocated"
	KindNativeStake      Kind = "native_stake"
	KindSendFunds        Kind = "send_funds"
	KindTokenSwap        Kind = "token_swap"
	KindLiquidStake      Kind = "liquid_stake"
	KindProvideLiquidity Kind = "provide_liquidity"
	KindLotteryTicket    Kind = "lottery_ticket"
	KindPlaceBet         Kind = "place_bet"
	KindCampaignDonate   Kind = "campaign_donate"
	KindVaultDeposit     Kind = "vault_deposit"
	KindIBCForward       Kind = "ibc_forward"
	KindPerpPosition     Kind = "perp_position"
)

// AllKinds lists every supported kind in a stable order. Tests iterate this
// to assert both compiler sides cover the full set.
func AllKinds() []Kind {
	return []Kind{
		KindUnallocated,
		KindNativeStake,
		KindSendFunds,
		KindTokenSwap,
		KindLiquidStake,
		KindProvideLiquidity,
		KindLotteryTicket,
		KindPlaceBet,
		KindCampaignDonate,
		KindVaultDeposit,
		KindIBCForward,
		KindPerpPosition,
	}
}

// Destination is the closed union of destination parameter sets. Only types
// in this package implement it.
type Destination interface {
	Kind() Kind
	// Validate checks the variant's own parameters, not chain state.
	Validate() error

	isDestination()
}

// Unallocated is the explicit no-op destination: its share of a reward is
// intentionally left untouched.
type Unallocated struct{}

func (Unallocated) Kind() Kind      { return KindUnallocated }
func (Unallocated) Validate() error { return nil }
func (Unallocated) isDestination()  {}

// NativeStake delegates to a validator through the staking module.
type NativeStake struct {
	ValidatorAddress string `json:"validator_address"`
}

func (d NativeStake) Kind() Kind { return KindNativeStake }
func (d NativeStake) Validate() error {
	if d.ValidatorAddress == "" {
		return fmt.Errorf("%w: missing validator address", ErrInvalidParams)
	}
	return nil
}
func (NativeStake) isDestination() {}

// SendFunds transfers the allocated amount to another account.
type SendFunds struct {
	Recipient string `json:"recipient"`
}

func (d SendFunds) Kind() Kind { return KindSendFunds }
func (d SendFunds) Validate() error {
	if d.Recipient == "" {
		return fmt.Errorf("%w: missing recipient", ErrInvalidParams)
	}
	return nil
}
func (SendFunds) isDestination() {}

// TokenSwap swaps the allocated amount into a target denom and keeps it.
type TokenSwap struct {
	TargetDenom string `json:"target_denom"`
	// MaxSlippageBps bounds how far below the quoted amount the swap may
	// settle. Zero means the catalog default applies.
	MaxSlippageBps uint32 `json:"max_slippage_bps,omitempty"`
}

func (d TokenSwap) Kind() Kind { return KindTokenSwap }
func (d TokenSwap) Validate() error {
	if d.TargetDenom == "" {
		return fmt.Errorf("%w: missing target denom", ErrInvalidParams)
	}
	if d.MaxSlippageBps > 10_000 {
		return fmt.Errorf("%w: slippage %d bps exceeds 100%%", ErrInvalidParams, d.MaxSlippageBps)
	}
	return nil
}
func (TokenSwap) isDestination() {}

// LiquidStake mints the chain's liquid-staked token with the allocated
// amount, swapping into the accepted denom first when necessary.
type LiquidStake struct{}

func (LiquidStake) Kind() Kind      { return KindLiquidStake }
func (LiquidStake) Validate() error { return nil }
func (LiquidStake) isDestination()  {}

// ProvideLiquidity joins a liquidity pool with the allocated amount.
type ProvideLiquidity struct {
	PoolID uint64 `json:"pool_id"`
}

func (d ProvideLiquidity) Kind() Kind { return KindProvideLiquidity }
func (d ProvideLiquidity) Validate() error {
	if d.PoolID == 0 {
		return fmt.Errorf("%w: missing pool id", ErrInvalidParams)
	}
	return nil
}
func (ProvideLiquidity) isDestination() {}

// LotteryTicket buys tickets in a lottery round.
type LotteryTicket struct {
	LotteryID   uint64 `json:"lottery_id"`
	LuckyNumber uint32 `json:"lucky_number"`
}

func (d LotteryTicket) Kind() Kind { return KindLotteryTicket }
func (d LotteryTicket) Validate() error {
	if d.LotteryID == 0 {
		return fmt.Errorf("%w: missing lottery id", ErrInvalidParams)
	}
	return nil
}
func (LotteryTicket) isDestination() {}

// PlaceBet stakes the allocated amount on a prediction game outcome.
type PlaceBet struct {
	GameID     uint64 `json:"game_id"`
	Prediction string `json:"prediction"`
}

func (d PlaceBet) Kind() Kind { return KindPlaceBet }
func (d PlaceBet) Validate() error {
	if d.GameID == 0 {
		return fmt.Errorf("%w: missing game id", ErrInvalidParams)
	}
	if d.Prediction == "" {
		return fmt.Errorf("%w: missing prediction", ErrInvalidParams)
	}
	return nil
}
func (PlaceBet) isDestination() {}

// CampaignDonate donates the allocated amount to a fundraising campaign.
type CampaignDonate struct {
	FundID uint64 `json:"fund_id"`
}

func (d CampaignDonate) Kind() Kind { return KindCampaignDonate }
func (d CampaignDonate) Validate() error {
	if d.FundID == 0 {
		return fmt.Errorf("%w: missing fund id", ErrInvalidParams)
	}
	return nil
}
func (CampaignDonate) isDestination() {}

// VaultDeposit deposits into an auto-strategy vault.
type VaultDeposit struct {
	VaultID uint64 `json:"vault_id"`
}

func (d VaultDeposit) Kind() Kind { return KindVaultDeposit }
func (d VaultDeposit) Validate() error {
	if d.VaultID == 0 {
		return fmt.Errorf("%w: missing vault id", ErrInvalidParams)
	}
	return nil
}
func (VaultDeposit) isDestination() {}

// IBCForward forwards the allocated amount over an IBC channel. The
// integration is catalogued but not yet available; compiling it fails with
// a NotImplemented error rather than silently dropping funds.
type IBCForward struct {
	Channel  string `json:"channel"`
	Receiver string `json:"receiver"`
}

func (d IBCForward) Kind() Kind { return KindIBCForward }
func (d IBCForward) Validate() error {
	if d.Channel == "" || d.Receiver == "" {
		return fmt.Errorf("%w: missing channel or receiver", ErrInvalidParams)
	}
	return nil
}
func (IBCForward) isDestination() {}

// PerpPosition opens a perpetual position. Catalogued but not yet available.
type PerpPosition struct {
	MarketID string `json:"market_id"`
	Leverage uint32 `json:"leverage"`
}

func (d PerpPosition) Kind() Kind { return KindPerpPosition }
func (d PerpPosition) Validate() error {
	if d.MarketID == "" {
		return fmt.Errorf("%w: missing market id", ErrInvalidParams)
	}
	if d.Leverage == 0 {
		return fmt.Errorf("%w: leverage must be positive", ErrInvalidParams)
	}
	return nil
}
func (PerpPosition) isDestination() {}
