package compiler

import (
	"github.com/yieldworks/compounder/pkg/destinations"
	"github.com/yieldworks/compounder/pkg/protocol"
)

// Event types emitted by the built-in handlers.
const (
	EventSkipped          = "compound_skipped"
	EventUnallocated      = "compound_unallocated"
	EventDelegate         = "compound_delegate"
	EventSend             = "compound_send"
	EventSwap             = "compound_swap"
	EventLiquidStake      = "compound_liquid_stake"
	EventProvideLiquidity = "compound_provide_liquidity"
	EventLotteryTicket    = "compound_lottery_ticket"
	EventPlaceBet         = "compound_place_bet"
	EventDonate           = "compound_donate"
	EventVaultDeposit     = "compound_vault_deposit"
)

// Status distinguishes a compiled outcome from an intentional skip. Skips
// are first-class results, not errors and not empty successes: the caller
// can report why a destination emitted nothing.
type Status string

const (
	StatusCompiled Status = "compiled"
	StatusSkipped  Status = "skipped"
)

// Outcome is one destination's compilation result.
type Outcome struct {
	Status Status          `json:"status"`
	Bundle protocol.Bundle `json:"bundle"`
}

// Compiled wraps a bundle in a success outcome.
func Compiled(b protocol.Bundle) Outcome {
	return Outcome{Status: StatusCompiled, Bundle: b}
}

// Skipped builds the outcome for an allocation below its kind's viability
// threshold: an empty bundle carrying one explanatory event.
func Skipped(kind destinations.Kind, amount, minimum int64) Outcome {
	ev := protocol.NewEvent(EventSkipped).
		WithAttr("destination", string(kind)).
		WithIntAttr("amount", amount).
		WithIntAttr("minimum", minimum).
		WithAttr("reason", "amount below minimum viable threshold")
	return Outcome{Status: StatusSkipped, Bundle: protocol.Bundle{}.WithEvent(ev)}
}

// belowThreshold reports whether amount is under the kind's minimum viable
// allocation.
func belowThreshold(kind destinations.Kind, amount int64) (int64, bool) {
	min := destinations.MinViable(kind)
	return min, min > 0 && amount < min
}
