// Package oracle provides the synchronous price-quote lookups destination
// handlers issue before fixing instruction parameters. Quotes are pure reads:
// there is no blocking I/O of indeterminate duration in the compile path, so
// a lookup either answers or the whole compilation fails.
package oracle

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/yieldworks/compounder/pkg/protocol"
)

// NoRouteError reports that no swap route exists for a denom pair.
type NoRouteError struct {
	OfferDenom string
	AskDenom   string
}

func (e *NoRouteError) Error() string {
	return fmt.Sprintf("no swap route from %s to %s", e.OfferDenom, e.AskDenom)
}

// Oracle answers simulation queries against external pricing sources.
type Oracle interface {
	// Simulate quotes how much of askDenom the offer would yield. Returns
	// *NoRouteError when no liquidity path exists for the pair.
	Simulate(ctx context.Context, offer protocol.Coin, askDenom string) (protocol.Coin, error)
}

// StaticOracle quotes from a fixed rate table. Used in tests and as the
// fallback when no remote oracle is configured. Identity pairs quote 1:1.
type StaticOracle struct {
	mu    sync.RWMutex
	rates map[string]decimal.Decimal
}

// NewStaticOracle creates an empty rate table.
func NewStaticOracle() *StaticOracle {
	return &StaticOracle{rates: make(map[string]decimal.Decimal)}
}

// SetRate sets the units of askDenom one unit of offerDenom buys.
func (o *StaticOracle) SetRate(offerDenom, askDenom, rate string) error {
	d, err := decimal.NewFromString(rate)
	if err != nil {
		return fmt.Errorf("invalid rate %q: %w", rate, err)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rates[pairKey(offerDenom, askDenom)] = d
	return nil
}

func (o *StaticOracle) Simulate(ctx context.Context, offer protocol.Coin, askDenom string) (protocol.Coin, error) {
	if offer.Denom == askDenom {
		return protocol.NewCoin(askDenom, offer.Amount), nil
	}
	o.mu.RLock()
	rate, ok := o.rates[pairKey(offer.Denom, askDenom)]
	o.mu.RUnlock()
	if !ok {
		return protocol.Coin{}, &NoRouteError{OfferDenom: offer.Denom, AskDenom: askDenom}
	}
	out := decimal.NewFromInt(offer.Amount).Mul(rate).Truncate(0).IntPart()
	return protocol.NewCoin(askDenom, out), nil
}

func pairKey(offerDenom, askDenom string) string {
	return offerDenom + "->" + askDenom
}
