package compiler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yieldworks/compounder/pkg/destinations"
	"github.com/yieldworks/compounder/pkg/grants"
	"github.com/yieldworks/compounder/pkg/protocol"
)

// swapExec is the router contract's execute payload.
type swapExec struct {
	Swap swapBody `json:"swap"`
}

type swapBody struct {
	AskDenom string `json:"ask_denom"`
	// MinOut protects against the pool moving between quote and broadcast.
	MinOut int64 `json:"min_out,string"`
}

// buildSwap quotes offer against askDenom and returns the router message
// together with the quoted output. The quote is a synchronous pure read; if
// it fails the caller's whole compilation fails with it.
func buildSwap(ctx context.Context, env Context, offer protocol.Coin, askDenom string, slippageBps uint32) (protocol.MsgExecuteContract, protocol.Coin, error) {
	quote, err := env.Oracle.Simulate(ctx, offer, askDenom)
	if err != nil {
		return protocol.MsgExecuteContract{}, protocol.Coin{}, fmt.Errorf("quote %s for %d%s: %w", askDenom, offer.Amount, offer.Denom, err)
	}

	if slippageBps == 0 {
		slippageBps = env.Catalog.Swap.DefaultSlippageBps
	}
	// Full-precision multiply before dividing: quote*bps can overflow int64
	// for large micro-denom amounts.
	scaled := decimal.NewFromInt(quote.Amount).Mul(decimal.NewFromInt(int64(protocol.BpsScale - slippageBps)))
	quotient, _ := scaled.QuoRem(decimal.NewFromInt(protocol.BpsScale), 0)
	minOut := quotient.IntPart()

	payload, err := json.Marshal(swapExec{Swap: swapBody{AskDenom: askDenom, MinOut: minOut}})
	if err != nil {
		return protocol.MsgExecuteContract{}, protocol.Coin{}, fmt.Errorf("encode swap payload: %w", err)
	}
	msg := protocol.MsgExecuteContract{
		Sender:   env.Owner,
		Contract: env.Catalog.Swap.RouterContract,
		Msg:      payload,
		Funds:    []protocol.Coin{offer},
	}
	return msg, quote, nil
}

// routerScope is the authorization scope every dependent swap step needs.
func routerScope(env Context, req grants.Request) grants.AuthorizationScope {
	return grants.AuthorizationScope{
		Grantor:    req.Grantor,
		Grantee:    req.Grantee,
		TargetType: grants.TargetContract,
		Target:     env.Catalog.Swap.RouterContract,
		Methods:    []string{MethodSwap},
		Expiration: req.Expiration,
	}
}

// contractScope builds a scope for a destination's final contract call.
func contractScope(contract, method string, req grants.Request) grants.AuthorizationScope {
	return grants.AuthorizationScope{
		Grantor:    req.Grantor,
		Grantee:    req.Grantee,
		TargetType: grants.TargetContract,
		Target:     contract,
		Methods:    []string{method},
		Expiration: req.Expiration,
	}
}

// tokenSwapHandler swaps the allocation into a target denom the owner keeps.
type tokenSwapHandler struct{}

func (tokenSwapHandler) Kind() destinations.Kind { return destinations.KindTokenSwap }

func (tokenSwapHandler) Compile(ctx context.Context, env Context, dest destinations.Destination, amount int64) (Outcome, error) {
	swap := dest.(destinations.TokenSwap)

	offer := protocol.NewCoin(env.Catalog.RewardDenom, amount)
	msg, quote, err := buildSwap(ctx, env, offer, swap.TargetDenom, swap.MaxSlippageBps)
	if err != nil {
		return Outcome{}, err
	}
	ev := protocol.NewEvent(EventSwap).
		WithAttr("offer_denom", offer.Denom).
		WithIntAttr("offer_amount", offer.Amount).
		WithAttr("ask_denom", swap.TargetDenom).
		WithIntAttr("quoted_amount", quote.Amount)
	return Compiled(protocol.NewBundle(msg).WithEvent(ev)), nil
}

func (tokenSwapHandler) Scopes(env Context, _ destinations.Destination, req grants.Request) ([]grants.AuthorizationScope, error) {
	return []grants.AuthorizationScope{routerScope(env, req)}, nil
}
