package compiler

import (
	"context"
	"fmt"

	"github.com/yieldworks/compounder/pkg/destinations"
	"github.com/yieldworks/compounder/pkg/grants"
	"github.com/yieldworks/compounder/pkg/protocol"
)

// Method keys used in authorization scopes. Module scopes use the message
// family name; contract scopes use the execute-payload key.
const (
	MethodDelegate         = "delegate"
	MethodSend             = "send"
	MethodSwap             = "swap"
	MethodBond             = "bond"
	MethodProvideLiquidity = "provide_liquidity"
	MethodBuyTicket        = "buy_ticket"
	MethodPlaceBet         = "place_bet"
	MethodDonate           = "donate"
	MethodDeposit          = "deposit"
)

// unallocatedHandler is the explicit no-op: the share is intentionally left
// untouched. It emits no instructions and, as the one documented empty-grant
// case, needs no authorization.
type unallocatedHandler struct{}

func (unallocatedHandler) Kind() destinations.Kind { return destinations.KindUnallocated }

func (unallocatedHandler) Compile(_ context.Context, _ Context, _ destinations.Destination, amount int64) (Outcome, error) {
	ev := protocol.NewEvent(EventUnallocated).WithIntAttr("amount", amount)
	return Compiled(protocol.Bundle{}.WithEvent(ev)), nil
}

func (unallocatedHandler) Scopes(_ Context, _ destinations.Destination, _ grants.Request) ([]grants.AuthorizationScope, error) {
	return nil, nil
}

// nativeStakeHandler delegates the allocation to the chosen validator.
type nativeStakeHandler struct{}

func (nativeStakeHandler) Kind() destinations.Kind { return destinations.KindNativeStake }

func (nativeStakeHandler) Compile(_ context.Context, env Context, dest destinations.Destination, amount int64) (Outcome, error) {
	stake := dest.(destinations.NativeStake)

	msg := protocol.MsgDelegate{
		DelegatorAddress: env.Owner,
		ValidatorAddress: stake.ValidatorAddress,
		Amount:           protocol.NewCoin(env.Catalog.RewardDenom, amount),
	}
	ev := protocol.NewEvent(EventDelegate).
		WithAttr("validator", stake.ValidatorAddress).
		WithIntAttr("amount", amount)
	return Compiled(protocol.NewBundle(msg).WithEvent(ev)), nil
}

func (nativeStakeHandler) Scopes(env Context, dest destinations.Destination, req grants.Request) ([]grants.AuthorizationScope, error) {
	stake := dest.(destinations.NativeStake)
	return []grants.AuthorizationScope{{
		Grantor:    req.Grantor,
		Grantee:    req.Grantee,
		TargetType: grants.TargetModule,
		Target:     protocol.RouteStaking,
		Methods:    []string{MethodDelegate},
		AllowList:  []string{stake.ValidatorAddress},
		Expiration: req.Expiration,
	}}, nil
}

// sendFundsHandler forwards the allocation to another account.
type sendFundsHandler struct{}

func (sendFundsHandler) Kind() destinations.Kind { return destinations.KindSendFunds }

func (sendFundsHandler) Compile(_ context.Context, env Context, dest destinations.Destination, amount int64) (Outcome, error) {
	send := dest.(destinations.SendFunds)

	msg := protocol.MsgSend{
		FromAddress: env.Owner,
		ToAddress:   send.Recipient,
		Amount:      []protocol.Coin{protocol.NewCoin(env.Catalog.RewardDenom, amount)},
	}
	ev := protocol.NewEvent(EventSend).
		WithAttr("recipient", send.Recipient).
		WithIntAttr("amount", amount)
	return Compiled(protocol.NewBundle(msg).WithEvent(ev)), nil
}

func (sendFundsHandler) Scopes(_ Context, _ destinations.Destination, req grants.Request) ([]grants.AuthorizationScope, error) {
	return []grants.AuthorizationScope{{
		Grantor:    req.Grantor,
		Grantee:    req.Grantee,
		TargetType: grants.TargetModule,
		Target:     protocol.RouteBank,
		Methods:    []string{MethodSend},
		Expiration: req.Expiration,
	}}, nil
}

// unavailableHandler covers kinds that are catalogued but whose integration
// is not yet live. Both sides fail loudly: an allocation to one of these is
// a hard compile error, and no grant can be derived for it either.
type unavailableHandler struct {
	kind destinations.Kind
}

func (h unavailableHandler) Kind() destinations.Kind { return h.kind }

func (h unavailableHandler) Compile(_ context.Context, _ Context, _ destinations.Destination, _ int64) (Outcome, error) {
	return Outcome{}, fmt.Errorf("%w: %s", ErrNotImplemented, h.kind)
}

func (h unavailableHandler) Scopes(_ Context, _ destinations.Destination, _ grants.Request) ([]grants.AuthorizationScope, error) {
	return nil, fmt.Errorf("%w: %s", ErrNotImplemented, h.kind)
}
