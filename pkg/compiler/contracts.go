package compiler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yieldworks/compounder/pkg/destinations"
	"github.com/yieldworks/compounder/pkg/grants"
	"github.com/yieldworks/compounder/pkg/protocol"
)

// Execute payloads for the integration contracts. These mirror each
// contract's published schema; the compiler fills them and never reads them
// back.

type bondExec struct {
	Bond struct{} `json:"bond"`
}

type provideLiquidityExec struct {
	ProvideLiquidity provideLiquidityBody `json:"provide_liquidity"`
}

type provideLiquidityBody struct {
	PoolID uint64 `json:"pool_id"`
}

type buyTicketExec struct {
	BuyTicket buyTicketBody `json:"buy_ticket"`
}

type buyTicketBody struct {
	LotteryID   uint64 `json:"lottery_id"`
	LuckyNumber uint32 `json:"lucky_number"`
}

type placeBetExec struct {
	PlaceBet placeBetBody `json:"place_bet"`
}

type placeBetBody struct {
	GameID     uint64 `json:"game_id"`
	Prediction string `json:"prediction"`
}

type donateExec struct {
	Donate donateBody `json:"donate"`
}

type donateBody struct {
	FundID uint64 `json:"fund_id"`
}

type depositExec struct {
	Deposit depositBody `json:"deposit"`
}

type depositBody struct {
	VaultID uint64 `json:"vault_id"`
}

func executeMsg(env Context, contract string, payload any, funds ...protocol.Coin) (protocol.MsgExecuteContract, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return protocol.MsgExecuteContract{}, fmt.Errorf("encode contract payload: %w", err)
	}
	return protocol.MsgExecuteContract{
		Sender:   env.Owner,
		Contract: contract,
		Msg:      raw,
		Funds:    funds,
	}, nil
}

// liquidStakeHandler mints the chain's liquid-staked token, swapping the
// allocation into the bond denom first when the two differ.
type liquidStakeHandler struct{}

func (liquidStakeHandler) Kind() destinations.Kind { return destinations.KindLiquidStake }

func (liquidStakeHandler) Compile(ctx context.Context, env Context, dest destinations.Destination, amount int64) (Outcome, error) {
	if min, below := belowThreshold(dest.Kind(), amount); below {
		return Skipped(dest.Kind(), amount, min), nil
	}
	cfg := env.Catalog.LiquidStake

	deposit := protocol.NewCoin(env.Catalog.RewardDenom, amount)
	var swapMsg *protocol.MsgExecuteContract
	if cfg.BondDenom != env.Catalog.RewardDenom {
		msg, quote, err := buildSwap(ctx, env, deposit, cfg.BondDenom, 0)
		if err != nil {
			return Outcome{}, err
		}
		swapMsg = &msg
		deposit = quote
	}

	mint, err := executeMsg(env, cfg.Contract, bondExec{}, deposit)
	if err != nil {
		return Outcome{}, err
	}
	ev := protocol.NewEvent(EventLiquidStake).
		WithIntAttr("amount", amount).
		WithAttr("bond_denom", deposit.Denom).
		WithIntAttr("bond_amount", deposit.Amount).
		WithAttr("liquid_denom", cfg.LiquidDenom)

	bundle := protocol.NewBundle(mint).WithEvent(ev)
	if swapMsg != nil {
		bundle = bundle.Prepend(*swapMsg)
	}
	return Compiled(bundle), nil
}

func (liquidStakeHandler) Scopes(env Context, _ destinations.Destination, req grants.Request) ([]grants.AuthorizationScope, error) {
	cfg := env.Catalog.LiquidStake
	scopes := []grants.AuthorizationScope{contractScope(cfg.Contract, MethodBond, req)}
	if cfg.BondDenom != env.Catalog.RewardDenom {
		scopes = append(scopes, routerScope(env, req))
	}
	return scopes, nil
}

// provideLiquidityHandler joins a pool: half the allocation is swapped into
// the pool's paired denom, then both sides are deposited.
type provideLiquidityHandler struct{}

func (provideLiquidityHandler) Kind() destinations.Kind { return destinations.KindProvideLiquidity }

func (provideLiquidityHandler) Compile(ctx context.Context, env Context, dest destinations.Destination, amount int64) (Outcome, error) {
	if min, below := belowThreshold(dest.Kind(), amount); below {
		return Skipped(dest.Kind(), amount, min), nil
	}
	pool := dest.(destinations.ProvideLiquidity)
	pairedDenom := env.Catalog.PoolPairedDenom(pool.PoolID)
	if pairedDenom == env.Catalog.RewardDenom {
		return Outcome{}, fmt.Errorf("pool %d pairs the reward denom with itself", pool.PoolID)
	}

	// Swap half, keep half: the join needs both sides of the pair.
	half := amount / 2
	keep := protocol.NewCoin(env.Catalog.RewardDenom, amount-half)
	swapMsg, quote, err := buildSwap(ctx, env, protocol.NewCoin(env.Catalog.RewardDenom, half), pairedDenom, 0)
	if err != nil {
		return Outcome{}, err
	}

	join, err := executeMsg(env, env.Catalog.Pool.Contract,
		provideLiquidityExec{ProvideLiquidity: provideLiquidityBody{PoolID: pool.PoolID}},
		keep, quote)
	if err != nil {
		return Outcome{}, err
	}
	ev := protocol.NewEvent(EventProvideLiquidity).
		WithIntAttr("pool_id", int64(pool.PoolID)).
		WithIntAttr("amount", amount).
		WithAttr("paired_denom", pairedDenom).
		WithIntAttr("paired_amount", quote.Amount)

	return Compiled(protocol.NewBundle(join).WithEvent(ev).Prepend(swapMsg)), nil
}

func (provideLiquidityHandler) Scopes(env Context, _ destinations.Destination, req grants.Request) ([]grants.AuthorizationScope, error) {
	return []grants.AuthorizationScope{
		routerScope(env, req),
		contractScope(env.Catalog.Pool.Contract, MethodProvideLiquidity, req),
	}, nil
}

// lotteryTicketHandler buys lottery tickets, swapping into the ticket denom
// first when needed.
type lotteryTicketHandler struct{}

func (lotteryTicketHandler) Kind() destinations.Kind { return destinations.KindLotteryTicket }

func (lotteryTicketHandler) Compile(ctx context.Context, env Context, dest destinations.Destination, amount int64) (Outcome, error) {
	if min, below := belowThreshold(dest.Kind(), amount); below {
		return Skipped(dest.Kind(), amount, min), nil
	}
	ticket := dest.(destinations.LotteryTicket)
	cfg := env.Catalog.Lottery

	stake := protocol.NewCoin(env.Catalog.RewardDenom, amount)
	var swapMsg *protocol.MsgExecuteContract
	if cfg.TicketDenom != env.Catalog.RewardDenom {
		msg, quote, err := buildSwap(ctx, env, stake, cfg.TicketDenom, 0)
		if err != nil {
			return Outcome{}, err
		}
		swapMsg = &msg
		stake = quote
	}

	buy, err := executeMsg(env, cfg.Contract,
		buyTicketExec{BuyTicket: buyTicketBody{LotteryID: ticket.LotteryID, LuckyNumber: ticket.LuckyNumber}},
		stake)
	if err != nil {
		return Outcome{}, err
	}
	ev := protocol.NewEvent(EventLotteryTicket).
		WithIntAttr("lottery_id", int64(ticket.LotteryID)).
		WithIntAttr("lucky_number", int64(ticket.LuckyNumber)).
		WithIntAttr("amount", amount)

	bundle := protocol.NewBundle(buy).WithEvent(ev)
	if swapMsg != nil {
		bundle = bundle.Prepend(*swapMsg)
	}
	return Compiled(bundle), nil
}

func (lotteryTicketHandler) Scopes(env Context, _ destinations.Destination, req grants.Request) ([]grants.AuthorizationScope, error) {
	cfg := env.Catalog.Lottery
	scopes := []grants.AuthorizationScope{contractScope(cfg.Contract, MethodBuyTicket, req)}
	if cfg.TicketDenom != env.Catalog.RewardDenom {
		scopes = append(scopes, routerScope(env, req))
	}
	return scopes, nil
}

// placeBetHandler stakes the allocation on a prediction-game outcome.
type placeBetHandler struct{}

func (placeBetHandler) Kind() destinations.Kind { return destinations.KindPlaceBet }

func (placeBetHandler) Compile(ctx context.Context, env Context, dest destinations.Destination, amount int64) (Outcome, error) {
	if min, below := belowThreshold(dest.Kind(), amount); below {
		return Skipped(dest.Kind(), amount, min), nil
	}
	bet := dest.(destinations.PlaceBet)
	cfg := env.Catalog.Betting

	stake := protocol.NewCoin(env.Catalog.RewardDenom, amount)
	var swapMsg *protocol.MsgExecuteContract
	if cfg.BetDenom != env.Catalog.RewardDenom {
		msg, quote, err := buildSwap(ctx, env, stake, cfg.BetDenom, 0)
		if err != nil {
			return Outcome{}, err
		}
		swapMsg = &msg
		stake = quote
	}

	place, err := executeMsg(env, cfg.Contract,
		placeBetExec{PlaceBet: placeBetBody{GameID: bet.GameID, Prediction: bet.Prediction}},
		stake)
	if err != nil {
		return Outcome{}, err
	}
	ev := protocol.NewEvent(EventPlaceBet).
		WithIntAttr("game_id", int64(bet.GameID)).
		WithAttr("prediction", bet.Prediction).
		WithIntAttr("amount", amount)

	bundle := protocol.NewBundle(place).WithEvent(ev)
	if swapMsg != nil {
		bundle = bundle.Prepend(*swapMsg)
	}
	return Compiled(bundle), nil
}

func (placeBetHandler) Scopes(env Context, _ destinations.Destination, req grants.Request) ([]grants.AuthorizationScope, error) {
	cfg := env.Catalog.Betting
	scopes := []grants.AuthorizationScope{contractScope(cfg.Contract, MethodPlaceBet, req)}
	if cfg.BetDenom != env.Catalog.RewardDenom {
		scopes = append(scopes, routerScope(env, req))
	}
	return scopes, nil
}

// campaignDonateHandler donates the allocation to a fundraising campaign.
// Donations stay in the reward denom; no dependent swap exists.
type campaignDonateHandler struct{}

func (campaignDonateHandler) Kind() destinations.Kind { return destinations.KindCampaignDonate }

func (campaignDonateHandler) Compile(_ context.Context, env Context, dest destinations.Destination, amount int64) (Outcome, error) {
	if min, below := belowThreshold(dest.Kind(), amount); below {
		return Skipped(dest.Kind(), amount, min), nil
	}
	donate := dest.(destinations.CampaignDonate)

	msg, err := executeMsg(env, env.Catalog.Donation.Contract,
		donateExec{Donate: donateBody{FundID: donate.FundID}},
		protocol.NewCoin(env.Catalog.RewardDenom, amount))
	if err != nil {
		return Outcome{}, err
	}
	ev := protocol.NewEvent(EventDonate).
		WithIntAttr("fund_id", int64(donate.FundID)).
		WithIntAttr("amount", amount)
	return Compiled(protocol.NewBundle(msg).WithEvent(ev)), nil
}

func (campaignDonateHandler) Scopes(env Context, _ destinations.Destination, req grants.Request) ([]grants.AuthorizationScope, error) {
	return []grants.AuthorizationScope{
		contractScope(env.Catalog.Donation.Contract, MethodDonate, req),
	}, nil
}

// vaultDepositHandler deposits into an auto-strategy vault, swapping into
// the vault's deposit denom first when needed.
type vaultDepositHandler struct{}

func (vaultDepositHandler) Kind() destinations.Kind { return destinations.KindVaultDeposit }

func (vaultDepositHandler) Compile(ctx context.Context, env Context, dest destinations.Destination, amount int64) (Outcome, error) {
	vault := dest.(destinations.VaultDeposit)
	depositDenom := env.Catalog.VaultDepositDenom(vault.VaultID)

	deposit := protocol.NewCoin(env.Catalog.RewardDenom, amount)
	var swapMsg *protocol.MsgExecuteContract
	if depositDenom != env.Catalog.RewardDenom {
		msg, quote, err := buildSwap(ctx, env, deposit, depositDenom, 0)
		if err != nil {
			return Outcome{}, err
		}
		swapMsg = &msg
		deposit = quote
	}

	msg, err := executeMsg(env, env.Catalog.Vault.Contract,
		depositExec{Deposit: depositBody{VaultID: vault.VaultID}},
		deposit)
	if err != nil {
		return Outcome{}, err
	}
	ev := protocol.NewEvent(EventVaultDeposit).
		WithIntAttr("vault_id", int64(vault.VaultID)).
		WithIntAttr("amount", amount).
		WithAttr("deposit_denom", deposit.Denom)

	bundle := protocol.NewBundle(msg).WithEvent(ev)
	if swapMsg != nil {
		bundle = bundle.Prepend(*swapMsg)
	}
	return Compiled(bundle), nil
}

func (vaultDepositHandler) Scopes(env Context, dest destinations.Destination, req grants.Request) ([]grants.AuthorizationScope, error) {
	vault := dest.(destinations.VaultDeposit)
	scopes := []grants.AuthorizationScope{
		contractScope(env.Catalog.Vault.Contract, MethodDeposit, req),
	}
	if env.Catalog.VaultDepositDenom(vault.VaultID) != env.Catalog.RewardDenom {
		scopes = append(scopes, routerScope(env, req))
	}
	return scopes, nil
}
