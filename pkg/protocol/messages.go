// Package protocol defines the opaque instructions the compiler emits and the
// ordered bundles they travel in. The compiler constructs and orders these
// messages; it never interprets their downstream semantics.
package protocol

import "encoding/json"

// BpsScale is the basis-point denominator shared by fee and slippage math:
// 10,000 bps = 100%.
const BpsScale = 10_000

// Coin is an integer amount of a single denom.
type Coin struct {
	Denom  string `json:"denom"`
	Amount int64  `json:"amount,string"`
}

// NewCoin builds a Coin.
func NewCoin(denom string, amount int64) Coin {
	return Coin{Denom: denom, Amount: amount}
}

// Message is one externally-executed instruction. Implementations are wire
// shapes only; nothing in this module executes them.
type Message interface {
	// Route names the module or transport responsible for the message.
	Route() string
}

// Route values for the supported message families.
const (
	RouteBank     = "bank"
	RouteStaking  = "staking"
	RouteContract = "wasm"
)

// MsgSend transfers coins between accounts through the bank module.
type MsgSend struct {
	FromAddress string `json:"from_address"`
	ToAddress   string `json:"to_address"`
	Amount      []Coin `json:"amount"`
}

func (MsgSend) Route() string { return RouteBank }

// MsgDelegate bonds an amount to a validator through the staking module.
type MsgDelegate struct {
	DelegatorAddress string `json:"delegator_address"`
	ValidatorAddress string `json:"validator_address"`
	Amount           Coin   `json:"amount"`
}

func (MsgDelegate) Route() string { return RouteStaking }

// MsgExecuteContract calls a smart contract with a JSON payload and optional
// attached funds.
type MsgExecuteContract struct {
	Sender   string          `json:"sender"`
	Contract string          `json:"contract"`
	Msg      json.RawMessage `json:"msg"`
	Funds    []Coin          `json:"funds,omitempty"`
}

func (MsgExecuteContract) Route() string { return RouteContract }
