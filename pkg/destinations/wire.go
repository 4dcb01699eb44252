package destinations

import "fmt"

// Spec is the wire envelope for a Destination: exactly one variant pointer is
// set, mirroring the one-of message shape the hosting contracts use.
type Spec struct {
	Unallocated      *Unallocated      `json:"unallocated,omitempty"`
	NativeStake      *NativeStake      `json:"native_stake,omitempty"`
	SendFunds        *SendFunds        `json:"send_funds,omitempty"`
	TokenSwap        *TokenSwap        `json:"token_swap,omitempty"`
	LiquidStake      *LiquidStake      `json:"liquid_stake,omitempty"`
	ProvideLiquidity *ProvideLiquidity `json:"provide_liquidity,omitempty"`
	LotteryTicket    *LotteryTicket    `json:"lottery_ticket,omitempty"`
	PlaceBet         *PlaceBet         `json:"place_bet,omitempty"`
	CampaignDonate   *CampaignDonate   `json:"campaign_donate,omitempty"`
	VaultDeposit     *VaultDeposit     `json:"vault_deposit,omitempty"`
	IBCForward       *IBCForward       `json:"ibc_forward,omitempty"`
	PerpPosition     *PerpPosition     `json:"perp_position,omitempty"`
}

// Resolve unwraps the envelope into its single set variant.
func (s Spec) Resolve() (Destination, error) {
	var set []Destination
	if s.Unallocated != nil {
		set = append(set, *s.Unallocated)
	}
	if s.NativeStake != nil {
		set = append(set, *s.NativeStake)
	}
	if s.SendFunds != nil {
		set = append(set, *s.SendFunds)
	}
	if s.TokenSwap != nil {
		set = append(set, *s.TokenSwap)
	}
	if s.LiquidStake != nil {
		set = append(set, *s.LiquidStake)
	}
	if s.ProvideLiquidity != nil {
		set = append(set, *s.ProvideLiquidity)
	}
	if s.LotteryTicket != nil {
		set = append(set, *s.LotteryTicket)
	}
	if s.PlaceBet != nil {
		set = append(set, *s.PlaceBet)
	}
	if s.CampaignDonate != nil {
		set = append(set, *s.CampaignDonate)
	}
	if s.VaultDeposit != nil {
		set = append(set, *s.VaultDeposit)
	}
	if s.IBCForward != nil {
		set = append(set, *s.IBCForward)
	}
	if s.PerpPosition != nil {
		set = append(set, *s.PerpPosition)
	}
	if len(set) != 1 {
		return nil, fmt.Errorf("%w: envelope must set exactly one variant, got %d", ErrInvalidParams, len(set))
	}
	return set[0], nil
}

// Wrap produces the wire envelope for a Destination.
func Wrap(d Destination) Spec {
	var s Spec
	switch v := d.(type) {
	case Unallocated:
		s.Unallocated = &v
	case NativeStake:
		s.NativeStake = &v
	case SendFunds:
		s.SendFunds = &v
	case TokenSwap:
		s.TokenSwap = &v
	case LiquidStake:
		s.LiquidStake = &v
	case ProvideLiquidity:
		s.ProvideLiquidity = &v
	case LotteryTicket:
		s.LotteryTicket = &v
	case PlaceBet:
		s.PlaceBet = &v
	case CampaignDonate:
		s.CampaignDonate = &v
	case VaultDeposit:
		s.VaultDeposit = &v
	case IBCForward:
		s.IBCForward = &v
	case PerpPosition:
		s.PerpPosition = &v
	}
	return s
}
