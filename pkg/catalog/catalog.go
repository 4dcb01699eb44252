// Package catalog carries the per-chain integration catalog: contract
// addresses, denoms, and integration defaults. The catalog is injected into
// the compiler and the grant deriver at call time; nothing in this module
// hardcodes an address.
package catalog

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SwapConfig locates the router contract a dependent swap goes through.
type SwapConfig struct {
	RouterContract     string `yaml:"router_contract" json:"router_contract"`
	DefaultSlippageBps uint32 `yaml:"default_slippage_bps" json:"default_slippage_bps"`
}

// LiquidStakeConfig locates the liquid-staking mint contract.
type LiquidStakeConfig struct {
	Contract string `yaml:"contract" json:"contract"`
	// BondDenom is the denom the mint contract accepts.
	BondDenom string `yaml:"bond_denom" json:"bond_denom"`
	// LiquidDenom is the denom the mint produces.
	LiquidDenom string `yaml:"liquid_denom" json:"liquid_denom"`
}

// LotteryConfig locates the lottery contract.
type LotteryConfig struct {
	Contract string `yaml:"contract" json:"contract"`
	// TicketDenom is the denom tickets are priced in.
	TicketDenom string `yaml:"ticket_denom" json:"ticket_denom"`
}

// BettingConfig locates the prediction-game contract.
type BettingConfig struct {
	Contract string `yaml:"contract" json:"contract"`
	BetDenom string `yaml:"bet_denom" json:"bet_denom"`
}

// DonationConfig locates the campaign-donation contract.
type DonationConfig struct {
	Contract string `yaml:"contract" json:"contract"`
}

// VaultConfig locates the vault contract and per-vault deposit denoms.
type VaultConfig struct {
	Contract string `yaml:"contract" json:"contract"`
	// DepositDenoms maps vault id to the denom the vault accepts. Vaults
	// absent from the map accept the reward denom.
	DepositDenoms map[uint64]string `yaml:"deposit_denoms,omitempty" json:"deposit_denoms,omitempty"`
}

// PoolConfig locates the pool router and per-pool paired denoms.
type PoolConfig struct {
	Contract string `yaml:"contract" json:"contract"`
	// PairedDenoms maps pool id to the non-reward side of the pair.
	PairedDenoms map[uint64]string `yaml:"paired_denoms,omitempty" json:"paired_denoms,omitempty"`
}

// ChainCatalog is the full integration catalog for one chain.
type ChainCatalog struct {
	ChainID     string `yaml:"chain_id" json:"chain_id"`
	RewardDenom string `yaml:"reward_denom" json:"reward_denom"`

	Swap        SwapConfig        `yaml:"swap" json:"swap"`
	LiquidStake LiquidStakeConfig `yaml:"liquid_stake" json:"liquid_stake"`
	Lottery     LotteryConfig     `yaml:"lottery" json:"lottery"`
	Betting     BettingConfig     `yaml:"betting" json:"betting"`
	Donation    DonationConfig    `yaml:"donation" json:"donation"`
	Vault       VaultConfig       `yaml:"vault" json:"vault"`
	Pool        PoolConfig        `yaml:"pool" json:"pool"`

	// GrantTTL bounds the expiration written into derived authorization
	// scopes, measured from derivation time. The YAML form is a Go
	// duration string, e.g. "720h".
	GrantTTL Duration `yaml:"grant_ttl" json:"grant_ttl"`
}

// Duration is a time.Duration that unmarshals from a duration string.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalJSON encodes the duration as its string form.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON decodes a duration from its JSON string form.
func (d *Duration) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Validate checks the fields every compilation path depends on.
func (c *ChainCatalog) Validate() error {
	if c.RewardDenom == "" {
		return fmt.Errorf("catalog: missing reward denom")
	}
	if c.Swap.RouterContract == "" {
		return fmt.Errorf("catalog: missing swap router contract")
	}
	if c.Swap.DefaultSlippageBps > 10_000 {
		return fmt.Errorf("catalog: default slippage %d bps exceeds 100%%", c.Swap.DefaultSlippageBps)
	}
	for name, addr := range map[string]string{
		"liquid_stake": c.LiquidStake.Contract,
		"lottery":      c.Lottery.Contract,
		"betting":      c.Betting.Contract,
		"donation":     c.Donation.Contract,
		"vault":        c.Vault.Contract,
		"pool":         c.Pool.Contract,
	} {
		if addr == "" {
			return fmt.Errorf("catalog: missing %s contract", name)
		}
	}
	if c.GrantTTL <= 0 {
		return fmt.Errorf("catalog: grant ttl must be positive")
	}
	return nil
}

// VaultDepositDenom returns the denom a vault accepts.
func (c *ChainCatalog) VaultDepositDenom(vaultID uint64) string {
	if d, ok := c.Vault.DepositDenoms[vaultID]; ok {
		return d
	}
	return c.RewardDenom
}

// PoolPairedDenom returns the non-reward denom of a pool's pair.
func (c *ChainCatalog) PoolPairedDenom(poolID uint64) string {
	if d, ok := c.Pool.PairedDenoms[poolID]; ok {
		return d
	}
	return c.RewardDenom
}

// Load reads and validates a catalog YAML file.
func Load(path string) (*ChainCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog %q: %w", path, err)
	}
	var c ChainCatalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog %q: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
