//go:build property
// +build property

// Package allocator_test contains property-based tests for allocation
// conservation and fee arithmetic.
package allocator_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"github.com/yieldworks/compounder/pkg/allocator"
	"github.com/yieldworks/compounder/pkg/destinations"
	"github.com/yieldworks/compounder/pkg/fixedpoint"
	"github.com/yieldworks/compounder/pkg/prefs"
)

// setFromParts builds a preference set whose weights are parts[i]/sum(parts),
// rounded to 18 places with the last entry absorbing the rounding slack so
// the weights sum to exactly one.
func setFromParts(parts []uint16) (prefs.PreferenceSet, bool) {
	var total int64
	for _, p := range parts {
		total += int64(p)
	}
	if total == 0 {
		return nil, false
	}

	one := decimal.NewFromInt(1)
	set := make(prefs.PreferenceSet, len(parts))
	remaining := one
	for i, p := range parts {
		var w decimal.Decimal
		if i == len(parts)-1 {
			w = remaining
		} else {
			w = decimal.NewFromInt(int64(p)).Div(decimal.NewFromInt(total)).Truncate(fixedpoint.WeightPlaces)
			remaining = remaining.Sub(w)
		}
		if w.IsNegative() || w.GreaterThan(one) {
			return nil, false
		}
		weight, err := fixedpoint.NewWeight(w.String())
		if err != nil {
			return nil, false
		}
		set[i] = prefs.DestinationAction{Destination: destinations.Unallocated{}, Weight: weight}
	}
	return set, true
}

// TestAllocationConservation verifies no unit is created or destroyed.
// Property: sum(Allocate(set, total)) == total for any valid set and total
func TestAllocationConservation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("allocations sum to the input total", prop.ForAll(
		func(parts []uint16, total int64) bool {
			if len(parts) == 0 {
				return true
			}
			set, ok := setFromParts(parts)
			if !ok {
				return true
			}
			allocs, err := allocator.Allocate(set, total)
			if err != nil {
				return false
			}
			var sum int64
			for _, a := range allocs {
				if a.Amount < 0 {
					return false
				}
				sum += a.Amount
			}
			return sum == total
		},
		gen.SliceOfN(4, gen.UInt16()),
		gen.Int64Range(0, 1_000_000_000_000),
	))

	properties.TestingRun(t)
}

// TestFeeSplitConservation verifies the fee split loses nothing.
// Property: Remaining + Fee == gross and Fee <= gross
func TestFeeSplitConservation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("remaining plus fee equals gross", prop.ForAll(
		func(gross int64, feeBps uint16) bool {
			bps := uint32(feeBps) % (allocator.BpsDenominator + 1)
			split, err := allocator.SplitFee(gross, bps, allocator.BpsDenominator, "ureward", "o", "f")
			if err != nil {
				return false
			}
			return split.Remaining+split.Fee == gross && split.Fee >= 0 && split.Fee <= gross
		},
		gen.Int64Range(0, 9_000_000_000_000_000_000),
		gen.UInt16(),
	))

	properties.TestingRun(t)
}
