// Package fixedpoint provides the fixed-precision arithmetic used when
// splitting reward amounts. Weights are fractions in [0, 1] carried with
// 18 decimal places; amounts are integer minor units.
package fixedpoint

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// WeightPlaces is the number of decimal places a Weight carries.
const WeightPlaces = 18

var one = decimal.NewFromInt(1)

// Weight is a fixed-point fraction in [0, 1] with 18 decimal places.
// The zero value is a weight of zero.
type Weight struct {
	value decimal.Decimal
}

// NewWeight parses a Weight from its decimal string form, e.g. "0.25".
func NewWeight(s string) (Weight, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Weight{}, fmt.Errorf("invalid weight %q: %w", s, err)
	}
	if d.IsNegative() || d.GreaterThan(one) {
		return Weight{}, fmt.Errorf("weight %s outside [0, 1]", d)
	}
	if d.Exponent() < -WeightPlaces {
		return Weight{}, fmt.Errorf("weight %s exceeds %d decimal places", d, WeightPlaces)
	}
	return Weight{value: d}, nil
}

// MustWeight parses a Weight and panics on error. For tests and fixtures.
func MustWeight(s string) Weight {
	w, err := NewWeight(s)
	if err != nil {
		panic(err)
	}
	return w
}

// Add returns w + other. No overflow handling is needed: both operands are
// bounded by 1 and the result is only ever compared against 1.
func (w Weight) Add(other Weight) Weight {
	return Weight{value: w.value.Add(other.value)}
}

// IsOne reports whether the weight is exactly 1. There is no epsilon slack:
// 0.999999999999999999 is not one.
func (w Weight) IsOne() bool {
	return w.value.Equal(one)
}

// IsZero reports whether the weight is exactly 0.
func (w Weight) IsZero() bool {
	return w.value.IsZero()
}

// ApplyTruncated multiplies an integer amount by the weight at full precision
// and truncates the product toward zero.
func (w Weight) ApplyTruncated(amount int64) int64 {
	return decimal.NewFromInt(amount).Mul(w.value).Truncate(0).IntPart()
}

// String returns the weight with all 18 places, e.g. "0.250000000000000000".
func (w Weight) String() string {
	return w.value.StringFixed(WeightPlaces)
}

// MarshalJSON encodes the weight as a JSON string to preserve precision.
func (w Weight) MarshalJSON() ([]byte, error) {
	return []byte(`"` + w.value.String() + `"`), nil
}

// UnmarshalJSON decodes a weight from its JSON string form.
func (w *Weight) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := NewWeight(s)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}
