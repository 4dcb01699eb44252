package fixedpoint_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yieldworks/compounder/pkg/fixedpoint"
)

func TestNewWeight(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"zero", "0", false},
		{"one", "1", false},
		{"quarter", "0.25", false},
		{"full precision", "0.333333333333333333", false},
		{"negative", "-0.1", true},
		{"above one", "1.000000000000000001", true},
		{"too many places", "0.1234567890123456789", true},
		{"garbage", "abc", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fixedpoint.NewWeight(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWeightIsOneExact(t *testing.T) {
	assert.True(t, fixedpoint.MustWeight("1").IsOne())
	assert.True(t, fixedpoint.MustWeight("1.000000000000000000").IsOne())

	// One ulp short of 1 must not pass.
	almost := fixedpoint.MustWeight("0.999999999999999999")
	assert.False(t, almost.IsOne())
}

func TestWeightAdd(t *testing.T) {
	sum := fixedpoint.MustWeight("0.25").Add(fixedpoint.MustWeight("0.75"))
	assert.True(t, sum.IsOne())

	sum = fixedpoint.Weight{}.Add(fixedpoint.MustWeight("0.5"))
	assert.Equal(t, "0.500000000000000000", sum.String())
}

func TestApplyTruncated(t *testing.T) {
	tests := []struct {
		name   string
		weight string
		amount int64
		want   int64
	}{
		{"exact quarter", "0.25", 100, 25},
		{"truncates down", "0.333333333333333333", 100, 33},
		{"one third of ten", "0.333333333333333333", 10, 3},
		{"zero weight", "0", 1_000_000, 0},
		{"full weight", "1", 1_000_000, 1_000_000},
		{"large amount", "0.5", 9_000_000_000_000_000_000 / 2, 2_250_000_000_000_000_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fixedpoint.MustWeight(tt.weight).ApplyTruncated(tt.amount)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWeightJSONRoundTrip(t *testing.T) {
	w := fixedpoint.MustWeight("0.123456789012345678")
	data, err := json.Marshal(w)
	require.NoError(t, err)
	assert.Equal(t, `"0.123456789012345678"`, string(data))

	var back fixedpoint.Weight
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, w.String(), back.String())
}

func TestWeightJSONRejectsOutOfRange(t *testing.T) {
	var w fixedpoint.Weight
	assert.Error(t, json.Unmarshal([]byte(`"1.5"`), &w))
	assert.Error(t, json.Unmarshal([]byte(`"-0.5"`), &w))
}
