package oracle_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yieldworks/compounder/pkg/oracle"
	"github.com/yieldworks/compounder/pkg/protocol"
)

func TestStaticOracleSimulate(t *testing.T) {
	ctx := context.Background()
	orc := oracle.NewStaticOracle()
	require.NoError(t, orc.SetRate("ureward", "uatom", "0.5"))

	t.Run("quotes through the rate table", func(t *testing.T) {
		out, err := orc.Simulate(ctx, protocol.NewCoin("ureward", 1000), "uatom")
		require.NoError(t, err)
		assert.Equal(t, protocol.NewCoin("uatom", 500), out)
	})

	t.Run("truncates fractional output", func(t *testing.T) {
		out, err := orc.Simulate(ctx, protocol.NewCoin("ureward", 5), "uatom")
		require.NoError(t, err)
		assert.Equal(t, int64(2), out.Amount)
	})

	t.Run("identity pair quotes one to one", func(t *testing.T) {
		out, err := orc.Simulate(ctx, protocol.NewCoin("ureward", 777), "ureward")
		require.NoError(t, err)
		assert.Equal(t, int64(777), out.Amount)
	})

	t.Run("rates are directional", func(t *testing.T) {
		_, err := orc.Simulate(ctx, protocol.NewCoin("uatom", 100), "ureward")
		var noRoute *oracle.NoRouteError
		require.ErrorAs(t, err, &noRoute)
		assert.Equal(t, "uatom", noRoute.OfferDenom)
		assert.Equal(t, "ureward", noRoute.AskDenom)
	})

	t.Run("unknown pair", func(t *testing.T) {
		_, err := orc.Simulate(ctx, protocol.NewCoin("ureward", 100), "uosmo")
		var noRoute *oracle.NoRouteError
		assert.True(t, errors.As(err, &noRoute))
	})
}

func TestStaticOracleRejectsBadRate(t *testing.T) {
	orc := oracle.NewStaticOracle()
	assert.Error(t, orc.SetRate("a", "b", "not-a-number"))
}
