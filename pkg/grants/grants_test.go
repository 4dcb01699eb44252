package grants_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yieldworks/compounder/pkg/destinations"
	"github.com/yieldworks/compounder/pkg/fixedpoint"
	"github.com/yieldworks/compounder/pkg/grants"
	"github.com/yieldworks/compounder/pkg/prefs"
	"github.com/yieldworks/compounder/pkg/protocol"
)

// fixtureSource returns canned scopes per destination kind.
type fixtureSource struct {
	scopes map[destinations.Kind][]grants.AuthorizationScope
	errs   map[destinations.Kind]error
}

func (f *fixtureSource) ScopesFor(dest destinations.Destination, req grants.Request) ([]grants.AuthorizationScope, error) {
	if err := f.errs[dest.Kind()]; err != nil {
		return nil, err
	}
	return f.scopes[dest.Kind()], nil
}

func action(d destinations.Destination, weight string) prefs.DestinationAction {
	return prefs.DestinationAction{Destination: d, Weight: fixedpoint.MustWeight(weight)}
}

func stakingScope(req grants.Request, validators ...string) grants.AuthorizationScope {
	return grants.AuthorizationScope{
		Grantor:    req.Grantor,
		Grantee:    req.Grantee,
		TargetType: grants.TargetModule,
		Target:     protocol.RouteStaking,
		Methods:    []string{"delegate"},
		AllowList:  validators,
		Expiration: req.Expiration,
	}
}

func TestDerive(t *testing.T) {
	req := grants.Request{
		Grantor:    "cosmos1owner",
		Grantee:    "cosmos1executor",
		Expiration: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	set := prefs.PreferenceSet{
		action(destinations.NativeStake{ValidatorAddress: "val1"}, "0.5"),
		action(destinations.SendFunds{Recipient: "cosmos1bob"}, "0.5"),
	}
	src := &fixtureSource{scopes: map[destinations.Kind][]grants.AuthorizationScope{
		destinations.KindNativeStake: {stakingScope(req, "val1")},
		destinations.KindSendFunds: {{
			Grantor:    req.Grantor,
			Grantee:    req.Grantee,
			TargetType: grants.TargetModule,
			Target:     protocol.RouteBank,
			Methods:    []string{"send"},
			Expiration: req.Expiration,
		}},
	}}

	scopes, err := grants.Derive(set, src, req)
	require.NoError(t, err)
	require.Len(t, scopes, 2)
	assert.Equal(t, protocol.RouteStaking, scopes[0].Target)
	assert.Equal(t, protocol.RouteBank, scopes[1].Target)
}

func TestDeriveRejectsInvalidSet(t *testing.T) {
	src := &fixtureSource{}
	_, err := grants.Derive(prefs.PreferenceSet{}, src, grants.Request{})
	assert.ErrorIs(t, err, prefs.ErrInvalidPreferences)
}

func TestDerivePropagatesSourceError(t *testing.T) {
	boom := errors.New("no handler")
	src := &fixtureSource{errs: map[destinations.Kind]error{
		destinations.KindPerpPosition: boom,
	}}
	set := prefs.PreferenceSet{
		action(destinations.PerpPosition{MarketID: "m", Leverage: 2}, "1"),
	}
	_, err := grants.Derive(set, src, grants.Request{})
	assert.ErrorIs(t, err, boom)
}

func TestDedupe(t *testing.T) {
	req := grants.Request{
		Grantor:    "cosmos1owner",
		Grantee:    "cosmos1executor",
		Expiration: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	later := req.Expiration.Add(24 * time.Hour)

	t.Run("merges same target and unions allow lists", func(t *testing.T) {
		a := stakingScope(req, "val2")
		b := stakingScope(req, "val1")
		b.Expiration = later

		out := grants.Dedupe([]grants.AuthorizationScope{a, b})
		require.Len(t, out, 1)
		assert.Equal(t, []string{"val1", "val2"}, out[0].AllowList)
		assert.Equal(t, later, out[0].Expiration)
	})

	t.Run("unions method sets", func(t *testing.T) {
		a := stakingScope(req)
		a.Methods = []string{"delegate"}
		b := stakingScope(req)
		b.Methods = []string{"redelegate", "delegate"}

		out := grants.Dedupe([]grants.AuthorizationScope{a, b})
		require.Len(t, out, 1)
		assert.Equal(t, []string{"delegate", "redelegate"}, out[0].Methods)
	})

	t.Run("distinct targets stay separate in first-appearance order", func(t *testing.T) {
		contract := grants.AuthorizationScope{
			Grantor:    req.Grantor,
			Grantee:    req.Grantee,
			TargetType: grants.TargetContract,
			Target:     "cosmos1router",
			Methods:    []string{"swap"},
			Expiration: req.Expiration,
		}
		out := grants.Dedupe([]grants.AuthorizationScope{contract, stakingScope(req, "val1")})
		require.Len(t, out, 2)
		assert.Equal(t, "cosmos1router", out[0].Target)
		assert.Equal(t, protocol.RouteStaking, out[1].Target)
	})

	t.Run("limits sum for the same denom", func(t *testing.T) {
		a := stakingScope(req)
		aLimit := protocol.NewCoin("ureward", 100)
		a.Limit = &aLimit
		b := stakingScope(req)
		bLimit := protocol.NewCoin("ureward", 50)
		b.Limit = &bLimit

		out := grants.Dedupe([]grants.AuthorizationScope{a, b})
		require.Len(t, out, 1)
		require.NotNil(t, out[0].Limit)
		assert.Equal(t, int64(150), out[0].Limit.Amount)
	})

	t.Run("nil limit wins the merge", func(t *testing.T) {
		a := stakingScope(req)
		limit := protocol.NewCoin("ureward", 100)
		a.Limit = &limit
		b := stakingScope(req)

		out := grants.Dedupe([]grants.AuthorizationScope{a, b})
		require.Len(t, out, 1)
		assert.Nil(t, out[0].Limit)
	})
}

func TestDeriveRevocationsMirrorsDerive(t *testing.T) {
	req := grants.Request{
		Grantor:    "cosmos1owner",
		Grantee:    "cosmos1executor",
		Expiration: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	set := prefs.PreferenceSet{
		action(destinations.NativeStake{ValidatorAddress: "val1"}, "1"),
	}
	src := &fixtureSource{scopes: map[destinations.Kind][]grants.AuthorizationScope{
		destinations.KindNativeStake: {stakingScope(req, "val1")},
	}}

	scopes, err := grants.Derive(set, src, req)
	require.NoError(t, err)
	revocations, err := grants.DeriveRevocations(set, src, req)
	require.NoError(t, err)
	require.Len(t, revocations, len(scopes))
	for i, r := range revocations {
		assert.Equal(t, scopes[i].Grantor, r.Grantor)
		assert.Equal(t, scopes[i].Grantee, r.Grantee)
		assert.Equal(t, scopes[i].TargetType, r.TargetType)
		assert.Equal(t, scopes[i].Target, r.Target)
		assert.Equal(t, scopes[i].Methods, r.Methods)
	}
}
