// Package grants derives the delegated-authorization scopes a third-party
// executor needs before it may broadcast compiled instructions. Scope
// enumeration is supplied per destination by the same registry that compiles
// instructions, so the two sides cannot drift: a destination without grant
// coverage is a destination without a handler at all.
package grants

import (
	"fmt"
	"sort"
	"time"

	"github.com/yieldworks/compounder/pkg/destinations"
	"github.com/yieldworks/compounder/pkg/prefs"
	"github.com/yieldworks/compounder/pkg/protocol"
)

// TargetType says whether a scope addresses a chain module or a contract.
type TargetType string

const (
	TargetModule   TargetType = "module"
	TargetContract TargetType = "contract"
)

// AuthorizationScope is one minimal permission: who may call what on behalf
// of whom, bounded by method set, optional spend limit, optional validator
// allow-list, and expiration.
type AuthorizationScope struct {
	Grantor    string         `json:"grantor"`
	Grantee    string         `json:"grantee"`
	TargetType TargetType     `json:"target_type"`
	// Target is the module route (e.g. "staking") or the contract address.
	Target     string         `json:"target"`
	Methods    []string       `json:"methods"`
	// Limit bounds spend or stake. Nil means unbounded: grants are derived
	// from preferences alone, before any reward total is observed.
	Limit      *protocol.Coin `json:"limit,omitempty"`
	// AllowList restricts staking scopes to specific validators.
	AllowList  []string       `json:"allow_list,omitempty"`
	Expiration time.Time      `json:"expiration"`
}

// Revocation names a previously granted scope to withdraw.
type Revocation struct {
	Grantor    string     `json:"grantor"`
	Grantee    string     `json:"grantee"`
	TargetType TargetType `json:"target_type"`
	Target     string     `json:"target"`
	Methods    []string   `json:"methods"`
}

// Request carries the derivation context shared by every destination.
type Request struct {
	Grantor    string
	Grantee    string
	Expiration time.Time
}

// ScopeSource enumerates, per destination, every external call the
// instruction compiler could emit for it. The compiler registry implements
// this; tests may substitute fixtures.
type ScopeSource interface {
	ScopesFor(dest destinations.Destination, req Request) ([]AuthorizationScope, error)
}

// Derive enumerates and deduplicates the scopes required to execute any
// compilation of the given preference set.
func Derive(set prefs.PreferenceSet, src ScopeSource, req Request) ([]AuthorizationScope, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	var all []AuthorizationScope
	for _, action := range set {
		scopes, err := src.ScopesFor(action.Destination, req)
		if err != nil {
			return nil, fmt.Errorf("derive grants for %s: %w", action.Destination.Kind(), err)
		}
		all = append(all, scopes...)
	}
	return Dedupe(all), nil
}

// DeriveRevocations returns the revocation descriptors that withdraw exactly
// the scopes Derive would produce for the same inputs.
func DeriveRevocations(set prefs.PreferenceSet, src ScopeSource, req Request) ([]Revocation, error) {
	scopes, err := Derive(set, src, req)
	if err != nil {
		return nil, err
	}
	out := make([]Revocation, len(scopes))
	for i, s := range scopes {
		out[i] = Revocation{
			Grantor:    s.Grantor,
			Grantee:    s.Grantee,
			TargetType: s.TargetType,
			Target:     s.Target,
			Methods:    s.Methods,
		}
	}
	return out, nil
}

// Dedupe merges scopes that address the same (grantor, grantee, target):
// method sets and allow-lists union, limits of the same denom sum, and the
// latest expiration wins. Merge order follows first appearance, so output
// order is deterministic.
func Dedupe(scopes []AuthorizationScope) []AuthorizationScope {
	type key struct {
		grantor, grantee string
		targetType       TargetType
		target           string
	}
	merged := make(map[key]*AuthorizationScope)
	var order []key

	for _, s := range scopes {
		k := key{s.Grantor, s.Grantee, s.TargetType, s.Target}
		existing, ok := merged[k]
		if !ok {
			clone := s
			clone.Methods = append([]string{}, s.Methods...)
			clone.AllowList = append([]string{}, s.AllowList...)
			if s.Limit != nil {
				limit := *s.Limit
				clone.Limit = &limit
			}
			merged[k] = &clone
			order = append(order, k)
			continue
		}
		existing.Methods = unionSorted(existing.Methods, s.Methods)
		existing.AllowList = unionSorted(existing.AllowList, s.AllowList)
		existing.Limit = mergeLimits(existing.Limit, s.Limit)
		if s.Expiration.After(existing.Expiration) {
			existing.Expiration = s.Expiration
		}
	}

	out := make([]AuthorizationScope, 0, len(order))
	for _, k := range order {
		s := merged[k]
		sort.Strings(s.Methods)
		sort.Strings(s.AllowList)
		out = append(out, *s)
	}
	return out
}

func unionSorted(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// mergeLimits sums limits of the same denom. A nil on either side means one
// call path needs unbounded spend, so the merged scope is unbounded too.
func mergeLimits(a, b *protocol.Coin) *protocol.Coin {
	if a == nil || b == nil {
		return nil
	}
	if a.Denom != b.Denom {
		return nil
	}
	sum := protocol.NewCoin(a.Denom, a.Amount+b.Amount)
	return &sum
}
