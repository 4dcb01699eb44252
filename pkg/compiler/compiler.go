// Package compiler turns allocated (amount, destination) pairs into ordered
// protocol instructions, and enumerates the authorization scopes those
// instructions require. Both sides of every destination live on one handler
// value, so instruction coverage and grant coverage extend together or not
// at all.
package compiler

import (
	"context"
	"errors"
	"fmt"

	"github.com/yieldworks/compounder/pkg/allocator"
	"github.com/yieldworks/compounder/pkg/catalog"
	"github.com/yieldworks/compounder/pkg/destinations"
	"github.com/yieldworks/compounder/pkg/grants"
	"github.com/yieldworks/compounder/pkg/oracle"
)

// ErrNotImplemented marks a destination that is catalogued but whose
// integration is not yet available. This is a hard failure, not a skip:
// silently dropping an allocated amount would misplace funds.
var ErrNotImplemented = errors.New("destination integration not implemented")

// Context carries the per-invocation compilation environment. It is an
// immutable snapshot: handlers read it, never mutate it.
type Context struct {
	// Owner is the account whose rewards are being compounded; every
	// emitted message acts on its behalf.
	Owner   string
	Catalog *catalog.ChainCatalog
	Oracle  oracle.Oracle
}

// Handler compiles one destination kind and enumerates its grant scopes.
type Handler interface {
	Kind() destinations.Kind

	// Compile produces the ordered bundle for one allocation, or a Skip
	// outcome when the amount is below the kind's viability threshold.
	Compile(ctx context.Context, env Context, dest destinations.Destination, amount int64) (Outcome, error)

	// Scopes statically enumerates every external call Compile could emit
	// for this destination under any amount, as authorization scopes.
	Scopes(env Context, dest destinations.Destination, req grants.Request) ([]grants.AuthorizationScope, error)
}

// Registry holds the handler for every destination kind over one chain
// catalog and quote oracle. It is safe for concurrent use: each compilation
// receives its own immutable Context snapshot.
type Registry struct {
	catalog  *catalog.ChainCatalog
	oracle   oracle.Oracle
	handlers map[destinations.Kind]Handler
}

// NewRegistry builds a registry with the built-in handler set. It fails if
// any catalogued kind is left uncovered, so a new destination kind cannot
// ship without both compiler sides.
func NewRegistry(cat *catalog.ChainCatalog, orc oracle.Oracle) (*Registry, error) {
	if cat == nil {
		return nil, fmt.Errorf("compiler: nil chain catalog")
	}
	if orc == nil {
		return nil, fmt.Errorf("compiler: nil quote oracle")
	}

	r := &Registry{catalog: cat, oracle: orc, handlers: make(map[destinations.Kind]Handler)}
	for _, h := range []Handler{
		unallocatedHandler{},
		nativeStakeHandler{},
		sendFundsHandler{},
		tokenSwapHandler{},
		liquidStakeHandler{},
		provideLiquidityHandler{},
		lotteryTicketHandler{},
		placeBetHandler{},
		campaignDonateHandler{},
		vaultDepositHandler{},
		unavailableHandler{kind: destinations.KindIBCForward},
		unavailableHandler{kind: destinations.KindPerpPosition},
	} {
		r.handlers[h.Kind()] = h
	}

	for _, k := range destinations.AllKinds() {
		if _, ok := r.handlers[k]; !ok {
			return nil, fmt.Errorf("compiler: destination kind %s has no handler", k)
		}
	}
	return r, nil
}

// Compile runs every allocation through its handler, in allocation order,
// on behalf of owner. Any handler error aborts the whole batch: a partially
// compiled instruction list is unsafe to hand to an executor. Skip outcomes
// are not errors and do not abort.
func (r *Registry) Compile(ctx context.Context, owner string, allocations []allocator.Allocation) ([]Outcome, error) {
	env := Context{Owner: owner, Catalog: r.catalog, Oracle: r.oracle}
	out := make([]Outcome, 0, len(allocations))
	for i, alloc := range allocations {
		h, ok := r.handlers[alloc.Destination.Kind()]
		if !ok {
			return nil, fmt.Errorf("compiler: destination %d: no handler for kind %s", i, alloc.Destination.Kind())
		}
		outcome, err := h.Compile(ctx, env, alloc.Destination, alloc.Amount)
		if err != nil {
			return nil, fmt.Errorf("compile destination %d (%s): %w", i, alloc.Destination.Kind(), err)
		}
		out = append(out, outcome)
	}
	return out, nil
}

// ScopesFor implements grants.ScopeSource over the same handler set Compile
// dispatches to.
func (r *Registry) ScopesFor(dest destinations.Destination, req grants.Request) ([]grants.AuthorizationScope, error) {
	h, ok := r.handlers[dest.Kind()]
	if !ok {
		return nil, fmt.Errorf("compiler: no handler for kind %s", dest.Kind())
	}
	return h.Scopes(Context{Catalog: r.catalog, Oracle: r.oracle}, dest, req)
}
