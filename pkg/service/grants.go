package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yieldworks/compounder/pkg/grants"
	"github.com/yieldworks/compounder/pkg/prefs"
)

// activePreferences loads the active record backing a grant derivation.
func (s *Service) activePreferences(ctx context.Context, strategyID, owner string) (prefs.PreferenceSet, error) {
	record, err := s.store.Get(ctx, strategyID, owner)
	if errors.Is(err, prefs.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s/%s", prefs.ErrNoActiveRecord, strategyID, owner)
	}
	if err != nil {
		return nil, err
	}
	if record.Status() != prefs.StatusActive {
		return nil, fmt.Errorf("%w: %s/%s is %s", prefs.ErrNoActiveRecord, strategyID, owner, record.Status())
	}
	return record.Preferences, nil
}

func (s *Service) grantRequest(owner string) grants.Request {
	return grants.Request{
		Grantor:    owner,
		Grantee:    s.executor,
		Expiration: s.now().UTC().Add(time.Duration(s.catalog.GrantTTL)),
	}
}

// DeriveGrants enumerates the authorization scopes the delegated executor
// needs to broadcast any compilation of the owner's active preferences.
func (s *Service) DeriveGrants(ctx context.Context, strategyID, owner string) ([]grants.AuthorizationScope, error) {
	set, err := s.activePreferences(ctx, strategyID, owner)
	if err != nil {
		return nil, err
	}
	return grants.Derive(set, s.registry, s.grantRequest(owner))
}

// DeriveRevocations enumerates the revocation descriptors that withdraw
// exactly the scopes DeriveGrants produces for the same record.
func (s *Service) DeriveRevocations(ctx context.Context, strategyID, owner string) ([]grants.Revocation, error) {
	set, err := s.activePreferences(ctx, strategyID, owner)
	if err != nil {
		return nil, err
	}
	return grants.DeriveRevocations(set, s.registry, s.grantRequest(owner))
}
