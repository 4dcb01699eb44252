// Package service hosts the compounding core behind an authorized operation
// surface: preference submission and cancellation, compound triggering,
// grant derivation, the read-only query surface, and the administrative
// surface.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/yieldworks/compounder/pkg/auditlog"
	"github.com/yieldworks/compounder/pkg/catalog"
	"github.com/yieldworks/compounder/pkg/compiler"
	"github.com/yieldworks/compounder/pkg/prefs"
)

var (
	// ErrUnauthorized marks a caller that is neither the record owner nor
	// an authorized delegate or administrator for the operation.
	ErrUnauthorized = errors.New("caller not authorized")
	// ErrUnknownStrategy marks a strategy id outside the allowed catalog.
	ErrUnknownStrategy = errors.New("strategy not in allowed catalog")
	// ErrInvalidAddress marks a malformed owner or target address.
	ErrInvalidAddress = errors.New("malformed address")
	// ErrInvalidBlob marks an integration blob rejected by the strategy's
	// declared schema.
	ErrInvalidBlob = errors.New("integration blob rejected by strategy schema")
)

// addressPattern is the bech32-style account shape the hosting chain uses.
var addressPattern = regexp.MustCompile(`^[a-z]{2,16}1[a-z0-9]{8,70}$`)

// ValidateAddress checks the wire shape of an account address. Checksum
// verification belongs to the hosting chain; this guards against obviously
// malformed input before any compilation work begins.
func ValidateAddress(addr string) error {
	if !addressPattern.MatchString(addr) {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	return nil
}

// StrategySettings is the per-strategy administrative configuration.
type StrategySettings struct {
	// FeeBps is the fee charged when a trigger does not override it.
	FeeBps uint32 `json:"fee_bps"`
	// FeeCapBps bounds any requested fee.
	FeeCapBps uint32 `json:"fee_cap_bps"`
	// FeeRecipient receives the fee transfer.
	FeeRecipient string `json:"fee_recipient"`
	// IntegrationSchema optionally declares a JSON Schema submitted
	// integration blobs must satisfy. Empty means blobs pass through
	// unexamined.
	IntegrationSchema string `json:"integration_schema,omitempty"`

	schema *jsonschema.Schema
}

// Service wires the compounding core to its stores and collaborators. All
// operations are synchronous; the only mutable state is the administrative
// configuration, guarded by mu.
type Service struct {
	mu         sync.RWMutex
	admin      string
	strategies map[string]StrategySettings

	// executor is the delegated broadcaster: the grantee of derived scopes
	// and an authorized compound trigger.
	executor string

	store    prefs.Store
	registry *compiler.Registry
	catalog  *catalog.ChainCatalog
	audit    auditlog.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// Config assembles a Service.
type Config struct {
	Admin    string
	Executor string
	Store    prefs.Store
	Registry *compiler.Registry
	Catalog  *catalog.ChainCatalog
	// Audit is optional; nil disables run recording.
	Audit auditlog.Recorder
	// Now is optional; tests inject a fixed clock.
	Now func() time.Time
}

// New validates the configuration and builds a Service.
func New(cfg Config) (*Service, error) {
	if err := ValidateAddress(cfg.Admin); err != nil {
		return nil, fmt.Errorf("admin: %w", err)
	}
	if err := ValidateAddress(cfg.Executor); err != nil {
		return nil, fmt.Errorf("executor: %w", err)
	}
	if cfg.Store == nil || cfg.Registry == nil || cfg.Catalog == nil {
		return nil, fmt.Errorf("service: store, registry, and catalog are required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	audit := cfg.Audit
	if audit == nil {
		audit = auditlog.NewMemoryRecorder()
	}
	return &Service{
		admin:      cfg.Admin,
		executor:   cfg.Executor,
		strategies: make(map[string]StrategySettings),
		store:      cfg.Store,
		registry:   cfg.Registry,
		catalog:    cfg.Catalog,
		audit:      audit,
		logger:     slog.Default().With("component", "compound_service"),
		now:        now,
	}, nil
}

// SubmitRequest carries one preference submission.
type SubmitRequest struct {
	Owner           string
	StrategyID      string
	Preferences     prefs.PreferenceSet
	IntegrationBlob json.RawMessage
}

// SubmitPreferences validates and upserts a preference record. Only the
// owner or the administrator may submit for an owner. Resubmission preserves
// CreatedAt and reactivates a record that was cancelled or expired.
func (s *Service) SubmitPreferences(ctx context.Context, caller string, req SubmitRequest) (*prefs.PreferenceRecord, error) {
	if err := ValidateAddress(req.Owner); err != nil {
		return nil, err
	}
	if caller != req.Owner && !s.isAdmin(caller) {
		return nil, fmt.Errorf("%w: %s may not submit preferences for %s", ErrUnauthorized, caller, req.Owner)
	}

	settings, ok := s.strategySettings(req.StrategyID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, req.StrategyID)
	}
	if err := req.Preferences.Validate(); err != nil {
		return nil, err
	}
	if err := settings.validateBlob(req.IntegrationBlob); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	record := &prefs.PreferenceRecord{
		ID:              uuid.NewString(),
		Owner:           req.Owner,
		StrategyID:      req.StrategyID,
		Preferences:     req.Preferences,
		IntegrationBlob: req.IntegrationBlob,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if existing, err := s.store.Get(ctx, req.StrategyID, req.Owner); err == nil {
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, prefs.ErrNotFound) {
		return nil, err
	}

	if err := s.store.Put(ctx, record); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "preferences submitted",
		"owner", record.Owner, "strategy", record.StrategyID,
		"destinations", len(record.Preferences))
	return record, nil
}

// CancelPreferences marks an active record cancelled. Cancelling a missing
// or already-inactive record fails with ErrNoActiveRecord; cancellation is
// not silently idempotent.
func (s *Service) CancelPreferences(ctx context.Context, caller, strategyID, owner string) error {
	if caller != owner && !s.isAdmin(caller) {
		return fmt.Errorf("%w: %s may not cancel preferences of %s", ErrUnauthorized, caller, owner)
	}

	record, err := s.store.Get(ctx, strategyID, owner)
	if errors.Is(err, prefs.ErrNotFound) {
		return fmt.Errorf("%w: %s/%s", prefs.ErrNoActiveRecord, strategyID, owner)
	}
	if err != nil {
		return err
	}
	if record.Status() != prefs.StatusActive {
		return fmt.Errorf("%w: %s/%s already %s", prefs.ErrNoActiveRecord, strategyID, owner, record.Status())
	}

	now := s.now().UTC()
	record.Inactive = &prefs.InactiveStatus{EndType: prefs.EndCancellation, EndedAt: now}
	record.UpdatedAt = now
	if err := s.store.Put(ctx, record); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "preferences cancelled", "owner", owner, "strategy", strategyID)
	return nil
}

func (s *Service) isAdmin(caller string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return caller == s.admin
}

func (s *Service) strategySettings(strategyID string) (StrategySettings, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	settings, ok := s.strategies[strategyID]
	return settings, ok
}

func (st StrategySettings) validateBlob(blob json.RawMessage) error {
	if len(blob) == 0 || st.schema == nil {
		return nil
	}
	var doc any
	if err := json.Unmarshal(blob, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBlob, err)
	}
	if err := st.schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBlob, err)
	}
	return nil
}
