// Package prefs holds user compounding preferences: the weighted destination
// list validated on submission, the persisted record wrapping it, and the
// read-side status policy.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yieldworks/compounder/pkg/destinations"
	"github.com/yieldworks/compounder/pkg/fixedpoint"
)

var (
	// ErrInvalidPreferences marks a preference set whose weights do not sum
	// to exactly one, or whose destinations fail parameter validation.
	ErrInvalidPreferences = errors.New("invalid preferences")
	// ErrNotFound marks a lookup for a record that does not exist.
	ErrNotFound = errors.New("preference record not found")
	// ErrNoActiveRecord marks a mutation against a record that exists but is
	// no longer active.
	ErrNoActiveRecord = errors.New("no active preference record")
)

// DestinationAction pairs a destination with its share of the reward.
type DestinationAction struct {
	Destination destinations.Destination
	Weight      fixedpoint.Weight
}

// destinationActionWire is the stored/wire shape of a DestinationAction.
type destinationActionWire struct {
	Destination destinations.Spec `json:"destination"`
	Weight      fixedpoint.Weight `json:"weight"`
}

// MarshalJSON encodes the destination through its one-of wire envelope.
func (a DestinationAction) MarshalJSON() ([]byte, error) {
	return json.Marshal(destinationActionWire{
		Destination: destinations.Wrap(a.Destination),
		Weight:      a.Weight,
	})
}

// UnmarshalJSON decodes and resolves the one-of wire envelope.
func (a *DestinationAction) UnmarshalJSON(data []byte) error {
	var w destinationActionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	dest, err := w.Destination.Resolve()
	if err != nil {
		return err
	}
	a.Destination = dest
	a.Weight = w.Weight
	return nil
}

// PreferenceSet is an ordered list of destination actions. Order is an
// externally observable contract: allocations and compiled instructions
// follow it.
type PreferenceSet []DestinationAction

// Validate checks the set before any allocation: it must be non-empty, every
// destination's parameters must be valid, and the weights must sum to exactly
// one with zero tolerance.
func (p PreferenceSet) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty destination list", ErrInvalidPreferences)
	}
	var sum fixedpoint.Weight
	for i, action := range p {
		if action.Destination == nil {
			return fmt.Errorf("%w: destination %d is unset", ErrInvalidPreferences, i)
		}
		if err := action.Destination.Validate(); err != nil {
			return fmt.Errorf("%w: destination %d (%s): %v", ErrInvalidPreferences, i, action.Destination.Kind(), err)
		}
		sum = sum.Add(action.Weight)
	}
	if !sum.IsOne() {
		return fmt.Errorf("%w: weights sum to %s, want exactly 1", ErrInvalidPreferences, sum)
	}
	return nil
}

// EndType says why a record stopped being active.
type EndType string

const (
	// EndCancellation: the owner cancelled the record.
	EndCancellation EndType = "cancellation"
	// EndExpiry: administrative pruning retired the record past the
	// retention window.
	EndExpiry EndType = "expiry"
)

// InactiveStatus marks a record that is no longer compounded.
type InactiveStatus struct {
	EndType EndType   `json:"end_type"`
	EndedAt time.Time `json:"ended_at"`
}

// Status classifies a record for read-side filtering.
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// ParseStatus parses a status filter value from the query surface.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusActive, StatusCancelled, StatusExpired:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// PreferenceRecord is the persisted form of one owner's preferences for one
// strategy. Resubmission mutates it in place, preserving CreatedAt. Records
// are marked inactive, never hard-deleted here.
type PreferenceRecord struct {
	ID              string          `json:"id"`
	Owner           string          `json:"owner"`
	StrategyID      string          `json:"strategy_id"`
	Preferences     PreferenceSet   `json:"preferences"`
	IntegrationBlob json.RawMessage `json:"integration_blob,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Inactive        *InactiveStatus `json:"inactive,omitempty"`
}

// Clone returns a deep copy: the preferences slice, the integration blob and
// the inactive status are all independent of the receiver's.
func (r *PreferenceRecord) Clone() *PreferenceRecord {
	clone := *r
	if r.Preferences != nil {
		clone.Preferences = append(PreferenceSet(nil), r.Preferences...)
	}
	if r.IntegrationBlob != nil {
		clone.IntegrationBlob = append(json.RawMessage(nil), r.IntegrationBlob...)
	}
	if r.Inactive != nil {
		inactive := *r.Inactive
		clone.Inactive = &inactive
	}
	return &clone
}

// Status classifies the record: active iff no inactive status is set,
// otherwise distinguished by end type.
func (r *PreferenceRecord) Status() Status {
	if r.Inactive == nil {
		return StatusActive
	}
	if r.Inactive.EndType == EndExpiry {
		return StatusExpired
	}
	return StatusCancelled
}
