// Package allocator splits an observed reward across a preference set. The
// fee comes off the top first; the remainder is divided proportionally with
// exact conservation under integer truncation.
package allocator

import (
	"fmt"

	"github.com/yieldworks/compounder/pkg/destinations"
	"github.com/yieldworks/compounder/pkg/prefs"
)

// Allocation is one destination's integer share of a reward.
type Allocation struct {
	Destination destinations.Destination
	Amount      int64
}

// Allocate splits total across the preference set's weights. Each share is
// the full-precision product truncated toward zero; the last share absorbs
// the cumulative truncation error, so the outputs always sum to exactly
// total. Last-index absorption is deliberate: the output order must match the
// preference order, which largest-remainder redistribution would not preserve.
func Allocate(set prefs.PreferenceSet, total int64) ([]Allocation, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	if total < 0 {
		return nil, fmt.Errorf("%w: negative total %d", prefs.ErrInvalidPreferences, total)
	}

	out := make([]Allocation, len(set))
	var distributed int64
	for i, action := range set {
		var amount int64
		if i == len(set)-1 {
			amount = total - distributed
		} else {
			amount = action.Weight.ApplyTruncated(total)
		}
		distributed += amount
		out[i] = Allocation{Destination: action.Destination, Amount: amount}
	}
	return out, nil
}
