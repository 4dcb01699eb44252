package protocol

// FailurePolicy says what the executing host should do when a conditional
// group fails at broadcast time.
type FailurePolicy string

const (
	// FailureAbort aborts the remaining groups.
	FailureAbort FailurePolicy = "abort"
	// FailureContinue drops the failed group and continues.
	FailureContinue FailurePolicy = "continue"
)

// ConditionalGroup is a sub-sequence of messages the host may execute or drop
// as a unit, identified for reply correlation.
type ConditionalGroup struct {
	ID        string        `json:"id"`
	Messages  []Message     `json:"messages"`
	OnFailure FailurePolicy `json:"on_failure"`
}

// Bundle is one destination's compiled output: primary messages, conditional
// groups, and audit events, each in causal order. Bundles form a monoid under
// Concat; Prepend and Append let a handler inject a dependency around its own
// output without re-deriving order.
type Bundle struct {
	Primary     []Message          `json:"primary"`
	Conditional []ConditionalGroup `json:"conditional,omitempty"`
	Events      []Event            `json:"events,omitempty"`
}

// NewBundle builds a bundle from primary messages.
func NewBundle(msgs ...Message) Bundle {
	return Bundle{Primary: msgs}
}

// Prepend returns a bundle with msgs placed before the receiver's primary
// messages. Used for prerequisite steps: a swap feeding a stake goes first.
func (b Bundle) Prepend(msgs ...Message) Bundle {
	out := b
	out.Primary = append(append([]Message{}, msgs...), b.Primary...)
	return out
}

// Append returns a bundle with msgs placed after the receiver's primary
// messages. Used for cleanup steps such as forwarding leftover balance.
func (b Bundle) Append(msgs ...Message) Bundle {
	out := b
	out.Primary = append(append([]Message{}, b.Primary...), msgs...)
	return out
}

// WithEvent returns a bundle with an event added.
func (b Bundle) WithEvent(ev Event) Bundle {
	out := b
	out.Events = append(append([]Event{}, b.Events...), ev)
	return out
}

// WithConditional returns a bundle with a conditional group added.
func (b Bundle) WithConditional(g ConditionalGroup) Bundle {
	out := b
	out.Conditional = append(append([]ConditionalGroup{}, b.Conditional...), g)
	return out
}

// Concat combines two bundles field-wise, receiver first.
func (b Bundle) Concat(other Bundle) Bundle {
	return Bundle{
		Primary:     append(append([]Message{}, b.Primary...), other.Primary...),
		Conditional: append(append([]ConditionalGroup{}, b.Conditional...), other.Conditional...),
		Events:      append(append([]Event{}, b.Events...), other.Events...),
	}
}

// IsEmpty reports whether the bundle carries no messages. Events do not
// count: a skipped destination has an empty bundle with one event.
func (b Bundle) IsEmpty() bool {
	return len(b.Primary) == 0 && len(b.Conditional) == 0
}

// Flatten concatenates bundles in order and returns the combined result.
func Flatten(bundles []Bundle) Bundle {
	var out Bundle
	for _, b := range bundles {
		out = out.Concat(b)
	}
	return out
}
