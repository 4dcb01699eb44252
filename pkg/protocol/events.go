package protocol

import "strconv"

// Attribute is one key/value pair on an Event.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event is an audit record emitted alongside instructions. Events are data
// returned to the caller, not log lines.
type Event struct {
	Type       string      `json:"type"`
	Attributes []Attribute `json:"attributes"`
}

// NewEvent builds an event of the given type.
func NewEvent(eventType string) Event {
	return Event{Type: eventType}
}

// WithAttr returns the event with a string attribute appended.
func (e Event) WithAttr(key, value string) Event {
	out := e
	out.Attributes = append(append([]Attribute{}, e.Attributes...), Attribute{Key: key, Value: value})
	return out
}

// WithIntAttr returns the event with an integer attribute appended.
func (e Event) WithIntAttr(key string, value int64) Event {
	return e.WithAttr(key, strconv.FormatInt(value, 10))
}

// Attr returns the value of the first attribute with the given key.
func (e Event) Attr(key string) (string, bool) {
	for _, a := range e.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}
