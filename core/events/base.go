package events

import "time"

// Kind is the wire name of the frame an event was decoded from.
type Kind string

type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

type Base struct {
	kind      Kind
	timestamp time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

// Timestamp is the time the event was decoded, not when the backend sent it.
func (b Base) Timestamp() time.Time {
	return b.timestamp
}
