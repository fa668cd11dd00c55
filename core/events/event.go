package events

// Event is the wire-level representation of a state change delivered to
// downstream subscribers (RPC streams, indexers).
type Event struct {
	Type       string
	Attributes map[string]string
}

// Payload is implemented by structured event types that can render themselves
// into a broadcastable Event.
type Payload interface {
	EventType() string
	Event() *Event
}

// Emitter broadcasts events to downstream subscribers.
type Emitter interface {
	Emit(Payload)
}

// NoopEmitter satisfies the Emitter interface while discarding all events. It
// is the default for components that expose events optionally.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Payload) {}
