package bridge

// Event represents a call lifecycle event.
// Minimal and stable: name + call id + model path and optional fields.
type Event struct {
	Name      string
	CallID    string
	ModelPath string
	Fields    map[string]any
}

// Event names.
const (
	EventRunStart    = "run_start"
	EventRunResolved = "run_resolved"
	EventRunRejected = "run_rejected"
)

// EventPublisher receives events from the bridge. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
