package notify

import "log"

// Event is the payload handed to the notification hook after every
// committed mutation.
type Event struct {
	// EventType is the ledger event kind that triggered the hook, or
	// "RECORD_CREATED"/"RECORD_UPDATED" for mutations that have no ledger
	// entry of their own (user edits, presence updates).
	EventType string `json:"event_type"`
	// Table is the mutated collection, Action is CREATE or UPDATE.
	Table  string `json:"table"`
	Action string `json:"action"`
	RideID string `json:"ride_id,omitempty"`
	// Record is the after-state of the mutated entity; Before is the
	// prior state for updates (nil for creates).
	Record interface{} `json:"record"`
	Before interface{} `json:"before,omitempty"`
	// Extra carries event-specific details (driver id, recipient email...).
	Extra map[string]string `json:"extra,omitempty"`
}

const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
)

// Notifier is the best-effort side channel invoked after each commit.
// Implementations must never block the caller's primary mutation; errors
// are logged, never escalated.
type Notifier interface {
	Notify(event Event)
}

// Multi fans an event out to every wrapped notifier.
type Multi []Notifier

func (m Multi) Notify(event Event) {
	for _, n := range m {
		n.Notify(event)
	}
}

// Async runs the wrapped notifier on its own goroutine so delivery cost
// and failures stay off the mutation path.
type Async struct {
	Next Notifier
}

func (a Async) Notify(event Event) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("❌ Notifier panicked (ignored): %v", r)
			}
		}()
		a.Next.Notify(event)
	}()
}

// Discard drops every event. Used in tests.
type Discard struct{}

func (Discard) Notify(Event) {}
