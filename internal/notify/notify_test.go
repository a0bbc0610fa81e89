package notify

import (
	"strings"
	"sync"
	"testing"
	"time"

	"tornadogo-backend/internal/models"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Notify(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type panicky struct{}

func (panicky) Notify(Event) { panic("broken notifier") }

func TestMultiFansOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := Multi{a, b}

	m.Notify(Event{EventType: models.EventRideRequested})

	if a.count() != 1 || b.count() != 1 {
		t.Errorf("fan-out counts = %d, %d, want 1, 1", a.count(), b.count())
	}
}

func TestAsyncDelivers(t *testing.T) {
	r := &recorder{}
	a := Async{Next: r}

	a.Notify(Event{EventType: models.EventRideRequested})

	deadline := time.Now().Add(2 * time.Second)
	for r.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("async event never delivered")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestAsyncSwallowsPanics(t *testing.T) {
	a := Async{Next: panicky{}}

	// Must not crash the process.
	a.Notify(Event{EventType: models.EventRideCancelled})
	time.Sleep(50 * time.Millisecond)
}

func TestRecordToCSV(t *testing.T) {
	record := map[string]interface{}{
		"id":     "r1",
		"status": "REQUESTED",
		"count":  float64(2),
		"stops":  []string{"a", "b"},
	}

	csvData, err := RecordToCSV(record)
	if err != nil {
		t.Fatalf("RecordToCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(csvData), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want header + row", len(lines))
	}
	// Headers come out sorted.
	if lines[0] != "count,id,status,stops" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "REQUESTED") {
		t.Errorf("row = %q", lines[1])
	}
	// Nested values embed as JSON.
	if !strings.Contains(lines[1], `""a""`) {
		t.Errorf("nested value not JSON-quoted: %q", lines[1])
	}
}

func TestRecordToCSVNilRecord(t *testing.T) {
	csvData, err := RecordToCSV(nil)
	if err != nil {
		t.Fatalf("RecordToCSV(nil): %v", err)
	}
	if csvData != "" {
		t.Errorf("nil record produced %q", csvData)
	}
}

func TestRoutingKeys(t *testing.T) {
	cases := map[string]string{
		models.EventRideRequested:  "ride.requested",
		models.EventDriverAssigned: "ride.assigned",
		models.EventStatusUpdated:  "ride.status",
		models.EventRideCancelled:  "ride.cancelled",
		models.EventMessageSent:    "ride.message",
		"RECORD_UPDATED":           "dispatch.record_updated",
	}
	for eventType, want := range cases {
		if got := routingKey(eventType); got != want {
			t.Errorf("routingKey(%s) = %q, want %q", eventType, got, want)
		}
	}
}
