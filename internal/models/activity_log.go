package models

import "time"

// Ledger event kinds.
const (
	EventRideRequested    = "RIDE_REQUESTED"
	EventDriverAssigned   = "DRIVER_ASSIGNED"
	EventPickupConfirmed  = "PICKUP_CONFIRMED"
	EventDropoffConfirmed = "DROPOFF_CONFIRMED"
	EventStatusUpdated    = "STATUS_UPDATED"
	EventMessageSent      = "MESSAGE_SENT"
	EventRideCancelled    = "RIDE_CANCELLED"
	EventDriverEnRoute    = "DRIVER_EN_ROUTE"
)

// ActivityLogEntry is one append-only audit record. Entries are never
// mutated or deleted; Seq breaks ties between entries created in the
// same instant.
type ActivityLogEntry struct {
	ID          string    `json:"id"`
	RideID      string    `json:"ride_id"`
	ActorUserID string    `json:"actor_user_id,omitempty"` // empty = system-initiated
	EventType   string    `json:"event_type"`
	Description string    `json:"event_description"`
	Seq         int64     `json:"seq"`
	CreatedAt   time.Time `json:"created_at"`
}
