package models

import "time"

// Ride statuses. The intended ordering is
// REQUESTED -> ASSIGNED -> EN_ROUTE_TO_PICKUP -> PICKED_UP -> IN_PROGRESS -> COMPLETED,
// with CANCELLED reachable from any non-terminal status.
const (
	StatusRequested       = "REQUESTED"
	StatusAssigned        = "ASSIGNED"
	StatusEnRouteToPickup = "EN_ROUTE_TO_PICKUP"
	StatusPickedUp        = "PICKED_UP"
	StatusInProgress      = "IN_PROGRESS"
	StatusCompleted       = "COMPLETED"
	StatusCancelled       = "CANCELLED"
)

// Payment methods accepted on a ride request.
const (
	PaymentCash    = "Cash"
	PaymentCard    = "Card"
	PaymentInvoice = "Invoice"
)

// RideStatusOptions lists every status in lifecycle order.
var RideStatusOptions = []string{
	StatusRequested,
	StatusAssigned,
	StatusEnRouteToPickup,
	StatusPickedUp,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
}

// Stop is one intermediate stop between pickup and dropoff.
type Stop struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Ride is one trip request moving through the status lifecycle.
// Exactly one of RequesterUserID or the Guest* triple is populated.
type Ride struct {
	ID                string    `json:"id"`
	PublicToken       string    `json:"public_token"` // unguessable, for unauthenticated status lookup
	RequesterUserID   string    `json:"requester_user_id,omitempty"`
	GuestName         string    `json:"guest_name,omitempty"`
	GuestEmail        string    `json:"guest_email,omitempty"`
	GuestPhone        string    `json:"guest_phone,omitempty"`
	GuestCarrier      string    `json:"guest_carrier,omitempty"`
	PickupDetails     string    `json:"pickup_details"`
	DropoffDetails    string    `json:"dropoff_details"`
	AdditionalStops   []Stop    `json:"additional_stops"`
	RideDateTime      time.Time `json:"ride_date_time"`
	NumPassengers     int       `json:"num_passengers"`
	PaymentType       string    `json:"payment_type"`
	Status            string    `json:"status"`
	AssignedDriverID  string    `json:"assigned_driver_id,omitempty"`
	IsSharingLocation bool      `json:"is_sharing_location"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// IsGuest reports whether the ride was created without a registered account.
func (r *Ride) IsGuest() bool {
	return r.RequesterUserID == ""
}

// Terminal reports whether the ride reached an end state. The ledger
// still accepts entries for terminal rides; only the ride fields freeze.
func (r *Ride) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusCancelled
}

func ValidStatus(status string) bool {
	for _, s := range RideStatusOptions {
		if s == status {
			return true
		}
	}
	return false
}

func ValidPaymentType(pt string) bool {
	switch pt {
	case PaymentCash, PaymentCard, PaymentInvoice:
		return true
	}
	return false
}
