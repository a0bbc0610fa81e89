package dispatch

import (
	"log"
	"strings"
	"time"

	"tornadogo-backend/internal/idgen"
	"tornadogo-backend/internal/models"
	"tornadogo-backend/internal/notify"
	"tornadogo-backend/internal/store"
)

// Config tunes engine behavior.
type Config struct {
	// StrictTransitions makes UpdateStatus validate against the canonical
	// lifecycle table instead of accepting arbitrary jumps. Off by
	// default: the dispatch office relies on being able to correct
	// mis-set statuses from the admin dashboard.
	StrictTransitions bool
}

// Engine owns every ride-lifecycle mutation. Each operation validates
// against current store state, commits the mutation together with its
// ledger entry under one store lock, then fires the notification hook.
type Engine struct {
	store    *store.Store
	notifier notify.Notifier
	cfg      Config
}

func NewEngine(st *store.Store, notifier notify.Notifier, cfg Config) *Engine {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Engine{store: st, notifier: notifier, cfg: cfg}
}

// forwardTransitions is the canonical lifecycle. Only consulted when
// StrictTransitions is on.
var forwardTransitions = map[string]string{
	models.StatusRequested:       models.StatusAssigned,
	models.StatusAssigned:        models.StatusEnRouteToPickup,
	models.StatusEnRouteToPickup: models.StatusPickedUp,
	models.StatusPickedUp:        models.StatusInProgress,
	models.StatusInProgress:      models.StatusCompleted,
}

// CreateRideInput carries everything a ride request form collects.
// Exactly one of RequesterUserID or the Guest* triple must be populated.
type CreateRideInput struct {
	RequesterUserID string
	GuestName       string
	GuestEmail      string
	GuestPhone      string
	GuestCarrier    string
	PickupDetails   string
	DropoffDetails  string
	AdditionalStops []string
	RideDateTime    time.Time
	NumPassengers   int
	PaymentType     string
}

// CreateRide validates the request, allocates a ride in REQUESTED with a
// fresh public token, and appends the RIDE_REQUESTED ledger entry.
func (e *Engine) CreateRide(input CreateRideInput) (models.Ride, error) {
	var (
		ride           models.Ride
		requesterEmail string
	)

	err := e.store.Update(func(tx *store.Tx) error {
		hasGuest := input.GuestName != "" || input.GuestEmail != "" || input.GuestPhone != ""

		switch {
		case input.RequesterUserID == "" && !hasGuest:
			return validationErr("requester", "requires a user id or guest contact details")
		case input.RequesterUserID != "" && hasGuest:
			return validationErr("requester", "cannot be both a registered user and a guest")
		case input.RequesterUserID != "":
			user := tx.FindUser(input.RequesterUserID)
			if user == nil {
				return &NotFoundError{Kind: "user", ID: input.RequesterUserID}
			}
			requesterEmail = user.Email
		default:
			if input.GuestName == "" || input.GuestEmail == "" || input.GuestPhone == "" {
				return validationErr("guest", "requires name, email and phone")
			}
			requesterEmail = input.GuestEmail
		}

		if strings.TrimSpace(input.PickupDetails) == "" {
			return validationErr("pickup_details", "is required")
		}
		if strings.TrimSpace(input.DropoffDetails) == "" {
			return validationErr("dropoff_details", "is required")
		}
		if input.RideDateTime.IsZero() {
			return validationErr("ride_date_time", "is required")
		}
		if input.RideDateTime.Before(time.Now().Add(-time.Minute)) {
			return validationErr("ride_date_time", "must not be in the past")
		}
		if input.NumPassengers < 1 {
			return validationErr("num_passengers", "must be at least 1")
		}
		if !models.ValidPaymentType(input.PaymentType) {
			return validationErr("payment_type", "is not a recognized payment method")
		}

		stops := make([]models.Stop, 0, len(input.AdditionalStops))
		for _, desc := range input.AdditionalStops {
			if strings.TrimSpace(desc) == "" {
				continue
			}
			stops = append(stops, models.Stop{ID: idgen.NewID(), Description: desc})
		}

		now := time.Now().UTC()
		ride = models.Ride{
			ID:              idgen.NewID(),
			PublicToken:     idgen.NewPublicToken(),
			RequesterUserID: input.RequesterUserID,
			GuestName:       input.GuestName,
			GuestEmail:      input.GuestEmail,
			GuestPhone:      input.GuestPhone,
			GuestCarrier:    input.GuestCarrier,
			PickupDetails:   input.PickupDetails,
			DropoffDetails:  input.DropoffDetails,
			AdditionalStops: stops,
			RideDateTime:    input.RideDateTime.UTC(),
			NumPassengers:   input.NumPassengers,
			PaymentType:     input.PaymentType,
			Status:          models.StatusRequested,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		tx.Data.Rides = append(tx.Data.Rides, ride)
		tx.Mark(store.KeyRides)

		appendEntry(tx, ride.ID, input.RequesterUserID, models.EventRideRequested, "Ride was requested.")
		return nil
	})
	if err != nil {
		return models.Ride{}, err
	}

	e.notifier.Notify(notify.Event{
		EventType: models.EventRideRequested,
		Table:     "rides",
		Action:    notify.ActionCreate,
		RideID:    ride.ID,
		Record:    ride,
		Extra: map[string]string{
			"requester_email": requesterEmail,
			"public_token":    ride.PublicToken,
		},
	})
	log.Printf("✅ Ride %s requested (%s → %s)", ride.ID, ride.PickupDetails, ride.DropoffDetails)
	return ride, nil
}

// AssignDriver sets or clears the assigned driver. Assigning onto a
// REQUESTED ride moves it to ASSIGNED; on any other status the driver
// changes without touching status (deliberate idempotent reassignment).
// Clearing the driver never reverts status.
func (e *Engine) AssignDriver(rideID, driverID, actorID string) error {
	var (
		before models.Ride
		after  models.Ride
	)

	err := e.store.Update(func(tx *store.Tx) error {
		ride := tx.FindRide(rideID)
		if ride == nil {
			return &NotFoundError{Kind: "ride", ID: rideID}
		}
		before = *ride

		description := "Ride was unassigned."
		if driverID != "" {
			driverName := "Unknown"
			if driver := tx.FindUser(driverID); driver != nil {
				driverName = driver.Name
			}
			description = "Driver " + driverName + " assigned."
			if ride.Status == models.StatusRequested {
				ride.Status = models.StatusAssigned
			}
		}

		ride.AssignedDriverID = driverID
		ride.UpdatedAt = time.Now().UTC()
		after = *ride
		tx.Mark(store.KeyRides)

		appendEntry(tx, rideID, actorID, models.EventDriverAssigned, description)
		return nil
	})
	if err != nil {
		return err
	}

	e.notifier.Notify(notify.Event{
		EventType: models.EventDriverAssigned,
		Table:     "rides",
		Action:    notify.ActionUpdate,
		RideID:    rideID,
		Record:    after,
		Before:    before,
		Extra:     map[string]string{"driver_id": driverID},
	})
	return nil
}

// UpdateStatus overwrites the ride status. With strict transitions off
// (the default) any status in the set is accepted, matching the admin
// dashboard's correct-anything workflow; the ledger still records every
// change.
func (e *Engine) UpdateStatus(rideID, newStatus, actorID string) error {
	var (
		before models.Ride
		after  models.Ride
	)

	err := e.store.Update(func(tx *store.Tx) error {
		if !models.ValidStatus(newStatus) {
			return validationErr("status", "is not a recognized ride status")
		}

		ride := tx.FindRide(rideID)
		if ride == nil {
			return &NotFoundError{Kind: "ride", ID: rideID}
		}

		if e.cfg.StrictTransitions && !legalTransition(ride.Status, newStatus) {
			return &StateTransitionError{From: ride.Status, To: newStatus}
		}

		before = *ride
		ride.Status = newStatus
		ride.UpdatedAt = time.Now().UTC()
		after = *ride
		tx.Mark(store.KeyRides)

		appendEntry(tx, rideID, actorID, models.EventStatusUpdated, "Status updated to "+newStatus+".")
		return nil
	})
	if err != nil {
		return err
	}

	e.notifier.Notify(notify.Event{
		EventType: models.EventStatusUpdated,
		Table:     "rides",
		Action:    notify.ActionUpdate,
		RideID:    rideID,
		Record:    after,
		Before:    before,
		Extra:     map[string]string{"status": newStatus},
	})
	return nil
}

func legalTransition(from, to string) bool {
	if from == to {
		return true
	}
	if to == models.StatusCancelled {
		return from != models.StatusCompleted
	}
	return forwardTransitions[from] == to
}

// CancelRide forces the ride to CANCELLED regardless of prior status and
// records the reason verbatim. Cancelling an already-terminal ride is a
// no-op in effect but still appends its ledger entry.
func (e *Engine) CancelRide(rideID, reason, actorID string) error {
	var (
		before models.Ride
		after  models.Ride
	)

	err := e.store.Update(func(tx *store.Tx) error {
		if strings.TrimSpace(reason) == "" {
			return validationErr("reason", "is required")
		}

		ride := tx.FindRide(rideID)
		if ride == nil {
			return &NotFoundError{Kind: "ride", ID: rideID}
		}

		before = *ride
		ride.Status = models.StatusCancelled
		ride.UpdatedAt = time.Now().UTC()
		after = *ride
		tx.Mark(store.KeyRides)

		appendEntry(tx, rideID, actorID, models.EventRideCancelled, "Ride cancelled. Reason: "+reason)
		return nil
	})
	if err != nil {
		return err
	}

	e.notifier.Notify(notify.Event{
		EventType: models.EventRideCancelled,
		Table:     "rides",
		Action:    notify.ActionUpdate,
		RideID:    rideID,
		Record:    after,
		Before:    before,
		Extra:     map[string]string{"driver_id": after.AssignedDriverID, "reason": reason},
	})
	return nil
}

// ToggleLocationSharing flips the ride's location-sharing flag. Status is
// untouched and no ledger entry is written (the flag is presentation
// state, not lifecycle history).
func (e *Engine) ToggleLocationSharing(rideID string, enabled bool) error {
	var (
		before models.Ride
		after  models.Ride
	)

	err := e.store.Update(func(tx *store.Tx) error {
		ride := tx.FindRide(rideID)
		if ride == nil {
			return &NotFoundError{Kind: "ride", ID: rideID}
		}
		before = *ride
		ride.IsSharingLocation = enabled
		ride.UpdatedAt = time.Now().UTC()
		after = *ride
		tx.Mark(store.KeyRides)
		return nil
	})
	if err != nil {
		return err
	}

	e.notifier.Notify(notify.Event{
		EventType: "RECORD_UPDATED",
		Table:     "rides",
		Action:    notify.ActionUpdate,
		RideID:    rideID,
		Record:    after,
		Before:    before,
	})
	return nil
}

// SendMessage stores an in-ride chat message. The engine accepts any
// sender/receiver pair; whether a caller may message on a given ride is
// the transport layer's policy.
func (e *Engine) SendMessage(rideID, senderID, receiverID, text string, isSystem bool) (models.Message, error) {
	var msg models.Message

	err := e.store.Update(func(tx *store.Tx) error {
		if strings.TrimSpace(text) == "" {
			return validationErr("message_text", "is required")
		}
		if tx.FindRide(rideID) == nil {
			return &NotFoundError{Kind: "ride", ID: rideID}
		}

		msg = models.Message{
			ID:         idgen.NewID(),
			RideID:     rideID,
			SenderID:   senderID,
			ReceiverID: receiverID,
			Text:       text,
			IsSystem:   isSystem,
			CreatedAt:  time.Now().UTC(),
		}
		tx.Data.Messages = append(tx.Data.Messages, msg)
		tx.Mark(store.KeyMessages)

		appendEntry(tx, rideID, senderID, models.EventMessageSent, "Message sent.")
		return nil
	})
	if err != nil {
		return models.Message{}, err
	}

	e.notifier.Notify(notify.Event{
		EventType: models.EventMessageSent,
		Table:     "messages",
		Action:    notify.ActionCreate,
		RideID:    rideID,
		Record:    msg,
	})
	return msg, nil
}

// SetAvailability upserts the driver's single availability record.
func (e *Engine) SetAvailability(driverID string, isAvailable bool) error {
	var (
		record models.DriverAvailability
		action = notify.ActionUpdate
	)

	err := e.store.Update(func(tx *store.Tx) error {
		now := time.Now().UTC()
		if avail := tx.FindAvailability(driverID); avail != nil {
			avail.IsAvailableNow = isAvailable
			avail.UpdatedAt = now
			record = *avail
		} else {
			record = models.DriverAvailability{
				ID:             idgen.NewID(),
				DriverID:       driverID,
				IsAvailableNow: isAvailable,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			tx.Data.Availabilities = append(tx.Data.Availabilities, record)
			action = notify.ActionCreate
		}
		tx.Mark(store.KeyAvailabilities)
		return nil
	})
	if err != nil {
		return err
	}

	e.notifier.Notify(notify.Event{
		EventType: "RECORD_UPDATED",
		Table:     "driverAvailabilities",
		Action:    action,
		Record:    record,
	})
	return nil
}

// ReportLocation upserts the driver's single location record. Last write
// wins: the store lock serializes reports, so apply order is arrival
// order. No bounds validation is performed on lat/lng.
func (e *Engine) ReportLocation(driverID string, lat, lng float64) error {
	var (
		record models.DriverLocation
		action = notify.ActionUpdate
	)

	err := e.store.Update(func(tx *store.Tx) error {
		now := time.Now().UTC()
		if loc := tx.FindLocation(driverID); loc != nil {
			loc.LastLat = lat
			loc.LastLng = lng
			loc.LastUpdatedAt = now
			record = *loc
		} else {
			record = models.DriverLocation{
				ID:            idgen.NewID(),
				DriverID:      driverID,
				LastLat:       lat,
				LastLng:       lng,
				LastUpdatedAt: now,
			}
			tx.Data.Locations = append(tx.Data.Locations, record)
			action = notify.ActionCreate
		}
		tx.Mark(store.KeyLocations)
		return nil
	})
	if err != nil {
		return err
	}

	e.notifier.Notify(notify.Event{
		EventType: "RECORD_UPDATED",
		Table:     "driverLocations",
		Action:    action,
		Record:    record,
	})
	return nil
}
