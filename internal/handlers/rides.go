package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"tornadogo-backend/internal/dispatch"
	"tornadogo-backend/internal/middleware"
	"tornadogo-backend/internal/models"
	"tornadogo-backend/pkg/utils"
)

type CreateRideRequest struct {
	GuestName       string   `json:"guest_name"`
	GuestEmail      string   `json:"guest_email"`
	GuestPhone      string   `json:"guest_phone"`
	GuestCarrier    string   `json:"guest_carrier"`
	PickupDetails   string   `json:"pickup_details"`
	DropoffDetails  string   `json:"dropoff_details"`
	AdditionalStops []string `json:"additional_stops"`
	RideDateTime    string   `json:"ride_date_time"` // RFC 3339
	NumPassengers   int      `json:"num_passengers"`
	PaymentType     string   `json:"payment_type"`
}

// CreateRide books a trip. Logged-in callers become the requester; without
// a token the guest contact triple is required. The endpoint is public so
// walk-up guests can book without an account.
func CreateRide(eng *dispatch.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateRideRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		input := dispatch.CreateRideInput{
			GuestName:       req.GuestName,
			GuestEmail:      req.GuestEmail,
			GuestPhone:      req.GuestPhone,
			GuestCarrier:    req.GuestCarrier,
			PickupDetails:   req.PickupDetails,
			DropoffDetails:  req.DropoffDetails,
			AdditionalStops: req.AdditionalStops,
			NumPassengers:   req.NumPassengers,
			PaymentType:     req.PaymentType,
		}

		if req.RideDateTime != "" {
			t, err := time.Parse(time.RFC3339, req.RideDateTime)
			if err != nil {
				utils.Error(w, http.StatusBadRequest, "ride_date_time must be RFC 3339")
				return
			}
			input.RideDateTime = t
		}

		// A valid bearer token makes this a registered-user booking and
		// overrides any guest fields.
		if auth := r.Header.Get("Authorization"); auth != "" {
			parts := strings.Split(auth, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				if claims, ok := middleware.ParseToken(parts[1]); ok {
					input.RequesterUserID = claims.UserID
					input.GuestName, input.GuestEmail, input.GuestPhone, input.GuestCarrier = "", "", "", ""
				}
			}
		}

		ride, err := eng.CreateRide(input)
		if err != nil {
			utils.EngineError(w, err)
			return
		}

		utils.JSON(w, http.StatusCreated, ride)
	}
}

// GetMyRides lists the authenticated user's rides: requested rides for
// passengers, assigned trips for drivers.
func GetMyRides(eng *dispatch.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		filter := dispatch.RideFilter{RequesterID: claims.UserID}
		if claims.Role == models.RoleDriver {
			filter = dispatch.RideFilter{DriverID: claims.UserID}
		}
		if status := r.URL.Query().Get("status"); status != "" {
			filter.Status = status
		}

		rides := eng.Rides(filter)
		if rides == nil {
			rides = []models.Ride{}
		}
		utils.Success(w, rides)
	}
}

// GetRide returns one ride. Only the requester, the assigned driver and
// admins may read it.
func GetRide(eng *dispatch.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ride, err := eng.RideByID(chi.URLParam(r, "id"))
		if err != nil {
			utils.EngineError(w, err)
			return
		}
		if !canAccessRide(&ride, claims) {
			utils.Error(w, http.StatusForbidden, "not authorized for this ride")
			return
		}

		utils.Success(w, ride)
	}
}

type CancelRideRequest struct {
	Reason string `json:"reason"`
}

// CancelRide forces the ride to CANCELLED. Requester, assigned driver and
// admins only.
func CancelRide(eng *dispatch.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		rideID := chi.URLParam(r, "id")
		ride, err := eng.RideByID(rideID)
		if err != nil {
			utils.EngineError(w, err)
			return
		}
		if !canAccessRide(&ride, claims) {
			utils.Error(w, http.StatusForbidden, "not authorized for this ride")
			return
		}

		var req CancelRideRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if err := eng.CancelRide(rideID, req.Reason, claims.UserID); err != nil {
			utils.EngineError(w, err)
			return
		}

		utils.Success(w, map[string]bool{"cancelled": true})
	}
}

type LocationSharingRequest struct {
	Enabled bool `json:"enabled"`
}

// ToggleLocationSharing flips the live-map flag. Assigned driver and
// admins only.
func ToggleLocationSharing(eng *dispatch.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		rideID := chi.URLParam(r, "id")
		ride, err := eng.RideByID(rideID)
		if err != nil {
			utils.EngineError(w, err)
			return
		}
		if claims.Role != models.RoleAdmin && ride.AssignedDriverID != claims.UserID {
			utils.Error(w, http.StatusForbidden, "only the assigned driver can share location")
			return
		}

		var req LocationSharingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if err := eng.ToggleLocationSharing(rideID, req.Enabled); err != nil {
			utils.EngineError(w, err)
			return
		}

		utils.Success(w, map[string]bool{"is_sharing_location": req.Enabled})
	}
}

// PublicStatusResponse is the unauthenticated view behind the public
// tracking link. Contact details never leak through it.
type PublicStatusResponse struct {
	Status          string                 `json:"status"`
	PickupDetails   string                 `json:"pickup_details"`
	DropoffDetails  string                 `json:"dropoff_details"`
	RideDateTime    time.Time              `json:"ride_date_time"`
	DriverName      string                 `json:"driver_name,omitempty"`
	SharingLocation bool                   `json:"is_sharing_location"`
	DriverLocation  *models.DriverLocation `json:"driver_location,omitempty"`
}

// PublicRideStatus resolves a ride by its opaque public token. No auth:
// holding the token is the authorization.
func PublicRideStatus(eng *dispatch.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ride, err := eng.RideByToken(chi.URLParam(r, "token"))
		if err != nil {
			utils.EngineError(w, err)
			return
		}

		resp := PublicStatusResponse{
			Status:          ride.Status,
			PickupDetails:   ride.PickupDetails,
			DropoffDetails:  ride.DropoffDetails,
			RideDateTime:    ride.RideDateTime,
			SharingLocation: ride.IsSharingLocation,
		}

		if ride.AssignedDriverID != "" {
			if driver, err := eng.UserByID(ride.AssignedDriverID); err == nil {
				resp.DriverName = driver.Name
			}
			if ride.IsSharingLocation {
				if loc, found := eng.LocationForDriver(ride.AssignedDriverID); found {
					resp.DriverLocation = &loc
				}
			}
		}

		utils.Success(w, resp)
	}
}

func canAccessRide(ride *models.Ride, claims middleware.UserClaims) bool {
	if claims.Role == models.RoleAdmin {
		return true
	}
	return ride.RequesterUserID == claims.UserID || ride.AssignedDriverID == claims.UserID
}
