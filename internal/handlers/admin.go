package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tornadogo-backend/internal/dispatch"
	"tornadogo-backend/internal/middleware"
	"tornadogo-backend/internal/models"
	"tornadogo-backend/internal/websocket"
	"tornadogo-backend/pkg/utils"
)

type AssignDriverRequest struct {
	DriverID string `json:"driver_id"` // empty string unassigns
}

// AssignDriver sets or clears a ride's driver and pushes the change to
// connected dashboards.
func AssignDriver(eng *dispatch.Engine, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetUserFromContext(r)

		var req AssignDriverRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		rideID := chi.URLParam(r, "id")
		if err := eng.AssignDriver(rideID, req.DriverID, claims.UserID); err != nil {
			utils.EngineError(w, err)
			return
		}

		ride, err := eng.RideByID(rideID)
		if err != nil {
			utils.EngineError(w, err)
			return
		}

		broadcastRideUpdate(hub, &ride)
		log.Printf("✅ Ride %s driver set to %q by %s", rideID, req.DriverID, claims.UserID)
		utils.Success(w, ride)
	}
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus overwrites the ride status from the admin dashboard.
func UpdateStatus(eng *dispatch.Engine, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetUserFromContext(r)

		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		rideID := chi.URLParam(r, "id")
		if err := eng.UpdateStatus(rideID, req.Status, claims.UserID); err != nil {
			utils.EngineError(w, err)
			return
		}

		ride, err := eng.RideByID(rideID)
		if err != nil {
			utils.EngineError(w, err)
			return
		}

		broadcastRideUpdate(hub, &ride)
		utils.Success(w, ride)
	}
}

// GetAllRides lists every ride, optionally filtered by status, requester
// or driver.
func GetAllRides(eng *dispatch.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		rides := eng.Rides(dispatch.RideFilter{
			RequesterID: q.Get("requester_id"),
			DriverID:    q.Get("driver_id"),
			Status:      q.Get("status"),
		})
		if rides == nil {
			rides = []models.Ride{}
		}
		utils.Success(w, rides)
	}
}

// GetAllUsers lists every account for the user-management table.
func GetAllUsers(eng *dispatch.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users := eng.Users()
		responses := make([]models.UserResponse, 0, len(users))
		for i := range users {
			responses = append(responses, users[i].ToUserResponse())
		}
		utils.Success(w, responses)
	}
}

type AdminCreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Carrier  string `json:"carrier"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// CreateUser lets admins create accounts of any role, including other
// admins.
func CreateUser(eng *dispatch.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminCreateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		user, err := eng.RegisterUser(dispatch.RegisterUserInput{
			Name:     req.Name,
			Email:    req.Email,
			Phone:    req.Phone,
			Carrier:  req.Carrier,
			Role:     req.Role,
			Password: req.Password,
		})
		if err != nil {
			utils.EngineError(w, err)
			return
		}

		log.Printf("✅ Admin created %s account: %s", user.Role, user.Email)
		utils.JSON(w, http.StatusCreated, user.ToUserResponse())
	}
}

type AdminUpdateUserRequest struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Carrier  *string `json:"carrier"`
	Active   *bool   `json:"active"`
	Password *string `json:"password"`
}

// UpdateUser applies profile edits and activate/deactivate. Role is
// immutable and deliberately not accepted here.
func UpdateUser(eng *dispatch.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminUpdateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		user, err := eng.UpdateUser(chi.URLParam(r, "id"), dispatch.UserUpdate{
			Name:     req.Name,
			Phone:    req.Phone,
			Carrier:  req.Carrier,
			Active:   req.Active,
			Password: req.Password,
		})
		if err != nil {
			utils.EngineError(w, err)
			return
		}

		utils.Success(w, user.ToUserResponse())
	}
}

// DriverOverview joins a driver with their presence records for the fleet
// dashboard.
type DriverOverview struct {
	Driver       models.UserResponse        `json:"driver"`
	Availability *models.DriverAvailability `json:"availability,omitempty"`
	Location     *models.DriverLocation     `json:"location,omitempty"`
}

func GetDrivers(eng *dispatch.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		drivers := eng.Drivers()
		overviews := make([]DriverOverview, 0, len(drivers))
		for i := range drivers {
			overview := DriverOverview{Driver: drivers[i].ToUserResponse()}
			if avail, found := eng.AvailabilityForDriver(drivers[i].ID); found {
				overview.Availability = &avail
			}
			if loc, found := eng.LocationForDriver(drivers[i].ID); found {
				overview.Location = &loc
			}
			overviews = append(overviews, overview)
		}
		utils.Success(w, overviews)
	}
}

func broadcastRideUpdate(hub *websocket.Hub, ride *models.Ride) {
	if hub == nil {
		return
	}
	update := map[string]interface{}{
		"type": "ride_update",
		"data": ride,
	}
	hub.BroadcastToRole(models.RoleAdmin, update)
	if ride.RequesterUserID != "" {
		hub.BroadcastToUser(ride.RequesterUserID, update)
	}
	if ride.AssignedDriverID != "" {
		hub.BroadcastToUser(ride.AssignedDriverID, update)
	}
}
