package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"tornadogo-backend/internal/dispatch"
	"tornadogo-backend/internal/middleware"
	"tornadogo-backend/internal/models"
	"tornadogo-backend/internal/notify"
	"tornadogo-backend/internal/websocket"
	"tornadogo-backend/pkg/utils"
)

type SetAvailabilityRequest struct {
	IsAvailable bool `json:"is_available"`
}

// SetAvailability flips the authenticated driver's availability flag.
func SetAvailability(eng *dispatch.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetUserFromContext(r)

		var req SetAvailabilityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if err := eng.SetAvailability(claims.UserID, req.IsAvailable); err != nil {
			utils.EngineError(w, err)
			return
		}

		avail, _ := eng.AvailabilityForDriver(claims.UserID)
		utils.Success(w, avail)
	}
}

type ReportLocationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ReportLocation stores the driver's latest position and fans it out to
// admin dashboards. Sent every few seconds while the driver shares
// location; the next report overwrites the previous one.
func ReportLocation(eng *dispatch.Engine, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetUserFromContext(r)

		var req ReportLocationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if err := eng.ReportLocation(claims.UserID, req.Latitude, req.Longitude); err != nil {
			utils.EngineError(w, err)
			return
		}

		loc, _ := eng.LocationForDriver(claims.UserID)
		if hub != nil {
			hub.BroadcastToRole(models.RoleAdmin, map[string]interface{}{
				"type": "driver_location_update",
				"data": loc,
			})
		}

		utils.Success(w, loc)
	}
}

// GetAvailability returns the driver's own availability record.
func GetAvailability(eng *dispatch.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetUserFromContext(r)

		avail, found := eng.AvailabilityForDriver(claims.UserID)
		if !found {
			utils.Error(w, http.StatusNotFound, "no availability record")
			return
		}
		utils.Success(w, avail)
	}
}

type RegisterFCMTokenRequest struct {
	Token string `json:"token"`
}

// RegisterFCMToken stores the driver app's push token. A nil notifier
// (push disabled) accepts and drops the registration.
func RegisterFCMToken(fcm *notify.FCMNotifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetUserFromContext(r)

		var req RegisterFCMTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if fcm == nil {
			log.Println("⚠️  FCM disabled, dropping token registration")
			utils.Success(w, map[string]bool{"registered": false})
			return
		}

		fcm.RegisterToken(claims.UserID, req.Token)
		utils.Success(w, map[string]bool{"registered": true})
	}
}
