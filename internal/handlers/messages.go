package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tornadogo-backend/internal/dispatch"
	"tornadogo-backend/internal/middleware"
	"tornadogo-backend/internal/models"
	"tornadogo-backend/internal/websocket"
	"tornadogo-backend/pkg/utils"
)

type SendMessageRequest struct {
	Text string `json:"message_text"`
}

// SendMessage posts into the per-ride conversation. Policy enforced here,
// not in the engine: the ride must have an assigned driver, and the
// sender must be the requester, the driver or an admin. The receiver is
// derived: passengers message the driver, the driver messages the
// requester.
func SendMessage(eng *dispatch.Engine, hub *websocket.Hub) http.HandlerFunc {
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
		if ride.AssignedDriverID == "" {
			utils.Error(w, http.StatusConflict, "messaging opens once a driver is assigned")
			return
		}

		receiverID := ride.AssignedDriverID
		if claims.UserID == ride.AssignedDriverID {
			receiverID = ride.RequesterUserID
		}

		var req SendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		msg, err := eng.SendMessage(rideID, claims.UserID, receiverID, req.Text, false)
		if err != nil {
			utils.EngineError(w, err)
			return
		}

		if hub != nil && receiverID != "" {
			hub.BroadcastToUser(receiverID, map[string]interface{}{
				"type": "new_message",
				"data": msg,
			})
		}

		utils.JSON(w, http.StatusCreated, msg)
	}
}

// GetRideMessages returns the ride's conversation in creation order.
func GetRideMessages(eng *dispatch.Engine) http.HandlerFunc {
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

		messages := eng.MessagesForRide(rideID)
		if messages == nil {
			messages = []models.Message{}
		}
		utils.Success(w, messages)
	}
}
