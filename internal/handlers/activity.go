package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tornadogo-backend/internal/dispatch"
	"tornadogo-backend/internal/middleware"
	"tornadogo-backend/internal/models"
	"tornadogo-backend/pkg/utils"
)

// GetRideActivity returns the ride's audit trail. Chronological by
// default; ?order=desc flips it for newest-first displays.
func GetRideActivity(eng *dispatch.Engine) http.HandlerFunc {
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

		entries := eng.EntriesForRide(rideID)
		if r.URL.Query().Get("order") == "desc" {
			for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
				entries[i], entries[j] = entries[j], entries[i]
			}
		}
		if entries == nil {
			entries = []models.ActivityLogEntry{}
		}
		utils.Success(w, entries)
	}
}

// GetRecentActivity returns the last n entries system-wide for the admin
// activity feed. Defaults to 50.
func GetRecentActivity(eng *dispatch.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				utils.Error(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			n = parsed
		}

		entries := eng.RecentEntries(n)
		if entries == nil {
			entries = []models.ActivityLogEntry{}
		}
		utils.Success(w, entries)
	}
}
