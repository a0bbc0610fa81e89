package models

import "time"

// DriverAvailability is the single availability record per driver,
// toggled by the driver only.
type DriverAvailability struct {
	ID             string     `json:"id"`
	DriverID       string     `json:"driver_id"`
	AvailableFrom  *time.Time `json:"available_from,omitempty"`
	AvailableTo    *time.Time `json:"available_to,omitempty"`
	IsAvailableNow bool       `json:"is_available_now"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// DriverLocation is the single last-known-position record per driver,
// overwritten in place on every report. No history is retained.
type DriverLocation struct {
	ID            string    `json:"id"`
	DriverID      string    `json:"driver_id"`
	LastLat       float64   `json:"last_lat"`
	LastLng       float64   `json:"last_lng"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}
