package dispatch

import (
	"time"

	"tornadogo-backend/internal/idgen"
	"tornadogo-backend/internal/models"
	"tornadogo-backend/internal/store"
)

// appendEntry adds a ledger entry inside an open transaction. The ledger
// is append-only: entries are never mutated or deleted, and (CreatedAt,
// Seq) gives the audit trail a total order.
func appendEntry(tx *store.Tx, rideID, actorID, eventType, description string) models.ActivityLogEntry {
	entry := models.ActivityLogEntry{
		ID:          idgen.NewID(),
		RideID:      rideID,
		ActorUserID: actorID,
		EventType:   eventType,
		Description: description,
		Seq:         tx.NextSeq(),
		CreatedAt:   time.Now().UTC(),
	}
	tx.Data.ActivityLog = append(tx.Data.ActivityLog, entry)
	tx.Mark(store.KeyActivity)
	return entry
}

// RecordEvent appends a standalone ledger entry. It always succeeds: no
// validation is performed on any argument, an empty actorID marks a
// system-initiated event.
func (e *Engine) RecordEvent(rideID, actorID, eventType, description string) models.ActivityLogEntry {
	var entry models.ActivityLogEntry
	_ = e.store.Update(func(tx *store.Tx) error {
		entry = appendEntry(tx, rideID, actorID, eventType, description)
		return nil
	})
	return entry
}

// EntriesForRide returns the full history for a ride in chronological
// order. Callers wanting newest-first reverse the slice themselves.
func (e *Engine) EntriesForRide(rideID string) []models.ActivityLogEntry {
	var entries []models.ActivityLogEntry
	_ = e.store.View(func(d *store.Data) error {
		for _, entry := range d.ActivityLog {
			if entry.RideID == rideID {
				entries = append(entries, entry)
			}
		}
		return nil
	})
	return entries
}

// RecentEntries returns the last n entries system-wide, chronological.
func (e *Engine) RecentEntries(n int) []models.ActivityLogEntry {
	var entries []models.ActivityLogEntry
	_ = e.store.View(func(d *store.Data) error {
		start := len(d.ActivityLog) - n
		if start < 0 {
			start = 0
		}
		entries = append(entries, d.ActivityLog[start:]...)
		return nil
	})
	return entries
}
