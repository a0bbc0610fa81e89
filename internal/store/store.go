package store

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"tornadogo-backend/internal/models"
)

// Collection keys. These match the storage keys of the original web app so
// an exported snapshot stays recognizable.
const (
	KeyUsers          = "tt_users"
	KeyRides          = "tt_rides"
	KeyActivity       = "tt_activity"
	KeyMessages       = "tt_messages"
	KeyAvailabilities = "tt_availabilities"
	KeyLocations      = "tt_locations"
)

// Data holds every authoritative collection. All entities are owned here;
// the lifecycle engine keeps no private copies.
type Data struct {
	Users          []models.User
	Rides          []models.Ride
	ActivityLog    []models.ActivityLogEntry
	Messages       []models.Message
	Availabilities []models.DriverAvailability
	Locations      []models.DriverLocation
}

// Store is the single source of truth and the unit of consistency. One
// mutex serializes every operation, so no caller ever observes a
// partially-applied mutation.
type Store struct {
	mu      sync.Mutex
	adapter Adapter
	data    Data
	lastSeq int64
}

// Tx is the view handed to an Update callback. Callbacks must perform all
// validation before mutating Data: a returned error skips the save but
// does not roll back in-memory changes.
type Tx struct {
	Data  *Data
	store *Store
	dirty map[string]bool
}

// New builds a store backed by adapter and loads every collection.
func New(adapter Adapter) (*Store, error) {
	s := &Store{adapter: adapter}

	for _, c := range []struct {
		key string
		dst interface{}
	}{
		{KeyUsers, &s.data.Users},
		{KeyRides, &s.data.Rides},
		{KeyActivity, &s.data.ActivityLog},
		{KeyMessages, &s.data.Messages},
		{KeyAvailabilities, &s.data.Availabilities},
		{KeyLocations, &s.data.Locations},
	} {
		raw, err := adapter.Load(c.key)
		if err != nil {
			return nil, fmt.Errorf("store init: %w", err)
		}
		if raw == nil {
			continue
		}
		if err := json.Unmarshal(raw, c.dst); err != nil {
			return nil, fmt.Errorf("store init: decode %s: %w", c.key, err)
		}
	}

	for _, e := range s.data.ActivityLog {
		if e.Seq > s.lastSeq {
			s.lastSeq = e.Seq
		}
	}

	return s, nil
}

// Update runs fn under the store lock and, on success, persists every
// collection fn marked dirty. Adapter failures are logged but do not fail
// the mutation; the in-memory state stays authoritative.
func (s *Store) Update(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{Data: &s.data, store: s, dirty: make(map[string]bool)}
	if err := fn(tx); err != nil {
		return err
	}

	for key := range tx.dirty {
		raw, err := json.Marshal(s.collection(key))
		if err != nil {
			log.Printf("❌ Failed to encode %s snapshot: %v", key, err)
			continue
		}
		if err := s.adapter.Save(key, raw); err != nil {
			log.Printf("❌ Failed to persist %s snapshot: %v", key, err)
		}
	}
	return nil
}

// View runs fn under the store lock for consistent reads. fn must copy out
// anything it wants to keep.
func (s *Store) View(fn func(d *Data) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.data)
}

func (s *Store) collection(key string) interface{} {
	switch key {
	case KeyUsers:
		return s.data.Users
	case KeyRides:
		return s.data.Rides
	case KeyActivity:
		return s.data.ActivityLog
	case KeyMessages:
		return s.data.Messages
	case KeyAvailabilities:
		return s.data.Availabilities
	case KeyLocations:
		return s.data.Locations
	}
	return nil
}

// Mark flags a collection for persistence when the Update commits.
func (tx *Tx) Mark(key string) {
	tx.dirty[key] = true
}

// NextSeq hands out the next ledger sequence number. Sequence order breaks
// timestamp ties so the audit trail keeps a total order.
func (tx *Tx) NextSeq() int64 {
	tx.store.lastSeq++
	return tx.store.lastSeq
}

// FindRide returns a pointer into the Rides collection, or nil.
func (tx *Tx) FindRide(rideID string) *models.Ride {
	for i := range tx.Data.Rides {
		if tx.Data.Rides[i].ID == rideID {
			return &tx.Data.Rides[i]
		}
	}
	return nil
}

// FindUser returns a pointer into the Users collection, or nil.
func (tx *Tx) FindUser(userID string) *models.User {
	for i := range tx.Data.Users {
		if tx.Data.Users[i].ID == userID {
			return &tx.Data.Users[i]
		}
	}
	return nil
}

// FindUserByEmail returns a pointer into the Users collection, or nil.
func (tx *Tx) FindUserByEmail(email string) *models.User {
	for i := range tx.Data.Users {
		if tx.Data.Users[i].Email == email {
			return &tx.Data.Users[i]
		}
	}
	return nil
}

// FindAvailability returns the driver's availability record, or nil.
func (tx *Tx) FindAvailability(driverID string) *models.DriverAvailability {
	for i := range tx.Data.Availabilities {
		if tx.Data.Availabilities[i].DriverID == driverID {
			return &tx.Data.Availabilities[i]
		}
	}
	return nil
}

// FindLocation returns the driver's location record, or nil.
func (tx *Tx) FindLocation(driverID string) *models.DriverLocation {
	for i := range tx.Data.Locations {
		if tx.Data.Locations[i].DriverID == driverID {
			return &tx.Data.Locations[i]
		}
	}
	return nil
}
