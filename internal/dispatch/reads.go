package dispatch

import (
	"tornadogo-backend/internal/models"
	"tornadogo-backend/internal/store"
)

// Read accessors. Every accessor returns copies taken under the store
// lock, so callers get a consistent snapshot they can hold freely.

// RideFilter narrows a ride listing. Zero values match everything.
type RideFilter struct {
	RequesterID string
	DriverID    string
	Status      string
}

func (f RideFilter) matches(r *models.Ride) bool {
	if f.RequesterID != "" && r.RequesterUserID != f.RequesterID {
		return false
	}
	if f.DriverID != "" && r.AssignedDriverID != f.DriverID {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	return true
}

func (e *Engine) Rides(filter RideFilter) []models.Ride {
	var rides []models.Ride
	_ = e.store.View(func(d *store.Data) error {
		for i := range d.Rides {
			if filter.matches(&d.Rides[i]) {
				rides = append(rides, d.Rides[i])
			}
		}
		return nil
	})
	return rides
}

func (e *Engine) RideByID(rideID string) (models.Ride, error) {
	var ride models.Ride
	found := false
	_ = e.store.View(func(d *store.Data) error {
		for i := range d.Rides {
			if d.Rides[i].ID == rideID {
				ride = d.Rides[i]
				found = true
				break
			}
		}
		return nil
	})
	if !found {
		return models.Ride{}, &NotFoundError{Kind: "ride", ID: rideID}
	}
	return ride, nil
}

// RideByToken is the unauthenticated lookup path behind the public status
// page. Only the opaque token gets you a ride.
func (e *Engine) RideByToken(token string) (models.Ride, error) {
	var ride models.Ride
	found := false
	_ = e.store.View(func(d *store.Data) error {
		for i := range d.Rides {
			if d.Rides[i].PublicToken == token {
				ride = d.Rides[i]
				found = true
				break
			}
		}
		return nil
	})
	if !found {
		return models.Ride{}, &NotFoundError{Kind: "ride", ID: token}
	}
	return ride, nil
}

func (e *Engine) Users() []models.User {
	var users []models.User
	_ = e.store.View(func(d *store.Data) error {
		users = append(users, d.Users...)
		return nil
	})
	return users
}

func (e *Engine) UserByID(userID string) (models.User, error) {
	var user models.User
	found := false
	_ = e.store.View(func(d *store.Data) error {
		for i := range d.Users {
			if d.Users[i].ID == userID {
				user = d.Users[i]
				found = true
				break
			}
		}
		return nil
	})
	if !found {
		return models.User{}, &NotFoundError{Kind: "user", ID: userID}
	}
	return user, nil
}

func (e *Engine) Drivers() []models.User {
	var drivers []models.User
	_ = e.store.View(func(d *store.Data) error {
		for i := range d.Users {
			if d.Users[i].Role == models.RoleDriver {
				drivers = append(drivers, d.Users[i])
			}
		}
		return nil
	})
	return drivers
}

// MessagesForRide returns the ride's conversation in creation order.
func (e *Engine) MessagesForRide(rideID string) []models.Message {
	var messages []models.Message
	_ = e.store.View(func(d *store.Data) error {
		for i := range d.Messages {
			if d.Messages[i].RideID == rideID {
				messages = append(messages, d.Messages[i])
			}
		}
		return nil
	})
	return messages
}

func (e *Engine) Availabilities() []models.DriverAvailability {
	var availabilities []models.DriverAvailability
	_ = e.store.View(func(d *store.Data) error {
		availabilities = append(availabilities, d.Availabilities...)
		return nil
	})
	return availabilities
}

func (e *Engine) AvailabilityForDriver(driverID string) (models.DriverAvailability, bool) {
	var avail models.DriverAvailability
	found := false
	_ = e.store.View(func(d *store.Data) error {
		for i := range d.Availabilities {
			if d.Availabilities[i].DriverID == driverID {
				avail = d.Availabilities[i]
				found = true
				break
			}
		}
		return nil
	})
	return avail, found
}

func (e *Engine) Locations() []models.DriverLocation {
	var locations []models.DriverLocation
	_ = e.store.View(func(d *store.Data) error {
		locations = append(locations, d.Locations...)
		return nil
	})
	return locations
}

func (e *Engine) LocationForDriver(driverID string) (models.DriverLocation, bool) {
	var loc models.DriverLocation
	found := false
	_ = e.store.View(func(d *store.Data) error {
		for i := range d.Locations {
			if d.Locations[i].DriverID == driverID {
				loc = d.Locations[i]
				found = true
				break
			}
		}
		return nil
	})
	return loc, found
}
