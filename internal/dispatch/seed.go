package dispatch

import "log"

// SeedDefaults creates the default admin/driver/passenger accounts on an
// empty store so a fresh deployment is immediately usable. Existing data
// is never touched.
func (e *Engine) SeedDefaults() error {
	if len(e.Users()) > 0 {
		log.Println("✓ Users already seeded, skipping...")
		return nil
	}

	log.Println("🌱 Seeding default users...")

	seeds := []RegisterUserInput{
		{Name: "Brady Admin", Email: "brady.at.tornadotaxi@gmail.com", Phone: "555-0100", Role: "ADMIN", Password: "Taylorville2025!"},
		{Name: "John Driver", Email: "john.d@example.com", Phone: "555-0101", Role: "DRIVER", Password: "password123"},
		{Name: "Jane Passenger", Email: "jane.p@example.com", Phone: "555-0102", Role: "PASSENGER", Password: "password123"},
	}

	for _, seed := range seeds {
		user, err := e.RegisterUser(seed)
		if err != nil {
			return err
		}
		// The seeded driver starts available, matching the demo data the
		// dispatch office expects.
		if user.Role == "DRIVER" {
			if err := e.SetAvailability(user.ID, true); err != nil {
				return err
			}
		}
	}

	log.Printf("✅ Seeded %d default users", len(seeds))
	return nil
}
