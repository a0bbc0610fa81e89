package dispatch

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tornadogo-backend/internal/idgen"
	"tornadogo-backend/internal/models"
	"tornadogo-backend/internal/notify"
	"tornadogo-backend/internal/store"
)

// RegisterUserInput carries the registration form fields.
type RegisterUserInput struct {
	Name     string
	Email    string
	Phone    string
	Carrier  string
	Role     string
	Password string
}

// RegisterUser creates an account. Role is immutable afterwards; drivers
// get their availability record up front so the presence tracker always
// has a row to flip.
func (e *Engine) RegisterUser(input RegisterUserInput) (models.User, error) {
	if input.Role == "" {
		input.Role = models.RolePassenger
	}

	var (
		user  models.User
		avail *models.DriverAvailability
	)

	err := e.store.Update(func(tx *store.Tx) error {
		if strings.TrimSpace(input.Name) == "" {
			return validationErr("name", "is required")
		}
		if strings.TrimSpace(input.Email) == "" {
			return validationErr("email", "is required")
		}
		if strings.TrimSpace(input.Phone) == "" {
			return validationErr("phone", "is required")
		}
		if input.Password == "" {
			return validationErr("password", "is required")
		}
		if !models.ValidRole(input.Role) {
			return validationErr("role", "must be PASSENGER, DRIVER or ADMIN")
		}
		if tx.FindUserByEmail(input.Email) != nil {
			return validationErr("email", "is already registered")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		user = models.User{
			ID:           idgen.NewID(),
			Name:         input.Name,
			Email:        input.Email,
			Phone:        input.Phone,
			Carrier:      input.Carrier,
			Role:         input.Role,
			PasswordHash: string(hash),
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		tx.Data.Users = append(tx.Data.Users, user)
		tx.Mark(store.KeyUsers)

		if user.Role == models.RoleDriver {
			a := models.DriverAvailability{
				ID:        idgen.NewID(),
				DriverID:  user.ID,
				CreatedAt: now,
				UpdatedAt: now,
			}
			tx.Data.Availabilities = append(tx.Data.Availabilities, a)
			tx.Mark(store.KeyAvailabilities)
			avail = &a
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}

	e.notifier.Notify(notify.Event{
		EventType: "RECORD_CREATED",
		Table:     "users",
		Action:    notify.ActionCreate,
		Record:    user.ToUserResponse(),
	})
	if avail != nil {
		e.notifier.Notify(notify.Event{
			EventType: "RECORD_CREATED",
			Table:     "driverAvailabilities",
			Action:    notify.ActionCreate,
			Record:    *avail,
		})
	}
	return user, nil
}

// UserUpdate lists the mutable profile fields. Nil pointers leave the
// field untouched; Role is deliberately absent (immutable after creation).
type UserUpdate struct {
	Name     *string
	Phone    *string
	Carrier  *string
	Active   *bool
	Password *string
}

// UpdateUser applies a profile edit or an admin activate/deactivate.
func (e *Engine) UpdateUser(userID string, updates UserUpdate) (models.User, error) {
	var (
		before models.User
		after  models.User
	)

	err := e.store.Update(func(tx *store.Tx) error {
		user := tx.FindUser(userID)
		if user == nil {
			return &NotFoundError{Kind: "user", ID: userID}
		}
		before = *user

		if updates.Name != nil {
			if strings.TrimSpace(*updates.Name) == "" {
				return validationErr("name", "is required")
			}
			user.Name = *updates.Name
		}
		if updates.Phone != nil {
			user.Phone = *updates.Phone
		}
		if updates.Carrier != nil {
			user.Carrier = *updates.Carrier
		}
		if updates.Active != nil {
			user.Active = *updates.Active
		}
		if updates.Password != nil {
			hash, err := bcrypt.GenerateFromPassword([]byte(*updates.Password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			user.PasswordHash = string(hash)
		}

		user.UpdatedAt = time.Now().UTC()
		after = *user
		tx.Mark(store.KeyUsers)
		return nil
	})
	if err != nil {
		return models.User{}, err
	}

	e.notifier.Notify(notify.Event{
		EventType: "RECORD_UPDATED",
		Table:     "users",
		Action:    notify.ActionUpdate,
		Record:    after.ToUserResponse(),
		Before:    before.ToUserResponse(),
	})
	return after, nil
}

// Authenticate checks credentials for login. Deactivated accounts are
// rejected the same way as bad credentials.
func (e *Engine) Authenticate(email, password string) (models.User, error) {
	var user models.User
	found := false

	_ = e.store.View(func(d *store.Data) error {
		for i := range d.Users {
			if d.Users[i].Email == email {
				user = d.Users[i]
				found = true
				break
			}
		}
		return nil
	})

	if !found || !user.Active {
		return models.User{}, &AuthorizationError{Reason: "invalid credentials"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, &AuthorizationError{Reason: "invalid credentials"}
	}
	return user, nil
}
