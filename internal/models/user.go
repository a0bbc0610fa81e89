package models

import "time"

// User roles. Mutually exclusive and immutable after creation.
const (
	RolePassenger = "PASSENGER"
	RoleDriver    = "DRIVER"
	RoleAdmin     = "ADMIN"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Carrier      string    `json:"carrier,omitempty"`
	Role         string    `json:"role"` // PASSENGER, DRIVER or ADMIN
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"` // soft-delete gate for login
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToUserResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

func ValidRole(role string) bool {
	switch role {
	case RolePassenger, RoleDriver, RoleAdmin:
		return true
	}
	return false
}
