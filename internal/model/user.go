package model

import "time"

// User represents an account that can authenticate against the API.
type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles.
const (
	RoleOwner    = "owner"
	RoleMechanic = "mechanic"
	RoleAdmin    = "admin"
)

// ValidRole checks that role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleMechanic, RoleAdmin:
		return true
	}
	return false
}

// Profile holds a user's extended legal-identity data. A profile with both
// DocumentNumber and City set is required before the user can be party to a
// vehicle transfer.
type Profile struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Phone          string    `json:"phone,omitempty"`
	DocumentNumber string    `json:"document_number,omitempty"`
	City           string    `json:"city,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Complete reports whether the profile has the legal-identity fields required
// to participate in a transfer as seller or buyer.
func (p *Profile) Complete() bool {
	return p != nil && p.DocumentNumber != "" && p.City != ""
}
