package model

import "time"

// Car represents a registered vehicle. OwnerID is only ever written by car
// registration and by a transfer's completed transition.
type Car struct {
	ID        int64      `json:"id"`
	OwnerID   int64      `json:"owner_id"`
	VIN       string     `json:"vin"`
	Plate     string     `json:"plate"`
	Make      string     `json:"make"`
	Model     string     `json:"model"`
	Year      int        `json:"year,omitempty"`
	Color     string     `json:"color,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	// Joined fields (not always populated).
	OwnerName string `json:"owner_name,omitempty"`
}
