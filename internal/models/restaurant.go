package models

import (
	"time"

	"github.com/google/uuid"
)

// Restaurant represents a tenant: the top-level boundary for outlets and staff.
type Restaurant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Logo      string    `json:"logo,omitempty"`
	IsActive  bool      `json:"is_active"`
	IsDeleted bool      `json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RestaurantSummary is the restaurant projection embedded in user responses.
type RestaurantSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Logo string    `json:"logo,omitempty"`
}

// Summary projects r for embedding.
func (r *Restaurant) Summary() *RestaurantSummary {
	return &RestaurantSummary{ID: r.ID, Name: r.Name, Logo: r.Logo}
}

// Live reports whether the restaurant can be referenced by new outlets and users.
func (r *Restaurant) Live() bool {
	return r.IsActive && !r.IsDeleted
}
