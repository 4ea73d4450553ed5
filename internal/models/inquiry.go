package models

import (
	"time"

	"github.com/google/uuid"
)

// Inquiry is a public onboarding request from a prospective restaurant.
// It is never updated; conversion copies its fields into a new restaurant and owner.
type Inquiry struct {
	ID              uuid.UUID `json:"id"`
	RestaurantName  string    `json:"restaurant_name"`
	NumberOfOutlets *int      `json:"number_of_outlets,omitempty"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
