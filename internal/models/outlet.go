package models

import (
	"time"

	"github.com/google/uuid"
)

// Outlet is a physical location belonging to a restaurant.
type Outlet struct {
	ID           uuid.UUID          `json:"id"`
	RestaurantID uuid.UUID          `json:"restaurant_id"`
	Restaurant   *RestaurantSummary `json:"restaurant,omitempty"`
	Name         string             `json:"name"`
	Address      string             `json:"address"`
	City         string             `json:"city"`
	State        string             `json:"state"`
	Country      string             `json:"country"`
	Pincode      string             `json:"pincode"`
	Phone        string             `json:"phone,omitempty"`
	IsActive     bool               `json:"is_active"`
	IsDeleted    bool               `json:"is_deleted"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// OutletSummary is the outlet projection embedded in user responses.
type OutletSummary struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Address string    `json:"address"`
}

// Summary projects o for embedding.
func (o *Outlet) Summary() *OutletSummary {
	return &OutletSummary{ID: o.ID, Name: o.Name, Address: o.Address}
}

// Live reports whether staff can be assigned to the outlet.
func (o *Outlet) Live() bool {
	return o.IsActive && !o.IsDeleted
}
