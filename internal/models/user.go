package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a platform user (admin, restaurant owner, outlet staff or customer).
type User struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	Password     string     `json:"-"`
	Role         Role       `json:"role"`
	RestaurantID *uuid.UUID `json:"restaurant_id,omitempty"`
	OutletID     *uuid.UUID `json:"outlet_id,omitempty"`
	IsActive     bool       `json:"is_active"`
	IsDeleted    bool       `json:"is_deleted"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// UserPublic is User without sensitive fields, with its restaurant and outlet resolved.
type UserPublic struct {
	ID           uuid.UUID          `json:"id"`
	Name         string             `json:"name"`
	Email        string             `json:"email"`
	Phone        string             `json:"phone"`
	Role         Role               `json:"role"`
	RestaurantID *uuid.UUID         `json:"restaurant_id,omitempty"`
	OutletID     *uuid.UUID         `json:"outlet_id,omitempty"`
	Restaurant   *RestaurantSummary `json:"restaurant,omitempty"`
	Outlet       *OutletSummary     `json:"outlet,omitempty"`
	IsActive     bool               `json:"is_active"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		Role:         u.Role,
		RestaurantID: u.RestaurantID,
		OutletID:     u.OutletID,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	c := *u
	c.RestaurantID = cloneID(u.RestaurantID)
	c.OutletID = cloneID(u.OutletID)
	return &c
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

// SameID reports whether two optional ids are both unset or hold the same value.
func SameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
