package access

import (
	"github.com/google/uuid"

	"github.com/tablekit/backend/internal/apperr"
	"github.com/tablekit/backend/internal/models"
)

// CanAccessUser reports whether actor may read, update or delete target.
func CanAccessUser(actor Actor, target *models.User) bool {
	if actor == nil || target == nil {
		return false
	}
	switch a := actor.(type) {
	case Admin:
		return true
	case Owner:
		if target.Role == models.RoleAdmin {
			return false
		}
		if target.Role == models.RoleOwner && target.ID != a.ID {
			return false
		}
		return target.RestaurantID != nil && *target.RestaurantID == a.RestaurantID
	case Manager:
		if target.Role == models.RoleAdmin || target.Role == models.RoleOwner {
			return false
		}
		return target.OutletID != nil && *target.OutletID == a.OutletID &&
			target.RestaurantID != nil && *target.RestaurantID == a.RestaurantID
	default:
		return target.ID == actor.UserID()
	}
}

// CanCreateRole reports whether actor may create a user holding target.
// ADMIN is never mintable; below MANAGER nobody creates users.
func CanCreateRole(actor Actor, target models.Role) bool {
	if actor == nil || target == models.RoleAdmin || !target.Valid() {
		return false
	}
	role := actor.Role()
	if role.Rank() <= models.RoleCustomer.Rank() {
		return false
	}
	return role.Outranks(target)
}

// Scope confines a listing to a tenant slice. The zero value is unrestricted.
type Scope struct {
	Restaurant uuid.NullUUID
	Outlet     uuid.NullUUID
}

// Equal reports whether both scopes select the same slice.
func (s Scope) Equal(o Scope) bool { return s == o }

// Unrestricted reports whether the scope selects everything.
func (s Scope) Unrestricted() bool { return s == Scope{} }

// RestaurantID returns the restaurant restriction, or nil.
func (s Scope) RestaurantID() *uuid.UUID { return nullable(s.Restaurant) }

// OutletID returns the outlet restriction, or nil.
func (s Scope) OutletID() *uuid.UUID { return nullable(s.Outlet) }

func nullable(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}

func some(id uuid.UUID) uuid.NullUUID { return uuid.NullUUID{UUID: id, Valid: true} }

// UserScope derives the filter for user listings.
func UserScope(actor Actor) (Scope, error) {
	switch a := actor.(type) {
	case Admin:
		return Scope{}, nil
	case Owner:
		return Scope{Restaurant: some(a.RestaurantID)}, nil
	case Manager:
		return Scope{Restaurant: some(a.RestaurantID), Outlet: some(a.OutletID)}, nil
	default:
		return Scope{}, apperr.Forbidden("You don't have permission to view users")
	}
}

// OutletScope derives the filter for outlet queries. Managers and staff have none.
func OutletScope(actor Actor) (Scope, error) {
	switch a := actor.(type) {
	case Admin:
		return Scope{}, nil
	case Owner:
		return Scope{Restaurant: some(a.RestaurantID)}, nil
	default:
		return Scope{}, apperr.Forbidden("You don't have permission to manage outlets")
	}
}

// Tenant returns the restaurant and outlet an actor is bound to, if any.
func Tenant(actor Actor) (restaurantID, outletID *uuid.UUID) {
	switch a := actor.(type) {
	case Owner:
		return ptr(a.RestaurantID), nil
	case Manager:
		return ptr(a.RestaurantID), ptr(a.OutletID)
	case Staff:
		return ptr(a.RestaurantID), ptr(a.OutletID)
	case Customer:
		return a.RestaurantID, a.OutletID
	}
	return nil, nil
}

func ptr(id uuid.UUID) *uuid.UUID { return &id }
