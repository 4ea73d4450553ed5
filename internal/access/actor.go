// Package access holds the role-hierarchy authorization rules: who the caller is, which
// users they may reach, which roles they may mint and which tenant slice their queries
// are confined to. Everything here is pure; callers do the I/O and record denials.
package access

import (
	"github.com/google/uuid"

	"github.com/tablekit/backend/internal/apperr"
	"github.com/tablekit/backend/internal/models"
)

// Actor is the authenticated caller with its tenant binding.
// The set of implementations is closed: Admin, Owner, Manager, Staff and Customer.
type Actor interface {
	UserID() uuid.UUID
	Role() models.Role
	actor()
}

// Admin manages the whole platform.
type Admin struct {
	ID uuid.UUID
}

// Owner manages one restaurant.
type Owner struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

// Manager runs one outlet of a restaurant.
type Manager struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	OutletID     uuid.UUID
}

// Staff is a CHEF or WAITER attached to an outlet.
type Staff struct {
	ID           uuid.UUID
	StaffRole    models.Role
	RestaurantID uuid.UUID
	OutletID     uuid.UUID
}

// Customer is a self-service user; the tenant ids are optional.
type Customer struct {
	ID           uuid.UUID
	RestaurantID *uuid.UUID
	OutletID     *uuid.UUID
}

func (a Admin) UserID() uuid.UUID    { return a.ID }
func (a Owner) UserID() uuid.UUID    { return a.ID }
func (a Manager) UserID() uuid.UUID  { return a.ID }
func (a Staff) UserID() uuid.UUID    { return a.ID }
func (a Customer) UserID() uuid.UUID { return a.ID }

func (Admin) Role() models.Role    { return models.RoleAdmin }
func (Owner) Role() models.Role    { return models.RoleOwner }
func (Manager) Role() models.Role  { return models.RoleManager }
func (a Staff) Role() models.Role  { return a.StaffRole }
func (Customer) Role() models.Role { return models.RoleCustomer }

func (Admin) actor()    {}
func (Owner) actor()    {}
func (Manager) actor()  {}
func (Staff) actor()    {}
func (Customer) actor() {}

// FromUser builds the actor for a live user. A record that breaks its role's tenant
// requirements (an OWNER with no restaurant, staff with no outlet) cannot act.
func FromUser(u *models.User) (Actor, error) {
	if u == nil {
		return nil, apperr.Unauthenticated("Unauthorized")
	}
	switch u.Role {
	case models.RoleAdmin:
		return Admin{ID: u.ID}, nil
	case models.RoleOwner:
		if u.RestaurantID == nil {
			return nil, apperr.Forbidden("Owner is not assigned to a restaurant")
		}
		return Owner{ID: u.ID, RestaurantID: *u.RestaurantID}, nil
	case models.RoleManager, models.RoleChef, models.RoleWaiter:
		if u.RestaurantID == nil || u.OutletID == nil {
			return nil, apperr.Forbidden("Staff member is not assigned to an outlet")
		}
		if u.Role == models.RoleManager {
			return Manager{ID: u.ID, RestaurantID: *u.RestaurantID, OutletID: *u.OutletID}, nil
		}
		return Staff{ID: u.ID, StaffRole: u.Role, RestaurantID: *u.RestaurantID, OutletID: *u.OutletID}, nil
	case models.RoleCustomer:
		return Customer{ID: u.ID, RestaurantID: u.RestaurantID, OutletID: u.OutletID}, nil
	default:
		return nil, apperr.Forbidden("Unknown role")
	}
}
