package models

import "fmt"

// Role represents a user's role in the platform.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleOwner    Role = "OWNER"
	RoleManager  Role = "MANAGER"
	RoleChef     Role = "CHEF"
	RoleWaiter   Role = "WAITER"
	RoleCustomer Role = "CUSTOMER"
)

// roleRanks is the single ordering used by every authorization decision.
// Higher rank means more authority; CHEF, WAITER and CUSTOMER share the lowest tier.
var roleRanks = map[Role]int{
	RoleAdmin:    4,
	RoleOwner:    3,
	RoleManager:  2,
	RoleChef:     1,
	RoleWaiter:   1,
	RoleCustomer: 1,
}

// Roles returns all known roles, highest rank first.
func Roles() []Role {
	return []Role{RoleAdmin, RoleOwner, RoleManager, RoleChef, RoleWaiter, RoleCustomer}
}

// Rank returns the role's position in the hierarchy, or 0 for an unknown role.
func (r Role) Rank() int {
	return roleRanks[r]
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Outranks reports whether r sits at or above other in the hierarchy.
func (r Role) Outranks(other Role) bool {
	return r.Valid() && other.Valid() && r.Rank() >= other.Rank()
}

// IsStaff reports whether the role belongs to an outlet (MANAGER, CHEF, WAITER).
// Staff roles need both a restaurant and an outlet.
func (r Role) IsStaff() bool {
	return r == RoleManager || r == RoleChef || r == RoleWaiter
}

// NeedsRestaurant reports whether a user with this role must belong to a restaurant.
func (r Role) NeedsRestaurant() bool {
	return r == RoleOwner || r.IsStaff()
}

func (r Role) String() string { return string(r) }

// ParseRole converts s to a Role, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
