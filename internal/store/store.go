// Package store defines the persistence contract for restaurants, outlets, users and
// inquiries, and the unit-of-work boundary used for multi-entity writes.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/tablekit/backend/internal/models"
)

var (
	// ErrNotFound is returned when no live row matches.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when a unique email index rejects a write.
	ErrDuplicateEmail = errors.New("duplicate email")
)

// DefaultLimit is the page size used when the caller gives none.
const DefaultLimit = 10

// Page selects a window of a listing. Page numbers start at 1.
type Page struct {
	Number int
	Limit  int
}

// Normalize fills defaults for missing or non-positive values.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	return p
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Number - 1) * p.Limit
}

// UserFilter narrows a user listing. Soft-deleted users are always excluded.
type UserFilter struct {
	RestaurantID *uuid.UUID
	OutletID     *uuid.UUID
	Search       string
	IsActive     *bool
	Page         Page
}

// RestaurantFilter narrows a restaurant listing.
type RestaurantFilter struct {
	Search   string
	IsActive *bool
	Page     Page
}

// OutletFilter narrows an outlet listing.
type OutletFilter struct {
	RestaurantID *uuid.UUID
	Search       string
	IsActive     *bool
	Page         Page
}

// UserRepository persists users. Reads exclude soft-deleted rows unless stated.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// EmailTaken checks every row, soft-deleted included, optionally ignoring one user.
	EmailTaken(ctx context.Context, email string, except *uuid.UUID) (bool, error)
	// Create hashes u.Password, assigns ID and timestamps, and inserts u.
	Create(ctx context.Context, u *models.User) error
	// Update writes the mutable fields of u (not the password).
	Update(ctx context.Context, u *models.User) error
	SetPassword(ctx context.Context, id uuid.UUID, password string) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f UserFilter) ([]models.User, int, error)
}

// RestaurantRepository persists restaurants.
type RestaurantRepository interface {
	Create(ctx context.Context, r *models.Restaurant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	Update(ctx context.Context, r *models.Restaurant) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f RestaurantFilter) ([]models.Restaurant, int, error)
}

// OutletRepository persists outlets.
type OutletRepository interface {
	Create(ctx context.Context, o *models.Outlet) error
	// GetByID returns a non-deleted outlet; a non-nil restaurantID confines the lookup.
	GetByID(ctx context.Context, id uuid.UUID, restaurantID *uuid.UUID) (*models.Outlet, error)
	Update(ctx context.Context, o *models.Outlet) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f OutletFilter) ([]models.Outlet, int, error)
}

// InquiryRepository persists inquiries.
type InquiryRepository interface {
	Create(ctx context.Context, in *models.Inquiry) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Inquiry, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, p Page) ([]models.Inquiry, int, error)
}

// Store bundles the repositories over one connection or one transaction.
type Store interface {
	Users() UserRepository
	Restaurants() RestaurantRepository
	Outlets() OutletRepository
	Inquiries() InquiryRepository
}

// TxRunner runs fn inside a transaction. The transaction commits when fn returns nil
// and rolls back when fn returns an error or panics.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

// DB is a Store that can also open transactions.
type DB interface {
	Store
	TxRunner
}
