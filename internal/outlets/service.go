// Package outlets manages restaurant locations. Every query is confined to the
// caller's outlet scope.
package outlets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tablekit/backend/internal/access"
	"github.com/tablekit/backend/internal/apperr"
	"github.com/tablekit/backend/internal/models"
	"github.com/tablekit/backend/internal/store"
	"github.com/tablekit/backend/internal/validation"
	"github.com/tablekit/backend/pkg/metrics"
)

// CreateInput is the payload for creating an outlet.
type CreateInput struct {
	RestaurantID *uuid.UUID `json:"restaurant_id"`
	Name         string     `json:"name" validate:"required"`
	Address      string     `json:"address" validate:"required"`
	City         string     `json:"city" validate:"required"`
	State        string     `json:"state" validate:"required"`
	Country      string     `json:"country" validate:"required"`
	Pincode      string     `json:"pincode" validate:"required"`
	Phone        string     `json:"phone"`
}

// UpdateInput holds outlet fields to change; nil fields are left as they are.
type UpdateInput struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	Address  *string `json:"address" validate:"omitempty,min=1"`
	City     *string `json:"city" validate:"omitempty,min=1"`
	State    *string `json:"state" validate:"omitempty,min=1"`
	Country  *string `json:"country" validate:"omitempty,min=1"`
	Pincode  *string `json:"pincode" validate:"omitempty,min=1"`
	Phone    *string `json:"phone"`
	IsActive *bool   `json:"is_active"`
}

// ListQuery filters an outlet listing.
type ListQuery struct {
	Search   string
	IsActive *bool
	Page     store.Page
}

// Service implements outlet management.
type Service struct {
	logger *zap.Logger
}

// NewService creates an outlet service.
func NewService(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger}
}

func scope(actor access.Actor, op string) (access.Scope, error) {
	if actor == nil {
		return access.Scope{}, apperr.Unauthenticated("Unauthorized")
	}
	s, err := access.OutletScope(actor)
	if err != nil {
		metrics.Denied(op)
		return access.Scope{}, err
	}
	return s, nil
}

func trim(p *string) {
	if p != nil {
		*p = strings.TrimSpace(*p)
	}
}

// Create adds an outlet. Admins name the restaurant; owners always use their own.
func (s *Service) Create(ctx context.Context, st store.Store, in CreateInput, actor access.Actor) (*models.Outlet, error) {
	sc, err := scope(actor, "outlet.create")
	if err != nil {
		return nil, err
	}
	for _, f := range []*string{&in.Name, &in.Address, &in.City, &in.State, &in.Country, &in.Pincode, &in.Phone} {
		trim(f)
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	restaurantID := in.RestaurantID
	if rid := sc.RestaurantID(); rid != nil {
		restaurantID = rid
	} else if restaurantID == nil {
		return nil, apperr.Validation("Restaurant ID is required for admin")
	}

	rest, err := st.Restaurants().GetByID(ctx, *restaurantID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Restaurant not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("get restaurant: %w", err))
	}
	if !rest.Live() {
		return nil, apperr.Validation("Restaurant is not active")
	}

	o := &models.Outlet{
		RestaurantID: rest.ID,
		Name:         in.Name,
		Address:      in.Address,
		City:         in.City,
		State:        in.State,
		Country:      in.Country,
		Pincode:      in.Pincode,
		Phone:        in.Phone,
		IsActive:     true,
	}
	if err := st.Outlets().Create(ctx, o); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Restaurant not found")
		}
		return nil, apperr.Internal(fmt.Errorf("create outlet: %w", err))
	}
	metrics.Allowed("outlet.create")
	s.logger.Info("outlet created", zap.String("outlet_id", o.ID.String()), zap.String("restaurant_id", o.RestaurantID.String()))
	return o, nil
}

// List returns outlets in the actor's scope, newest first.
func (s *Service) List(ctx context.Context, st store.Store, q ListQuery, actor access.Actor) ([]models.Outlet, int, error) {
	sc, err := scope(actor, "outlet.list")
	if err != nil {
		return nil, 0, err
	}
	list, total, err := st.Outlets().List(ctx, store.OutletFilter{
		RestaurantID: sc.RestaurantID(),
		Search:       strings.TrimSpace(q.Search),
		IsActive:     q.IsActive,
		Page:         q.Page,
	})
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Errorf("list outlets: %w", err))
	}
	if list == nil {
		list = []models.Outlet{}
	}
	return list, total, nil
}

// Get returns one outlet. Outlets outside the actor's scope are reported as missing.
func (s *Service) Get(ctx context.Context, st store.Store, id uuid.UUID, actor access.Actor) (*models.Outlet, error) {
	sc, err := scope(actor, "outlet.get")
	if err != nil {
		return nil, err
	}
	return s.load(ctx, st, id, sc)
}

func (s *Service) load(ctx context.Context, st store.Store, id uuid.UUID, sc access.Scope) (*models.Outlet, error) {
	o, err := st.Outlets().GetByID(ctx, id, sc.RestaurantID())
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Outlet not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("get outlet: %w", err))
	}
	return o, nil
}

// Update changes an outlet in the actor's scope. The owning restaurant cannot change.
func (s *Service) Update(ctx context.Context, st store.Store, id uuid.UUID, in UpdateInput, actor access.Actor) (*models.Outlet, error) {
	sc, err := scope(actor, "outlet.update")
	if err != nil {
		return nil, err
	}
	for _, f := range []*string{in.Name, in.Address, in.City, in.State, in.Country, in.Pincode, in.Phone} {
		trim(f)
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	o, err := s.load(ctx, st, id, sc)
	if err != nil {
		return nil, err
	}

	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&o.Name, in.Name)
	set(&o.Address, in.Address)
	set(&o.City, in.City)
	set(&o.State, in.State)
	set(&o.Country, in.Country)
	set(&o.Pincode, in.Pincode)
	set(&o.Phone, in.Phone)
	if in.IsActive != nil {
		o.IsActive = *in.IsActive
	}

	if err := st.Outlets().Update(ctx, o); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Outlet not found")
		}
		return nil, apperr.Internal(fmt.Errorf("update outlet: %w", err))
	}
	return o, nil
}

// Delete soft-deletes an outlet in the actor's scope.
func (s *Service) Delete(ctx context.Context, st store.Store, id uuid.UUID, actor access.Actor) error {
	sc, err := scope(actor, "outlet.delete")
	if err != nil {
		return err
	}
	if _, err := s.load(ctx, st, id, sc); err != nil {
		return err
	}
	if err := st.Outlets().SoftDelete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("Outlet not found")
		}
		return apperr.Internal(fmt.Errorf("delete outlet: %w", err))
	}
	s.logger.Info("outlet deleted", zap.String("outlet_id", id.String()))
	return nil
}
