// Package inquiries records public onboarding requests and converts them into tenants.
package inquiries

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tablekit/backend/internal/apperr"
	"github.com/tablekit/backend/internal/models"
	"github.com/tablekit/backend/internal/restaurants"
	"github.com/tablekit/backend/internal/store"
	"github.com/tablekit/backend/internal/validation"
)

// CreateInput is the public inquiry form.
type CreateInput struct {
	RestaurantName  string `json:"restaurant_name" validate:"required"`
	NumberOfOutlets *int   `json:"number_of_outlets" validate:"omitempty,min=0"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"required,phone"`
	Name            string `json:"name" validate:"required"`
	Description     string `json:"description"`
}

// Service handles inquiries.
type Service struct {
	restaurants *restaurants.Service
	logger      *zap.Logger
}

// NewService creates an inquiry service that provisions through restaurantsSvc.
func NewService(restaurantsSvc *restaurants.Service, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{restaurants: restaurantsSvc, logger: logger}
}

// Create stores a new inquiry. Each email may submit once.
func (s *Service) Create(ctx context.Context, st store.Store, in CreateInput) (*models.Inquiry, error) {
	in.RestaurantName = strings.TrimSpace(in.RestaurantName)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = store.NormalizeEmail(in.Email)
	in.Description = strings.TrimSpace(in.Description)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	taken, err := st.Inquiries().EmailTaken(ctx, in.Email)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("check inquiry email: %w", err))
	}
	if taken {
		return nil, apperr.DuplicateEmail()
	}

	inq := &models.Inquiry{
		RestaurantName:  in.RestaurantName,
		NumberOfOutlets: in.NumberOfOutlets,
		Email:           in.Email,
		Phone:           in.Phone,
		Name:            in.Name,
		Description:     in.Description,
	}
	if err := st.Inquiries().Create(ctx, inq); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, apperr.DuplicateEmail()
		}
		return nil, apperr.Internal(fmt.Errorf("create inquiry: %w", err))
	}
	s.logger.Info("inquiry received", zap.String("inquiry_id", inq.ID.String()))
	return inq, nil
}

// List returns inquiries newest first.
func (s *Service) List(ctx context.Context, st store.Store, p store.Page) ([]models.Inquiry, int, error) {
	list, total, err := st.Inquiries().List(ctx, p)
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Errorf("list inquiries: %w", err))
	}
	if list == nil {
		list = []models.Inquiry{}
	}
	return list, total, nil
}

// ConvertToRestaurant provisions a restaurant and its owner from an inquiry through st.
// Provisioning errors are returned as they are so the enclosing transaction rolls back.
// The inquiry is left untouched; converting it twice fails on the owner's email.
func (s *Service) ConvertToRestaurant(ctx context.Context, st store.Store, id uuid.UUID) (*restaurants.Provisioned, error) {
	inq, err := st.Inquiries().GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Inquiry not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("get inquiry: %w", err))
	}

	p, err := s.restaurants.Create(ctx, st, restaurants.CreateInput{
		Restaurant: &restaurants.RestaurantInput{Name: inq.RestaurantName},
		User: &restaurants.OwnerPayload{
			Name:  inq.Name,
			Email: inq.Email,
			Phone: inq.Phone,
		},
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("inquiry converted",
		zap.String("inquiry_id", inq.ID.String()),
		zap.String("restaurant_id", p.Restaurant.ID.String()),
	)
	return p, nil
}
