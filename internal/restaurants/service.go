// Package restaurants provisions tenants: a restaurant together with its first OWNER.
package restaurants

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tablekit/backend/internal/apperr"
	"github.com/tablekit/backend/internal/models"
	"github.com/tablekit/backend/internal/store"
	"github.com/tablekit/backend/internal/users"
	"github.com/tablekit/backend/internal/validation"
	"github.com/tablekit/backend/pkg/storage"
	"github.com/tablekit/backend/pkg/utils"
)

// InitialPasswordLength is the length of the password generated for a new owner.
const InitialPasswordLength = 8

// RestaurantInput is the restaurant half of a provisioning request.
type RestaurantInput struct {
	Name string `json:"name" validate:"required"`
	Logo string `json:"logo"`
}

// OwnerPayload is the owner half of a provisioning request. The password is generated.
type OwnerPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// CreateInput is the body of POST /restaurant/create.
type CreateInput struct {
	Restaurant *RestaurantInput `json:"restaurant"`
	User       *OwnerPayload    `json:"user"`
}

// UpdateInput holds restaurant fields to change; nil fields are left as they are.
type UpdateInput struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	Logo     *string `json:"logo"`
	IsActive *bool   `json:"is_active"`
}

// ListQuery filters a restaurant listing.
type ListQuery struct {
	Search   string
	IsActive *bool
	Page     store.Page
}

// Provisioned is the result of a successful provisioning. InitialPassword is only
// meant for the onboarding channel and is never serialized.
type Provisioned struct {
	Restaurant      *models.Restaurant `json:"restaurant"`
	Owner           *models.User       `json:"user"`
	InitialPassword string             `json:"-"`
}

// LogoStore persists logo images and returns their public URL.
type LogoStore interface {
	UploadLogo(ctx context.Context, restaurantID uuid.UUID, ext string, body io.Reader, size int64) (string, error)
	DeleteLogo(ctx context.Context, url string) error
}

// LogoUpload describes one uploaded logo file.
type LogoUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Service implements restaurant provisioning and administration.
type Service struct {
	users  *users.Service
	logos  LogoStore
	logger *zap.Logger
}

// NewService creates a restaurant service. logos may be nil when S3 is not configured.
func NewService(usersSvc *users.Service, logos LogoStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: usersSvc, logos: logos, logger: logger}
}

// LogosEnabled reports whether logo uploads can be served.
func (s *Service) LogosEnabled() bool { return s.logos != nil }

// Create inserts the restaurant and its OWNER through st. Any failure is returned
// unchanged so the caller's transaction rolls back both rows.
func (s *Service) Create(ctx context.Context, st store.Store, in CreateInput) (*Provisioned, error) {
	if in.Restaurant == nil {
		return nil, apperr.Validation("Restaurant data is required")
	}
	if in.User == nil {
		return nil, apperr.Validation("User data is required")
	}
	in.Restaurant.Name = strings.TrimSpace(in.Restaurant.Name)
	if err := validation.Struct(in.Restaurant); err != nil {
		return nil, err
	}

	rest := &models.Restaurant{
		Name:     in.Restaurant.Name,
		Logo:     strings.TrimSpace(in.Restaurant.Logo),
		IsActive: true,
	}
	if err := st.Restaurants().Create(ctx, rest); err != nil {
		return nil, apperr.Internal(fmt.Errorf("create restaurant: %w", err))
	}

	password, err := utils.GeneratePassword(InitialPasswordLength)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("generate password: %w", err))
	}
	owner, err := s.users.CreateOwner(ctx, st, rest.ID, users.OwnerInput{
		Name:     in.User.Name,
		Email:    in.User.Email,
		Phone:    in.User.Phone,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("restaurant provisioned",
		zap.String("restaurant_id", rest.ID.String()),
		zap.String("owner_id", owner.ID.String()),
	)
	return &Provisioned{Restaurant: rest, Owner: owner, InitialPassword: password}, nil
}

// List returns restaurants newest first.
func (s *Service) List(ctx context.Context, st store.Store, q ListQuery) ([]models.Restaurant, int, error) {
	list, total, err := st.Restaurants().List(ctx, store.RestaurantFilter{
		Search:   strings.TrimSpace(q.Search),
		IsActive: q.IsActive,
		Page:     q.Page,
	})
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Errorf("list restaurants: %w", err))
	}
	if list == nil {
		list = []models.Restaurant{}
	}
	return list, total, nil
}

// Get returns a non-deleted restaurant.
func (s *Service) Get(ctx context.Context, st store.Store, id uuid.UUID) (*models.Restaurant, error) {
	r, err := st.Restaurants().GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Restaurant not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("get restaurant: %w", err))
	}
	return r, nil
}

// Update changes name, logo or active flag.
func (s *Service) Update(ctx context.Context, st store.Store, id uuid.UUID, in UpdateInput) (*models.Restaurant, error) {
	if in.Name != nil {
		n := strings.TrimSpace(*in.Name)
		in.Name = &n
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	r, err := s.Get(ctx, st, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		r.Name = *in.Name
	}
	if in.Logo != nil {
		r.Logo = strings.TrimSpace(*in.Logo)
	}
	if in.IsActive != nil {
		r.IsActive = *in.IsActive
	}
	if err := s.save(ctx, st, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Delete soft-deletes a restaurant. Its outlets and users are left in place; they stop
// resolving the restaurant summary.
func (s *Service) Delete(ctx context.Context, st store.Store, id uuid.UUID) error {
	err := st.Restaurants().SoftDelete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Restaurant not found")
	}
	if err != nil {
		return apperr.Internal(fmt.Errorf("delete restaurant: %w", err))
	}
	return nil
}

// UploadLogo stores a new logo and points the restaurant at it. The previous logo
// object is removed on a best-effort basis.
func (s *Service) UploadLogo(ctx context.Context, st store.Store, id uuid.UUID, up LogoUpload) (*models.Restaurant, error) {
	if s.logos == nil {
		return nil, apperr.Internal(errors.New("logo storage not configured"))
	}
	if up.Size > storage.MaxLogoSize {
		return nil, apperr.Validation("Logo must be at most 2MB")
	}
	ext, ok := storage.LogoExtension(up.ContentType, up.Filename)
	if !ok {
		return nil, apperr.Validation("Logo must be a JPEG, PNG, WebP, GIF or SVG image")
	}
	r, err := s.Get(ctx, st, id)
	if err != nil {
		return nil, err
	}
	url, err := s.logos.UploadLogo(ctx, r.ID, ext, up.Body, up.Size)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("upload logo: %w", err))
	}
	previous := r.Logo
	r.Logo = url
	if err := s.save(ctx, st, r); err != nil {
		return nil, err
	}
	if previous != "" && previous != url {
		if err := s.logos.DeleteLogo(ctx, previous); err != nil {
			s.logger.Warn("failed to delete previous logo", zap.String("restaurant_id", r.ID.String()), zap.Error(err))
		}
	}
	return r, nil
}

func (s *Service) save(ctx context.Context, st store.Store, r *models.Restaurant) error {
	err := st.Restaurants().Update(ctx, r)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Restaurant not found")
	}
	if err != nil {
		return apperr.Internal(fmt.Errorf("update restaurant: %w", err))
	}
	return nil
}
