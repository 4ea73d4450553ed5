// Package users provisions and manages platform users under the role hierarchy.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tablekit/backend/internal/access"
	"github.com/tablekit/backend/internal/apperr"
	"github.com/tablekit/backend/internal/auth"
	"github.com/tablekit/backend/internal/models"
	"github.com/tablekit/backend/internal/store"
	"github.com/tablekit/backend/internal/validation"
	"github.com/tablekit/backend/pkg/metrics"
	"github.com/tablekit/backend/pkg/utils"
)

// MinPasswordLength applies to passwords chosen by users through the setup flow.
const MinPasswordLength = 8

// SetupTokens resolves one-time password setup tokens to the user they were issued for.
type SetupTokens interface {
	Consume(ctx context.Context, token string) (uuid.UUID, error)
}

// CreateUserInput is the payload for creating a user.
type CreateUserInput struct {
	Name         string      `json:"name" validate:"required"`
	Email        string      `json:"email" validate:"required,email"`
	Phone        string      `json:"phone" validate:"required,phone"`
	Password     string      `json:"password" validate:"required"`
	Role         models.Role `json:"role" validate:"required,role"`
	RestaurantID *uuid.UUID  `json:"restaurant_id"`
	OutletID     *uuid.UUID  `json:"outlet_id"`
	IsActive     *bool       `json:"is_active"`
}

// OwnerInput is the owner half of a restaurant provisioning request.
type OwnerInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// UpdateUserInput holds the fields to change; nil fields are left as they are.
type UpdateUserInput struct {
	Name         *string      `json:"name" validate:"omitempty,min=1"`
	Email        *string      `json:"email" validate:"omitempty,email"`
	Phone        *string      `json:"phone" validate:"omitempty,phone"`
	Role         *models.Role `json:"role" validate:"omitempty,role"`
	RestaurantID *uuid.UUID   `json:"restaurant_id"`
	OutletID     *uuid.UUID   `json:"outlet_id"`
	IsActive     *bool        `json:"is_active"`
}

// LoginInput is the body of a login request.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SetupPasswordInput completes the out-of-band onboarding of a provisioned user.
type SetupPasswordInput struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// ListQuery filters a user listing.
type ListQuery struct {
	Search   string
	IsActive *bool
	Page     store.Page
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Service implements user provisioning. Every method takes the store to run against so
// callers decide whether the call joins a transaction.
type Service struct {
	jwt    *auth.JWTService
	tokens SetupTokens
	logger *zap.Logger
}

// NewService creates a user service. tokens may be nil when onboarding is disabled.
func NewService(jwt *auth.JWTService, tokens SetupTokens, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{jwt: jwt, tokens: tokens, logger: logger}
}

func deny(op, msg string) error {
	metrics.Denied(op)
	return apperr.Forbidden(msg)
}

func internal(op string, err error) error {
	return apperr.Internal(fmt.Errorf("%s: %w", op, err))
}

// Create provisions a user on behalf of actor.
func (s *Service) Create(ctx context.Context, st store.Store, in CreateUserInput, actor access.Actor) (*models.User, error) {
	if actor == nil {
		return nil, apperr.Unauthenticated("Unauthorized")
	}
	return s.create(ctx, st, in, actor)
}

// CreateOwner provisions the first OWNER of a restaurant. It runs inside the restaurant
// provisioning unit of work and has no acting user, so the rank check does not apply.
func (s *Service) CreateOwner(ctx context.Context, st store.Store, restaurantID uuid.UUID, in OwnerInput) (*models.User, error) {
	active := true
	return s.create(ctx, st, CreateUserInput{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		Password:     in.Password,
		Role:         models.RoleOwner,
		RestaurantID: &restaurantID,
		IsActive:     &active,
	}, nil)
}

// create applies the provisioning checks in order. A nil actor is the provisioning path.
func (s *Service) create(ctx context.Context, st store.Store, in CreateUserInput, actor access.Actor) (*models.User, error) {
	in.Email = store.NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.Password = blankToEmpty(in.Password)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	taken, err := st.Users().EmailTaken(ctx, in.Email, nil)
	if err != nil {
		return nil, internal("check email", err)
	}
	if taken {
		return nil, apperr.DuplicateEmail()
	}

	if in.Role == models.RoleAdmin {
		return nil, deny("user.create", "ADMIN role cannot be created")
	}

	if actor != nil {
		if !access.CanCreateRole(actor, in.Role) {
			switch actor.(type) {
			case access.Owner:
				return nil, deny("user.create", "You can only create OWNER or lower level roles")
			case access.Manager:
				return nil, deny("user.create", "You can only create MANAGER or lower level roles")
			default:
				return nil, deny("user.create", "You don't have permission to create users")
			}
		}
		if err := propagateTenant(&in, actor); err != nil {
			return nil, err
		}
	}

	if in.Role.IsStaff() && in.OutletID == nil {
		return nil, apperr.Validation("Outlet ID is required for staff roles")
	}
	if in.Role.IsStaff() && in.RestaurantID == nil {
		return nil, apperr.Validation("Restaurant ID is required for staff roles")
	}
	if in.Role == models.RoleOwner && in.RestaurantID == nil {
		return nil, apperr.Validation("Restaurant ID is required for OWNER role")
	}

	if err := checkPlacement(ctx, st, in.RestaurantID, in.OutletID); err != nil {
		return nil, err
	}

	u := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		Password:     in.Password,
		Role:         in.Role,
		RestaurantID: in.RestaurantID,
		OutletID:     in.OutletID,
		IsActive:     in.IsActive == nil || *in.IsActive,
	}
	if err := st.Users().Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, apperr.DuplicateEmail()
		}
		return nil, internal("create user", err)
	}
	if actor != nil {
		metrics.Allowed("user.create")
	}
	return u, nil
}

// blankToEmpty turns an all-whitespace secret into "" so the required rule rejects it.
// Other passwords are kept byte for byte; login compares them untrimmed.
func blankToEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}

// propagateTenant confines the new user to the owner's restaurant or the manager's
// outlet, filling ids the caller left out and rejecting ones that disagree.
func propagateTenant(in *CreateUserInput, actor access.Actor) error {
	switch a := actor.(type) {
	case access.Owner:
		if in.RestaurantID != nil && *in.RestaurantID != a.RestaurantID {
			return deny("user.create", "You can only create users in your own restaurant")
		}
		rid := a.RestaurantID
		in.RestaurantID = &rid
	case access.Manager:
		if in.RestaurantID != nil && *in.RestaurantID != a.RestaurantID {
			return deny("user.create", "You can only create users in your own restaurant")
		}
		if in.Role.IsStaff() && in.OutletID != nil && *in.OutletID != a.OutletID {
			return deny("user.create", "You can only create staff in your own outlet")
		}
		rid := a.RestaurantID
		in.RestaurantID = &rid
		if in.Role.IsStaff() {
			oid := a.OutletID
			in.OutletID = &oid
		}
	}
	return nil
}

// checkPlacement verifies that the referenced outlet is live and belongs to the
// restaurant, or, without an outlet, that the restaurant itself exists.
func checkPlacement(ctx context.Context, st store.Store, restaurantID, outletID *uuid.UUID) error {
	if outletID != nil && restaurantID != nil {
		o, err := st.Outlets().GetByID(ctx, *outletID, restaurantID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && !o.Live()) {
			return apperr.Validation("The specified outlet does not belong to the specified restaurant or is not active")
		}
		if err != nil {
			return internal("check outlet", err)
		}
		return nil
	}
	if restaurantID != nil {
		_, err := st.Restaurants().GetByID(ctx, *restaurantID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Validation("The specified restaurant does not exist")
		}
		if err != nil {
			return internal("check restaurant", err)
		}
	}
	return nil
}

// load fetches a live user and applies the access rule for op.
func (s *Service) load(ctx context.Context, st store.Store, id uuid.UUID, actor access.Actor, op, verb string) (*models.User, error) {
	if actor == nil {
		return nil, apperr.Unauthenticated("Unauthorized")
	}
	u, err := st.Users().GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, internal("get user", err)
	}
	if !access.CanAccessUser(actor, u) {
		return nil, deny(op, "Access denied. Insufficient permissions to "+verb+" this user.")
	}
	return u, nil
}

// Get returns one user the actor may see.
func (s *Service) Get(ctx context.Context, st store.Store, id uuid.UUID, actor access.Actor) (*models.UserPublic, error) {
	u, err := s.load(ctx, st, id, actor, "user.get", "view")
	if err != nil {
		return nil, err
	}
	return s.public(ctx, st, u)
}

// Update changes a user the actor may manage.
func (s *Service) Update(ctx context.Context, st store.Store, id uuid.UUID, in UpdateUserInput, actor access.Actor) (*models.UserPublic, error) {
	if in.Email != nil {
		e := store.NormalizeEmail(*in.Email)
		in.Email = &e
	}
	if in.Name != nil {
		n := strings.TrimSpace(*in.Name)
		in.Name = &n
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	u, err := s.load(ctx, st, id, actor, "user.update", "update")
	if err != nil {
		return nil, err
	}

	if in.Email != nil && *in.Email != u.Email {
		taken, err := st.Users().EmailTaken(ctx, *in.Email, &u.ID)
		if err != nil {
			return nil, internal("check email", err)
		}
		if taken {
			return nil, apperr.DuplicateEmail()
		}
		u.Email = *in.Email
	}

	if in.Role != nil && *in.Role != u.Role {
		switch {
		case *in.Role == models.RoleAdmin:
			return nil, deny("user.update", "ADMIN role cannot be assigned")
		case *in.Role == models.RoleOwner && actor.Role() != models.RoleAdmin:
			return nil, deny("user.update", "Only admin can assign ADMIN or OWNER roles")
		case actor.Role() == models.RoleOwner && u.Role == models.RoleOwner:
			return nil, deny("user.update", "Cannot change owner role")
		case !access.CanCreateRole(actor, *in.Role):
			return nil, deny("user.update", "You cannot assign a role above your own")
		}
		u.Role = *in.Role
	}

	if err := confineUpdate(&in, actor); err != nil {
		return nil, err
	}
	placementChanged := in.RestaurantID != nil || in.OutletID != nil || in.Role != nil
	if in.RestaurantID != nil {
		u.RestaurantID = in.RestaurantID
	}
	if in.OutletID != nil {
		u.OutletID = in.OutletID
	}
	if u.Role.IsStaff() {
		if u.OutletID == nil {
			return nil, apperr.Validation("Outlet ID is required for staff roles")
		}
		if u.RestaurantID == nil {
			return nil, apperr.Validation("Restaurant ID is required for staff roles")
		}
	}
	if u.Role == models.RoleOwner && u.RestaurantID == nil {
		return nil, apperr.Validation("Restaurant ID is required for OWNER role")
	}
	if placementChanged {
		if err := checkPlacement(ctx, st, u.RestaurantID, u.OutletID); err != nil {
			return nil, err
		}
	}

	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Phone != nil {
		u.Phone = *in.Phone
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}

	if err := st.Users().Update(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, apperr.DuplicateEmail()
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, internal("update user", err)
	}
	return s.public(ctx, st, u)
}

// confineUpdate keeps owners and managers from moving users out of their tenant.
func confineUpdate(in *UpdateUserInput, actor access.Actor) error {
	switch a := actor.(type) {
	case access.Owner:
		if in.RestaurantID != nil && *in.RestaurantID != a.RestaurantID {
			return deny("user.update", "You can only manage users in your own restaurant")
		}
	case access.Manager:
		if in.RestaurantID != nil && *in.RestaurantID != a.RestaurantID {
			return deny("user.update", "You can only manage users in your own restaurant")
		}
		if in.OutletID != nil && *in.OutletID != a.OutletID {
			return deny("user.update", "You can only manage staff in your own outlet")
		}
	}
	return nil
}

// Delete soft-deletes a user the actor may manage.
func (s *Service) Delete(ctx context.Context, st store.Store, id uuid.UUID, actor access.Actor) error {
	u, err := s.load(ctx, st, id, actor, "user.delete", "delete")
	if err != nil {
		return err
	}
	if u.ID == actor.UserID() {
		return apperr.SelfDeletion()
	}
	if u.Role == models.RoleAdmin && actor.Role() != models.RoleAdmin {
		return deny("user.delete", "Only admin can delete admin accounts")
	}
	if err := st.Users().SoftDelete(ctx, u.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("User not found")
		}
		return internal("delete user", err)
	}
	return nil
}

// List returns the users inside the actor's scope, newest first.
func (s *Service) List(ctx context.Context, st store.Store, q ListQuery, actor access.Actor) ([]models.UserPublic, int, error) {
	if actor == nil {
		return nil, 0, apperr.Unauthenticated("Unauthorized")
	}
	scope, err := access.UserScope(actor)
	if err != nil {
		metrics.Denied("user.list")
		return nil, 0, apperr.Forbidden("Access denied. Insufficient permissions to view users.")
	}
	list, total, err := st.Users().List(ctx, store.UserFilter{
		RestaurantID: scope.RestaurantID(),
		OutletID:     scope.OutletID(),
		Search:       strings.TrimSpace(q.Search),
		IsActive:     q.IsActive,
		Page:         q.Page,
	})
	if err != nil {
		return nil, 0, internal("list users", err)
	}
	out := make([]models.UserPublic, 0, len(list))
	for i := range list {
		p, err := s.public(ctx, st, &list[i])
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, nil
}

// Login verifies credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, st store.Store, in LoginInput) (*LoginResult, error) {
	in.Email = store.NormalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	u, err := st.Users().GetByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, internal("get user", err)
	}
	if u == nil || !u.IsActive || !utils.CheckPassword(in.Password, u.Password) {
		return nil, apperr.Unauthenticated("Invalid email or password")
	}
	token, err := s.jwt.Generate(u.ID, string(u.Role))
	if err != nil {
		return nil, internal("sign token", err)
	}
	p, err := s.public(ctx, st, u)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", zap.String("user_id", u.ID.String()), zap.String("role", string(u.Role)))
	return &LoginResult{Token: token, User: *p}, nil
}

// Me returns the actor's own profile.
func (s *Service) Me(ctx context.Context, st store.Store, actor access.Actor) (*models.UserPublic, error) {
	if actor == nil {
		return nil, apperr.Unauthenticated("Unauthorized")
	}
	u, err := st.Users().GetByID(ctx, actor.UserID())
	if errors.Is(err, store.ErrNotFound) || (err == nil && !u.IsActive) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, internal("get user", err)
	}
	return s.public(ctx, st, u)
}

// SetupPassword redeems a one-time setup token and stores the chosen password.
func (s *Service) SetupPassword(ctx context.Context, st store.Store, in SetupPasswordInput) error {
	in.Password = blankToEmpty(in.Password)
	if err := validation.Struct(in); err != nil {
		return err
	}
	if s.tokens == nil {
		return apperr.NotFound("Password setup is not available")
	}
	userID, err := s.tokens.Consume(ctx, in.Token)
	if err != nil {
		return apperr.Validation("Invalid or expired setup token")
	}
	if err := st.Users().SetPassword(ctx, userID, in.Password); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("User not found")
		}
		return internal("set password", err)
	}
	s.logger.Info("password set via onboarding token", zap.String("user_id", userID.String()))
	return nil
}

// public projects u and resolves its live restaurant and outlet.
func (s *Service) public(ctx context.Context, st store.Store, u *models.User) (*models.UserPublic, error) {
	p := u.ToPublic()
	if u.RestaurantID != nil {
		r, err := st.Restaurants().GetByID(ctx, *u.RestaurantID)
		switch {
		case err == nil && r.Live():
			p.Restaurant = r.Summary()
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return nil, internal("get restaurant", err)
		}
	}
	if u.OutletID != nil {
		o, err := st.Outlets().GetByID(ctx, *u.OutletID, nil)
		switch {
		case err == nil && o.Live():
			p.Outlet = o.Summary()
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return nil, internal("get outlet", err)
		}
	}
	return &p, nil
}
