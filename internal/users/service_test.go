package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablekit/backend/internal/access"
	"github.com/tablekit/backend/internal/apperr"
	"github.com/tablekit/backend/internal/auth"
	"github.com/tablekit/backend/internal/models"
	"github.com/tablekit/backend/internal/store"
	"github.com/tablekit/backend/internal/store/memory"
	"github.com/tablekit/backend/pkg/utils"
)

type fixture struct {
	db      *memory.DB
	svc     *Service
	r1, r2  *models.Restaurant
	o1, o1b *models.Outlet
	o2      *models.Outlet
	admin   access.Actor
	owner   access.Actor
	manager access.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := memory.New()
	f := &fixture{db: db, svc: NewService(auth.NewJWTService("secret", time.Hour), nil, nil)}

	f.r1 = &models.Restaurant{Name: "Pizza Co", IsActive: true}
	f.r2 = &models.Restaurant{Name: "Burger Co", IsActive: true}
	require.NoError(t, db.Restaurants().Create(ctx, f.r1))
	require.NoError(t, db.Restaurants().Create(ctx, f.r2))

	f.o1 = &models.Outlet{RestaurantID: f.r1.ID, Name: "Downtown", Address: "1 Main", IsActive: true}
	f.o1b = &models.Outlet{RestaurantID: f.r1.ID, Name: "Uptown", Address: "9 High", IsActive: true}
	f.o2 = &models.Outlet{RestaurantID: f.r2.ID, Name: "Mall", Address: "2 Mall", IsActive: true}
	for _, o := range []*models.Outlet{f.o1, f.o1b, f.o2} {
		require.NoError(t, db.Outlets().Create(ctx, o))
	}

	f.admin = access.Admin{ID: f.seed(t, "admin@x.io", models.RoleAdmin, nil, nil).ID}
	f.owner = access.Owner{ID: f.seed(t, "owner@x.io", models.RoleOwner, &f.r1.ID, nil).ID, RestaurantID: f.r1.ID}
	f.manager = access.Manager{ID: f.seed(t, "mgr@x.io", models.RoleManager, &f.r1.ID, &f.o1.ID).ID, RestaurantID: f.r1.ID, OutletID: f.o1.ID}
	return f
}

func (f *fixture) seed(t *testing.T, email string, role models.Role, rid, oid *uuid.UUID) *models.User {
	t.Helper()
	u := &models.User{Name: email, Email: email, Phone: "1234567890", Password: "password1", Role: role, RestaurantID: rid, OutletID: oid, IsActive: true}
	require.NoError(t, f.db.Users().Create(context.Background(), u))
	return u
}

func input(email string, role models.Role) CreateUserInput {
	return CreateUserInput{Name: "New User", Email: email, Phone: "9876543210", Password: "secret123", Role: role}
}

func TestCreateRejectsAdminForEveryActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, actor := range []access.Actor{f.admin, f.owner, f.manager} {
		_, err := f.svc.Create(ctx, f.db, input(uuid.NewString()+"@x.io", models.RoleAdmin), actor)
		require.Error(t, err)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err), "actor %s", actor.Role())
		assert.Equal(t, "ADMIN role cannot be created", apperr.Message(err))
	}
}

func TestOwnerCannotCreateInOtherRestaurant(t *testing.T) {
	f := newFixture(t)
	in := input("m2@x.io", models.RoleManager)
	in.RestaurantID = &f.r2.ID
	in.OutletID = &f.o2.ID

	_, err := f.svc.Create(context.Background(), f.db, in, f.owner)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.Equal(t, "You can only create users in your own restaurant", apperr.Message(err))
}

func TestManagerCreatedWaiterInheritsOutlet(t *testing.T) {
	f := newFixture(t)
	u, err := f.svc.Create(context.Background(), f.db, input("w@x.io", models.RoleWaiter), f.manager)
	require.NoError(t, err)
	require.NotNil(t, u.OutletID)
	require.NotNil(t, u.RestaurantID)
	assert.Equal(t, f.o1.ID, *u.OutletID)
	assert.Equal(t, f.r1.ID, *u.RestaurantID)
}

func TestManagerCannotPlaceStaffInOtherOutlet(t *testing.T) {
	f := newFixture(t)
	in := input("w2@x.io", models.RoleChef)
	in.OutletID = &f.o1b.ID

	_, err := f.svc.Create(context.Background(), f.db, in, f.manager)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.Equal(t, "You can only create staff in your own outlet", apperr.Message(err))
}

func TestRankLimits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.db, input("o2@x.io", models.RoleOwner), f.manager)
	assert.Equal(t, "You can only create MANAGER or lower level roles", apperr.Message(err))

	chef := access.Staff{ID: uuid.New(), StaffRole: models.RoleChef, RestaurantID: f.r1.ID, OutletID: f.o1.ID}
	_, err = f.svc.Create(ctx, f.db, input("w3@x.io", models.RoleWaiter), chef)
	assert.Equal(t, "You don't have permission to create users", apperr.Message(err))

	u, err := f.svc.Create(ctx, f.db, input("o3@x.io", models.RoleOwner), f.owner)
	require.NoError(t, err)
	assert.Equal(t, f.r1.ID, *u.RestaurantID)
}

func TestCreateRequiresPlacement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.db, input("c@x.io", models.RoleChef), f.admin)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "Outlet ID is required for staff roles", apperr.Message(err))

	_, err = f.svc.Create(ctx, f.db, input("o@x.io", models.RoleOwner), f.admin)
	assert.Equal(t, "Restaurant ID is required for OWNER role", apperr.Message(err))

	in := input("c2@x.io", models.RoleChef)
	in.RestaurantID = &f.r1.ID
	in.OutletID = &f.o2.ID
	_, err = f.svc.Create(ctx, f.db, in, f.admin)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Contains(t, apperr.Message(err), "does not belong to the specified restaurant")
}

func TestCreateRejectsInactiveOutlet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.o1b.IsActive = false
	require.NoError(t, f.db.Outlets().Update(ctx, f.o1b))

	in := input("c3@x.io", models.RoleChef)
	in.RestaurantID = &f.r1.ID
	in.OutletID = &f.o1b.ID
	_, err := f.svc.Create(ctx, f.db, in, f.admin)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	in := input("not-an-email", models.RoleCustomer)
	_, err := f.svc.Create(context.Background(), f.db, in, f.admin)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "email must be a valid email address", apperr.Message(err))

	in = input("ok@x.io", models.Role("CASHIER"))
	_, err = f.svc.Create(context.Background(), f.db, in, f.admin)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	in = input("blankpw@x.io", models.RoleCustomer)
	in.Password = " \t  "
	_, err = f.svc.Create(context.Background(), f.db, in, f.admin)
	assert.Equal(t, "password is required", apperr.Message(err))
}

func TestCreateDuplicateEmailIncludesDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gone := f.seed(t, "gone@x.io", models.RoleCustomer, nil, nil)
	require.NoError(t, f.db.Users().SoftDelete(ctx, gone.ID))

	_, err := f.svc.Create(ctx, f.db, input("GONE@x.io", models.RoleCustomer), f.admin)
	assert.Equal(t, apperr.KindDuplicateEmail, apperr.KindOf(err))
}

// racyStore hides existing emails from the pre-insert check, as a concurrent request would see.
type racyStore struct{ store.Store }

func (s racyStore) Users() store.UserRepository { return racyUsers{s.Store.Users()} }

type racyUsers struct{ store.UserRepository }

func (racyUsers) EmailTaken(context.Context, string, *uuid.UUID) (bool, error) { return false, nil }

func TestConcurrentDuplicateCaughtByUniqueIndex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := racyStore{f.db}

	_, err := f.svc.Create(ctx, st, input("race@x.io", models.RoleCustomer), f.admin)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, st, input("race@x.io", models.RoleCustomer), f.admin)
	assert.Equal(t, apperr.KindDuplicateEmail, apperr.KindOf(err))

	list, total, err := f.db.Users().List(ctx, store.UserFilter{Search: "race@"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, list, 1)
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := input("rt@x.io", models.RoleWaiter)
	in.RestaurantID = &f.r1.ID
	in.OutletID = &f.o1.ID

	created, err := f.svc.Create(ctx, f.db, in, f.manager)
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, f.db, created.ID, f.manager)
	require.NoError(t, err)
	assert.Equal(t, in.Name, got.Name)
	assert.Equal(t, in.Email, got.Email)
	assert.Equal(t, in.Phone, got.Phone)
	assert.Equal(t, models.RoleWaiter, got.Role)
	require.NotNil(t, got.Outlet)
	assert.Equal(t, "Downtown", got.Outlet.Name)
	require.NotNil(t, got.Restaurant)
	assert.Equal(t, "Pizza Co", got.Restaurant.Name)

	stored, err := f.db.Users().GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, in.Password, stored.Password)
}

func TestGetForbiddenVersusNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := f.seed(t, "other-owner@x.io", models.RoleOwner, &f.r1.ID, nil)

	_, err := f.svc.Get(ctx, f.db, other.ID, f.owner)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = f.svc.Get(ctx, f.db, uuid.New(), f.owner)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.Delete(ctx, f.db, f.owner.UserID(), f.owner)
	assert.Equal(t, apperr.KindSelfDeletion, apperr.KindOf(err))

	err = f.svc.Delete(ctx, f.db, f.admin.UserID(), f.owner)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	err = f.svc.Delete(ctx, f.db, uuid.New(), f.admin)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	w := f.seed(t, "del@x.io", models.RoleWaiter, &f.r1.ID, &f.o1.ID)
	require.NoError(t, f.svc.Delete(ctx, f.db, w.ID, f.manager))
	_, err = f.svc.Get(ctx, f.db, w.ID, f.admin)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	otherAdmin := f.seed(t, "admin2@x.io", models.RoleAdmin, nil, nil)
	require.NoError(t, f.svc.Delete(ctx, f.db, otherAdmin.ID, f.admin))
}

func TestUpdateRoleRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.seed(t, "upd@x.io", models.RoleWaiter, &f.r1.ID, &f.o1.ID)

	owner := models.RoleOwner
	_, err := f.svc.Update(ctx, f.db, w.ID, UpdateUserInput{Role: &owner}, f.owner)
	assert.Equal(t, "Only admin can assign ADMIN or OWNER roles", apperr.Message(err))

	admin := models.RoleAdmin
	_, err = f.svc.Update(ctx, f.db, w.ID, UpdateUserInput{Role: &admin}, f.admin)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	mgr := models.RoleManager
	_, err = f.svc.Update(ctx, f.db, f.owner.UserID(), UpdateUserInput{Role: &mgr}, f.owner)
	assert.Equal(t, "Cannot change owner role", apperr.Message(err))

	chef := models.RoleChef
	got, err := f.svc.Update(ctx, f.db, w.ID, UpdateUserInput{Role: &chef}, f.manager)
	require.NoError(t, err)
	assert.Equal(t, models.RoleChef, got.Role)
}

func TestUpdateEmailAndPlacement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.seed(t, "mv@x.io", models.RoleWaiter, &f.r1.ID, &f.o1.ID)

	taken := "owner@x.io"
	_, err := f.svc.Update(ctx, f.db, w.ID, UpdateUserInput{Email: &taken}, f.owner)
	assert.Equal(t, apperr.KindDuplicateEmail, apperr.KindOf(err))

	_, err = f.svc.Update(ctx, f.db, w.ID, UpdateUserInput{RestaurantID: &f.r2.ID, OutletID: &f.o2.ID}, f.owner)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = f.svc.Update(ctx, f.db, w.ID, UpdateUserInput{OutletID: &f.o2.ID}, f.admin)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	got, err := f.svc.Update(ctx, f.db, w.ID, UpdateUserInput{OutletID: &f.o1b.ID}, f.owner)
	require.NoError(t, err)
	assert.Equal(t, f.o1b.ID, *got.OutletID)

	fresh := "MOVED@x.io"
	got, err = f.svc.Update(ctx, f.db, w.ID, UpdateUserInput{Email: &fresh}, f.admin)
	require.NoError(t, err)
	assert.Equal(t, "moved@x.io", got.Email)

	blank := "   "
	_, err = f.svc.Update(ctx, f.db, w.ID, UpdateUserInput{Name: &blank}, f.admin)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "name must be at least 1 characters", apperr.Message(err))
	stored, err := f.db.Users().GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.Name)

	padded := "  Wendy  "
	got, err = f.svc.Update(ctx, f.db, w.ID, UpdateUserInput{Name: &padded}, f.admin)
	require.NoError(t, err)
	assert.Equal(t, "Wendy", got.Name)
}

func TestListIsScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "w-o1@x.io", models.RoleWaiter, &f.r1.ID, &f.o1.ID)
	f.seed(t, "w-o1b@x.io", models.RoleWaiter, &f.r1.ID, &f.o1b.ID)
	f.seed(t, "w-o2@x.io", models.RoleWaiter, &f.r2.ID, &f.o2.ID)

	_, total, err := f.svc.List(ctx, f.db, ListQuery{}, f.admin)
	require.NoError(t, err)
	assert.Equal(t, 6, total)

	_, total, err = f.svc.List(ctx, f.db, ListQuery{}, f.owner)
	require.NoError(t, err)
	assert.Equal(t, 4, total) // owner, manager, two waiters

	list, total, err := f.svc.List(ctx, f.db, ListQuery{}, f.manager)
	require.NoError(t, err)
	assert.Equal(t, 2, total) // manager and the o1 waiter
	for _, u := range list {
		assert.Equal(t, f.o1.ID, *u.OutletID)
	}

	chef := access.Staff{ID: uuid.New(), StaffRole: models.RoleChef, RestaurantID: f.r1.ID, OutletID: f.o1.ID}
	_, _, err = f.svc.List(ctx, f.db, ListQuery{}, chef)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Login(ctx, f.db, LoginInput{Email: "OWNER@x.io", Password: "password1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	require.NotNil(t, res.User.Restaurant)
	assert.Equal(t, f.r1.ID, res.User.Restaurant.ID)

	claims, err := f.svc.jwt.Validate(res.Token)
	require.NoError(t, err)
	assert.Equal(t, f.owner.UserID(), claims.UserID)

	_, err = f.svc.Login(ctx, f.db, LoginInput{Email: "owner@x.io", Password: "wrong"})
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))

	_, err = f.svc.Login(ctx, f.db, LoginInput{Email: "nobody@x.io", Password: "password1"})
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))

	hashLike, err := utils.HashPassword("irrelevant")
	require.NoError(t, err)
	in := input("hashlike@x.io", models.RoleCustomer)
	in.Password = hashLike
	_, err = f.svc.Create(ctx, f.db, in, f.admin)
	require.NoError(t, err)
	_, err = f.svc.Login(ctx, f.db, LoginInput{Email: "hashlike@x.io", Password: hashLike})
	require.NoError(t, err)
}

type stubTokens map[string]uuid.UUID

func (s stubTokens) Consume(_ context.Context, token string) (uuid.UUID, error) {
	id, ok := s[token]
	if !ok {
		return uuid.Nil, errors.New("unknown token")
	}
	delete(s, token)
	return id, nil
}

func TestSetupPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tokens := stubTokens{"tok": f.owner.UserID()}
	f.svc.tokens = tokens

	err := f.svc.SetupPassword(ctx, f.db, SetupPasswordInput{Token: "tok", Password: "short"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	err = f.svc.SetupPassword(ctx, f.db, SetupPasswordInput{Token: "tok", Password: "          "})
	assert.Equal(t, "password is required", apperr.Message(err))

	require.NoError(t, f.svc.SetupPassword(ctx, f.db, SetupPasswordInput{Token: "tok", Password: "brand-new-pass"}))
	_, err = f.svc.Login(ctx, f.db, LoginInput{Email: "owner@x.io", Password: "brand-new-pass"})
	require.NoError(t, err)

	err = f.svc.SetupPassword(ctx, f.db, SetupPasswordInput{Token: "tok", Password: "another-pass"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
