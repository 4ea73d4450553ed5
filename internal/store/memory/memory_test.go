package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablekit/backend/internal/models"
	"github.com/tablekit/backend/internal/store"
	"github.com/tablekit/backend/pkg/utils"
)

func TestUserCreateHashesPasswordAndLowercasesEmail(t *testing.T) {
	db := New()
	ctx := context.Background()

	u := &models.User{Name: "Ann", Email: " Ann@Example.COM ", Password: "secret123", Role: models.RoleCustomer, IsActive: true}
	require.NoError(t, db.Users().Create(ctx, u))
	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.NotEqual(t, "secret123", u.Password)
	assert.True(t, utils.CheckPassword("secret123", u.Password))

	got, err := db.Users().GetByEmail(ctx, "ANN@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestHashLookingPasswordIsStillHashed(t *testing.T) {
	db := New()
	ctx := context.Background()

	submitted, err := utils.HashPassword("anything")
	require.NoError(t, err)

	u := &models.User{Name: "H", Email: "hash@x.io", Password: submitted, Role: models.RoleCustomer, IsActive: true}
	require.NoError(t, db.Users().Create(ctx, u))

	got, err := db.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, submitted, got.Password)
	assert.True(t, utils.CheckPassword(submitted, got.Password))
	assert.False(t, utils.CheckPassword("anything", got.Password))

	require.NoError(t, db.Users().SetPassword(ctx, u.ID, submitted))
	got, err = db.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, submitted, got.Password)
	assert.True(t, utils.CheckPassword(submitted, got.Password))
}

func TestUserEmailUniqueIncludesDeleted(t *testing.T) {
	db := New()
	ctx := context.Background()

	u := &models.User{Name: "A", Email: "a@x.io", Password: "pw123456", Role: models.RoleCustomer}
	require.NoError(t, db.Users().Create(ctx, u))
	require.NoError(t, db.Users().SoftDelete(ctx, u.ID))

	_, err := db.Users().GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	taken, err := db.Users().EmailTaken(ctx, "A@x.io", nil)
	require.NoError(t, err)
	assert.True(t, taken)

	again := &models.User{Name: "B", Email: "a@x.io", Password: "pw123456", Role: models.RoleCustomer}
	assert.ErrorIs(t, db.Users().Create(ctx, again), store.ErrDuplicateEmail)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db := New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.WithTx(ctx, func(tx store.Store) error {
		r := &models.Restaurant{Name: "R", IsActive: true}
		if err := tx.Restaurants().Create(ctx, r); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	list, total, err := db.Restaurants().List(ctx, store.RestaurantFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	db := New()
	ctx := context.Background()
	var rid uuid.UUID

	err := db.WithTx(ctx, func(tx store.Store) error {
		r := &models.Restaurant{Name: "R", IsActive: true}
		if err := tx.Restaurants().Create(ctx, r); err != nil {
			return err
		}
		rid = r.ID
		return tx.Users().Create(ctx, &models.User{
			Name: "O", Email: "o@r.io", Password: "pw123456", Role: models.RoleOwner, RestaurantID: &r.ID, IsActive: true,
		})
	})
	require.NoError(t, err)

	_, err = db.Restaurants().GetByID(ctx, rid)
	require.NoError(t, err)
	owner, err := db.Users().GetByEmail(ctx, "o@r.io")
	require.NoError(t, err)
	assert.Equal(t, rid, *owner.RestaurantID)
}

func TestUserListFiltersAndPages(t *testing.T) {
	db := New()
	ctx := context.Background()
	r1, r2 := uuid.New(), uuid.New()

	for i, rid := range []uuid.UUID{r1, r1, r1, r2} {
		rid := rid
		u := &models.User{
			Name:         []string{"alpha", "beta", "gamma", "delta"}[i],
			Email:        uuid.NewString() + "@x.io",
			Password:     "pw123456",
			Role:         models.RoleWaiter,
			RestaurantID: &rid,
			IsActive:     true,
		}
		require.NoError(t, db.Users().Create(ctx, u))
	}

	list, total, err := db.Users().List(ctx, store.UserFilter{RestaurantID: &r1, Page: store.Page{Number: 1, Limit: 2}})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, list, 2)

	list, total, err = db.Users().List(ctx, store.UserFilter{RestaurantID: &r1, Page: store.Page{Number: 2, Limit: 2}})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, list, 1)

	list, total, err = db.Users().List(ctx, store.UserFilter{Search: "ELT"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "delta", list[0].Name)
}

func TestOutletScopedLookup(t *testing.T) {
	db := New()
	ctx := context.Background()

	r := &models.Restaurant{Name: "R", IsActive: true}
	require.NoError(t, db.Restaurants().Create(ctx, r))
	o := &models.Outlet{RestaurantID: r.ID, Name: "Main", Address: "1 St", City: "C", State: "S", Country: "IN", Pincode: "1", IsActive: true}
	require.NoError(t, db.Outlets().Create(ctx, o))

	got, err := db.Outlets().GetByID(ctx, o.ID, &r.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Restaurant)
	assert.Equal(t, "R", got.Restaurant.Name)

	other := uuid.New()
	_, err = db.Outlets().GetByID(ctx, o.ID, &other)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, db.Outlets().Create(ctx, &models.Outlet{RestaurantID: uuid.New(), Name: "X"}), store.ErrNotFound)
}

func TestInquiryEmailUnique(t *testing.T) {
	db := New()
	ctx := context.Background()

	require.NoError(t, db.Inquiries().Create(ctx, &models.Inquiry{RestaurantName: "R", Email: "i@x.io", Phone: "1234567", Name: "N"}))
	assert.ErrorIs(t, db.Inquiries().Create(ctx, &models.Inquiry{RestaurantName: "R2", Email: "I@X.io", Phone: "1234567", Name: "N"}), store.ErrDuplicateEmail)
}

func TestReturnedModelsAreCopies(t *testing.T) {
	db := New()
	ctx := context.Background()

	u := &models.User{Name: "A", Email: "c@x.io", Password: "pw123456", Role: models.RoleCustomer}
	require.NoError(t, db.Users().Create(ctx, u))
	u.Name = "mutated"

	got, err := db.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Name)
}
