package inquiries

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablekit/backend/internal/apperr"
	"github.com/tablekit/backend/internal/auth"
	"github.com/tablekit/backend/internal/models"
	"github.com/tablekit/backend/internal/restaurants"
	"github.com/tablekit/backend/internal/store"
	"github.com/tablekit/backend/internal/store/memory"
	"github.com/tablekit/backend/internal/users"
)

func newService() *Service {
	usersSvc := users.NewService(auth.NewJWTService("secret", time.Hour), nil, nil)
	return NewService(restaurants.NewService(usersSvc, nil, nil), nil)
}

func form(email string) CreateInput {
	outlets := 3
	return CreateInput{
		RestaurantName:  " Pizza Co ",
		NumberOfOutlets: &outlets,
		Email:           email,
		Phone:           "1234567890",
		Name:            "Jo",
		Description:     "Three branches in town",
	}
}

func TestCreateInquiry(t *testing.T) {
	svc := newService()
	db := memory.New()
	ctx := context.Background()

	inq, err := svc.Create(ctx, db, form("Jo@X.com"))
	require.NoError(t, err)
	assert.Equal(t, "Pizza Co", inq.RestaurantName)
	assert.Equal(t, "jo@x.com", inq.Email)
	require.NotNil(t, inq.NumberOfOutlets)
	assert.Equal(t, 3, *inq.NumberOfOutlets)

	_, err = svc.Create(ctx, db, form("jo@x.com"))
	assert.Equal(t, apperr.KindDuplicateEmail, apperr.KindOf(err))
}

func TestCreateInquiryValidation(t *testing.T) {
	svc := newService()
	db := memory.New()
	ctx := context.Background()

	cases := map[string]func(*CreateInput){
		"restaurant_name is required": func(in *CreateInput) { in.RestaurantName = "" },
		"email must be a valid email address": func(in *CreateInput) { in.Email = "nope" },
		"phone must be a valid number with 7 to 15 digits": func(in *CreateInput) { in.Phone = "12ab" },
		"name is required": func(in *CreateInput) { in.Name = "  " },
	}
	for want, mutate := range cases {
		in := form(uuid.NewString() + "@x.io")
		mutate(&in)
		_, err := svc.Create(ctx, db, in)
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
		assert.Equal(t, want, apperr.Message(err))
	}
}

func TestConvertToRestaurant(t *testing.T) {
	svc := newService()
	db := memory.New()
	ctx := context.Background()
	inq, err := svc.Create(ctx, db, form("jo@x.com"))
	require.NoError(t, err)

	var p *restaurants.Provisioned
	err = db.WithTx(ctx, func(tx store.Store) error {
		var err error
		p, err = svc.ConvertToRestaurant(ctx, tx, inq.ID)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "Pizza Co", p.Restaurant.Name)
	assert.Equal(t, "Jo", p.Owner.Name)
	assert.Equal(t, "jo@x.com", p.Owner.Email)
	assert.Equal(t, "1234567890", p.Owner.Phone)
	assert.Equal(t, models.RoleOwner, p.Owner.Role)
	assert.Equal(t, p.Restaurant.ID, *p.Owner.RestaurantID)
	assert.Len(t, p.InitialPassword, restaurants.InitialPasswordLength)

	_, err = db.Inquiries().GetByID(ctx, inq.ID)
	require.NoError(t, err, "conversion leaves the inquiry in place")
}

func TestConvertTwiceFailsAndRollsBack(t *testing.T) {
	svc := newService()
	db := memory.New()
	ctx := context.Background()
	inq, err := svc.Create(ctx, db, form("jo@x.com"))
	require.NoError(t, err)

	convert := func() error {
		return db.WithTx(ctx, func(tx store.Store) error {
			_, err := svc.ConvertToRestaurant(ctx, tx, inq.ID)
			return err
		})
	}
	require.NoError(t, convert())

	err = convert()
	require.Error(t, err)
	assert.Equal(t, apperr.KindDuplicateEmail, apperr.KindOf(err))
	assert.Equal(t, "Email already exists", apperr.Message(err))

	_, total, err := db.Restaurants().List(ctx, store.RestaurantFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total, "the second restaurant must be rolled back")
}

func TestConvertMissingInquiry(t *testing.T) {
	svc := newService()
	_, err := svc.ConvertToRestaurant(context.Background(), memory.New(), uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "Inquiry not found", apperr.Message(err))
}

func TestListInquiries(t *testing.T) {
	svc := newService()
	db := memory.New()
	ctx := context.Background()

	list, total, err := svc.List(ctx, db, store.Page{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, list)

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, db, form(uuid.NewString()+"@x.io"))
		require.NoError(t, err)
	}
	list, total, err = svc.List(ctx, db, store.Page{Number: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, list, 1)
}
