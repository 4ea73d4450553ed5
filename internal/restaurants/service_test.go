package restaurants

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tablekit/backend/internal/apperr"
	"github.com/tablekit/backend/internal/auth"
	"github.com/tablekit/backend/internal/models"
	"github.com/tablekit/backend/internal/store"
	"github.com/tablekit/backend/internal/store/memory"
	"github.com/tablekit/backend/internal/users"
	"github.com/tablekit/backend/pkg/utils"
)

type fakeLogos struct {
	uploads []string
	deleted []string
}

func (f *fakeLogos) UploadLogo(_ context.Context, id uuid.UUID, ext string, body io.Reader, _ int64) (string, error) {
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}
	url := "https://logos.test/" + id.String() + "/" + uuid.NewString() + ext
	f.uploads = append(f.uploads, url)
	return url, nil
}

func (f *fakeLogos) DeleteLogo(_ context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

func newService(logger *zap.Logger, logos LogoStore) *Service {
	usersSvc := users.NewService(auth.NewJWTService("secret", time.Hour), nil, logger)
	return NewService(usersSvc, logos, logger)
}

func validInput(email string) CreateInput {
	return CreateInput{
		Restaurant: &RestaurantInput{Name: "Pizza Co"},
		User:       &OwnerPayload{Name: "Olive", Email: email, Phone: "9876543210"},
	}
}

func TestCreateProvisionsRestaurantAndOwner(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	svc := newService(zap.New(core), nil)
	db := memory.New()
	ctx := context.Background()

	var p *Provisioned
	err := db.WithTx(ctx, func(tx store.Store) error {
		var err error
		p, err = svc.Create(ctx, tx, validInput("Olive@Pizza.io"))
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, "Pizza Co", p.Restaurant.Name)
	assert.True(t, p.Restaurant.IsActive)
	assert.Equal(t, models.RoleOwner, p.Owner.Role)
	require.NotNil(t, p.Owner.RestaurantID)
	assert.Equal(t, p.Restaurant.ID, *p.Owner.RestaurantID)
	assert.True(t, p.Owner.IsActive)
	assert.Len(t, p.InitialPassword, InitialPasswordLength)

	stored, err := db.Users().GetByEmail(ctx, "olive@pizza.io")
	require.NoError(t, err)
	assert.True(t, utils.CheckPassword(p.InitialPassword, stored.Password))

	for _, entry := range logs.All() {
		assert.NotContains(t, entry.Message, p.InitialPassword)
		for _, field := range entry.Context {
			assert.NotContains(t, field.String, p.InitialPassword)
		}
	}
}

func TestCreateRequiresBothPayloads(t *testing.T) {
	svc := newService(nil, nil)
	db := memory.New()
	ctx := context.Background()

	_, err := svc.Create(ctx, db, CreateInput{User: &OwnerPayload{}})
	assert.Equal(t, "Restaurant data is required", apperr.Message(err))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Create(ctx, db, CreateInput{Restaurant: &RestaurantInput{Name: "R"}})
	assert.Equal(t, "User data is required", apperr.Message(err))

	in := validInput("a@b.io")
	in.Restaurant.Name = "  "
	_, err = svc.Create(ctx, db, in)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCreateRollsBackWhenOwnerFails(t *testing.T) {
	svc := newService(nil, nil)
	db := memory.New()
	ctx := context.Background()
	require.NoError(t, db.Users().Create(ctx, &models.User{
		Name: "Taken", Email: "taken@x.io", Password: "password1", Role: models.RoleCustomer, IsActive: true,
	}))

	err := db.WithTx(ctx, func(tx store.Store) error {
		_, err := svc.Create(ctx, tx, validInput("taken@x.io"))
		return err
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindDuplicateEmail, apperr.KindOf(err))

	_, total, err := db.Restaurants().List(ctx, store.RestaurantFilter{})
	require.NoError(t, err)
	assert.Zero(t, total, "restaurant must not survive a failed owner insert")
}

func TestCreateRollsBackOnInvalidOwner(t *testing.T) {
	svc := newService(nil, nil)
	db := memory.New()
	ctx := context.Background()

	in := validInput("not-an-email")
	err := db.WithTx(ctx, func(tx store.Store) error {
		_, err := svc.Create(ctx, tx, in)
		return err
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, total, err := db.Restaurants().List(ctx, store.RestaurantFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestUpdateGetDelete(t *testing.T) {
	svc := newService(nil, nil)
	db := memory.New()
	ctx := context.Background()
	p, err := svc.Create(ctx, db, validInput("o@x.io"))
	require.NoError(t, err)
	id := p.Restaurant.ID

	name, inactive := "Pizza Palace", false
	r, err := svc.Update(ctx, db, id, UpdateInput{Name: &name, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Pizza Palace", r.Name)
	assert.False(t, r.IsActive)

	got, err := svc.Get(ctx, db, id)
	require.NoError(t, err)
	assert.Equal(t, "Pizza Palace", got.Name)

	require.NoError(t, svc.Delete(ctx, db, id))
	_, err = svc.Get(ctx, db, id)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.True(t, apperr.Is(svc.Delete(ctx, db, id), apperr.KindNotFound))

	_, err = svc.Update(ctx, db, uuid.New(), UpdateInput{Name: &name})
	assert.Equal(t, "Restaurant not found", apperr.Message(err))
}

func TestListSearchAndStatus(t *testing.T) {
	svc := newService(nil, nil)
	db := memory.New()
	ctx := context.Background()
	for i, name := range []string{"Pizza Co", "Burger Co", "Pizza Hut"} {
		in := validInput(uuid.NewString() + "@x.io")
		in.Restaurant.Name = name
		p, err := svc.Create(ctx, db, in)
		require.NoError(t, err)
		if i == 2 {
			off := false
			_, err = svc.Update(ctx, db, p.Restaurant.ID, UpdateInput{IsActive: &off})
			require.NoError(t, err)
		}
	}

	list, total, err := svc.List(ctx, db, ListQuery{Search: "pizza"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, list, 2)

	active := true
	_, total, err = svc.List(ctx, db, ListQuery{Search: "pizza", IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	list, total, err = svc.List(ctx, db, ListQuery{Search: "sushi"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, list)
}

func TestUploadLogo(t *testing.T) {
	logos := &fakeLogos{}
	svc := newService(nil, logos)
	db := memory.New()
	ctx := context.Background()
	p, err := svc.Create(ctx, db, validInput("o@x.io"))
	require.NoError(t, err)

	upload := func(name, ct string, size int64) (*models.Restaurant, error) {
		return svc.UploadLogo(ctx, db, p.Restaurant.ID, LogoUpload{
			Filename: name, ContentType: ct, Size: size, Body: bytes.NewReader([]byte("img")),
		})
	}

	r, err := upload("logo.png", "image/png", 3)
	require.NoError(t, err)
	assert.Equal(t, logos.uploads[0], r.Logo)

	r, err = upload("logo2.webp", "", 3)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(r.Logo, ".webp"))
	assert.Equal(t, []string{logos.uploads[0]}, logos.deleted)

	_, err = upload("menu.pdf", "application/pdf", 3)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = upload("big.png", "image/png", 3*1024*1024)
	assert.Equal(t, "Logo must be at most 2MB", apperr.Message(err))

	_, err = svc.UploadLogo(ctx, db, uuid.New(), LogoUpload{Filename: "a.png", ContentType: "image/png", Size: 1, Body: strings.NewReader("x")})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Len(t, logos.uploads, 2)
}
