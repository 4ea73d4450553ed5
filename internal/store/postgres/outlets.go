package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tablekit/backend/internal/models"
	"github.com/tablekit/backend/internal/store"
	"github.com/tablekit/backend/pkg/database"
)

type outletRepo struct {
	q database.DBTX
}

const outletSelect = `SELECT o.id, o.restaurant_id, o.name, o.address, o.city, o.state, o.country, o.pincode, o.phone,
		o.is_active, o.is_deleted, o.created_at, o.updated_at, r.name, r.logo
	FROM outlets o
	INNER JOIN restaurants r ON r.id = o.restaurant_id`

func scanOutlet(row pgx.Row) (*models.Outlet, error) {
	var o models.Outlet
	var rs models.RestaurantSummary
	err := row.Scan(&o.ID, &o.RestaurantID, &o.Name, &o.Address, &o.City, &o.State, &o.Country, &o.Pincode, &o.Phone,
		&o.IsActive, &o.IsDeleted, &o.CreatedAt, &o.UpdatedAt, &rs.Name, &rs.Logo)
	if err != nil {
		return nil, err
	}
	rs.ID = o.RestaurantID
	o.Restaurant = &rs
	return &o, nil
}

func (r *outletRepo) Create(ctx context.Context, o *models.Outlet) error {
	const q = `INSERT INTO outlets (id, restaurant_id, name, address, city, state, country, pincode, phone, is_active)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`
	err := r.q.QueryRow(ctx, q, o.RestaurantID, o.Name, o.Address, o.City, o.State, o.Country, o.Pincode, o.Phone, o.IsActive).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return err
	}
	return r.attachRestaurant(ctx, o)
}

func (r *outletRepo) attachRestaurant(ctx context.Context, o *models.Outlet) error {
	var rs models.RestaurantSummary
	err := r.q.QueryRow(ctx, `SELECT id, name, logo FROM restaurants WHERE id = $1`, o.RestaurantID).Scan(&rs.ID, &rs.Name, &rs.Logo)
	if err != nil {
		return notFound(err)
	}
	o.Restaurant = &rs
	return nil
}

func (r *outletRepo) GetByID(ctx context.Context, id uuid.UUID, restaurantID *uuid.UUID) (*models.Outlet, error) {
	o, err := scanOutlet(r.q.QueryRow(ctx, outletSelect+` WHERE o.id = $1 AND NOT o.is_deleted AND ($2::uuid IS NULL OR o.restaurant_id = $2)`, id, restaurantID))
	return o, notFound(err)
}

func (r *outletRepo) Update(ctx context.Context, o *models.Outlet) error {
	const q = `UPDATE outlets SET name = $2, address = $3, city = $4, state = $5, country = $6, pincode = $7, phone = $8,
		is_active = $9, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted
		RETURNING created_at, updated_at`
	err := r.q.QueryRow(ctx, q, o.ID, o.Name, o.Address, o.City, o.State, o.Country, o.Pincode, o.Phone, o.IsActive).
		Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return notFound(err)
	}
	return r.attachRestaurant(ctx, o)
}

func (r *outletRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `UPDATE outlets SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1 AND NOT is_deleted`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *outletRepo) List(ctx context.Context, f store.OutletFilter) ([]models.Outlet, int, error) {
	var w where
	w.raw("NOT o.is_deleted")
	if f.RestaurantID != nil {
		w.add("o.restaurant_id = $%d", *f.RestaurantID)
	}
	if f.IsActive != nil {
		w.add("o.is_active = $%d", *f.IsActive)
	}
	w.search(f.Search, "o.name", "o.address", "o.city")

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM outlets o`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit, args := w.paginate(f.Page)
	rows, err := r.q.Query(ctx, outletSelect+w.String()+` ORDER BY o.created_at DESC, o.id`+limit, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	list := []models.Outlet{}
	for rows.Next() {
		o, err := scanOutlet(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *o)
	}
	return list, total, rows.Err()
}
