package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tablekit/backend/internal/models"
	"github.com/tablekit/backend/internal/store"
	"github.com/tablekit/backend/pkg/database"
)

type restaurantRepo struct {
	q database.DBTX
}

const restaurantColumns = `id, name, logo, is_active, is_deleted, created_at, updated_at`

func scanRestaurant(row pgx.Row) (*models.Restaurant, error) {
	var r models.Restaurant
	if err := row.Scan(&r.ID, &r.Name, &r.Logo, &r.IsActive, &r.IsDeleted, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *restaurantRepo) Create(ctx context.Context, rest *models.Restaurant) error {
	const q = `INSERT INTO restaurants (id, name, logo, is_active)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id, created_at, updated_at`
	return r.q.QueryRow(ctx, q, rest.Name, rest.Logo, rest.IsActive).Scan(&rest.ID, &rest.CreatedAt, &rest.UpdatedAt)
}

func (r *restaurantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	rest, err := scanRestaurant(r.q.QueryRow(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE id = $1 AND NOT is_deleted`, id))
	return rest, notFound(err)
}

func (r *restaurantRepo) Update(ctx context.Context, rest *models.Restaurant) error {
	const q = `UPDATE restaurants SET name = $2, logo = $3, is_active = $4, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted
		RETURNING created_at, updated_at`
	return notFound(r.q.QueryRow(ctx, q, rest.ID, rest.Name, rest.Logo, rest.IsActive).Scan(&rest.CreatedAt, &rest.UpdatedAt))
}

func (r *restaurantRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `UPDATE restaurants SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1 AND NOT is_deleted`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *restaurantRepo) List(ctx context.Context, f store.RestaurantFilter) ([]models.Restaurant, int, error) {
	var w where
	w.raw("NOT is_deleted")
	if f.IsActive != nil {
		w.add("is_active = $%d", *f.IsActive)
	}
	w.search(f.Search, "name")

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM restaurants`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit, args := w.paginate(f.Page)
	rows, err := r.q.Query(ctx, `SELECT `+restaurantColumns+` FROM restaurants`+w.String()+` ORDER BY created_at DESC, id`+limit, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	list := []models.Restaurant{}
	for rows.Next() {
		rest, err := scanRestaurant(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *rest)
	}
	return list, total, rows.Err()
}
