package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tablekit/backend/internal/models"
	"github.com/tablekit/backend/internal/store"
	"github.com/tablekit/backend/pkg/database"
)

type userRepo struct {
	q database.DBTX
}

const userColumns = `id, name, email, phone, password_hash, role, restaurant_id, outlet_id, is_active, is_deleted, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Password, &u.Role, &u.RestaurantID, &u.OutletID,
		&u.IsActive, &u.IsDeleted, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 AND NOT is_deleted`, id))
	return u, notFound(err)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1 AND NOT is_deleted`, store.NormalizeEmail(email)))
	return u, notFound(err)
}

func (r *userRepo) EmailTaken(ctx context.Context, email string, except *uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND ($2::uuid IS NULL OR id <> $2))`
	var taken bool
	err := r.q.QueryRow(ctx, q, store.NormalizeEmail(email), except).Scan(&taken)
	return taken, err
}

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	if err := store.PrepareUser(u); err != nil {
		return err
	}
	const q = `INSERT INTO users (id, name, email, phone, password_hash, role, restaurant_id, outlet_id, is_active)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`
	err := r.q.QueryRow(ctx, q, u.Name, u.Email, u.Phone, u.Password, u.Role, u.RestaurantID, u.OutletID, u.IsActive).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if database.IsUniqueViolation(err, "users_email_key") {
		return store.ErrDuplicateEmail
	}
	return err
}

func (r *userRepo) Update(ctx context.Context, u *models.User) error {
	u.Email = store.NormalizeEmail(u.Email)
	const q = `UPDATE users SET name = $2, email = $3, phone = $4, role = $5, restaurant_id = $6, outlet_id = $7,
		is_active = $8, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted
		RETURNING updated_at`
	err := r.q.QueryRow(ctx, q, u.ID, u.Name, u.Email, u.Phone, u.Role, u.RestaurantID, u.OutletID, u.IsActive).Scan(&u.UpdatedAt)
	if database.IsUniqueViolation(err, "users_email_key") {
		return store.ErrDuplicateEmail
	}
	return notFound(err)
}

func (r *userRepo) SetPassword(ctx context.Context, id uuid.UUID, password string) error {
	tmp := &models.User{Password: password}
	if err := store.PrepareUser(tmp); err != nil {
		return err
	}
	tag, err := r.q.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1 AND NOT is_deleted`, id, tmp.Password)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *userRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `UPDATE users SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1 AND NOT is_deleted`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *userRepo) List(ctx context.Context, f store.UserFilter) ([]models.User, int, error) {
	var w where
	w.raw("NOT is_deleted")
	if f.RestaurantID != nil {
		w.add("restaurant_id = $%d", *f.RestaurantID)
	}
	if f.OutletID != nil {
		w.add("outlet_id = $%d", *f.OutletID)
	}
	if f.IsActive != nil {
		w.add("is_active = $%d", *f.IsActive)
	}
	w.search(f.Search, "name", "email", "phone")

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM users`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit, args := w.paginate(f.Page)
	rows, err := r.q.Query(ctx, `SELECT `+userColumns+` FROM users`+w.String()+` ORDER BY created_at DESC, id`+limit, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	list := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *u)
	}
	return list, total, rows.Err()
}
