package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tablekit/backend/internal/models"
	"github.com/tablekit/backend/internal/store"
	"github.com/tablekit/backend/pkg/database"
)

type inquiryRepo struct {
	q database.DBTX
}

const inquiryColumns = `id, restaurant_name, number_of_outlets, email, phone, name, description, created_at, updated_at`

func scanInquiry(row pgx.Row) (*models.Inquiry, error) {
	var in models.Inquiry
	err := row.Scan(&in.ID, &in.RestaurantName, &in.NumberOfOutlets, &in.Email, &in.Phone, &in.Name, &in.Description,
		&in.CreatedAt, &in.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

func (r *inquiryRepo) Create(ctx context.Context, in *models.Inquiry) error {
	in.Email = store.NormalizeEmail(in.Email)
	const q = `INSERT INTO inquiries (id, restaurant_name, number_of_outlets, email, phone, name, description)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	err := r.q.QueryRow(ctx, q, in.RestaurantName, in.NumberOfOutlets, in.Email, in.Phone, in.Name, in.Description).
		Scan(&in.ID, &in.CreatedAt, &in.UpdatedAt)
	if database.IsUniqueViolation(err, "inquiries_email_key") {
		return store.ErrDuplicateEmail
	}
	return err
}

func (r *inquiryRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Inquiry, error) {
	in, err := scanInquiry(r.q.QueryRow(ctx, `SELECT `+inquiryColumns+` FROM inquiries WHERE id = $1`, id))
	return in, notFound(err)
}

func (r *inquiryRepo) EmailTaken(ctx context.Context, email string) (bool, error) {
	var taken bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM inquiries WHERE email = $1)`, store.NormalizeEmail(email)).Scan(&taken)
	return taken, err
}

func (r *inquiryRepo) List(ctx context.Context, p store.Page) ([]models.Inquiry, int, error) {
	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM inquiries`).Scan(&total); err != nil {
		return nil, 0, err
	}
	p = p.Normalize()
	rows, err := r.q.Query(ctx, `SELECT `+inquiryColumns+` FROM inquiries ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	list := []models.Inquiry{}
	for rows.Next() {
		in, err := scanInquiry(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *in)
	}
	return list, total, rows.Err()
}
