// Package postgres implements store.DB on PostgreSQL through pgx.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tablekit/backend/internal/store"
	"github.com/tablekit/backend/pkg/database"
)

// DB is the pgx-backed store.
type DB struct {
	pool *pgxpool.Pool
	conn
}

// New wraps pool as a store.DB.
func New(pool *pgxpool.Pool) *DB {
	return &DB{pool: pool, conn: conn{q: pool}}
}

// WithTx runs fn inside a database transaction. pgx.BeginFunc commits when fn returns
// nil and rolls back on error or panic.
func (db *DB) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	return pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		return fn(&conn{q: tx})
	})
}

// conn binds the repositories to one query surface: the pool or an open transaction.
type conn struct {
	q database.DBTX
}

func (c *conn) Users() store.UserRepository             { return &userRepo{q: c.q} }
func (c *conn) Restaurants() store.RestaurantRepository { return &restaurantRepo{q: c.q} }
func (c *conn) Outlets() store.OutletRepository         { return &outletRepo{q: c.q} }
func (c *conn) Inquiries() store.InquiryRepository      { return &inquiryRepo{q: c.q} }

// where accumulates AND-ed predicates with positional arguments.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, fmt.Sprintf(clause, len(w.args)))
}

func (w *where) raw(clause string) {
	w.clauses = append(w.clauses, clause)
}

// search adds an ILIKE over the given columns sharing one argument.
func (w *where) search(term string, cols ...string) {
	if term == "" {
		return
	}
	w.args = append(w.args, "%"+escapeLike(term)+"%")
	n := len(w.args)
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = fmt.Sprintf("%s ILIKE $%d", col, n)
	}
	w.clauses = append(w.clauses, "("+strings.Join(parts, " OR ")+")")
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// paginate appends LIMIT/OFFSET placeholders and returns the clause with the full args.
func (w *where) paginate(p store.Page) (string, []any) {
	p = p.Normalize()
	args := append(append([]any{}, w.args...), p.Limit, p.Offset())
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func notFound(err error) error {
	if database.IsNoRows(err) {
		return store.ErrNotFound
	}
	return err
}
