// Package memory is an in-process implementation of store.DB.
//
// Transactions copy the whole data set, run against the copy and swap it in on commit,
// so a failed unit of work leaves nothing behind. Transactions are serialized; code
// running inside WithTx must use the store it is handed, never the DB itself.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tablekit/backend/internal/models"
	"github.com/tablekit/backend/internal/store"
)

type data struct {
	users       map[uuid.UUID]*models.User
	restaurants map[uuid.UUID]*models.Restaurant
	outlets     map[uuid.UUID]*models.Outlet
	inquiries   map[uuid.UUID]*models.Inquiry
}

func newData() *data {
	return &data{
		users:       make(map[uuid.UUID]*models.User),
		restaurants: make(map[uuid.UUID]*models.Restaurant),
		outlets:     make(map[uuid.UUID]*models.Outlet),
		inquiries:   make(map[uuid.UUID]*models.Inquiry),
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.users {
		c.users[k] = v.Clone()
	}
	for k, v := range d.restaurants {
		r := *v
		c.restaurants[k] = &r
	}
	for k, v := range d.outlets {
		o := *v
		c.outlets[k] = &o
	}
	for k, v := range d.inquiries {
		i := *v
		c.inquiries[k] = &i
	}
	return c
}

// DB is the in-memory store.
type DB struct {
	mu   sync.Mutex
	data *data
	now  func() time.Time
}

// New returns an empty in-memory store.
func New() *DB {
	return &DB{data: newData(), now: func() time.Time { return time.Now().UTC() }}
}

// session runs repository operations either against the committed data (locking per
// call) or against a transaction's private copy.
type session struct {
	db *DB
	tx *data
}

func (s *session) run(fn func(d *data) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return fn(s.db.data)
}

func (s *session) now() time.Time { return s.db.now() }

func (db *DB) root() *session { return &session{db: db} }

func (db *DB) Users() store.UserRepository             { return &userRepo{s: db.root()} }
func (db *DB) Restaurants() store.RestaurantRepository { return &restaurantRepo{s: db.root()} }
func (db *DB) Outlets() store.OutletRepository         { return &outletRepo{s: db.root()} }
func (db *DB) Inquiries() store.InquiryRepository      { return &inquiryRepo{s: db.root()} }

// WithTx runs fn against a private copy and publishes it only if fn succeeds.
func (db *DB) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := db.data.clone()
	if err := fn(&txStore{s: &session{db: db, tx: work}}); err != nil {
		return err
	}
	db.data = work
	return nil
}

type txStore struct{ s *session }

func (t *txStore) Users() store.UserRepository             { return &userRepo{s: t.s} }
func (t *txStore) Restaurants() store.RestaurantRepository { return &restaurantRepo{s: t.s} }
func (t *txStore) Outlets() store.OutletRepository         { return &outletRepo{s: t.s} }
func (t *txStore) Inquiries() store.InquiryRepository      { return &inquiryRepo{s: t.s} }

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func window[T any](items []T, p store.Page) []T {
	p = p.Normalize()
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// newestFirst orders by creation time, breaking ties by id so listings are stable.
func newestFirst(a, b time.Time, ida, idb uuid.UUID) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return ida.String() < idb.String()
}

type userRepo struct{ s *session }

func (r *userRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	var out *models.User
	err := r.s.run(func(d *data) error {
		u, ok := d.users[id]
		if !ok || u.IsDeleted {
			return store.ErrNotFound
		}
		out = u.Clone()
		return nil
	})
	return out, err
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	email = store.NormalizeEmail(email)
	var out *models.User
	err := r.s.run(func(d *data) error {
		for _, u := range d.users {
			if u.Email == email && !u.IsDeleted {
				out = u.Clone()
				return nil
			}
		}
		return store.ErrNotFound
	})
	return out, err
}

func (r *userRepo) EmailTaken(_ context.Context, email string, except *uuid.UUID) (bool, error) {
	email = store.NormalizeEmail(email)
	taken := false
	err := r.s.run(func(d *data) error {
		taken = emailInUse(d, email, except)
		return nil
	})
	return taken, err
}

func emailInUse(d *data, email string, except *uuid.UUID) bool {
	for _, u := range d.users {
		if except != nil && u.ID == *except {
			continue
		}
		if u.Email == email {
			return true
		}
	}
	return false
}

func (r *userRepo) Create(_ context.Context, u *models.User) error {
	if err := store.PrepareUser(u); err != nil {
		return err
	}
	return r.s.run(func(d *data) error {
		if emailInUse(d, u.Email, nil) {
			return store.ErrDuplicateEmail
		}
		now := r.s.now()
		u.ID = uuid.New()
		u.CreatedAt, u.UpdatedAt = now, now
		d.users[u.ID] = u.Clone()
		return nil
	})
}

func (r *userRepo) Update(_ context.Context, u *models.User) error {
	u.Email = store.NormalizeEmail(u.Email)
	return r.s.run(func(d *data) error {
		cur, ok := d.users[u.ID]
		if !ok || cur.IsDeleted {
			return store.ErrNotFound
		}
		if emailInUse(d, u.Email, &u.ID) {
			return store.ErrDuplicateEmail
		}
		next := u.Clone()
		next.Password = cur.Password
		next.CreatedAt = cur.CreatedAt
		next.UpdatedAt = r.s.now()
		d.users[u.ID] = next
		u.UpdatedAt = next.UpdatedAt
		return nil
	})
}

func (r *userRepo) SetPassword(_ context.Context, id uuid.UUID, password string) error {
	tmp := &models.User{Password: password}
	if err := store.PrepareUser(tmp); err != nil {
		return err
	}
	return r.s.run(func(d *data) error {
		u, ok := d.users[id]
		if !ok || u.IsDeleted {
			return store.ErrNotFound
		}
		u.Password = tmp.Password
		u.UpdatedAt = r.s.now()
		return nil
	})
}

func (r *userRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	return r.s.run(func(d *data) error {
		u, ok := d.users[id]
		if !ok || u.IsDeleted {
			return store.ErrNotFound
		}
		u.IsDeleted = true
		u.UpdatedAt = r.s.now()
		return nil
	})
}

func (r *userRepo) List(_ context.Context, f store.UserFilter) ([]models.User, int, error) {
	var out []models.User
	total := 0
	err := r.s.run(func(d *data) error {
		var matched []models.User
		for _, u := range d.users {
			if u.IsDeleted {
				continue
			}
			if f.RestaurantID != nil && !models.SameID(u.RestaurantID, f.RestaurantID) {
				continue
			}
			if f.OutletID != nil && !models.SameID(u.OutletID, f.OutletID) {
				continue
			}
			if f.IsActive != nil && u.IsActive != *f.IsActive {
				continue
			}
			if f.Search != "" && !containsFold(u.Name, f.Search) && !containsFold(u.Email, f.Search) && !containsFold(u.Phone, f.Search) {
				continue
			}
			matched = append(matched, *u.Clone())
		}
		sort.Slice(matched, func(i, j int) bool {
			return newestFirst(matched[i].CreatedAt, matched[j].CreatedAt, matched[i].ID, matched[j].ID)
		})
		total = len(matched)
		out = window(matched, f.Page)
		return nil
	})
	return out, total, err
}

type restaurantRepo struct{ s *session }

func (r *restaurantRepo) Create(_ context.Context, rest *models.Restaurant) error {
	return r.s.run(func(d *data) error {
		now := r.s.now()
		rest.ID = uuid.New()
		rest.CreatedAt, rest.UpdatedAt = now, now
		cp := *rest
		d.restaurants[rest.ID] = &cp
		return nil
	})
}

func (r *restaurantRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Restaurant, error) {
	var out *models.Restaurant
	err := r.s.run(func(d *data) error {
		rest, ok := d.restaurants[id]
		if !ok || rest.IsDeleted {
			return store.ErrNotFound
		}
		cp := *rest
		out = &cp
		return nil
	})
	return out, err
}

func (r *restaurantRepo) Update(_ context.Context, rest *models.Restaurant) error {
	return r.s.run(func(d *data) error {
		cur, ok := d.restaurants[rest.ID]
		if !ok || cur.IsDeleted {
			return store.ErrNotFound
		}
		rest.CreatedAt = cur.CreatedAt
		rest.UpdatedAt = r.s.now()
		cp := *rest
		d.restaurants[rest.ID] = &cp
		return nil
	})
}

func (r *restaurantRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	return r.s.run(func(d *data) error {
		rest, ok := d.restaurants[id]
		if !ok || rest.IsDeleted {
			return store.ErrNotFound
		}
		rest.IsDeleted = true
		rest.UpdatedAt = r.s.now()
		return nil
	})
}

func (r *restaurantRepo) List(_ context.Context, f store.RestaurantFilter) ([]models.Restaurant, int, error) {
	var out []models.Restaurant
	total := 0
	err := r.s.run(func(d *data) error {
		var matched []models.Restaurant
		for _, rest := range d.restaurants {
			if rest.IsDeleted {
				continue
			}
			if f.IsActive != nil && rest.IsActive != *f.IsActive {
				continue
			}
			if f.Search != "" && !containsFold(rest.Name, f.Search) {
				continue
			}
			matched = append(matched, *rest)
		}
		sort.Slice(matched, func(i, j int) bool {
			return newestFirst(matched[i].CreatedAt, matched[j].CreatedAt, matched[i].ID, matched[j].ID)
		})
		total = len(matched)
		out = window(matched, f.Page)
		return nil
	})
	return out, total, err
}

type outletRepo struct{ s *session }

func (r *outletRepo) Create(_ context.Context, o *models.Outlet) error {
	return r.s.run(func(d *data) error {
		if _, ok := d.restaurants[o.RestaurantID]; !ok {
			return store.ErrNotFound
		}
		now := r.s.now()
		o.ID = uuid.New()
		o.CreatedAt, o.UpdatedAt = now, now
		cp := *o
		cp.Restaurant = nil
		d.outlets[o.ID] = &cp
		o.Restaurant = d.restaurants[o.RestaurantID].Summary()
		return nil
	})
}

func (r *outletRepo) GetByID(_ context.Context, id uuid.UUID, restaurantID *uuid.UUID) (*models.Outlet, error) {
	var out *models.Outlet
	err := r.s.run(func(d *data) error {
		o, ok := d.outlets[id]
		if !ok || o.IsDeleted {
			return store.ErrNotFound
		}
		if restaurantID != nil && o.RestaurantID != *restaurantID {
			return store.ErrNotFound
		}
		out = withRestaurant(d, o)
		return nil
	})
	return out, err
}

func withRestaurant(d *data, o *models.Outlet) *models.Outlet {
	cp := *o
	if rest, ok := d.restaurants[o.RestaurantID]; ok {
		cp.Restaurant = rest.Summary()
	}
	return &cp
}

func (r *outletRepo) Update(_ context.Context, o *models.Outlet) error {
	return r.s.run(func(d *data) error {
		cur, ok := d.outlets[o.ID]
		if !ok || cur.IsDeleted {
			return store.ErrNotFound
		}
		o.CreatedAt = cur.CreatedAt
		o.UpdatedAt = r.s.now()
		cp := *o
		cp.Restaurant = nil
		d.outlets[o.ID] = &cp
		if rest, ok := d.restaurants[o.RestaurantID]; ok {
			o.Restaurant = rest.Summary()
		}
		return nil
	})
}

func (r *outletRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	return r.s.run(func(d *data) error {
		o, ok := d.outlets[id]
		if !ok || o.IsDeleted {
			return store.ErrNotFound
		}
		o.IsDeleted = true
		o.UpdatedAt = r.s.now()
		return nil
	})
}

func (r *outletRepo) List(_ context.Context, f store.OutletFilter) ([]models.Outlet, int, error) {
	var out []models.Outlet
	total := 0
	err := r.s.run(func(d *data) error {
		var matched []models.Outlet
		for _, o := range d.outlets {
			if o.IsDeleted {
				continue
			}
			if f.RestaurantID != nil && o.RestaurantID != *f.RestaurantID {
				continue
			}
			if f.IsActive != nil && o.IsActive != *f.IsActive {
				continue
			}
			if f.Search != "" && !containsFold(o.Name, f.Search) && !containsFold(o.Address, f.Search) && !containsFold(o.City, f.Search) {
				continue
			}
			matched = append(matched, *withRestaurant(d, o))
		}
		sort.Slice(matched, func(i, j int) bool {
			return newestFirst(matched[i].CreatedAt, matched[j].CreatedAt, matched[i].ID, matched[j].ID)
		})
		total = len(matched)
		out = window(matched, f.Page)
		return nil
	})
	return out, total, err
}

type inquiryRepo struct{ s *session }

func (r *inquiryRepo) Create(_ context.Context, in *models.Inquiry) error {
	in.Email = store.NormalizeEmail(in.Email)
	return r.s.run(func(d *data) error {
		for _, existing := range d.inquiries {
			if existing.Email == in.Email {
				return store.ErrDuplicateEmail
			}
		}
		now := r.s.now()
		in.ID = uuid.New()
		in.CreatedAt, in.UpdatedAt = now, now
		cp := *in
		d.inquiries[in.ID] = &cp
		return nil
	})
}

func (r *inquiryRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Inquiry, error) {
	var out *models.Inquiry
	err := r.s.run(func(d *data) error {
		in, ok := d.inquiries[id]
		if !ok {
			return store.ErrNotFound
		}
		cp := *in
		out = &cp
		return nil
	})
	return out, err
}

func (r *inquiryRepo) EmailTaken(_ context.Context, email string) (bool, error) {
	email = store.NormalizeEmail(email)
	taken := false
	err := r.s.run(func(d *data) error {
		for _, in := range d.inquiries {
			if in.Email == email {
				taken = true
				break
			}
		}
		return nil
	})
	return taken, err
}

func (r *inquiryRepo) List(_ context.Context, p store.Page) ([]models.Inquiry, int, error) {
	var out []models.Inquiry
	total := 0
	err := r.s.run(func(d *data) error {
		all := make([]models.Inquiry, 0, len(d.inquiries))
		for _, in := range d.inquiries {
			all = append(all, *in)
		}
		sort.Slice(all, func(i, j int) bool {
			return newestFirst(all[i].CreatedAt, all[j].CreatedAt, all[i].ID, all[j].ID)
		})
		total = len(all)
		out = window(all, p)
		return nil
	})
	return out, total, err
}
