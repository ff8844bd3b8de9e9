// Package restaurant provides restaurants and their menus: the PostgreSQL
// repository, and the read service used by the browsing endpoints and by
// order pricing.
package restaurant

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound         = errors.New("restaurant not found")
	ErrMenuItemNotFound = errors.New("menu item not found")
)

type Repository interface {
	Create(ctx context.Context, r *Restaurant) error
	GetByID(ctx context.Context, id string) (*Restaurant, error)
	ListActive(ctx context.Context) ([]Restaurant, error)
	CreateMenuItem(ctx context.Context, m *MenuItem) error
	GetMenuItem(ctx context.Context, id string) (*MenuItem, error)
	Menu(ctx context.Context, restaurantID string, onlyAvailable bool) ([]MenuItem, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const restaurantColumns = `id, name, description, address, phone, cuisine, delivery_time,
	rating::text, image, COALESCE(owner_id::text, ''), is_active, created_at, updated_at`

const menuColumns = `id, restaurant_id, name, description, price::text, category, image,
	is_available, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, rs *Restaurant) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.db.QueryRow(ctx, `
		INSERT INTO restaurants (id, name, description, address, phone, cuisine, delivery_time,
		                         rating, image, owner_id, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NULLIF($10,'')::uuid,$11,NOW(),NOW())
		RETURNING created_at, updated_at
	`, rs.ID, rs.Name, rs.Description, rs.Address, rs.Phone, rs.Cuisine, rs.DeliveryTime,
		rs.Rating.String(), rs.Image, rs.OwnerID, rs.IsActive).Scan(&rs.CreatedAt, &rs.UpdatedAt)
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Restaurant, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rs, err := scanRestaurant(r.db.QueryRow(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rs, err
}

func (r *PGRepo) ListActive(ctx context.Context) ([]Restaurant, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+restaurantColumns+`
		FROM restaurants WHERE is_active
		ORDER BY rating DESC, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Restaurant{}
	for rows.Next() {
		rs, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rs)
	}
	return out, rows.Err()
}

func (r *PGRepo) CreateMenuItem(ctx context.Context, m *MenuItem) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.db.QueryRow(ctx, `
		INSERT INTO menu_items (id, restaurant_id, name, description, price, category, image,
		                        is_available, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW())
		RETURNING created_at, updated_at
	`, m.ID, m.RestaurantID, m.Name, m.Description, m.Price.StringFixed(2), m.Category, m.Image,
		m.IsAvailable).Scan(&m.CreatedAt, &m.UpdatedAt)
}

func (r *PGRepo) GetMenuItem(ctx context.Context, id string) (*MenuItem, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	m, err := scanMenuItem(r.db.QueryRow(ctx, `SELECT `+menuColumns+` FROM menu_items WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMenuItemNotFound
	}
	return m, err
}

func (r *PGRepo) Menu(ctx context.Context, restaurantID string, onlyAvailable bool) ([]MenuItem, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+menuColumns+`
		FROM menu_items
		WHERE restaurant_id=$1 AND (NOT $2 OR is_available)
		ORDER BY category, name
	`, restaurantID, onlyAvailable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []MenuItem{}
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func scanRestaurant(row pgx.Row) (*Restaurant, error) {
	var rs Restaurant
	var rating string
	if err := row.Scan(&rs.ID, &rs.Name, &rs.Description, &rs.Address, &rs.Phone, &rs.Cuisine,
		&rs.DeliveryTime, &rating, &rs.Image, &rs.OwnerID, &rs.IsActive, &rs.CreatedAt, &rs.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if rs.Rating, err = decimal.NewFromString(rating); err != nil {
		return nil, err
	}
	return &rs, nil
}

func scanMenuItem(row pgx.Row) (*MenuItem, error) {
	var m MenuItem
	var price string
	if err := row.Scan(&m.ID, &m.RestaurantID, &m.Name, &m.Description, &price, &m.Category,
		&m.Image, &m.IsAvailable, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if m.Price, err = decimal.NewFromString(price); err != nil {
		return nil, err
	}
	return &m, nil
}
