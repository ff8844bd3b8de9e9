package order

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrStaleVersion means the order changed since it was read.
	ErrStaleVersion = errors.New("order version is stale")
)

type Repository interface {
	// Create stores o, its items and the first history entry atomically.
	Create(ctx context.Context, o *Order, h StatusChange) error
	GetByID(ctx context.Context, id string) (*Order, error)
	// Update writes o if the stored version still equals o.Version, then
	// bumps o.Version. h, when non-nil, is appended to the history.
	Update(ctx context.Context, o *Order, h *StatusChange) error
	ListByCustomer(ctx context.Context, customerID string) ([]Order, error)
	ListByRestaurant(ctx context.Context, restaurantID string) ([]Order, error)
	ListByAssignee(ctx context.Context, userID string) ([]Order, error)
	List(ctx context.Context, status Status, limit, offset int) ([]Order, int, error)
	History(ctx context.Context, orderID string) ([]StatusChange, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const orderColumns = `id, customer_id, restaurant_id, total_amount::text, delivery_address, status,
	COALESCE(assigned_to::text, ''), COALESCE(cancelled_by::text, ''), cancelled_at, delivered_at,
	version, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, o *Order, h StatusChange) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.QueryRow(ctx, `
		INSERT INTO orders (id, customer_id, restaurant_id, total_amount, delivery_address, status,
		                    version, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,1,NOW(),NOW())
		RETURNING version, created_at, updated_at
	`, o.ID, o.CustomerID, o.RestaurantID, o.TotalAmount.StringFixed(2), o.DeliveryAddress, string(o.Status),
	).Scan(&o.Version, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return err
	}

	for i, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, line_no, menu_item_id, name, quantity, price)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, it.ID, o.ID, i, it.MenuItemID, it.Name, it.Quantity, it.Price.StringFixed(2)); err != nil {
			return err
		}
	}
	if err := insertHistory(ctx, tx, h); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	byOrder, err := r.itemsFor(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = byOrder[o.ID]
	return o, nil
}

func (r *PGRepo) Update(ctx context.Context, o *Order, h *StatusChange) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		UPDATE orders
		SET status = $2,
		    assigned_to = NULLIF($3, '')::uuid,
		    cancelled_by = NULLIF($4, '')::uuid,
		    cancelled_at = $5,
		    delivered_at = $6,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1 AND version = $7
		RETURNING version, updated_at
	`, o.ID, string(o.Status), o.AssignedTo, o.CancelledBy, o.CancelledAt, o.DeliveredAt, o.Version,
	).Scan(&o.Version, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id=$1)`, o.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrStaleVersion
	}
	if err != nil {
		return err
	}
	if h != nil {
		if err := insertHistory(ctx, tx, *h); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	return r.listWhere(ctx, `customer_id = $1`, customerID)
}

func (r *PGRepo) ListByRestaurant(ctx context.Context, restaurantID string) ([]Order, error) {
	return r.listWhere(ctx, `restaurant_id = $1`, restaurantID)
}

func (r *PGRepo) ListByAssignee(ctx context.Context, userID string) ([]Order, error) {
	return r.listWhere(ctx, `assigned_to = $1`, userID)
}

func (r *PGRepo) List(ctx context.Context, status Status, limit, offset int) ([]Order, int, error) {
	switch {
	case limit <= 0:
		limit = 10
	case limit > maxPageSize:
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var total int
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM orders WHERE ($1 = '' OR status = $1)
	`, string(status)).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, string(status), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out, err := r.collect(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *PGRepo) History(ctx context.Context, orderID string) ([]StatusChange, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT order_id, from_status, to_status, changed_by, changed_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY changed_at, id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []StatusChange{}
	for rows.Next() {
		var h StatusChange
		var from, to string
		if err := rows.Scan(&h.OrderID, &from, &to, &h.ChangedBy, &h.ChangedAt); err != nil {
			return nil, err
		}
		h.FromStatus, h.ToStatus = Status(from), Status(to)
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *PGRepo) listWhere(ctx context.Context, where string, arg string) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders WHERE `+where+`
		ORDER BY created_at DESC
	`, arg)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

// collect scans rows (closing them) and attaches the items of every order.
func (r *PGRepo) collect(ctx context.Context, rows pgx.Rows) ([]Order, error) {
	out := []Order{}
	ids := []string{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, *o)
		ids = append(ids, o.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	byOrder, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = byOrder[out[i].ID]
	}
	return out, nil
}

func (r *PGRepo) itemsFor(ctx context.Context, orderIDs []string) (map[string][]Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, menu_item_id, name, quantity, price::text
		FROM order_items
		WHERE order_id = ANY($1::text[]::uuid[])
		ORDER BY order_id, line_no
	`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byOrder := make(map[string][]Item, len(orderIDs))
	for rows.Next() {
		var it Item
		var price string
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name, &it.Quantity, &price); err != nil {
			return nil, err
		}
		if it.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	return byOrder, rows.Err()
}

func insertHistory(ctx context.Context, tx pgx.Tx, h StatusChange) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO order_status_history (order_id, from_status, to_status, changed_by, changed_at)
		VALUES ($1,$2,$3,$4,NOW())
	`, h.OrderID, string(h.FromStatus), string(h.ToStatus), h.ChangedBy)
	return err
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var total, status string
	if err := row.Scan(&o.ID, &o.CustomerID, &o.RestaurantID, &total, &o.DeliveryAddress, &status,
		&o.AssignedTo, &o.CancelledBy, &o.CancelledAt, &o.DeliveredAt,
		&o.Version, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, err
	}
	o.Status = Status(status)
	return &o, nil
}
