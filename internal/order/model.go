package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/foodapp/internal/restaurant"
)

type Status string

const (
	StatusPlaced         Status = "placed"
	StatusConfirmed      Status = "confirmed"
	StatusPreparing      Status = "preparing"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusPlaced, StatusConfirmed, StatusPreparing, StatusOutForDelivery, StatusDelivered, StatusCancelled,
}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func (s Status) Cancellable() bool {
	return s == StatusPlaced || s == StatusConfirmed
}

type Order struct {
	ID              string              `json:"id"`
	CustomerID      string              `json:"customer_id"`
	RestaurantID    string              `json:"restaurant_id"`
	Restaurant      *restaurant.Summary `json:"restaurant,omitempty"`
	Items           []Item              `json:"items"`
	TotalAmount     decimal.Decimal     `json:"total_amount" swaggertype:"string"`
	DeliveryAddress string              `json:"delivery_address"`
	Status          Status              `json:"status"`
	AssignedTo      string              `json:"assigned_to,omitempty"`
	CancelledBy     string              `json:"cancelled_by,omitempty"`
	CancelledAt     *time.Time          `json:"cancelled_at,omitempty"`
	DeliveredAt     *time.Time          `json:"delivered_at,omitempty"`
	// Incremented by every write; writes carrying a stale version are rejected.
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item is a line of an order. Name and Price are snapshots taken when the
// order was placed and never follow later menu changes.
type Item struct {
	ID         string          `json:"id"`
	OrderID    string          `json:"order_id"`
	MenuItemID string          `json:"menu_item_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price" swaggertype:"string"`
}

// StatusChange is one entry of an order's audit trail.
type StatusChange struct {
	OrderID    string    `json:"order_id"`
	FromStatus Status    `json:"from_status,omitempty"`
	ToStatus   Status    `json:"to_status"`
	ChangedBy  string    `json:"changed_by"`
	ChangedAt  time.Time `json:"changed_at"`
}
