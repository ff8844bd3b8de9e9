package order

import (
	"context"
	"time"
)

const (
	EventCreated       = "order_created"
	EventStatusUpdated = "order_status_updated"
	EventAssigned      = "order_assigned"
	EventCancelled     = "order_cancelled"
)

// Event describes a committed lifecycle change for live subscribers.
type Event struct {
	Type         string    `json:"type"`
	OrderID      string    `json:"orderId"`
	RestaurantID string    `json:"restaurantId,omitempty"`
	Status       Status    `json:"status"`
	Message      string    `json:"message"`
	AssignedTo   string    `json:"assignedTo,omitempty"`
	UpdatedBy    string    `json:"updatedBy,omitempty"`
	CancelledBy  string    `json:"cancelledBy,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
	// Rooms the event is published to.
	Rooms []string `json:"-"`
}

// Notifier receives events after the order write has been committed.
// Delivery is best-effort; the lifecycle never waits on or retries it.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

func OrderRoom(orderID string) string { return "order_" + orderID }

func RestaurantRoom(restaurantID string) string { return "restaurant_" + restaurantID }

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) error { return nil }
