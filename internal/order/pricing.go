package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/foodapp/internal/apperr"
	"github.com/MikeMC777/foodapp/internal/restaurant"
)

// AmountTolerance is the largest accepted difference between the client's
// total and the total computed from menu prices.
var AmountTolerance = decimal.RequireFromString("0.01")

// Draft is a validated order that has not been persisted yet.
type Draft struct {
	Restaurant      *restaurant.Restaurant
	Items           []Item
	Total           decimal.Decimal
	DeliveryAddress string
}

// Pricer re-prices an order request from the authoritative menu.
type Pricer struct {
	ext *Ext
}

func NewPricer(ext *Ext) *Pricer { return &Pricer{ext: ext} }

// Price validates req and returns the draft priced at current menu prices.
// It reads from the catalog only.
func (p *Pricer) Price(ctx context.Context, req CreateOrderRequest) (*Draft, error) {
	address := strings.TrimSpace(req.DeliveryAddress)
	if strings.TrimSpace(req.RestaurantID) == "" || req.Items == nil || req.TotalAmount == nil || address == "" {
		return nil, apperr.InvalidInput("Please provide restaurant, items, totalAmount, and deliveryAddress")
	}
	if len(req.Items) == 0 {
		return nil, apperr.InvalidInput("Items must be a non-empty array")
	}

	rs, err := p.ext.FetchRestaurant(ctx, req.RestaurantID)
	if err != nil {
		return nil, fmt.Errorf("fetch restaurant: %w", err)
	}
	if rs == nil {
		return nil, apperr.NotFound("Restaurant not found")
	}
	if !rs.IsActive {
		return nil, apperr.InvalidInput("Restaurant is not accepting orders")
	}

	draft := &Draft{
		Restaurant:      rs,
		Items:           make([]Item, 0, len(req.Items)),
		DeliveryAddress: address,
	}
	for _, it := range req.Items {
		if strings.TrimSpace(it.MenuItemID) == "" {
			return nil, apperr.InvalidInput("Each item must reference a menuItem")
		}
		m, err := p.ext.FetchMenuItem(ctx, it.MenuItemID)
		if err != nil {
			return nil, fmt.Errorf("fetch menu item: %w", err)
		}
		if m == nil || m.RestaurantID != rs.ID {
			return nil, apperr.NotFound(fmt.Sprintf("Menu item %s not found", it.MenuItemID))
		}
		if it.Quantity < 1 {
			return nil, apperr.InvalidInput("Invalid quantity for menu item")
		}
		if !m.IsAvailable {
			return nil, apperr.InvalidInput(fmt.Sprintf("Menu item %s is not available", m.Name))
		}
		draft.Items = append(draft.Items, Item{
			MenuItemID: m.ID,
			Name:       m.Name,
			Quantity:   it.Quantity,
			Price:      m.Price,
		})
	}
	draft.Total = Total(draft.Items)

	if draft.Total.Sub(*req.TotalAmount).Abs().GreaterThan(AmountTolerance) {
		return nil, apperr.AmountMismatch("Total amount does not match calculated total")
	}
	return draft, nil
}

// Total sums price × quantity over items.
func Total(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum.Round(2)
}
