package order

import "github.com/shopspring/decimal"

// CreateOrderItem is one requested line of an order.
// swagger:model CreateOrderItem
type CreateOrderItem struct {
	MenuItemID string `json:"menuItem" example:"4e7d4e5c-5cb9-4a3f-9f21-7e1a4f9f2b2a"`
	Quantity   int    `json:"quantity" example:"2"`
}

// CreateOrderRequest is the order placement payload. TotalAmount is what the
// client believes the order costs; it is checked against menu prices.
// swagger:model CreateOrderRequest
type CreateOrderRequest struct {
	RestaurantID    string            `json:"restaurant"      example:"b2f5ff47-2b1e-4f22-8a96-5f3c1f2f2e7b"`
	Items           []CreateOrderItem `json:"items"`
	TotalAmount     *decimal.Decimal  `json:"totalAmount"     swaggertype:"number" example:"25.00"`
	DeliveryAddress string            `json:"deliveryAddress" example:"18 Temple Street, Yau Ma Tei"`
}

// UpdateStatusRequest payload.
// swagger:model UpdateStatusRequest
type UpdateStatusRequest struct {
	Status Status `json:"status" example:"confirmed"`
}

// AssignRequest payload.
// swagger:model AssignRequest
type AssignRequest struct {
	DeliveryPersonID string `json:"deliveryPersonId" example:"0b8f3c8e-6d0c-4e51-9d0e-2b7f3a1c9e11"`
}

// CancelResponse is returned by the cancel endpoint.
// swagger:model CancelResponse
type CancelResponse struct {
	Message string `json:"message"`
	Order   *Order `json:"order"`
}

// ListFilter selects a page of orders for the admin listing.
type ListFilter struct {
	Status Status
	Page   int
	Limit  int
}

// ListResponse represents the paginated admin listing.
// swagger:model OrderListResponse
type ListResponse struct {
	Orders      []Order `json:"orders"`
	TotalPages  int     `json:"totalPages"`
	CurrentPage int     `json:"currentPage"`
	Total       int     `json:"total"`
}
