package restaurant

import (
	"time"

	"github.com/shopspring/decimal"
)

type Restaurant struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Address      string          `json:"address"`
	Phone        string          `json:"phone,omitempty"`
	Cuisine      string          `json:"cuisine,omitempty"`
	DeliveryTime string          `json:"delivery_time"`
	Rating       decimal.Decimal `json:"rating" swaggertype:"string"`
	Image        string          `json:"image,omitempty"`
	// Empty when the restaurant has no owner of record.
	OwnerID   string    `json:"owner_id,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary is the slice of a restaurant embedded in order responses.
type Summary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone,omitempty"`
	Image   string `json:"image,omitempty"`
	Cuisine string `json:"cuisine,omitempty"`
}

func (r *Restaurant) Summary() *Summary {
	return &Summary{ID: r.ID, Name: r.Name, Address: r.Address, Phone: r.Phone, Image: r.Image, Cuisine: r.Cuisine}
}

type MenuItem struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurant_id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	// Authoritative price; orders snapshot it at creation time.
	Price       decimal.Decimal `json:"price" swaggertype:"string"`
	Category    string          `json:"category"`
	Image       string          `json:"image,omitempty"`
	IsAvailable bool            `json:"is_available"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// DetailResponse is a restaurant with its currently available menu.
// swagger:model RestaurantDetail
type DetailResponse struct {
	Restaurant *Restaurant `json:"restaurant"`
	Menu       []MenuItem  `json:"menu"`
}
