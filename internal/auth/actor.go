// Package auth issues and verifies access tokens and describes the
// authenticated actor passed explicitly into every domain call.
package auth

type Role string

const (
	RoleCustomer        Role = "customer"
	RoleRestaurantOwner Role = "restaurant_owner"
	RoleDeliveryPerson  Role = "delivery_person"
	RoleAdmin           Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleRestaurantOwner, RoleDeliveryPerson, RoleAdmin:
		return true
	}
	return false
}

// Actor is the authenticated caller of a request.
type Actor struct {
	UserID string `json:"id"`
	Role   Role   `json:"role"`
	Name   string `json:"name,omitempty"`
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
