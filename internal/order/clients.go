package order

import (
	"context"
	"errors"

	"github.com/MikeMC777/foodapp/internal/auth"
	"github.com/MikeMC777/foodapp/internal/restaurant"
	"github.com/MikeMC777/foodapp/internal/user"
)

// Catalog is the read side of restaurants and menus that orders depend on.
// restaurant.Repository satisfies it.
type Catalog interface {
	GetByID(ctx context.Context, id string) (*restaurant.Restaurant, error)
	GetMenuItem(ctx context.Context, id string) (*restaurant.MenuItem, error)
}

// Users resolves the people an order can be assigned to.
type Users interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// Ext groups the collaborators owned by other packages.
type Ext struct {
	Catalog Catalog
	Users   Users
}

func NewExt(catalog Catalog, users Users) *Ext {
	return &Ext{Catalog: catalog, Users: users}
}

// FetchRestaurant returns nil, nil when the restaurant does not exist.
func (e *Ext) FetchRestaurant(ctx context.Context, id string) (*restaurant.Restaurant, error) {
	rs, err := e.Catalog.GetByID(ctx, id)
	if errors.Is(err, restaurant.ErrNotFound) {
		return nil, nil
	}
	return rs, err
}

// FetchMenuItem returns nil, nil when the menu item does not exist.
func (e *Ext) FetchMenuItem(ctx context.Context, id string) (*restaurant.MenuItem, error) {
	m, err := e.Catalog.GetMenuItem(ctx, id)
	if errors.Is(err, restaurant.ErrMenuItemNotFound) {
		return nil, nil
	}
	return m, err
}

// ValidateDeliveryPerson returns the user behind id, or nil when there is
// none. isDelivery reports whether that user has the delivery_person role.
func (e *Ext) ValidateDeliveryPerson(ctx context.Context, id string) (u *user.User, isDelivery bool, err error) {
	u, err = e.Users.GetByID(ctx, id)
	if errors.Is(err, user.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return u, u.Role == auth.RoleDeliveryPerson, nil
}
