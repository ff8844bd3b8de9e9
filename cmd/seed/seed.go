package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/MikeMC777/foodapp/internal/auth"
	"github.com/MikeMC777/foodapp/internal/restaurant"
	"github.com/MikeMC777/foodapp/internal/user"
)

type seedFile struct {
	Users       []seedUser       `yaml:"users"`
	Restaurants []seedRestaurant `yaml:"restaurants"`
}

type seedUser struct {
	Name     string    `yaml:"name"`
	Email    string    `yaml:"email"`
	Password string    `yaml:"password"`
	Role     auth.Role `yaml:"role"`
	Phone    string    `yaml:"phone"`
}

type seedRestaurant struct {
	Name         string          `yaml:"name"`
	Description  string          `yaml:"description"`
	Address      string          `yaml:"address"`
	Phone        string          `yaml:"phone"`
	Cuisine      string          `yaml:"cuisine"`
	DeliveryTime string          `yaml:"delivery_time"`
	Rating       decimal.Decimal `yaml:"rating"`
	Image        string          `yaml:"image"`
	// Email of a seeded restaurant_owner; empty leaves the restaurant ownerless.
	Owner string         `yaml:"owner"`
	Menu  []seedMenuItem `yaml:"menu"`
}

type seedMenuItem struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Price       decimal.Decimal `yaml:"price"`
	Category    string          `yaml:"category"`
	Image       string          `yaml:"image"`
	// Defaults to true.
	Available *bool `yaml:"available"`
}

// parseSeed decodes and validates a seed document. Unknown keys are errors.
func parseSeed(r io.Reader) (*seedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f seedFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	emails := map[string]auth.Role{}
	for i, u := range f.Users {
		if u.Name == "" || u.Email == "" || u.Password == "" {
			return nil, fmt.Errorf("users[%d]: name, email and password are required", i)
		}
		if !u.Role.Valid() {
			return nil, fmt.Errorf("users[%d]: unknown role %q", i, u.Role)
		}
		emails[strings.ToLower(u.Email)] = u.Role
	}
	for i, rs := range f.Restaurants {
		if rs.Name == "" || rs.Address == "" {
			return nil, fmt.Errorf("restaurants[%d]: name and address are required", i)
		}
		if rs.Owner != "" && emails[strings.ToLower(rs.Owner)] != auth.RoleRestaurantOwner {
			return nil, fmt.Errorf("restaurants[%d]: owner %q is not a seeded restaurant_owner", i, rs.Owner)
		}
		for j, m := range rs.Menu {
			if m.Name == "" || m.Price.IsNegative() {
				return nil, fmt.Errorf("restaurants[%d].menu[%d]: name and a non-negative price are required", i, j)
			}
		}
	}
	return &f, nil
}

// apply inserts the seed. Users that already exist are reused and
// restaurants already listed under the same name are skipped, so running it
// twice is harmless.
func apply(ctx context.Context, users user.Repository, restaurants restaurant.Repository, f *seedFile) error {
	ids := map[string]string{}
	for _, su := range f.Users {
		email := strings.ToLower(su.Email)
		hash, err := auth.HashPassword(su.Password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", email, err)
		}
		u := &user.User{
			ID:           uuid.NewString(),
			Name:         su.Name,
			Email:        email,
			PasswordHash: hash,
			Role:         su.Role,
			Phone:        su.Phone,
		}
		err = users.Create(ctx, u)
		if errors.Is(err, user.ErrAlreadyExist) {
			existing, err := users.GetByEmail(ctx, email)
			if err != nil {
				return fmt.Errorf("lookup %s: %w", email, err)
			}
			ids[email] = existing.ID
			log.Printf("[seed] user %s exists", email)
			continue
		}
		if err != nil {
			return fmt.Errorf("create user %s: %w", email, err)
		}
		ids[email] = u.ID
		log.Printf("[seed] user %s role=%s", email, su.Role)
	}

	active, err := restaurants.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list restaurants: %w", err)
	}
	seen := map[string]bool{}
	for _, rs := range active {
		seen[rs.Name] = true
	}

	for _, sr := range f.Restaurants {
		if seen[sr.Name] {
			log.Printf("[seed] restaurant %q exists, skipped", sr.Name)
			continue
		}
		rs := &restaurant.Restaurant{
			ID:           uuid.NewString(),
			Name:         sr.Name,
			Description:  sr.Description,
			Address:      sr.Address,
			Phone:        sr.Phone,
			Cuisine:      sr.Cuisine,
			DeliveryTime: sr.DeliveryTime,
			Rating:       sr.Rating,
			Image:        sr.Image,
			OwnerID:      ids[strings.ToLower(sr.Owner)],
			IsActive:     true,
		}
		if err := restaurants.Create(ctx, rs); err != nil {
			return fmt.Errorf("create restaurant %q: %w", sr.Name, err)
		}
		for _, sm := range sr.Menu {
			m := &restaurant.MenuItem{
				ID:           uuid.NewString(),
				RestaurantID: rs.ID,
				Name:         sm.Name,
				Description:  sm.Description,
				Price:        sm.Price.Round(2),
				Category:     sm.Category,
				Image:        sm.Image,
				IsAvailable:  sm.Available == nil || *sm.Available,
			}
			if err := restaurants.CreateMenuItem(ctx, m); err != nil {
				return fmt.Errorf("create menu item %q: %w", sm.Name, err)
			}
		}
		log.Printf("[seed] restaurant %q with %d menu items", sr.Name, len(sr.Menu))
	}
	return nil
}
