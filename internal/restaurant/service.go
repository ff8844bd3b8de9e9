package restaurant

import (
	"context"
	"errors"
	"fmt"

	"github.com/MikeMC777/foodapp/internal/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

// ListActive returns the restaurants currently taking orders.
func (s *Service) ListActive(ctx context.Context) ([]Restaurant, error) {
	out, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	return out, nil
}

// Detail returns a restaurant with the menu items that can be ordered now.
func (s *Service) Detail(ctx context.Context, id string) (*DetailResponse, error) {
	rs, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	menu, err := s.repo.Menu(ctx, id, true)
	if err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}
	return &DetailResponse{Restaurant: rs, Menu: menu}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Restaurant, error) {
	rs, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("Restaurant not found")
		}
		return nil, fmt.Errorf("get restaurant: %w", err)
	}
	return rs, nil
}
