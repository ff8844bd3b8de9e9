package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/MikeMC777/foodapp/internal/apperr"
	"github.com/MikeMC777/foodapp/internal/auth"
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(a auth.Actor) (string, error)
}

type Service struct {
	repo   Repository
	tokens TokenIssuer
}

func NewService(repo Repository, tokens TokenIssuer) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Register creates a customer account and returns a token for it.
// Other roles are provisioned out of band (see cmd/seed).
func (s *Service) Register(ctx context.Context, in RegisterRequest) (*AuthResponse, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, apperr.InvalidInput("name, email and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.InvalidInput("invalid email address")
	}
	if len(in.Password) < 6 {
		return nil, apperr.InvalidInput("password must be at least 6 characters")
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		Role:         auth.RoleCustomer,
		Phone:        strings.TrimSpace(in.Phone),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrAlreadyExist) {
			return nil, apperr.Conflict("user already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.respond(u)
}

// Login checks credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, in LoginRequest) (*AuthResponse, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, apperr.InvalidInput("email and password are required")
	}
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.Unauthenticated("invalid credentials")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !auth.CheckPassword(u.PasswordHash, in.Password) {
		return nil, apperr.Unauthenticated("invalid credentials")
	}
	return s.respond(u)
}

// Get returns the profile of the given user.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Service) respond(u *User) (*AuthResponse, error) {
	tok, err := s.tokens.Issue(u.Actor())
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: tok, User: u}, nil
}
