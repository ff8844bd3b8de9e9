package user

import (
	"time"

	"github.com/MikeMC777/foodapp/internal/auth"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         auth.Role `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) Actor() auth.Actor {
	return auth.Actor{UserID: u.ID, Role: u.Role, Name: u.Name}
}

// RegisterRequest payload for self sign-up.
// swagger:model RegisterRequest
type RegisterRequest struct {
	Name     string `json:"name"     example:"Chan Tai Man"`
	Email    string `json:"email"    example:"tai.man@example.com"`
	Password string `json:"password" example:"s3cret-pass"`
	Phone    string `json:"phone"    example:"(852) 2384 5678"`
}

// LoginRequest payload.
// swagger:model LoginRequest
type LoginRequest struct {
	Email    string `json:"email"    example:"tai.man@example.com"`
	Password string `json:"password" example:"s3cret-pass"`
}

// AuthResponse carries the access token and the user it belongs to.
// swagger:model AuthResponse
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
