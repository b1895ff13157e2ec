package auth

import (
	"github.com/pharmacare-app/pharmacare-backend/internal/users"
	"github.com/pharmacare-app/pharmacare-backend/pkg/enums"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the token and user produced by a successful login.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	User        *users.UserDTO `json:"user"`
}

// RegisterRequest creates a staff or client account.
type RegisterRequest struct {
	Name     string         `json:"name" validate:"required,min=2,max=120"`
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required,min=10"`
	Role     enums.UserRole `json:"role" validate:"required"`
}
