package auth

import (
	"github.com/subtrackr/subtrackr-backend/internal/users"
)

// RegisterRequest provisions a tenant together with its owner account.
type RegisterRequest struct {
	TenantName string `json:"tenant_name" validate:"required,min=2,max=120"`
	FullName   string `json:"full_name" validate:"required,min=2,max=120"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=10,max=128"`
}

// LoginRequest carries user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest rotates a refresh session.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenPair is returned on login, register and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginResponse carries the issued tokens plus the user profile.
type LoginResponse struct {
	TokenPair
	User users.Profile `json:"user"`
}

// RegisterResponse mirrors LoginResponse for a freshly provisioned tenant.
type RegisterResponse struct {
	TokenPair
	User users.Profile `json:"user"`
}
