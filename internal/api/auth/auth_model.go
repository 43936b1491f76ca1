package auth

import "github.com/FACorreiaa/go-todo-api/internal/types"

type SignupRequest struct {
	Name     string `json:"name" example:"Ada"`
	Email    string `json:"email" example:"ada@example.com"`
	Password string `json:"password" example:"s3cret"`
}

type LoginRequest struct {
	Email    string `json:"email" example:"ada@example.com"`
	Password string `json:"password" example:"s3cret"`
}

type LoginResponse struct {
	Token string           `json:"token"`
	User  types.PublicUser `json:"user"`
}

// UserResponse wraps the public user for signup and /auth/me.
type UserResponse struct {
	User types.PublicUser `json:"user"`
}
