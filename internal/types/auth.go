package types

import "github.com/golang-jwt/jwt/v5"

// Claims is the payload of an access token.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Response represents a generic API response for success or error messages.
type Response struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty" example:"Todo deleted"`
	Error   string `json:"error,omitempty" example:"Todo not found"`
}
