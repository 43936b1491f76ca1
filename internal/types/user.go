package types

import "time"

// User is the stored identity and credential record.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // bcrypt hash, never serialised
	CreatedAt    time.Time `json:"created_at"`
}

// PublicUser is the only user shape returned by the API.
type PublicUser struct {
	ID    string `json:"id" example:"665f1c2a9b1e4a0d8c3b7f21"`
	Name  string `json:"name" example:"Ada"`
	Email string `json:"email" example:"ada@example.com"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}
