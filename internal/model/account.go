package model

import "time"

// Account is a locally managed identity, used when the app runs without a hosted
// identity service. The ID doubles as the profile ID once a profile is saved.
//
// PasswordHash is a bcrypt hash and never leaves the server (json:"-").
type Account struct {
	ID           string    `json:"id"        db:"id"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
