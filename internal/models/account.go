package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is the landlord's local sign-in identity.
// Its ID is the owner identifier that scopes the remote tenant document.
type Account struct {
	// ID is the unique identifier for the owner (UUID format).
	ID string `json:"id"`

	// Email is the sign-in name (unique).
	Email string `json:"email"`

	// DisplayName is shown in CLI status output.
	DisplayName string `json:"displayName"`

	// PasswordHash is the bcrypt hash of the account password.
	PasswordHash string `json:"passwordHash"`

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64 `json:"createdAt"`

	// UpdatedAt is the Unix timestamp of the last change.
	UpdatedAt int64 `json:"updatedAt"`
}

// NewAccount creates an account with a fresh owner ID.
func NewAccount(email, displayName, passwordHash string) *Account {
	now := time.Now().Unix()
	return &Account{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
