// Package auth provides local owner accounts and signed session tokens.
// The account ID is the owner identifier that scopes the remote document.
package auth

import (
	"context"

	"github.com/Mayank7Bisnewar/Tenant/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping the local password store for a hosted
// identity provider without changing the callers.
type Authenticator interface {
	// Register creates a new account with the given email and credential.
	Register(ctx context.Context, email, displayName, credential string) (*models.Account, error)

	// Authenticate verifies the credentials and returns the account.
	Authenticate(ctx context.Context, email, credential string) (*models.Account, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
