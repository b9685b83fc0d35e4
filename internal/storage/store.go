// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNotFound is returned by Store.Get when the key has never been written.
var ErrNotFound = errors.New("key not found")

// Keys of the local slots.
const (
	KeyTenants      = "tenant_manager_tenants"
	KeyOwner        = "tenant_manager_owner"
	KeyBillingState = "tenant_manager_billing_state"
	KeySheetsURL    = "rent_manager_script_url"
	KeySession      = "tenant_manager_session"
	KeyAccounts     = "tenant_manager_accounts"

	// Legacy names still found in older databases. rentmate_tenants is
	// renamed so every slot shares the tenant_manager_ prefix.
	LegacyKeyTenants = "rentmate_tenants"
	LegacyKeyOwner   = "rentmate_owner"
)

// LegacyKeys maps each legacy key to its current name.
var LegacyKeys = map[string]string{
	LegacyKeyTenants: KeyTenants,
	LegacyKeyOwner:   KeyOwner,
}

// Store defines a durable key/value store.
// Every Put fully overwrites the value for the key; there is no partial merge.
// This abstraction allows swapping storage backends without changing callers.
type Store interface {
	// Get returns the stored value or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put overwrites the value stored under key.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}

// MigrateKey moves a legacy key to its current name. It does nothing when the
// legacy key is absent or the current key already holds data.
func MigrateKey(ctx context.Context, s Store, legacy, current string) (bool, error) {
	value, err := s.Get(ctx, legacy)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read legacy key %s: %w", legacy, err)
	}

	_, err = s.Get(ctx, current)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, ErrNotFound):
		return false, fmt.Errorf("failed to read key %s: %w", current, err)
	}

	if err := s.Put(ctx, current, value); err != nil {
		return false, fmt.Errorf("failed to copy %s to %s: %w", legacy, current, err)
	}
	if err := s.Delete(ctx, legacy); err != nil {
		return false, fmt.Errorf("failed to remove legacy key %s: %w", legacy, err)
	}
	return true, nil
}

// MigrateLegacyKeys runs MigrateKey for every entry in LegacyKeys.
func MigrateLegacyKeys(ctx context.Context, s Store, logger *slog.Logger) error {
	for legacy, current := range LegacyKeys {
		moved, err := MigrateKey(ctx, s, legacy, current)
		if err != nil {
			return err
		}
		if moved {
			logger.Info("Migrated legacy storage key", "from", legacy, "to", current)
		}
	}
	return nil
}
