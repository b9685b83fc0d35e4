package auth

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Mayank7Bisnewar/Tenant/internal/models"
	"github.com/Mayank7Bisnewar/Tenant/internal/storage"
)

// Ensure StoreAccounts implements AccountStorage
var _ AccountStorage = (*StoreAccounts)(nil)

// StoreAccounts keeps every local account in one storage slot, keyed by email.
type StoreAccounts struct {
	mu   sync.Mutex
	slot *storage.Slot[map[string]models.Account]
}

// NewStoreAccounts creates account storage on store.
func NewStoreAccounts(store storage.Store, logger *slog.Logger) *StoreAccounts {
	return &StoreAccounts{
		slot: storage.NewSlot(store, storage.KeyAccounts,
			func() map[string]models.Account { return map[string]models.Account{} },
			storage.JSONCodec[map[string]models.Account](), logger),
	}
}

// CreateAccount stores a new account. The email must not be taken.
func (s *StoreAccounts) CreateAccount(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := s.slot.Read(ctx)
	if accounts == nil {
		accounts = map[string]models.Account{}
	}
	if _, ok := accounts[account.Email]; ok {
		return ErrEmailExists
	}
	accounts[account.Email] = *account
	return s.slot.Write(ctx, accounts)
}

// GetAccountByEmail returns the account or ErrAccountNotFound.
func (s *StoreAccounts) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.slot.Read(ctx)[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return &account, nil
}

// GetAccountByID returns the account or ErrAccountNotFound.
func (s *StoreAccounts) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, account := range s.slot.Read(ctx) {
		if account.ID == id {
			return &account, nil
		}
	}
	return nil, ErrAccountNotFound
}
