package drafts

import (
	"context"
	"log/slog"

	"github.com/Mayank7Bisnewar/Tenant/internal/models"
	"github.com/Mayank7Bisnewar/Tenant/internal/storage"
)

// StateSlot is the local slot holding every tenant's draft.
type StateSlot = storage.Slot[map[string]models.BillingDraft]

// NewStateSlot creates the draft slot on store.
func NewStateSlot(store storage.Store, logger *slog.Logger) *StateSlot {
	return storage.NewSlot(store, storage.KeyBillingState,
		func() map[string]models.BillingDraft { return map[string]models.BillingDraft{} },
		storage.JSONCodec[map[string]models.BillingDraft](), logger)
}

// Load replaces the drafts with the slot's contents.
func (s *Store) Load(ctx context.Context, slot *StateSlot) {
	s.Restore(slot.Read(ctx))
}

// Save writes every draft to the slot.
func (s *Store) Save(ctx context.Context, slot *StateSlot) error {
	return slot.Write(ctx, s.Snapshot())
}
