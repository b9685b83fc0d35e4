// Package drafts keeps the uncommitted billing inputs of each tenant.
package drafts

import (
	"sync"
	"time"

	"github.com/Mayank7Bisnewar/Tenant/internal/models"
)

// Store holds one BillingDraft per tenant. Drafts of different tenants never
// affect each other. Safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	drafts map[string]models.BillingDraft
	now    func() time.Time
}

// New creates an empty draft store.
func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock creates a draft store that reads the current time from now.
func NewWithClock(now func() time.Time) *Store {
	return &Store{
		drafts: make(map[string]models.BillingDraft),
		now:    now,
	}
}

// Get returns the tenant's draft, or fresh defaults that are not stored.
func (s *Store) Get(tenantID string) models.BillingDraft {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.drafts[tenantID]; ok {
		return d
	}
	return models.NewBillingDraft(s.now())
}

// SetElectricityUnits sets the metered units. Negative input is stored as 0.
func (s *Store) SetElectricityUnits(tenantID string, units int) {
	s.update(tenantID, func(d *models.BillingDraft) {
		d.ElectricityUnits = max(units, 0)
	})
}

// SetExtraCharges sets the ad-hoc charges. Negative input is stored as 0.
func (s *Store) SetExtraCharges(tenantID string, amount float64) {
	s.update(tenantID, func(d *models.BillingDraft) {
		d.ExtraCharges = max(amount, 0)
	})
}

// SetBillingDate sets the date that decides the billing month.
func (s *Store) SetBillingDate(tenantID string, date time.Time) {
	s.update(tenantID, func(d *models.BillingDraft) {
		d.BillingDate = date
	})
}

// Reset restores the tenant's draft to defaults with a fresh date.
func (s *Store) Reset(tenantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[tenantID] = models.NewBillingDraft(s.now())
}

// Forget drops the tenant's draft entirely.
func (s *Store) Forget(tenantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, tenantID)
}

// Snapshot copies every stored draft.
func (s *Store) Snapshot() map[string]models.BillingDraft {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]models.BillingDraft, len(s.drafts))
	for id, d := range s.drafts {
		out[id] = d
	}
	return out
}

// Restore replaces all drafts, clamping any negative values.
func (s *Store) Restore(drafts map[string]models.BillingDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.drafts = make(map[string]models.BillingDraft, len(drafts))
	for id, d := range drafts {
		d.ElectricityUnits = max(d.ElectricityUnits, 0)
		d.ExtraCharges = max(d.ExtraCharges, 0)
		if d.BillingDate.IsZero() {
			d.BillingDate = s.now()
		}
		s.drafts[id] = d
	}
}

// update upserts one field, seeding a missing draft with defaults first.
func (s *Store) update(tenantID string, fn func(*models.BillingDraft)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[tenantID]
	if !ok {
		d = models.NewBillingDraft(s.now())
	}
	fn(&d)
	s.drafts[tenantID] = d
}
