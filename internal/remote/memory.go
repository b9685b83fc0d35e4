package remote

import (
	"context"
	"sync"

	"github.com/Mayank7Bisnewar/Tenant/internal/models"
)

// Ensure Memory implements Directory
var _ Directory = (*Memory)(nil)

// Memory is an in-process Directory. Documents go through the same codec as
// the network backends so timestamp normalization behaves identically.
type Memory struct {
	mu       sync.Mutex
	docs     map[string][]byte
	watchers map[string]map[chan []models.Tenant]struct{}

	// saveErr, when set, is returned by Save without storing anything.
	saveErr error
	saves   int
}

// NewMemory creates an empty in-memory directory.
func NewMemory() *Memory {
	return &Memory{
		docs:     make(map[string][]byte),
		watchers: make(map[string]map[chan []models.Tenant]struct{}),
	}
}

// Watch streams the owner's collection until ctx is done.
func (m *Memory) Watch(ctx context.Context, ownerID string) (<-chan []models.Tenant, error) {
	if ownerID == "" {
		return nil, ErrNoOwner
	}

	ch := make(chan []models.Tenant, 1)

	m.mu.Lock()
	initial, err := DecodeDocument(m.docs[ownerID])
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	if m.watchers[ownerID] == nil {
		m.watchers[ownerID] = make(map[chan []models.Tenant]struct{})
	}
	m.watchers[ownerID][ch] = struct{}{}
	Deliver(ch, initial)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.watchers[ownerID], ch)
		close(ch)
		m.mu.Unlock()
	}()

	return ch, nil
}

// Save overwrites the owner's document and notifies every watcher.
func (m *Memory) Save(ctx context.Context, ownerID string, tenants []models.Tenant) error {
	if ownerID == "" {
		return ErrNoOwner
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := EncodeDocument(tenants)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.docs[ownerID] = raw

	for ch := range m.watchers[ownerID] {
		snapshot, err := DecodeDocument(raw)
		if err != nil {
			return err
		}
		Deliver(ch, snapshot)
	}
	return nil
}

// Document returns the decoded collection currently stored for the owner.
func (m *Memory) Document(ownerID string) []models.Tenant {
	m.mu.Lock()
	defer m.mu.Unlock()
	tenants, _ := DecodeDocument(m.docs[ownerID])
	return tenants
}

// Saves reports how many successful Save calls were made.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// SetSaveErr makes every following Save fail with err. Pass nil to reset.
func (m *Memory) SetSaveErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}
