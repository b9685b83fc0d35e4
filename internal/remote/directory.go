// Package remote defines the per-owner remote tenant directory and its document format.
package remote

import (
	"context"
	"errors"

	"github.com/Mayank7Bisnewar/Tenant/internal/models"
)

// ErrNoOwner is returned when an operation is attempted without an owner ID.
var ErrNoOwner = errors.New("owner id required")

// Directory is a keyed remote document store holding one tenant collection per owner.
type Directory interface {
	// Watch streams the owner's full tenant collection every time the remote
	// document changes. The first value is the current document; a missing
	// document is delivered as an empty collection. The channel is closed
	// when ctx is done, which is how callers unsubscribe.
	Watch(ctx context.Context, ownerID string) (<-chan []models.Tenant, error)

	// Save overwrites the owner's whole document with the tenant collection.
	// Fields other than the tenants, such as a billingState blob, are dropped.
	Save(ctx context.Context, ownerID string, tenants []models.Tenant) error
}

// Deliver sends the latest snapshot on a watcher channel, replacing one that
// was never consumed. Only the most recent collection matters to a watcher.
// ch must have a buffer of at least one and a single sender.
func Deliver(ch chan []models.Tenant, tenants []models.Tenant) {
	for {
		select {
		case ch <- tenants:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
