// Package redis implements remote.Directory on Redis.
//
// Each owner's document lives under one string key. Save overwrites the key
// and publishes the new document on a per-owner channel; Watch reads the key
// once and then follows the channel.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/Mayank7Bisnewar/Tenant/internal/models"
	"github.com/Mayank7Bisnewar/Tenant/internal/remote"
)

// Ensure Directory implements remote.Directory
var _ remote.Directory = (*Directory)(nil)

// Directory implements remote.Directory for Redis.
type Directory struct {
	client *redis.Client
	logger *slog.Logger
	prefix string
}

// NewDirectory creates a Redis-backed directory. prefix namespaces the keys
// and channels (e.g., "rentmate").
func NewDirectory(client *redis.Client, logger *slog.Logger, prefix string) *Directory {
	return &Directory{
		client: client,
		logger: logger,
		prefix: prefix,
	}
}

func (d *Directory) documentKey(ownerID string) string {
	return fmt.Sprintf("%s:owners:%s:document", d.prefix, ownerID)
}

func (d *Directory) channel(ownerID string) string {
	return fmt.Sprintf("%s:owners:%s:changes", d.prefix, ownerID)
}

// Save overwrites the owner's document and announces the change.
func (d *Directory) Save(ctx context.Context, ownerID string, tenants []models.Tenant) error {
	if ownerID == "" {
		return remote.ErrNoOwner
	}

	raw, err := remote.EncodeDocument(tenants)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	pipe := d.client.TxPipeline()
	pipe.Set(ctx, d.documentKey(ownerID), raw, 0)
	pipe.Publish(ctx, d.channel(ownerID), raw)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save document for owner %s: %w", ownerID, err)
	}
	return nil
}

// Watch subscribes before reading the current document so no change between
// the two is lost.
func (d *Directory) Watch(ctx context.Context, ownerID string) (<-chan []models.Tenant, error) {
	if ownerID == "" {
		return nil, remote.ErrNoOwner
	}

	sub := d.client.Subscribe(ctx, d.channel(ownerID))
	// Wait for the subscription confirmation.
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to subscribe for owner %s: %w", ownerID, err)
	}

	initial, err := d.load(ctx, ownerID)
	if err != nil {
		sub.Close()
		return nil, err
	}

	out := make(chan []models.Tenant, 1)
	remote.Deliver(out, initial)

	go func() {
		defer close(out)
		defer sub.Close()

		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				tenants, err := remote.DecodeDocument([]byte(msg.Payload))
				if err != nil {
					d.logger.Warn("Ignoring malformed remote document", "owner_id", ownerID, "error", err)
					continue
				}
				remote.Deliver(out, tenants)
			}
		}
	}()

	return out, nil
}

func (d *Directory) load(ctx context.Context, ownerID string) ([]models.Tenant, error) {
	raw, err := d.client.Get(ctx, d.documentKey(ownerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []models.Tenant{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document for owner %s: %w", ownerID, err)
	}
	return remote.DecodeDocument(raw)
}
