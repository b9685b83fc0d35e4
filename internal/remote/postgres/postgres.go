// Package postgres implements remote.Directory on PostgreSQL.
//
// Documents are rows of owner_documents. Save upserts the row and raises a
// NOTIFY carrying the owner ID; Watch keeps a pq.Listener on the channel and
// re-reads the row for every notification addressed to its owner.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/Mayank7Bisnewar/Tenant/internal/models"
	"github.com/Mayank7Bisnewar/Tenant/internal/remote"
)

// Ensure Directory implements remote.Directory
var _ remote.Directory = (*Directory)(nil)

const notifyChannel = "owner_documents_changed"

const schema = `
CREATE TABLE IF NOT EXISTS owner_documents (
    owner_id TEXT PRIMARY KEY,
    document JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Directory implements remote.Directory for PostgreSQL.
type Directory struct {
	db      *sql.DB
	connStr string
	logger  *slog.Logger
}

// Open connects to PostgreSQL and ensures the table exists.
func Open(ctx context.Context, connStr string, logger *slog.Logger) (*Directory, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create owner_documents: %w", err)
	}
	return New(db, connStr, logger), nil
}

// New wraps an open pool whose schema is already in place. connStr is used
// by Watch to open a dedicated listener connection.
func New(db *sql.DB, connStr string, logger *slog.Logger) *Directory {
	return &Directory{db: db, connStr: connStr, logger: logger}
}

// Close closes the connection pool.
func (d *Directory) Close() error {
	return d.db.Close()
}

// Save overwrites the owner's document and notifies listeners in one transaction.
func (d *Directory) Save(ctx context.Context, ownerID string, tenants []models.Tenant) error {
	if ownerID == "" {
		return remote.ErrNoOwner
	}

	raw, err := remote.EncodeDocument(tenants)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO owner_documents (owner_id, document, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (owner_id) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		ownerID, string(raw),
	)
	if err != nil {
		return fmt.Errorf("failed to save document for owner %s: %w", ownerID, err)
	}

	if _, err := tx.ExecContext(ctx, "SELECT pg_notify($1, $2)", notifyChannel, ownerID); err != nil {
		return fmt.Errorf("failed to notify for owner %s: %w", ownerID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Watch listens for changes to the owner's document until ctx is done.
func (d *Directory) Watch(ctx context.Context, ownerID string) (<-chan []models.Tenant, error) {
	if ownerID == "" {
		return nil, remote.ErrNoOwner
	}

	listener := pq.NewListener(d.connStr, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			d.logger.Warn("Postgres listener event", "event", ev, "error", err)
		}
	})
	if err := listener.Listen(notifyChannel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", notifyChannel, err)
	}

	initial, err := d.load(ctx, ownerID)
	if err != nil {
		listener.Close()
		return nil, err
	}

	out := make(chan []models.Tenant, 1)
	remote.Deliver(out, initial)

	go func() {
		defer close(out)
		defer listener.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-listener.Notify:
				if !ok {
					return
				}
				if !affects(n, ownerID) {
					continue
				}
				tenants, err := d.load(ctx, ownerID)
				if err != nil {
					d.logger.Warn("Failed to reload remote document", "owner_id", ownerID, "error", err)
					continue
				}
				remote.Deliver(out, tenants)
			case <-time.After(90 * time.Second):
				go listener.Ping()
			}
		}
	}()

	return out, nil
}

// affects reports whether a notification may have changed the owner's
// document. A nil notification means the connection was re-established and
// changes may have been missed.
func affects(n *pq.Notification, ownerID string) bool {
	return n == nil || n.Extra == ownerID
}

func (d *Directory) load(ctx context.Context, ownerID string) ([]models.Tenant, error) {
	var raw []byte
	err := d.db.QueryRowContext(ctx,
		"SELECT document FROM owner_documents WHERE owner_id = $1", ownerID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []models.Tenant{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document for owner %s: %w", ownerID, err)
	}
	return remote.DecodeDocument(raw)
}
