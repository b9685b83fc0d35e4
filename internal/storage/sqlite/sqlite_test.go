package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Mayank7Bisnewar/Tenant/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("Get missing key returns ErrNotFound", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Put then Get round trips", func(t *testing.T) {
		if err := store.Put(ctx, "owner", []byte(`{"name":"Ravi"}`)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, err := store.Get(ctx, "owner")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got) != `{"name":"Ravi"}` {
			t.Errorf("Value mismatch: got %s", got)
		}
	})

	t.Run("Put overwrites the whole value", func(t *testing.T) {
		store.Put(ctx, "url", []byte("https://a.example"))
		store.Put(ctx, "url", []byte("b"))

		got, err := store.Get(ctx, "url")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got) != "b" {
			t.Errorf("Expected overwritten value 'b', got %q", got)
		}
	})

	t.Run("Delete removes key and tolerates missing keys", func(t *testing.T) {
		store.Put(ctx, "gone", []byte("x"))
		if err := store.Delete(ctx, "gone"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := store.Get(ctx, "gone"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
		if err := store.Delete(ctx, "never-existed"); err != nil {
			t.Errorf("Delete of missing key failed: %v", err)
		}
	})
}

func TestLegacyKeyMigration(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	legacy := []byte(`[{"id":"t1","name":"Asha","monthlyRent":5000,"waterBill":300}]`)
	if err := store.Put(ctx, storage.LegacyKeyTenants, legacy); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	moved, err := storage.MigrateKey(ctx, store, storage.LegacyKeyTenants, storage.KeyTenants)
	if err != nil {
		t.Fatalf("MigrateKey failed: %v", err)
	}
	if !moved {
		t.Fatal("Expected legacy key to be migrated")
	}

	if _, err := store.Get(ctx, storage.LegacyKeyTenants); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected legacy key to be removed, got %v", err)
	}

	// The migrated legacy array decodes with every record active.
	tenants := storage.NewTenantsSlot(store, nil).Read(ctx)
	if len(tenants) != 1 {
		t.Fatalf("Expected 1 tenant, got %d", len(tenants))
	}
	if tenants[0].Status != "active" {
		t.Errorf("Expected legacy tenant to be active, got %q", tenants[0].Status)
	}

	// Second run is a no-op.
	moved, err = storage.MigrateKey(ctx, store, storage.LegacyKeyTenants, storage.KeyTenants)
	if err != nil {
		t.Fatalf("MigrateKey failed: %v", err)
	}
	if moved {
		t.Error("Expected second migration to be a no-op")
	}
}

func TestLegacyKeyMigrationKeepsCurrentData(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.Put(ctx, storage.LegacyKeyOwner, []byte(`{"name":"old"}`))
	store.Put(ctx, storage.KeyOwner, []byte(`{"name":"new"}`))

	moved, err := storage.MigrateKey(ctx, store, storage.LegacyKeyOwner, storage.KeyOwner)
	if err != nil {
		t.Fatalf("MigrateKey failed: %v", err)
	}
	if moved {
		t.Error("Expected no migration when current key exists")
	}

	got, _ := store.Get(ctx, storage.KeyOwner)
	if string(got) != `{"name":"new"}` {
		t.Errorf("Current value was overwritten: %s", got)
	}
}
