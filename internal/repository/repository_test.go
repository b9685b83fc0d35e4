package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Mayank7Bisnewar/Tenant/internal/models"
	"github.com/Mayank7Bisnewar/Tenant/internal/remote"
	"github.com/Mayank7Bisnewar/Tenant/internal/storage"
	"github.com/Mayank7Bisnewar/Tenant/internal/storage/sqlite"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newTestStore(t *testing.T) storage.Store {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestRepo(t *testing.T, store storage.Store, dir remote.Directory, opts ...Option) *Repository {
	t.Helper()

	var seq int
	opts = append([]Option{WithIDGenerator(func() string {
		seq++
		return fmt.Sprintf("tenant-%d", seq)
	})}, opts...)

	repo := New(context.Background(), store, dir, opts...)
	t.Cleanup(repo.Close)
	return repo
}

func addTenants(t *testing.T, repo *Repository, names ...string) []models.Tenant {
	t.Helper()

	var out []models.Tenant
	for i, name := range names {
		tenant, err := repo.Add(context.Background(), models.TenantFields{
			Name:         name,
			RoomNumber:   fmt.Sprintf("10%d", i+1),
			MobileNumber: "9876543210",
			MonthlyRent:  float64(4000 + i*500),
			WaterBill:    200,
		})
		if err != nil {
			t.Fatalf("Add(%s) failed: %v", name, err)
		}
		out = append(out, tenant)
	}
	return out
}

func signInAndSync(t *testing.T, repo *Repository, ownerID string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := repo.SignIn(ctx, ownerID); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if err := repo.AwaitSync(ctx); err != nil {
		t.Fatalf("AwaitSync failed: %v", err)
	}
}

func TestAddAndUpdateTimestamps(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)}
	repo := newTestRepo(t, newTestStore(t), nil, WithClock(clock.Now))

	tenant := addTenants(t, repo, "Asha")[0]
	if tenant.Status != models.StatusActive {
		t.Errorf("Status = %q, want active", tenant.Status)
	}
	if !tenant.CreatedAt.Equal(tenant.UpdatedAt) {
		t.Errorf("CreatedAt %v != UpdatedAt %v on add", tenant.CreatedAt, tenant.UpdatedAt)
	}

	tests := []struct {
		name string
		at   time.Time
	}{
		{name: "later clock", at: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{name: "clock behind creation", at: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.Set(tt.at)
			updated, found, err := repo.Update(ctx, tenant.ID, func(t *models.Tenant) {
				t.MonthlyRent += 100
			})
			if err != nil || !found {
				t.Fatalf("Update failed: found=%v err=%v", found, err)
			}
			if updated.UpdatedAt.Before(updated.CreatedAt) {
				t.Errorf("UpdatedAt %v before CreatedAt %v", updated.UpdatedAt, updated.CreatedAt)
			}
		})
	}
}

func TestUpdateKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, newTestStore(t), nil)
	tenant := addTenants(t, repo, "Asha")[0]

	updated, found, err := repo.Update(ctx, tenant.ID, func(t *models.Tenant) {
		t.ID = "hijacked"
		t.CreatedAt = time.Time{}
		t.Name = "Asha K"
	})
	if err != nil || !found {
		t.Fatalf("Update failed: found=%v err=%v", found, err)
	}
	if updated.ID != tenant.ID || !updated.CreatedAt.Equal(tenant.CreatedAt) {
		t.Errorf("Identity changed: %+v", updated)
	}
	if updated.Name != "Asha K" {
		t.Errorf("Name = %q, want %q", updated.Name, "Asha K")
	}
}

func TestUpdateMissingTenantIsNoop(t *testing.T) {
	repo := newTestRepo(t, newTestStore(t), nil)
	addTenants(t, repo, "Asha")

	called := false
	_, found, err := repo.Update(context.Background(), "missing", func(*models.Tenant) { called = true })
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if found || called {
		t.Errorf("Expected no-op, found=%v called=%v", found, called)
	}
}

func TestSoftDeleteLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, newTestStore(t), nil)
	tenants := addTenants(t, repo, "Asha", "Ravi")

	found, err := repo.Delete(ctx, tenants[0].ID)
	if err != nil || !found {
		t.Fatalf("Delete failed: found=%v err=%v", found, err)
	}

	active := repo.Active()
	if len(active) != 1 || active[0].ID != tenants[1].ID {
		t.Errorf("Active = %+v, want only %s", active, tenants[1].ID)
	}
	deleted := repo.Deleted()
	if len(deleted) != 1 || deleted[0].ID != tenants[0].ID {
		t.Fatalf("Deleted = %+v, want only %s", deleted, tenants[0].ID)
	}
	if deleted[0].DeletedAt == nil {
		t.Error("Expected DeletedAt to be set")
	}
	if len(repo.All()) != 2 {
		t.Errorf("Expected deleted tenant to be retained, got %d tenants", len(repo.All()))
	}

	t.Run("restore", func(t *testing.T) {
		found, err := repo.Restore(ctx, tenants[0].ID)
		if err != nil || !found {
			t.Fatalf("Restore failed: found=%v err=%v", found, err)
		}
		got, _ := repo.Get(tenants[0].ID)
		if !got.IsActive() || got.DeletedAt != nil {
			t.Errorf("Tenant not restored: %+v", got)
		}
		if len(repo.Active()) != 2 {
			t.Errorf("Expected 2 active tenants, got %d", len(repo.Active()))
		}
	})

	t.Run("permanent delete", func(t *testing.T) {
		found, err := repo.PermanentDelete(ctx, tenants[1].ID)
		if err != nil || !found {
			t.Fatalf("PermanentDelete failed: found=%v err=%v", found, err)
		}
		if _, ok := repo.Get(tenants[1].ID); ok {
			t.Error("Tenant still present after permanent delete")
		}
		if found, _ := repo.PermanentDelete(ctx, tenants[1].ID); found {
			t.Error("Second permanent delete should report not found")
		}
	})
}

func TestReorderPreservesContent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, newTestStore(t), nil)
	tenants := addTenants(t, repo, "Asha", "Ravi", "Meena")

	before := map[string]models.Tenant{}
	for _, tenant := range repo.All() {
		before[tenant.ID] = tenant
	}

	// Stale content in the argument must not leak into the collection.
	stale := tenants[0]
	stale.Name = "Stale"
	if err := repo.Reorder(ctx, []models.Tenant{tenants[2], stale, tenants[1]}); err != nil {
		t.Fatalf("Reorder failed: %v", err)
	}

	got := repo.All()
	wantOrder := []string{tenants[2].ID, tenants[0].ID, tenants[1].ID}
	for i, tenant := range got {
		if tenant.ID != wantOrder[i] {
			t.Errorf("Position %d = %s, want %s", i, tenant.ID, wantOrder[i])
		}
		want := before[tenant.ID]
		if tenant.Name != want.Name || tenant.MonthlyRent != want.MonthlyRent ||
			!tenant.UpdatedAt.Equal(want.UpdatedAt) || tenant.RoomNumber != want.RoomNumber {
			t.Errorf("Tenant %s content changed: %+v vs %+v", tenant.ID, tenant, want)
		}
	}

	t.Run("partial list keeps missing tenants", func(t *testing.T) {
		if err := repo.Reorder(ctx, []models.Tenant{{ID: tenants[1].ID}, {ID: "unknown"}}); err != nil {
			t.Fatalf("Reorder failed: %v", err)
		}
		got := repo.All()
		if len(got) != 3 || got[0].ID != tenants[1].ID {
			t.Errorf("Unexpected order: %v", ids(got))
		}
	})
}

func TestLocalPersistence(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	repo := newTestRepo(t, store, nil)
	tenants := addTenants(t, repo, "Asha", "Ravi")
	repo.Delete(ctx, tenants[1].ID)

	reloaded := newTestRepo(t, store, nil)
	if len(reloaded.All()) != 2 {
		t.Fatalf("Expected 2 tenants after reload, got %d", len(reloaded.All()))
	}
	if len(reloaded.Active()) != 1 {
		t.Errorf("Expected soft delete to persist, got %d active", len(reloaded.Active()))
	}
}

func TestSeedUploadOnFirstSync(t *testing.T) {
	dir := remote.NewMemory()
	repo := newTestRepo(t, newTestStore(t), dir)
	addTenants(t, repo, "Asha", "Ravi", "Meena")

	signInAndSync(t, repo, "owner-1")
	repo.Flush()

	if repo.State() != StateSynced {
		t.Errorf("State = %v, want synced", repo.State())
	}
	doc := dir.Document("owner-1")
	if len(doc) != 3 {
		t.Fatalf("Expected 3 tenants seeded to remote, got %d", len(doc))
	}
	if len(repo.All()) != 3 {
		t.Errorf("Expected local tenants kept, got %d", len(repo.All()))
	}
}

func TestRemoteWinsWhenNonEmpty(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	dir := remote.NewMemory()
	remoteTenants := []models.Tenant{
		{ID: "r1", Name: "Remote One", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), UpdatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "r2", Name: "Remote Two", Status: models.StatusDeleted, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), UpdatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
	}
	if err := dir.Save(ctx, "owner-1", remoteTenants); err != nil {
		t.Fatalf("Seeding remote failed: %v", err)
	}
	saves := dir.Saves()

	repo := newTestRepo(t, store, dir)
	addTenants(t, repo, "Local")

	signInAndSync(t, repo, "owner-1")
	repo.Flush()

	got := repo.All()
	if len(got) != 2 || got[0].ID != "r1" || got[1].ID != "r2" {
		t.Fatalf("Expected remote collection, got %v", ids(got))
	}
	if got[0].Status != models.StatusActive {
		t.Errorf("Expected missing status normalized to active, got %q", got[0].Status)
	}
	if dir.Saves() != saves {
		t.Errorf("Expected no push on initial sync, got %d saves", dir.Saves()-saves)
	}

	reloaded := newTestRepo(t, store, nil)
	if len(reloaded.All()) != 2 {
		t.Errorf("Expected remote snapshot written through locally, got %v", ids(reloaded.All()))
	}
}

func TestSyncedMutationsPush(t *testing.T) {
	dir := remote.NewMemory()
	repo := newTestRepo(t, newTestStore(t), dir)

	signInAndSync(t, repo, "owner-1")
	tenant := addTenants(t, repo, "Asha")[0]
	repo.Flush()

	doc := dir.Document("owner-1")
	if len(doc) != 1 || doc[0].ID != tenant.ID {
		t.Errorf("Expected pushed tenant, got %v", ids(doc))
	}
}

func TestNoPushWithoutSession(t *testing.T) {
	ctx := context.Background()
	dir := remote.NewMemory()
	repo := newTestRepo(t, newTestStore(t), dir)

	addTenants(t, repo, "Asha")
	repo.Flush()
	if dir.Saves() != 0 {
		t.Fatalf("Expected no push while unauthenticated, got %d", dir.Saves())
	}

	signInAndSync(t, repo, "owner-1")
	repo.Flush()
	saves := dir.Saves()

	repo.SignOut()
	if repo.State() != StateUnauthenticated {
		t.Errorf("State = %v, want unauthenticated", repo.State())
	}
	addTenants(t, repo, "Ravi")
	repo.Delete(ctx, repo.All()[0].ID)
	repo.Flush()

	if dir.Saves() != saves {
		t.Errorf("Expected no push after sign out, got %d new saves", dir.Saves()-saves)
	}
	if len(repo.All()) != 2 {
		t.Errorf("Expected local mutations to continue, got %d tenants", len(repo.All()))
	}
}

func TestFailedPushIsNotRolledBack(t *testing.T) {
	dir := remote.NewMemory()

	var mu sync.Mutex
	var sinkErrs []error
	repo := newTestRepo(t, newTestStore(t), dir, WithErrorSink(func(err error) {
		mu.Lock()
		defer mu.Unlock()
		sinkErrs = append(sinkErrs, err)
	}))

	signInAndSync(t, repo, "owner-1")

	offline := errors.New("offline")
	dir.SetSaveErr(offline)
	tenant := addTenants(t, repo, "Asha")[0]
	repo.Flush()

	if _, ok := repo.Get(tenant.ID); !ok {
		t.Error("Local tenant rolled back after failed push")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(sinkErrs) != 1 || !errors.Is(sinkErrs[0], offline) {
		t.Errorf("Expected one wrapped push error, got %v", sinkErrs)
	}
}

func TestRemoteSnapshotReplacesState(t *testing.T) {
	ctx := context.Background()
	dir := remote.NewMemory()
	snapshots := make(chan []models.Tenant, 8)
	repo := newTestRepo(t, newTestStore(t), dir, WithSnapshotHook(func(tenants []models.Tenant) {
		snapshots <- tenants
	}))

	signInAndSync(t, repo, "owner-1")

	// Another device writes the document.
	other := []models.Tenant{{ID: "x1", Name: "From Tablet"}}
	if err := dir.Save(ctx, "owner-1", other); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-snapshots:
			if len(got) == 1 && got[0].ID == "x1" {
				if all := repo.All(); len(all) != 1 || all[0].Name != "From Tablet" {
					t.Errorf("Repository not replaced: %v", ids(all))
				}
				return
			}
		case <-deadline:
			t.Fatal("Timed out waiting for remote snapshot")
		}
	}
}

func TestSignInErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("no remote", func(t *testing.T) {
		repo := newTestRepo(t, newTestStore(t), nil)
		if err := repo.SignIn(ctx, "owner-1"); !errors.Is(err, ErrNoRemote) {
			t.Errorf("Expected ErrNoRemote, got %v", err)
		}
	})

	t.Run("empty owner", func(t *testing.T) {
		repo := newTestRepo(t, newTestStore(t), remote.NewMemory())
		if err := repo.SignIn(ctx, ""); !errors.Is(err, remote.ErrNoOwner) {
			t.Errorf("Expected ErrNoOwner, got %v", err)
		}
	})

	t.Run("await without session", func(t *testing.T) {
		repo := newTestRepo(t, newTestStore(t), remote.NewMemory())
		if err := repo.AwaitSync(ctx); !errors.Is(err, ErrNotSignedIn) {
			t.Errorf("Expected ErrNotSignedIn, got %v", err)
		}
	})
}

func TestSignInReplacesSession(t *testing.T) {
	ctx := context.Background()
	dir := remote.NewMemory()
	dir.Save(ctx, "owner-2", []models.Tenant{{ID: "b1", Name: "Second Owner"}})

	repo := newTestRepo(t, newTestStore(t), dir)
	signInAndSync(t, repo, "owner-1")
	signInAndSync(t, repo, "owner-2")

	if repo.OwnerID() != "owner-2" {
		t.Errorf("OwnerID = %q, want owner-2", repo.OwnerID())
	}

	// Changes to the first owner's document no longer reach this repository.
	dir.Save(ctx, "owner-1", []models.Tenant{{ID: "a1"}})
	time.Sleep(50 * time.Millisecond)

	all := repo.All()
	if len(all) != 1 || all[0].ID != "b1" {
		t.Errorf("Expected second owner's collection, got %v", ids(all))
	}
}

func ids(tenants []models.Tenant) []string {
	out := make([]string, len(tenants))
	for i, t := range tenants {
		out[i] = t.ID
	}
	return out
}

// slowDirectory delays one Save call so a later push could overtake it.
type slowDirectory struct {
	*remote.Memory

	mu    sync.Mutex
	calls int
	slow  int
	delay time.Duration
}

func (d *slowDirectory) Save(ctx context.Context, ownerID string, tenants []models.Tenant) error {
	d.mu.Lock()
	d.calls++
	call := d.calls
	d.mu.Unlock()

	if call == d.slow {
		time.Sleep(d.delay)
	}
	return d.Memory.Save(ctx, ownerID, tenants)
}

func TestPushesLandInIssueOrder(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, repo *Repository, first models.Tenant)
		check  func(tenants []models.Tenant) bool
		want   string
	}{
		{
			name: "later adds survive a slow earlier push",
			mutate: func(t *testing.T, repo *Repository, first models.Tenant) {
				addTenants(t, repo, "Asha", "Ravi")
			},
			check: func(tenants []models.Tenant) bool { return len(tenants) == 3 },
			want:  "3 tenants",
		},
		{
			name: "later update survives a slow earlier push",
			mutate: func(t *testing.T, repo *Repository, first models.Tenant) {
				ctx := context.Background()
				for _, name := range []string{"Meena Pending", "Meena Synced"} {
					if _, _, err := repo.Update(ctx, first.ID, func(tn *models.Tenant) { tn.Name = name }); err != nil {
						t.Fatalf("Update failed: %v", err)
					}
				}
			},
			check: func(tenants []models.Tenant) bool { return len(tenants) == 1 && tenants[0].Name == "Meena Synced" },
			want:  "name Meena Synced",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Save 1 is the seed push; save 2 is the first mutation.
			dir := &slowDirectory{Memory: remote.NewMemory(), slow: 2, delay: 200 * time.Millisecond}
			snapshots := make(chan []models.Tenant, 16)
			repo := newTestRepo(t, newTestStore(t), dir, WithSnapshotHook(func(tenants []models.Tenant) {
				snapshots <- tenants
			}))

			first := addTenants(t, repo, "Meena")[0]
			signInAndSync(t, repo, "owner-1")

			tt.mutate(t, repo, first)
			repo.Flush()

			if got := dir.Document("owner-1"); !tt.check(got) {
				t.Errorf("Remote has %v, want %s", ids(got), tt.want)
			}
			if got := repo.All(); !tt.check(got) {
				t.Errorf("Local has %v, want %s", ids(got), tt.want)
			}

			// Wait for the echo of the newest push; snapshots from before the
			// mutations may come first. Older echoes must not revert local state.
			deadline := time.After(2 * time.Second)
			for done := false; !done; {
				select {
				case got := <-snapshots:
					done = tt.check(got)
				case <-deadline:
					t.Fatal("Timed out waiting for the final echo")
				}
			}
			time.Sleep(50 * time.Millisecond)
			if got := repo.All(); !tt.check(got) {
				t.Errorf("Local reverted to %v, want %s", ids(got), tt.want)
			}
		})
	}
}
