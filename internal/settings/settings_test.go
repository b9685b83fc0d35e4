package settings

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/Mayank7Bisnewar/Tenant/internal/models"
	"github.com/Mayank7Bisnewar/Tenant/internal/storage"
	"github.com/Mayank7Bisnewar/Tenant/internal/storage/sqlite"
)

func newTestSettings(t *testing.T) (*Settings, storage.Store) {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return New(store, slog.Default()), store
}

func TestNormalizeOwner(t *testing.T) {
	tests := []struct {
		name string
		in   models.OwnerInfo
		want models.OwnerInfo
	}{
		{
			name: "strips formatting",
			in:   models.OwnerInfo{Name: " Ravi ", MobileNumber: "+91 98765-43210", UPIID: "ravi@upi "},
			want: models.OwnerInfo{Name: "Ravi", MobileNumber: "9198765432", UPIID: "ravi@upi"},
		},
		{
			name: "short number kept",
			in:   models.OwnerInfo{MobileNumber: "12345"},
			want: models.OwnerInfo{MobileNumber: "12345"},
		},
		{
			name: "empty",
			in:   models.OwnerInfo{},
			want: models.OwnerInfo{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeOwner(tt.in); got != tt.want {
				t.Errorf("NormalizeOwner = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestOwnerRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSettings(t)

	if !s.Owner(ctx).IsEmpty() {
		t.Fatal("Expected empty owner before first save")
	}
	if _, err := s.SetOwner(ctx, models.OwnerInfo{Name: "Ravi", MobileNumber: "98765 43210"}); err != nil {
		t.Fatalf("SetOwner failed: %v", err)
	}
	got := s.Owner(ctx)
	if got.Name != "Ravi" || got.MobileNumber != "9876543210" {
		t.Errorf("Owner = %+v", got)
	}
}

func TestSheetsURL(t *testing.T) {
	ctx := context.Background()
	s, store := newTestSettings(t)

	if got := s.SheetsURL(ctx); got != "" {
		t.Fatalf("Expected empty URL, got %q", got)
	}
	if err := s.SetSheetsURL(ctx, " https://script.google.com/macros/s/abc/exec "); err != nil {
		t.Fatalf("SetSheetsURL failed: %v", err)
	}

	// Stored as a plain string, not JSON.
	raw, err := store.Get(ctx, storage.KeySheetsURL)
	if err != nil || string(raw) != "https://script.google.com/macros/s/abc/exec" {
		t.Errorf("Stored value = %q, err %v", raw, err)
	}

	if err := s.SetSheetsURL(ctx, ""); err != nil {
		t.Fatalf("Clearing URL failed: %v", err)
	}
	if got := s.SheetsURL(ctx); got != "" {
		t.Errorf("Expected URL cleared, got %q", got)
	}
}
