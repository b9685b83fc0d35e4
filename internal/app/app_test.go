package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Mayank7Bisnewar/Tenant/internal/config"
	"github.com/Mayank7Bisnewar/Tenant/internal/models"
	"github.com/Mayank7Bisnewar/Tenant/internal/repository"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		DBPath:          filepath.Join(dir, "rentmate.db"),
		Remote:          config.RemoteMemory,
		JWTSecret:       "test-secret",
		SessionTTL:      time.Hour,
		ElectricityRate: 12,
		CountryCode:     "91",
		PushTimeout:     5 * time.Second,
		SheetsTimeout:   5 * time.Second,
		SheetsRateLimit: 10,
		SheetsBurst:     1,
		MetricsTextfile: filepath.Join(dir, "rentmate.prom"),
	}
}

func TestAppLifecycle(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	var out bytes.Buffer

	a, err := New(ctx, cfg, slog.Default(), Options{Out: &out})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	tenant, err := a.Tenants.Add(ctx, models.TenantFields{Name: "Asha", MobileNumber: "9876543210", MonthlyRent: 5000, WaterBill: 300})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	a.Drafts.SetElectricityUnits(tenant.ID, 40)

	claims, err := a.Register(ctx, "ravi@example.com", "Ravi", "correct-horse")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if a.Repo.State() != repository.StateSynced {
		t.Errorf("State = %v, want synced", a.Repo.State())
	}
	a.Repo.Flush()
	if doc := a.Remote.(interface {
		Document(string) []models.Tenant
	}).Document(claims.OwnerID()); len(doc) != 1 {
		t.Errorf("Expected local tenant seeded to remote, got %d", len(doc))
	}

	if _, _, err := a.Billing.SendAndRecord(ctx, tenant.ID); err != nil {
		t.Fatalf("SendAndRecord failed: %v", err)
	}
	if !strings.Contains(out.String(), "whatsapp://send?phone=919876543210") {
		t.Errorf("Expected deep link on output, got %q", out.String())
	}

	if err := a.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(cfg.MetricsTextfile); err != nil {
		t.Errorf("Expected metrics textfile: %v", err)
	}

	// A second run resumes the session and keeps the drafts.
	b, err := New(ctx, cfg, slog.Default(), Options{})
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer b.Close(ctx)

	resumed, err := b.Resume(ctx)
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if resumed == nil || resumed.OwnerID() != claims.OwnerID() {
		t.Errorf("Resumed %+v, want owner %s", resumed, claims.OwnerID())
	}
	if got := b.Drafts.Get(tenant.ID).ElectricityUnits; got != 40 {
		t.Errorf("Draft units after reopen = %d, want 40", got)
	}
	history, _ := b.Ledger.History(tenant.ID)
	if len(history) != 1 {
		t.Errorf("Expected recorded payment after reopen, got %d", len(history))
	}

	if err := b.SignOut(ctx); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}
	if again, err := b.Resume(ctx); err != nil || again != nil {
		t.Errorf("Expected no session after sign out, got %+v, %v", again, err)
	}
}

func TestLocalOnly(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Remote = config.RemoteNone
	cfg.MetricsTextfile = ""

	a, err := New(ctx, cfg, slog.Default(), Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close(ctx)

	if a.Remote != nil {
		t.Fatal("Expected no remote directory")
	}
	if _, err := a.Register(ctx, "ravi@example.com", "Ravi", "correct-horse"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if a.Repo.State() != repository.StateUnauthenticated {
		t.Errorf("State = %v, want unauthenticated without a remote", a.Repo.State())
	}
}
