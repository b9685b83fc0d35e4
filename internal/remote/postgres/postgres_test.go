package postgres

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/Mayank7Bisnewar/Tenant/internal/models"
	"github.com/Mayank7Bisnewar/Tenant/internal/remote"
)

const (
	upsertSQL = "INSERT INTO owner_documents"
	notifySQL = "SELECT pg_notify($1, $2)"
	selectSQL = "SELECT document FROM owner_documents WHERE owner_id = $1"
)

func newTestDirectory(t *testing.T) (*Directory, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unmet expectations: %v", err)
		}
	})
	return New(db, "", slog.Default()), mock
}

func TestSave(t *testing.T) {
	ctx := context.Background()
	tenants := []models.Tenant{{
		ID:        "t1",
		Name:      "Asha",
		Status:    models.StatusActive,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}}

	t.Run("upserts and notifies in one transaction", func(t *testing.T) {
		dir, mock := newTestDirectory(t)
		mock.ExpectBegin()
		mock.ExpectExec(upsertSQL).
			WithArgs("owner-1", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(notifySQL)).
			WithArgs(notifyChannel, "owner-1").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		if err := dir.Save(ctx, "owner-1", tenants); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	})

	t.Run("failed notify rolls back", func(t *testing.T) {
		dir, mock := newTestDirectory(t)
		down := errors.New("connection reset")
		mock.ExpectBegin()
		mock.ExpectExec(upsertSQL).
			WithArgs("owner-1", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(notifySQL)).
			WithArgs(notifyChannel, "owner-1").
			WillReturnError(down)
		mock.ExpectRollback()

		if err := dir.Save(ctx, "owner-1", tenants); !errors.Is(err, down) {
			t.Errorf("Expected wrapped notify error, got %v", err)
		}
	})

	t.Run("empty owner", func(t *testing.T) {
		dir, _ := newTestDirectory(t)
		if err := dir.Save(ctx, "", tenants); !errors.Is(err, remote.ErrNoOwner) {
			t.Errorf("Expected ErrNoOwner, got %v", err)
		}
	})
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("missing document is empty collection", func(t *testing.T) {
		dir, mock := newTestDirectory(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectSQL)).
			WithArgs("owner-1").
			WillReturnRows(sqlmock.NewRows([]string{"document"}))

		tenants, err := dir.load(ctx, "owner-1")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if tenants == nil || len(tenants) != 0 {
			t.Errorf("Expected empty non-nil collection, got %v", tenants)
		}
	})

	t.Run("stored document is decoded", func(t *testing.T) {
		dir, mock := newTestDirectory(t)
		doc := `{"tenants": [{"id": "t1", "name": "Asha", "createdAt": {"seconds": 1704067200}}]}`
		mock.ExpectQuery(regexp.QuoteMeta(selectSQL)).
			WithArgs("owner-1").
			WillReturnRows(sqlmock.NewRows([]string{"document"}).AddRow([]byte(doc)))

		tenants, err := dir.load(ctx, "owner-1")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if len(tenants) != 1 || tenants[0].Name != "Asha" || tenants[0].Status != models.StatusActive {
			t.Errorf("Unexpected tenants: %+v", tenants)
		}
	})

	t.Run("malformed document is an error", func(t *testing.T) {
		dir, mock := newTestDirectory(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectSQL)).
			WithArgs("owner-1").
			WillReturnRows(sqlmock.NewRows([]string{"document"}).AddRow([]byte("{not json")))

		if _, err := dir.load(ctx, "owner-1"); err == nil {
			t.Error("Expected decode error")
		}
	})

	t.Run("query failure is wrapped", func(t *testing.T) {
		dir, mock := newTestDirectory(t)
		down := errors.New("server closed the connection")
		mock.ExpectQuery(regexp.QuoteMeta(selectSQL)).
			WithArgs("owner-1").
			WillReturnError(down)

		if _, err := dir.load(ctx, "owner-1"); !errors.Is(err, down) {
			t.Errorf("Expected wrapped query error, got %v", err)
		}
	})
}

func TestAffects(t *testing.T) {
	tests := []struct {
		name string
		n    *pq.Notification
		want bool
	}{
		{name: "own owner", n: &pq.Notification{Channel: notifyChannel, Extra: "owner-1"}, want: true},
		{name: "other owner", n: &pq.Notification{Channel: notifyChannel, Extra: "owner-2"}, want: false},
		{name: "reconnect", n: nil, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := affects(tt.n, "owner-1"); got != tt.want {
				t.Errorf("affects() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWatchRequiresOwner(t *testing.T) {
	dir, _ := newTestDirectory(t)
	if _, err := dir.Watch(context.Background(), ""); !errors.Is(err, remote.ErrNoOwner) {
		t.Errorf("Expected ErrNoOwner, got %v", err)
	}
}
