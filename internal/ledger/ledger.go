// Package ledger records frozen payment snapshots in a tenant's history.
package ledger

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/Mayank7Bisnewar/Tenant/internal/calculator"
	"github.com/Mayank7Bisnewar/Tenant/internal/metrics"
	"github.com/Mayank7Bisnewar/Tenant/internal/models"
)

// Tenants is the part of the tenant repository the ledger writes through.
type Tenants interface {
	Get(id string) (models.Tenant, bool)
	Update(ctx context.Context, id string, mutate func(*models.Tenant)) (models.Tenant, bool, error)
}

// Outcome describes what Record did.
type Outcome int

const (
	// Created means a new record was appended.
	Created Outcome = iota + 1

	// Pending means an unsynced record for the month already existed and
	// was reused; the caller should retry the spreadsheet push with it.
	Pending

	// AlreadySynced means the month is recorded and mirrored. Nothing to push.
	AlreadySynced
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Pending:
		return "pending"
	case AlreadySynced:
		return "already_synced"
	default:
		return "unknown"
	}
}

// Result is returned by Record.
type Result struct {
	Outcome Outcome
	Record  models.PaymentRecord
}

// NeedsSync reports whether the record still has to be pushed to the spreadsheet.
func (r Result) NeedsSync() bool {
	return r.Outcome != AlreadySynced && !r.Record.SyncedToSheets
}

// RecordPatch is the only change allowed on a stored record.
type RecordPatch struct {
	SyncedToSheets *bool
}

// Ledger appends and maintains payment records.
type Ledger struct {
	tenants Tenants
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string
}

// New creates a ledger writing through tenants.
func New(tenants Tenants, logger *slog.Logger, m *metrics.Metrics) *Ledger {
	return &Ledger{
		tenants: tenants,
		logger:  logger,
		metrics: m,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// NewWithClock is New with an injected clock and ID generator.
func NewWithClock(tenants Tenants, logger *slog.Logger, m *metrics.Metrics, now func() time.Time, newID func() string) *Ledger {
	l := New(tenants, logger, m)
	l.now = now
	l.newID = newID
	return l
}

// Record resolves the tenant's record for the bill's month, creating one only
// when none exists. found is false when the tenant does not exist.
func (l *Ledger) Record(ctx context.Context, tenantID string, bill calculator.Bill) (Result, bool, error) {
	month := bill.BillingMonth()

	tenant, ok := l.tenants.Get(tenantID)
	if !ok {
		return Result{}, false, nil
	}
	if res, ok := existing(tenant, month); ok {
		l.observe(tenantID, month, res)
		return res, true, nil
	}

	var res Result
	_, found, err := l.tenants.Update(ctx, tenantID, func(t *models.Tenant) {
		// Re-check inside the mutation so two concurrent records of the
		// same month cannot both append.
		if prior, ok := existing(*t, month); ok {
			res = prior
			return
		}
		record := models.PaymentRecord{
			ID:                l.newID(),
			Date:              l.now(),
			BillingMonth:      month,
			Amount:            bill.TotalAmount,
			RentAmount:        bill.MonthlyRent,
			ElectricityAmount: bill.ElectricityCharges,
			WaterAmount:       bill.WaterBill,
			ExtraAmount:       bill.ExtraCharges,
			ElectricityUnits:  bill.ElectricityUnits,
		}
		t.PaymentHistory = append(t.PaymentHistory, record)
		res = Result{Outcome: Created, Record: record}
	})
	if !found {
		return Result{}, false, err
	}

	l.observe(tenantID, month, res)
	return res, true, err
}

func existing(tenant models.Tenant, month string) (Result, bool) {
	for _, r := range tenant.PaymentHistory {
		if r.BillingMonth != month {
			continue
		}
		if r.SyncedToSheets {
			return Result{Outcome: AlreadySynced, Record: r}, true
		}
		return Result{Outcome: Pending, Record: r}, true
	}
	return Result{}, false
}

func (l *Ledger) observe(tenantID, month string, res Result) {
	l.metrics.ObservePayment(res.Outcome.String())
	l.logger.Info("Payment resolved",
		"tenant_id", tenantID,
		"billing_month", month,
		"record_id", res.Record.ID,
		"outcome", res.Outcome.String(),
	)
}

// UpdateRecord applies patch to one record. Missing tenant or record is a no-op.
func (l *Ledger) UpdateRecord(ctx context.Context, tenantID, recordID string, patch RecordPatch) (models.PaymentRecord, bool, error) {
	tenant, ok := l.tenants.Get(tenantID)
	if !ok || indexOf(tenant.PaymentHistory, recordID) < 0 {
		return models.PaymentRecord{}, false, nil
	}

	var updated models.PaymentRecord
	var found bool
	_, _, err := l.tenants.Update(ctx, tenantID, func(t *models.Tenant) {
		i := indexOf(t.PaymentHistory, recordID)
		if i < 0 {
			return
		}
		if patch.SyncedToSheets != nil {
			t.PaymentHistory[i].SyncedToSheets = *patch.SyncedToSheets
		}
		updated, found = t.PaymentHistory[i], true
	})
	return updated, found, err
}

// MarkSynced flags the record as mirrored to the spreadsheet.
func (l *Ledger) MarkSynced(ctx context.Context, tenantID, recordID string) (bool, error) {
	synced := true
	_, found, err := l.UpdateRecord(ctx, tenantID, recordID, RecordPatch{SyncedToSheets: &synced})
	if found {
		l.logger.Info("Payment marked synced", "tenant_id", tenantID, "record_id", recordID)
	}
	return found, err
}

// DeleteRecord removes exactly one record from the tenant's history.
func (l *Ledger) DeleteRecord(ctx context.Context, tenantID, recordID string) (bool, error) {
	tenant, ok := l.tenants.Get(tenantID)
	if !ok || indexOf(tenant.PaymentHistory, recordID) < 0 {
		return false, nil
	}

	var found bool
	_, _, err := l.tenants.Update(ctx, tenantID, func(t *models.Tenant) {
		i := indexOf(t.PaymentHistory, recordID)
		if i < 0 {
			return
		}
		t.PaymentHistory = slices.Delete(t.PaymentHistory, i, i+1)
		found = true
	})
	if found {
		l.logger.Info("Payment deleted", "tenant_id", tenantID, "record_id", recordID)
	}
	return found, err
}

// History returns the tenant's records, newest first.
func (l *Ledger) History(tenantID string) ([]models.PaymentRecord, bool) {
	tenant, ok := l.tenants.Get(tenantID)
	if !ok {
		return nil, false
	}

	history := slices.Clone(tenant.PaymentHistory)
	slices.SortStableFunc(history, func(a, b models.PaymentRecord) int {
		return b.Date.Compare(a.Date)
	})
	return history, true
}

// Find returns one record.
func (l *Ledger) Find(tenantID, recordID string) (models.PaymentRecord, bool) {
	tenant, ok := l.tenants.Get(tenantID)
	if !ok {
		return models.PaymentRecord{}, false
	}
	i := indexOf(tenant.PaymentHistory, recordID)
	if i < 0 {
		return models.PaymentRecord{}, false
	}
	return tenant.PaymentHistory[i], true
}

func indexOf(history []models.PaymentRecord, recordID string) int {
	return slices.IndexFunc(history, func(r models.PaymentRecord) bool {
		return r.ID == recordID
	})
}
