package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Mayank7Bisnewar/Tenant/internal/calculator"
	"github.com/Mayank7Bisnewar/Tenant/internal/drafts"
	"github.com/Mayank7Bisnewar/Tenant/internal/ledger"
	"github.com/Mayank7Bisnewar/Tenant/internal/message"
	"github.com/Mayank7Bisnewar/Tenant/internal/metrics"
	"github.com/Mayank7Bisnewar/Tenant/internal/models"
	"github.com/Mayank7Bisnewar/Tenant/internal/notify"
	"github.com/Mayank7Bisnewar/Tenant/internal/repository"
	"github.com/Mayank7Bisnewar/Tenant/internal/settings"
	"github.com/Mayank7Bisnewar/Tenant/internal/sheets"
)

// SheetsClient posts rows to the spreadsheet webhook.
type SheetsClient interface {
	AppendRow(ctx context.Context, url string, row sheets.Row) error
}

// BillingOptions are the billing constants.
type BillingOptions struct {
	ElectricityRate float64
	CountryCode     string
}

// SendResult describes one send + record action.
type SendResult struct {
	Bill    calculator.Bill
	Outcome ledger.Outcome
	Record  models.PaymentRecord

	// Link is the messaging deep link, "" when the tenant has no usable number.
	Link string

	// SyncStarted is set when a background spreadsheet push was launched.
	SyncStarted bool
}

// BillingService computes, sends and records bills.
type BillingService struct {
	repo     *repository.Repository
	drafts   *drafts.Store
	ledger   *ledger.Ledger
	settings *settings.Settings
	sheets   SheetsClient
	opener   message.Opener
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	opts     BillingOptions
	now      func() time.Time

	syncs sync.WaitGroup
}

// NewBillingService creates a billing service.
func NewBillingService(
	repo *repository.Repository,
	drafts *drafts.Store,
	ledger *ledger.Ledger,
	settings *settings.Settings,
	sheetsClient SheetsClient,
	opener message.Opener,
	notifier notify.Notifier,
	m *metrics.Metrics,
	logger *slog.Logger,
	opts BillingOptions,
) *BillingService {
	if opts.CountryCode == "" {
		opts.CountryCode = message.DefaultCountryCode
	}
	return &BillingService{
		repo:     repo,
		drafts:   drafts,
		ledger:   ledger,
		settings: settings,
		sheets:   sheetsClient,
		opener:   opener,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		opts:     opts,
		now:      time.Now,
	}
}

// Bill computes the current bill of an active tenant.
func (s *BillingService) Bill(tenantID string) (calculator.Bill, bool) {
	tenant, ok := s.repo.Get(tenantID)
	if !ok || !tenant.IsActive() {
		return calculator.Bill{}, false
	}
	return s.billFor(tenant), true
}

func (s *BillingService) billFor(tenant models.Tenant) calculator.Bill {
	return calculator.ComputeBill(tenant, s.drafts.Get(tenant.ID), s.opts.ElectricityRate)
}

// Bills computes the bills of the given active tenants, or of every active
// tenant when ids is empty. Unknown or deleted IDs are skipped.
func (s *BillingService) Bills(ids []string) []calculator.Bill {
	if len(ids) == 0 {
		active := s.repo.Active()
		bills := make([]calculator.Bill, len(active))
		for i, t := range active {
			bills[i] = s.billFor(t)
		}
		return bills
	}

	bills := make([]calculator.Bill, 0, len(ids))
	for _, id := range ids {
		if bill, ok := s.Bill(id); ok {
			bills = append(bills, bill)
		}
	}
	return bills
}

// SelectedTotal sums the bills of the selected tenants.
func (s *BillingService) SelectedTotal(ids []string) float64 {
	return calculator.SelectedTotal(s.Bills(ids))
}

// Message renders the bill text and deep link for a tenant.
func (s *BillingService) Message(ctx context.Context, bill calculator.Bill) (string, string) {
	text := message.Compose(bill, s.settings.Owner(ctx))
	return text, message.WhatsAppLink(bill.MobileNumber, s.opts.CountryCode, text)
}

// SendAndRecord resolves or creates the month's payment record, opens the
// bill message, and starts the spreadsheet push when one is due. A failed
// push never undoes the record or the message. found is false for unknown
// or deleted tenants.
func (s *BillingService) SendAndRecord(ctx context.Context, tenantID string) (SendResult, bool, error) {
	tenant, ok := s.repo.Get(tenantID)
	if !ok || !tenant.IsActive() {
		s.logger.Debug("Send skipped, tenant not found", "tenant_id", tenantID)
		return SendResult{}, false, nil
	}

	bill := s.billFor(tenant)
	s.logger.Info("Send bill request",
		"tenant_id", tenantID,
		"billing_month", bill.BillingMonth(),
		"total", bill.TotalAmount,
	)

	// 1. Resolve or create the local record.
	res, found, err := s.ledger.Record(ctx, tenantID, bill)
	if !found {
		return SendResult{}, false, err
	}
	if err != nil {
		s.logger.Error("Failed to save payment locally", "tenant_id", tenantID, "error", err)
		s.notifier.Notify(ctx, notify.Notice{
			Level:       notify.LevelError,
			Title:       "Could not save payment",
			Description: err.Error(),
		})
	}

	switch res.Outcome {
	case ledger.AlreadySynced:
		s.notifier.Notify(ctx, notify.Notice{
			Level:       notify.LevelInfo,
			Title:       "Payment already recorded",
			Description: fmt.Sprintf("A payment for %s is already recorded and synced.", bill.BillingMonth()),
		})
	case ledger.Created:
		s.notifier.Notify(ctx, notify.Notice{Level: notify.LevelInfo, Title: "Payment recorded locally"})
	}

	result := SendResult{Bill: bill, Outcome: res.Outcome, Record: res.Record}

	// 2. Open the message, whatever happens to the spreadsheet.
	_, result.Link = s.Message(ctx, bill)
	s.open(ctx, tenant, result.Link)

	// 3. Push to the spreadsheet in the background when configured and due.
	if res.NeedsSync() {
		if url := s.settings.SheetsURL(ctx); url != "" {
			s.syncAsync(tenant, sheets.RowFromBill(bill, s.now(), ""), res.Record.ID, url)
			result.SyncStarted = true
		}
	}

	return result, true, err
}

func (s *BillingService) open(ctx context.Context, tenant models.Tenant, link string) {
	if link == "" {
		s.logger.Warn("No mobile number for message", "tenant_id", tenant.ID)
		s.notifier.Notify(ctx, notify.Notice{
			Level:       notify.LevelError,
			Title:       "No mobile number",
			Description: fmt.Sprintf("%s has no mobile number to message.", tenant.Name),
		})
		return
	}
	if err := s.opener.Open(ctx, link); err != nil {
		s.logger.Error("Failed to open message", "tenant_id", tenant.ID, "error", err)
		s.notifier.Notify(ctx, notify.Notice{
			Level:       notify.LevelError,
			Title:       "Could not open message",
			Description: err.Error(),
			Retryable:   true,
		})
	}
}

// syncAsync pushes row and marks the record synced on success. The push is
// not tied to the caller's context.
func (s *BillingService) syncAsync(tenant models.Tenant, row sheets.Row, recordID, url string) {
	s.syncs.Add(1)
	go func() {
		defer s.syncs.Done()
		ctx := context.Background()

		if err := s.push(ctx, tenant, row, recordID, url); err != nil {
			s.notifier.Notify(ctx, notify.Notice{
				Level:       notify.LevelError,
				Title:       "Sync failed",
				Description: fmt.Sprintf("Auto-sync failed for %s. You can retry later.", tenant.Name),
				Retryable:   true,
			})
			return
		}
		s.notifier.Notify(ctx, notify.Notice{
			Level: notify.LevelInfo,
			Title: fmt.Sprintf("Synced %s to spreadsheet", tenant.Name),
		})
	}()
}

func (s *BillingService) push(ctx context.Context, tenant models.Tenant, row sheets.Row, recordID, url string) error {
	err := s.sheets.AppendRow(ctx, url, row)
	s.metrics.ObserveSheetSync(err)
	if err != nil {
		s.logger.Error("Spreadsheet sync failed", "tenant_id", tenant.ID, "record_id", recordID, "error", err)
		return err
	}

	if _, err := s.ledger.MarkSynced(ctx, tenant.ID, recordID); err != nil {
		// The row is in the sheet; only the local flag failed to persist.
		s.logger.Error("Failed to persist synced flag", "tenant_id", tenant.ID, "record_id", recordID, "error", err)
	}
	s.logger.Info("Spreadsheet sync complete", "tenant_id", tenant.ID, "record_id", recordID)
	return nil
}

// RetrySync pushes one stored record to the spreadsheet and waits for the
// result. Records already synced are left alone. found is false when the
// tenant or record does not exist.
func (s *BillingService) RetrySync(ctx context.Context, tenantID, recordID string) (bool, error) {
	tenant, ok := s.repo.Get(tenantID)
	if !ok {
		return false, nil
	}
	rec, ok := s.ledger.Find(tenantID, recordID)
	if !ok {
		return false, nil
	}
	if rec.SyncedToSheets {
		s.logger.Info("Retry skipped, record already synced", "tenant_id", tenantID, "record_id", recordID)
		return true, nil
	}

	url := s.settings.SheetsURL(ctx)
	if url == "" {
		return true, sheets.ErrNotConfigured
	}

	s.logger.Info("Retrying spreadsheet sync", "tenant_id", tenantID, "record_id", recordID)
	if err := s.push(ctx, tenant, sheets.RowFromRecord(tenant, rec), recordID, url); err != nil {
		s.notifier.Notify(ctx, notify.Notice{
			Level:       notify.LevelError,
			Title:       "Sync failed",
			Description: fmt.Sprintf("Sync failed for %s. You can retry later.", tenant.Name),
			Retryable:   true,
		})
		return true, err
	}
	return true, nil
}

// TestSheets posts the placeholder row to url, or to the stored URL when url is empty.
func (s *BillingService) TestSheets(ctx context.Context, url string) error {
	if url == "" {
		url = s.settings.SheetsURL(ctx)
	}

	err := s.sheets.AppendRow(ctx, url, sheets.TestRow())
	s.metrics.ObserveSheetSync(err)
	if err != nil {
		s.logger.Error("Spreadsheet test failed", "error", err)
		s.notifier.Notify(ctx, notify.Notice{Level: notify.LevelError, Title: "Test failed", Description: err.Error(), Retryable: true})
		return err
	}
	s.notifier.Notify(ctx, notify.Notice{Level: notify.LevelInfo, Title: "Test successful! Check your sheet."})
	return nil
}

// SaveOwner validates and stores the owner profile.
func (s *BillingService) SaveOwner(ctx context.Context, info models.OwnerInfo) (models.OwnerInfo, error) {
	info = settings.NormalizeOwner(info)
	if err := validateStruct(info); err != nil {
		return models.OwnerInfo{}, err
	}
	return s.settings.SetOwner(ctx, info)
}

// Wait blocks until every background spreadsheet push has finished.
func (s *BillingService) Wait() {
	s.syncs.Wait()
}
