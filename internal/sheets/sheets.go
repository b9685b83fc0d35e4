// Package sheets posts payment rows to a spreadsheet webhook.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/Mayank7Bisnewar/Tenant/internal/calculator"
	"github.com/Mayank7Bisnewar/Tenant/internal/models"
)

// ErrNotConfigured is returned when no webhook URL is set. Callers treat it
// as the feature being disabled.
var ErrNotConfigured = errors.New("spreadsheet webhook url not configured")

// DateLayout is the dd/MM/yyyy format the sheet expects.
const DateLayout = "02/01/2006"

// Row is one spreadsheet line.
type Row struct {
	BilledDate        string  `json:"billedDate"`
	PaidDate          string  `json:"paidDate"`
	TenantName        string  `json:"tenantName"`
	RoomNo            string  `json:"roomNo"`
	Rent              float64 `json:"rent"`
	ElectricityUnits  int     `json:"electricityUnits"`
	ElectricityAmount float64 `json:"electricityAmount"`
	WaterAmount       float64 `json:"waterAmount"`
	ExtraAmount       float64 `json:"extraAmount"`
	TotalAmount       float64 `json:"totalAmount"`
	Remarks           string  `json:"remarks"`
}

// RowFromBill builds the row for a bill paid at paidAt.
func RowFromBill(bill calculator.Bill, paidAt time.Time, remarks string) Row {
	return Row{
		BilledDate:        bill.BillingDate.Format(DateLayout),
		PaidDate:          paidAt.Format(DateLayout),
		TenantName:        bill.TenantName,
		RoomNo:            bill.RoomNumber,
		Rent:              bill.MonthlyRent,
		ElectricityUnits:  bill.ElectricityUnits,
		ElectricityAmount: bill.ElectricityCharges,
		WaterAmount:       bill.WaterBill,
		ExtraAmount:       bill.ExtraCharges,
		TotalAmount:       bill.TotalAmount,
		Remarks:           remarks,
	}
}

// RowFromRecord rebuilds the row for a stored payment record. The billed
// date is the first day of the record's billing month.
func RowFromRecord(tenant models.Tenant, rec models.PaymentRecord) Row {
	billed, err := time.Parse(calculator.BillingMonthLayout, rec.BillingMonth)
	if err != nil {
		billed = rec.Date
	}
	return Row{
		BilledDate:        billed.Format(DateLayout),
		PaidDate:          rec.Date.Format(DateLayout),
		TenantName:        tenant.Name,
		RoomNo:            tenant.RoomNumber,
		Rent:              rec.RentAmount,
		ElectricityUnits:  rec.ElectricityUnits,
		ElectricityAmount: rec.ElectricityAmount,
		WaterAmount:       rec.WaterAmount,
		ExtraAmount:       rec.ExtraAmount,
		TotalAmount:       rec.Amount,
	}
}

// TestRow is the placeholder row used to check a webhook is reachable.
func TestRow() Row {
	return Row{
		BilledDate: "01/01/2024",
		PaidDate:   "01/01/2024",
		TenantName: "TEST",
		RoomNo:     "TEST",
		Remarks:    "Connection Test",
	}
}

// StatusError is returned for a non-2xx webhook response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook returned status %d: %s", e.StatusCode, e.Body)
}

// Client posts rows to the webhook.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a client. limiter may be nil for no rate limit.
func NewClient(httpClient *http.Client, limiter *rate.Limiter, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger,
	}
}

// AppendRow posts row to url. An empty url yields ErrNotConfigured.
func (c *Client) AppendRow(ctx context.Context, url string, row Row) error {
	if url == "" {
		return ErrNotConfigured
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("failed to wait for rate limiter: %w", err)
		}
	}

	body, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Posting row to spreadsheet", "tenant_name", row.TenantName, "billed_date", row.BilledDate)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post row: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	// Drain so the connection can be reused.
	io.Copy(io.Discard, resp.Body)
	return nil
}
