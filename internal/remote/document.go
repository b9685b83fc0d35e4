package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/Mayank7Bisnewar/Tenant/internal/models"
)

// Timestamp is a point in time inside a remote document.
//
// It is written as {"seconds": s, "nanos": n}. Reads also accept the
// "nanoseconds" spelling, RFC 3339 strings, Unix milliseconds and null, so
// documents written by older clients normalize to the same time.Time.
type Timestamp struct {
	time.Time
}

type timestampWire struct {
	Seconds     int64  `json:"seconds"`
	Nanos       *int32 `json:"nanos,omitempty"`
	Nanoseconds *int32 `json:"nanoseconds,omitempty"`
}

// MarshalJSON encodes the timestamp as seconds and nanos.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	ts := timestamppb.New(t.Time)
	nanos := ts.GetNanos()
	return json.Marshal(timestampWire{Seconds: ts.GetSeconds(), Nanos: &nanos})
}

// UnmarshalJSON accepts every timestamp encoding seen in stored documents.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		t.Time = time.Time{}
		return nil

	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			t.Time = time.Time{}
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		t.Time = parsed
		return nil

	case data[0] == '{':
		var w timestampWire
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		ts := &timestamppb.Timestamp{Seconds: w.Seconds}
		if w.Nanos != nil {
			ts.Nanos = *w.Nanos
		} else if w.Nanoseconds != nil {
			ts.Nanos = *w.Nanoseconds
		}
		if err := ts.CheckValid(); err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
		t.Time = ts.AsTime()
		return nil

	default:
		var millis int64
		if err := json.Unmarshal(data, &millis); err != nil {
			return fmt.Errorf("invalid timestamp %s: %w", data, err)
		}
		t.Time = time.UnixMilli(millis).UTC()
		return nil
	}
}

type paymentDoc struct {
	ID                string    `json:"id"`
	Date              Timestamp `json:"date"`
	BillingMonth      string    `json:"billingMonth"`
	Amount            float64   `json:"amount"`
	RentAmount        float64   `json:"rentAmount"`
	ElectricityAmount float64   `json:"electricityAmount"`
	WaterAmount       float64   `json:"waterAmount"`
	ExtraAmount       float64   `json:"extraAmount"`
	ElectricityUnits  int       `json:"electricityUnits"`
	SyncedToSheets    bool      `json:"syncedToSheets,omitempty"`
}

type tenantDoc struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	RoomNumber     string              `json:"roomNumber"`
	MobileNumber   string              `json:"mobileNumber"`
	MonthlyRent    float64             `json:"monthlyRent"`
	WaterBill      float64             `json:"waterBill"`
	Status         models.TenantStatus `json:"status,omitempty"`
	DeletedAt      *Timestamp          `json:"deletedAt,omitempty"`
	PaymentHistory []paymentDoc        `json:"paymentHistory"`
	CreatedAt      Timestamp           `json:"createdAt"`
	UpdatedAt      Timestamp           `json:"updatedAt"`
}

// document is the whole per-owner remote document.
//
// Every Save writes a fresh document holding only the tenants. A billingState
// draft blob written by another client is accepted on read but not carried
// over, so the next push from this process removes it.
type document struct {
	Tenants []tenantDoc `json:"tenants"`

	// BillingState is an optional draft blob written by other clients.
	// Drafts stay local here; EncodeDocument never sets it.
	BillingState json.RawMessage `json:"billingState,omitempty"`
}

// EncodeDocument renders the owner's tenant collection as a remote document.
func EncodeDocument(tenants []models.Tenant) ([]byte, error) {
	doc := document{Tenants: make([]tenantDoc, len(tenants))}
	for i, t := range tenants {
		doc.Tenants[i] = toTenantDoc(t)
	}
	return json.Marshal(doc)
}

// DecodeDocument parses a remote document into local models.
// An empty or null payload is an empty collection.
func DecodeDocument(raw []byte) ([]models.Tenant, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []models.Tenant{}, nil
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode remote document: %w", err)
	}

	tenants := make([]models.Tenant, len(doc.Tenants))
	for i, d := range doc.Tenants {
		tenants[i] = fromTenantDoc(d)
	}
	return tenants, nil
}

func toTenantDoc(t models.Tenant) tenantDoc {
	d := tenantDoc{
		ID:             t.ID,
		Name:           t.Name,
		RoomNumber:     t.RoomNumber,
		MobileNumber:   t.MobileNumber,
		MonthlyRent:    t.MonthlyRent,
		WaterBill:      t.WaterBill,
		Status:         t.Status,
		PaymentHistory: make([]paymentDoc, len(t.PaymentHistory)),
		CreatedAt:      Timestamp{t.CreatedAt},
		UpdatedAt:      Timestamp{t.UpdatedAt},
	}
	if t.DeletedAt != nil {
		d.DeletedAt = &Timestamp{*t.DeletedAt}
	}
	for i, p := range t.PaymentHistory {
		d.PaymentHistory[i] = paymentDoc{
			ID:                p.ID,
			Date:              Timestamp{p.Date},
			BillingMonth:      p.BillingMonth,
			Amount:            p.Amount,
			RentAmount:        p.RentAmount,
			ElectricityAmount: p.ElectricityAmount,
			WaterAmount:       p.WaterAmount,
			ExtraAmount:       p.ExtraAmount,
			ElectricityUnits:  p.ElectricityUnits,
			SyncedToSheets:    p.SyncedToSheets,
		}
	}
	return d
}

func fromTenantDoc(d tenantDoc) models.Tenant {
	t := models.Tenant{
		ID:             d.ID,
		Name:           d.Name,
		RoomNumber:     d.RoomNumber,
		MobileNumber:   d.MobileNumber,
		MonthlyRent:    d.MonthlyRent,
		WaterBill:      d.WaterBill,
		Status:         d.Status,
		PaymentHistory: make([]models.PaymentRecord, len(d.PaymentHistory)),
		CreatedAt:      d.CreatedAt.Time,
		UpdatedAt:      d.UpdatedAt.Time,
	}
	if d.DeletedAt != nil && !d.DeletedAt.IsZero() {
		at := d.DeletedAt.Time
		t.DeletedAt = &at
	}
	for i, p := range d.PaymentHistory {
		t.PaymentHistory[i] = models.PaymentRecord{
			ID:                p.ID,
			Date:              p.Date.Time,
			BillingMonth:      p.BillingMonth,
			Amount:            p.Amount,
			RentAmount:        p.RentAmount,
			ElectricityAmount: p.ElectricityAmount,
			WaterAmount:       p.WaterAmount,
			ExtraAmount:       p.ExtraAmount,
			ElectricityUnits:  p.ElectricityUnits,
			SyncedToSheets:    p.SyncedToSheets,
		}
	}
	t.Normalize()
	return t
}
