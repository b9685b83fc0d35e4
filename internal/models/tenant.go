package models

import "time"

// TenantStatus is the lifecycle state of a tenant record.
type TenantStatus string

const (
	// StatusActive tenants appear in billing and directory views.
	StatusActive TenantStatus = "active"

	// StatusDeleted tenants are soft-deleted: hidden from billing but kept
	// for history and possible restore.
	StatusDeleted TenantStatus = "deleted"
)

// Tenant represents one occupant of the residence and everything billed to them.
type Tenant struct {
	// ID is the unique identifier for the tenant (UUID format).
	// Generated on creation and never changed.
	ID string `json:"id"`

	// Name is the tenant's display name.
	Name string `json:"name"`

	// RoomNumber is free text (e.g., "101", "Ground floor left").
	RoomNumber string `json:"roomNumber"`

	// MobileNumber is the contact number used for the messaging deep link.
	MobileNumber string `json:"mobileNumber"`

	// MonthlyRent is the fixed rent charged each month.
	MonthlyRent float64 `json:"monthlyRent"`

	// WaterBill is the fixed water charge added to every bill.
	WaterBill float64 `json:"waterBill"`

	// Status is active or deleted. Records written before soft-delete
	// existed have no status; the codecs normalize those to active.
	Status TenantStatus `json:"status"`

	// DeletedAt is set when the tenant is soft-deleted and cleared on restore.
	DeletedAt *time.Time `json:"deletedAt,omitempty"`

	// PaymentHistory holds the frozen payment snapshots for this tenant.
	// Insertion order is not meaningful; display by Date descending.
	PaymentHistory []PaymentRecord `json:"paymentHistory"`

	// CreatedAt is when the tenant was added. Never mutated.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is stamped on every mutation.
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsActive reports whether the tenant should appear in billing views.
func (t Tenant) IsActive() bool {
	return t.Status != StatusDeleted
}

// Clone returns a deep copy so callers can't alias the payment history.
func (t Tenant) Clone() Tenant {
	out := t
	if t.DeletedAt != nil {
		at := *t.DeletedAt
		out.DeletedAt = &at
	}
	if t.PaymentHistory != nil {
		out.PaymentHistory = make([]PaymentRecord, len(t.PaymentHistory))
		copy(out.PaymentHistory, t.PaymentHistory)
	}
	return out
}

// Normalize applies defaults for fields missing from older records.
func (t *Tenant) Normalize() {
	if t.Status == "" {
		t.Status = StatusActive
	}
	if t.PaymentHistory == nil {
		t.PaymentHistory = []PaymentRecord{}
	}
}

// TenantFields are the user-editable fields supplied when adding a tenant.
type TenantFields struct {
	Name         string  `json:"name" validate:"required"`
	RoomNumber   string  `json:"roomNumber"`
	MobileNumber string  `json:"mobileNumber" validate:"required,len=10,numeric"`
	MonthlyRent  float64 `json:"monthlyRent" validate:"gte=0"`
	WaterBill    float64 `json:"waterBill" validate:"gte=0"`
}

// CloneTenants deep-copies a tenant collection.
func CloneTenants(tenants []Tenant) []Tenant {
	if tenants == nil {
		return nil
	}
	out := make([]Tenant, len(tenants))
	for i, t := range tenants {
		out[i] = t.Clone()
	}
	return out
}
