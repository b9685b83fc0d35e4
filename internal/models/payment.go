package models

import "time"

// PaymentRecord is a frozen snapshot of a bill at the moment it was recorded.
// Amounts are never recomputed, even if the tenant's rent changes later.
type PaymentRecord struct {
	// ID is unique within the tenant's history (UUID format).
	ID string `json:"id"`

	// Date is when the payment was recorded.
	Date time.Time `json:"date"`

	// BillingMonth is the human-readable month key (e.g., "January 2024").
	// At most one record per tenant per month is expected; the ledger
	// checks it before appending but the model does not enforce it.
	BillingMonth string `json:"billingMonth"`

	// Amount is the bill total.
	Amount float64 `json:"amount"`

	RentAmount        float64 `json:"rentAmount"`
	ElectricityAmount float64 `json:"electricityAmount"`
	WaterAmount       float64 `json:"waterAmount"`
	ExtraAmount       float64 `json:"extraAmount"`
	ElectricityUnits  int     `json:"electricityUnits"`

	// SyncedToSheets marks whether the record was mirrored to the spreadsheet.
	SyncedToSheets bool `json:"syncedToSheets,omitempty"`
}
