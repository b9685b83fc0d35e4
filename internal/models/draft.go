package models

import "time"

// BillingDraft holds the uncommitted billing inputs for one tenant.
type BillingDraft struct {
	// ElectricityUnits is the metered consumption for the month. Never negative.
	ElectricityUnits int `json:"electricityUnits"`

	// ExtraCharges is any ad-hoc amount added to the bill. Never negative.
	ExtraCharges float64 `json:"extraCharges"`

	// BillingDate decides the billing month of the resulting record.
	BillingDate time.Time `json:"billingDate"`
}

// NewBillingDraft returns the default draft for the given moment.
func NewBillingDraft(now time.Time) BillingDraft {
	return BillingDraft{BillingDate: now}
}
