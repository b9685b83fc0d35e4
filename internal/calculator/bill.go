package calculator

import (
	"time"

	"github.com/Mayank7Bisnewar/Tenant/internal/models"
)

// DefaultElectricityRate is the charge per metered unit.
const DefaultElectricityRate = 12.0

// BillingMonthLayout formats the month key used by payment records ("January 2024").
const BillingMonthLayout = "January 2006"

// Bill is the full breakdown of one tenant's monthly bill.
// It carries every input component plus the two derived values.
type Bill struct {
	TenantID     string
	TenantName   string
	RoomNumber   string
	MobileNumber string

	MonthlyRent      float64
	ElectricityUnits int
	ElectricityRate  float64
	WaterBill        float64
	ExtraCharges     float64
	BillingDate      time.Time

	// ElectricityCharges = ElectricityUnits × ElectricityRate
	ElectricityCharges float64

	// TotalAmount = MonthlyRent + ElectricityCharges + WaterBill + ExtraCharges
	TotalAmount float64
}

// ComputeBill derives a tenant's bill from their fixed charges and draft inputs.
// It has no side effects.
func ComputeBill(tenant models.Tenant, draft models.BillingDraft, rate float64) Bill {
	electricity := float64(draft.ElectricityUnits) * rate

	return Bill{
		TenantID:           tenant.ID,
		TenantName:         tenant.Name,
		RoomNumber:         tenant.RoomNumber,
		MobileNumber:       tenant.MobileNumber,
		MonthlyRent:        tenant.MonthlyRent,
		ElectricityUnits:   draft.ElectricityUnits,
		ElectricityRate:    rate,
		WaterBill:          tenant.WaterBill,
		ExtraCharges:       draft.ExtraCharges,
		BillingDate:        draft.BillingDate,
		ElectricityCharges: electricity,
		TotalAmount:        tenant.MonthlyRent + electricity + tenant.WaterBill + draft.ExtraCharges,
	}
}

// BillingMonth returns the month key for a billing date.
func BillingMonth(date time.Time) string {
	return date.Format(BillingMonthLayout)
}

// BillingMonth returns the month key of the bill's billing date.
func (b Bill) BillingMonth() string {
	return BillingMonth(b.BillingDate)
}

// SelectedTotal sums the totals of several bills, e.g. every tenant ticked for sending.
func SelectedTotal(bills []Bill) float64 {
	total := 0.0
	for _, b := range bills {
		total += b.TotalAmount
	}
	return total
}
