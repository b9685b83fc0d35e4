// Package message composes bill messages and the messaging deep link.
package message

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	xmessage "golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/Mayank7Bisnewar/Tenant/internal/calculator"
	"github.com/Mayank7Bisnewar/Tenant/internal/models"
)

// DefaultCountryCode is prefixed to local mobile numbers.
const DefaultCountryCode = "91"

const hygieneNote = "*Please ensure the surroundings and toilets are kept clean. Let's maintain hygiene together. Thank you.*"

var printer = xmessage.NewPrinter(language.English)

// Amount formats a currency amount with digit grouping and at most two decimals.
func Amount(v float64) string {
	return "₹" + printer.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}

// Compose renders the bill text sent to the tenant.
func Compose(bill calculator.Bill, owner models.OwnerInfo) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Hello %s,\n\n", bill.TenantName)
	fmt.Fprintf(&b, "Here are the bill details for %s:\n\n", bill.BillingMonth())
	fmt.Fprintf(&b, "Room Rent: %s\n", Amount(bill.MonthlyRent))
	fmt.Fprintf(&b, "Electricity: %d units x %s = %s\n",
		bill.ElectricityUnits, Amount(bill.ElectricityRate), Amount(bill.ElectricityCharges))
	fmt.Fprintf(&b, "Water Bill: %s\n", Amount(bill.WaterBill))
	if bill.ExtraCharges > 0 {
		fmt.Fprintf(&b, "Extra Charges: %s\n", Amount(bill.ExtraCharges))
	}
	fmt.Fprintf(&b, "\n*Total Payable Amount: %s*\n", Amount(bill.TotalAmount))

	if !owner.IsEmpty() {
		b.WriteString("\n---\n")
		if owner.Name != "" {
			fmt.Fprintf(&b, "Owner Name: %s\n", owner.Name)
		}
		if owner.UPIID != "" {
			fmt.Fprintf(&b, "UPI ID: %s\n", owner.UPIID)
		}
		if owner.MobileNumber != "" {
			fmt.Fprintf(&b, "Mobile: %s\n", owner.MobileNumber)
		}
	}

	b.WriteString("\n" + hygieneNote)
	return b.String()
}

// Digits strips everything but ASCII digits.
func Digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// WhatsAppLink returns the deep link for sending text to mobile, or "" when
// mobile holds no digits.
func WhatsAppLink(mobile, countryCode, text string) string {
	phone := Digits(mobile)
	if phone == "" {
		return ""
	}
	escaped := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return "whatsapp://send?phone=" + countryCode + phone + "&text=" + escaped
}

// Opener hands a deep link to whatever can open it.
type Opener interface {
	Open(ctx context.Context, link string) error
}

// WriterOpener prints links, one per line. Used by the CLI where no
// messaging app is available.
type WriterOpener struct {
	W io.Writer
}

// Open writes the link.
func (o WriterOpener) Open(ctx context.Context, link string) error {
	_, err := fmt.Fprintln(o.W, link)
	return err
}
