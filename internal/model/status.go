package model

import (
	"fmt"
	"math"
	"time"
)

// Severity ranks a derived item status for alerting and filtering.
type Severity string

// Expiry severities, from harmless to urgent.
const (
	SeverityNone     Severity = "none"
	SeverityOK       Severity = "ok"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
	SeverityExpired  Severity = "expired"
)

// Stock severities.
const (
	StockOK  Severity = "ok"
	StockLow Severity = "low"
	StockOut Severity = "out"
)

// Status is a user-facing label with its severity.
type Status struct {
	Label    string   `json:"label"`
	Severity Severity `json:"severity"`
}

// Expiry band boundaries in days.
const (
	expiryCriticalDays = 7
	expiryWarningDays  = 30
)

// ExpiryStatus classifies how close an item is to its expiry date, relative
// to now. A nil expiry means the item does not expire (or the date is
// unknown). Days left are rounded up, so anything due within the next 24
// hours counts as one day.
func ExpiryStatus(expiry *time.Time, now time.Time) Status {
	if expiry == nil {
		return Status{Label: "No expiry", Severity: SeverityNone}
	}

	daysLeft := int(math.Ceil(expiry.Sub(now).Hours() / 24))
	switch {
	case daysLeft <= 0:
		return Status{Label: "Expired", Severity: SeverityExpired}
	case daysLeft <= expiryCriticalDays:
		return Status{Label: fmt.Sprintf("%dd left", daysLeft), Severity: SeverityCritical}
	case daysLeft <= expiryWarningDays:
		return Status{Label: fmt.Sprintf("%dd left", daysLeft), Severity: SeverityWarning}
	default:
		return Status{Label: fmt.Sprintf("%dd left", daysLeft), Severity: SeverityOK}
	}
}

// StockStatus classifies on-hand quantity against the reorder threshold.
func StockStatus(quantity, minQuantity float64) Status {
	switch {
	case quantity == 0:
		return Status{Label: "Out of stock", Severity: StockOut}
	case quantity <= minQuantity:
		return Status{Label: "Low stock", Severity: StockLow}
	default:
		return Status{Label: "In stock", Severity: StockOK}
	}
}
