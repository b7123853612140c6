package domain

import (
	"time"
)

// Product represents a stock-keeping unit identified by its name and expiry date
type Product struct {
	ID         int64     `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Quantity   int       `json:"quantity" db:"quantity"`
	ExpiryDate Date      `json:"expiry_date" db:"expiry_date"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ExpiryStatus classifies a product by the number of days left before it expires
type ExpiryStatus string

const (
	ExpiryStatusOK       ExpiryStatus = "ok"
	ExpiryStatusWarning  ExpiryStatus = "warning"
	ExpiryStatusCritical ExpiryStatus = "critical"
)

const (
	// ExpiryWarningDays is the upper bound (inclusive) of the warning band
	ExpiryWarningDays = 90
	// ExpiryCriticalDays is the lower bound (inclusive) of the warning band
	ExpiryCriticalDays = 30
)

// DaysUntilExpiry returns the number of whole days between today and the expiry date.
// The result is negative once the product has expired.
func (p *Product) DaysUntilExpiry(today time.Time) (int, error) {
	expiry, err := p.ExpiryDate.Time()
	if err != nil {
		return 0, err
	}
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(expiry.Sub(day).Hours() / 24), nil
}

// ExpiryStatusFor maps a number of days left to its status band
func ExpiryStatusFor(daysLeft int) ExpiryStatus {
	switch {
	case daysLeft > ExpiryWarningDays:
		return ExpiryStatusOK
	case daysLeft >= ExpiryCriticalDays:
		return ExpiryStatusWarning
	default:
		return ExpiryStatusCritical
	}
}
