package domain

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// DateLayout is the canonical ISO calendar date layout used for storage and comparison
const DateLayout = "2006-01-02"

// Date is a calendar date kept in its canonical YYYY-MM-DD text form
type Date string

// NewDate truncates t to its calendar date
func NewDate(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// ParseDate parses an ISO formatted date and returns it in canonical form
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", err
	}
	return NewDate(t), nil
}

// Time returns the date at midnight UTC
func (d Date) Time() (time.Time, error) {
	return time.Parse(DateLayout, string(d))
}

func (d Date) String() string {
	return string(d)
}

// Scan implements sql.Scanner. Drivers return DATE columns either as
// time.Time or as text depending on the backend.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v)
		return nil
	case string:
		return d.scanText(v)
	case []byte:
		return d.scanText(string(v))
	case nil:
		*d = ""
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d *Date) scanText(s string) error {
	// Some drivers render dates with a time component
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("invalid stored date %q: %w", s, err)
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer
func (d Date) Value() (driver.Value, error) {
	return string(d), nil
}
