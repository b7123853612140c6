// Package validation normalizes raw product input before it reaches storage.
package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"pharma-stock/internal/domain"
)

// FieldError describes why a single input field was rejected
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func fieldError(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}

// ValidateName trims the product name and rejects empty values
func ValidateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", fieldError("name", "name is required")
	}
	return name, nil
}

// ValidateQuantity accepts integers, floats, json.Number or text and returns
// the quantity as a whole number greater than or equal to 1.
func ValidateQuantity(raw interface{}) (int, error) {
	qty, err := ParseQuantity(raw)
	if err != nil {
		return 0, err
	}
	if qty < 1 {
		return 0, fieldError("quantity", "quantity must be at least 1")
	}
	return qty, nil
}

// ParseQuantity converts raw to a whole number without checking its sign
func ParseQuantity(raw interface{}) (int, error) {
	var qty int64

	switch v := raw.(type) {
	case int:
		qty = int64(v)
	case int32:
		qty = int64(v)
	case int64:
		qty = v
	case float32:
		f, err := wholeNumber(float64(v))
		if err != nil {
			return 0, err
		}
		qty = f
	case float64:
		f, err := wholeNumber(v)
		if err != nil {
			return 0, err
		}
		qty = f
	case json.Number:
		return ParseQuantity(v.String())
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, fieldError("quantity", "quantity is required")
		}
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			// Accept "12.0" the way a float input would be accepted
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil {
				return 0, fieldError("quantity", "quantity must be an integer")
			}
			whole, werr := wholeNumber(f)
			if werr != nil {
				return 0, werr
			}
			parsed = whole
		}
		qty = parsed
	case nil:
		return 0, fieldError("quantity", "quantity is required")
	default:
		return 0, fieldError("quantity", "quantity must be an integer")
	}

	if qty > math.MaxInt32 || qty < math.MinInt32 {
		return 0, fieldError("quantity", "quantity is too large")
	}
	return int(qty), nil
}

func wholeNumber(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fieldError("quantity", "quantity must be an integer")
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fieldError("quantity", "quantity is too large")
	}
	return int64(f), nil
}

// NormalizeDate converts a date value or an ISO string to canonical YYYY-MM-DD text
func NormalizeDate(raw interface{}) (domain.Date, error) {
	switch v := raw.(type) {
	case time.Time:
		if v.IsZero() {
			return "", fieldError("expiry_date", "expiry date is required")
		}
		return domain.NewDate(v), nil
	case domain.Date:
		return NormalizeDate(string(v))
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return "", fieldError("expiry_date", "expiry date is required")
		}
		d, err := domain.ParseDate(s)
		if err != nil {
			return "", fieldError("expiry_date", "expiry date is invalid (expected YYYY-MM-DD)")
		}
		return d, nil
	default:
		return "", fieldError("expiry_date", "expiry date is invalid (expected YYYY-MM-DD)")
	}
}

// ValidateExpiryDate normalizes raw and requires it to be strictly after today
func ValidateExpiryDate(raw interface{}, today time.Time) (domain.Date, error) {
	d, err := NormalizeDate(raw)
	if err != nil {
		return "", err
	}
	// Canonical ISO dates order lexicographically
	if string(d) <= string(domain.NewDate(today)) {
		return "", fieldError("expiry_date", "expiry date must be after today")
	}
	return d, nil
}
