package domain

import (
	"time"
)

// Operation is the kind of mutation recorded in the history
type Operation string

const (
	OperationAdd      Operation = "AJOUT"
	OperationModify   Operation = "MODIFICATION"
	OperationDelete   Operation = "SUPPRESSION"
	OperationStockOut Operation = "SORTIE"
)

// Operations lists every operation kind in display order
var Operations = []Operation{
	OperationAdd,
	OperationModify,
	OperationDelete,
	OperationStockOut,
}

// Valid reports whether o is a known operation kind
func (o Operation) Valid() bool {
	for _, known := range Operations {
		if o == known {
			return true
		}
	}
	return false
}

// HistoryEntry is an immutable record of one product mutation.
// ProductName is denormalized so entries outlive the product they describe.
type HistoryEntry struct {
	ID            int64     `json:"id" db:"id"`
	Operation     Operation `json:"operation" db:"operation"`
	ProductID     int64     `json:"product_id" db:"product_id"`
	ProductName   string    `json:"product_name" db:"product_name"`
	OldQuantity   *int      `json:"old_quantity,omitempty" db:"old_quantity"`
	NewQuantity   *int      `json:"new_quantity,omitempty" db:"new_quantity"`
	OldExpiryDate *Date     `json:"old_expiry_date,omitempty" db:"old_expiry_date"`
	NewExpiryDate *Date     `json:"new_expiry_date,omitempty" db:"new_expiry_date"`
	Timestamp     time.Time `json:"timestamp" db:"timestamp"`
	Details       string    `json:"details" db:"details"`
}

// HistoryStats counts history entries per operation
type HistoryStats struct {
	Total       int               `json:"total"`
	ByOperation map[Operation]int `json:"by_operation"`
}
