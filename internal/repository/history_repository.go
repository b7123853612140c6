package repository

import (
	"context"
	"fmt"

	"pharma-stock/internal/domain"

	"github.com/jmoiron/sqlx"
)

const historyColumns = `id, operation, product_id, product_name, old_quantity, new_quantity,
	old_expiry_date, new_expiry_date, timestamp, details`

// HistoryFilter narrows a history listing. Zero values mean no restriction.
type HistoryFilter struct {
	Operations []domain.Operation
	Limit      int
}

// HistoryReader is the read side of the audit log
type HistoryReader interface {
	List(ctx context.Context, filter HistoryFilter) ([]*domain.HistoryEntry, error)
	CountByOperation(ctx context.Context) (map[domain.Operation]int, error)
}

// HistoryRepository adds appends to the audit log reader
type HistoryRepository interface {
	HistoryReader
	Append(ctx context.Context, entry *domain.HistoryEntry) error
}

type historyRepository struct {
	db Querier
}

// NewHistoryRepository creates a new instance of HistoryRepository
func NewHistoryRepository(db Querier) HistoryRepository {
	return &historyRepository{db: db}
}

// Append inserts an entry and sets its generated ID
func (r *historyRepository) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	query, args, err := r.db.BindNamed(`
		INSERT INTO history (operation, product_id, product_name, old_quantity, new_quantity,
			old_expiry_date, new_expiry_date, timestamp, details)
		VALUES (:operation, :product_id, :product_name, :old_quantity, :new_quantity,
			:old_expiry_date, :new_expiry_date, :timestamp, :details)
		RETURNING id
	`, entry)
	if err != nil {
		return fmt.Errorf("failed to bind history entry: %w", err)
	}

	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&entry.ID); err != nil {
		return fmt.Errorf("failed to append history entry: %w", err)
	}

	return nil
}

// List returns entries most recent first, ties broken by insertion order
func (r *historyRepository) List(ctx context.Context, filter HistoryFilter) ([]*domain.HistoryEntry, error) {
	query := `SELECT ` + historyColumns + ` FROM history`
	args := []interface{}{}

	if len(filter.Operations) > 0 {
		query += ` WHERE operation IN (?)`
		args = append(args, filter.Operations)
	}

	query += ` ORDER BY timestamp DESC, id DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to build history query: %w", err)
	}
	query = r.db.Rebind(query)

	entries := []*domain.HistoryEntry{}
	if err := sqlx.SelectContext(ctx, r.db, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	return entries, nil
}

// CountByOperation returns the number of entries recorded for each operation
func (r *historyRepository) CountByOperation(ctx context.Context) (map[domain.Operation]int, error) {
	var rows []struct {
		Operation domain.Operation `db:"operation"`
		Count     int              `db:"count"`
	}

	query := `SELECT operation, COUNT(*) AS count FROM history GROUP BY operation`
	if err := sqlx.SelectContext(ctx, r.db, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to count history: %w", err)
	}

	counts := make(map[domain.Operation]int, len(rows))
	for _, row := range rows {
		counts[row.Operation] = row.Count
	}

	return counts, nil
}
