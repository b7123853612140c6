package service

import (
	"context"

	"pharma-stock/internal/domain"
	"pharma-stock/internal/repository"
	"pharma-stock/internal/validation"
)

// HistoryService defines the read side of the audit log.
// A limit of zero means no bound.
type HistoryService interface {
	ListHistory(ctx context.Context, limit int) ([]*domain.HistoryEntry, error)
	ListHistoryByOperation(ctx context.Context, operation domain.Operation, limit int) ([]*domain.HistoryEntry, error)
	ListHistoryByOperations(ctx context.Context, operations []domain.Operation, limit int) ([]*domain.HistoryEntry, error)
	Stats(ctx context.Context) (*domain.HistoryStats, error)
}

type historyService struct {
	store repository.Store
}

// NewHistoryService creates a new instance of HistoryService
func NewHistoryService(store repository.Store) HistoryService {
	return &historyService{store: store}
}

func (s *historyService) ListHistory(ctx context.Context, limit int) ([]*domain.HistoryEntry, error) {
	return s.ListHistoryByOperations(ctx, nil, limit)
}

func (s *historyService) ListHistoryByOperation(ctx context.Context, operation domain.Operation, limit int) ([]*domain.HistoryEntry, error) {
	return s.ListHistoryByOperations(ctx, []domain.Operation{operation}, limit)
}

// ListHistoryByOperations returns entries matching any of operations, most recent first.
// An empty operations list matches every entry.
func (s *historyService) ListHistoryByOperations(ctx context.Context, operations []domain.Operation, limit int) ([]*domain.HistoryEntry, error) {
	if limit < 0 {
		return nil, validationError(&validation.FieldError{Field: "limit", Message: "limit must not be negative"})
	}
	for _, op := range operations {
		if !op.Valid() {
			return nil, validationError(&validation.FieldError{Field: "operation", Message: "unknown operation " + string(op)})
		}
	}

	entries, err := s.store.History().List(ctx, repository.HistoryFilter{
		Operations: operations,
		Limit:      limit,
	})
	if err != nil {
		return nil, storageError("list history", err)
	}
	return entries, nil
}

// Stats counts entries per operation. Every known operation is present in the result.
func (s *historyService) Stats(ctx context.Context) (*domain.HistoryStats, error) {
	counts, err := s.store.History().CountByOperation(ctx)
	if err != nil {
		return nil, storageError("count history", err)
	}

	stats := &domain.HistoryStats{ByOperation: make(map[domain.Operation]int, len(domain.Operations))}
	for _, op := range domain.Operations {
		stats.ByOperation[op] = counts[op]
		stats.Total += counts[op]
	}
	return stats, nil
}
