package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"pharma-stock/internal/domain"
	"pharma-stock/internal/repository"
	"pharma-stock/internal/validation"

	"go.uber.org/zap"
)

// ProductInput carries raw product fields as received from a caller.
// Quantity and ExpiryDate accept any form the validation package understands.
type ProductInput struct {
	Name       string
	Quantity   interface{}
	ExpiryDate interface{}
}

// StockOutResult describes the product state after a stock-out
type StockOutResult struct {
	ProductID int64 `json:"product_id"`
	Remaining int   `json:"remaining"`
	Depleted  bool  `json:"depleted"`
}

// ProductExpiry is the expiry band of a product relative to today
type ProductExpiry struct {
	DaysLeft int                 `json:"days_left"`
	Status   domain.ExpiryStatus `json:"expiry_status"`
}

// InventoryService defines the interface for stock management.
// Every mutation writes exactly one history entry in the same transaction.
type InventoryService interface {
	CreateProduct(ctx context.Context, input ProductInput) (int64, error)
	UpdateProduct(ctx context.Context, id int64, input ProductInput) error
	DeleteProduct(ctx context.Context, id int64) error
	RemoveStock(ctx context.Context, id int64, quantity int, reason string) (*StockOutResult, error)
	ListProducts(ctx context.Context, search string) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ExpiryStatus(product *domain.Product) (ProductExpiry, error)
}

// InventoryOption customizes an InventoryService
type InventoryOption func(*inventoryService)

// WithClock replaces the wall clock used for expiry checks and history timestamps
func WithClock(clock func() time.Time) InventoryOption {
	return func(s *inventoryService) {
		s.clock = clock
	}
}

type inventoryService struct {
	store  repository.Store
	logger *zap.Logger
	clock  func() time.Time
}

// NewInventoryService creates a new instance of InventoryService
func NewInventoryService(store repository.Store, logger *zap.Logger, opts ...InventoryOption) InventoryService {
	s := &inventoryService{
		store:  store,
		logger: logger.Named("inventory"),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// now returns the current time at the precision both backends persist
func (s *inventoryService) now() time.Time {
	return s.clock().UTC().Truncate(time.Microsecond)
}

func (s *inventoryService) validateInput(input ProductInput) (string, int, domain.Date, error) {
	name, err := validation.ValidateName(input.Name)
	if err != nil {
		return "", 0, "", validationError(err)
	}

	quantity, err := validation.ValidateQuantity(input.Quantity)
	if err != nil {
		return "", 0, "", validationError(err)
	}

	expiry, err := validation.ValidateExpiryDate(input.ExpiryDate, s.clock())
	if err != nil {
		return "", 0, "", validationError(err)
	}

	return name, quantity, expiry, nil
}

// CreateProduct adds stock. An existing product with the same name and expiry
// date absorbs the quantity instead of a new row being inserted.
func (s *inventoryService) CreateProduct(ctx context.Context, input ProductInput) (int64, error) {
	name, quantity, expiry, err := s.validateInput(input)
	if err != nil {
		return 0, err
	}

	var (
		id     int64
		merged bool
	)
	err = s.store.WithinTx(ctx, func(tx repository.Tx) error {
		now := s.now()

		existing, err := tx.Products().FindByNameAndExpiry(ctx, name, expiry)
		switch {
		case err == nil:
			newQuantity := existing.Quantity + quantity
			if newQuantity > math.MaxInt32 {
				return validationError(&validation.FieldError{Field: "quantity", Message: "resulting quantity is too large"})
			}
			if err := tx.Products().UpdateQuantity(ctx, existing.ID, newQuantity); err != nil {
				return err
			}
			id, merged = existing.ID, true

			return tx.History().Append(ctx, &domain.HistoryEntry{
				Operation:     domain.OperationAdd,
				ProductID:     existing.ID,
				ProductName:   name,
				OldQuantity:   intPtr(existing.Quantity),
				NewQuantity:   intPtr(newQuantity),
				OldExpiryDate: datePtr(expiry),
				NewExpiryDate: datePtr(expiry),
				Timestamp:     now,
				Details:       mergedDetails(name, existing.Quantity, quantity, expiry),
			})

		case errors.Is(err, repository.ErrProductNotFound):
			product := &domain.Product{
				Name:       name,
				Quantity:   quantity,
				ExpiryDate: expiry,
				CreatedAt:  now,
			}
			if err := tx.Products().Create(ctx, product); err != nil {
				return err
			}
			id = product.ID

			return tx.History().Append(ctx, &domain.HistoryEntry{
				Operation:     domain.OperationAdd,
				ProductID:     product.ID,
				ProductName:   name,
				NewQuantity:   intPtr(quantity),
				NewExpiryDate: datePtr(expiry),
				Timestamp:     now,
				Details:       addedDetails(name, quantity, expiry),
			})

		default:
			return err
		}
	})
	if err != nil {
		return 0, storageError("create product", err)
	}

	s.logger.Info("Product added",
		zap.Int64("product_id", id),
		zap.String("name", name),
		zap.Int("quantity", quantity),
		zap.String("expiry_date", expiry.String()),
		zap.Bool("merged", merged),
	)

	return id, nil
}

// UpdateProduct overwrites the product fields. Moving a product onto the
// name and expiry date of another product is rejected.
func (s *inventoryService) UpdateProduct(ctx context.Context, id int64, input ProductInput) error {
	name, quantity, expiry, err := s.validateInput(input)
	if err != nil {
		return err
	}

	err = s.store.WithinTx(ctx, func(tx repository.Tx) error {
		before, err := tx.Products().FindByID(ctx, id)
		if err != nil {
			return err
		}

		other, err := tx.Products().FindByNameAndExpiry(ctx, name, expiry)
		switch {
		case err == nil && other.ID != id:
			return ErrDuplicateProduct
		case err != nil && !errors.Is(err, repository.ErrProductNotFound):
			return err
		}

		after := &domain.Product{
			ID:         id,
			Name:       name,
			Quantity:   quantity,
			ExpiryDate: expiry,
			CreatedAt:  before.CreatedAt,
		}
		if err := tx.Products().Update(ctx, after); err != nil {
			return err
		}

		return tx.History().Append(ctx, &domain.HistoryEntry{
			Operation:     domain.OperationModify,
			ProductID:     id,
			ProductName:   name,
			OldQuantity:   intPtr(before.Quantity),
			NewQuantity:   intPtr(quantity),
			OldExpiryDate: datePtr(before.ExpiryDate),
			NewExpiryDate: datePtr(expiry),
			Timestamp:     s.now(),
			Details:       modifiedDetails(before, after),
		})
	})
	if err != nil {
		return storageError("update product", err)
	}

	s.logger.Info("Product updated",
		zap.Int64("product_id", id),
		zap.String("name", name),
		zap.Int("quantity", quantity),
		zap.String("expiry_date", expiry.String()),
	)

	return nil
}

// DeleteProduct removes a product and snapshots it in the history
func (s *inventoryService) DeleteProduct(ctx context.Context, id int64) error {
	var deleted *domain.Product

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		product, err := tx.Products().FindByID(ctx, id)
		if err != nil {
			return err
		}

		if err := tx.Products().Delete(ctx, id); err != nil {
			return err
		}
		deleted = product

		return tx.History().Append(ctx, &domain.HistoryEntry{
			Operation:     domain.OperationDelete,
			ProductID:     id,
			ProductName:   product.Name,
			OldQuantity:   intPtr(product.Quantity),
			OldExpiryDate: datePtr(product.ExpiryDate),
			Timestamp:     s.now(),
			Details:       deletedDetails(product),
		})
	})
	if err != nil {
		return storageError("delete product", err)
	}

	s.logger.Info("Product deleted",
		zap.Int64("product_id", id),
		zap.String("name", deleted.Name),
	)

	return nil
}

// RemoveStock withdraws quantity from a product. A product whose stock
// reaches zero is deleted and the withdrawal is its only history entry.
func (s *inventoryService) RemoveStock(ctx context.Context, id int64, quantity int, reason string) (*StockOutResult, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	reason = strings.TrimSpace(reason)

	result := &StockOutResult{ProductID: id}

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		product, err := tx.Products().FindByID(ctx, id)
		if err != nil {
			return err
		}

		if quantity > product.Quantity {
			return ErrInsufficientStock
		}

		remaining := product.Quantity - quantity
		if remaining == 0 {
			err = tx.Products().Delete(ctx, id)
		} else {
			err = tx.Products().UpdateQuantity(ctx, id, remaining)
		}
		if err != nil {
			return err
		}
		result.Remaining = remaining
		result.Depleted = remaining == 0

		return tx.History().Append(ctx, &domain.HistoryEntry{
			Operation:     domain.OperationStockOut,
			ProductID:     id,
			ProductName:   product.Name,
			OldQuantity:   intPtr(product.Quantity),
			NewQuantity:   intPtr(remaining),
			OldExpiryDate: datePtr(product.ExpiryDate),
			NewExpiryDate: datePtr(product.ExpiryDate),
			Timestamp:     s.now(),
			Details:       stockOutDetails(product, quantity, reason, result.Depleted),
		})
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			s.logger.Warn("Stock-out refused",
				zap.Int64("product_id", id),
				zap.Int("requested", quantity),
			)
		}
		return nil, storageError("remove stock", err)
	}

	s.logger.Info("Stock removed",
		zap.Int64("product_id", id),
		zap.Int("quantity", quantity),
		zap.Int("remaining", result.Remaining),
		zap.Bool("depleted", result.Depleted),
		zap.String("reason", reason),
	)

	return result, nil
}

// ListProducts returns products in insertion order, filtered by name when search is set
func (s *inventoryService) ListProducts(ctx context.Context, search string) ([]*domain.Product, error) {
	products, err := s.store.Products().List(ctx, search)
	if err != nil {
		return nil, storageError("list products", err)
	}
	return products, nil
}

// GetProduct retrieves a product by ID
func (s *inventoryService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.store.Products().FindByID(ctx, id)
	if err != nil {
		return nil, storageError("get product", err)
	}
	return product, nil
}

func (s *inventoryService) ExpiryStatus(product *domain.Product) (ProductExpiry, error) {
	days, err := product.DaysUntilExpiry(s.clock())
	if err != nil {
		return ProductExpiry{}, validationError(&validation.FieldError{Field: "expiry_date", Message: err.Error()})
	}
	return ProductExpiry{DaysLeft: days, Status: domain.ExpiryStatusFor(days)}, nil
}

func intPtr(v int) *int {
	return &v
}

func datePtr(d domain.Date) *domain.Date {
	return &d
}
