package service

import (
	"errors"
	"fmt"

	"pharma-stock/internal/repository"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity to remove must be positive")
	ErrDuplicateProduct  = errors.New("a product with this name and expiry date already exists")
	ErrStorage           = errors.New("storage error")
)

// validationError tags err as a validation failure while keeping the field detail reachable
func validationError(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// storageError translates repository failures into service errors.
// Business errors pass through unchanged.
func storageError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrProductNotFound):
		return ErrProductNotFound
	case errors.Is(err, repository.ErrDuplicateProduct):
		return ErrDuplicateProduct
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrProductNotFound),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrDuplicateProduct),
		errors.Is(err, ErrStorage):
		return err
	default:
		return fmt.Errorf("%w: failed to %s: %w", ErrStorage, op, err)
	}
}
