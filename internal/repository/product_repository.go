package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pharma-stock/internal/domain"

	"github.com/jmoiron/sqlx"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrDuplicateProduct = errors.New("a product with this name and expiry date already exists")
)

const productColumns = `id, name, quantity, expiry_date, created_at`

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	UpdateQuantity(ctx context.Context, id int64, quantity int) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	FindByNameAndExpiry(ctx context.Context, name string, expiry domain.Date) (*domain.Product, error)
	List(ctx context.Context, search string) ([]*domain.Product, error)
}

type productRepository struct {
	db Querier
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db Querier) ProductRepository {
	return &productRepository{db: db}
}

// Create inserts a new product and sets its generated ID
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := r.db.Rebind(`
		INSERT INTO products (name, quantity, expiry_date, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`)

	err := r.db.QueryRowxContext(
		ctx,
		query,
		product.Name,
		product.Quantity,
		product.ExpiryDate,
		product.CreatedAt,
	).Scan(&product.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateProduct
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update overwrites name, quantity and expiry date of an existing product
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := r.db.Rebind(`
		UPDATE products
		SET name = ?, quantity = ?, expiry_date = ?
		WHERE id = ?
	`)

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.Name,
		product.Quantity,
		product.ExpiryDate,
		product.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateProduct
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	return expectOneRow(result)
}

// UpdateQuantity sets the stock level of a product
func (r *productRepository) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	query := r.db.Rebind(`UPDATE products SET quantity = ? WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, quantity, id)
	if err != nil {
		return fmt.Errorf("failed to update product quantity: %w", err)
	}

	return expectOneRow(result)
}

// Delete removes a product
func (r *productRepository) Delete(ctx context.Context, id int64) error {
	query := r.db.Rebind(`DELETE FROM products WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return expectOneRow(result)
}

// FindByID retrieves a product by ID
func (r *productRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := r.db.Rebind(`SELECT ` + productColumns + ` FROM products WHERE id = ?`)

	product := &domain.Product{}
	if err := sqlx.GetContext(ctx, r.db, product, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// FindByNameAndExpiry retrieves the product identified by the (name, expiry_date) pair
func (r *productRepository) FindByNameAndExpiry(ctx context.Context, name string, expiry domain.Date) (*domain.Product, error) {
	query := r.db.Rebind(`SELECT ` + productColumns + ` FROM products WHERE name = ? AND expiry_date = ?`)

	product := &domain.Product{}
	if err := sqlx.GetContext(ctx, r.db, product, query, name, expiry); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by name and expiry: %w", err)
	}

	return product, nil
}

// List returns all products in insertion order, optionally keeping only those
// whose name contains search, ignoring case.
func (r *productRepository) List(ctx context.Context, search string) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY id ASC`

	products := []*domain.Product{}
	if err := sqlx.SelectContext(ctx, r.db, &products, query); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return products, nil
	}

	// SQLite's LOWER only folds ASCII, names carry accents
	filtered := []*domain.Product{}
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), search) {
			filtered = append(filtered, p)
		}
	}

	return filtered, nil
}

func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}
