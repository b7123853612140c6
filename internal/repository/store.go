package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

// Querier is satisfied by both *sqlx.DB and *sqlx.Tx
type Querier interface {
	sqlx.ExtContext
}

// Tx exposes the repositories bound to a single database transaction.
// History appends are only reachable from here so that every audit entry is
// written in the same unit as the product change it describes.
type Tx interface {
	Products() ProductRepository
	History() HistoryRepository
}

// Store is the entry point to inventory storage
type Store interface {
	Products() ProductRepository
	History() HistoryReader
	// WithinTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise. The error returned by fn is passed through.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

type sqlStore struct {
	db *sqlx.DB
}

// NewStore creates a Store backed by db
func NewStore(db *sqlx.DB) Store {
	return &sqlStore{db: db}
}

func (s *sqlStore) Products() ProductRepository {
	return NewProductRepository(s.db)
}

func (s *sqlStore) History() HistoryReader {
	return NewHistoryRepository(s.db)
}

func (s *sqlStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&sqlTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("failed to roll back transaction: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

type sqlTx struct {
	tx *sqlx.Tx
}

func (t *sqlTx) Products() ProductRepository {
	return NewProductRepository(t.tx)
}

func (t *sqlTx) History() HistoryRepository {
	return NewHistoryRepository(t.tx)
}

// isUniqueViolation reports whether err is a unique constraint failure on any supported driver
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	return false
}
