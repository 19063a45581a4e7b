package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"storepos-backend/internal/domain"
	"storepos-backend/internal/logger"
	"storepos-backend/internal/repository"
)

var tracer = otel.Tracer("storepos-backend/repository/postgres")

// querier is the subset of *sql.DB and *sql.Tx the repositories need, so the
// same code runs against the pool or inside a unit of work.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var _ repository.Store = (*Store)(nil)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Repos returns repositories bound to the connection pool. Each call runs in
// its own implicit transaction; use WithinTx for multi-statement work.
func (s *Store) Repos() repository.Repositories {
	return bind(s.db)
}

func bind(q querier) repository.Repositories {
	return repository.Repositories{
		Items:        NewItemRepository(q),
		Customers:    NewCustomerRepository(q),
		Rentals:      NewRentalRepository(q),
		Transactions: NewTransactionRepository(q),
	}
}

// WithinTx runs fn inside a READ COMMITTED transaction. Row locks taken by the
// repositories are held until fn returns; the transaction is rolled back on
// any error or panic.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) (err error) {
	ctx, span := tracer.Start(ctx, "postgres.WithinTx")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, bind(tx)); err != nil {
		return translateError(err)
	}

	if err := tx.Commit(); err != nil {
		return translateError(fmt.Errorf("commit transaction: %w", err))
	}
	span.SetAttributes(attribute.Bool("db.committed", true))
	return nil
}

// SQLSTATE codes Postgres uses when it aborts a transaction to break a lock cycle
const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

func translateError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqSerializationFailure, pqDeadlockDetected:
		logger.Warn("Transaction aborted by database", "code", string(pqErr.Code), "error", pqErr.Message)
		return fmt.Errorf("%w: %s", domain.ErrConcurrentUpdate, pqErr.Message)
	}
	return err
}
