package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"storepos-backend/internal/domain"
)

type ItemRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Item, error)
	// AdjustQuantity applies delta in one atomic step and fails with
	// *domain.InsufficientStockError when the result would go negative.
	AdjustQuantity(ctx context.Context, id int64, delta int) (*domain.Item, error)
	Count(ctx context.Context) (int64, error)
}

type CustomerRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Customer, error)
	// Create inserts a customer, or returns the existing one when the phone
	// number was registered concurrently.
	Create(ctx context.Context, customer *domain.Customer) error
	// Lock holds the customer's row until the enclosing unit of work ends.
	Lock(ctx context.Context, id int64) error
}

type RentalRepository interface {
	Create(ctx context.Context, rental *domain.Rental) error
	GetByID(ctx context.Context, id int64) (*domain.Rental, error)
	// GetByIDForUpdate is GetByID plus a row lock held until the unit of work ends.
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Rental, error)
	// MarkReturned closes an open rental; domain.ErrAlreadyReturned if it was closed already.
	MarkReturned(ctx context.Context, rental *domain.Rental) error
	ListOutstandingByCustomer(ctx context.Context, customerID int64) ([]domain.Rental, error)
	ListOutstanding(ctx context.Context, limit int) ([]domain.Rental, error)
	// ListOverdue returns open rentals whose due date is before asOf's calendar day.
	ListOverdue(ctx context.Context, asOf time.Time) ([]domain.Rental, error)
	CountOutstanding(ctx context.Context) (int64, error)
}

type TransactionRepository interface {
	// Create writes the transaction header and all of its line items.
	Create(ctx context.Context, tx *domain.Transaction) error
	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)
	ListRecent(ctx context.Context, limit int) ([]domain.TransactionSummary, error)
	SalesSummary(ctx context.Context) (int64, decimal.Decimal, error)
}

// Repositories is the set of repositories bound to one connection or unit of work
type Repositories struct {
	Items        ItemRepository
	Customers    CustomerRepository
	Rentals      RentalRepository
	Transactions TransactionRepository
}

// UnitOfWork runs fn with repositories bound to a single transaction. The
// transaction commits only when fn returns nil; any error, panic or context
// cancellation rolls every write back.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Store is the read side plus the unit of work
type Store interface {
	UnitOfWork
	Repos() Repositories
}
