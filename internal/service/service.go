package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"storepos-backend/internal/domain"
	"storepos-backend/internal/repository"
)

// Clock returns the current time. Services take one so late fees and due
// dates are reproducible in tests.
type Clock func() time.Time

// LineItem is one requested (item, quantity) pair
type LineItem struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

type SaleCommand struct {
	Items        []LineItem
	EmployeeID   *int64
	CouponCode   string
	Jurisdiction string
}

type RentalCommand struct {
	PhoneNumber string
	Items       []LineItem
	RentalDate  time.Time
	EmployeeID  *int64
}

// RentalResult is what opening rentals produces: one Rental per requested
// item, all linked to the same Rental transaction. Rental is the first of them.
type RentalResult struct {
	Rental      *domain.Rental
	Rentals     []domain.Rental
	Transaction *domain.Transaction
	Customer    *domain.Customer
}

// Availability answers whether quantity units of an item can be taken right now
type Availability struct {
	ItemID    int64 `json:"item_id"`
	Available int   `json:"available"`
	Requested int   `json:"requested"`
	InStock   bool  `json:"in_stock"`
}

// OverdueRental is an open rental past its due date with the fee accrued so far
type OverdueRental struct {
	Rental     domain.Rental
	ItemName   string
	DaysLate   int
	AccruedFee decimal.Decimal
}

// InventoryLedger is the only writer of Item.Quantity
type InventoryLedger interface {
	AdjustQuantity(ctx context.Context, repos repository.Repositories, itemID int64, delta int) (*domain.Item, error)
	CheckAvailability(ctx context.Context, itemID int64, quantity int) (*Availability, error)
}

// RecordRequest is a transaction about to be persisted. Line subtotals are
// derived from the captured unit prices.
type RecordRequest struct {
	Type           domain.TransactionType
	EmployeeID     *int64
	CustomerID     *int64
	Lines          []CapturedLine
	TotalAmount    decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	CouponCode     string
	Payload        domain.TransactionPayload
}

// CapturedLine is a line item with the unit price read at call time
type CapturedLine struct {
	ItemID    int64
	Quantity  int
	UnitPrice decimal.Decimal
}

type TransactionRecorder interface {
	Record(ctx context.Context, repos repository.Repositories, req RecordRequest) (*domain.Transaction, error)
}

// OpenRentalRequest is a rental for a resolved customer
type OpenRentalRequest struct {
	Customer   *domain.Customer
	Items      []LineItem
	RentalDate time.Time
	EmployeeID *int64
}

type RentalManager interface {
	Open(ctx context.Context, repos repository.Repositories, req OpenRentalRequest) (*RentalResult, error)
	Close(ctx context.Context, repos repository.Repositories, rentalID int64, employeeID *int64) (*domain.ReturnResult, error)
	CalculateLateFee(ctx context.Context, rentalID int64) (decimal.Decimal, error)
	GetRental(ctx context.Context, rentalID int64) (*domain.Rental, error)
	ListOutstanding(ctx context.Context, limit int) ([]domain.Rental, error)
	ListOutstandingByCustomer(ctx context.Context, phone string) ([]domain.Rental, error)
	ListOverdue(ctx context.Context) ([]OverdueRental, error)
}

// Coordinator runs each command in a single unit of work
type Coordinator interface {
	CreateSale(ctx context.Context, cmd SaleCommand) (*domain.Transaction, error)
	CreateRental(ctx context.Context, cmd RentalCommand) (*RentalResult, error)
	ProcessReturn(ctx context.Context, rentalID int64, employeeID *int64) (*domain.ReturnResult, error)
	GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error)
}

type StatsService interface {
	GetStats(ctx context.Context) (*domain.StoreStats, error)
}
