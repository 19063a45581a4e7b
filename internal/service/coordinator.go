package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storepos-backend/internal/domain"
	"storepos-backend/internal/logger"
	"storepos-backend/internal/repository"
	"storepos-backend/internal/utils"
)

var tracer = otel.Tracer("storepos-backend/service")

type coordinator struct {
	store    repository.Store
	ledger   InventoryLedger
	recorder TransactionRecorder
	rentals  RentalManager
	pricing  *utils.PricingCalculator
}

func NewCoordinator(
	store repository.Store,
	ledger InventoryLedger,
	recorder TransactionRecorder,
	rentals RentalManager,
	pricing *utils.PricingCalculator,
) Coordinator {
	return &coordinator{
		store:    store,
		ledger:   ledger,
		recorder: recorder,
		rentals:  rentals,
		pricing:  pricing,
	}
}

// CreateSale prices the lines at the current item prices, records the sale
// and takes the stock, all or nothing.
func (c *coordinator) CreateSale(ctx context.Context, cmd SaleCommand) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Coordinator.CreateSale", trace.WithAttributes(
		attribute.Int("sale.lines", len(cmd.Items)),
		attribute.String("sale.jurisdiction", cmd.Jurisdiction),
		attribute.Bool("sale.coupon", strings.TrimSpace(cmd.CouponCode) != ""),
	))
	defer span.End()
	logger.EnterMethod("coordinator.CreateSale", "lines", len(cmd.Items))

	if err := validateLineItems(cmd.Items); err != nil {
		return nil, c.fail(span, "coordinator.CreateSale", err)
	}

	var sale *domain.Transaction
	err := c.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		captured := make([]CapturedLine, 0, len(cmd.Items))
		for _, li := range cmd.Items {
			item, err := repos.Items.GetByID(ctx, li.ItemID)
			if err != nil {
				return err
			}
			captured = append(captured, CapturedLine{ItemID: item.ID, Quantity: li.Quantity, UnitPrice: item.Price})
		}

		totals, err := c.pricing.CalculateTotal(priceLines(captured), utils.PricingOptions{
			Jurisdiction: cmd.Jurisdiction,
			CouponCode:   cmd.CouponCode,
		})
		if err != nil {
			return err
		}

		sale, err = c.recorder.Record(ctx, repos, RecordRequest{
			Type:           domain.TransactionTypeSale,
			EmployeeID:     cmd.EmployeeID,
			Lines:          captured,
			TotalAmount:    totals.Total,
			TaxAmount:      totals.Tax,
			DiscountAmount: totals.Discount,
			CouponCode:     cmd.CouponCode,
			Payload:        domain.SalePayload{},
		})
		if err != nil {
			return err
		}

		return adjustInOrder(ctx, c.ledger, repos, captured, -1)
	})
	if err != nil {
		return nil, c.fail(span, "coordinator.CreateSale", err)
	}

	span.SetAttributes(attribute.Int64("transaction.id", sale.ID))
	logger.InfoContext(ctx, "Sale completed", "transactionID", sale.ID, "total", sale.TotalAmount.StringFixed(2))
	logger.ExitMethod("coordinator.CreateSale", "transactionID", sale.ID)
	return sale, nil
}

// CreateRental resolves the customer by phone number, creating it on first
// use, and opens one rental per item.
func (c *coordinator) CreateRental(ctx context.Context, cmd RentalCommand) (*RentalResult, error) {
	ctx, span := tracer.Start(ctx, "Coordinator.CreateRental", trace.WithAttributes(
		attribute.Int("rental.lines", len(cmd.Items)),
	))
	defer span.End()
	logger.EnterMethod("coordinator.CreateRental", "lines", len(cmd.Items))

	phone := strings.TrimSpace(cmd.PhoneNumber)
	if phone == "" {
		return nil, c.fail(span, "coordinator.CreateRental", fmt.Errorf("%w: phone number is required", domain.ErrInvalidRequest))
	}
	if err := validateLineItems(cmd.Items); err != nil {
		return nil, c.fail(span, "coordinator.CreateRental", err)
	}

	var result *RentalResult
	err := c.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		customer := &domain.Customer{PhoneNumber: phone}
		if err := repos.Customers.Create(ctx, customer); err != nil {
			return fmt.Errorf("resolve customer: %w", err)
		}

		var err error
		result, err = c.rentals.Open(ctx, repos, OpenRentalRequest{
			Customer:   customer,
			Items:      cmd.Items,
			RentalDate: cmd.RentalDate,
			EmployeeID: cmd.EmployeeID,
		})
		return err
	})
	if err != nil {
		return nil, c.fail(span, "coordinator.CreateRental", err)
	}

	span.SetAttributes(
		attribute.Int64("transaction.id", result.Transaction.ID),
		attribute.Int64("customer.id", result.Customer.ID),
	)
	logger.InfoContext(ctx, "Rental opened", "transactionID", result.Transaction.ID, "customerID", result.Customer.ID, "rentals", len(result.Rentals))
	logger.ExitMethod("coordinator.CreateRental", "transactionID", result.Transaction.ID)
	return result, nil
}

func (c *coordinator) ProcessReturn(ctx context.Context, rentalID int64, employeeID *int64) (*domain.ReturnResult, error) {
	ctx, span := tracer.Start(ctx, "Coordinator.ProcessReturn", trace.WithAttributes(
		attribute.Int64("rental.id", rentalID),
	))
	defer span.End()
	logger.EnterMethod("coordinator.ProcessReturn", "rentalID", rentalID)

	var result *domain.ReturnResult
	err := c.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		result, err = c.rentals.Close(ctx, repos, rentalID, employeeID)
		return err
	})
	if err != nil {
		return nil, c.fail(span, "coordinator.ProcessReturn", err)
	}

	span.SetAttributes(attribute.String("rental.late_fee", result.LateFee.String()))
	logger.InfoContext(ctx, "Rental returned", "rentalID", rentalID, "lateFee", result.LateFee.StringFixed(2))
	logger.ExitMethod("coordinator.ProcessReturn", "rentalID", rentalID)
	return result, nil
}

func (c *coordinator) GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	return c.store.Repos().Transactions.GetByID(ctx, id)
}

// fail records err on the span and logs it: business rule rejections at
// warn, everything else at error. err is returned unchanged.
func (c *coordinator) fail(span trace.Span, method string, err error) error {
	span.RecordError(err)
	if IsRejection(err) {
		span.SetStatus(codes.Error, "rejected")
		logger.ExitMethodRejected(method, err)
		return err
	}
	span.SetStatus(codes.Error, err.Error())
	logger.ExitMethodWithError(method, err)
	return err
}

// IsRejection reports whether err is a command refused by a business rule
// rather than a failure of the system.
func IsRejection(err error) bool {
	for _, target := range []error{
		domain.ErrInvalidRequest,
		domain.ErrInvalidLineItem,
		domain.ErrItemNotFound,
		domain.ErrInsufficientStock,
		domain.ErrRentalNotFound,
		domain.ErrAlreadyReturned,
		domain.ErrOutstandingRentalExists,
		domain.ErrCustomerNotFound,
		domain.ErrTransactionNotFound,
		domain.ErrConcurrentUpdate,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
