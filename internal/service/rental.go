package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"storepos-backend/internal/config"
	"storepos-backend/internal/domain"
	"storepos-backend/internal/logger"
	"storepos-backend/internal/repository"
	"storepos-backend/internal/utils"
)

const (
	defaultOutstandingLimit = 100
	maxOutstandingLimit     = 500
)

type rentalManager struct {
	store       repository.Store
	ledger      InventoryLedger
	recorder    TransactionRecorder
	pricing     *utils.PricingCalculator
	periodDays  int
	lateFeeRate decimal.Decimal
	now         Clock
}

func NewRentalManager(
	store repository.Store,
	ledger InventoryLedger,
	recorder TransactionRecorder,
	pricing *utils.PricingCalculator,
	cfg config.RentalConfig,
	clock Clock,
) RentalManager {
	return &rentalManager{
		store:       store,
		ledger:      ledger,
		recorder:    recorder,
		pricing:     pricing,
		periodDays:  cfg.PeriodDays,
		lateFeeRate: decimal.NewFromFloat(cfg.LateFeeRatePerDay),
		now:         clock,
	}
}

// Open creates one rental per requested item for a customer with no open
// rentals. The customer row is locked first so that two opens for the same
// customer cannot both pass the outstanding-rental check.
func (m *rentalManager) Open(ctx context.Context, repos repository.Repositories, req OpenRentalRequest) (*RentalResult, error) {
	logger.EnterMethod("rentalManager.Open", "customerID", req.Customer.ID, "items", len(req.Items))

	if err := validateLineItems(req.Items); err != nil {
		return nil, err
	}
	if err := repos.Customers.Lock(ctx, req.Customer.ID); err != nil {
		return nil, err
	}

	outstanding, err := repos.Rentals.ListOutstandingByCustomer(ctx, req.Customer.ID)
	if err != nil {
		return nil, err
	}
	if len(outstanding) > 0 {
		err := fmt.Errorf("customer %s has %d open rental(s): %w", req.Customer.PhoneNumber, len(outstanding), domain.ErrOutstandingRentalExists)
		logger.ExitMethodRejected("rentalManager.Open", err, "customerID", req.Customer.ID)
		return nil, err
	}

	// Fail fast on stock we can already see is short. The ledger decrement
	// below is what actually guarantees non-negative stock.
	captured := make([]CapturedLine, 0, len(req.Items))
	for _, li := range req.Items {
		item, err := repos.Items.GetByID(ctx, li.ItemID)
		if err != nil {
			return nil, err
		}
		if item.Quantity < li.Quantity {
			err := &domain.InsufficientStockError{ItemID: item.ID, ItemName: item.Name, Available: item.Quantity, Requested: li.Quantity}
			logger.ExitMethodRejected("rentalManager.Open", err, "customerID", req.Customer.ID)
			return nil, err
		}
		captured = append(captured, CapturedLine{ItemID: item.ID, Quantity: li.Quantity, UnitPrice: item.Price})
	}

	rentalDate := req.RentalDate
	if rentalDate.IsZero() {
		rentalDate = m.now()
	}
	rentalDate = utils.StartOfDay(rentalDate)
	dueDate := utils.CalculateDueDate(rentalDate, m.periodDays)

	if err := adjustInOrder(ctx, m.ledger, repos, captured, -1); err != nil {
		return nil, err
	}

	totals, err := m.pricing.CalculateTotal(priceLines(captured), utils.PricingOptions{})
	if err != nil {
		return nil, err
	}
	customerID := req.Customer.ID
	tx, err := m.recorder.Record(ctx, repos, RecordRequest{
		Type:           domain.TransactionTypeRental,
		EmployeeID:     req.EmployeeID,
		CustomerID:     &customerID,
		Lines:          captured,
		TotalAmount:    totals.Total,
		TaxAmount:      totals.Tax,
		DiscountAmount: totals.Discount,
		Payload:        domain.RentalPayload{},
	})
	if err != nil {
		return nil, err
	}

	rentals := make([]domain.Rental, 0, len(captured))
	ids := make([]int64, 0, len(captured))
	for _, line := range captured {
		txID := tx.ID
		rt := domain.Rental{
			TransactionID: &txID,
			CustomerID:    customerID,
			ItemID:        line.ItemID,
			Quantity:      line.Quantity,
			RentalDate:    rentalDate,
			DueDate:       dueDate,
			LateFee:       decimal.Zero,
		}
		if err := repos.Rentals.Create(ctx, &rt); err != nil {
			return nil, fmt.Errorf("create rental for item %d: %w", line.ItemID, err)
		}
		rentals = append(rentals, rt)
		ids = append(ids, rt.ID)
	}
	// The stored header carries no rental ids; reads rebuild them from
	// rentals.transaction_id, so only the returned copy is filled in here.
	tx.Payload = domain.RentalPayload{RentalIDs: ids}

	logger.ExitMethod("rentalManager.Open", "transactionID", tx.ID, "rentals", len(rentals))
	return &RentalResult{
		Rental:      &rentals[0],
		Rentals:     rentals,
		Transaction: tx,
		Customer:    req.Customer,
	}, nil
}

// adjustInOrder applies sign×quantity for every line in item id order, so
// concurrent commands touching the same items lock them in the same order.
func adjustInOrder(ctx context.Context, ledger InventoryLedger, repos repository.Repositories, lines []CapturedLine, sign int) error {
	ordered := make([]CapturedLine, len(lines))
	copy(ordered, lines)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ItemID < ordered[j].ItemID })
	for _, line := range ordered {
		if _, err := ledger.AdjustQuantity(ctx, repos, line.ItemID, sign*line.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Close returns an open rental: the late fee is fixed as of now, the stock
// goes back on the shelf and a Return transaction carries the fee.
func (m *rentalManager) Close(ctx context.Context, repos repository.Repositories, rentalID int64, employeeID *int64) (*domain.ReturnResult, error) {
	logger.EnterMethod("rentalManager.Close", "rentalID", rentalID)

	rental, err := repos.Rentals.GetByIDForUpdate(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if rental.IsReturned {
		err := fmt.Errorf("rental %d: %w", rentalID, domain.ErrAlreadyReturned)
		logger.ExitMethodRejected("rentalManager.Close", err, "rentalID", rentalID)
		return nil, err
	}

	item, err := repos.Items.GetByID(ctx, rental.ItemID)
	if err != nil {
		return nil, err
	}

	returnedAt := m.now()
	fee := utils.CalculateLateFee(item.Price, rental.Quantity, m.lateFeeRate, rental.DueDate, returnedAt)
	rental.ReturnDate = &returnedAt
	rental.LateFee = fee
	if err := repos.Rentals.MarkReturned(ctx, rental); err != nil {
		return nil, err
	}

	if _, err := m.ledger.AdjustQuantity(ctx, repos, rental.ItemID, rental.Quantity); err != nil {
		return nil, err
	}

	customerID := rental.CustomerID
	_, err = m.recorder.Record(ctx, repos, RecordRequest{
		Type:           domain.TransactionTypeReturn,
		EmployeeID:     employeeID,
		CustomerID:     &customerID,
		Lines:          []CapturedLine{{ItemID: item.ID, Quantity: rental.Quantity, UnitPrice: item.Price}},
		TotalAmount:    fee,
		TaxAmount:      decimal.Zero,
		DiscountAmount: decimal.Zero,
		Payload:        domain.ReturnPayload{RentalID: rental.ID, LateFee: fee},
	})
	if err != nil {
		return nil, err
	}

	logger.ExitMethod("rentalManager.Close", "rentalID", rentalID, "lateFee", fee.StringFixed(2))
	return &domain.ReturnResult{
		RentalID:     rental.ID,
		ReturnDate:   returnedAt,
		LateFee:      fee,
		ItemReturned: item.Name,
	}, nil
}

// CalculateLateFee reports the fee a return right now would charge. For a
// rental that is already back it is the fee that was charged.
func (m *rentalManager) CalculateLateFee(ctx context.Context, rentalID int64) (decimal.Decimal, error) {
	repos := m.store.Repos()
	rental, err := repos.Rentals.GetByID(ctx, rentalID)
	if err != nil {
		return decimal.Zero, err
	}
	if rental.IsReturned {
		return rental.LateFee, nil
	}
	item, err := repos.Items.GetByID(ctx, rental.ItemID)
	if err != nil {
		return decimal.Zero, err
	}
	return utils.CalculateLateFee(item.Price, rental.Quantity, m.lateFeeRate, rental.DueDate, m.now()), nil
}

func (m *rentalManager) GetRental(ctx context.Context, rentalID int64) (*domain.Rental, error) {
	return m.store.Repos().Rentals.GetByID(ctx, rentalID)
}

func (m *rentalManager) ListOutstanding(ctx context.Context, limit int) ([]domain.Rental, error) {
	if limit <= 0 {
		limit = defaultOutstandingLimit
	}
	if limit > maxOutstandingLimit {
		limit = maxOutstandingLimit
	}
	return m.store.Repos().Rentals.ListOutstanding(ctx, limit)
}

func (m *rentalManager) ListOutstandingByCustomer(ctx context.Context, phone string) ([]domain.Rental, error) {
	repos := m.store.Repos()
	customer, err := repos.Customers.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	return repos.Rentals.ListOutstandingByCustomer(ctx, customer.ID)
}

func (m *rentalManager) ListOverdue(ctx context.Context) ([]OverdueRental, error) {
	repos := m.store.Repos()
	asOf := m.now()
	rentals, err := repos.Rentals.ListOverdue(ctx, asOf)
	if err != nil {
		return nil, err
	}

	items := make(map[int64]*domain.Item)
	out := make([]OverdueRental, 0, len(rentals))
	for _, rt := range rentals {
		item, ok := items[rt.ItemID]
		if !ok {
			if item, err = repos.Items.GetByID(ctx, rt.ItemID); err != nil {
				return nil, err
			}
			items[rt.ItemID] = item
		}
		out = append(out, OverdueRental{
			Rental:     rt,
			ItemName:   item.Name,
			DaysLate:   utils.DaysLate(rt.DueDate, asOf),
			AccruedFee: utils.CalculateLateFee(item.Price, rt.Quantity, m.lateFeeRate, rt.DueDate, asOf),
		})
	}
	return out, nil
}

func validateLineItems(items []LineItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: no line items", domain.ErrInvalidLineItem)
	}
	for i, li := range items {
		if li.Quantity < 1 {
			return fmt.Errorf("%w: line %d quantity %d must be at least 1", domain.ErrInvalidLineItem, i, li.Quantity)
		}
	}
	return nil
}

func priceLines(lines []CapturedLine) []utils.PriceLine {
	out := make([]utils.PriceLine, len(lines))
	for i, l := range lines {
		out[i] = utils.PriceLine{UnitPrice: l.UnitPrice, Quantity: l.Quantity}
	}
	return out
}
