package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"storepos-backend/internal/domain"
	"storepos-backend/internal/logger"
	"storepos-backend/internal/repository"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type transactionRepository struct {
	db querier
}

func NewTransactionRepository(db querier) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

// Create inserts the header and then each line. Both belong to the caller's
// unit of work; a failing line leaves nothing behind once it rolls back.
func (r *transactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	logger.EnterMethod("transactionRepository.Create", "type", t.Type, "lines", len(t.Lines))

	details, err := encodePayload(t.Payload)
	if err != nil {
		return err
	}

	query := `INSERT INTO transactions (transaction_type, employee_id, customer_id, total_amount, tax_amount, discount_amount, coupon_code, status, details, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW()) RETURNING id, created_at`
	logger.DatabaseCall("INSERT", "transactions", "type", t.Type)
	err = r.db.QueryRowContext(ctx, query, t.Type, t.EmployeeID, t.CustomerID, t.TotalAmount, t.TaxAmount, t.DiscountAmount, t.CouponCode, t.Status, details).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		logger.DatabaseResult("INSERT", 0, err, "table", "transactions")
		return err
	}

	lineQuery := `INSERT INTO transaction_items (transaction_id, item_id, quantity, unit_price, subtotal, created_at)
	              VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING id`
	for i := range t.Lines {
		line := &t.Lines[i]
		line.TransactionID = t.ID
		if err := r.db.QueryRowContext(ctx, lineQuery, t.ID, line.ItemID, line.Quantity, line.UnitPrice, line.Subtotal).Scan(&line.ID); err != nil {
			logger.DatabaseResult("INSERT", int64(i), err, "table", "transaction_items", "transactionID", t.ID)
			return fmt.Errorf("insert line %d of transaction %d: %w", i, t.ID, err)
		}
	}
	logger.DatabaseResult("INSERT", int64(len(t.Lines)+1), nil, "transactionID", t.ID)

	logger.ExitMethod("transactionRepository.Create", "transactionID", t.ID)
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	var details []byte
	query := `SELECT id, transaction_type, employee_id, customer_id, total_amount, tax_amount, discount_amount, coupon_code, status, details, created_at
	          FROM transactions WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Type, &t.EmployeeID, &t.CustomerID, &t.TotalAmount, &t.TaxAmount, &t.DiscountAmount, &t.CouponCode, &t.Status, &details, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %d: %w", id, domain.ErrTransactionNotFound)
	}
	if err != nil {
		return nil, err
	}
	if t.Payload, err = decodePayload(t.Type, details); err != nil {
		return nil, fmt.Errorf("transaction %d: %w", id, err)
	}
	if t.Type == domain.TransactionTypeRental {
		ids, err := r.rentalIDs(ctx, id)
		if err != nil {
			return nil, err
		}
		t.Payload = domain.RentalPayload{RentalIDs: ids}
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, transaction_id, item_id, quantity, unit_price, subtotal FROM transaction_items WHERE transaction_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var line domain.TransactionLineItem
		if err := rows.Scan(&line.ID, &line.TransactionID, &line.ItemID, &line.Quantity, &line.UnitPrice, &line.Subtotal); err != nil {
			return nil, err
		}
		t.Lines = append(t.Lines, line)
	}
	return t, rows.Err()
}

func (r *transactionRepository) rentalIDs(ctx context.Context, transactionID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM rentals WHERE transaction_id = $1 ORDER BY id`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *transactionRepository) ListRecent(ctx context.Context, limit int) ([]domain.TransactionSummary, error) {
	query := `SELECT id, transaction_type, total_amount, created_at FROM transactions ORDER BY created_at DESC, id DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TransactionSummary
	for rows.Next() {
		var s domain.TransactionSummary
		if err := rows.Scan(&s.ID, &s.Type, &s.TotalAmount, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *transactionRepository) SalesSummary(ctx context.Context) (int64, decimal.Decimal, error) {
	var count int64
	var total decimal.Decimal
	query := `SELECT COUNT(*), COALESCE(SUM(total_amount), 0) FROM transactions WHERE transaction_type = $1`
	err := r.db.QueryRowContext(ctx, query, domain.TransactionTypeSale).Scan(&count, &total)
	return count, total, err
}

// encodePayload returns the JSONB text for the details column, or nil. Rental
// ids are not stored here: rentals point at their transaction instead.
func encodePayload(p domain.TransactionPayload) (any, error) {
	switch p.(type) {
	case nil, domain.SalePayload, domain.RentalPayload:
		return nil, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", p.Kind(), err)
	}
	return string(b), nil
}

func decodePayload(kind domain.TransactionType, data []byte) (domain.TransactionPayload, error) {
	switch kind {
	case domain.TransactionTypeSale:
		return domain.SalePayload{}, nil
	case domain.TransactionTypeRental:
		return domain.RentalPayload{}, nil
	case domain.TransactionTypeReturn:
		var p domain.ReturnPayload
		if len(data) > 0 {
			if err := json.Unmarshal(data, &p); err != nil {
				return nil, fmt.Errorf("decode return payload: %w", err)
			}
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown transaction type %q", kind)
}
