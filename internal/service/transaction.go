package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"storepos-backend/internal/domain"
	"storepos-backend/internal/logger"
	"storepos-backend/internal/repository"
)

type transactionRecorder struct{}

func NewTransactionRecorder() TransactionRecorder {
	return &transactionRecorder{}
}

// Record writes one transaction and its lines and touches nothing else.
func (r *transactionRecorder) Record(ctx context.Context, repos repository.Repositories, req RecordRequest) (*domain.Transaction, error) {
	logger.EnterMethod("transactionRecorder.Record", "type", req.Type, "lines", len(req.Lines))

	tx := &domain.Transaction{
		Type:           req.Type,
		EmployeeID:     req.EmployeeID,
		CustomerID:     req.CustomerID,
		TotalAmount:    req.TotalAmount,
		TaxAmount:      req.TaxAmount,
		DiscountAmount: req.DiscountAmount,
		Status:         domain.TransactionStatusCompleted,
		Payload:        req.Payload,
		Lines:          make([]domain.TransactionLineItem, 0, len(req.Lines)),
	}
	if code := strings.TrimSpace(req.CouponCode); code != "" {
		tx.CouponCode = &code
	}
	for _, line := range req.Lines {
		tx.Lines = append(tx.Lines, domain.TransactionLineItem{
			ItemID:    line.ItemID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Subtotal:  line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))),
		})
	}

	if err := repos.Transactions.Create(ctx, tx); err != nil {
		logger.ExitMethodWithError("transactionRecorder.Record", err, "type", req.Type)
		return nil, err
	}

	logger.ExitMethod("transactionRecorder.Record", "transactionID", tx.ID)
	return tx, nil
}
