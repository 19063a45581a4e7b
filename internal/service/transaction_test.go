package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storepos-backend/internal/domain"
	"storepos-backend/internal/repository"
	"storepos-backend/internal/service"
)

type MockTransactionRepo struct {
	mock.Mock
}

func (m *MockTransactionRepo) Create(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	if args.Error(0) == nil {
		tx.ID = 42
	}
	return args.Error(0)
}

func (m *MockTransactionRepo) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepo) ListRecent(ctx context.Context, limit int) ([]domain.TransactionSummary, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.TransactionSummary), args.Error(1)
}

func (m *MockTransactionRepo) SalesSummary(ctx context.Context) (int64, decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Get(1).(decimal.Decimal), args.Error(2)
}

func TestTransactionRecorder_Record(t *testing.T) {
	ctx := context.Background()
	recorder := service.NewTransactionRecorder()

	t.Run("Success", func(t *testing.T) {
		repo := new(MockTransactionRepo)
		repo.On("Create", ctx, mock.MatchedBy(func(tx *domain.Transaction) bool {
			return tx.Type == domain.TransactionTypeSale &&
				tx.Status == domain.TransactionStatusCompleted &&
				len(tx.Lines) == 2 &&
				tx.Lines[0].Subtotal.Equal(decimal.NewFromInt(60)) &&
				tx.Lines[1].Subtotal.Equal(decimal.RequireFromString("7.5")) &&
				tx.CouponCode != nil && *tx.CouponCode == "SPRING"
		})).Return(nil)

		tx, err := recorder.Record(ctx, repository.Repositories{Transactions: repo}, service.RecordRequest{
			Type: domain.TransactionTypeSale,
			Lines: []service.CapturedLine{
				{ItemID: 1, Quantity: 3, UnitPrice: decimal.NewFromInt(20)},
				{ItemID: 2, Quantity: 3, UnitPrice: decimal.RequireFromString("2.50")},
			},
			TotalAmount: decimal.RequireFromString("71.055"),
			CouponCode:  " SPRING ",
			Payload:     domain.SalePayload{},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(42), tx.ID)
		repo.AssertExpectations(t)
	})

	t.Run("NoCouponLeavesCodeNil", func(t *testing.T) {
		repo := new(MockTransactionRepo)
		repo.On("Create", ctx, mock.MatchedBy(func(tx *domain.Transaction) bool {
			return tx.CouponCode == nil
		})).Return(nil)

		_, err := recorder.Record(ctx, repository.Repositories{Transactions: repo}, service.RecordRequest{
			Type:    domain.TransactionTypeReturn,
			Lines:   []service.CapturedLine{{ItemID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(15)}},
			Payload: domain.ReturnPayload{RentalID: 7},
		})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("RepositoryError", func(t *testing.T) {
		repo := new(MockTransactionRepo)
		boom := errors.New("connection reset")
		repo.On("Create", ctx, mock.Anything).Return(boom)

		_, err := recorder.Record(ctx, repository.Repositories{Transactions: repo}, service.RecordRequest{
			Type:  domain.TransactionTypeSale,
			Lines: []service.CapturedLine{{ItemID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(1)}},
		})
		assert.ErrorIs(t, err, boom)
	})
}
