package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storepos-backend/internal/domain"
	"storepos-backend/internal/service"
)

func TestRentalManager_CalculateLateFee(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := env.addItem("Projector", "15.00", 2)

	result, err := env.coordinator.CreateRental(ctx, service.RentalCommand{
		PhoneNumber: "555-0300",
		Items:       []service.LineItem{{ItemID: id, Quantity: 2}},
	})
	require.NoError(t, err)
	rentalID := result.Rental.ID

	t.Run("NotYetDue", func(t *testing.T) {
		fee, err := env.rentals.CalculateLateFee(ctx, rentalID)
		require.NoError(t, err)
		assert.True(t, fee.IsZero())
	})

	t.Run("Accruing", func(t *testing.T) {
		env.clock.now = env.clock.now.AddDate(0, 0, 7+3)
		fee, err := env.rentals.CalculateLateFee(ctx, rentalID)
		require.NoError(t, err)
		// 15 × 2 × 0.10 × 3
		assert.True(t, fee.Equal(dec("9")), "fee %s", fee)
	})

	t.Run("SettledAfterReturn", func(t *testing.T) {
		_, err := env.coordinator.ProcessReturn(ctx, rentalID, nil)
		require.NoError(t, err)

		env.clock.now = env.clock.now.AddDate(0, 0, 30)
		fee, err := env.rentals.CalculateLateFee(ctx, rentalID)
		require.NoError(t, err)
		assert.True(t, fee.Equal(dec("9")), "fee %s", fee)
	})

	t.Run("UnknownRental", func(t *testing.T) {
		_, err := env.rentals.CalculateLateFee(ctx, 12345)
		assert.ErrorIs(t, err, domain.ErrRentalNotFound)
	})
}

func TestRentalManager_ListOverdue(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	dvd := env.addItem("DVD", "10.00", 5)

	early, err := env.coordinator.CreateRental(ctx, service.RentalCommand{
		PhoneNumber: "555-0400",
		Items:       []service.LineItem{{ItemID: dvd, Quantity: 1}},
	})
	require.NoError(t, err)

	env.clock.now = env.clock.now.AddDate(0, 0, 5)
	_, err = env.coordinator.CreateRental(ctx, service.RentalCommand{
		PhoneNumber: "555-0401",
		Items:       []service.LineItem{{ItemID: dvd, Quantity: 1}},
	})
	require.NoError(t, err)

	// day 9: the first rental is two days late, the second is not due yet
	env.clock.now = env.clock.now.AddDate(0, 0, 4)
	overdue, err := env.rentals.ListOverdue(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, early.Rental.ID, overdue[0].Rental.ID)
	assert.Equal(t, "DVD", overdue[0].ItemName)
	assert.Equal(t, 2, overdue[0].DaysLate)
	assert.True(t, overdue[0].AccruedFee.Equal(dec("2")), "fee %s", overdue[0].AccruedFee)

	outstanding, err := env.rentals.ListOutstanding(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, outstanding, 2)

	outstanding, err = env.rentals.ListOutstanding(ctx, 1)
	require.NoError(t, err)
	require.Len(t, outstanding, 1)
	assert.Equal(t, early.Rental.ID, outstanding[0].ID)
}

func TestInventoryLedger_CheckAvailability(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := env.addItem("Tent", "80.00", 2)

	avail, err := env.ledger.CheckAvailability(ctx, id, 2)
	require.NoError(t, err)
	assert.True(t, avail.InStock)
	assert.Equal(t, 2, avail.Available)

	avail, err = env.ledger.CheckAvailability(ctx, id, 3)
	require.NoError(t, err)
	assert.False(t, avail.InStock)

	_, err = env.ledger.CheckAvailability(ctx, id, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidLineItem)

	_, err = env.ledger.CheckAvailability(ctx, 999, 1)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestStatsService_GetStats(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	stats, err := env.stats.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalSales)
	assert.True(t, stats.TotalSalesAmount.IsZero())
	assert.NotNil(t, stats.RecentTransactions)

	hammer := env.addItem("Hammer", "20.00", 10)
	dvd := env.addItem("DVD", "15.00", 3)
	for i := 0; i < 2; i++ {
		_, err := env.coordinator.CreateSale(ctx, service.SaleCommand{
			Items: []service.LineItem{{ItemID: hammer, Quantity: 3}},
		})
		require.NoError(t, err)
	}
	_, err = env.coordinator.CreateRental(ctx, service.RentalCommand{
		PhoneNumber: "555-0500",
		Items:       []service.LineItem{{ItemID: dvd, Quantity: 1}},
	})
	require.NoError(t, err)

	stats, err = env.stats.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalSales)
	assert.True(t, stats.TotalSalesAmount.Equal(dec("127.20")), "amount %s", stats.TotalSalesAmount)
	assert.Equal(t, int64(1), stats.OutstandingRentals)
	assert.Equal(t, int64(2), stats.InventoryItems)
	assert.Len(t, stats.RecentTransactions, 3)
	assert.Equal(t, domain.TransactionTypeRental, stats.RecentTransactions[0].Type)
}
