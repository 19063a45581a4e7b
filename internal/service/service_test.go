package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"storepos-backend/internal/config"
	"storepos-backend/internal/domain"
	"storepos-backend/internal/repository/memory"
	"storepos-backend/internal/service"
	"storepos-backend/internal/utils"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type testEnv struct {
	store       *memory.Store
	clock       *fakeClock
	ledger      service.InventoryLedger
	rentals     service.RentalManager
	coordinator service.Coordinator
	stats       service.StatsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Defaults()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	store := memory.NewStore()
	pricing := utils.NewPricingCalculator(cfg.Pricing)
	ledger := service.NewInventoryLedger(store)
	recorder := service.NewTransactionRecorder()
	rentals := service.NewRentalManager(store, ledger, recorder, pricing, cfg.Rental, clock.Now)
	return &testEnv{
		store:       store,
		clock:       clock,
		ledger:      ledger,
		rentals:     rentals,
		coordinator: service.NewCoordinator(store, ledger, recorder, rentals, pricing),
		stats:       service.NewStatsService(store),
	}
}

func (e *testEnv) addItem(name, price string, quantity int) int64 {
	return e.store.AddItem(domain.Item{
		Code:     name,
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Quantity: quantity,
	})
}

func (e *testEnv) quantity(t *testing.T, id int64) int {
	t.Helper()
	item, err := e.store.Repos().Items.GetByID(context.Background(), id)
	require.NoError(t, err)
	return item.Quantity
}

func employee(id int64) *int64 { return &id }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
