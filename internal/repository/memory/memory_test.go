package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storepos-backend/internal/domain"
	"storepos-backend/internal/repository"
	"storepos-backend/internal/repository/memory"
)

func TestStore_WithinTx(t *testing.T) {
	ctx := context.Background()

	t.Run("ErrorRestoresState", func(t *testing.T) {
		store := memory.NewStore()
		id := store.AddItem(domain.Item{Code: "A", Name: "Widget", Price: decimal.NewFromInt(5), Quantity: 10})

		err := store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
			if _, err := repos.Items.AdjustQuantity(ctx, id, -4); err != nil {
				return err
			}
			_, err := repos.Items.AdjustQuantity(ctx, id, -7)
			return err
		})
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)

		item, err := store.Repos().Items.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 10, item.Quantity)
	})

	t.Run("PanicRestoresState", func(t *testing.T) {
		store := memory.NewStore()
		id := store.AddItem(domain.Item{Code: "A", Name: "Widget", Price: decimal.NewFromInt(5), Quantity: 10})

		assert.Panics(t, func() {
			_ = store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
				_, _ = repos.Items.AdjustQuantity(ctx, id, -4)
				panic("boom")
			})
		})

		item, err := store.Repos().Items.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 10, item.Quantity)
	})

	t.Run("CancelledContextDoesNotCommit", func(t *testing.T) {
		store := memory.NewStore()
		id := store.AddItem(domain.Item{Code: "A", Name: "Widget", Price: decimal.NewFromInt(5), Quantity: 10})
		cctx, cancel := context.WithCancel(ctx)

		err := store.WithinTx(cctx, func(ctx context.Context, repos repository.Repositories) error {
			_, err := repos.Items.AdjustQuantity(ctx, id, -4)
			cancel()
			return err
		})
		assert.True(t, errors.Is(err, context.Canceled))

		item, _ := store.Repos().Items.GetByID(ctx, id)
		assert.Equal(t, 10, item.Quantity)
	})

	t.Run("CommitPersists", func(t *testing.T) {
		store := memory.NewStore()
		id := store.AddItem(domain.Item{Code: "A", Name: "Widget", Price: decimal.NewFromInt(5), Quantity: 10})

		err := store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
			_, err := repos.Items.AdjustQuantity(ctx, id, -4)
			return err
		})
		require.NoError(t, err)

		item, _ := store.Repos().Items.GetByID(ctx, id)
		assert.Equal(t, 6, item.Quantity)
	})
}

func TestCustomerRepository_CreateIsIdempotentPerPhone(t *testing.T) {
	store := memory.NewStore()
	repos := store.Repos()
	ctx := context.Background()

	first := &domain.Customer{PhoneNumber: "555-0100"}
	require.NoError(t, repos.Customers.Create(ctx, first))
	second := &domain.Customer{PhoneNumber: "555-0100"}
	require.NoError(t, repos.Customers.Create(ctx, second))

	assert.Equal(t, first.ID, second.ID)
}

func TestRentalRepository_MarkReturnedTwice(t *testing.T) {
	store := memory.NewStore()
	repos := store.Repos()
	ctx := context.Background()

	rt := &domain.Rental{CustomerID: 1, ItemID: 1, Quantity: 1}
	require.NoError(t, repos.Rentals.Create(ctx, rt))

	require.NoError(t, repos.Rentals.MarkReturned(ctx, &domain.Rental{ID: rt.ID}))
	err := repos.Rentals.MarkReturned(ctx, &domain.Rental{ID: rt.ID})
	assert.ErrorIs(t, err, domain.ErrAlreadyReturned)

	n, _ := repos.Rentals.CountOutstanding(ctx)
	assert.Equal(t, int64(0), n)
}
