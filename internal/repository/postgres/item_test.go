package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storepos-backend/internal/domain"
	"storepos-backend/internal/repository/postgres"
)

var itemCols = []string{"id", "item_code", "name", "price", "quantity", "category", "created_at", "updated_at"}

func TestItemRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewItemRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM items WHERE id = \\$1").
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows(itemCols).AddRow(1, "DVD-001", "Movie", "15.00", 4, nil, time.Now(), time.Now()))

		item, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Movie", item.Name)
		assert.True(t, item.Price.Equal(decimal.NewFromInt(15)))
		assert.Equal(t, 4, item.Quantity)
		assert.Nil(t, item.Category)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM items WHERE id = \\$1").
			WithArgs(int64(99)).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, 99)
		assert.ErrorIs(t, err, domain.ErrItemNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepository_AdjustQuantity(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewItemRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("UPDATE items SET quantity = quantity \\+ \\$1(.+)WHERE id = \\$2 AND quantity \\+ \\$1 >= 0").
			WithArgs(-3, int64(1)).
			WillReturnRows(sqlmock.NewRows(itemCols).AddRow(1, "TOOL-1", "Hammer", "20.00", 7, "tools", time.Now(), time.Now()))

		item, err := repo.AdjustQuantity(ctx, 1, -3)
		require.NoError(t, err)
		assert.Equal(t, 7, item.Quantity)
		require.NotNil(t, item.Category)
		assert.Equal(t, "tools", *item.Category)
	})

	t.Run("InsufficientStock", func(t *testing.T) {
		mock.ExpectQuery("UPDATE items SET quantity").
			WithArgs(-5, int64(2)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("SELECT (.+) FROM items WHERE id = \\$1").
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows(itemCols).AddRow(2, "TOOL-2", "Saw", "12.50", 2, nil, time.Now(), time.Now()))

		_, err := repo.AdjustQuantity(ctx, 2, -5)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)

		var stockErr *domain.InsufficientStockError
		require.True(t, errors.As(err, &stockErr))
		assert.Equal(t, 2, stockErr.Available)
		assert.Equal(t, 5, stockErr.Requested)
		assert.Equal(t, "insufficient stock for item Saw. Available: 2, Requested: 5", stockErr.Error())
	})

	t.Run("ItemNotFound", func(t *testing.T) {
		mock.ExpectQuery("UPDATE items SET quantity").
			WithArgs(1, int64(42)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("SELECT (.+) FROM items WHERE id = \\$1").
			WithArgs(int64(42)).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.AdjustQuantity(ctx, 42, 1)
		assert.ErrorIs(t, err, domain.ErrItemNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepository_Count(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM items").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	n, err := postgres.NewItemRepository(db).Count(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(12), n)
}
