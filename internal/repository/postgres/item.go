package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storepos-backend/internal/domain"
	"storepos-backend/internal/logger"
	"storepos-backend/internal/repository"
)

const itemColumns = `id, item_code, name, price, quantity, category, created_at, updated_at`

type itemRepository struct {
	db querier
}

func NewItemRepository(db querier) repository.ItemRepository {
	return &itemRepository{db: db}
}

func scanItem(row scanner) (*domain.Item, error) {
	item := &domain.Item{}
	err := row.Scan(&item.ID, &item.Code, &item.Name, &item.Price, &item.Quantity, &item.Category, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *itemRepository) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	item, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %d: %w", id, domain.ErrItemNotFound)
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// AdjustQuantity is a single conditional UPDATE: the row lock it takes is held
// until the enclosing transaction ends, and the WHERE clause refuses any delta
// that would take the count below zero.
func (r *itemRepository) AdjustQuantity(ctx context.Context, id int64, delta int) (*domain.Item, error) {
	logger.EnterMethod("itemRepository.AdjustQuantity", "itemID", id, "delta", delta)

	query := `UPDATE items SET quantity = quantity + $1, updated_at = NOW()
	          WHERE id = $2 AND quantity + $1 >= 0
	          RETURNING ` + itemColumns
	logger.DatabaseCall("UPDATE", "items.quantity", "itemID", id, "delta", delta)
	item, err := scanItem(r.db.QueryRowContext(ctx, query, delta, id))
	if err == nil {
		logger.DatabaseResult("UPDATE", 1, nil, "itemID", id, "quantity", item.Quantity)
		logger.ExitMethod("itemRepository.AdjustQuantity", "itemID", id, "quantity", item.Quantity)
		return item, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		logger.DatabaseResult("UPDATE", 0, err, "itemID", id)
		return nil, err
	}

	// Nothing updated: either the item does not exist or the stock is short.
	current, err := r.GetByID(ctx, id)
	if err != nil {
		logger.ExitMethodRejected("itemRepository.AdjustQuantity", err, "itemID", id)
		return nil, err
	}
	stockErr := &domain.InsufficientStockError{
		ItemID:    current.ID,
		ItemName:  current.Name,
		Available: current.Quantity,
		Requested: -delta,
	}
	logger.ExitMethodRejected("itemRepository.AdjustQuantity", stockErr, "itemID", id)
	return nil, stockErr
}

func (r *itemRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n)
	return n, err
}
