package service

import (
	"context"
	"fmt"

	"storepos-backend/internal/domain"
	"storepos-backend/internal/logger"
	"storepos-backend/internal/repository"
)

type inventoryLedger struct {
	store repository.Store
}

func NewInventoryLedger(store repository.Store) InventoryLedger {
	return &inventoryLedger{store: store}
}

// AdjustQuantity must be given the repositories of the caller's unit of work.
// The repository performs the check and the write as one step, so two
// concurrent decrements can never both pass the non-negativity check.
func (l *inventoryLedger) AdjustQuantity(ctx context.Context, repos repository.Repositories, itemID int64, delta int) (*domain.Item, error) {
	logger.EnterMethod("inventoryLedger.AdjustQuantity", "itemID", itemID, "delta", delta)
	if delta == 0 {
		return repos.Items.GetByID(ctx, itemID)
	}

	item, err := repos.Items.AdjustQuantity(ctx, itemID, delta)
	if err != nil {
		logger.ExitMethodRejected("inventoryLedger.AdjustQuantity", err, "itemID", itemID)
		return nil, err
	}

	logger.ExitMethod("inventoryLedger.AdjustQuantity", "itemID", itemID, "quantity", item.Quantity)
	return item, nil
}

// CheckAvailability is a read-only snapshot; the answer can change before
// any command acts on it.
func (l *inventoryLedger) CheckAvailability(ctx context.Context, itemID int64, quantity int) (*Availability, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity %d must be at least 1", domain.ErrInvalidLineItem, quantity)
	}
	item, err := l.store.Repos().Items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return &Availability{
		ItemID:    item.ID,
		Available: item.Quantity,
		Requested: quantity,
		InStock:   item.Quantity >= quantity,
	}, nil
}
