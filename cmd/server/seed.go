package main

import (
	"github.com/shopspring/decimal"

	"storepos-backend/internal/domain"
	"storepos-backend/internal/logger"
	"storepos-backend/internal/repository/memory"
)

func category(c string) *string { return &c }

// seedDemoInventory stocks the memory store so the API can be tried out
// without a database.
func seedDemoInventory(store *memory.Store) {
	items := []domain.Item{
		{Code: "HW-HAMMER", Name: "Claw Hammer", Price: decimal.RequireFromString("20.00"), Quantity: 25, Category: category("Hardware")},
		{Code: "HW-DRILL", Name: "Cordless Drill", Price: decimal.RequireFromString("89.99"), Quantity: 8, Category: category("Hardware")},
		{Code: "AV-DVDP", Name: "DVD Player", Price: decimal.RequireFromString("15.00"), Quantity: 4, Category: category("Rental")},
		{Code: "AV-PROJ", Name: "Projector", Price: decimal.RequireFromString("45.00"), Quantity: 2, Category: category("Rental")},
		{Code: "GR-BAG", Name: "Paper Bag", Price: decimal.Zero, Quantity: 500},
	}
	for _, it := range items {
		id := store.AddItem(it)
		logger.Debug("Seeded item", "id", id, "code", it.Code, "quantity", it.Quantity)
	}
	logger.Info("Memory store seeded", "items", len(items))
}
