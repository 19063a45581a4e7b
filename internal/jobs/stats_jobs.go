package jobs

import (
	"context"
	"fmt"

	"storepos-backend/internal/domain"
	"storepos-backend/internal/logger"
)

// ReportStoreStats logs the end-of-day store totals
func (jr *JobRunner) ReportStoreStats() {
	jr.runWithRecovery("ReportStoreStats", func(ctx context.Context) error {
		_, err := jr.reportStoreStats(ctx)
		return err
	})
}

func (jr *JobRunner) reportStoreStats(ctx context.Context) (*domain.StoreStats, error) {
	stats, err := jr.services.Stats.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("get store stats: %w", err)
	}
	logger.Info("Store stats",
		"total_sales", stats.TotalSales,
		"total_sales_amount", stats.TotalSalesAmount.StringFixed(2),
		"outstanding_rentals", stats.OutstandingRentals,
		"inventory_items", stats.InventoryItems)
	return stats, nil
}
