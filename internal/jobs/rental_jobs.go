package jobs

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"storepos-backend/internal/logger"
)

// OverdueReport summarises the open rentals past their due date
type OverdueReport struct {
	Count        int
	TotalAccrued decimal.Decimal
	MaxDaysLate  int
}

// ReportOverdueRentals logs every open rental past its due date together with
// the late fee accrued so far. Rentals are not modified; the fee is only
// charged when the item comes back.
func (jr *JobRunner) ReportOverdueRentals() {
	jr.runWithRecovery("ReportOverdueRentals", func(ctx context.Context) error {
		_, err := jr.reportOverdueRentals(ctx)
		return err
	})
}

func (jr *JobRunner) reportOverdueRentals(ctx context.Context) (*OverdueReport, error) {
	overdue, err := jr.services.Rentals.ListOverdue(ctx)
	if err != nil {
		return nil, fmt.Errorf("list overdue rentals: %w", err)
	}

	report := &OverdueReport{TotalAccrued: decimal.Zero}
	for _, o := range overdue {
		report.Count++
		report.TotalAccrued = report.TotalAccrued.Add(o.AccruedFee)
		if o.DaysLate > report.MaxDaysLate {
			report.MaxDaysLate = o.DaysLate
		}
		logger.Debug("Overdue rental",
			"rental_id", o.Rental.ID,
			"customer_id", o.Rental.CustomerID,
			"item", o.ItemName,
			"due_date", o.Rental.DueDate.Format("2006-01-02"),
			"days_late", o.DaysLate,
			"accrued_fee", o.AccruedFee.StringFixed(2))
	}

	logger.Info("Overdue rentals",
		"count", report.Count,
		"total_accrued", report.TotalAccrued.StringFixed(2),
		"max_days_late", report.MaxDaysLate)
	return report, nil
}
