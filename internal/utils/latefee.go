package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// StartOfDay truncates t to midnight UTC
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CalculateDueDate returns rentalDate plus the rental period in calendar days
func CalculateDueDate(rentalDate time.Time, periodDays int) time.Time {
	return rentalDate.AddDate(0, 0, periodDays)
}

// DaysLate counts whole calendar days (UTC) from the due date to asOf.
// Anything returned on or before the due date is 0 days late.
func DaysLate(dueDate, asOf time.Time) int {
	due := StartOfDay(dueDate)
	today := StartOfDay(asOf)
	if !today.After(due) {
		return 0
	}
	return int(today.Sub(due).Hours() / 24)
}

// CalculateLateFee is unitPrice × quantity × ratePerDay × daysLate, or zero
// when the rental is not overdue as of asOf
func CalculateLateFee(unitPrice decimal.Decimal, quantity int, ratePerDay decimal.Decimal, dueDate, asOf time.Time) decimal.Decimal {
	days := DaysLate(dueDate, asOf)
	if days == 0 {
		return decimal.Zero
	}
	return unitPrice.
		Mul(decimal.NewFromInt(int64(quantity))).
		Mul(ratePerDay).
		Mul(decimal.NewFromInt(int64(days)))
}
