package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RentalStatus string

const (
	RentalStatusOpen     RentalStatus = "OPEN"
	RentalStatusReturned RentalStatus = "RETURNED"
)

type Rental struct {
	ID            int64           `json:"id"`
	TransactionID *int64          `json:"transaction_id,omitempty"`
	CustomerID    int64           `json:"customer_id"`
	ItemID        int64           `json:"item_id"`
	Quantity      int             `json:"quantity"`
	RentalDate    time.Time       `json:"rental_date"`
	DueDate       time.Time       `json:"due_date"`
	ReturnDate    *time.Time      `json:"return_date,omitempty"`
	IsReturned    bool            `json:"is_returned"`
	LateFee       decimal.Decimal `json:"late_fee"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (r *Rental) Status() RentalStatus {
	if r.IsReturned {
		return RentalStatusReturned
	}
	return RentalStatusOpen
}

// ReturnResult is what a processed return reports back to the caller.
type ReturnResult struct {
	RentalID     int64           `json:"rental_id"`
	ReturnDate   time.Time       `json:"return_date"`
	LateFee      decimal.Decimal `json:"late_fee"`
	ItemReturned string          `json:"item_returned"`
}
