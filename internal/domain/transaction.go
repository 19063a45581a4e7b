package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeSale   TransactionType = "Sale"
	TransactionTypeRental TransactionType = "Rental"
	TransactionTypeReturn TransactionType = "Return"
)

const TransactionStatusCompleted = "Completed"

// TransactionPayload carries the kind-specific part of a transaction.
// Implementations: SalePayload, RentalPayload, ReturnPayload.
type TransactionPayload interface {
	Kind() TransactionType
}

type SalePayload struct{}

func (SalePayload) Kind() TransactionType { return TransactionTypeSale }

type RentalPayload struct {
	RentalIDs []int64 `json:"rental_ids"`
}

func (RentalPayload) Kind() TransactionType { return TransactionTypeRental }

type ReturnPayload struct {
	RentalID int64           `json:"rental_id"`
	LateFee  decimal.Decimal `json:"late_fee"`
}

func (ReturnPayload) Kind() TransactionType { return TransactionTypeReturn }

type Transaction struct {
	ID             int64                 `json:"id"`
	Type           TransactionType       `json:"transaction_type"`
	EmployeeID     *int64                `json:"employee_id,omitempty"`
	CustomerID     *int64                `json:"customer_id,omitempty"`
	TotalAmount    decimal.Decimal       `json:"total_amount"`
	TaxAmount      decimal.Decimal       `json:"tax_amount"`
	DiscountAmount decimal.Decimal       `json:"discount_amount"`
	CouponCode     *string               `json:"coupon_code,omitempty"`
	Status         string                `json:"status"`
	Payload        TransactionPayload    `json:"payload,omitempty"`
	Lines          []TransactionLineItem `json:"items"`
	CreatedAt      time.Time             `json:"created_at"`
}

// RelatedRentalID returns the rental a Return transaction closes.
func (t *Transaction) RelatedRentalID() *int64 {
	if p, ok := t.Payload.(ReturnPayload); ok {
		id := p.RentalID
		return &id
	}
	return nil
}

type TransactionLineItem struct {
	ID            int64           `json:"id"`
	TransactionID int64           `json:"transaction_id"`
	ItemID        int64           `json:"item_id"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

type TransactionSummary struct {
	ID          int64           `json:"id"`
	Type        TransactionType `json:"type"`
	TotalAmount decimal.Decimal `json:"amount"`
	CreatedAt   time.Time       `json:"date"`
}

type StoreStats struct {
	TotalSales         int64                `json:"total_sales"`
	TotalSalesAmount   decimal.Decimal      `json:"total_sales_amount"`
	OutstandingRentals int64                `json:"active_rentals"`
	InventoryItems     int64                `json:"inventory_items"`
	RecentTransactions []TransactionSummary `json:"recent_transactions"`
}
