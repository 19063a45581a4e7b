package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is a stock-keeping unit. Quantity is the single source of truth for
// what is available to sell or rent and is only written through the ledger.
type Item struct {
	ID        int64           `json:"id"`
	Code      string          `json:"item_code"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Category  *string         `json:"category,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
