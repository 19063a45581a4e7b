package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest          = errors.New("invalid request")
	ErrInvalidLineItem         = errors.New("invalid line item")
	ErrItemNotFound            = errors.New("item not found")
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrRentalNotFound          = errors.New("rental not found")
	ErrAlreadyReturned         = errors.New("rental already returned")
	ErrOutstandingRentalExists = errors.New("customer has outstanding rentals")
	ErrCustomerNotFound        = errors.New("customer not found")
	ErrTransactionNotFound     = errors.New("transaction not found")

	// ErrConcurrentUpdate is returned when the database aborted the unit of
	// work because of a deadlock or serialization failure. Nothing was written.
	ErrConcurrentUpdate = errors.New("concurrent update, please retry")
)

// InsufficientStockError reports how much stock an item had when a request
// for more was rejected.
type InsufficientStockError struct {
	ItemID    int64
	ItemName  string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	name := e.ItemName
	if name == "" {
		name = fmt.Sprintf("%d", e.ItemID)
	}
	return fmt.Sprintf("insufficient stock for item %s. Available: %d, Requested: %d", name, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
