package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"storepos-backend/internal/domain"
	"storepos-backend/internal/utils"
)

type itemRepository struct{ v *view }

func (r *itemRepository) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	var out *domain.Item
	r.v.do(func(st *state) {
		if item, ok := st.items[id]; ok {
			out = &item
		}
	})
	if out == nil {
		return nil, fmt.Errorf("item %d: %w", id, domain.ErrItemNotFound)
	}
	return out, nil
}

func (r *itemRepository) AdjustQuantity(ctx context.Context, id int64, delta int) (*domain.Item, error) {
	var out *domain.Item
	var err error
	r.v.do(func(st *state) {
		item, ok := st.items[id]
		if !ok {
			err = fmt.Errorf("item %d: %w", id, domain.ErrItemNotFound)
			return
		}
		if item.Quantity+delta < 0 {
			err = &domain.InsufficientStockError{ItemID: id, ItemName: item.Name, Available: item.Quantity, Requested: -delta}
			return
		}
		item.Quantity += delta
		item.UpdatedAt = r.v.store.now()
		st.items[id] = item
		out = &item
	})
	return out, err
}

func (r *itemRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	r.v.do(func(st *state) { n = int64(len(st.items)) })
	return n, nil
}

type customerRepository struct{ v *view }

func (r *customerRepository) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	var out *domain.Customer
	r.v.do(func(st *state) {
		if c, ok := st.customers[id]; ok {
			out = &c
		}
	})
	if out == nil {
		return nil, fmt.Errorf("customer %d: %w", id, domain.ErrCustomerNotFound)
	}
	return out, nil
}

func findByPhone(st *state, phone string) (domain.Customer, bool) {
	for _, c := range st.customers {
		if c.PhoneNumber == phone {
			return c, true
		}
	}
	return domain.Customer{}, false
}

func (r *customerRepository) GetByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	var out *domain.Customer
	r.v.do(func(st *state) {
		if c, ok := findByPhone(st, phone); ok {
			out = &c
		}
	})
	if out == nil {
		return nil, fmt.Errorf("customer %s: %w", phone, domain.ErrCustomerNotFound)
	}
	return out, nil
}

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	r.v.do(func(st *state) {
		if existing, ok := findByPhone(st, customer.PhoneNumber); ok {
			*customer = existing
			return
		}
		customer.ID = st.id()
		customer.CreatedAt = r.v.store.now()
		st.customers[customer.ID] = *customer
	})
	return nil
}

// Lock only checks existence: the unit of work already excludes everyone else.
func (r *customerRepository) Lock(ctx context.Context, id int64) error {
	_, err := r.GetByID(ctx, id)
	return err
}

type rentalRepository struct{ v *view }

func (r *rentalRepository) Create(ctx context.Context, rt *domain.Rental) error {
	r.v.do(func(st *state) {
		rt.ID = st.id()
		rt.CreatedAt = r.v.store.now()
		rt.IsReturned = false
		rt.LateFee = decimal.Zero
		st.rentals[rt.ID] = *rt
	})
	return nil
}

func (r *rentalRepository) GetByID(ctx context.Context, id int64) (*domain.Rental, error) {
	var out *domain.Rental
	r.v.do(func(st *state) {
		if rt, ok := st.rentals[id]; ok {
			out = &rt
		}
	})
	if out == nil {
		return nil, fmt.Errorf("rental %d: %w", id, domain.ErrRentalNotFound)
	}
	return out, nil
}

func (r *rentalRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Rental, error) {
	return r.GetByID(ctx, id)
}

func (r *rentalRepository) MarkReturned(ctx context.Context, rt *domain.Rental) error {
	var err error
	r.v.do(func(st *state) {
		stored, ok := st.rentals[rt.ID]
		if !ok {
			err = fmt.Errorf("rental %d: %w", rt.ID, domain.ErrRentalNotFound)
			return
		}
		if stored.IsReturned {
			err = fmt.Errorf("rental %d: %w", rt.ID, domain.ErrAlreadyReturned)
			return
		}
		stored.IsReturned = true
		stored.ReturnDate = rt.ReturnDate
		stored.LateFee = rt.LateFee
		st.rentals[rt.ID] = stored
		rt.IsReturned = true
	})
	return err
}

func (r *rentalRepository) filter(keep func(domain.Rental) bool) []domain.Rental {
	var out []domain.Rental
	r.v.do(func(st *state) {
		for _, rt := range st.rentals {
			if keep(rt) {
				out = append(out, rt)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *rentalRepository) ListOutstandingByCustomer(ctx context.Context, customerID int64) ([]domain.Rental, error) {
	return r.filter(func(rt domain.Rental) bool {
		return !rt.IsReturned && rt.CustomerID == customerID
	}), nil
}

func (r *rentalRepository) ListOutstanding(ctx context.Context, limit int) ([]domain.Rental, error) {
	out := r.filter(func(rt domain.Rental) bool { return !rt.IsReturned })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *rentalRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]domain.Rental, error) {
	today := utils.StartOfDay(asOf)
	return r.filter(func(rt domain.Rental) bool {
		return !rt.IsReturned && utils.StartOfDay(rt.DueDate).Before(today)
	}), nil
}

func (r *rentalRepository) CountOutstanding(ctx context.Context) (int64, error) {
	var n int64
	r.v.do(func(st *state) {
		for _, rt := range st.rentals {
			if !rt.IsReturned {
				n++
			}
		}
	})
	return n, nil
}

type transactionRepository struct{ v *view }

func (r *transactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	r.v.do(func(st *state) {
		t.ID = st.id()
		t.CreatedAt = r.v.store.now()
		for i := range t.Lines {
			t.Lines[i].ID = st.id()
			t.Lines[i].TransactionID = t.ID
		}
		stored := *t
		stored.Lines = append([]domain.TransactionLineItem(nil), t.Lines...)
		st.transactions[t.ID] = stored
	})
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	var out *domain.Transaction
	r.v.do(func(st *state) {
		t, ok := st.transactions[id]
		if !ok {
			return
		}
		t.Lines = append([]domain.TransactionLineItem(nil), t.Lines...)
		if t.Type == domain.TransactionTypeRental {
			var ids []int64
			for _, rt := range st.rentals {
				if rt.TransactionID != nil && *rt.TransactionID == id {
					ids = append(ids, rt.ID)
				}
			}
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
			t.Payload = domain.RentalPayload{RentalIDs: ids}
		}
		out = &t
	})
	if out == nil {
		return nil, fmt.Errorf("transaction %d: %w", id, domain.ErrTransactionNotFound)
	}
	return out, nil
}

func (r *transactionRepository) ListRecent(ctx context.Context, limit int) ([]domain.TransactionSummary, error) {
	var out []domain.TransactionSummary
	r.v.do(func(st *state) {
		for _, t := range st.transactions {
			out = append(out, domain.TransactionSummary{ID: t.ID, Type: t.Type, TotalAmount: t.TotalAmount, CreatedAt: t.CreatedAt})
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *transactionRepository) SalesSummary(ctx context.Context) (int64, decimal.Decimal, error) {
	var count int64
	total := decimal.Zero
	r.v.do(func(st *state) {
		for _, t := range st.transactions {
			if t.Type == domain.TransactionTypeSale {
				count++
				total = total.Add(t.TotalAmount)
			}
		}
	})
	return count, total, nil
}
