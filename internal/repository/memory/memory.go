// Package memory is an in-process implementation of the repository
// interfaces. Units of work are fully serialized, and a failed unit of work
// restores the state it started from. It backs the service tests and the
// server's -store=memory mode.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storepos-backend/internal/domain"
	"storepos-backend/internal/repository"
)

type state struct {
	items        map[int64]domain.Item
	customers    map[int64]domain.Customer
	rentals      map[int64]domain.Rental
	transactions map[int64]domain.Transaction
	nextID       int64
}

func newState() state {
	return state{
		items:        map[int64]domain.Item{},
		customers:    map[int64]domain.Customer{},
		rentals:      map[int64]domain.Rental{},
		transactions: map[int64]domain.Transaction{},
	}
}

func (s *state) clone() state {
	c := state{
		items:        make(map[int64]domain.Item, len(s.items)),
		customers:    make(map[int64]domain.Customer, len(s.customers)),
		rentals:      make(map[int64]domain.Rental, len(s.rentals)),
		transactions: make(map[int64]domain.Transaction, len(s.transactions)),
		nextID:       s.nextID,
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.rentals {
		c.rentals[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	return c
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

var _ repository.Store = (*Store)(nil)

type Store struct {
	mu  sync.Mutex
	st  state
	now func() time.Time
}

func NewStore() *Store {
	return &Store{st: newState(), now: time.Now}
}

// AddItem seeds an item and returns its id
func (s *Store) AddItem(item domain.Item) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == 0 {
		item.ID = s.st.id()
	} else if item.ID > s.st.nextID {
		s.st.nextID = item.ID
	}
	now := s.now()
	item.CreatedAt, item.UpdatedAt = now, now
	s.st.items[item.ID] = item
	return item.ID
}

// Repos returns repositories that take the store lock per call
func (s *Store) Repos() repository.Repositories {
	return s.bind(false)
}

func (s *Store) bind(inTx bool) repository.Repositories {
	v := &view{store: s, inTx: inTx}
	return repository.Repositories{
		Items:        &itemRepository{v},
		Customers:    &customerRepository{v},
		Rentals:      &rentalRepository{v},
		Transactions: &transactionRepository{v},
	}
}

// WithinTx holds the store lock for the whole of fn. Any error, panic or
// context cancellation puts the state back to where it was.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	committed := false
	defer func() {
		if !committed {
			s.st = snapshot
		}
	}()

	if err := fn(ctx, s.bind(true)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

// view runs repository calls either under the caller's unit of work, which
// already holds the lock, or under a lock of its own.
type view struct {
	store *Store
	inTx  bool
}

func (v *view) do(fn func(st *state)) {
	if !v.inTx {
		v.store.mu.Lock()
		defer v.store.mu.Unlock()
	}
	fn(&v.store.st)
}
