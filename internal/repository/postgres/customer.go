package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storepos-backend/internal/domain"
	"storepos-backend/internal/repository"
)

const customerColumns = `id, phone_number, name, email, created_at`

type customerRepository struct {
	db querier
}

func NewCustomerRepository(db querier) repository.CustomerRepository {
	return &customerRepository{db: db}
}

func scanCustomer(row *sql.Row) (*domain.Customer, error) {
	c := &domain.Customer{}
	if err := row.Scan(&c.ID, &c.PhoneNumber, &c.Name, &c.Email, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *customerRepository) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	c, err := scanCustomer(r.db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer %d: %w", id, domain.ErrCustomerNotFound)
	}
	return c, err
}

func (r *customerRepository) GetByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	c, err := scanCustomer(r.db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE phone_number = $1`, phone))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer %s: %w", phone, domain.ErrCustomerNotFound)
	}
	return c, err
}

// Create inserts the customer unless the phone number already exists, in
// which case the existing row is loaded into customer instead. Two rentals
// for a brand-new phone number therefore resolve to the same customer.
func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	query := `INSERT INTO customers (phone_number, name, email, created_at)
	          VALUES ($1, $2, $3, NOW())
	          ON CONFLICT (phone_number) DO NOTHING
	          RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, customer.PhoneNumber, customer.Name, customer.Email).Scan(&customer.ID, &customer.CreatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	existing, err := r.GetByPhone(ctx, customer.PhoneNumber)
	if err != nil {
		return err
	}
	*customer = *existing
	return nil
}

func (r *customerRepository) Lock(ctx context.Context, id int64) error {
	var locked int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM customers WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("customer %d: %w", id, domain.ErrCustomerNotFound)
	}
	return err
}
