package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storepos-backend/internal/domain"
	"storepos-backend/internal/logger"
	"storepos-backend/internal/repository"
)

const rentalColumns = `id, transaction_id, customer_id, item_id, quantity, rental_date, due_date, return_date, is_returned, late_fee, created_at`

type rentalRepository struct {
	db querier
}

func NewRentalRepository(db querier) repository.RentalRepository {
	return &rentalRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRental(row scanner) (*domain.Rental, error) {
	rt := &domain.Rental{}
	err := row.Scan(&rt.ID, &rt.TransactionID, &rt.CustomerID, &rt.ItemID, &rt.Quantity, &rt.RentalDate, &rt.DueDate, &rt.ReturnDate, &rt.IsReturned, &rt.LateFee, &rt.CreatedAt)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *rentalRepository) Create(ctx context.Context, rt *domain.Rental) error {
	query := `INSERT INTO rentals (transaction_id, customer_id, item_id, quantity, rental_date, due_date, is_returned, late_fee, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, false, 0, $7) RETURNING id`
	now := time.Now()
	if err := r.db.QueryRowContext(ctx, query, rt.TransactionID, rt.CustomerID, rt.ItemID, rt.Quantity, rt.RentalDate, rt.DueDate, now).Scan(&rt.ID); err != nil {
		return err
	}
	rt.CreatedAt = now
	return nil
}

func (r *rentalRepository) getOne(ctx context.Context, query string, id int64) (*domain.Rental, error) {
	rt, err := scanRental(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rental %d: %w", id, domain.ErrRentalNotFound)
	}
	return rt, err
}

func (r *rentalRepository) GetByID(ctx context.Context, id int64) (*domain.Rental, error) {
	return r.getOne(ctx, `SELECT `+rentalColumns+` FROM rentals WHERE id = $1`, id)
}

func (r *rentalRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Rental, error) {
	return r.getOne(ctx, `SELECT `+rentalColumns+` FROM rentals WHERE id = $1 FOR UPDATE`, id)
}

// MarkReturned only touches a rental that is still open, so a second return
// of the same rental affects no rows and is reported as ErrAlreadyReturned.
func (r *rentalRepository) MarkReturned(ctx context.Context, rt *domain.Rental) error {
	logger.EnterMethod("rentalRepository.MarkReturned", "rentalID", rt.ID)

	// return_date is a DATE; pin it to the UTC day the late fee was counted in
	var returnDate *time.Time
	if rt.ReturnDate != nil {
		utc := rt.ReturnDate.UTC()
		returnDate = &utc
	}

	query := `UPDATE rentals SET is_returned = true, return_date = $1, late_fee = $2
	          WHERE id = $3 AND is_returned = false`
	logger.DatabaseCall("UPDATE", "rentals.is_returned", "rentalID", rt.ID)
	res, err := r.db.ExecContext(ctx, query, returnDate, rt.LateFee, rt.ID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "rentalID", rt.ID)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	logger.DatabaseResult("UPDATE", n, nil, "rentalID", rt.ID)
	if n == 0 {
		logger.ExitMethodRejected("rentalRepository.MarkReturned", domain.ErrAlreadyReturned, "rentalID", rt.ID)
		return fmt.Errorf("rental %d: %w", rt.ID, domain.ErrAlreadyReturned)
	}
	rt.IsReturned = true
	logger.ExitMethod("rentalRepository.MarkReturned", "rentalID", rt.ID)
	return nil
}

func (r *rentalRepository) list(ctx context.Context, query string, args ...any) ([]domain.Rental, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rentals []domain.Rental
	for rows.Next() {
		rt, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		rentals = append(rentals, *rt)
	}
	return rentals, rows.Err()
}

func (r *rentalRepository) ListOutstandingByCustomer(ctx context.Context, customerID int64) ([]domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals
	          WHERE customer_id = $1 AND is_returned = false ORDER BY due_date, id`
	return r.list(ctx, query, customerID)
}

func (r *rentalRepository) ListOutstanding(ctx context.Context, limit int) ([]domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals
	          WHERE is_returned = false ORDER BY due_date, id LIMIT $1`
	return r.list(ctx, query, limit)
}

func (r *rentalRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals
	          WHERE is_returned = false AND due_date < $1::date ORDER BY due_date, id`
	return r.list(ctx, query, asOf.UTC().Format("2006-01-02"))
}

func (r *rentalRepository) CountOutstanding(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rentals WHERE is_returned = false`).Scan(&n)
	return n, err
}
