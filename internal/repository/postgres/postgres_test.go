package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storepos-backend/internal/domain"
	"storepos-backend/internal/repository"
	"storepos-backend/internal/repository/postgres"
)

func TestStore_WithinTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	store := postgres.NewStore(db)
	ctx := context.Background()

	t.Run("CommitsOnSuccess", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM items").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
		mock.ExpectCommit()

		var n int64
		err := store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
			var err error
			n, err = repos.Items.Count(ctx)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("RollsBackOnError", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("DeadlockBecomesConcurrentUpdate", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE items SET quantity").
			WillReturnError(&pq.Error{Code: "40P01", Message: "deadlock detected"})
		mock.ExpectRollback()

		err := store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
			_, err := repos.Items.AdjustQuantity(ctx, 1, -1)
			return err
		})
		assert.ErrorIs(t, err, domain.ErrConcurrentUpdate)
	})

	t.Run("RollsBackOnPanic", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectRollback()

		assert.Panics(t, func() {
			_ = store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
				panic("unexpected")
			})
		})
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
