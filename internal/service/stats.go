package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"storepos-backend/internal/domain"
	"storepos-backend/internal/repository"
)

const recentTransactionsLimit = 10

type statsService struct {
	store repository.Store
}

func NewStatsService(store repository.Store) StatsService {
	return &statsService{store: store}
}

// GetStats runs its four independent reads in parallel. The figures are not
// a single snapshot; each is as fresh as its own query.
func (s *statsService) GetStats(ctx context.Context) (*domain.StoreStats, error) {
	repos := s.store.Repos()
	stats := &domain.StoreStats{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.TotalSales, stats.TotalSalesAmount, err = repos.Transactions.SalesSummary(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.OutstandingRentals, err = repos.Rentals.CountOutstanding(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.InventoryItems, err = repos.Items.Count(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.RecentTransactions, err = repos.Transactions.ListRecent(gctx, recentTransactionsLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if stats.RecentTransactions == nil {
		stats.RecentTransactions = []domain.TransactionSummary{}
	}
	return stats, nil
}
