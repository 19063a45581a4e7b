package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	httpapi "storepos-backend/internal/api/http"
	"storepos-backend/internal/config"
	"storepos-backend/internal/logger"
	"storepos-backend/internal/observability"
	"storepos-backend/internal/repository"
	"storepos-backend/internal/repository/memory"
	"storepos-backend/internal/repository/postgres"
	"storepos-backend/internal/security"
	"storepos-backend/internal/service"
	"storepos-backend/internal/utils"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	storeKind := flag.String("store", "postgres", "Backing store: 'postgres' or 'memory' (demo inventory, nothing persisted)")
	issueToken := flag.Int64("issue-token", 0, "Print an access token for the given employee id and exit")
	role := flag.String("role", "cashier", "Role claim for -issue-token")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)
	if *issueToken != 0 {
		token, err := tokenManager.GenerateAccessToken(*issueToken, *role)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Println(token)
		return
	}

	logger.Info("Starting Store POS Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "store", *storeKind)
	logger.Info("Pricing configuration",
		"default_tax_rate", cfg.Pricing.DefaultTaxRate,
		"coupon_discount_rate", cfg.Pricing.CouponDiscountRate,
		"rental_period_days", cfg.Rental.PeriodDays,
		"late_fee_rate_per_day", cfg.Rental.LateFeeRatePerDay)

	// Initialize Tracing
	shutdownTracing, err := observability.SetupTracing(context.Background(), cfg.Tracing)
	if err != nil {
		logger.Error("Failed to set up tracing", "error", err)
		log.Fatalf("Failed to set up tracing: %v", err)
	}

	// Initialize Store
	var store repository.Store
	switch *storeKind {
	case "postgres":
		db, err := openDatabase(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		store = postgres.NewStore(db)
	case "memory":
		mem := memory.NewStore()
		seedDemoInventory(mem)
		store = mem
	default:
		log.Fatalf("Unknown store %q, want 'postgres' or 'memory'", *storeKind)
	}

	// Initialize Services
	pricing := utils.NewPricingCalculator(cfg.Pricing)
	ledger := service.NewInventoryLedger(store)
	recorder := service.NewTransactionRecorder()
	rentals := service.NewRentalManager(store, ledger, recorder, pricing, cfg.Rental, time.Now)
	coordinator := service.NewCoordinator(store, ledger, recorder, rentals, pricing)
	stats := service.NewStatsService(store)

	// Set up HTTP server
	handler := httpapi.NewHandler(coordinator, rentals, ledger, stats)
	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           httpapi.NewRouter(handler, tokenManager, httpapi.OptionsFromConfig(cfg.Server)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		serveErr <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
		}
	case sig := <-sigChan:
		logger.Info("Shutting down...", "signal", sig.String())
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSecs)*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Error("Tracing shutdown failed", "error", err)
	}
	logger.Info("Server stopped. Goodbye!")
}

func openDatabase(cfg *config.Config) (*sql.DB, error) {
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		return nil, err
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	// Test database connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		logger.Error("Failed to ping database", "error", err)
		db.Close()
		return nil, err
	}
	logger.Info("Database connection established")
	return db, nil
}
