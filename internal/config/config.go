package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	Pricing   PricingConfig   `yaml:"pricing"`
	Rental    RentalConfig    `yaml:"rental"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host                string  `yaml:"host"`
	Port                int     `yaml:"port"`
	RequestTimeoutSecs  int     `yaml:"request_timeout_seconds"`
	CommandRatePerSec   float64 `yaml:"command_rate_per_second"`
	CommandBurst        int     `yaml:"command_burst"`
	ShutdownTimeoutSecs int     `yaml:"shutdown_timeout_seconds"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// JWTConfig contains employee access token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// PricingConfig contains tax and coupon settings. Rates are fractions (0.06 = 6%).
type PricingConfig struct {
	DefaultTaxRate     float64            `yaml:"default_tax_rate"`
	JurisdictionRates  map[string]float64 `yaml:"jurisdiction_tax_rates"`
	CouponDiscountRate float64            `yaml:"coupon_discount_rate"`
}

// RentalConfig contains rental period and late fee settings
type RentalConfig struct {
	PeriodDays        int     `yaml:"period_days"`
	LateFeeRatePerDay float64 `yaml:"late_fee_rate_per_day"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	ReportOverdueRentals string `yaml:"report_overdue_rentals"`
	ReportStoreStats     string `yaml:"report_store_stats"`
}

// TracingConfig contains OpenTelemetry exporter settings. Tracing is off when Endpoint is empty.
type TracingConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Defaults mirrors the values the store has always run with.
func Defaults() *Config {
	cfg := newConfig()
	cfg.applyDefaults()
	return cfg
}

// newConfig seeds the pricing and rental policy before the file is decoded
// over it. Zero is a legal rate (a tax-free store, no late penalty), so these
// knobs cannot be defaulted after the fact.
func newConfig() *Config {
	return &Config{
		Pricing: PricingConfig{
			DefaultTaxRate:     0.06,
			CouponDiscountRate: 0.10,
		},
		Rental: RentalConfig{
			PeriodDays:        7,
			LateFeeRatePerDay: 0.10,
		},
	}
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	cfg := newConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables if present
	cfg.overrideWithEnv()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Pricing
	if val := os.Getenv("TAX_RATE"); val != "" {
		fmt.Sscanf(val, "%g", &c.Pricing.DefaultTaxRate)
	}
	if val := os.Getenv("COUPON_DISCOUNT"); val != "" {
		fmt.Sscanf(val, "%g", &c.Pricing.CouponDiscountRate)
	}

	// Rental
	if val := os.Getenv("RENTAL_PERIOD_DAYS"); val != "" {
		fmt.Sscanf(val, "%d", &c.Rental.PeriodDays)
	}
	if val := os.Getenv("LATE_FEE_RATE"); val != "" {
		fmt.Sscanf(val, "%g", &c.Rental.LateFeeRatePerDay)
	}

	// Tracing
	if val := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); val != "" {
		c.Tracing.Endpoint = val
	}
}

// applyDefaults fills every unset knob with the store's standing values
func (c *Config) applyDefaults() {
	// Log
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	// Server
	if c.Server.RequestTimeoutSecs == 0 {
		c.Server.RequestTimeoutSecs = 15
	}
	if c.Server.ShutdownTimeoutSecs == 0 {
		c.Server.ShutdownTimeoutSecs = 10
	}
	if c.Server.CommandRatePerSec == 0 {
		c.Server.CommandRatePerSec = 50
	}
	if c.Server.CommandBurst == 0 {
		c.Server.CommandBurst = 100
	}

	// Database pool
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 30
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 8
	}

	// JWT
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 8 * 60 // one shift
	}

	// Pricing
	if c.Pricing.JurisdictionRates == nil {
		c.Pricing.JurisdictionRates = map[string]float64{
			"PA": 0.06,
			"NJ": 0.07,
			"NY": 0.04,
		}
	}

	// Scheduler
	if c.Scheduler.ReportOverdueRentals == "" {
		c.Scheduler.ReportOverdueRentals = "0 0 2 * * *" // 2 AM UTC
	}
	if c.Scheduler.ReportStoreStats == "" {
		c.Scheduler.ReportStoreStats = "0 30 23 * * *" // close of business
	}

	// Tracing
	if c.Tracing.SampleRatio == 0 {
		c.Tracing.SampleRatio = 1
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	c.applyDefaults()

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Database validation
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}

	// Pricing validation
	if c.Pricing.DefaultTaxRate < 0 {
		return fmt.Errorf("default tax rate must not be negative: %g", c.Pricing.DefaultTaxRate)
	}
	for code, rate := range c.Pricing.JurisdictionRates {
		if rate < 0 {
			return fmt.Errorf("tax rate for %s must not be negative: %g", code, rate)
		}
	}
	if c.Pricing.CouponDiscountRate < 0 || c.Pricing.CouponDiscountRate > 1 {
		return fmt.Errorf("coupon discount rate must be between 0 and 1: %g", c.Pricing.CouponDiscountRate)
	}
	c.Pricing.JurisdictionRates = normalizeJurisdictions(c.Pricing.JurisdictionRates)

	// Rental validation
	if c.Rental.PeriodDays < 0 {
		return fmt.Errorf("rental period must not be negative: %d", c.Rental.PeriodDays)
	}
	if c.Rental.LateFeeRatePerDay < 0 {
		return fmt.Errorf("late fee rate must not be negative: %g", c.Rental.LateFeeRatePerDay)
	}

	return nil
}

func normalizeJurisdictions(rates map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(rates))
	for code, rate := range rates {
		out[strings.ToUpper(strings.TrimSpace(code))] = rate
	}
	return out
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
