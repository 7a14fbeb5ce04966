package config

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress      string
	DatabaseURI     string
	LogLevel        slog.Level
	AuthSecret      string
	ShutdownTimeout time.Duration

	PaymentAPIAddress  string
	PaymentSecretKey   string
	PaymentCheckoutURL string
	PaymentTimeout     time.Duration

	TaxRate               decimal.Decimal
	ShippingCost          decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	OrderNumberAttempts   int

	SuccessRedirectURL string
	FailureRedirectURL string
	ErrorRedirectURL   string

	RedisAddress   string
	IdempotencyTTL time.Duration

	OTLPEndpoint string

	SweepInterval  time.Duration
	SweepAfter     time.Duration
	SweepBatch     int
	WorkerPoolSize int
}

const (
	defaultRunAddress          = ":8080"
	defaultAuthSecret          = "change-me-in-production"
	defaultShutdownTimeout     = 10 * time.Second
	defaultPaymentAPIAddress   = "https://api.paystack.co"
	defaultPaymentCheckoutURL  = "https://checkout.paystack.com"
	defaultPaymentTimeout      = 10 * time.Second
	defaultTaxRate             = "0.08"
	defaultShippingCost        = "10"
	defaultFreeShipping        = "100"
	defaultOrderNumberAttempts = 2
	defaultSuccessRedirectURL  = "/orders/success"
	defaultFailureRedirectURL  = "/orders/failed"
	defaultErrorRedirectURL    = "/checkout"
	defaultIdempotencyTTL      = 24 * time.Hour
	defaultSweepInterval       = time.Minute
	defaultSweepAfter          = 30 * time.Minute
	defaultSweepBatch          = 32
	defaultWorkerPoolSize      = 4
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:          getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:         getString(lookup, "DATABASE_URI", ""),
		AuthSecret:          getString(lookup, "AUTH_SECRET", defaultAuthSecret),
		PaymentAPIAddress:   getString(lookup, "PAYMENT_API_ADDRESS", defaultPaymentAPIAddress),
		PaymentSecretKey:    getString(lookup, "PAYMENT_SECRET_KEY", ""),
		PaymentCheckoutURL:  getString(lookup, "PAYMENT_CHECKOUT_URL", defaultPaymentCheckoutURL),
		OrderNumberAttempts: getInt(lookup, "ORDER_NUMBER_ATTEMPTS", defaultOrderNumberAttempts),
		SuccessRedirectURL:  getString(lookup, "SUCCESS_REDIRECT_URL", defaultSuccessRedirectURL),
		FailureRedirectURL:  getString(lookup, "FAILURE_REDIRECT_URL", defaultFailureRedirectURL),
		ErrorRedirectURL:    getString(lookup, "ERROR_REDIRECT_URL", defaultErrorRedirectURL),
		RedisAddress:        getString(lookup, "REDIS_ADDRESS", ""),
		OTLPEndpoint:        getString(lookup, "OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		SweepBatch:          getInt(lookup, "SWEEP_BATCH", defaultSweepBatch),
		WorkerPoolSize:      getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
	}

	fs := flag.NewFlagSet("storefront", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		shutdownTimeoutStr = getString(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout.String())
		paymentTimeoutStr  = getString(lookup, "PAYMENT_TIMEOUT", defaultPaymentTimeout.String())
		idempotencyTTLStr  = getString(lookup, "IDEMPOTENCY_TTL", defaultIdempotencyTTL.String())
		sweepIntervalStr   = getString(lookup, "SWEEP_INTERVAL", defaultSweepInterval.String())
		sweepAfterStr      = getString(lookup, "SWEEP_AFTER", defaultSweepAfter.String())
		taxRateStr         = getString(lookup, "TAX_RATE", defaultTaxRate)
		shippingCostStr    = getString(lookup, "SHIPPING_COST", defaultShippingCost)
		freeShippingStr    = getString(lookup, "FREE_SHIPPING_THRESHOLD", defaultFreeShipping)
		logLevelStr        = getString(lookup, "LOG_LEVEL", "info")
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.PaymentAPIAddress, "p", cfg.PaymentAPIAddress, "Payment processor API base URL")
	fs.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "Secret shared with the auth service")
	fs.StringVar(&cfg.RedisAddress, "redis", cfg.RedisAddress, "Redis address for idempotency keys")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent reconciliation workers")
	fs.IntVar(&cfg.SweepBatch, "sweep-batch", cfg.SweepBatch, "Maximum pending orders per sweep")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.StringVar(&paymentTimeoutStr, "payment-timeout", paymentTimeoutStr, "Payment verification timeout")
	fs.StringVar(&sweepIntervalStr, "sweep-interval", sweepIntervalStr, "Interval between pending order sweeps")
	fs.StringVar(&sweepAfterStr, "sweep-after", sweepAfterStr, "Age after which a pending order is reconciled")
	fs.StringVar(&taxRateStr, "tax-rate", taxRateStr, "Tax rate applied to subtotal")
	fs.StringVar(&logLevelStr, "log-level", logLevelStr, "Log level")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}
	if cfg.PaymentTimeout, err = time.ParseDuration(paymentTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid payment timeout: %w", err)
	}
	if cfg.IdempotencyTTL, err = time.ParseDuration(idempotencyTTLStr); err != nil {
		return nil, fmt.Errorf("invalid idempotency ttl: %w", err)
	}
	if cfg.SweepInterval, err = time.ParseDuration(sweepIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid sweep interval: %w", err)
	}
	if cfg.SweepAfter, err = time.ParseDuration(sweepAfterStr); err != nil {
		return nil, fmt.Errorf("invalid sweep age: %w", err)
	}
	if cfg.TaxRate, err = decimal.NewFromString(taxRateStr); err != nil {
		return nil, fmt.Errorf("invalid tax rate: %w", err)
	}
	if cfg.ShippingCost, err = decimal.NewFromString(shippingCostStr); err != nil {
		return nil, fmt.Errorf("invalid shipping cost: %w", err)
	}
	if cfg.FreeShippingThreshold, err = decimal.NewFromString(freeShippingStr); err != nil {
		return nil, fmt.Errorf("invalid free shipping threshold: %w", err)
	}
	if err = cfg.LogLevel.UnmarshalText([]byte(strings.ToUpper(logLevelStr))); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	if cfg.AuthSecret, err = secretFromFile(lookup, "AUTH_SECRET_FILE", cfg.AuthSecret); err != nil {
		return nil, err
	}
	if cfg.PaymentSecretKey, err = secretFromFile(lookup, "PAYMENT_SECRET_KEY_FILE", cfg.PaymentSecretKey); err != nil {
		return nil, err
	}

	cfg.normalize()

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.PaymentSecretKey == "" {
		return nil, fmt.Errorf("payment secret key must be provided")
	}

	if cfg.TaxRate.IsNegative() || cfg.ShippingCost.IsNegative() || cfg.FreeShippingThreshold.IsNegative() {
		return nil, fmt.Errorf("pricing values must not be negative")
	}

	return cfg, nil
}

func (c *Config) normalize() {
	if c.WorkerPoolSize <= 0 {
		c.WorkerPoolSize = defaultWorkerPoolSize
	}
	if c.SweepBatch <= 0 {
		c.SweepBatch = defaultSweepBatch
	}
	if c.OrderNumberAttempts <= 0 {
		c.OrderNumberAttempts = defaultOrderNumberAttempts
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.PaymentTimeout <= 0 {
		c.PaymentTimeout = defaultPaymentTimeout
	}
	if c.IdempotencyTTL <= 0 {
		c.IdempotencyTTL = defaultIdempotencyTTL
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = defaultSweepInterval
	}
	if c.SweepAfter <= 0 {
		c.SweepAfter = defaultSweepAfter
	}
	c.PaymentAPIAddress = strings.TrimRight(c.PaymentAPIAddress, "/")
	c.PaymentCheckoutURL = strings.TrimRight(c.PaymentCheckoutURL, "/")
}

func secretFromFile(lookup envLookup, key, current string) (string, error) {
	path, ok := lookup(key)
	if !ok || path == "" {
		return current, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(key), err)
	}
	return strings.TrimSpace(string(content)), nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
