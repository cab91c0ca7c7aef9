package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application level configuration loaded from environment and
// flags. It is read once at startup and never reloaded.
type Config struct {
	RunAddress  string
	DatabaseURI string
	RedisAddr   string

	LedgerRPCURL       string
	LedgerFallbackURLs []string
	EngineAddress      string

	MinCallInterval  time.Duration
	MaxCallRetries   int
	RetryBaseDelay   time.Duration
	MaxRetryDelay    time.Duration
	ProviderCooldown time.Duration
	CacheTTL         time.Duration

	MaxLoanAmountUnits int64
	LoanDurationDays   int

	SettlementWorkers int
	ReconcileInterval time.Duration
	ShutdownTimeout   time.Duration

	AdminKeyHash string
}

const (
	defaultRunAddress        = ":8080"
	defaultMinCallInterval   = 500 * time.Millisecond
	defaultMaxCallRetries    = 3
	defaultRetryBaseDelay    = 2 * time.Second
	defaultMaxRetryDelay     = time.Minute
	defaultProviderCooldown  = 5 * time.Minute
	defaultCacheTTL          = 15 * time.Second
	defaultMaxLoanUnits      = 50000
	defaultLoanDurationDays  = 7
	defaultSettlementWorkers = 4
	defaultReconcileInterval = time.Minute
	defaultShutdownTimeout   = 10 * time.Second
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:         getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:        getString(lookup, "DATABASE_URI", ""),
		RedisAddr:          getString(lookup, "REDIS_ADDR", ""),
		LedgerRPCURL:       getString(lookup, "LEDGER_RPC_URL", ""),
		EngineAddress:      getString(lookup, "ENGINE_ADDRESS", ""),
		MinCallInterval:    getDuration(lookup, "MIN_CALL_INTERVAL", defaultMinCallInterval),
		MaxCallRetries:     getInt(lookup, "MAX_CALL_RETRIES", defaultMaxCallRetries),
		RetryBaseDelay:     getDuration(lookup, "RETRY_BASE_DELAY", defaultRetryBaseDelay),
		MaxRetryDelay:      getDuration(lookup, "MAX_RETRY_DELAY", defaultMaxRetryDelay),
		ProviderCooldown:   getDuration(lookup, "PROVIDER_COOLDOWN", defaultProviderCooldown),
		CacheTTL:           getDuration(lookup, "CACHE_TTL", defaultCacheTTL),
		MaxLoanAmountUnits: getInt64(lookup, "MAX_LOAN_AMOUNT", defaultMaxLoanUnits),
		LoanDurationDays:   getInt(lookup, "LOAN_DURATION_DAYS", defaultLoanDurationDays),
		SettlementWorkers:  getInt(lookup, "SETTLEMENT_WORKERS", defaultSettlementWorkers),
		ReconcileInterval:  getDuration(lookup, "RECONCILE_INTERVAL", defaultReconcileInterval),
		ShutdownTimeout:    getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		AdminKeyHash:       getString(lookup, "ADMIN_KEY_HASH", ""),
	}

	if fallbacks, ok := lookup("LEDGER_FALLBACK_RPC_URLS"); ok {
		cfg.LedgerFallbackURLs = splitList(fallbacks)
	}

	fs := flag.NewFlagSet("loanledger", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		fallbacksStr       = strings.Join(cfg.LedgerFallbackURLs, ",")
		callIntervalStr    = cfg.MinCallInterval.String()
		cooldownStr        = cfg.ProviderCooldown.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.LedgerRPCURL, "r", cfg.LedgerRPCURL, "Primary ledger RPC URL")
	fs.StringVar(&fallbacksStr, "fallback-rpcs", fallbacksStr, "Comma separated fallback ledger RPC URLs")
	fs.StringVar(&cfg.EngineAddress, "engine", cfg.EngineAddress, "Lending engine contract address")
	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "Redis address for the result cache (optional)")
	fs.StringVar(&callIntervalStr, "call-interval", callIntervalStr, "Minimum delay between ledger calls")
	fs.StringVar(&cooldownStr, "provider-cooldown", cooldownStr, "Failure-list reset window for RPC providers")
	fs.IntVar(&cfg.MaxCallRetries, "call-retries", cfg.MaxCallRetries, "Retry budget for rate-limited ledger calls")
	fs.IntVar(&cfg.SettlementWorkers, "settlement-workers", cfg.SettlementWorkers, "Number of concurrent settlement workers")
	fs.Int64Var(&cfg.MaxLoanAmountUnits, "max-loan", cfg.MaxLoanAmountUnits, "Maximum loan principal in whole units")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	cfg.LedgerFallbackURLs = splitList(fallbacksStr)

	var err error

	if cfg.MinCallInterval, err = time.ParseDuration(callIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid call interval: %w", err)
	}

	if cfg.ProviderCooldown, err = time.ParseDuration(cooldownStr); err != nil {
		return nil, fmt.Errorf("invalid provider cooldown: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if hashFile, ok := lookup("ADMIN_KEY_HASH_FILE"); ok && hashFile != "" {
		content, err := os.ReadFile(hashFile)
		if err != nil {
			return nil, fmt.Errorf("read admin key hash file: %w", err)
		}
		cfg.AdminKeyHash = strings.TrimSpace(string(content))
	}

	if cfg.MinCallInterval <= 0 {
		cfg.MinCallInterval = defaultMinCallInterval
	}
	if cfg.MaxCallRetries <= 0 {
		cfg.MaxCallRetries = defaultMaxCallRetries
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = defaultRetryBaseDelay
	}
	if cfg.MaxRetryDelay < cfg.RetryBaseDelay {
		cfg.MaxRetryDelay = defaultMaxRetryDelay
	}
	if cfg.ProviderCooldown <= 0 {
		cfg.ProviderCooldown = defaultProviderCooldown
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.MaxLoanAmountUnits <= 0 {
		cfg.MaxLoanAmountUnits = defaultMaxLoanUnits
	}
	if cfg.LoanDurationDays <= 0 {
		cfg.LoanDurationDays = defaultLoanDurationDays
	}
	if cfg.SettlementWorkers <= 0 {
		cfg.SettlementWorkers = defaultSettlementWorkers
	}
	if cfg.ReconcileInterval <= 0 {
		cfg.ReconcileInterval = defaultReconcileInterval
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.LedgerRPCURL == "" {
		return nil, fmt.Errorf("ledger RPC URL must be provided")
	}

	if cfg.EngineAddress == "" {
		return nil, fmt.Errorf("engine address must be provided")
	}

	return cfg, nil
}

// ProviderURLs returns the ordered endpoint list, primary first.
func (c *Config) ProviderURLs() []string {
	urls := make([]string, 0, 1+len(c.LedgerFallbackURLs))
	urls = append(urls, c.LedgerRPCURL)
	urls = append(urls, c.LedgerFallbackURLs...)
	return urls
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
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

func getInt64(lookup envLookup, key string, def int64) int64 {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
