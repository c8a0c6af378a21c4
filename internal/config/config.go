package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/stockdash/stockdash-backend/internal/mockseries"
	"github.com/stockdash/stockdash-backend/internal/quotecache"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	AppName string

	// API
	APIPort         int
	APIKey          string
	CORSAllowOrigin string

	// Database
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	// Quote API
	FinnhubAPIKey      string
	FinnhubBaseURL     string
	QuoteRetryAttempts int
	QuoteSeriesDays    int

	// Quote cache
	CacheBackend    string
	CacheSQLitePath string
	CacheTTL        time.Duration

	// Cache warming
	WarmEnabled bool
	WarmCron    string

	CatalogPath string
	BcryptCost  int
	WebhookURL  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppName: envStr("APP_NAME", "StockDash"),

		APIPort:         envInt("API_PORT", 3001),
		APIKey:          envStr("API_KEY", ""),
		CORSAllowOrigin: envStr("CORS_ALLOW_ORIGIN", "*"),

		DBHost:     envStr("DB_HOST", "localhost"),
		DBPort:     envInt("DB_PORT", 5432),
		DBName:     envStr("DB_NAME", "stockdash"),
		DBUser:     envStr("DB_USER", ""),
		DBPassword: envStr("DB_PASSWORD", ""),

		FinnhubAPIKey:      envStr("FINNHUB_API_KEY", ""),
		FinnhubBaseURL:     envStr("FINNHUB_BASE_URL", "https://finnhub.io/api/v1"),
		QuoteRetryAttempts: envInt("QUOTE_RETRY_ATTEMPTS", 1),
		QuoteSeriesDays:    envInt("QUOTE_SERIES_DAYS", 30),

		CacheBackend:    strings.ToLower(envStr("CACHE_BACKEND", quotecache.BackendSQLite)),
		CacheSQLitePath: envStr("CACHE_SQLITE_PATH", "data/quote_cache.db"),
		CacheTTL:        envDuration("CACHE_TTL_HOURS", 24*time.Hour, time.Hour),

		WarmEnabled: envBool("WARM_ENABLED", true),
		WarmCron:    envStr("WARM_CRON", "0 */30 * * * *"),

		CatalogPath: envStr("CATALOG_PATH", ""),
		BcryptCost:  envInt("BCRYPT_COST", bcrypt.DefaultCost),
		WebhookURL:  envStr("WEBHOOK_URL", ""),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Sprintf("API_PORT %d is out of range", c.APIPort))
	}
	if c.DBUser == "" {
		errs = append(errs, "DB_USER is required")
	}
	switch c.CacheBackend {
	case quotecache.BackendSQLite, quotecache.BackendPostgres, quotecache.BackendMemory:
	default:
		errs = append(errs, fmt.Sprintf("CACHE_BACKEND must be one of sqlite, postgres, memory (got %q)", c.CacheBackend))
	}
	if c.CacheBackend == quotecache.BackendSQLite && c.CacheSQLitePath == "" {
		errs = append(errs, "CACHE_SQLITE_PATH is required for the sqlite cache")
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, "CACHE_TTL_HOURS must be positive")
	}
	if c.QuoteSeriesDays <= 0 || c.QuoteSeriesDays > mockseries.MaxLength {
		errs = append(errs, fmt.Sprintf("QUOTE_SERIES_DAYS must be between 1 and %d", mockseries.MaxLength))
	}
	if c.QuoteRetryAttempts <= 0 {
		errs = append(errs, "QUOTE_RETRY_ATTEMPTS must be at least 1")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Sprintf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.WarmEnabled {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(c.WarmCron); err != nil {
			errs = append(errs, fmt.Sprintf("WARM_CRON %q: %v", c.WarmCron, err))
		}
	}

	if c.APIKey == "" {
		fmt.Println("[WARN] API_KEY not set, REST API has no authentication")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c *Config) Print() {
	fmt.Printf("=== %s Backend Configuration ===\n", c.AppName)
	fmt.Printf("API Port: %d\n", c.APIPort)
	fmt.Printf("API Key: %s\n", boolLabel(c.APIKey != "", "configured", "not set"))
	fmt.Printf("CORS Origin: %s\n", c.CORSAllowOrigin)
	fmt.Println("--------------------------------------")
	fmt.Printf("Database: %s@%s:%d/%s\n", c.DBUser, c.DBHost, c.DBPort, c.DBName)
	fmt.Println("--------------------------------------")
	fmt.Println("Quotes:")
	fmt.Printf("  Finnhub: %s (%s)\n", boolLabel(c.FinnhubAPIKey != "", "configured", "not set (mock mode)"), c.FinnhubBaseURL)
	fmt.Printf("  Attempts per call: %d\n", c.QuoteRetryAttempts)
	fmt.Printf("  Series days: %d\n", c.QuoteSeriesDays)
	fmt.Printf("  Cache: %s, ttl %s\n", c.cacheLabel(), c.CacheTTL)
	fmt.Printf("  Warmer: %s\n", boolLabel(c.WarmEnabled, "on ("+c.WarmCron+")", "off"))
	fmt.Println("--------------------------------------")
	fmt.Printf("Catalog: %s\n", boolLabel(c.CatalogPath != "", c.CatalogPath, "built-in"))
	fmt.Printf("Webhook: %s\n", boolLabel(c.WebhookURL != "", "configured", "not set"))
	fmt.Println("======================================")
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func (c *Config) cacheLabel() string {
	if c.CacheBackend == quotecache.BackendSQLite {
		return "sqlite " + c.CacheSQLitePath
	}
	return c.CacheBackend
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// envDuration reads a number of units, e.g. CACHE_TTL_HOURS=12.
func envDuration(key string, fallback, unit time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return time.Duration(f * float64(unit))
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "true" || v == "1" || v == "yes"
	}
	return fallback
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
