// Package config handles loading and validating configuration from environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"solana-top-traders/internal/domain"
	"solana-top-traders/internal/solana"
)

// Config holds all configuration values for a ranking run.
type Config struct {
	// Solana RPC
	RPCURL  string
	APIKey  string
	Address string // monitored program

	// Rate gate
	RequestInterval  time.Duration
	RetryBase        time.Duration
	RetryMaxDelay    time.Duration
	RetryMaxAttempts int

	// Window loop
	PageSize      int
	MaxPerWindow  int
	MaxPerPeriod  int
	SnapshotEvery int
	Windows       []domain.Window
	WindowsFile   string

	// Classification and ranking
	DustThreshold       decimal.Decimal
	MinTrades           int
	TopK                int
	Attribution         domain.VolumeAttribution
	ExcludeProgramOwned bool

	// Price
	PriceBase      string
	PriceQuote     string
	BinanceBaseURL string
	RedisAddr      string
	RedisPassword  string
	PriceCacheTTL  time.Duration

	// Report archive
	PostgresDSN   string
	ClickhouseDSN string
	OutDir        string

	// Servers
	MetricsAddr string
	FeedAddr    string
}

// Load reads configuration from environment variables with fallback to .env file.
// Priority order: Environment variables > .env file > hardcoded defaults.
// The result is not validated so callers can apply flag overrides first.
func Load() (*Config, error) {
	// Attempt to load .env file (ignore error if not found)
	_ = godotenv.Load()

	attribution := domain.VolumeAttribution(getEnv("VOLUME_ATTRIBUTION", string(domain.AttributionPerParticipantFull)))

	cfg := &Config{
		// RPC
		RPCURL:  getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		APIKey:  getEnv("SOLANA_API_KEY", ""),
		Address: solana.ResolveProgram(getEnv("MONITORED_ADDRESS", "")),

		// Gate
		RequestInterval:  time.Duration(getEnvInt("REQUEST_INTERVAL_MS", 100)) * time.Millisecond,
		RetryBase:        time.Duration(getEnvInt("RETRY_BASE_MS", 500)) * time.Millisecond,
		RetryMaxDelay:    time.Duration(getEnvInt("RETRY_MAX_DELAY_MS", 30000)) * time.Millisecond,
		RetryMaxAttempts: getEnvInt("RETRY_MAX_ATTEMPTS", 5),

		// Loop
		PageSize:      getEnvInt("PAGE_SIZE", 50),
		MaxPerWindow:  getEnvInt("MAX_TX_PER_WINDOW", 800),
		MaxPerPeriod:  getEnvInt("MAX_TX_PER_PERIOD", 1000),
		SnapshotEvery: getEnvInt("SNAPSHOT_EVERY", 200),
		Windows:       domain.DefaultWindows(),
		WindowsFile:   getEnv("WINDOWS_FILE", ""),

		// Ranking
		DustThreshold:       getEnvDecimal("DUST_THRESHOLD_SOL", decimal.New(1, -3)),
		MinTrades:           getEnvInt("MIN_TRADES", 3),
		TopK:                getEnvInt("TOP_K", 10),
		Attribution:         attribution,
		ExcludeProgramOwned: getEnvBool("EXCLUDE_PROGRAM_OWNED", false),

		// Price
		PriceBase:      getEnv("PRICE_BASE", "SOL"),
		PriceQuote:     getEnv("PRICE_QUOTE", "USDT"),
		BinanceBaseURL: getEnv("BINANCE_BASE_URL", ""),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		PriceCacheTTL:  time.Duration(getEnvInt("PRICE_CACHE_TTL_SECONDS", 60)) * time.Second,

		// Archive
		PostgresDSN:   getEnv("POSTGRES_DSN", ""),
		ClickhouseDSN: getEnv("CLICKHOUSE_DSN", ""),
		OutDir:        getEnv("OUT_DIR", ""),

		// Servers
		MetricsAddr: getEnv("METRICS_ADDR", ""),
		FeedAddr:    getEnv("FEED_ADDR", ""),
	}

	if cfg.WindowsFile != "" {
		windows, err := LoadWindows(cfg.WindowsFile)
		if err != nil {
			return nil, err
		}
		cfg.Windows = windows
	}

	return cfg, nil
}

// windowsFile is the YAML layout of WINDOWS_FILE.
type windowsFile struct {
	Windows []domain.Window `yaml:"windows"`
}

// LoadWindows reads window definitions from a YAML file:
//
//	windows:
//	  - label: 24h
//	    duration: 24h
//	  - label: 7d
//	    duration: 168h
func LoadWindows(path string) ([]domain.Window, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read windows file: %w", err)
	}
	return ParseWindows(data)
}

// ParseWindows decodes window definitions from YAML bytes.
func ParseWindows(data []byte) ([]domain.Window, error) {
	var f windowsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse windows: %w", err)
	}
	if len(f.Windows) == 0 {
		return nil, fmt.Errorf("parse windows: no windows defined")
	}
	for _, w := range f.Windows {
		if err := w.Validate(); err != nil {
			return nil, err
		}
	}
	return f.Windows, nil
}

// Validate checks that required configuration values are set and valid.
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("SOLANA_RPC_URL is required")
	}
	if _, err := url.Parse(c.RPCURL); err != nil {
		return fmt.Errorf("SOLANA_RPC_URL is invalid: %w", err)
	}

	if c.Address == "" {
		return fmt.Errorf("MONITORED_ADDRESS is required")
	}
	if err := solana.ValidateAddress(c.Address); err != nil {
		return fmt.Errorf("MONITORED_ADDRESS: %w", err)
	}

	if c.RequestInterval < 0 {
		return fmt.Errorf("REQUEST_INTERVAL_MS must not be negative")
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1")
	}

	if c.PageSize < 1 || c.PageSize > 1000 {
		return fmt.Errorf("PAGE_SIZE must be between 1 and 1000")
	}
	if c.MaxPerWindow < 1 {
		return fmt.Errorf("MAX_TX_PER_WINDOW must be positive")
	}
	if c.MaxPerPeriod < 1 {
		return fmt.Errorf("MAX_TX_PER_PERIOD must be positive")
	}
	if c.SnapshotEvery < 1 {
		return fmt.Errorf("SNAPSHOT_EVERY must be positive")
	}

	if len(c.Windows) == 0 {
		return fmt.Errorf("at least one window is required")
	}
	for _, w := range c.Windows {
		if err := w.Validate(); err != nil {
			return err
		}
	}

	if !c.DustThreshold.IsPositive() {
		return fmt.Errorf("DUST_THRESHOLD_SOL must be positive")
	}
	if c.MinTrades < 1 {
		return fmt.Errorf("MIN_TRADES must be at least 1")
	}
	if c.TopK < 1 {
		return fmt.Errorf("TOP_K must be at least 1")
	}
	if !c.Attribution.IsValid() {
		return fmt.Errorf("VOLUME_ATTRIBUTION %q is not a known policy", c.Attribution)
	}

	if c.PriceBase == "" || c.PriceQuote == "" {
		return fmt.Errorf("PRICE_BASE and PRICE_QUOTE are required")
	}

	return nil
}

// RPCEndpoint returns the RPC URL with the API key appended as the
// api-key query parameter when one is set.
func (c *Config) RPCEndpoint() string {
	if c.APIKey == "" {
		return c.RPCURL
	}
	u, err := url.Parse(c.RPCURL)
	if err != nil {
		return c.RPCURL
	}
	q := u.Query()
	q.Set("api-key", c.APIKey)
	u.RawQuery = q.Encode()
	return u.String()
}

// MaskedAPIKey returns the API key with most characters hidden for logging.
func (c *Config) MaskedAPIKey() string {
	return maskSecret(c.APIKey)
}

// maskSecret hides all but the first and last 4 characters of a secret.
func maskSecret(s string) string {
	if len(s) <= 8 {
		if len(s) == 0 {
			return "(not set)"
		}
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as an integer or returns a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool retrieves an environment variable as a boolean or returns a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvDecimal retrieves an environment variable as a decimal or returns a default.
func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}
