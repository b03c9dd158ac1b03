package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-top-traders/internal/domain"
)

const raydiumAMM = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MONITORED_ADDRESS", raydiumAMM)

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 100*time.Millisecond, cfg.RequestInterval)
	assert.Equal(t, 5, cfg.RetryMaxAttempts)
	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, 800, cfg.MaxPerWindow)
	assert.Equal(t, 1000, cfg.MaxPerPeriod)
	assert.Equal(t, 200, cfg.SnapshotEvery)
	assert.Equal(t, 3, cfg.MinTrades)
	assert.Equal(t, 10, cfg.TopK)
	assert.True(t, cfg.DustThreshold.Equal(decimal.RequireFromString("0.001")))
	assert.Equal(t, domain.AttributionPerParticipantFull, cfg.Attribution)
	assert.Equal(t, domain.DefaultWindows(), cfg.Windows)
	assert.False(t, cfg.ExcludeProgramOwned)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MONITORED_ADDRESS", raydiumAMM)
	t.Setenv("REQUEST_INTERVAL_MS", "250")
	t.Setenv("TOP_K", "5")
	t.Setenv("DUST_THRESHOLD_SOL", "0.01")
	t.Setenv("VOLUME_ATTRIBUTION", "SPLIT_EVENLY")
	t.Setenv("EXCLUDE_PROGRAM_OWNED", "true")
	t.Setenv("PAGE_SIZE", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.RequestInterval)
	assert.Equal(t, 5, cfg.TopK)
	assert.True(t, cfg.DustThreshold.Equal(decimal.RequireFromString("0.01")))
	assert.Equal(t, domain.AttributionSplitEvenly, cfg.Attribution)
	assert.True(t, cfg.ExcludeProgramOwned)
	assert.Equal(t, 50, cfg.PageSize, "unparseable values fall back to the default")
}

func TestLoad_WindowsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "windows.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
windows:
  - label: 1h
    duration: 1h
  - label: 7d
    duration: 168h
`), 0o644))

	t.Setenv("MONITORED_ADDRESS", raydiumAMM)
	t.Setenv("WINDOWS_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []domain.Window{
		{Label: "1h", Duration: time.Hour},
		{Label: "7d", Duration: 168 * time.Hour},
	}, cfg.Windows)
}

func TestParseWindows_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", "windows: []"},
		{"missing label", "windows:\n  - duration: 1h\n"},
		{"zero duration", "windows:\n  - label: x\n    duration: 0s\n"},
		{"bad duration", "windows:\n  - label: x\n    duration: 7d\n"},
		{"not yaml", "windows: [:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWindows([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func validConfig() *Config {
	return &Config{
		RPCURL:           "https://rpc.example.com",
		Address:          raydiumAMM,
		RequestInterval:  100 * time.Millisecond,
		RetryMaxAttempts: 5,
		PageSize:         50,
		MaxPerWindow:     800,
		MaxPerPeriod:     1000,
		SnapshotEvery:    200,
		Windows:          domain.DefaultWindows(),
		DustThreshold:    decimal.New(1, -3),
		MinTrades:        3,
		TopK:             10,
		Attribution:      domain.AttributionPerParticipantFull,
		PriceBase:        "SOL",
		PriceQuote:       "USDT",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing address", func(c *Config) { c.Address = "" }},
		{"bad address", func(c *Config) { c.Address = "not-base58-0OIl" }},
		{"short address", func(c *Config) { c.Address = "abc" }},
		{"zero attempts", func(c *Config) { c.RetryMaxAttempts = 0 }},
		{"page too large", func(c *Config) { c.PageSize = 5000 }},
		{"zero window cap", func(c *Config) { c.MaxPerWindow = 0 }},
		{"zero period cap", func(c *Config) { c.MaxPerPeriod = 0 }},
		{"zero snapshot", func(c *Config) { c.SnapshotEvery = 0 }},
		{"no windows", func(c *Config) { c.Windows = nil }},
		{"zero dust", func(c *Config) { c.DustThreshold = decimal.Zero }},
		{"zero top k", func(c *Config) { c.TopK = 0 }},
		{"unknown attribution", func(c *Config) { c.Attribution = "EVERYONE" }},
		{"missing quote", func(c *Config) { c.PriceQuote = "" }},
	}

	require.NoError(t, validConfig().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRPCEndpoint(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "https://rpc.example.com", cfg.RPCEndpoint())

	cfg.APIKey = "abcd1234efgh5678"
	assert.Equal(t, "https://rpc.example.com?api-key=abcd1234efgh5678", cfg.RPCEndpoint())
	assert.Equal(t, "abcd****5678", cfg.MaskedAPIKey())

	cfg.APIKey = ""
	assert.Equal(t, "(not set)", cfg.MaskedAPIKey())
}
