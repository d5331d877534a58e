package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORE_BACKEND", "")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, BackendDynamoDB, cfg.StoreBackend)
	assert.Equal(t, 5*time.Minute, cfg.CacheDefaultTTL)
	assert.Equal(t, 15*time.Minute, cfg.VoteStatsTTL)
	assert.Equal(t, "UserCreatedIndex", cfg.VotesByUserIndex)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Memory")
	t.Setenv("CACHE_DEFAULT_TTL", "90s")
	t.Setenv("BREAKER_FAILURE_THRESHOLD", "0.5")
	t.Setenv("BREAKER_MIN_REQUESTS", "10")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("ENABLE_TRACING", "1")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 90*time.Second, cfg.CacheDefaultTTL)
	assert.Equal(t, 0.5, cfg.BreakerFailureThreshold)
	assert.Equal(t, uint32(10), cfg.BreakerMinRequests)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.EnableTracing)
}

func TestLoadConfig_FileThenEnvironment(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server_address: ":9000"
store_backend: memory
vote_stats_ttl: 30m
games_table: from-file
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("GAMES_TABLE", "from-env")

	// Act
	cfg, err := LoadConfig()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.ServerAddress)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 30*time.Minute, cfg.VoteStatsTTL)
	assert.Equal(t, "from-env", cfg.GamesTable)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := LoadConfig()

	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.StoreBackend = "postgres" },
			wantErr: "STORE_BACKEND",
		},
		{
			name:    "zero ttl",
			mutate:  func(c *Config) { c.VoteStatsTTL = 0 },
			wantErr: "TTL",
		},
		{
			name:    "threshold out of range",
			mutate:  func(c *Config) { c.BreakerFailureThreshold = 1.5 },
			wantErr: "BREAKER_FAILURE_THRESHOLD",
		},
		{
			name:    "missing table",
			mutate:  func(c *Config) { c.TeamsTable = "" },
			wantErr: "TEAMS_TABLE",
		},
		{
			name: "memory store skips tables",
			mutate: func(c *Config) {
				c.StoreBackend = BackendMemory
				c.TeamsTable = ""
			},
		},
		{
			name: "events need a bus",
			mutate: func(c *Config) {
				c.EnableEvents = true
				c.EventBusName = ""
			},
			wantErr: "EVENT_BUS_NAME",
		},
		{
			name: "memory store in production",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.StoreBackend = BackendMemory
			},
			wantErr: "production",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
