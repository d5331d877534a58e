package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends
const (
	BackendDynamoDB = "dynamodb"
	BackendMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress   string        `yaml:"server_address"`
	Environment     string        `yaml:"environment"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	EnableCORS      bool          `yaml:"enable_cors"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Record store
	StoreBackend       string `yaml:"store_backend"`
	AWSRegion          string `yaml:"aws_region"`
	DynamoDBEndpoint   string `yaml:"dynamodb_endpoint"`
	GamesTable         string `yaml:"games_table"`
	FavoritesTable     string `yaml:"favorites_table"`
	UsersTable         string `yaml:"users_table"`
	VotesTable         string `yaml:"votes_table"`
	TeamsTable         string `yaml:"teams_table"`
	VotesByUserIndex   string `yaml:"votes_by_user_index"`
	TeamsByStatusIndex string `yaml:"teams_by_status_index"`

	// Events
	EnableEvents bool   `yaml:"enable_events"`
	EventBusName string `yaml:"event_bus_name"`

	// Cache
	CacheDefaultTTL time.Duration `yaml:"cache_default_ttl"`
	VoteStatsTTL    time.Duration `yaml:"vote_stats_ttl"`

	// Circuit breaker around the record store
	BreakerMaxRequests      uint32        `yaml:"breaker_max_requests"`
	BreakerInterval         time.Duration `yaml:"breaker_interval"`
	BreakerTimeout          time.Duration `yaml:"breaker_timeout"`
	BreakerFailureThreshold float64       `yaml:"breaker_failure_threshold"`
	BreakerMinRequests      uint32        `yaml:"breaker_min_requests"`

	// Observability
	EnableMetrics    bool   `yaml:"enable_metrics"`
	MetricsNamespace string `yaml:"metrics_namespace"`
	EnableTracing    bool   `yaml:"enable_tracing"`
	OTLPEndpoint     string `yaml:"otlp_endpoint"`
	ServiceName      string `yaml:"service_name"`

	// Lambda
	IsLambda bool `yaml:"-"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		ServerAddress:   ":8080",
		Environment:     "development",
		ShutdownTimeout: 10 * time.Second,
		EnableCORS:      true,
		AllowedOrigins:  []string{"*"},

		LogLevel: "info",

		StoreBackend:       BackendDynamoDB,
		AWSRegion:          "us-west-2",
		GamesTable:         "gamegroup-games",
		FavoritesTable:     "gamegroup-favorites",
		UsersTable:         "gamegroup-users",
		VotesTable:         "gamegroup-votes",
		TeamsTable:         "gamegroup-teams",
		VotesByUserIndex:   "UserCreatedIndex",
		TeamsByStatusIndex: "StatusCreatedIndex",

		EnableEvents: false,
		EventBusName: "gamegroup-events",

		CacheDefaultTTL: 5 * time.Minute,
		VoteStatsTTL:    15 * time.Minute,

		BreakerMaxRequests:      5,
		BreakerInterval:         30 * time.Second,
		BreakerTimeout:          60 * time.Second,
		BreakerFailureThreshold: 0.8,
		BreakerMinRequests:      5,

		EnableMetrics:    true,
		MetricsNamespace: "gamegroup",
		EnableTracing:    false,
		ServiceName:      "gamegroup-backend",
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// named by CONFIG_FILE and then environment variables, in that order.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the YAML file at path onto c
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	c.AllowedOrigins = getEnvList("ALLOWED_ORIGINS", c.AllowedOrigins)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.StoreBackend = strings.ToLower(getEnv("STORE_BACKEND", c.StoreBackend))
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.DynamoDBEndpoint = getEnv("DYNAMODB_ENDPOINT", c.DynamoDBEndpoint)
	c.GamesTable = getEnv("GAMES_TABLE", c.GamesTable)
	c.FavoritesTable = getEnv("FAVORITES_TABLE", c.FavoritesTable)
	c.UsersTable = getEnv("USERS_TABLE", c.UsersTable)
	c.VotesTable = getEnv("VOTES_TABLE", c.VotesTable)
	c.TeamsTable = getEnv("TEAMS_TABLE", c.TeamsTable)
	c.VotesByUserIndex = getEnv("VOTES_BY_USER_INDEX", c.VotesByUserIndex)
	c.TeamsByStatusIndex = getEnv("TEAMS_BY_STATUS_INDEX", c.TeamsByStatusIndex)

	c.EnableEvents = getEnvBool("ENABLE_EVENTS", c.EnableEvents)
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)

	c.CacheDefaultTTL = getEnvDuration("CACHE_DEFAULT_TTL", c.CacheDefaultTTL)
	c.VoteStatsTTL = getEnvDuration("VOTE_STATS_TTL", c.VoteStatsTTL)

	c.BreakerMaxRequests = uint32(getEnvInt("BREAKER_MAX_REQUESTS", int(c.BreakerMaxRequests)))
	c.BreakerInterval = getEnvDuration("BREAKER_INTERVAL", c.BreakerInterval)
	c.BreakerTimeout = getEnvDuration("BREAKER_TIMEOUT", c.BreakerTimeout)
	c.BreakerFailureThreshold = getEnvFloat("BREAKER_FAILURE_THRESHOLD", c.BreakerFailureThreshold)
	c.BreakerMinRequests = uint32(getEnvInt("BREAKER_MIN_REQUESTS", int(c.BreakerMinRequests)))

	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.MetricsNamespace = getEnv("METRICS_NAMESPACE", c.MetricsNamespace)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.OTLPEndpoint = getEnv("OTLP_ENDPOINT", c.OTLPEndpoint)
	c.ServiceName = getEnv("SERVICE_NAME", c.ServiceName)

	c.IsLambda = getEnv("AWS_LAMBDA_FUNCTION_NAME", "") != "" || getEnvBool("IS_LAMBDA", false)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendDynamoDB, BackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendDynamoDB, BackendMemory, c.StoreBackend)
	}
	if c.CacheDefaultTTL <= 0 || c.VoteStatsTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	if c.BreakerFailureThreshold <= 0 || c.BreakerFailureThreshold > 1 {
		return fmt.Errorf("BREAKER_FAILURE_THRESHOLD must be in (0, 1]")
	}
	if c.StoreBackend == BackendDynamoDB {
		for name, table := range map[string]string{
			"GAMES_TABLE":     c.GamesTable,
			"FAVORITES_TABLE": c.FavoritesTable,
			"USERS_TABLE":     c.UsersTable,
			"VOTES_TABLE":     c.VotesTable,
			"TEAMS_TABLE":     c.TeamsTable,
		} {
			if table == "" {
				return fmt.Errorf("%s is required", name)
			}
		}
	}
	if c.EnableEvents && c.EventBusName == "" {
		return fmt.Errorf("EVENT_BUS_NAME is required when events are enabled")
	}

	if c.IsProduction() && c.StoreBackend == BackendMemory {
		return fmt.Errorf("the memory store cannot be used in production")
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration parses values like "90s" or "5m"
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping blanks
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
