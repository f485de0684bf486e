package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// NBA Stats API
	NBAStatsBaseURL      string        `envconfig:"NBA_STATS_BASE_URL" default:"https://stats.nba.com/stats"`
	NBAStatsTimeout      time.Duration `envconfig:"NBA_STATS_TIMEOUT" default:"30s"`
	NBAStatsMaxRetries   int           `envconfig:"NBA_STATS_MAX_RETRIES" default:"3"`
	NBAStatsRetryDelay   time.Duration `envconfig:"NBA_STATS_RETRY_DELAY" default:"1s"`
	NBAStatsRequestDelay time.Duration `envconfig:"NBA_STATS_REQUEST_DELAY" default:"600ms"`

	// Storage
	DatabasePath string `envconfig:"DATABASE_PATH" default:"data/nba.duckdb"`
	DataDir      string `envconfig:"DATA_DIR" default:"data"`

	// Redis
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisEnabled  bool   `envconfig:"REDIS_ENABLED" default:"true"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Dashboard Server
	ServerPort int `envconfig:"SERVER_PORT" default:"8080"`

	// Harvest
	DefaultLeague  string        `envconfig:"DEFAULT_LEAGUE" default:"00"`
	HarvestTimeout time.Duration `envconfig:"HARVEST_TIMEOUT" default:"30m"`

	// Scheduler
	EnableScheduler    bool   `envconfig:"ENABLE_SCHEDULER" default:"true"`
	NightlyRefreshCron string `envconfig:"NIGHTLY_REFRESH_CRON" default:"0 2 * * *"`

	// Caching TTL (in seconds)
	CacheTTLTeams   int `envconfig:"CACHE_TTL_TEAMS" default:"3600"`   // 1 hour
	CacheTTLPlayers int `envconfig:"CACHE_TTL_PLAYERS" default:"3600"` // 1 hour
	CacheTTLSeasons int `envconfig:"CACHE_TTL_SEASONS" default:"86400"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if in development mode
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}

	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("SERVER_PORT %d is out of range", c.ServerPort)
	}

	if c.NBAStatsRequestDelay < 0 {
		return fmt.Errorf("NBA_STATS_REQUEST_DELAY must not be negative")
	}

	return nil
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MustLoad loads configuration or panics on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
