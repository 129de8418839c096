package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the game server
type Config struct {
	Server    ServerConfig
	Game      GameConfig
	Session   SessionConfig
	Analytics AnalyticsConfig
	Cleanup   CleanupConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string
	Port int
}

// GameConfig holds the game database and level content configuration
type GameConfig struct {
	DatabasePath string
	LevelsDir    string
	QueryTimeout time.Duration
}

// SessionConfig holds player progress storage configuration.
// With an empty Redis address, progress lives in process memory.
type SessionConfig struct {
	RedisAddress  string
	RedisPassword string
	RedisDB       int
	ProgressTTL   time.Duration
}

// AnalyticsConfig holds the analytics database configuration.
// An empty DSN disables analytics entirely.
type AnalyticsConfig struct {
	DSN           string
	MigrationsDir string
}

// CleanupConfig holds the stale session cleanup worker configuration
type CleanupConfig struct {
	Interval   time.Duration
	IdleWindow time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Game: GameConfig{
			DatabasePath: getEnv("GAME_DATABASE_PATH", "./data/detective.db"),
			LevelsDir:    getEnv("LEVELS_DIR", "./levels"),
			QueryTimeout: getEnvAsDuration("QUERY_TIMEOUT", 5*time.Second),
		},
		Session: SessionConfig{
			RedisAddress:  getEnv("REDIS_ADDRESS", ""),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			ProgressTTL:   getEnvAsDuration("PROGRESS_TTL", 30*24*time.Hour),
		},
		Analytics: AnalyticsConfig{
			DSN:           getEnv("ANALYTICS_DSN", ""),
			MigrationsDir: getEnv("MIGRATIONS_DIR", "./migrations"),
		},
		Cleanup: CleanupConfig{
			Interval:   getEnvAsDuration("CLEANUP_INTERVAL", 5*time.Minute),
			IdleWindow: getEnvAsDuration("CLEANUP_IDLE_WINDOW", 30*time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Game.DatabasePath == "" {
		return fmt.Errorf("game database path is required")
	}

	if c.Game.QueryTimeout <= 0 {
		return fmt.Errorf("query timeout must be positive")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
