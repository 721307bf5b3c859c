// Package config loads daemon settings from the environment and from
// the user's config directory.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server
	Port  int
	Bind  string
	Debug bool

	// Auth
	TokenSecret   string
	TokenMaxAge   int // seconds
	AllowedOrigin string

	// Database
	DatabaseURL string
	SQLitePath  string

	// RabbitMQ
	RabbitMQURL string

	// Sandbox
	SandboxExecutor      string // subprocess, docker
	SandboxPoolSize      int
	SandboxTimeout       int // seconds
	SandboxCaseTimeout   int // seconds
	SandboxMemoryMB      int
	SandboxCPULimit      float64
	SandboxRatePerSecond float64

	// Problems
	ProblemsPath string

	// Data
	DataDir string
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:  getEnvInt("PORT", 7433),
		Bind:  getEnv("BIND", "127.0.0.1"),
		Debug: getEnvBool("DEBUG", false),

		TokenSecret:   getEnv("TOKEN_SECRET", defaultTokenSecret),
		TokenMaxAge:   getEnvInt("TOKEN_MAX_AGE", 86400*7), // 7 days
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", ""),

		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		SandboxExecutor:      getEnv("SANDBOX_EXECUTOR", "subprocess"),
		SandboxPoolSize:      getEnvInt("SANDBOX_POOL_SIZE", 3),
		SandboxTimeout:       getEnvInt("SANDBOX_TIMEOUT", 30),
		SandboxCaseTimeout:   getEnvInt("SANDBOX_CASE_TIMEOUT", 10),
		SandboxMemoryMB:      getEnvInt("SANDBOX_MEMORY_MB", 256),
		SandboxCPULimit:      getEnvFloat("SANDBOX_CPU_LIMIT", 0.5),
		SandboxRatePerSecond: getEnvFloat("SANDBOX_RATE_PER_SECOND", 0),

		ProblemsPath: getEnv("PROBLEMS_PATH", "./problems"),
		DataDir:      getEnv("DATA_DIR", ""),
	}

	if cfg.IsDefaultTokenSecret() && !cfg.Debug && cfg.productionShaped() {
		return nil, fmt.Errorf("TOKEN_SECRET must be set in production")
	}
	if cfg.SandboxExecutor != "subprocess" && cfg.SandboxExecutor != "docker" {
		return nil, fmt.Errorf("unknown SANDBOX_EXECUTOR %q", cfg.SandboxExecutor)
	}

	return cfg, nil
}

const defaultTokenSecret = "change-me-in-production"

// IsDefaultTokenSecret reports whether the secret was left at its
// placeholder value. A loopback daemon replaces it with a generated
// secret persisted under the hub directory (see EnsureTokenSecret).
func (c *Config) IsDefaultTokenSecret() bool {
	return c.TokenSecret == defaultTokenSecret
}

// productionShaped reports whether the config points at a shared
// deployment rather than a local loopback daemon.
func (c *Config) productionShaped() bool {
	if c.DatabaseURL != "" {
		return true
	}
	switch c.Bind {
	case "", "localhost", "127.0.0.1", "::1":
		return false
	}
	return true
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
