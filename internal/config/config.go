// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port          string
	FrontendURL   string
	KnowledgePath string
	DBPath        string

	// EscalationTimeout is how long a user message forwarded to
	// admins may wait for a human reply before the bot answers.
	EscalationTimeout time.Duration

	// FuzzyThreshold is the maximum accepted normalized edit
	// distance for a knowledge-base match; lower is stricter.
	FuzzyThreshold float64

	// FuzzyMaxDistance caps the absolute edit distance.
	FuzzyMaxDistance int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		FrontendURL:       getEnv("FRONTEND_URL", ""),
		KnowledgePath:     getEnv("KNOWLEDGE_PATH", "./data/knowledge.json"),
		DBPath:            getEnv("DB_PATH", "./data/lapakchat.db"),
		EscalationTimeout: getEnvDuration("ESCALATION_TIMEOUT", 30*time.Second),
		FuzzyThreshold:    getEnvFloat("FUZZY_THRESHOLD", 0.34),
		FuzzyMaxDistance:  getEnvInt("FUZZY_MAX_DISTANCE", 2),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.KnowledgePath == "" {
		return fmt.Errorf("KNOWLEDGE_PATH cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.EscalationTimeout <= 0 {
		return fmt.Errorf("ESCALATION_TIMEOUT must be > 0")
	}
	if c.FuzzyThreshold <= 0 || c.FuzzyThreshold > 1 {
		return fmt.Errorf("FUZZY_THRESHOLD must be in (0, 1]")
	}
	if c.FuzzyMaxDistance < 0 {
		return fmt.Errorf("FUZZY_MAX_DISTANCE must be >= 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
