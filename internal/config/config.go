// Package config reads service settings from the environment, after
// loading an optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/gymmatch/manager-api/internal/revenue"
)

type Config struct {
	HTTPAddr       string
	AllowedOrigins []string
	LogLevel       slog.Level

	DBHost     string
	DBPort     uint
	DBName     string
	DBSecretID string

	FirebaseProjectID string
	AlertWebhookURL   string

	// DefaultTiers replaces revenue.DefaultTiers when a compensation file
	// is configured.
	DefaultTiers []revenue.Tier
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		AllowedOrigins:    splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		LogLevel:          parseLevel(os.Getenv("LOG_LEVEL")),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            5432,
		DBName:            getEnv("DB_NAME", "gymmatch"),
		DBSecretID:        os.Getenv("DB_SECRET_ID"),
		FirebaseProjectID: os.Getenv("FIREBASE_PROJECT_ID"),
		AlertWebhookURL:   os.Getenv("ALERT_WEBHOOK_URL"),
	}

	if raw := os.Getenv("DB_PORT"); raw != "" {
		port, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_PORT %q: %w", raw, err)
		}
		cfg.DBPort = uint(port)
	}

	if path := os.Getenv("COMPENSATION_CONFIG_PATH"); path != "" {
		tiers, err := LoadTiers(path)
		if err != nil {
			return nil, err
		}
		cfg.DefaultTiers = tiers
	}
	return cfg, nil
}

type compensationFile struct {
	DefaultTiers []revenue.Tier `yaml:"defaultTiers"`
}

// LoadTiers reads the default tier table from a YAML file:
//
//	defaultTiers:
//	  - revenueThreshold: 0
//	    percentage: 40
func LoadTiers(path string) ([]revenue.Tier, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read compensation config: %w", err)
	}
	var file compensationFile
	if err := yaml.Unmarshal(b, &file); err != nil {
		return nil, fmt.Errorf("parse compensation config: %w", err)
	}
	for _, tier := range file.DefaultTiers {
		if tier.RevenueThreshold < 0 || tier.Percentage < 0 || tier.Percentage > 100 {
			return nil, fmt.Errorf("invalid tier %+v in %s", tier, path)
		}
	}
	return file.DefaultTiers, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
