// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Keys missing from the YAML file keep their defaults.
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	settings, err := cfg.Reconciliation.ToSettings()
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/eshaffer321/bankrec/internal/domain/model"
)

// Config represents the entire application configuration
type Config struct {
	Storage        StorageConfig        `yaml:"storage"`
	Reconciliation ReconciliationConfig `yaml:"reconciliation"`
	API            APIConfig            `yaml:"api"`
	Observability  ObservabilityConfig  `yaml:"observability"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ReconciliationConfig holds the default settings of a reconciliation run
type ReconciliationConfig struct {
	DateToleranceDays      int     `yaml:"date_tolerance_days"`
	AmountTolerance        string  `yaml:"amount_tolerance"` // Decimal string, e.g. "0.01"
	MinimumConfidenceScore float64 `yaml:"minimum_confidence_score"`
	UseAutomaticMatching   bool    `yaml:"use_automatic_matching"`
	Parallelism            int     `yaml:"parallelism"`
	SuggestionLimit        int     `yaml:"suggestion_limit"`
	CandidateWindow        int     `yaml:"candidate_window"` // Max transactions fetched for suggestions
}

// APIConfig holds HTTP server settings
type APIConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing else is provided
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			DatabasePath: "bankrec.db",
		},
		Reconciliation: ReconciliationConfig{
			DateToleranceDays:      3,
			AmountTolerance:        "0.01",
			MinimumConfidenceScore: 0.70,
			UseAutomaticMatching:   true,
			Parallelism:            1,
			SuggestionLimit:        5,
			CandidateWindow:        5,
		},
		API: APIConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  "info",
				Format: "text",
			},
		},
	}
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${BANKREC_DB_PATH})
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := Default()

	cfg.Storage.DatabasePath = getEnv("BANKREC_DB_PATH", cfg.Storage.DatabasePath)

	r := &cfg.Reconciliation
	r.DateToleranceDays = getEnvInt("BANKREC_DATE_TOLERANCE_DAYS", r.DateToleranceDays)
	r.AmountTolerance = getEnv("BANKREC_AMOUNT_TOLERANCE", r.AmountTolerance)
	r.MinimumConfidenceScore = getEnvFloat("BANKREC_MIN_CONFIDENCE", r.MinimumConfidenceScore)
	r.UseAutomaticMatching = getEnvBool("BANKREC_AUTOMATIC_MATCHING", r.UseAutomaticMatching)
	r.Parallelism = getEnvInt("BANKREC_PARALLELISM", r.Parallelism)
	r.SuggestionLimit = getEnvInt("BANKREC_SUGGESTION_LIMIT", r.SuggestionLimit)
	r.CandidateWindow = getEnvInt("BANKREC_CANDIDATE_WINDOW", r.CandidateWindow)

	cfg.API.Port = getEnvInt("BANKREC_PORT", cfg.API.Port)
	if origins := os.Getenv("BANKREC_ALLOWED_ORIGINS"); origins != "" {
		cfg.API.AllowedOrigins = strings.Split(origins, ",")
	}

	cfg.Observability.Logging.Level = getEnv("LOG_LEVEL", cfg.Observability.Logging.Level)
	cfg.Observability.Logging.Format = getEnv("LOG_FORMAT", cfg.Observability.Logging.Format)

	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnv_WithPath("config.yaml")
}

// LoadOrEnv_WithPath tries to load from specified path, falls back to environment variables.
// A file that exists but cannot be read or parsed is logged before falling back.
func LoadOrEnv_WithPath(path string) *Config {
	cfg, err := LoadOrEnvStrict(path)
	if err != nil {
		slog.Warn("ignoring unreadable config file, using environment", "path", path, "error", err)
		return LoadFromEnv()
	}
	return cfg
}

// LoadOrEnvStrict loads the file at path, falling back to environment
// variables only when the file does not exist. Any other failure is returned.
func LoadOrEnvStrict(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return LoadFromEnv(), nil
	}
	return nil, err
}

// ToSettings converts the configured defaults into validated run settings
func (c ReconciliationConfig) ToSettings() (model.Settings, error) {
	tolerance, err := decimal.NewFromString(strings.TrimSpace(c.AmountTolerance))
	if err != nil {
		return model.Settings{}, fmt.Errorf("%w: amount tolerance %q: %v", model.ErrInvalidInput, c.AmountTolerance, err)
	}

	settings := model.Settings{
		DateToleranceDays:      c.DateToleranceDays,
		AmountTolerance:        tolerance,
		MinimumConfidenceScore: c.MinimumConfidenceScore,
		UseAutomaticMatching:   c.UseAutomaticMatching,
		Parallelism:            c.Parallelism,
	}
	if err := settings.Validate(); err != nil {
		return model.Settings{}, err
	}
	return settings, nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if result, err := strconv.Atoi(val); err == nil {
			return result
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if result, err := strconv.ParseFloat(val, 64); err == nil {
			return result
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if result, err := strconv.ParseBool(val); err == nil {
			return result
		}
	}
	return fallback
}
