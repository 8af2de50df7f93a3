// Package config provides configuration loading and validation for the CLI
// and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config represents the application configuration that can be loaded from a
// JSON file. All fields are optional; missing values use defaults or must be
// provided via CLI flags or environment variables.
type Config struct {
	// Candidate onboarding
	Resume   string `json:"resume,omitempty"`   // Path to a resume file to extract
	Position string `json:"position,omitempty"` // Position being interviewed for

	// Storage. DatabaseURL selects PostgreSQL; SQLitePath selects the
	// embedded store. Setting both is an error.
	DatabaseURL string `json:"database_url,omitempty"`
	SQLitePath  string `json:"sqlite_path,omitempty"`

	// Behavior
	APIKey         string  `json:"api_key,omitempty"`         // Gemini API key
	Verbose        bool    `json:"verbose,omitempty"`         // Print detailed debug information
	TimerPrecision string  `json:"timer_precision,omitempty"` // Countdown commit interval (e.g. "100ms")
	CacheSize      int     `json:"cache_size,omitempty"`      // Search result cache entries
	DebounceMillis int     `json:"debounce_ms,omitempty"`     // Search input debounce window
	RetryAttempts  int     `json:"retry_attempts,omitempty"`  // LLM retry attempts
	RequestRate    float64 `json:"request_rate,omitempty"`    // LLM calls per second
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.DatabaseURL != "" && c.SQLitePath != "" {
		return fmt.Errorf("config error: 'database_url' and 'sqlite_path' are mutually exclusive")
	}

	if c.TimerPrecision != "" {
		if d, err := time.ParseDuration(c.TimerPrecision); err != nil || d <= 0 {
			return fmt.Errorf("config error: 'timer_precision' must be a positive duration")
		}
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("config error: 'cache_size' must be non-negative")
	}
	if c.DebounceMillis < 0 {
		return fmt.Errorf("config error: 'debounce_ms' must be non-negative")
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("config error: 'retry_attempts' must be non-negative")
	}
	if c.RequestRate < 0 {
		return fmt.Errorf("config error: 'request_rate' must be non-negative")
	}

	if c.Resume != "" {
		if _, err := os.Stat(c.Resume); os.IsNotExist(err) {
			return fmt.Errorf("config error: resume file not found: %s", c.Resume)
		}
	}

	return nil
}

// Precision returns the parsed timer precision, or zero when unset.
func (c *Config) Precision() time.Duration {
	if c.TimerPrecision == "" {
		return 0
	}
	d, err := time.ParseDuration(c.TimerPrecision)
	if err != nil {
		return 0
	}
	return d
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. This is used to apply config file values as defaults for CLI
// flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Resume == "" {
		result.Resume = defaults.Resume
	}
	if result.Position == "" {
		result.Position = defaults.Position
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.SQLitePath == "" {
		result.SQLitePath = defaults.SQLitePath
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.TimerPrecision == "" {
		result.TimerPrecision = defaults.TimerPrecision
	}

	// Numeric fields: use default if zero
	if result.CacheSize == 0 {
		result.CacheSize = defaults.CacheSize
	}
	if result.DebounceMillis == 0 {
		result.DebounceMillis = defaults.DebounceMillis
	}
	if result.RetryAttempts == 0 {
		result.RetryAttempts = defaults.RetryAttempts
	}
	if result.RequestRate == 0 {
		result.RequestRate = defaults.RequestRate
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
