package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines configuration for the nilearn CLI.
type Config struct {
	Cache     string      `yaml:"cache"`
	Dataset   string      `yaml:"dataset"`
	Subjects  int         `yaml:"subjects"`
	Workers   int         `yaml:"workers"`
	Verbosity int         `yaml:"verbosity"`
	Resume    bool        `yaml:"resume"`
	RunLog    string      `yaml:"run_log"`
	Retry     RetryConfig `yaml:"retry"`
}

// RetryConfig defines retry behavior for downloads.
type RetryConfig struct {
	Attempts   int           `yaml:"attempts"`
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Dataset:   "oasis_vbm",
		Subjects:  50,
		Workers:   4,
		Verbosity: 1,
		Retry: RetryConfig{
			Attempts:   5,
			Backoff:    time.Second,
			MaxBackoff: 30 * time.Second,
		},
	}
}

// yamlConfig is used for YAML unmarshaling with string durations.
type yamlConfig struct {
	Cache     string          `yaml:"cache"`
	Dataset   string          `yaml:"dataset"`
	Subjects  int             `yaml:"subjects"`
	Workers   int             `yaml:"workers"`
	Verbosity *int            `yaml:"verbosity"`
	Resume    bool            `yaml:"resume"`
	RunLog    string          `yaml:"run_log"`
	Retry     yamlRetryConfig `yaml:"retry"`
}

type yamlRetryConfig struct {
	Attempts   int    `yaml:"attempts"`
	Backoff    string `yaml:"backoff"`
	MaxBackoff string `yaml:"max_backoff"`
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.Cache != "" {
		cfg.Cache = yc.Cache
	}
	if yc.Dataset != "" {
		cfg.Dataset = yc.Dataset
	}
	if yc.Subjects != 0 {
		cfg.Subjects = yc.Subjects
	}
	if yc.Workers != 0 {
		cfg.Workers = yc.Workers
	}
	if yc.Verbosity != nil {
		// Zero is a meaningful verbosity (silent), so the yaml field is
		// a pointer to tell "absent" from "0".
		cfg.Verbosity = *yc.Verbosity
	}
	cfg.Resume = yc.Resume
	if yc.RunLog != "" {
		cfg.RunLog = yc.RunLog
	}
	if yc.Retry.Attempts != 0 {
		cfg.Retry.Attempts = yc.Retry.Attempts
	}
	if yc.Retry.Backoff != "" {
		d, err := time.ParseDuration(yc.Retry.Backoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.backoff: %w", err)
		}
		cfg.Retry.Backoff = d
	}
	if yc.Retry.MaxBackoff != "" {
		d, err := time.ParseDuration(yc.Retry.MaxBackoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.max_backoff: %w", err)
		}
		cfg.Retry.MaxBackoff = d
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the NILEARN_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("NILEARN_CACHE"); v != "" {
		c.Cache = v
	}
	if v := os.Getenv("NILEARN_DATASET"); v != "" {
		c.Dataset = v
	}
	if v := os.Getenv("NILEARN_SUBJECTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse NILEARN_SUBJECTS: %w", err)
		}
		c.Subjects = n
	}
	if v := os.Getenv("NILEARN_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse NILEARN_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := os.Getenv("NILEARN_VERBOSITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse NILEARN_VERBOSITY: %w", err)
		}
		c.Verbosity = n
	}
	if v := os.Getenv("NILEARN_RESUME"); v != "" {
		c.Resume = v == "true" || v == "1"
	}
	if v := os.Getenv("NILEARN_RUN_LOG"); v != "" {
		c.RunLog = v
	}
	if v := os.Getenv("NILEARN_RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse NILEARN_RETRY_ATTEMPTS: %w", err)
		}
		c.Retry.Attempts = n
	}
	if v := os.Getenv("NILEARN_RETRY_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse NILEARN_RETRY_BACKOFF: %w", err)
		}
		c.Retry.Backoff = d
	}
	if v := os.Getenv("NILEARN_RETRY_MAX_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse NILEARN_RETRY_MAX_BACKOFF: %w", err)
		}
		c.Retry.MaxBackoff = d
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Cache == "" {
		return errors.New("config: cache bucket URL is required")
	}
	if c.Dataset == "" {
		return errors.New("config: dataset is required")
	}
	if c.Subjects <= 0 {
		return errors.New("config: subjects must be positive")
	}
	if c.Workers <= 0 {
		return errors.New("config: workers must be positive")
	}
	if c.Verbosity < 0 || c.Verbosity > 2 {
		return errors.New("config: verbosity must be 0, 1 or 2")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.Cache != "" {
		c.Cache = override.Cache
	}
	if override.Dataset != "" {
		c.Dataset = override.Dataset
	}
	if override.Subjects != 0 {
		c.Subjects = override.Subjects
	}
	if override.Workers != 0 {
		c.Workers = override.Workers
	}
	if override.Verbosity != 0 {
		c.Verbosity = override.Verbosity
	}
	if override.Resume {
		c.Resume = override.Resume
	}
	if override.RunLog != "" {
		c.RunLog = override.RunLog
	}
	if override.Retry.Attempts != 0 {
		c.Retry.Attempts = override.Retry.Attempts
	}
	if override.Retry.Backoff != 0 {
		c.Retry.Backoff = override.Retry.Backoff
	}
	if override.Retry.MaxBackoff != 0 {
		c.Retry.MaxBackoff = override.Retry.MaxBackoff
	}
	return c
}
