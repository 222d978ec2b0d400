// Package config loads the service configuration from an optional YAML file
// layered over defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"qkd-voting-backend/quantum"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	ListenAddr     string   `yaml:"listen_addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	// HistoryFile persists the vote history as JSON. Empty keeps it in memory.
	HistoryFile     string        `yaml:"history_file"`
	SessionDuration time.Duration `yaml:"session_duration"`

	LogLevel    string `yaml:"log_level"`
	Development bool   `yaml:"development"`

	Policy              quantum.Policy `yaml:"policy"`
	SimulationKeyLength int            `yaml:"simulation_key_length"`
	MaxTrials           int            `yaml:"max_trials"`
	TrialWorkers        int            `yaml:"trial_workers"`

	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

func Default() *Config {
	return &Config{
		ListenAddr:          ":8000",
		AllowedOrigins:      []string{"http://localhost:5173"},
		SessionDuration:     24 * time.Hour,
		LogLevel:            "info",
		Policy:              quantum.DefaultPolicy(),
		SimulationKeyLength: 50,
		MaxTrials:           10000,
		TrialWorkers:        8,
		ReadTimeout:         15 * time.Second,
		WriteTimeout:        30 * time.Second,
		ShutdownTimeout:     10 * time.Second,
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.ListenAddr == "" {
		errs = append(errs, errors.New("listen_addr is required"))
	}
	if c.SimulationKeyLength <= 0 {
		errs = append(errs, fmt.Errorf("simulation_key_length must be positive, got %d", c.SimulationKeyLength))
	}
	if c.MaxTrials <= 0 {
		errs = append(errs, fmt.Errorf("max_trials must be positive, got %d", c.MaxTrials))
	}
	if c.TrialWorkers <= 0 {
		errs = append(errs, fmt.Errorf("trial_workers must be positive, got %d", c.TrialWorkers))
	}
	if c.SessionDuration < 0 {
		errs = append(errs, errors.New("session_duration must not be negative"))
	}
	if err := c.Policy.Validate(); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
