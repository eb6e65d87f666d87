package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultOrder is used when Brain.Order is unset (the specification's
// default context length).
const DefaultOrder = 5

// Load reads the YAML configuration file at path and returns a validated [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if cfg.Brain.Order == 0 {
		cfg.Brain.Order = DefaultOrder
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing every validation failure found, rather than stopping
// at the first one.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Brain.Order <= 0 {
		errs = append(errs, fmt.Errorf("brain.order must be >= 1, got %d", cfg.Brain.Order))
	}
	if cfg.Brain.ReplyBudgetMS < 0 {
		errs = append(errs, fmt.Errorf("brain.reply_budget_ms must be >= 0, got %d", cfg.Brain.ReplyBudgetMS))
	}
	if cfg.Brain.ReplyBudgetMS <= 0 && cfg.Brain.ReplyIterations <= 0 {
		errs = append(errs, errors.New("at least one of brain.reply_budget_ms or brain.reply_iterations must be positive"))
	}

	return errors.Join(errs...)
}
