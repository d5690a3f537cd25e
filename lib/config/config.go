// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for Council.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Service configures the poll service.
	Service ServiceConfig `yaml:"service"`

	// Committee configures the voting membership.
	Committee CommitteeConfig `yaml:"committee"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per
// environment. The committee is deliberately absent: the roster does
// not change between deployments of the same committee.
type ConfigOverrides struct {
	Paths   *PathsConfig   `yaml:"paths,omitempty"`
	Service *ServiceConfig `yaml:"service,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for Council data.
	Root string `yaml:"root"`

	// State is where the poll store lives (votes/, members/, trash/).
	State string `yaml:"state"`

	// Archives is where poll archive exports are written.
	Archives string `yaml:"archives"`
}

// ServiceConfig configures the poll service.
type ServiceConfig struct {
	// SocketPath is the Unix socket path for the poll service API.
	// Default: /run/council/poll.sock
	SocketPath string `yaml:"socket_path"`

	// SweepInterval is how often the service checks for polls whose
	// voting period has ended, as a Go duration string.
	// Default: 1m
	SweepInterval string `yaml:"sweep_interval"`
}

// CommitteeConfig configures the voting membership.
type CommitteeConfig struct {
	// Members lists the voting members. Quorum and majority are
	// derived from its length; it is not overridable per environment.
	Members []Member `yaml:"members"`
}

// Member is one voting member of the committee.
type Member struct {
	// ID is the member's stable identity, as the chat transport
	// reports it. It keys ledgers and transaction records.
	ID string `yaml:"id"`

	// Nick is the display name used in summaries. Optional; consumers
	// fall back to the id's local part.
	Nick string `yaml:"nick"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
// They exist primarily to ensure all fields have sensible zero-values,
// not as a fallback - the config file is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "council")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:     defaultRoot,
			State:    filepath.Join(defaultRoot, "state"),
			Archives: filepath.Join(defaultRoot, "archives"),
		},
		Service: ServiceConfig{
			SocketPath:    "/run/council/poll.sock",
			SweepInterval: "1m",
		},
	}
}

// Load loads configuration from the COUNCIL_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults - if COUNCIL_CONFIG is not set, this fails.
// This ensures deterministic, auditable configuration with no hidden overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("COUNCIL_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("COUNCIL_CONFIG environment variable not set; " +
			"set it to the path of your council.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables do not
// override config values - this ensures deterministic, auditable configuration.
// The only expansion performed is ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// Apply environment-specific overrides (development/staging/production sections in the file).
	cfg.applyEnvironmentOverrides()

	// Expand ${HOME} and similar variables in paths for portability.
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		if overrides.Paths.Root != "" {
			c.Paths.Root = overrides.Paths.Root
		}
		if overrides.Paths.State != "" {
			c.Paths.State = overrides.Paths.State
		}
		if overrides.Paths.Archives != "" {
			c.Paths.Archives = overrides.Paths.Archives
		}
	}

	if overrides.Service != nil {
		if overrides.Service.SocketPath != "" {
			c.Service.SocketPath = overrides.Service.SocketPath
		}
		if overrides.Service.SweepInterval != "" {
			c.Service.SweepInterval = overrides.Service.SweepInterval
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"COUNCIL_ROOT": c.Paths.Root,
		"HOME":         os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["COUNCIL_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.State = expandVars(c.Paths.State, vars)
	c.Paths.Archives = expandVars(c.Paths.Archives, vars)
	c.Service.SocketPath = expandVars(c.Service.SocketPath, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}
	if c.Paths.State == "" {
		errs = append(errs, fmt.Errorf("paths.state is required"))
	}

	if c.Service.SocketPath == "" {
		errs = append(errs, fmt.Errorf("service.socket_path is required"))
	}
	if _, err := time.ParseDuration(c.Service.SweepInterval); err != nil {
		errs = append(errs, fmt.Errorf("service.sweep_interval: %v", err))
	}

	if len(c.Committee.Members) == 0 {
		errs = append(errs, fmt.Errorf("committee.members is required"))
	}
	seen := make(map[string]bool, len(c.Committee.Members))
	for i, m := range c.Committee.Members {
		if m.ID == "" {
			errs = append(errs, fmt.Errorf("committee.members[%d]: id is required", i))
			continue
		}
		if seen[m.ID] {
			errs = append(errs, fmt.Errorf("committee.members: duplicate id %s", m.ID))
		}
		seen[m.ID] = true
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// SweepEvery returns the parsed sweep interval. Call Validate first;
// an unparseable value falls back to one minute.
func (c *Config) SweepEvery() time.Duration {
	d, err := time.ParseDuration(c.Service.SweepInterval)
	if err != nil {
		return time.Minute
	}
	return d
}

// EnsurePaths creates all configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	paths := []string{
		c.Paths.Root,
		c.Paths.State,
		c.Paths.Archives,
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}
