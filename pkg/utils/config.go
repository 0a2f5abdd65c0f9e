package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/astrokairos/aspectarian/pkg/catalog"
)

// Config represents the aspectarian configuration
type Config struct {
	Search  SearchConfig  `yaml:"search" mapstructure:"search"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Orbs    OrbsConfig    `yaml:"orbs" mapstructure:"orbs"`
	Compute ComputeConfig `yaml:"compute" mapstructure:"compute"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// SearchConfig contains window-search defaults
type SearchConfig struct {
	HalfWidthDays    float64 `yaml:"half_width_days" mapstructure:"half_width_days"`
	DetectRetrograde bool    `yaml:"detect_retrograde" mapstructure:"detect_retrograde"`
}

// CacheConfig bounds the position cache
type CacheConfig struct {
	Capacity int `yaml:"capacity" mapstructure:"capacity"`
}

// OrbsConfig overrides per-body base orbs, keyed by body name
type OrbsConfig struct {
	Override map[string]float64 `yaml:"override" mapstructure:"override"`
}

// ComputeConfig sizes the search job pool
type ComputeConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
	MaxJobs int `yaml:"max_jobs" mapstructure:"max_jobs"`
}

// MetricsConfig controls the Prometheus listener
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr" mapstructure:"listen_addr"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			HalfWidthDays:    30,
			DetectRetrograde: true,
		},
		Cache: CacheConfig{
			Capacity: 100000,
		},
		Orbs: OrbsConfig{
			Override: map[string]float64{},
		},
		Compute: ComputeConfig{
			Workers: 4,
			MaxJobs: 64,
		},
		Metrics: MetricsConfig{
			ListenAddr: "",
		},
	}
}

// LoadConfig loads configuration from file or creates default. An empty
// path uses the standard search locations.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".aspectarian"))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("ASPECTARIAN")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && path == "" {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

// SaveConfig saves configuration to a file, creating parent directories
func SaveConfig(config *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultConfigPath returns the standard config file location
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".aspectarian", "config.yaml"), nil
}

// Validate checks the configuration for out-of-domain values
func (c *Config) Validate() error {
	if c.Search.HalfWidthDays <= 0 {
		return fmt.Errorf("search half width must be positive, got %g", c.Search.HalfWidthDays)
	}
	if c.Compute.Workers < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", c.Compute.Workers)
	}
	if c.Compute.MaxJobs < 1 {
		return fmt.Errorf("max jobs must be at least 1, got %d", c.Compute.MaxJobs)
	}
	for name, orb := range c.Orbs.Override {
		if _, err := catalog.BodyByName(name); err != nil {
			return fmt.Errorf("orb override for unknown body %q", name)
		}
		if orb < 0 {
			return fmt.Errorf("orb override for %s must be non-negative, got %g", name, orb)
		}
	}
	return nil
}

// OrbPolicy converts the configured overrides into a catalog policy.
// Returns nil when no overrides are set.
func (c *Config) OrbPolicy() (*catalog.OrbPolicy, error) {
	if len(c.Orbs.Override) == 0 {
		return nil, nil
	}
	policy := &catalog.OrbPolicy{BodyOrbs: make(map[catalog.Body]float64, len(c.Orbs.Override))}
	for name, orb := range c.Orbs.Override {
		body, err := catalog.BodyByName(name)
		if err != nil {
			return nil, err
		}
		policy.BodyOrbs[body] = orb
	}
	return policy, nil
}
