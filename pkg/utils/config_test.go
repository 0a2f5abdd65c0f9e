package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/astrokairos/aspectarian/pkg/catalog"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero half width", func(c *Config) { c.Search.HalfWidthDays = 0 }},
		{"no workers", func(c *Config) { c.Compute.Workers = 0 }},
		{"no job slots", func(c *Config) { c.Compute.MaxJobs = 0 }},
		{"unknown orb body", func(c *Config) { c.Orbs.Override = map[string]float64{"Vulcan": 5} }},
		{"negative orb", func(c *Config) { c.Orbs.Override = map[string]float64{"Sun": -1} }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			config := DefaultConfig()
			c.mutate(config)
			if err := config.Validate(); err == nil {
				t.Error("expected validation failure")
			}
		})
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	config := DefaultConfig()
	config.Search.HalfWidthDays = 45
	config.Cache.Capacity = 5000
	// Viper lowercases keys on load, so store them lowercase.
	config.Orbs.Override = map[string]float64{"sun": 8}

	if err := SaveConfig(config, path); err != nil {
		t.Fatalf("SaveConfig returned error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if loaded.Search.HalfWidthDays != 45 {
		t.Errorf("half width = %g, want 45", loaded.Search.HalfWidthDays)
	}
	if loaded.Cache.Capacity != 5000 {
		t.Errorf("cache capacity = %d, want 5000", loaded.Cache.Capacity)
	}
	if loaded.Orbs.Override["sun"] != 8 {
		t.Errorf("sun orb override = %g, want 8", loaded.Orbs.Override["sun"])
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("explicit missing config path must fail")
	}
}

func TestOrbPolicyFromConfig(t *testing.T) {
	config := DefaultConfig()

	policy, err := config.OrbPolicy()
	if err != nil {
		t.Fatal(err)
	}
	if policy != nil {
		t.Error("config without overrides should yield a nil policy")
	}

	config.Orbs.Override = map[string]float64{"moon": 6}
	policy, err = config.OrbPolicy()
	if err != nil {
		t.Fatal(err)
	}
	if policy == nil {
		t.Fatal("expected a policy for configured overrides")
	}
	if got := policy.BodyOrbs[catalog.Moon]; got != 6 {
		t.Errorf("Moon orb override = %g, want 6", got)
	}
}
