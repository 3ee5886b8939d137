// ABOUTME: Profile configuration for patch review sessions, loaded from YAML.
// ABOUTME: Follows the same Config/Default pattern as agent.SessionConfig.
package patchcfg

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the tunable knobs of a patch review profile. The engine's
// fuzz weights themselves are fixed (see patch/locator.go); what varies
// per profile is how much fuzz a human is willing to accept before being
// asked to confirm, and which model drafts patches for partial-edit.
type Config struct {
	MaxAutoFuzz  int    `yaml:"max_auto_fuzz"`
	DefaultModel string `yaml:"default_model"`
	Provider     string `yaml:"provider,omitempty"`
}

// DefaultConfig returns a Config with the built-in defaults: a patch whose
// total fuzz is 0 or 1 (exact matches only, or a single
// trailing-whitespace-trimmed match) is applied without confirmation;
// anything past that, including the EOF penalty tier, requires a human look.
func DefaultConfig() Config {
	return Config{
		MaxAutoFuzz:  1,
		DefaultModel: "claude-sonnet-4-5",
	}
}

// Load reads a Config from a YAML file at path. Missing fields fall back to
// DefaultConfig's values.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// NeedsConfirmation reports whether a ProcessPatch result with the given
// fuzz score should be held for human review under this profile.
func (c Config) NeedsConfirmation(fuzz int) bool {
	return fuzz > c.MaxAutoFuzz
}
