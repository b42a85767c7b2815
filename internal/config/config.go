// Package config loads and validates the staticpress YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file looked up when --config is not
// given.
const DefaultFile = "staticpress.yaml"

// ConfigError reports a configuration problem. It is raised at collection
// start, before any file I/O on the destination.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Root is one source directory, optionally mounted under a destination
// prefix.
type Root struct {
	Dir    string `yaml:"dir"`
	Prefix string `yaml:"prefix"`
}

// Config is the full pipeline configuration.
type Config struct {
	Destination      string   `yaml:"destination"`
	URLPrefix        string   `yaml:"url_prefix"`
	Roots            []Root   `yaml:"roots"`
	AppDirs          []string `yaml:"app_dirs"`
	Manifest         string   `yaml:"manifest"`
	ManifestPolicy   string   `yaml:"manifest_policy"`
	MaxPasses        int      `yaml:"max_passes"`
	JSModules        bool     `yaml:"js_modules"`
	IgnorePatterns   []string `yaml:"ignore_patterns"`
	NoDefaultIgnore  bool     `yaml:"no_default_ignore"`
	LogDir           string   `yaml:"log_dir"`
}

// Default returns the configuration defaults applied before loading.
func Default() Config {
	return Config{
		URLPrefix:      "/static/",
		Manifest:       "staticpress.manifest.json",
		ManifestPolicy: "lenient",
		MaxPasses:      5,
	}
}

// Load reads the YAML file at path, applies defaults, and validates.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	if cfg.URLPrefix == "" {
		cfg.URLPrefix = Default().URLPrefix
	}
	if cfg.Manifest == "" {
		cfg.Manifest = Default().Manifest
	}
	if cfg.ManifestPolicy == "" {
		cfg.ManifestPolicy = Default().ManifestPolicy
	}
	if cfg.MaxPasses == 0 {
		cfg.MaxPasses = Default().MaxPasses
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration without touching the filesystem beyond
// path comparison.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Destination) == "" {
		return &ConfigError{Field: "destination", Reason: "must be set"}
	}
	if len(c.Roots) == 0 && len(c.AppDirs) == 0 {
		return &ConfigError{Field: "roots", Reason: "at least one source root or app directory is required"}
	}
	dest := filepath.Clean(c.Destination)
	for i, r := range c.Roots {
		if strings.TrimSpace(r.Dir) == "" {
			return &ConfigError{Field: fmt.Sprintf("roots[%d].dir", i), Reason: "must be set"}
		}
		if filepath.Clean(r.Dir) == dest {
			return &ConfigError{Field: fmt.Sprintf("roots[%d].dir", i), Reason: "must not be the destination"}
		}
	}
	switch c.ManifestPolicy {
	case "strict", "lenient":
	default:
		return &ConfigError{Field: "manifest_policy", Reason: fmt.Sprintf("unknown policy %q (want strict or lenient)", c.ManifestPolicy)}
	}
	if c.MaxPasses < 1 {
		return &ConfigError{Field: "max_passes", Reason: "must be at least 1"}
	}
	if !strings.HasPrefix(c.URLPrefix, "/") || !strings.HasSuffix(c.URLPrefix, "/") {
		return &ConfigError{Field: "url_prefix", Reason: "must start and end with a slash"}
	}
	return nil
}
