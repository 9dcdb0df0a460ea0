// Package config loads pycompleter settings from a TOML file and environment
// variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jward/pycompleter/internal/sources"
)

// FileName is the config file searched for from the working directory up.
const FileName = ".pycompleter.toml"

const (
	DefaultLanguageVersion = "3.6"
	DefaultRecursionBudget = 1
	DefaultLogLevel        = "warn"
)

// Config is the root configuration structure.
type Config struct {
	// LanguageVersion selects which builtin module names are visible.
	LanguageVersion string `toml:"language_version"`
	// SearchRoots are searched, in order, after the edited file's own
	// directory. Relative entries are resolved against the config file's
	// directory.
	SearchRoots []string `toml:"search_roots"`
	// RecursionBudget bounds how many import levels are followed.
	RecursionBudget *int `toml:"recursion_budget"`
	// Database is the default SQLite path for the export and symbols
	// commands.
	Database string `toml:"database"`
	// Exclude lists doublestar patterns for files that export and watch
	// skip, such as "venv/**" or "*_test.py".
	Exclude []string  `toml:"exclude"`
	Log     LogConfig `toml:"log"`

	// Path is the file the config was loaded from, empty for defaults.
	Path string `toml:"-"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// LevelOrDefault returns the configured level or "warn" if unset.
func (l LogConfig) LevelOrDefault() string {
	if l.Level == "" {
		return DefaultLogLevel
	}
	return l.Level
}

// LanguageVersionOrDefault returns the configured version or "3.6" if unset.
func (c *Config) LanguageVersionOrDefault() string {
	if c.LanguageVersion == "" {
		return DefaultLanguageVersion
	}
	return c.LanguageVersion
}

// BudgetOrDefault returns the configured recursion budget or 1 if unset.
func (c *Config) BudgetOrDefault() int {
	if c.RecursionBudget == nil {
		return DefaultRecursionBudget
	}
	return *c.RecursionBudget
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	cfg := &Config{}
	applyEnvOverrides(cfg)
	return cfg
}

// Load reads configuration from a TOML file and applies environment variable
// overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config: path is required")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config: file not found: %s", path)
	}

	cfg := &Config{}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config: %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Path = abs
	base := filepath.Dir(abs)
	for i, root := range cfg.SearchRoots {
		if root != "" && !filepath.IsAbs(root) {
			cfg.SearchRoots[i] = filepath.Join(base, root)
		}
	}
	if cfg.Database != "" && !filepath.IsAbs(cfg.Database) {
		cfg.Database = filepath.Join(base, cfg.Database)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Find walks up from dir looking for FileName and returns its path.
func Find(dir string) (string, bool) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Discover loads the config found by walking up from dir, or the defaults
// when there is none.
func Discover(dir string) (*Config, error) {
	path, ok := Find(dir)
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	var errs []error

	if c.LanguageVersion != "" && !validVersion(c.LanguageVersion) {
		errs = append(errs, fmt.Errorf("language_version=%q must look like 3.8", c.LanguageVersion))
	}
	if c.RecursionBudget != nil && *c.RecursionBudget < 0 {
		errs = append(errs, fmt.Errorf("recursion_budget=%d must not be negative", *c.RecursionBudget))
	}
	for i, root := range c.SearchRoots {
		if strings.TrimSpace(root) == "" {
			errs = append(errs, fmt.Errorf("search_roots[%d] is empty", i))
		}
	}
	if err := sources.ValidateExcludes(c.Exclude); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Level {
	case "", "trace", "debug", "info", "warn", "error", "disabled":
	default:
		errs = append(errs, fmt.Errorf("log.level=%q is not a known level", c.Log.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func validVersion(v string) bool {
	parts := strings.Split(v, ".")
	if len(parts) < 1 || len(parts) > 3 {
		return false
	}
	for _, p := range parts {
		if _, err := strconv.Atoi(p); err != nil {
			return false
		}
	}
	return true
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. PYCOMPLETER_PATH is a path-list appended to the search roots.
func applyEnvOverrides(cfg *Config) {
	for _, setter := range []struct {
		env   string
		apply func(string)
	}{
		{"PYCOMPLETER_LANGUAGE_VERSION", func(v string) {
			if v != "" {
				cfg.LanguageVersion = v
			}
		}},
		{"PYCOMPLETER_PATH", func(v string) {
			for _, root := range filepath.SplitList(v) {
				if root != "" {
					cfg.SearchRoots = append(cfg.SearchRoots, root)
				}
			}
		}},
		{"PYCOMPLETER_LOG_LEVEL", func(v string) {
			if v != "" {
				cfg.Log.Level = v
			}
		}},
	} {
		setter.apply(os.Getenv(setter.env))
	}
}
