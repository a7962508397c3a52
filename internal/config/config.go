package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type LoggingCfg struct {
	Dir          string `yaml:"dir" json:"dir"`                     // Directory for pathguard.log; empty logs to stderr only
	RotationDays int    `yaml:"rotation_days" json:"rotation_days"` // Days to keep logs before rotation
	Verbose      bool   `yaml:"verbose" json:"verbose"`             // Log every structured line, not only failures
}

type HistoryCfg struct {
	Enabled       bool   `yaml:"enabled" json:"enabled"`               // Record every guarded item to SQLite
	DatabasePath  string `yaml:"database_path" json:"database_path"`   // Path to SQLite database for mutation history
	RetentionDays int    `yaml:"retention_days" json:"retention_days"` // Rows older than this are pruned on open
}

type MetricsCfg struct {
	Textfile string `yaml:"textfile" json:"textfile"` // Prometheus textfile written after each command; empty disables
}

type ThrottleCfg struct {
	MaxOpsPerSecond float64 `yaml:"max_ops_per_second" json:"max_ops_per_second"` // 0 means unlimited
}

type Config struct {
	ProtectedPaths           []string    `yaml:"protected_paths" json:"protected_paths"`                       // Added to the built-in protected list
	ReplaceProtectedDefaults bool        `yaml:"replace_protected_defaults" json:"replace_protected_defaults"` // protected_paths replaces the built-in list; "/" stays protected
	AllowedRoots             []string    `yaml:"allowed_roots" json:"allowed_roots"`                           // Empty places no root restriction
	Logging                  LoggingCfg  `yaml:"logging" json:"logging"`
	History                  HistoryCfg  `yaml:"history" json:"history"`
	Metrics                  MetricsCfg  `yaml:"metrics" json:"metrics"`
	Throttle                 ThrottleCfg `yaml:"throttle" json:"throttle"`
}

var (
	errInvalidPath       = errors.New("path must be absolute")
	errNegativeRotation  = errors.New("logging.rotation_days cannot be negative")
	errNegativeRetention = errors.New("history.retention_days cannot be negative")
	errNegativeThrottle  = errors.New("throttle.max_ops_per_second cannot be negative")
)

// DefaultPath returns $HOME/.config/pathguard/config.yaml
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "pathguard.yaml")
	}
	return filepath.Join(dir, "pathguard", "config.yaml")
}

// Default returns a validated configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	// defaults alone always validate
	_ = cfg.validateAndDefault()
	return cfg
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := decode(f)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateAndDefault(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path, falling back to Default when the file does not exist
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func decode(r io.Reader) (*Config, error) {
	cfg := &Config{}
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		// an empty file is a valid, all-default config
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

func (c *Config) validateAndDefault() error {
	if c.Logging.RotationDays < 0 {
		return errNegativeRotation
	}
	if c.Logging.RotationDays == 0 {
		c.Logging.RotationDays = 30 // Default: keep logs for 30 days
	}

	if c.History.RetentionDays < 0 {
		return errNegativeRetention
	}
	if c.History.RetentionDays == 0 {
		c.History.RetentionDays = 90
	}
	if c.History.DatabasePath == "" {
		c.History.DatabasePath = defaultDatabasePath()
	}

	if c.Throttle.MaxOpsPerSecond < 0 {
		return errNegativeThrottle
	}

	var err error
	if c.AllowedRoots, err = cleanAll(c.AllowedRoots, "allowed_roots"); err != nil {
		return err
	}
	if c.ProtectedPaths, err = cleanAll(c.ProtectedPaths, "protected_paths"); err != nil {
		return err
	}
	return nil
}

func cleanAll(paths []string, field string) ([]string, error) {
	cleaned := make([]string, 0, len(paths))
	for _, p := range paths {
		cp, err := cleanAbsolute(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		cleaned = append(cleaned, cp)
	}
	return cleaned, nil
}

func cleanAbsolute(p string) (string, error) {
	if p == "" {
		return "", errInvalidPath
	}
	cp := filepath.Clean(p)
	if !filepath.IsAbs(cp) {
		return "", fmt.Errorf("%w: %s", errInvalidPath, p)
	}
	return cp, nil
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "pathguard", "history.db")
	}
	return filepath.Join(home, ".local", "share", "pathguard", "history.db")
}
