// Package config loads pyscope settings from defaults, an optional
// .pyscope.yaml file, PYSCOPE_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phobologic/pyscope/internal/position"
	"github.com/phobologic/pyscope/internal/report"
)

// FileName is the config file looked up in the working and home directories.
const FileName = ".pyscope.yaml"

// Config is the complete pyscope configuration.
type Config struct {
	Format      string              `yaml:"format" mapstructure:"format"`           // json, yaml, csv or toon
	Thresholds  position.Thresholds `yaml:"thresholds" mapstructure:"thresholds"`   // position split points
	TopLevel    bool                `yaml:"top_level" mapstructure:"top_level"`     // module-level declarations only
	Subsections bool                `yaml:"subsections" mapstructure:"subsections"` // append "# Chapter:" subsections
	Exclude     []string            `yaml:"exclude" mapstructure:"exclude"`         // glob patterns for directory mode
	SkipTests   bool                `yaml:"skip_tests" mapstructure:"skip_tests"`   // skip test modules in directory mode
	LogLevel    string              `yaml:"log_level" mapstructure:"log_level"`     // debug, info, warn, error
}

// Default returns a configuration with the built-in defaults.
func Default() *Config {
	return &Config{
		Format:     string(report.JSON),
		Thresholds: position.DefaultThresholds(),
		Exclude:    []string{},
		LogLevel:   "warn",
	}
}

// Validate checks every field and reports all problems at once.
func Validate(cfg *Config) error {
	var errs []error

	if _, err := report.ParseFormat(cfg.Format); err != nil {
		errs = append(errs, err)
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("thresholds: %w", err))
	}
	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ReportOptions converts the configuration into report options.
// The configuration must have passed Validate.
func (c *Config) ReportOptions() report.Options {
	format, _ := report.ParseFormat(c.Format)
	opts := report.DefaultOptions()
	opts.Format = format
	opts.Thresholds = c.Thresholds
	opts.Subsections = c.Subsections
	opts.Parse.TopLevelOnly = c.TopLevel
	return opts
}

// ParseLogLevel maps a level name to a slog.Level (case-insensitive).
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s (valid: debug, info, warn, error)", s)
	}
}
