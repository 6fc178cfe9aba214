package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"format":         "format",
	"body-threshold": "thresholds.body",
	"end-threshold":  "thresholds.end",
	"top-level":      "top_level",
	"subsections":    "subsections",
	"exclude":        "exclude",
	"skip-tests":     "skip_tests",
	"log-level":      "log_level",
}

// Loader resolves configuration with the priority (highest first):
// changed flags, PYSCOPE_* environment variables, config file, defaults.
type Loader struct {
	// ConfigFile is an explicit config path. When empty, .pyscope.yaml is
	// searched in Dir and then the home directory, and a missing file is
	// not an error.
	ConfigFile string
	Dir        string

	// Flags, when set, supplies overrides for any flag listed in flagKeys.
	Flags *pflag.FlagSet
}

// Load reads, merges and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()

	if l.ConfigFile != "" {
		v.SetConfigFile(l.ConfigFile)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, ".yaml"))
		v.SetConfigType("yaml")
		dir := l.Dir
		if dir == "" {
			dir = "."
		}
		v.AddConfigPath(dir)
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	v.SetEnvPrefix("PYSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range flagKeys {
		_ = v.BindEnv(key)
	}

	setDefaults(v)

	if l.Flags != nil {
		for name, key := range flagKeys {
			if f := l.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Exclude == nil {
		cfg.Exclude = []string{}
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("format", defaults.Format)
	v.SetDefault("thresholds.body", defaults.Thresholds.Body)
	v.SetDefault("thresholds.end", defaults.Thresholds.End)
	v.SetDefault("top_level", defaults.TopLevel)
	v.SetDefault("subsections", defaults.Subsections)
	v.SetDefault("exclude", defaults.Exclude)
	v.SetDefault("skip_tests", defaults.SkipTests)
	v.SetDefault("log_level", defaults.LogLevel)
}
