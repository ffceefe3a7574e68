// Package config loads CLI settings from defaults, an optional YAML file,
// ENCLOSING_* environment variables and bound flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "ENCLOSING"

// Config holds the harness settings.
type Config struct {
	Backend  string        `mapstructure:"backend"`  // python | treesitter
	Python   string        `mapstructure:"python"`   // interpreter for the python backend
	Strategy string        `mapstructure:"strategy"` // widest | narrowest
	Timeout  time.Duration `mapstructure:"timeout"`  // per-query bound, 0 disables
	Format   string        `mapstructure:"format"`   // json | text
	Log      LogConfig     `mapstructure:"log"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// NewViper returns a Viper with defaults and environment binding set.
// When cfgFile is empty, .enclosing.yaml is looked up in the working
// directory.
func NewViper(cfgFile string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".enclosing")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("backend", "python")
	v.SetDefault("python", "python3")
	v.SetDefault("strategy", "widest")
	v.SetDefault("timeout", "30s")
	v.SetDefault("format", "json")
	v.SetDefault("log.level", "warn")
}

// Load reads the config file if present and decodes v into a Config.
// A missing default config file is not an error; a missing explicit one is.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated values and ranges.
func (c *Config) Validate() error {
	switch c.Backend {
	case "python", "treesitter":
	default:
		return fmt.Errorf("config: backend must be python or treesitter, got %q", c.Backend)
	}
	switch c.Strategy {
	case "widest", "narrowest":
	default:
		return fmt.Errorf("config: strategy must be widest or narrowest, got %q", c.Strategy)
	}
	switch c.Format {
	case "json", "text":
	default:
		return fmt.Errorf("config: format must be json or text, got %q", c.Format)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("config: timeout must not be negative, got %s", c.Timeout)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Logger returns a text slog.Logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelWarn, fmt.Errorf("config: log.level: %w", err)
	}
	return level, nil
}
