// Package config loads kernel configuration from a YAML file and KERNEL_
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// EnvPrefix is the prefix of environment variables read by Load. A double
// underscore separates nesting levels: KERNEL_SERVER__ADDR sets server.addr.
const EnvPrefix = "KERNEL_"

type Config struct {
	Env     string        `koanf:"env" validate:"required,oneof=dev prod test"`
	RootDir string        `koanf:"root_dir" validate:"required"`
	Server  ServerConfig  `koanf:"server"`
	Log     LogConfig     `koanf:"log"`
	Tracing TracingConfig `koanf:"tracing"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gte=0"`
}

type LogConfig struct {
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

type TracingConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
}

var defaults = map[string]any{
	"env":                     "prod",
	"root_dir":                ".",
	"server.addr":             ":8080",
	"server.read_timeout":     "15s",
	"server.write_timeout":    "15s",
	"server.shutdown_timeout": "30s",
	"log.level":               "info",
	"tracing.service_name":    "kernel",
}

var validate = validator.New()

// Load reads path (a missing file is not an error), applies KERNEL_
// environment overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load config env: %w", err)
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			if err := k.Set(key, value); err != nil {
				return nil, fmt.Errorf("set default %s: %w", key, err)
			}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// IsDevelopment reports whether the kernel runs in the dev environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "dev"
}

// PublicDir is the directory served as static content.
func (c *Config) PublicDir() string {
	return filepath.Join(c.RootDir, "public")
}

// ConfigDir holds configuration files.
func (c *Config) ConfigDir() string {
	return filepath.Join(c.RootDir, "config")
}

// CacheDir holds generated and cached files.
func (c *Config) CacheDir() string {
	return filepath.Join(c.RootDir, "var")
}

// LogsDir holds log files.
func (c *Config) LogsDir() string {
	return filepath.Join(c.CacheDir(), "logs")
}

// NewLogger returns a development logger in the dev environment and a
// production logger otherwise, at the configured level.
func NewLogger(c *Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if c.IsDevelopment() {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}

	if c.Log.Level != "" {
		level, err := zap.ParseAtomicLevel(c.Log.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		zcfg.Level = level
	}

	return zcfg.Build()
}
