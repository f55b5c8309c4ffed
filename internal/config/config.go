// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

// Package config loads server configuration. Sources are layered with later
// ones winning: flag defaults, an optional YAML file, explicitly set flags,
// then environment variables.
package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/storytable/storytable/internal/xdg"
)

// Environment names.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the server configuration.
type Config struct {
	HTTPAddr           string        `koanf:"http_addr" env:"STORYTABLE_HTTP_ADDR"`
	MetricsAddr        string        `koanf:"metrics_addr" env:"STORYTABLE_METRICS_ADDR"`
	DatabaseURL        string        `koanf:"database_url" env:"DATABASE_URL"`
	Env                string        `koanf:"env" env:"STORYTABLE_ENV"`
	LogFormat          string        `koanf:"log_format" env:"STORYTABLE_LOG_FORMAT"`
	PasswordIterations int           `koanf:"password_iterations" env:"STORYTABLE_PASSWORD_ITERATIONS"`
	DBRetryAttempts    uint64        `koanf:"db_retry_attempts" env:"STORYTABLE_DB_RETRY_ATTEMPTS"`
	DBRetryBase        time.Duration `koanf:"db_retry_base" env:"STORYTABLE_DB_RETRY_BASE"`
}

// Defaults.
const (
	DefaultHTTPAddr           = "127.0.0.1:8080"
	DefaultMetricsAddr        = "127.0.0.1:9100"
	DefaultLogFormat          = "json"
	DefaultPasswordIterations = 310000
	DefaultDBRetryAttempts    = 8
	DefaultDBRetryBase        = 250 * time.Millisecond
)

// FileFlag names the flag that points at the YAML config file.
const FileFlag = "config"

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(FileFlag, "", "path to a YAML config file")
	fs.String("http-addr", DefaultHTTPAddr, "HTTP listen address")
	fs.String("metrics-addr", DefaultMetricsAddr, "metrics/health listen address (empty = disabled)")
	fs.String("database-url", "", "PostgreSQL connection URL")
	fs.String("env", EnvDevelopment, "environment (development or production)")
	fs.String("log-format", DefaultLogFormat, "log format (json or text)")
	fs.Int("password-iterations", DefaultPasswordIterations, "PBKDF2 iterations for new password hashes")
	fs.Uint64("db-retry-attempts", DefaultDBRetryAttempts, "database ping retries at startup")
	fs.Duration("db-retry-base", DefaultDBRetryBase, "initial database retry backoff")
}

// Load builds a Config from fs, the file named by --config (or the XDG
// default file when present) and the environment.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	path, _ := fs.GetString(FileFlag)
	if path == "" {
		found, err := xdg.ExistingConfigFile()
		if err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").With("path", xdg.ConfigFile()).Wrap(err)
		}
		path = found
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").With("path", path).Wrap(err)
		}
	}

	flags := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
		if f.Name == FileFlag {
			return "", nil
		}
		return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(fs, f)
	})
	if err := k.Load(flags, nil); err != nil {
		return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, oops.Code("CONFIG_ENV_FAILED").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field values. DatabaseURL is checked by the commands that
// need it.
func (c *Config) Validate() error {
	switch {
	case c.HTTPAddr == "":
		return invalid("http_addr", "is required")
	case c.Env != EnvDevelopment && c.Env != EnvProduction:
		return invalid("env", "must be 'development' or 'production'")
	case c.LogFormat != "json" && c.LogFormat != "text":
		return invalid("log_format", "must be 'json' or 'text'")
	case c.PasswordIterations < 1000:
		return invalid("password_iterations", "must be at least 1000")
	case c.DBRetryBase <= 0:
		return invalid("db_retry_base", "must be positive")
	}
	return nil
}

// RequireDatabase returns an error when no database URL is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return invalid("database_url", "is required (set DATABASE_URL or --database-url)")
	}
	return nil
}

// Production reports whether cookies should be marked Secure.
func (c *Config) Production() bool {
	return c.Env == EnvProduction
}

func invalid(key, msg string) error {
	return oops.Code("CONFIG_INVALID").With("key", key).Errorf("%s %s", key, msg)
}
