// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads esplugin runtime configuration from built-in
// defaults, an optional YAML file and command-line flags, in that order of
// precedence.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/esplugin/internal/converge"
	"github.com/holomush/esplugin/internal/logging"
)

// CodeInvalid marks configuration that fails to load or validate.
const CodeInvalid = "CONFIG_INVALID"

// Retry configures install retries.
type Retry struct {
	Attempts int           `koanf:"attempts" validate:"min=1"`
	Delay    time.Duration `koanf:"delay" validate:"gt=0"`
}

// Log configures the process logger.
type Log struct {
	Format string `koanf:"format" validate:"oneof=json text"`
	Level  string `koanf:"level"`
}

// Config is the resolved esplugin configuration.
// Empty path fields are derived from HomeDir.
type Config struct {
	HomeDir           string   `koanf:"home_dir" validate:"required"`
	PluginDir         string   `koanf:"plugin_dir"`
	PluginTool        string   `koanf:"plugin_tool"`
	LegacyPluginTool  string   `koanf:"legacy_plugin_tool"`
	ESBinary          string   `koanf:"es_binary"`
	Version           string   `koanf:"version"`
	VersionCandidates []string `koanf:"version_candidates"`
	Retry             Retry    `koanf:"retry"`
	Log               Log      `koanf:"log"`
	MetricsFile       string   `koanf:"metrics_file"`
}

// DefaultHomeDir returns the Elasticsearch home for the running platform.
func DefaultHomeDir() string {
	if runtime.GOOS == "openbsd" {
		return "/usr/local/elasticsearch"
	}
	return "/usr/share/elasticsearch"
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HomeDir: DefaultHomeDir(),
		Retry: Retry{
			Attempts: converge.DefaultAttempts,
			Delay:    converge.DefaultRetryDelay,
		},
		Log: Log{
			Format: "json",
			Level:  "info",
		},
	}
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"home-dir":           "home_dir",
	"plugin-dir":         "plugin_dir",
	"plugin-tool":        "plugin_tool",
	"legacy-plugin-tool": "legacy_plugin_tool",
	"es-binary":          "es_binary",
	"es-version":         "version",
	"version-candidate":  "version_candidates",
	"retry-attempts":     "retry.attempts",
	"retry-delay":        "retry.delay",
	"log-format":         "log.format",
	"log-level":          "log.level",
	"metrics-file":       "metrics_file",
}

// BindFlags registers the configuration flags on flags. Flag defaults mirror
// Default so help output is accurate; only flags set explicitly override
// the file.
func BindFlags(flags *pflag.FlagSet) {
	d := Default()
	flags.String("home-dir", d.HomeDir, "Elasticsearch home directory")
	flags.String("plugin-dir", "", "installed plugin directory (default <home-dir>/plugins)")
	flags.String("plugin-tool", "", "plugin tool for 5.x and later (default <home-dir>/bin/elasticsearch-plugin)")
	flags.String("legacy-plugin-tool", "", "plugin tool before 5.x (default <home-dir>/bin/plugin)")
	flags.String("es-binary", "", "elasticsearch binary queried for its version (default <home-dir>/bin/elasticsearch)")
	flags.String("es-version", "", "Elasticsearch version of this host")
	flags.StringSlice("version-candidate", nil, "strings to guess the Elasticsearch version from, in priority order")
	flags.Int("retry-attempts", d.Retry.Attempts, "install attempts per plugin")
	flags.Duration("retry-delay", d.Retry.Delay, "delay between install attempts")
	flags.String("log-format", d.Log.Format, "log format (json, text)")
	flags.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	flags.String("metrics-file", "", "write Prometheus metrics to this textfile after convergence")
}

// Load builds a Config. The file at path is optional unless required is
// true. flags may be nil.
func Load(path string, required bool, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" && (required || fileExists(path)) {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code(CodeInvalid).
				With("path", path).
				Wrapf(err, "load config file")
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, oops.Code(CodeInvalid).Wrapf(err, "load config flags")
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, oops.Code(CodeInvalid).Wrapf(err, "decode config")
	}
	cfg.fillPaths()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// fileExists reports false only when path is absent; other stat failures
// surface from the load.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

func (c *Config) fillPaths() {
	if c.PluginDir == "" {
		c.PluginDir = filepath.Join(c.HomeDir, "plugins")
	}
	if c.PluginTool == "" {
		c.PluginTool = filepath.Join(c.HomeDir, "bin", "elasticsearch-plugin")
	}
	if c.LegacyPluginTool == "" {
		c.LegacyPluginTool = filepath.Join(c.HomeDir, "bin", "plugin")
	}
	if c.ESBinary == "" {
		c.ESBinary = filepath.Join(c.HomeDir, "bin", "elasticsearch")
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return oops.Code(CodeInvalid).Wrapf(err, "invalid config")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return oops.Code(CodeInvalid).With("level", c.Log.Level).Errorf("invalid config: %s", err.Error())
	}
	return nil
}

// ExecutorConfig converts c into converge settings.
func (c Config) ExecutorConfig() converge.Config {
	return converge.Config{
		HomeDir:           c.HomeDir,
		PluginDir:         c.PluginDir,
		PluginTool:        c.PluginTool,
		LegacyPluginTool:  c.LegacyPluginTool,
		ESBinary:          c.ESBinary,
		Version:           c.Version,
		VersionCandidates: c.VersionCandidates,
		Attempts:          c.Retry.Attempts,
		RetryDelay:        c.Retry.Delay,
	}
}

// LoggingOptions converts c into logger settings.
func (c Config) LoggingOptions() logging.Options {
	return logging.Options{Format: c.Log.Format, Level: c.Log.Level}
}
