// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/esplugin/internal/config"
	"github.com/holomush/esplugin/pkg/errutil"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.BindFlags(flags)
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("", false, nil)
	require.NoError(t, err)

	home := config.DefaultHomeDir()
	assert.Equal(t, home, cfg.HomeDir)
	assert.Equal(t, filepath.Join(home, "plugins"), cfg.PluginDir)
	assert.Equal(t, filepath.Join(home, "bin", "elasticsearch-plugin"), cfg.PluginTool)
	assert.Equal(t, filepath.Join(home, "bin", "plugin"), cfg.LegacyPluginTool)
	assert.Equal(t, filepath.Join(home, "bin", "elasticsearch"), cfg.ESBinary)
	assert.Equal(t, 3, cfg.Retry.Attempts)
	assert.Equal(t, 2*time.Second, cfg.Retry.Delay)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.MetricsFile)
}

func TestLoad_MissingOptionalFile(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"), false, nil)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultHomeDir(), cfg.HomeDir)
}

func TestLoad_MissingRequiredFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"), true, nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, config.CodeInvalid)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
home_dir: /opt/es
version: 5.6.3
version_candidates:
  - elasticsearch-5.6.3.deb
retry:
  attempts: 5
  delay: 500ms
log:
  format: text
  level: debug
metrics_file: /var/lib/node_exporter/esplugin.prom
`)

	cfg, err := config.Load(path, true, nil)
	require.NoError(t, err)

	assert.Equal(t, "/opt/es", cfg.HomeDir)
	assert.Equal(t, "/opt/es/plugins", cfg.PluginDir)
	assert.Equal(t, "/opt/es/bin/elasticsearch-plugin", cfg.PluginTool)
	assert.Equal(t, "5.6.3", cfg.Version)
	assert.Equal(t, []string{"elasticsearch-5.6.3.deb"}, cfg.VersionCandidates)
	assert.Equal(t, 5, cfg.Retry.Attempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.Delay)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/var/lib/node_exporter/esplugin.prom", cfg.MetricsFile)
}

func TestLoad_ExplicitPathsKept(t *testing.T) {
	path := writeConfig(t, `
home_dir: /opt/es
plugin_dir: /srv/plugins
legacy_plugin_tool: /opt/es/bin/legacy
`)

	cfg, err := config.Load(path, true, nil)
	require.NoError(t, err)
	assert.Equal(t, "/srv/plugins", cfg.PluginDir)
	assert.Equal(t, "/opt/es/bin/legacy", cfg.LegacyPluginTool)
	assert.Equal(t, "/opt/es/bin/elasticsearch", cfg.ESBinary)
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, `
home_dir: /opt/es
retry:
  attempts: 5
log:
  format: text
`)
	flags := newFlags(t, "--retry-attempts=7", "--es-version=2.4.1", "--retry-delay=10ms")

	cfg, err := config.Load(path, true, flags)
	require.NoError(t, err)

	assert.Equal(t, "/opt/es", cfg.HomeDir, "unchanged flag must not override file")
	assert.Equal(t, "text", cfg.Log.Format, "unchanged flag must not override file")
	assert.Equal(t, 7, cfg.Retry.Attempts)
	assert.Equal(t, 10*time.Millisecond, cfg.Retry.Delay)
	assert.Equal(t, "2.4.1", cfg.Version)
}

func TestLoad_FlagsOnly(t *testing.T) {
	flags := newFlags(t, "--home-dir=/tmp/es", "--version-candidate=a,b")

	cfg, err := config.Load("", false, flags)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/es", cfg.HomeDir)
	assert.Equal(t, "/tmp/es/plugins", cfg.PluginDir)
	assert.Equal(t, []string{"a", "b"}, cfg.VersionCandidates)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "zero attempts", body: "retry:\n  attempts: 0\n"},
		{name: "negative delay", body: "retry:\n  delay: -1s\n"},
		{name: "zero delay", body: "retry:\n  delay: 0s\n"},
		{name: "bad format", body: "log:\n  format: xml\n"},
		{name: "bad level", body: "log:\n  level: chatty\n"},
		{name: "empty home", body: "home_dir: \"\"\n"},
		{name: "malformed yaml", body: "retry: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.body), true, nil)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, config.CodeInvalid)
		})
	}
}

func TestExecutorConfig(t *testing.T) {
	cfg := config.Default()
	cfg.HomeDir = "/opt/es"
	cfg.PluginDir = "/opt/es/plugins"
	cfg.Version = "1.7.0"
	cfg.VersionCandidates = []string{"x"}
	cfg.Retry.Attempts = 4

	ec := cfg.ExecutorConfig()
	assert.Equal(t, "/opt/es", ec.HomeDir)
	assert.Equal(t, "/opt/es/plugins", ec.PluginDir)
	assert.Equal(t, "1.7.0", ec.Version)
	assert.Equal(t, []string{"x"}, ec.VersionCandidates)
	assert.Equal(t, 4, ec.Attempts)
	assert.Equal(t, 2*time.Second, ec.RetryDelay)
}

func TestLoggingOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "warn"
	opts := cfg.LoggingOptions()
	assert.Equal(t, "json", opts.Format)
	assert.Equal(t, "warn", opts.Level)
}
