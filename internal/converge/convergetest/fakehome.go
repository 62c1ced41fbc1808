// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package convergetest builds throwaway Elasticsearch home directories with
// scripted plugin tools for exercising convergence end to end.
package convergetest

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// pluginTool installs or removes descriptor directories under
// <home>/plugins, logging each invocation and its ES_JAVA_OPTS.
// While <home>/failures holds a positive count, installs fail and
// decrement it.
const pluginTool = `#!/bin/sh
home="$(cd "$(dirname "$0")/.." && pwd)"
printf '%s|%s\n' "$*" "${ES_JAVA_OPTS:-}" >> "$home/invocations.log"

op=""
target=""
for a in "$@"; do
  case "$a" in
    -D*|--batch|--url) ;;
    install|remove) if [ -z "$op" ]; then op="$a"; fi ;;
    *) if [ -n "$op" ] && [ -z "$target" ]; then target="$a"; fi ;;
  esac
done

name="$(basename "$target" .zip)"
case "$op" in
  install)
    if [ -f "$home/failures" ]; then
      n="$(cat "$home/failures")"
      if [ "$n" -gt 0 ]; then
        echo $((n - 1)) > "$home/failures"
        echo "failed to download $target" >&2
        exit 1
      fi
    fi
    mkdir -p "$home/plugins/$name"
    printf 'name=%s\nversion=1.0.0\n' "$name" > "$home/plugins/$name/plugin-descriptor.properties"
    echo "-> Installed $name"
    ;;
  remove)
    if [ ! -d "$home/plugins/$name" ]; then
      echo "plugin $name not found" >&2
      exit 1
    fi
    rm -rf "$home/plugins/$name"
    echo "-> Removed $name"
    ;;
  *)
    echo "unknown command" >&2
    exit 64
    ;;
esac
`

const esBinary = `#!/bin/sh
if [ "$1" = "--version" ]; then
  echo "Version: %s, Build: default/tar/1a2b3c/2017-10-06T20:33:39.012Z, JVM: 1.8.0_144"
  exit 0
fi
exit 1
`

// Home is a fake Elasticsearch installation.
type Home struct {
	Dir string
}

// NewHome lays out bin/elasticsearch-plugin, bin/plugin, bin/elasticsearch
// and an empty plugins directory under dir. The elasticsearch binary reports
// esVersion.
func NewHome(dir, esVersion string) (*Home, error) {
	h := &Home{Dir: dir}
	if err := os.MkdirAll(h.PluginDir(), 0o750); err != nil {
		return nil, fmt.Errorf("create plugin dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "bin"), 0o750); err != nil {
		return nil, fmt.Errorf("create bin dir: %w", err)
	}

	scripts := map[string]string{
		h.PluginTool():       pluginTool,
		h.LegacyPluginTool(): pluginTool,
		h.ESBinary():         fmt.Sprintf(esBinary, esVersion),
	}
	for path, body := range scripts {
		if err := os.WriteFile(path, []byte(body), 0o755); err != nil { //nolint:gosec // scripts must be executable
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
	}
	return h, nil
}

// PluginDir is the installed plugin directory.
func (h *Home) PluginDir() string { return filepath.Join(h.Dir, "plugins") }

// PluginTool is bin/elasticsearch-plugin.
func (h *Home) PluginTool() string { return filepath.Join(h.Dir, "bin", "elasticsearch-plugin") }

// LegacyPluginTool is bin/plugin.
func (h *Home) LegacyPluginTool() string { return filepath.Join(h.Dir, "bin", "plugin") }

// ESBinary is bin/elasticsearch.
func (h *Home) ESBinary() string { return filepath.Join(h.Dir, "bin", "elasticsearch") }

// AddPlugin writes an installed plugin descriptor.
func (h *Home) AddPlugin(name, version string) error {
	dir := filepath.Join(h.PluginDir(), name)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create plugin %s: %w", name, err)
	}
	body := fmt.Sprintf("name=%s\nversion=%s\n", name, version)
	if err := os.WriteFile(filepath.Join(dir, "plugin-descriptor.properties"), []byte(body), 0o600); err != nil {
		return fmt.Errorf("write descriptor for %s: %w", name, err)
	}
	return nil
}

// FailInstalls makes the next n install invocations exit non-zero.
func (h *Home) FailInstalls(n int) error {
	if err := os.WriteFile(filepath.Join(h.Dir, "failures"), []byte(strconv.Itoa(n)+"\n"), 0o600); err != nil {
		return fmt.Errorf("write failure count: %w", err)
	}
	return nil
}

// Invocation is one recorded plugin tool call.
type Invocation struct {
	Args     string
	JavaOpts string
}

// Invocations returns the plugin tool calls made so far, oldest first.
func (h *Home) Invocations() ([]Invocation, error) {
	data, err := os.ReadFile(filepath.Join(h.Dir, "invocations.log"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read invocations: %w", err)
	}

	var calls []Invocation
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		args, opts, _ := bytes.Cut(scanner.Bytes(), []byte("|"))
		calls = append(calls, Invocation{Args: string(args), JavaOpts: string(opts)})
	}
	return calls, scanner.Err()
}
