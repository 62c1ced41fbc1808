// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package command builds plugin tool invocations for each command era.
package command

import (
	"strings"

	"github.com/holomush/esplugin/internal/environ"
	"github.com/holomush/esplugin/internal/plugin"
	"github.com/holomush/esplugin/internal/version"
)

// Operation is a plugin tool action.
type Operation int

// Plugin tool actions.
const (
	OpInstall Operation = iota
	OpRemove
)

// String returns the tool subcommand for the operation.
func (o Operation) String() string {
	switch o {
	case OpInstall:
		return "install"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Environment variables set around a plugin tool invocation.
const (
	EnvJavaOpts = "ES_JAVA_OPTS"
	EnvPathConf = "ES_PATH_CONF"
	EnvJavaHome = "JAVA_HOME"
)

// syntax describes how one era's plugin tool takes its arguments.
type syntax struct {
	// flagsAsArgs places -D options on the command line; otherwise they
	// travel in ES_JAVA_OPTS.
	flagsAsArgs bool
	target      func(d *plugin.DesiredState) []string
}

var syntaxes = map[version.Era]syntax{
	version.EraLegacy:  {flagsAsArgs: false, target: legacyTarget},
	version.EraInterim: {flagsAsArgs: true, target: target},
	version.EraModern:  {flagsAsArgs: true, target: target},
}

func legacyTarget(d *plugin.DesiredState) []string {
	switch {
	case d.URL != "":
		return []string{d.ShortName(), "--url", d.URL}
	case d.Source != "":
		return []string{d.ShortName(), "--url", "file://" + d.Source}
	default:
		return []string{d.Name}
	}
}

func target(d *plugin.DesiredState) []string {
	switch {
	case d.URL != "":
		return []string{d.URL}
	case d.Source != "":
		return []string{"file://" + d.Source}
	default:
		return []string{d.Name}
	}
}

// Builder produces plugin tool arguments and environment overlays.
type Builder struct {
	homeDir string
}

// NewBuilder creates a builder for an installation rooted at homeDir.
func NewBuilder(homeDir string) *Builder {
	return &Builder{homeDir: homeDir}
}

// Build returns the plugin tool arguments for op.
//
// batch adds --batch to installs and should be set for versions that
// support it (2.2.0 and later).
func (b *Builder) Build(op Operation, era version.Era, d *plugin.DesiredState, batch bool) ([]string, error) {
	switch op {
	case OpRemove:
		return []string{"remove", d.ShortName()}, nil
	case OpInstall:
	default:
		return nil, ErrUnknownOperation(op)
	}

	s, ok := syntaxes[era]
	if !ok {
		return nil, ErrUnknownEra(era)
	}

	var args []string
	if s.flagsAsArgs {
		flags, err := b.javaFlags(d)
		if err != nil {
			return nil, err
		}
		args = append(args, flags...)
	}
	args = append(args, "install")
	if batch {
		args = append(args, "--batch")
	}
	return append(args, s.target(d)...), nil
}

// Environment returns the overlay to apply while the plugin tool runs.
//
// ES_JAVA_OPTS is always set so that an inherited value cannot leak into the
// tool: in eras taking -D options through the environment it carries the
// config path and proxy flags, elsewhere it is empty, and an explicit
// java_opts list replaces it outright. ES_PATH_CONF is set only in those
// same environment-flag eras, and JAVA_HOME only when configured.
func (b *Builder) Environment(era version.Era, d *plugin.DesiredState) (environ.Overlay, error) {
	s, ok := syntaxes[era]
	if !ok {
		return nil, ErrUnknownEra(era)
	}

	env := environ.Overlay{EnvJavaOpts: ""}
	if !s.flagsAsArgs {
		flags, err := b.javaFlags(d)
		if err != nil {
			return nil, err
		}
		env[EnvJavaOpts] = strings.Join(flags, " ")
		if d.ConfigDir != "" {
			env[EnvPathConf] = d.ConfigDir
		}
	}
	if len(d.JavaOpts) > 0 {
		env[EnvJavaOpts] = strings.Join(d.JavaOpts, " ")
	}
	if d.JavaHome != "" {
		env[EnvJavaHome] = d.JavaHome
	}
	return env, nil
}

// javaFlags returns the config path flag followed by any proxy flags.
func (b *Builder) javaFlags(d *plugin.DesiredState) ([]string, error) {
	conf := b.homeDir
	if d.ConfigDir != "" {
		conf = d.ConfigDir
	}
	flags := []string{"-Des.path.conf=" + conf}

	if d.Proxy != "" {
		p, err := ParseProxy(d.Proxy)
		if err != nil {
			return nil, err
		}
		flags = append(flags, p.Flags()...)
	}
	return flags, nil
}
