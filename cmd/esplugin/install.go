// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/holomush/esplugin/internal/plugin"
)

// NewInstallCmd creates the install subcommand.
func NewInstallCmd(a *app) *cobra.Command {
	d := &plugin.DesiredState{Ensure: plugin.EnsurePresent}
	var output string

	cmd := &cobra.Command{
		Use:   "install NAME",
		Short: "Ensure a single plugin is installed",
		Long: `Install the named plugin unless a plugin with the same short name is
already present. NAME is a plugin name or vendor/plugin[/version].`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			d.Name = args[0]
			if err := d.Validate(); err != nil {
				return err
			}
			return a.converge(cmd, []*plugin.DesiredState{d}, output)
		},
	}

	cmd.Flags().StringVar(&d.URL, "url", "", "download URL passed to the plugin tool")
	cmd.Flags().StringVar(&d.Source, "source", "", "local plugin archive")
	cmd.Flags().StringVar(&d.Proxy, "proxy", "", "proxy URL, optionally with user:password")
	cmd.Flags().StringVar(&d.ConfigDir, "configdir", "", "Elasticsearch configuration directory")
	cmd.Flags().StringArrayVar(&d.JavaOpts, "java-opt", nil, "JVM option for the plugin tool (repeatable, replaces ES_JAVA_OPTS)")
	cmd.Flags().StringVar(&d.JavaHome, "java-home", "", "JAVA_HOME for the plugin tool")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format (text, json, yaml)")

	return cmd
}

// NewRemoveCmd creates the remove subcommand.
func NewRemoveCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "remove NAME",
		Short: "Ensure a single plugin is absent",
		Long:  `Remove the named plugin if a plugin with the same short name is installed.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			d := &plugin.DesiredState{Name: args[0], Ensure: plugin.EnsureAbsent}
			if err := d.Validate(); err != nil {
				return err
			}
			return a.converge(cmd, []*plugin.DesiredState{d}, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format (text, json, yaml)")

	return cmd
}
