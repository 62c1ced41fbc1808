// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"

	"github.com/holomush/esplugin/internal/plugin"
)

// listConfig holds flags for the list command.
type listConfig struct {
	match  string
	output string
}

// NewListCmd creates the list subcommand.
func NewListCmd(a *app) *cobra.Command {
	cfg := &listConfig{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed plugins",
		Long: `List plugins found in the plugin directory, one per descriptor.
Use --match to filter names with a glob such as 'analysis-*'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(cfg.output); err != nil {
				return err
			}

			var matcher glob.Glob
			if cfg.match != "" {
				g, err := glob.Compile(cfg.match)
				if err != nil {
					return fmt.Errorf("invalid --match pattern %q: %w", cfg.match, err)
				}
				matcher = g
			}

			descriptors, err := plugin.NewRegistry(a.cfg.PluginDir).List(cmd.Context())
			if err != nil {
				return err
			}

			shown := make([]*plugin.Descriptor, 0, len(descriptors))
			rows := make([][]string, 0, len(descriptors))
			for _, d := range descriptors {
				if matcher != nil && !matcher.Match(d.Name) {
					continue
				}
				shown = append(shown, d)
				rows = append(rows, []string{d.Name, d.Version, d.SourcePath})
			}

			return writeOutput(cmd.OutOrStdout(), cfg.output, shown,
				[]string{"NAME", "VERSION", "PATH"}, rows)
		},
	}

	cmd.Flags().StringVar(&cfg.match, "match", "", "only list plugins whose name matches this glob")
	cmd.Flags().StringVarP(&cfg.output, "output", "o", outputText, "output format (text, json, yaml)")

	return cmd
}
