// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/holomush/esplugin/internal/converge"
	"github.com/holomush/esplugin/internal/plugin"
	"github.com/holomush/esplugin/internal/xdg"
	"github.com/holomush/esplugin/pkg/errutil"
)

// resultView is the rendered form of a converge.Result.
type resultView struct {
	Name     string `json:"name" yaml:"name"`
	Action   string `json:"action" yaml:"action"`
	Ensure   string `json:"ensure" yaml:"ensure"`
	Version  string `json:"version,omitempty" yaml:"version,omitempty"`
	Attempts int    `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// convergeConfig holds flags for the converge command.
type convergeConfig struct {
	manifest string
	output   string
}

// NewConvergeCmd creates the converge subcommand.
func NewConvergeCmd(a *app) *cobra.Command {
	cfg := &convergeConfig{}

	cmd := &cobra.Command{
		Use:   "converge",
		Short: "Install and remove plugins to match a manifest",
		Long: `Read a manifest of plugin records and install or remove plugins until
every record's ensure holds. Records already in their desired state run no
command. Exits non-zero when any record fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(cfg.output); err != nil {
				return err
			}
			manifest, err := plugin.LoadManifest(cfg.manifest)
			if err != nil {
				return err
			}
			return a.converge(cmd, manifest.Plugins, cfg.output)
		},
	}

	cmd.Flags().StringVarP(&cfg.manifest, "file", "f", xdg.ManifestFile(), "manifest of desired plugins")
	cmd.Flags().StringVarP(&cfg.output, "output", "o", outputText, "output format (text, json, yaml)")

	return cmd
}

// converge runs one convergence over desired, prints the results and writes
// the metrics textfile if configured.
func (a *app) converge(cmd *cobra.Command, desired []*plugin.DesiredState, output string) error {
	results, err := a.executor().Converge(cmd.Context(), desired)
	for _, res := range results {
		if res.Err != nil {
			errutil.LogError(slog.Default(), "plugin convergence failed", res.Err, "action", string(res.Action))
		}
	}

	if len(results) > 0 {
		if printErr := printResults(cmd, results, output); printErr != nil {
			return printErr
		}
	}

	if metricsErr := a.writeMetrics(); metricsErr != nil {
		return errors.Join(err, metricsErr)
	}
	return err
}

func printResults(cmd *cobra.Command, results []converge.Result, output string) error {
	views := make([]resultView, 0, len(results))
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		v := resultView{
			Name:     res.Name,
			Action:   string(res.Action),
			Ensure:   string(res.Ensure),
			Version:  res.Version,
			Attempts: res.Attempts,
		}
		status := "ok"
		if res.Err != nil {
			v.Error = res.Err.Error()
			status = "failed"
		}
		views = append(views, v)
		rows = append(rows, []string{v.Name, v.Action, v.Ensure, v.Version, strconv.Itoa(v.Attempts), status})
	}
	return writeOutput(cmd.OutOrStdout(), output, views,
		[]string{"NAME", "ACTION", "ENSURE", "VERSION", "ATTEMPTS", "STATUS"}, rows)
}

func (a *app) writeMetrics() error {
	if a.cfg.MetricsFile == "" {
		return nil
	}
	reg := prometheus.NewRegistry()
	converge.RegisterMetrics(reg)
	if err := prometheus.WriteToTextfile(a.cfg.MetricsFile, reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
