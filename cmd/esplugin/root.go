package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/holomush/esplugin/internal/config"
	"github.com/holomush/esplugin/internal/converge"
	"github.com/holomush/esplugin/internal/logging"
	"github.com/holomush/esplugin/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// app carries state resolved before a subcommand runs.
type app struct {
	cfg config.Config
}

// NewRootCmd creates the root command for the esplugin CLI.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "esplugin",
		Short: "Converge Elasticsearch plugins to a declared state",
		Long: `esplugin installs and removes Elasticsearch plugins so that a host
matches a declared list, driving the plugin tool that ships with the
detected Elasticsearch version.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/esplugin/config.yaml)")
	config.BindFlags(cmd.PersistentFlags())

	// Add subcommands
	cmd.AddCommand(NewConvergeCmd(a))
	cmd.AddCommand(NewInstallCmd(a))
	cmd.AddCommand(NewRemoveCmd(a))
	cmd.AddCommand(NewListCmd(a))
	cmd.AddCommand(NewGuessVersionCmd())
	cmd.AddCommand(NewSchemaCmd())

	return cmd
}

// setup loads configuration and installs the default logger.
func (a *app) setup(cmd *cobra.Command) error {
	path, required := configFile, configFile != ""
	if !required {
		path = xdg.ConfigFile()
	}

	cfg, err := config.Load(path, required, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.Setup("esplugin", version, cfg.LoggingOptions(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

func (a *app) executor() *converge.Executor {
	return converge.New(a.cfg.ExecutorConfig())
}
