package main

import (
	"fmt"

	"github.com/spf13/cobra"

	esversion "github.com/holomush/esplugin/internal/version"
)

// NewGuessVersionCmd creates the guess-version subcommand.
func NewGuessVersionCmd() *cobra.Command {
	var details bool

	cmd := &cobra.Command{
		Use:   "guess-version CANDIDATE...",
		Short: "Guess an Elasticsearch version from strings",
		Long: `Print the version found at the end of the first candidate that carries
one, such as a package file name or download URL. Empty candidates are
skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := esversion.Guess(args...)
			if err != nil {
				return err
			}
			if !details {
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			}

			resolved, err := esversion.Resolve(v)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version=%s era=%s batch=%t\n",
				resolved, resolved.Era(), resolved.BatchCapable())
			return nil
		},
	}

	cmd.Flags().BoolVar(&details, "details", false, "also print the era and whether --batch is supported")

	return cmd
}
