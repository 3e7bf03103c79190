// Package cli implements the bankrec command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the bankrec command tree.
func NewRootCommand(version string) *cobra.Command {
	opts := &GlobalOptions{}

	root := &cobra.Command{
		Use:           "bankrec",
		Short:         "Bank statement reconciliation",
		Long:          `bankrec matches bank statement lines against internal ledger entries and tracks the discrepancies left over.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "config.yaml", "config file path")
	root.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&opts.JSON, "json", false, "print results as JSON")

	root.AddCommand(
		newServeCommand(opts),
		newImportCommand(opts),
		newReconcileCommand(opts),
		newSuggestCommand(opts),
		newMatchCommand(opts),
		newUndoCommand(opts),
		newVersionCommand(version),
	)

	return root
}

func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bankrec version %s\n", version)
		},
	}
}

// withApp opens the application for one command and closes it afterwards.
func withApp(cmd *cobra.Command, opts *GlobalOptions, system string, fn func(*App) error) error {
	app, err := OpenApp(opts, cmd.ErrOrStderr(), system)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	return fn(app)
}
