package cli

import (
	"github.com/spf13/cobra"

	"github.com/eshaffer321/bankrec/internal/application/service"
)

func newReconcileCommand(opts *GlobalOptions) *cobra.Command {
	var flags ReconcileFlags

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run a reconciliation for a statement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, "cli", func(app *App) error {
				base, err := app.Service.DefaultSettings()
				if err != nil {
					return err
				}
				settings, err := flags.ToSettings(base, cmd.Flags().Changed)
				if err != nil {
					return err
				}

				rec, err := app.Service.Reconcile(cmd.Context(), service.ReconcileRequest{
					StatementID: flags.StatementID,
					Settings:    &settings,
				})
				if err != nil {
					return err
				}

				if opts.JSON {
					return PrintJSON(cmd.OutOrStdout(), rec)
				}
				PrintReconciliationSummary(cmd.OutOrStdout(), rec)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&flags.StatementID, "statement", "", "statement id to reconcile")
	cmd.Flags().IntVar(&flags.DateTolerance, flagDateTolerance, 0, "date tolerance in days")
	cmd.Flags().StringVar(&flags.AmountTolerance, flagAmountTolerance, "", "amount tolerance, e.g. 0.01")
	cmd.Flags().Float64Var(&flags.MinConfidence, flagMinConfidence, 0, "minimum confidence for fuzzy matches")
	cmd.Flags().BoolVar(&flags.NoAuto, flagNoAuto, false, "skip automatic matching (all phases)")
	cmd.Flags().IntVar(&flags.Parallelism, flagParallelism, 0, "candidate search workers")
	_ = cmd.MarkFlagRequired("statement")

	return cmd
}
