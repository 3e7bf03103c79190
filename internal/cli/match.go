package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/bankrec/internal/application/service"
)

func newMatchCommand(opts *GlobalOptions) *cobra.Command {
	var req service.ManualMatchRequest

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Manually match a bank line to a ledger entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, "cli", func(app *App) error {
				match, err := app.Service.CreateManualMatch(cmd.Context(), req)
				if err != nil {
					return err
				}

				if opts.JSON {
					return PrintJSON(cmd.OutOrStdout(), match)
				}
				PrintMatch(cmd.OutOrStdout(), match)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.BankLineID, "line", "", "bank statement line id")
	cmd.Flags().StringVar(&req.TransactionID, "tx", "", "internal transaction id")
	cmd.Flags().StringVar(&req.UserID, "user", "", "user making the match")
	cmd.Flags().StringVar(&req.Reason, "reason", "", "why the entries belong together")
	cmd.Flags().StringVar(&req.ReconciliationID, "reconciliation", "", "reconciliation whose discrepancies the match resolves")
	_ = cmd.MarkFlagRequired("line")
	_ = cmd.MarkFlagRequired("tx")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func newUndoCommand(opts *GlobalOptions) *cobra.Command {
	var matchID, userID string

	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Remove a match so both sides can be matched again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, "cli", func(app *App) error {
				if err := app.Service.UndoMatch(cmd.Context(), matchID, userID); err != nil {
					return err
				}

				if opts.JSON {
					return PrintJSON(cmd.OutOrStdout(), map[string]string{"undone": matchID})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Match %s undone\n", matchID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&matchID, "match", "", "match id")
	cmd.Flags().StringVar(&userID, "user", "", "user undoing the match")
	_ = cmd.MarkFlagRequired("match")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
