package cli

import (
	"github.com/spf13/cobra"

	"github.com/eshaffer321/bankrec/internal/api/dto"
)

func newSuggestCommand(opts *GlobalOptions) *cobra.Command {
	var (
		lineID string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Rank ledger entries that could match a bank line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, "cli", func(app *App) error {
				suggestions, err := app.Service.SuggestMatches(cmd.Context(), lineID, limit)
				if err != nil {
					return err
				}

				if opts.JSON {
					return PrintJSON(cmd.OutOrStdout(), dto.SuggestionListResponse{
						BankLineID:  lineID,
						Suggestions: suggestions,
						Count:       len(suggestions),
					})
				}
				PrintSuggestions(cmd.OutOrStdout(), lineID, suggestions)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&lineID, "line", "", "bank statement line id")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum suggestions (default from config)")
	_ = cmd.MarkFlagRequired("line")

	return cmd
}
