package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/bankrec/internal/api/dto"
	"github.com/eshaffer321/bankrec/internal/domain/model"
)

func newImportCommand(opts *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import statements or ledger entries from JSON files",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "statement FILE",
		Short: "Import a bank statement with its lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req dto.CreateStatementRequest
			if err := readJSONFile(args[0], &req); err != nil {
				return err
			}
			stmt, err := req.ToModel()
			if err != nil {
				return err
			}

			return withApp(cmd, opts, "cli", func(app *App) error {
				if err := app.Service.ImportStatement(cmd.Context(), stmt); err != nil {
					return err
				}
				if opts.JSON {
					return PrintJSON(cmd.OutOrStdout(), stmt)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported statement %s with %d lines\n", stmt.ID, len(stmt.Lines))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "transactions FILE",
		Short: "Import internal ledger entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req dto.CreateTransactionsRequest
			if err := readJSONFile(args[0], &req); err != nil {
				return err
			}
			txs, err := req.ToModel()
			if err != nil {
				return err
			}

			return withApp(cmd, opts, "cli", func(app *App) error {
				if err := app.Service.ImportTransactions(cmd.Context(), txs); err != nil {
					return err
				}
				if opts.JSON {
					return PrintJSON(cmd.OutOrStdout(), dto.TransactionsImportedResponse{Transactions: txs, Count: len(txs)})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d transactions\n", len(txs))
				return nil
			})
		},
	})

	return cmd
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: parse %s: %v", model.ErrInvalidInput, path, err)
	}
	return nil
}
