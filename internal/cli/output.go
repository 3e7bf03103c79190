package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/eshaffer321/bankrec/internal/domain/model"
)

const dateLayout = "2006-01-02"

// PrintJSON writes v as indented JSON
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintReconciliationSummary prints the result of a run
func PrintReconciliationSummary(w io.Writer, rec *model.Reconciliation) {
	fmt.Fprintf(w, "Reconciliation %s (statement %s)\n", rec.ID, rec.BankStatementID)
	fmt.Fprintf(w, "Period: %s .. %s\n", rec.PeriodFrom.Format(dateLayout), rec.PeriodTo.Format(dateLayout))
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Summary: Lines=%d Transactions=%d Matched=%d UnmatchedBank=%d UnmatchedInternal=%d\n",
		rec.TotalBankLines,
		rec.TotalInternalTransactions,
		rec.MatchedCount,
		rec.UnmatchedBankCount,
		rec.UnmatchedInternalCount)
	fmt.Fprintf(w, "Balances: Bank=%s System=%s Difference=%s\n",
		rec.BankClosingBalance.StringFixed(2),
		rec.SystemClosingBalance.StringFixed(2),
		rec.BalanceDifference.StringFixed(2))

	if len(rec.Matches) > 0 {
		fmt.Fprintln(w, "\nMatches:")
		for _, m := range rec.Matches {
			printMatchLine(w, m)
		}
	}

	if len(rec.Discrepancies) > 0 {
		fmt.Fprintln(w, "\nDiscrepancies:")
		for _, d := range rec.Discrepancies {
			ref := d.BankLineID
			if ref == "" {
				ref = d.InternalTransactionID
			}
			fmt.Fprintf(w, "  - [%s] %s %s %s\n", d.Type, ref, d.Amount.StringFixed(2), d.Description)
		}
	}

	fmt.Fprintf(w, "\nStatus: %s\n", rec.Status)
}

// PrintSuggestions prints ranked candidates for a bank line
func PrintSuggestions(w io.Writer, lineID string, suggestions []model.MatchSuggestion) {
	if len(suggestions) == 0 {
		fmt.Fprintf(w, "No suggestions for bank line %s\n", lineID)
		return
	}

	fmt.Fprintf(w, "Suggestions for bank line %s:\n", lineID)
	for i, s := range suggestions {
		fmt.Fprintf(w, "  %d. %s %s %s %.2f (%s) %s\n",
			i+1,
			s.Transaction.ID,
			s.Transaction.Date.Format(dateLayout),
			s.Transaction.Amount.StringFixed(2),
			s.Confidence,
			s.Type,
			s.Reason)
	}
}

// PrintMatch prints a single match
func PrintMatch(w io.Writer, m *model.Match) {
	fmt.Fprintf(w, "Match %s\n", m.ID)
	printMatchLine(w, *m)
}

func printMatchLine(w io.Writer, m model.Match) {
	fmt.Fprintf(w, "  - %s <-> %s %s %.2f", m.BankLineID, m.InternalTransactionID, m.Type, m.Confidence)
	if !m.AmountDifference.IsZero() || m.DaysDifference != 0 {
		fmt.Fprintf(w, " diff=%s days=%d", m.AmountDifference.StringFixed(2), m.DaysDifference)
	}
	if m.MatchedBy != "" {
		fmt.Fprintf(w, " by=%s", m.MatchedBy)
	}
	fmt.Fprintln(w)
}
