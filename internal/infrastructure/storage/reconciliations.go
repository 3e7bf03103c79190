package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/eshaffer321/bankrec/internal/domain/model"
)

const reconciliationColumns = `
	id, bank_statement_id, period_from, period_to,
	total_bank_lines, total_internal_transactions, matched_count,
	unmatched_bank_count, unmatched_internal_count,
	bank_opening_balance, bank_closing_balance, system_closing_balance,
	balance_difference, total_difference, status, completed_at`

// SaveReconciliation writes the run, its matches and its discrepancies in a
// single transaction. Nothing is stored if any insert fails.
func (s *Storage) SaveReconciliation(ctx context.Context, rec *model.Reconciliation) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO reconciliations (`+reconciliationColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.BankStatementID, utc(rec.PeriodFrom), utc(rec.PeriodTo),
			rec.TotalBankLines, rec.TotalInternalTransactions, rec.MatchedCount,
			rec.UnmatchedBankCount, rec.UnmatchedInternalCount,
			rec.BankOpeningBalance, rec.BankClosingBalance, rec.SystemClosingBalance,
			rec.BalanceDifference, rec.TotalDifference, string(rec.Status), utc(rec.CompletedAt))
		if err != nil {
			return fmt.Errorf("insert reconciliation: %w", err)
		}

		for i := range rec.Matches {
			if err := insertMatch(ctx, tx, &rec.Matches[i]); err != nil {
				return err
			}
		}

		for i := range rec.Discrepancies {
			if err := insertDiscrepancy(ctx, tx, &rec.Discrepancies[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("reconciliation saved",
		"reconciliation_id", rec.ID,
		"matches", len(rec.Matches),
		"discrepancies", len(rec.Discrepancies))
	return nil
}

// GetReconciliation retrieves a run with its current matches and discrepancies.
// Undone matches are gone; manual matches attached to the run are included.
func (s *Storage) GetReconciliation(ctx context.Context, id string) (*model.Reconciliation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reconciliationColumns+` FROM reconciliations WHERE id = ?`, id)

	rec, err := scanReconciliation(row)
	if err != nil {
		return nil, notFound(err, "reconciliation", id)
	}

	rec.Matches, err = s.queryMatches(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE reconciliation_id = ? ORDER BY matched_at, rowid`, id)
	if err != nil {
		return nil, err
	}

	rec.Discrepancies, err = s.queryDiscrepancies(ctx,
		`SELECT `+discrepancyColumns+` FROM discrepancies WHERE reconciliation_id = ? ORDER BY rowid`, id)
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

// ListReconciliations returns run summaries, newest first. Matches and
// discrepancies are not loaded.
func (s *Storage) ListReconciliations(ctx context.Context, limit int) ([]model.Reconciliation, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reconciliationColumns+` FROM reconciliations ORDER BY completed_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query reconciliations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	recs := make([]model.Reconciliation, 0)
	for rows.Next() {
		rec, err := scanReconciliation(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func scanReconciliation(row rowScanner) (model.Reconciliation, error) {
	var rec model.Reconciliation
	var status string
	err := row.Scan(
		&rec.ID, &rec.BankStatementID, &rec.PeriodFrom, &rec.PeriodTo,
		&rec.TotalBankLines, &rec.TotalInternalTransactions, &rec.MatchedCount,
		&rec.UnmatchedBankCount, &rec.UnmatchedInternalCount,
		&rec.BankOpeningBalance, &rec.BankClosingBalance, &rec.SystemClosingBalance,
		&rec.BalanceDifference, &rec.TotalDifference, &status, &rec.CompletedAt)
	rec.Status = model.ReconciliationStatus(status)
	rec.Matches = []model.Match{}
	rec.Discrepancies = []model.Discrepancy{}
	return rec, err
}
