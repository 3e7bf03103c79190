package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eshaffer321/bankrec/internal/domain/model"
)

// amountSlack widens the REAL prefilter so float rounding never drops a candidate.
// The exact decimal comparison happens afterwards in Go.
const amountSlack = 0.005

// SaveStatement stores a statement header and its lines in one transaction
func (s *Storage) SaveStatement(ctx context.Context, stmt *model.BankStatement) error {
	if stmt.ID == "" {
		stmt.ID = newID()
	}
	if stmt.ImportedAt.IsZero() {
		stmt.ImportedAt = time.Now().UTC()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bank_statements
			(id, account_number, period_from, period_to, opening_balance, closing_balance, imported_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			stmt.ID, stmt.AccountNumber, utc(stmt.PeriodFrom), utc(stmt.PeriodTo),
			stmt.OpeningBalance, stmt.ClosingBalance, utc(stmt.ImportedAt))
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: statement %s already exists", model.ErrInvalidInput, stmt.ID)
			}
			return fmt.Errorf("insert statement: %w", err)
		}

		for i := range stmt.Lines {
			line := &stmt.Lines[i]
			if line.ID == "" {
				line.ID = newID()
			}
			line.StatementID = stmt.ID

			_, err := tx.ExecContext(ctx, `
				INSERT INTO bank_statement_lines
				(id, statement_id, position, line_date, description, reference, credit, debit)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				line.ID, line.StatementID, i, utc(line.Date), line.Description, line.Reference,
				line.Credit, line.Debit)
			if err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("%w: statement line %s already exists", model.ErrInvalidInput, line.ID)
				}
				return fmt.Errorf("insert statement line %s: %w", line.ID, err)
			}
		}
		return nil
	})
}

// GetStatement retrieves a statement with its lines in import order
func (s *Storage) GetStatement(ctx context.Context, id string) (*model.BankStatement, error) {
	stmt := &model.BankStatement{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, account_number, period_from, period_to, opening_balance, closing_balance, imported_at
		FROM bank_statements WHERE id = ?`, id).Scan(
		&stmt.ID, &stmt.AccountNumber, &stmt.PeriodFrom, &stmt.PeriodTo,
		&stmt.OpeningBalance, &stmt.ClosingBalance, &stmt.ImportedAt)
	if err != nil {
		return nil, notFound(err, "statement", id)
	}

	lines, err := s.queryLines(ctx, `
		SELECT id, statement_id, line_date, description, reference, credit, debit
		FROM bank_statement_lines WHERE statement_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	stmt.Lines = lines

	return stmt, nil
}

// GetStatementLine retrieves a single line by id
func (s *Storage) GetStatementLine(ctx context.Context, id string) (*model.BankStatementLine, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, statement_id, line_date, description, reference, credit, debit
		FROM bank_statement_lines WHERE id = ?`, id)

	line, err := scanLine(row)
	if err != nil {
		return nil, notFound(err, "statement line", id)
	}
	return &line, nil
}

// ListUnmatchedLines returns the statement's lines that hold no match, in import order
func (s *Storage) ListUnmatchedLines(ctx context.Context, statementID string) ([]model.BankStatementLine, error) {
	return s.queryLines(ctx, `
		SELECT l.id, l.statement_id, l.line_date, l.description, l.reference, l.credit, l.debit
		FROM bank_statement_lines l
		WHERE l.statement_id = ?
		  AND NOT EXISTS (SELECT 1 FROM matches m WHERE m.bank_line_id = l.id)
		ORDER BY l.position`, statementID)
}

func (s *Storage) queryLines(ctx context.Context, query string, args ...any) ([]model.BankStatementLine, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query statement lines: %w", err)
	}
	defer func() { _ = rows.Close() }()

	lines := make([]model.BankStatementLine, 0)
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func scanLine(row rowScanner) (model.BankStatementLine, error) {
	var line model.BankStatementLine
	err := row.Scan(&line.ID, &line.StatementID, &line.Date, &line.Description,
		&line.Reference, &line.Credit, &line.Debit)
	return line, err
}

// SaveTransactions inserts or replaces ledger entries in one transaction
func (s *Storage) SaveTransactions(ctx context.Context, txs []model.InternalTransaction) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO internal_transactions (id, tx_date, description, amount, external_id)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				tx_date = excluded.tx_date,
				description = excluded.description,
				amount = excluded.amount,
				external_id = excluded.external_id`)
		if err != nil {
			return fmt.Errorf("prepare transaction upsert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i := range txs {
			t := &txs[i]
			if t.ID == "" {
				t.ID = newID()
			}
			if _, err := stmt.ExecContext(ctx, t.ID, utc(t.Date), t.Description, t.Amount, t.ExternalID); err != nil {
				return fmt.Errorf("upsert transaction %s: %w", t.ID, err)
			}
		}
		return nil
	})
}

// GetTransaction retrieves a ledger entry by id
func (s *Storage) GetTransaction(ctx context.Context, id string) (*model.InternalTransaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tx_date, description, amount, external_id
		FROM internal_transactions WHERE id = ?`, id)

	t, err := scanTransaction(row)
	if err != nil {
		return nil, notFound(err, "transaction", id)
	}
	return &t, nil
}

// ListUnreconciledTransactions returns unmatched entries dated within [from, to]
func (s *Storage) ListUnreconciledTransactions(ctx context.Context, from, to time.Time) ([]model.InternalTransaction, error) {
	return s.queryTransactions(ctx, `
		SELECT t.id, t.tx_date, t.description, t.amount, t.external_id
		FROM internal_transactions t
		WHERE t.tx_date >= ? AND t.tx_date <= ?
		  AND NOT EXISTS (SELECT 1 FROM matches m WHERE m.transaction_id = t.id)
		ORDER BY t.tx_date, t.id`, utc(from), utc(to))
}

// ListCandidateTransactions returns unmatched entries within the filter's
// date window and amount range, ordered by date, capped at the filter limit
func (s *Storage) ListCandidateTransactions(ctx context.Context, filter CandidateFilter) ([]model.InternalTransaction, error) {
	lo := filter.Amount.Sub(filter.AmountRange).InexactFloat64() - amountSlack
	hi := filter.Amount.Add(filter.AmountRange).InexactFloat64() + amountSlack

	rows, err := s.queryTransactions(ctx, `
		SELECT t.id, t.tx_date, t.description, t.amount, t.external_id
		FROM internal_transactions t
		WHERE t.tx_date >= ? AND t.tx_date <= ?
		  AND CAST(t.amount AS REAL) BETWEEN ? AND ?
		  AND NOT EXISTS (SELECT 1 FROM matches m WHERE m.transaction_id = t.id)
		ORDER BY t.tx_date, t.id`, utc(filter.From), utc(filter.To), lo, hi)
	if err != nil {
		return nil, err
	}

	limit := filter.limit()
	candidates := make([]model.InternalTransaction, 0, min(limit, len(rows)))
	for _, t := range rows {
		if !filter.accepts(t.Amount) {
			continue
		}
		candidates = append(candidates, t)
		if len(candidates) == limit {
			break
		}
	}
	return candidates, nil
}

func (s *Storage) queryTransactions(ctx context.Context, query string, args ...any) ([]model.InternalTransaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	txs := make([]model.InternalTransaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func scanTransaction(row rowScanner) (model.InternalTransaction, error) {
	var t model.InternalTransaction
	err := row.Scan(&t.ID, &t.Date, &t.Description, &t.Amount, &t.ExternalID)
	return t, err
}
