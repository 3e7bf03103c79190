package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/eshaffer321/bankrec/internal/domain/model"
)

const matchColumns = `
	id, reconciliation_id, bank_line_id, transaction_id, match_type, confidence,
	amount_difference, days_difference, reason, is_manual, status, matched_at, matched_by`

// execer is satisfied by *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertMatch(ctx context.Context, db execer, m *model.Match) error {
	if m.ID == "" {
		m.ID = newID()
	}
	if m.Status == "" {
		m.Status = model.MatchStatusActive
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO matches (`+matchColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ReconciliationID, m.BankLineID, m.InternalTransactionID, string(m.Type), m.Confidence,
		m.AmountDifference, m.DaysDifference, m.Reason, m.IsManual, string(m.Status),
		utc(m.MatchedAt), m.MatchedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: bank line %s or transaction %s", model.ErrAlreadyMatched,
				m.BankLineID, m.InternalTransactionID)
		}
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

// SaveMatch stores a single match, typically a manual one
func (s *Storage) SaveMatch(ctx context.Context, match *model.Match) error {
	return insertMatch(ctx, s.db, match)
}

// GetMatch retrieves a match by id
func (s *Storage) GetMatch(ctx context.Context, id string) (*model.Match, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = ?`, id)
	m, err := scanMatch(row)
	if err != nil {
		return nil, notFound(err, "match", id)
	}
	return &m, nil
}

// DeleteMatch removes a match, freeing both sides for matching again
func (s *Storage) DeleteMatch(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM matches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	return requireAffected(res, "match", id)
}

// UpdateMatchStatus changes the review status of a match
func (s *Storage) UpdateMatchStatus(ctx context.Context, id string, status model.MatchStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE matches SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update match status: %w", err)
	}
	return requireAffected(res, "match", id)
}

// IsLineMatched reports whether the bank line already holds a match
func (s *Storage) IsLineMatched(ctx context.Context, lineID string) (bool, error) {
	return s.exists(ctx, `SELECT COUNT(*) FROM matches WHERE bank_line_id = ?`, lineID)
}

// IsTransactionMatched reports whether the ledger entry already holds a match
func (s *Storage) IsTransactionMatched(ctx context.Context, txID string) (bool, error) {
	return s.exists(ctx, `SELECT COUNT(*) FROM matches WHERE transaction_id = ?`, txID)
}

func (s *Storage) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Storage) queryMatches(ctx context.Context, query string, args ...any) ([]model.Match, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	matches := make([]model.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func scanMatch(row rowScanner) (model.Match, error) {
	var m model.Match
	var matchType, status string
	err := row.Scan(&m.ID, &m.ReconciliationID, &m.BankLineID, &m.InternalTransactionID,
		&matchType, &m.Confidence, &m.AmountDifference, &m.DaysDifference, &m.Reason,
		&m.IsManual, &status, &m.MatchedAt, &m.MatchedBy)
	m.Type = model.MatchType(matchType)
	m.Status = model.MatchStatus(status)
	return m, err
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s", model.ErrNotFound, kind, id)
	}
	return nil
}
