package storage

import (
	"context"
	"fmt"

	"github.com/eshaffer321/bankrec/internal/domain/model"
)

const discrepancyColumns = `
	id, reconciliation_id, discrepancy_type, bank_line_id, transaction_id,
	amount, description, status, note, updated_by`

func insertDiscrepancy(ctx context.Context, db execer, d *model.Discrepancy) error {
	if d.ID == "" {
		d.ID = newID()
	}
	if d.Status == "" {
		d.Status = model.DiscrepancyPending
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO discrepancies (`+discrepancyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.ReconciliationID, string(d.Type), d.BankLineID, d.InternalTransactionID,
		d.Amount, d.Description, string(d.Status), d.Note, d.UpdatedBy)
	if err != nil {
		return fmt.Errorf("insert discrepancy: %w", err)
	}
	return nil
}

// GetDiscrepancy retrieves a discrepancy by id
func (s *Storage) GetDiscrepancy(ctx context.Context, id string) (*model.Discrepancy, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+discrepancyColumns+` FROM discrepancies WHERE id = ?`, id)
	d, err := scanDiscrepancy(row)
	if err != nil {
		return nil, notFound(err, "discrepancy", id)
	}
	return &d, nil
}

// UpdateDiscrepancy persists the workflow fields (status, note, updated_by)
func (s *Storage) UpdateDiscrepancy(ctx context.Context, d *model.Discrepancy) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE discrepancies SET status = ?, note = ?, updated_by = ? WHERE id = ?`,
		string(d.Status), d.Note, d.UpdatedBy, d.ID)
	if err != nil {
		return fmt.Errorf("update discrepancy: %w", err)
	}
	return requireAffected(res, "discrepancy", d.ID)
}

// ResolveDiscrepanciesFor marks open discrepancies referencing the line or
// the transaction as resolved and returns how many changed
func (s *Storage) ResolveDiscrepanciesFor(ctx context.Context, reconciliationID, lineID, txID, userID string) (int, error) {
	query := `
		UPDATE discrepancies SET status = ?, updated_by = ?
		WHERE status IN (?, ?)
		  AND ((bank_line_id <> '' AND bank_line_id = ?) OR (transaction_id <> '' AND transaction_id = ?))`
	args := []any{
		string(model.DiscrepancyResolved), userID,
		string(model.DiscrepancyPending), string(model.DiscrepancyInvestigating),
		lineID, txID,
	}
	if reconciliationID != "" {
		query += ` AND reconciliation_id = ?`
		args = append(args, reconciliationID)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("resolve discrepancies: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *Storage) queryDiscrepancies(ctx context.Context, query string, args ...any) ([]model.Discrepancy, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query discrepancies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]model.Discrepancy, 0)
	for rows.Next() {
		d, err := scanDiscrepancy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDiscrepancy(row rowScanner) (model.Discrepancy, error) {
	var d model.Discrepancy
	var dtype, status string
	err := row.Scan(&d.ID, &d.ReconciliationID, &dtype, &d.BankLineID, &d.InternalTransactionID,
		&d.Amount, &d.Description, &status, &d.Note, &d.UpdatedBy)
	d.Type = model.DiscrepancyType(dtype)
	d.Status = model.DiscrepancyStatus(status)
	return d, err
}
