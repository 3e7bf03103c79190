package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/eshaffer321/bankrec/internal/domain/model"
)

// LogAudit appends an entry to the audit log
func (s *Storage) LogAudit(ctx context.Context, entry *model.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = newID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, action, entity_id, user_id, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Action, entry.EntityID, entry.UserID, entry.Detail, utc(entry.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListAudit returns the entries recorded for an entity, oldest first
func (s *Storage) ListAudit(ctx context.Context, entityID string) ([]model.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, entity_id, user_id, detail, created_at
		FROM audit_log WHERE entity_id = ? ORDER BY created_at, rowid`, entityID)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]model.AuditEntry, 0)
	for rows.Next() {
		var e model.AuditEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.EntityID, &e.UserID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
