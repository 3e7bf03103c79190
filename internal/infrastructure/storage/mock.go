package storage

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/eshaffer321/bankrec/internal/domain/model"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps and slices, making tests fast and isolated.
type MockRepository struct {
	mu sync.Mutex

	statements      map[string]*model.BankStatement
	lines           map[string]model.BankStatementLine
	transactions    map[string]model.InternalTransaction
	txOrder         []string
	reconciliations map[string]*model.Reconciliation
	recOrder        []string
	matches         map[string]*model.Match
	matchOrder      []string
	discrepancies   map[string]*model.Discrepancy
	discOrder       []string
	audit           []model.AuditEntry

	// Hooks for test assertions
	SaveReconciliationCalled bool
	LastSavedReconciliation  *model.Reconciliation
	LastCandidateFilter      *CandidateFilter

	// Error injection for testing error paths
	SaveStatementErr      error
	SaveReconciliationErr error
	SaveMatchErr          error
	LogAuditErr           error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		statements:      make(map[string]*model.BankStatement),
		lines:           make(map[string]model.BankStatementLine),
		transactions:    make(map[string]model.InternalTransaction),
		reconciliations: make(map[string]*model.Reconciliation),
		matches:         make(map[string]*model.Match),
		discrepancies:   make(map[string]*model.Discrepancy),
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

func (m *MockRepository) Close() error { return nil }

// SaveStatement stores a statement and its lines
func (m *MockRepository) SaveStatement(_ context.Context, stmt *model.BankStatement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveStatementErr != nil {
		return m.SaveStatementErr
	}
	if stmt.ID == "" {
		stmt.ID = newID()
	}
	if _, ok := m.statements[stmt.ID]; ok {
		return fmt.Errorf("%w: statement %s already exists", model.ErrInvalidInput, stmt.ID)
	}
	for i := range stmt.Lines {
		if stmt.Lines[i].ID == "" {
			stmt.Lines[i].ID = newID()
		}
		stmt.Lines[i].StatementID = stmt.ID
		m.lines[stmt.Lines[i].ID] = stmt.Lines[i]
	}

	stored := *stmt
	stored.Lines = slices.Clone(stmt.Lines)
	m.statements[stmt.ID] = &stored
	return nil
}

func (m *MockRepository) GetStatement(_ context.Context, id string) (*model.BankStatement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stmt, ok := m.statements[id]
	if !ok {
		return nil, fmt.Errorf("%w: statement %s", model.ErrNotFound, id)
	}
	out := *stmt
	out.Lines = slices.Clone(stmt.Lines)
	return &out, nil
}

func (m *MockRepository) GetStatementLine(_ context.Context, id string) (*model.BankStatementLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	line, ok := m.lines[id]
	if !ok {
		return nil, fmt.Errorf("%w: statement line %s", model.ErrNotFound, id)
	}
	return &line, nil
}

func (m *MockRepository) ListUnmatchedLines(_ context.Context, statementID string) ([]model.BankStatementLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stmt, ok := m.statements[statementID]
	if !ok {
		return []model.BankStatementLine{}, nil
	}
	out := make([]model.BankStatementLine, 0, len(stmt.Lines))
	for _, line := range stmt.Lines {
		if !m.lineMatchedLocked(line.ID) {
			out = append(out, line)
		}
	}
	return out, nil
}

// SaveTransactions inserts or replaces ledger entries
func (m *MockRepository) SaveTransactions(_ context.Context, txs []model.InternalTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range txs {
		if txs[i].ID == "" {
			txs[i].ID = newID()
		}
		if _, ok := m.transactions[txs[i].ID]; !ok {
			m.txOrder = append(m.txOrder, txs[i].ID)
		}
		m.transactions[txs[i].ID] = txs[i]
	}
	return nil
}

func (m *MockRepository) GetTransaction(_ context.Context, id string) (*model.InternalTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.transactions[id]
	if !ok {
		return nil, fmt.Errorf("%w: transaction %s", model.ErrNotFound, id)
	}
	return &tx, nil
}

func (m *MockRepository) ListUnreconciledTransactions(_ context.Context, from, to time.Time) ([]model.InternalTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.unmatchedInWindowLocked(from, to), nil
}

func (m *MockRepository) ListCandidateTransactions(_ context.Context, filter CandidateFilter) ([]model.InternalTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f := filter
	m.LastCandidateFilter = &f

	out := make([]model.InternalTransaction, 0)
	for _, tx := range m.unmatchedInWindowLocked(filter.From, filter.To) {
		if !filter.accepts(tx.Amount) {
			continue
		}
		out = append(out, tx)
		if len(out) == filter.limit() {
			break
		}
	}
	return out, nil
}

// unmatchedInWindowLocked returns unmatched entries in [from, to] ordered by date then id
func (m *MockRepository) unmatchedInWindowLocked(from, to time.Time) []model.InternalTransaction {
	out := make([]model.InternalTransaction, 0)
	for _, id := range m.txOrder {
		tx := m.transactions[id]
		if tx.Date.Before(from) || tx.Date.After(to) || m.txMatchedLocked(id) {
			continue
		}
		out = append(out, tx)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SaveReconciliation stores the run with its matches and discrepancies.
// Like the SQLite version, nothing is stored when a match conflicts.
func (m *MockRepository) SaveReconciliation(_ context.Context, rec *model.Reconciliation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveReconciliationCalled = true
	m.LastSavedReconciliation = rec
	if m.SaveReconciliationErr != nil {
		return m.SaveReconciliationErr
	}

	for _, match := range rec.Matches {
		if m.lineMatchedLocked(match.BankLineID) || m.txMatchedLocked(match.InternalTransactionID) {
			return fmt.Errorf("%w: bank line %s or transaction %s", model.ErrAlreadyMatched,
				match.BankLineID, match.InternalTransactionID)
		}
	}

	stored := *rec
	stored.Matches = nil
	stored.Discrepancies = nil
	m.reconciliations[rec.ID] = &stored
	m.recOrder = append(m.recOrder, rec.ID)

	for i := range rec.Matches {
		match := rec.Matches[i]
		m.matches[match.ID] = &match
		m.matchOrder = append(m.matchOrder, match.ID)
	}
	for i := range rec.Discrepancies {
		d := rec.Discrepancies[i]
		m.discrepancies[d.ID] = &d
		m.discOrder = append(m.discOrder, d.ID)
	}
	return nil
}

func (m *MockRepository) GetReconciliation(_ context.Context, id string) (*model.Reconciliation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.reconciliations[id]
	if !ok {
		return nil, fmt.Errorf("%w: reconciliation %s", model.ErrNotFound, id)
	}

	out := *rec
	out.Matches = make([]model.Match, 0)
	for _, mid := range m.matchOrder {
		if match, ok := m.matches[mid]; ok && match.ReconciliationID == id {
			out.Matches = append(out.Matches, *match)
		}
	}
	out.Discrepancies = make([]model.Discrepancy, 0)
	for _, did := range m.discOrder {
		if d := m.discrepancies[did]; d.ReconciliationID == id {
			out.Discrepancies = append(out.Discrepancies, *d)
		}
	}
	return &out, nil
}

func (m *MockRepository) ListReconciliations(_ context.Context, limit int) ([]model.Reconciliation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 {
		limit = DefaultListLimit
	}
	out := make([]model.Reconciliation, 0)
	for i := len(m.recOrder) - 1; i >= 0 && len(out) < limit; i-- {
		rec := *m.reconciliations[m.recOrder[i]]
		rec.Matches = []model.Match{}
		rec.Discrepancies = []model.Discrepancy{}
		out = append(out, rec)
	}
	return out, nil
}

func (m *MockRepository) SaveMatch(_ context.Context, match *model.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveMatchErr != nil {
		return m.SaveMatchErr
	}
	if match.ID == "" {
		match.ID = newID()
	}
	if m.lineMatchedLocked(match.BankLineID) || m.txMatchedLocked(match.InternalTransactionID) {
		return fmt.Errorf("%w: bank line %s or transaction %s", model.ErrAlreadyMatched,
			match.BankLineID, match.InternalTransactionID)
	}
	stored := *match
	m.matches[match.ID] = &stored
	m.matchOrder = append(m.matchOrder, match.ID)
	return nil
}

func (m *MockRepository) GetMatch(_ context.Context, id string) (*model.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	match, ok := m.matches[id]
	if !ok {
		return nil, fmt.Errorf("%w: match %s", model.ErrNotFound, id)
	}
	out := *match
	return &out, nil
}

func (m *MockRepository) DeleteMatch(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.matches[id]; !ok {
		return fmt.Errorf("%w: match %s", model.ErrNotFound, id)
	}
	delete(m.matches, id)
	return nil
}

func (m *MockRepository) UpdateMatchStatus(_ context.Context, id string, status model.MatchStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	match, ok := m.matches[id]
	if !ok {
		return fmt.Errorf("%w: match %s", model.ErrNotFound, id)
	}
	match.Status = status
	return nil
}

func (m *MockRepository) IsLineMatched(_ context.Context, lineID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lineMatchedLocked(lineID), nil
}

func (m *MockRepository) IsTransactionMatched(_ context.Context, txID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.txMatchedLocked(txID), nil
}

func (m *MockRepository) lineMatchedLocked(lineID string) bool {
	for _, match := range m.matches {
		if match.BankLineID == lineID {
			return true
		}
	}
	return false
}

func (m *MockRepository) txMatchedLocked(txID string) bool {
	for _, match := range m.matches {
		if match.InternalTransactionID == txID {
			return true
		}
	}
	return false
}

func (m *MockRepository) GetDiscrepancy(_ context.Context, id string) (*model.Discrepancy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.discrepancies[id]
	if !ok {
		return nil, fmt.Errorf("%w: discrepancy %s", model.ErrNotFound, id)
	}
	out := *d
	return &out, nil
}

func (m *MockRepository) UpdateDiscrepancy(_ context.Context, d *model.Discrepancy) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.discrepancies[d.ID]
	if !ok {
		return fmt.Errorf("%w: discrepancy %s", model.ErrNotFound, d.ID)
	}
	stored.Status = d.Status
	stored.Note = d.Note
	stored.UpdatedBy = d.UpdatedBy
	return nil
}

func (m *MockRepository) ResolveDiscrepanciesFor(_ context.Context, reconciliationID, lineID, txID, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	resolved := 0
	for _, d := range m.discrepancies {
		if reconciliationID != "" && d.ReconciliationID != reconciliationID {
			continue
		}
		if d.Status != model.DiscrepancyPending && d.Status != model.DiscrepancyInvestigating {
			continue
		}
		if (d.BankLineID != "" && d.BankLineID == lineID) ||
			(d.InternalTransactionID != "" && d.InternalTransactionID == txID) {
			d.Status = model.DiscrepancyResolved
			d.UpdatedBy = userID
			resolved++
		}
	}
	return resolved, nil
}

func (m *MockRepository) LogAudit(_ context.Context, entry *model.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.LogAuditErr != nil {
		return m.LogAuditErr
	}
	if entry.ID == "" {
		entry.ID = newID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	m.audit = append(m.audit, *entry)
	return nil
}

func (m *MockRepository) ListAudit(_ context.Context, entityID string) ([]model.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.AuditEntry, 0)
	for _, e := range m.audit {
		if e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}
