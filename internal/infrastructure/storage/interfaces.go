package storage

import (
	"context"
	"time"

	"github.com/eshaffer321/bankrec/internal/domain/model"
)

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, in-memory)
// and makes testing with mocks straightforward.
type Repository interface {
	StatementRepository
	TransactionRepository
	ReconciliationRepository
	MatchRepository
	DiscrepancyRepository
	AuditRepository
	Close() error
}

// StatementRepository handles imported bank statements
type StatementRepository interface {
	// SaveStatement stores a statement header and its lines, assigning missing ids
	SaveStatement(ctx context.Context, stmt *model.BankStatement) error

	// GetStatement retrieves a statement with its lines in import order
	GetStatement(ctx context.Context, id string) (*model.BankStatement, error)

	// GetStatementLine retrieves a single line by id
	GetStatementLine(ctx context.Context, id string) (*model.BankStatementLine, error)

	// ListUnmatchedLines returns the statement's lines that hold no match, in import order
	ListUnmatchedLines(ctx context.Context, statementID string) ([]model.BankStatementLine, error)
}

// TransactionRepository handles internal ledger entries
type TransactionRepository interface {
	// SaveTransactions inserts or replaces ledger entries, assigning missing ids
	SaveTransactions(ctx context.Context, txs []model.InternalTransaction) error

	// GetTransaction retrieves a ledger entry by id
	GetTransaction(ctx context.Context, id string) (*model.InternalTransaction, error)

	// ListUnreconciledTransactions returns entries dated within [from, to] that hold no match
	ListUnreconciledTransactions(ctx context.Context, from, to time.Time) ([]model.InternalTransaction, error)

	// ListCandidateTransactions returns unmatched entries close to a bank line
	ListCandidateTransactions(ctx context.Context, filter CandidateFilter) ([]model.InternalTransaction, error)
}

// ReconciliationRepository handles reconciliation runs
type ReconciliationRepository interface {
	// SaveReconciliation writes the run with its matches and discrepancies in one transaction
	SaveReconciliation(ctx context.Context, rec *model.Reconciliation) error

	// GetReconciliation retrieves a run with its current matches and discrepancies
	GetReconciliation(ctx context.Context, id string) (*model.Reconciliation, error)

	// ListReconciliations returns run summaries, newest first
	ListReconciliations(ctx context.Context, limit int) ([]model.Reconciliation, error)
}

// MatchRepository handles individual matches outside a full run
type MatchRepository interface {
	SaveMatch(ctx context.Context, match *model.Match) error
	GetMatch(ctx context.Context, id string) (*model.Match, error)
	DeleteMatch(ctx context.Context, id string) error
	UpdateMatchStatus(ctx context.Context, id string, status model.MatchStatus) error

	// IsLineMatched reports whether the bank line already holds a match
	IsLineMatched(ctx context.Context, lineID string) (bool, error)

	// IsTransactionMatched reports whether the ledger entry already holds a match
	IsTransactionMatched(ctx context.Context, txID string) (bool, error)
}

// DiscrepancyRepository handles the discrepancy review workflow
type DiscrepancyRepository interface {
	GetDiscrepancy(ctx context.Context, id string) (*model.Discrepancy, error)
	UpdateDiscrepancy(ctx context.Context, d *model.Discrepancy) error

	// ResolveDiscrepanciesFor marks open discrepancies on either side as resolved.
	// An empty reconciliationID applies to every run.
	ResolveDiscrepanciesFor(ctx context.Context, reconciliationID, lineID, txID, userID string) (int, error)
}

// AuditRepository records manual actions
type AuditRepository interface {
	LogAudit(ctx context.Context, entry *model.AuditEntry) error
	ListAudit(ctx context.Context, entityID string) ([]model.AuditEntry, error)
}
