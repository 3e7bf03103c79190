// Package model holds the reconciliation data model shared by the matcher,
// the reconciliation engine, storage and the API.
//
// Amounts are decimal.Decimal throughout. Confidence values are plain
// float64 in [0, 1].
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MatchType identifies which strategy produced a match.
type MatchType string

const (
	MatchTypeExact         MatchType = "exact"
	MatchTypeAmountAndDate MatchType = "amount_and_date"
	MatchTypeML            MatchType = "ml"
	MatchTypeManual        MatchType = "manual"
	MatchTypePartial       MatchType = "partial"
)

// MatchStatus is changed by the review workflow after a run.
type MatchStatus string

const (
	MatchStatusActive   MatchStatus = "active"
	MatchStatusApproved MatchStatus = "approved"
)

// DiscrepancyType tells which side an unmatched item came from.
type DiscrepancyType string

const (
	// DiscrepancyMissingInSystem is a bank line with no ledger counterpart.
	DiscrepancyMissingInSystem DiscrepancyType = "missing_in_system"
	// DiscrepancyMissingInBank is a ledger entry with no bank counterpart.
	DiscrepancyMissingInBank DiscrepancyType = "missing_in_bank"
)

// DiscrepancyStatus tracks investigation of a discrepancy.
type DiscrepancyStatus string

const (
	DiscrepancyPending       DiscrepancyStatus = "pending"
	DiscrepancyInvestigating DiscrepancyStatus = "investigating"
	DiscrepancyResolved      DiscrepancyStatus = "resolved"
	DiscrepancyIgnored       DiscrepancyStatus = "ignored"
)

// Valid reports whether s is a known discrepancy status.
func (s DiscrepancyStatus) Valid() bool {
	switch s {
	case DiscrepancyPending, DiscrepancyInvestigating, DiscrepancyResolved, DiscrepancyIgnored:
		return true
	}
	return false
}

// ReconciliationStatus is the overall outcome of a run.
type ReconciliationStatus string

const (
	StatusCompleted      ReconciliationStatus = "completed"
	StatusRequiresReview ReconciliationStatus = "requires_review"
)

// BankStatement is an imported statement header.
type BankStatement struct {
	ID             string              `json:"id"`
	AccountNumber  string              `json:"account_number"`
	PeriodFrom     time.Time           `json:"period_from"`
	PeriodTo       time.Time           `json:"period_to"`
	OpeningBalance decimal.Decimal     `json:"opening_balance"`
	ClosingBalance decimal.Decimal     `json:"closing_balance"`
	Lines          []BankStatementLine `json:"lines,omitempty"`
	ImportedAt     time.Time           `json:"imported_at"`
}

// BankStatementLine is one line of an imported bank statement.
// At most one of Credit and Debit is non-zero.
type BankStatementLine struct {
	ID          string          `json:"id"`
	StatementID string          `json:"statement_id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
	Credit      decimal.Decimal `json:"credit"`
	Debit       decimal.Decimal `json:"debit"`
}

// EffectiveAmount returns the signed movement of the line, credit - debit,
// in the same sign convention as InternalTransaction.Amount.
func (l BankStatementLine) EffectiveAmount() decimal.Decimal {
	return l.Credit.Sub(l.Debit)
}

// InternalTransaction is one ledger entry. Amount is signed.
type InternalTransaction struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	ExternalID  string          `json:"external_id,omitempty"`
}

// Match links one bank line to one internal transaction.
type Match struct {
	ID                    string          `json:"id"`
	ReconciliationID      string          `json:"reconciliation_id,omitempty"`
	BankLineID            string          `json:"bank_line_id"`
	InternalTransactionID string          `json:"internal_transaction_id"`
	Type                  MatchType       `json:"match_type"`
	Confidence            float64         `json:"confidence"`
	AmountDifference      decimal.Decimal `json:"amount_difference"`
	DaysDifference        int             `json:"days_difference"`
	Reason                string          `json:"reason"`
	IsManual              bool            `json:"is_manual"`
	Status                MatchStatus     `json:"status"`
	MatchedAt             time.Time       `json:"matched_at"`
	MatchedBy             string          `json:"matched_by,omitempty"`
}

// Discrepancy is one unmatched bank line or one unmatched internal
// transaction, never both.
type Discrepancy struct {
	ID                    string            `json:"id"`
	ReconciliationID      string            `json:"reconciliation_id"`
	Type                  DiscrepancyType   `json:"type"`
	BankLineID            string            `json:"bank_line_id,omitempty"`
	InternalTransactionID string            `json:"internal_transaction_id,omitempty"`
	Amount                decimal.Decimal   `json:"amount"`
	Description           string            `json:"description"`
	Status                DiscrepancyStatus `json:"status"`
	Note                  string            `json:"note,omitempty"`
	UpdatedBy             string            `json:"updated_by,omitempty"`
}

// Reconciliation is the aggregate result of one run. It is built in memory
// and handed over as a single unit.
type Reconciliation struct {
	ID                        string               `json:"id"`
	BankStatementID           string               `json:"bank_statement_id"`
	PeriodFrom                time.Time            `json:"period_from"`
	PeriodTo                  time.Time            `json:"period_to"`
	TotalBankLines            int                  `json:"total_bank_lines"`
	TotalInternalTransactions int                  `json:"total_internal_transactions"`
	MatchedCount              int                  `json:"matched_count"`
	UnmatchedBankCount        int                  `json:"unmatched_bank_count"`
	UnmatchedInternalCount    int                  `json:"unmatched_internal_count"`
	BankOpeningBalance        decimal.Decimal      `json:"bank_opening_balance"`
	BankClosingBalance        decimal.Decimal      `json:"bank_closing_balance"`
	SystemClosingBalance      decimal.Decimal      `json:"system_closing_balance"`
	BalanceDifference         decimal.Decimal      `json:"balance_difference"`
	TotalDifference           decimal.Decimal      `json:"total_difference"`
	Status                    ReconciliationStatus `json:"status"`
	Matches                   []Match              `json:"matches"`
	Discrepancies             []Discrepancy        `json:"discrepancies"`
	CompletedAt               time.Time            `json:"completed_at"`
}

// MatchSuggestion is a ranked candidate pairing for human review. It is
// never persisted.
type MatchSuggestion struct {
	Transaction      InternalTransaction `json:"transaction"`
	Type             MatchType           `json:"match_type"`
	Confidence       float64             `json:"confidence"`
	AmountDifference decimal.Decimal     `json:"amount_difference"`
	DaysDifference   int                 `json:"days_difference"`
	Reason           string              `json:"reason"`
}

// AuditEntry records a manual action on a match or discrepancy.
type AuditEntry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	EntityID  string    `json:"entity_id"`
	UserID    string    `json:"user_id"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Audit actions.
const (
	AuditManualMatch       = "manual_match"
	AuditUndoMatch         = "undo_match"
	AuditApproveMatch      = "approve_match"
	AuditDiscrepancyUpdate = "discrepancy_update"
)
