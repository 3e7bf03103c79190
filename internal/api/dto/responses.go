package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/bankrec/internal/domain/model"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a healthy response stamped with the current time.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ReconciliationListResponse contains run summaries.
type ReconciliationListResponse struct {
	Reconciliations []model.Reconciliation `json:"reconciliations"`
	Count           int                    `json:"count"`
}

// SuggestionListResponse contains ranked candidates for one bank line.
type SuggestionListResponse struct {
	BankLineID  string                  `json:"bank_line_id"`
	Suggestions []model.MatchSuggestion `json:"suggestions"`
	Count       int                     `json:"count"`
}

// TransactionsImportedResponse reports stored ledger entries.
type TransactionsImportedResponse struct {
	Transactions []model.InternalTransaction `json:"transactions"`
	Count        int                         `json:"count"`
}

// AuditListResponse contains the audit trail of one entity.
type AuditListResponse struct {
	EntityID string             `json:"entity_id"`
	Entries  []model.AuditEntry `json:"entries"`
	Count    int                `json:"count"`
}

// BalanceCheckResponse reports whether a statement's lines explain its closing balance.
type BalanceCheckResponse struct {
	StatementID     string          `json:"statement_id"`
	Valid           bool            `json:"valid"`
	ComputedClosing decimal.Decimal `json:"computed_closing"`
	DeclaredClosing decimal.Decimal `json:"declared_closing"`
	Difference      decimal.Decimal `json:"difference"`
	Reason          string          `json:"reason,omitempty"`
}
