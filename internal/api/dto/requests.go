package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/bankrec/internal/domain/model"
)

// dateLayouts are the accepted date formats, tried in order.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// ParseDate parses a calendar date (2006-01-02) or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", model.ErrInvalidInput, s)
}

// StatementLineRequest is one line of an imported statement.
type StatementLineRequest struct {
	ID          string          `json:"id"`
	Date        string          `json:"date" binding:"required"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
	Credit      decimal.Decimal `json:"credit"`
	Debit       decimal.Decimal `json:"debit"`
}

// CreateStatementRequest imports a bank statement with its lines.
type CreateStatementRequest struct {
	ID             string                 `json:"id"`
	AccountNumber  string                 `json:"account_number"`
	PeriodFrom     string                 `json:"period_from" binding:"required"`
	PeriodTo       string                 `json:"period_to" binding:"required"`
	OpeningBalance decimal.Decimal        `json:"opening_balance"`
	ClosingBalance decimal.Decimal        `json:"closing_balance"`
	Lines          []StatementLineRequest `json:"lines" binding:"dive"`
}

// ToModel converts the request into a statement.
func (r CreateStatementRequest) ToModel() (*model.BankStatement, error) {
	from, err := ParseDate(r.PeriodFrom)
	if err != nil {
		return nil, err
	}
	to, err := ParseDate(r.PeriodTo)
	if err != nil {
		return nil, err
	}

	stmt := &model.BankStatement{
		ID:             r.ID,
		AccountNumber:  r.AccountNumber,
		PeriodFrom:     from,
		PeriodTo:       to,
		OpeningBalance: r.OpeningBalance,
		ClosingBalance: r.ClosingBalance,
		Lines:          make([]model.BankStatementLine, 0, len(r.Lines)),
	}
	for _, l := range r.Lines {
		date, err := ParseDate(l.Date)
		if err != nil {
			return nil, err
		}
		stmt.Lines = append(stmt.Lines, model.BankStatementLine{
			ID:          l.ID,
			Date:        date,
			Description: l.Description,
			Reference:   l.Reference,
			Credit:      l.Credit,
			Debit:       l.Debit,
		})
	}
	return stmt, nil
}

// TransactionRequest is one internal ledger entry.
type TransactionRequest struct {
	ID          string          `json:"id"`
	Date        string          `json:"date" binding:"required"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	ExternalID  string          `json:"external_id"`
}

// CreateTransactionsRequest imports ledger entries.
type CreateTransactionsRequest struct {
	Transactions []TransactionRequest `json:"transactions" binding:"required,min=1,dive"`
}

// ToModel converts the request into ledger entries.
func (r CreateTransactionsRequest) ToModel() ([]model.InternalTransaction, error) {
	txs := make([]model.InternalTransaction, 0, len(r.Transactions))
	for _, t := range r.Transactions {
		date, err := ParseDate(t.Date)
		if err != nil {
			return nil, err
		}
		txs = append(txs, model.InternalTransaction{
			ID:          t.ID,
			Date:        date,
			Description: t.Description,
			Amount:      t.Amount,
			ExternalID:  t.ExternalID,
		})
	}
	return txs, nil
}

// SettingsRequest overrides individual run settings. Nil fields keep the
// configured value.
type SettingsRequest struct {
	DateToleranceDays      *int             `json:"date_tolerance_days"`
	AmountTolerance        *decimal.Decimal `json:"amount_tolerance"`
	MinimumConfidenceScore *float64         `json:"minimum_confidence_score"`
	UseAutomaticMatching   *bool            `json:"use_automatic_matching"`
	Parallelism            *int             `json:"parallelism"`
}

// ApplyTo returns base with the request's overrides applied.
func (r *SettingsRequest) ApplyTo(base model.Settings) model.Settings {
	if r == nil {
		return base
	}
	if r.DateToleranceDays != nil {
		base.DateToleranceDays = *r.DateToleranceDays
	}
	if r.AmountTolerance != nil {
		base.AmountTolerance = *r.AmountTolerance
	}
	if r.MinimumConfidenceScore != nil {
		base.MinimumConfidenceScore = *r.MinimumConfidenceScore
	}
	if r.UseAutomaticMatching != nil {
		base.UseAutomaticMatching = *r.UseAutomaticMatching
	}
	if r.Parallelism != nil {
		base.Parallelism = *r.Parallelism
	}
	return base
}

// ReconcileRequest starts a reconciliation run.
type ReconcileRequest struct {
	StatementID string           `json:"statement_id" binding:"required"`
	Settings    *SettingsRequest `json:"settings"`
}

// CreateMatchRequest creates a manual match.
type CreateMatchRequest struct {
	ReconciliationID string `json:"reconciliation_id"`
	BankLineID       string `json:"bank_line_id" binding:"required"`
	TransactionID    string `json:"transaction_id" binding:"required"`
	Reason           string `json:"reason"`
}

// UpdateDiscrepancyRequest moves a discrepancy through the review workflow.
type UpdateDiscrepancyRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}
