// Package reconciliation builds a Reconciliation from a bank statement's lines
// and the internal ledger: it runs the matcher phases, classifies whatever is
// left as discrepancies and computes balances and the overall status.
//
// The engine performs no I/O. Callers load inputs beforehand and persist the
// returned Reconciliation as one unit.
package reconciliation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/bankrec/internal/domain/matcher"
	"github.com/eshaffer321/bankrec/internal/domain/model"
)

// balanceEpsilon is the largest balance difference still reported as Completed.
var balanceEpsilon = decimal.RequireFromString("0.01")

// Request holds the inputs of one reconciliation run.
type Request struct {
	BankStatementID      string
	BankLines            []model.BankStatementLine
	InternalTransactions []model.InternalTransaction
	BankOpeningBalance   decimal.Decimal
	BankClosingBalance   decimal.Decimal
	PeriodFrom           time.Time
	PeriodTo             time.Time
	Settings             model.Settings
}

// Engine executes reconciliation runs. It keeps no state between calls.
type Engine struct {
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewEngine creates an engine that logs to logger.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// ExecuteReconciliation matches the request's bank lines against its internal
// transactions and returns the assembled result.
func (e *Engine) ExecuteReconciliation(ctx context.Context, req Request) (*model.Reconciliation, error) {
	if err := req.Settings.Validate(); err != nil {
		return nil, err
	}
	if req.BankStatementID == "" {
		return nil, fmt.Errorf("%w: bank statement id is required", model.ErrInvalidInput)
	}

	m := matcher.NewMatcher(req.Settings, e.logger)
	result, err := m.Run(ctx, req.BankLines, req.InternalTransactions)
	if err != nil {
		return nil, fmt.Errorf("matching statement %s: %w", req.BankStatementID, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec := &model.Reconciliation{
		ID:                        e.newID(),
		BankStatementID:           req.BankStatementID,
		PeriodFrom:                req.PeriodFrom,
		PeriodTo:                  req.PeriodTo,
		TotalBankLines:            len(req.BankLines),
		TotalInternalTransactions: len(req.InternalTransactions),
		BankOpeningBalance:        req.BankOpeningBalance,
		BankClosingBalance:        req.BankClosingBalance,
	}

	matchedAt := e.now()
	rec.Matches = make([]model.Match, 0, len(result.Matches))
	for _, match := range result.Matches {
		match.ID = e.newID()
		match.ReconciliationID = rec.ID
		match.MatchedAt = matchedAt
		rec.Matches = append(rec.Matches, match)
	}

	rec.Discrepancies = classifyDiscrepancies(rec.ID, req.BankLines, req.InternalTransactions, result, e.newID)

	if err := checkPartition(req.BankLines, req.InternalTransactions, rec); err != nil {
		return nil, err
	}

	aggregate(rec, req.InternalTransactions)
	rec.CompletedAt = e.now()

	e.logger.Info("reconciliation complete",
		"reconciliation_id", rec.ID,
		"statement_id", rec.BankStatementID,
		"matched", rec.MatchedCount,
		"unmatched_bank", rec.UnmatchedBankCount,
		"unmatched_internal", rec.UnmatchedInternalCount,
		"balance_difference", rec.BalanceDifference.StringFixed(2),
		"status", string(rec.Status))

	return rec, nil
}

// aggregate fills counts, balances and status. The system closing balance
// is the sum over all input transactions, matched or not.
func aggregate(rec *model.Reconciliation, txs []model.InternalTransaction) {
	rec.MatchedCount = len(rec.Matches)

	rec.TotalDifference = decimal.Zero
	for _, d := range rec.Discrepancies {
		switch d.Type {
		case model.DiscrepancyMissingInSystem:
			rec.UnmatchedBankCount++
		case model.DiscrepancyMissingInBank:
			rec.UnmatchedInternalCount++
		}
		rec.TotalDifference = rec.TotalDifference.Add(d.Amount)
	}

	rec.SystemClosingBalance = decimal.Zero
	for _, tx := range txs {
		rec.SystemClosingBalance = rec.SystemClosingBalance.Add(tx.Amount)
	}
	rec.BalanceDifference = rec.BankClosingBalance.Sub(rec.SystemClosingBalance)

	rec.Status = determineStatus(rec.BalanceDifference, len(rec.Discrepancies))
}

// determineStatus is Completed only when the balances agree within one cent
// and nothing is left unmatched.
func determineStatus(balanceDifference decimal.Decimal, discrepancies int) model.ReconciliationStatus {
	if balanceDifference.Abs().LessThan(balanceEpsilon) && discrepancies == 0 {
		return model.StatusCompleted
	}
	return model.StatusRequiresReview
}

// checkPartition verifies every line and transaction appears exactly once
// across matches and discrepancies.
func checkPartition(lines []model.BankStatementLine, txs []model.InternalTransaction, rec *model.Reconciliation) error {
	lineSeen := make(map[string]int, len(lines))
	txSeen := make(map[string]int, len(txs))

	for _, m := range rec.Matches {
		lineSeen[m.BankLineID]++
		txSeen[m.InternalTransactionID]++
	}
	for _, d := range rec.Discrepancies {
		if d.BankLineID != "" {
			lineSeen[d.BankLineID]++
		}
		if d.InternalTransactionID != "" {
			txSeen[d.InternalTransactionID]++
		}
	}

	lineWant := make(map[string]int, len(lines))
	for _, l := range lines {
		lineWant[l.ID]++
	}
	txWant := make(map[string]int, len(txs))
	for _, tx := range txs {
		txWant[tx.ID]++
	}

	for id, n := range lineWant {
		if lineSeen[id] != n {
			return fmt.Errorf("%w: bank line %s accounted for %d time(s), want %d", model.ErrInconsistentState, id, lineSeen[id], n)
		}
	}
	for id, n := range txWant {
		if txSeen[id] != n {
			return fmt.Errorf("%w: transaction %s accounted for %d time(s), want %d", model.ErrInconsistentState, id, txSeen[id], n)
		}
	}
	return nil
}
