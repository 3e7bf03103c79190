package reconciliation

import (
	"fmt"
	"strings"

	"github.com/eshaffer321/bankrec/internal/domain/matcher"
	"github.com/eshaffer321/bankrec/internal/domain/model"
)

const defaultManualReason = "manually matched"

// ManualMatchRequest describes a match asserted by a person.
type ManualMatchRequest struct {
	ReconciliationID string
	BankLine         model.BankStatementLine
	Transaction      model.InternalTransaction
	UserID           string
	Reason           string
}

// CreateManualMatch builds a Manual match with confidence 1.0. Amount and
// date agreement is not checked; the differences are only recorded.
func (e *Engine) CreateManualMatch(req ManualMatchRequest) (*model.Match, error) {
	if req.BankLine.ID == "" || req.Transaction.ID == "" {
		return nil, fmt.Errorf("%w: bank line and transaction ids are required", model.ErrInvalidInput)
	}
	if strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("%w: user id is required for a manual match", model.ErrInvalidInput)
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = defaultManualReason
	}

	match := &model.Match{
		ID:                    e.newID(),
		ReconciliationID:      req.ReconciliationID,
		BankLineID:            req.BankLine.ID,
		InternalTransactionID: req.Transaction.ID,
		Type:                  model.MatchTypeManual,
		Confidence:            1.0,
		AmountDifference:      req.BankLine.EffectiveAmount().Sub(req.Transaction.Amount).Abs(),
		DaysDifference:        matcher.DaysBetween(req.BankLine.Date, req.Transaction.Date),
		Reason:                reason,
		IsManual:              true,
		Status:                model.MatchStatusActive,
		MatchedAt:             e.now(),
		MatchedBy:             req.UserID,
	}

	e.logger.Info("manual match created",
		"match_id", match.ID,
		"bank_line_id", match.BankLineID,
		"transaction_id", match.InternalTransactionID,
		"user_id", req.UserID)

	return match, nil
}
