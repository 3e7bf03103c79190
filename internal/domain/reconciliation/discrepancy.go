package reconciliation

import (
	"github.com/eshaffer321/bankrec/internal/domain/matcher"
	"github.com/eshaffer321/bankrec/internal/domain/model"
)

// classifyDiscrepancies turns every unmatched bank line into a
// MissingInSystem discrepancy and every unmatched transaction into a
// MissingInBank one. Unmatched items are never paired with each other.
func classifyDiscrepancies(
	reconciliationID string,
	lines []model.BankStatementLine,
	txs []model.InternalTransaction,
	result *matcher.Result,
	newID func() string,
) []model.Discrepancy {
	discrepancies := make([]model.Discrepancy, 0)

	for i, line := range lines {
		if result.LineMatched[i] {
			continue
		}
		discrepancies = append(discrepancies, model.Discrepancy{
			ID:               newID(),
			ReconciliationID: reconciliationID,
			Type:             model.DiscrepancyMissingInSystem,
			BankLineID:       line.ID,
			Amount:           line.EffectiveAmount(),
			Description:      line.Description,
			Status:           model.DiscrepancyPending,
		})
	}

	for j, tx := range txs {
		if result.TxMatched[j] {
			continue
		}
		discrepancies = append(discrepancies, model.Discrepancy{
			ID:                    newID(),
			ReconciliationID:      reconciliationID,
			Type:                  model.DiscrepancyMissingInBank,
			InternalTransactionID: tx.ID,
			Amount:                tx.Amount,
			Description:           tx.Description,
			Status:                model.DiscrepancyPending,
		})
	}

	return discrepancies
}
