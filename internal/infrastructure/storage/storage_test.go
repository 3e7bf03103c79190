package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/bankrec/internal/domain/model"
)

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedStatement(t *testing.T, repo Repository) *model.BankStatement {
	t.Helper()
	stmt := &model.BankStatement{
		ID:             "stmt-1",
		AccountNumber:  "GB00-1234",
		PeriodFrom:     day(1),
		PeriodTo:       day(31),
		OpeningBalance: amt("1000.00"),
		ClosingBalance: amt("1300.00"),
		Lines: []model.BankStatementLine{
			{ID: "l1", Date: day(5), Description: "ACME invoice 42", Reference: "PAY-1", Credit: amt("100.00")},
			{ID: "l2", Date: day(9), Description: "Card fee", Debit: amt("2.50")},
			{ID: "l3", Date: day(12), Description: "Transfer", Credit: amt("202.50")},
		},
	}
	require.NoError(t, repo.SaveStatement(context.Background(), stmt))
	return stmt
}

func seedTransactions(t *testing.T, repo Repository) []model.InternalTransaction {
	t.Helper()
	txs := []model.InternalTransaction{
		{ID: "t1", Date: day(5), Description: "ACME invoice 42", Amount: amt("100.00"), ExternalID: "PAY-1"},
		{ID: "t2", Date: day(10), Description: "Transfer in", Amount: amt("202.50")},
		{ID: "t3", Date: day(20), Description: "Supplier", Amount: amt("-75.00")},
		{ID: "t4", Date: day(3), Description: "Early", Amount: amt("100.01")},
	}
	require.NoError(t, repo.SaveTransactions(context.Background(), txs))
	return txs
}

func sampleReconciliation() *model.Reconciliation {
	return &model.Reconciliation{
		ID:                        "rec-1",
		BankStatementID:           "stmt-1",
		PeriodFrom:                day(1),
		PeriodTo:                  day(31),
		TotalBankLines:            3,
		TotalInternalTransactions: 4,
		MatchedCount:              1,
		UnmatchedBankCount:        2,
		UnmatchedInternalCount:    3,
		BankOpeningBalance:        amt("1000.00"),
		BankClosingBalance:        amt("1300.00"),
		SystemClosingBalance:      amt("327.51"),
		BalanceDifference:         amt("972.49"),
		TotalDifference:           amt("972.49"),
		Status:                    model.StatusRequiresReview,
		CompletedAt:               day(31).Add(10 * time.Hour),
		Matches: []model.Match{{
			ID: "m1", ReconciliationID: "rec-1", BankLineID: "l1", InternalTransactionID: "t1",
			Type: model.MatchTypeExact, Confidence: 1.0, AmountDifference: decimal.Zero,
			Reason: "exact", Status: model.MatchStatusActive, MatchedAt: day(31),
		}},
		Discrepancies: []model.Discrepancy{
			{ID: "d1", ReconciliationID: "rec-1", Type: model.DiscrepancyMissingInSystem, BankLineID: "l2",
				Amount: amt("2.50"), Description: "Card fee", Status: model.DiscrepancyPending},
			{ID: "d2", ReconciliationID: "rec-1", Type: model.DiscrepancyMissingInBank, InternalTransactionID: "t3",
				Amount: amt("-75.00"), Description: "Supplier", Status: model.DiscrepancyPending},
		},
	}
}

func TestStorage_SaveAndGetStatement(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seedStatement(t, store)

	got, err := store.GetStatement(ctx, "stmt-1")
	require.NoError(t, err)

	assert.Equal(t, "GB00-1234", got.AccountNumber)
	assert.True(t, got.OpeningBalance.Equal(amt("1000")))
	assert.True(t, got.PeriodFrom.Equal(day(1)))
	require.Len(t, got.Lines, 3)
	assert.Equal(t, []string{"l1", "l2", "l3"}, []string{got.Lines[0].ID, got.Lines[1].ID, got.Lines[2].ID})
	assert.Equal(t, "stmt-1", got.Lines[1].StatementID)
	assert.Equal(t, "2.50", got.Lines[1].Debit.StringFixed(2))
	assert.True(t, got.Lines[1].Credit.IsZero())

	line, err := store.GetStatementLine(ctx, "l3")
	require.NoError(t, err)
	assert.Equal(t, "202.5", line.EffectiveAmount().String())
}

func TestStorage_SaveStatement_AssignsIDs(t *testing.T) {
	store := openTestStore(t)
	stmt := &model.BankStatement{
		PeriodFrom: day(1), PeriodTo: day(2),
		Lines: []model.BankStatementLine{{Date: day(1), Credit: amt("1")}},
	}

	require.NoError(t, store.SaveStatement(context.Background(), stmt))

	assert.NotEmpty(t, stmt.ID)
	assert.NotEmpty(t, stmt.Lines[0].ID)
	assert.Equal(t, stmt.ID, stmt.Lines[0].StatementID)
	assert.False(t, stmt.ImportedAt.IsZero())
}

func TestStorage_SaveStatement_Duplicate(t *testing.T) {
	store := openTestStore(t)
	seedStatement(t, store)

	err := store.SaveStatement(context.Background(), &model.BankStatement{ID: "stmt-1", PeriodFrom: day(1), PeriodTo: day(2)})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestStorage_NotFound(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.GetStatement(ctx, "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = store.GetStatementLine(ctx, "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = store.GetTransaction(ctx, "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = store.GetReconciliation(ctx, "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = store.GetMatch(ctx, "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = store.GetDiscrepancy(ctx, "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, store.DeleteMatch(ctx, "nope"), model.ErrNotFound)
	assert.ErrorIs(t, store.UpdateMatchStatus(ctx, "nope", model.MatchStatusApproved), model.ErrNotFound)
}

func TestStorage_SaveTransactions_Upsert(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seedTransactions(t, store)

	updated := []model.InternalTransaction{{ID: "t3", Date: day(21), Description: "Supplier (corrected)", Amount: amt("-80.00")}}
	require.NoError(t, store.SaveTransactions(ctx, updated))

	got, err := store.GetTransaction(ctx, "t3")
	require.NoError(t, err)
	assert.Equal(t, "Supplier (corrected)", got.Description)
	assert.Equal(t, "-80.00", got.Amount.StringFixed(2))
	assert.True(t, got.Date.Equal(day(21)))
}

func TestStorage_ListUnreconciledTransactions(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seedStatement(t, store)
	seedTransactions(t, store)
	require.NoError(t, store.SaveReconciliation(ctx, sampleReconciliation()))

	txs, err := store.ListUnreconciledTransactions(ctx, day(1), day(15))
	require.NoError(t, err)

	ids := make([]string, 0, len(txs))
	for _, tx := range txs {
		ids = append(ids, tx.ID)
	}
	// t1 is matched, t3 is outside the window
	assert.Equal(t, []string{"t4", "t2"}, ids)
}

func TestStorage_ListUnmatchedLines(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seedStatement(t, store)
	seedTransactions(t, store)
	require.NoError(t, store.SaveReconciliation(ctx, sampleReconciliation()))

	lines, err := store.ListUnmatchedLines(ctx, "stmt-1")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "l2", lines[0].ID)
	assert.Equal(t, "l3", lines[1].ID)
}

func TestStorage_ListCandidateTransactions(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seedTransactions(t, store)

	t.Run("amount range is inclusive and exact", func(t *testing.T) {
		txs, err := store.ListCandidateTransactions(ctx, CandidateFilter{
			Amount: amt("100.00"), AmountRange: amt("0.01"), From: day(1), To: day(10),
		})
		require.NoError(t, err)
		require.Len(t, txs, 2)
		assert.Equal(t, "t4", txs[0].ID)
		assert.Equal(t, "t1", txs[1].ID)
	})

	t.Run("range excludes just outside", func(t *testing.T) {
		txs, err := store.ListCandidateTransactions(ctx, CandidateFilter{
			Amount: amt("100.00"), AmountRange: amt("0.009"), From: day(1), To: day(10),
		})
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, "t1", txs[0].ID)
	})

	t.Run("limit caps the pool", func(t *testing.T) {
		txs, err := store.ListCandidateTransactions(ctx, CandidateFilter{
			Amount: amt("100.00"), AmountRange: amt("500"), From: day(1), To: day(31), Limit: 2,
		})
		require.NoError(t, err)
		assert.Len(t, txs, 2)
	})
}

func TestStorage_SaveAndGetReconciliation(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seedStatement(t, store)
	seedTransactions(t, store)

	require.NoError(t, store.SaveReconciliation(ctx, sampleReconciliation()))

	got, err := store.GetReconciliation(ctx, "rec-1")
	require.NoError(t, err)

	assert.Equal(t, model.StatusRequiresReview, got.Status)
	assert.Equal(t, 3, got.UnmatchedInternalCount)
	assert.Equal(t, "972.49", got.BalanceDifference.StringFixed(2))
	assert.True(t, got.CompletedAt.Equal(day(31).Add(10*time.Hour)))

	require.Len(t, got.Matches, 1)
	assert.Equal(t, model.MatchTypeExact, got.Matches[0].Type)
	assert.Equal(t, model.MatchStatusActive, got.Matches[0].Status)
	assert.False(t, got.Matches[0].IsManual)

	require.Len(t, got.Discrepancies, 2)
	assert.Equal(t, model.DiscrepancyMissingInSystem, got.Discrepancies[0].Type)
	assert.Equal(t, "l2", got.Discrepancies[0].BankLineID)
	assert.Empty(t, got.Discrepancies[0].InternalTransactionID)
	assert.Equal(t, "-75.00", got.Discrepancies[1].Amount.StringFixed(2))
}

func TestStorage_SaveReconciliation_IsAtomic(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seedStatement(t, store)
	seedTransactions(t, store)
	require.NoError(t, store.SaveReconciliation(ctx, sampleReconciliation()))

	// A second run claiming l1 again must leave nothing behind
	second := sampleReconciliation()
	second.ID = "rec-2"
	second.Matches[0].ID = "m2"
	second.Matches[0].ReconciliationID = "rec-2"
	second.Discrepancies = nil

	err := store.SaveReconciliation(ctx, second)
	assert.ErrorIs(t, err, model.ErrAlreadyMatched)

	_, err = store.GetReconciliation(ctx, "rec-2")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestStorage_ListReconciliations_NewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seedStatement(t, store)
	seedTransactions(t, store)

	older := sampleReconciliation()
	older.Matches = nil
	older.Discrepancies = nil
	older.CompletedAt = day(10)
	newer := sampleReconciliation()
	newer.ID = "rec-2"
	newer.Matches = nil
	newer.Discrepancies = nil
	newer.CompletedAt = day(20)

	require.NoError(t, store.SaveReconciliation(ctx, older))
	require.NoError(t, store.SaveReconciliation(ctx, newer))

	recs, err := store.ListReconciliations(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "rec-2", recs[0].ID)
	assert.Equal(t, "rec-1", recs[1].ID)

	recs, err = store.ListReconciliations(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestStorage_MatchLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seedStatement(t, store)
	seedTransactions(t, store)

	match := &model.Match{
		BankLineID: "l3", InternalTransactionID: "t2", Type: model.MatchTypeManual,
		Confidence: 1.0, AmountDifference: decimal.Zero, DaysDifference: 2,
		Reason: "manually matched", IsManual: true, MatchedAt: day(12), MatchedBy: "alice",
	}
	require.NoError(t, store.SaveMatch(ctx, match))
	assert.NotEmpty(t, match.ID)
	assert.Equal(t, model.MatchStatusActive, match.Status)

	matched, err := store.IsLineMatched(ctx, "l3")
	require.NoError(t, err)
	assert.True(t, matched)
	matched, err = store.IsTransactionMatched(ctx, "t2")
	require.NoError(t, err)
	assert.True(t, matched)

	dup := &model.Match{BankLineID: "l3", InternalTransactionID: "t4", Type: model.MatchTypeManual, MatchedAt: day(12)}
	assert.ErrorIs(t, store.SaveMatch(ctx, dup), model.ErrAlreadyMatched)

	require.NoError(t, store.UpdateMatchStatus(ctx, match.ID, model.MatchStatusApproved))
	got, err := store.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MatchStatusApproved, got.Status)
	assert.True(t, got.IsManual)
	assert.Equal(t, "alice", got.MatchedBy)

	require.NoError(t, store.DeleteMatch(ctx, match.ID))
	matched, err = store.IsLineMatched(ctx, "l3")
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestStorage_DiscrepancyWorkflow(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seedStatement(t, store)
	seedTransactions(t, store)
	require.NoError(t, store.SaveReconciliation(ctx, sampleReconciliation()))

	d, err := store.GetDiscrepancy(ctx, "d2")
	require.NoError(t, err)
	d.Status = model.DiscrepancyInvestigating
	d.Note = "chasing supplier"
	d.UpdatedBy = "bob"
	require.NoError(t, store.UpdateDiscrepancy(ctx, d))

	n, err := store.ResolveDiscrepanciesFor(ctx, "", "l2", "t3", "carol")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := store.GetDiscrepancy(ctx, "d2")
	require.NoError(t, err)
	assert.Equal(t, model.DiscrepancyResolved, got.Status)
	assert.Equal(t, "chasing supplier", got.Note)
	assert.Equal(t, "carol", got.UpdatedBy)

	// Already resolved discrepancies are left alone
	n, err = store.ResolveDiscrepanciesFor(ctx, "rec-1", "l2", "t3", "dave")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStorage_AuditLog(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.LogAudit(ctx, &model.AuditEntry{Action: model.AuditManualMatch, EntityID: "m1", UserID: "alice", CreatedAt: day(1)}))
	require.NoError(t, store.LogAudit(ctx, &model.AuditEntry{Action: model.AuditUndoMatch, EntityID: "m1", UserID: "bob", CreatedAt: day(2)}))
	require.NoError(t, store.LogAudit(ctx, &model.AuditEntry{Action: model.AuditApproveMatch, EntityID: "m9", UserID: "bob"}))

	entries, err := store.ListAudit(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.AuditManualMatch, entries[0].Action)
	assert.Equal(t, "bob", entries[1].UserID)
}
