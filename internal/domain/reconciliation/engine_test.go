package reconciliation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/bankrec/internal/domain/matcher"
	"github.com/eshaffer321/bankrec/internal/domain/model"
)

var fixedNow = time.Date(2024, 4, 2, 9, 30, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d-1)
}

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// newTestEngine returns an engine with a fixed clock and sequential ids.
func newTestEngine() *Engine {
	e := NewEngine(nil)
	e.now = func() time.Time { return fixedNow }
	n := 0
	e.newID = func() string {
		n++
		return fmt.Sprintf("id-%03d", n)
	}
	return e
}

func baseRequest(settings model.Settings, lines []model.BankStatementLine, txs []model.InternalTransaction) Request {
	return Request{
		BankStatementID:      "stmt-1",
		BankLines:            lines,
		InternalTransactions: txs,
		BankOpeningBalance:   amt("1000.00"),
		BankClosingBalance:   amt("1500.00"),
		PeriodFrom:           day(1),
		PeriodTo:             day(31),
		Settings:             settings,
	}
}

func settings(dateTolerance int, amountTolerance string) model.Settings {
	s := model.DefaultSettings()
	s.DateToleranceDays = dateTolerance
	s.AmountTolerance = amt(amountTolerance)
	return s
}

func TestEngine_ScenarioExactMatch(t *testing.T) {
	lines := []model.BankStatementLine{{ID: "l1", Date: day(1), Reference: "TXN-ABC123", Credit: amt("500.00")}}
	txs := []model.InternalTransaction{{ID: "t1", Date: day(1), Amount: amt("500.00"), ExternalID: "ABC123"}}

	rec, err := newTestEngine().ExecuteReconciliation(context.Background(), baseRequest(settings(0, "0.01"), lines, txs))

	require.NoError(t, err)
	require.Len(t, rec.Matches, 1)
	assert.Equal(t, model.MatchTypeExact, rec.Matches[0].Type)
	assert.Equal(t, 1.0, rec.Matches[0].Confidence)
	assert.Equal(t, rec.ID, rec.Matches[0].ReconciliationID)
	assert.Equal(t, fixedNow, rec.Matches[0].MatchedAt)
	assert.Empty(t, rec.Discrepancies)
	assert.Equal(t, 1, rec.MatchedCount)

	// Closing balance 1500 vs system 500: balanced matching still needs review.
	assert.Equal(t, "1000.00", rec.BalanceDifference.StringFixed(2))
	assert.Equal(t, model.StatusRequiresReview, rec.Status)
}

func TestEngine_ScenarioDateTolerantMatch(t *testing.T) {
	lines := []model.BankStatementLine{{ID: "l1", Date: day(3), Credit: amt("80.00")}}
	txs := []model.InternalTransaction{{ID: "t1", Date: day(1), Amount: amt("80.00")}}

	rec, err := newTestEngine().ExecuteReconciliation(context.Background(), baseRequest(settings(3, "0.01"), lines, txs))

	require.NoError(t, err)
	require.Len(t, rec.Matches, 1)
	assert.Equal(t, model.MatchTypeAmountAndDate, rec.Matches[0].Type)
	assert.InDelta(t, 0.80, rec.Matches[0].Confidence, 1e-9)
}

func TestEngine_DebitLineMatchesNegativeLedgerEntry(t *testing.T) {
	lines := []model.BankStatementLine{{ID: "l1", Date: day(1), Reference: "PAY-XYZ", Debit: amt("100.00")}}
	txs := []model.InternalTransaction{{ID: "t1", Date: day(1), Amount: amt("-100.00"), ExternalID: "XYZ"}}

	req := baseRequest(settings(3, "0.01"), lines, txs)
	req.BankClosingBalance = amt("-100.00")
	rec, err := newTestEngine().ExecuteReconciliation(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, rec.Matches, 1)
	assert.Equal(t, model.MatchTypeExact, rec.Matches[0].Type)
	assert.True(t, rec.Matches[0].AmountDifference.IsZero())
	assert.Empty(t, rec.Discrepancies)
	assert.Equal(t, model.StatusCompleted, rec.Status)
}

func TestEngine_DebitLineDateTolerantMatch(t *testing.T) {
	lines := []model.BankStatementLine{{ID: "l1", Date: day(3), Description: "rent", Debit: amt("1200.00")}}
	txs := []model.InternalTransaction{{ID: "t1", Date: day(1), Description: "rent", Amount: amt("-1200.00")}}

	rec, err := newTestEngine().ExecuteReconciliation(context.Background(), baseRequest(settings(3, "0.01"), lines, txs))

	require.NoError(t, err)
	require.Len(t, rec.Matches, 1)
	assert.Equal(t, model.MatchTypeAmountAndDate, rec.Matches[0].Type)
	assert.Empty(t, rec.Discrepancies)
}

func TestEngine_ScenarioDiscrepancy(t *testing.T) {
	lines := []model.BankStatementLine{{ID: "l1", Date: day(5), Description: "wire fee", Debit: amt("35.00")}}

	req := baseRequest(settings(3, "0.01"), lines, nil)
	req.BankClosingBalance = amt("-35.00")
	rec, err := newTestEngine().ExecuteReconciliation(context.Background(), req)

	require.NoError(t, err)
	assert.Empty(t, rec.Matches)
	require.Len(t, rec.Discrepancies, 1)
	d := rec.Discrepancies[0]
	assert.Equal(t, model.DiscrepancyMissingInSystem, d.Type)
	assert.Equal(t, "l1", d.BankLineID)
	assert.Empty(t, d.InternalTransactionID)
	assert.True(t, d.Amount.Equal(amt("-35.00")))
	assert.Equal(t, model.DiscrepancyPending, d.Status)
	assert.Equal(t, "wire fee", d.Description)

	assert.Equal(t, 1, rec.UnmatchedBankCount)
	assert.Equal(t, 0, rec.UnmatchedInternalCount)
	assert.True(t, rec.TotalDifference.Equal(amt("-35.00")))
	assert.Equal(t, model.StatusRequiresReview, rec.Status)
}

func TestEngine_MissingInBank(t *testing.T) {
	txs := []model.InternalTransaction{{ID: "t1", Date: day(5), Description: "refund", Amount: amt("-12.40")}}

	rec, err := newTestEngine().ExecuteReconciliation(context.Background(), baseRequest(settings(3, "0.01"), nil, txs))

	require.NoError(t, err)
	require.Len(t, rec.Discrepancies, 1)
	assert.Equal(t, model.DiscrepancyMissingInBank, rec.Discrepancies[0].Type)
	assert.Equal(t, "t1", rec.Discrepancies[0].InternalTransactionID)
	assert.True(t, rec.Discrepancies[0].Amount.Equal(amt("-12.40")))
	assert.Equal(t, 1, rec.UnmatchedInternalCount)
}

func TestEngine_CompletedWhenBalancedAndFullyMatched(t *testing.T) {
	lines := []model.BankStatementLine{
		{ID: "l1", Date: day(2), Credit: amt("1200.00")},
		{ID: "l2", Date: day(9), Credit: amt("300.00")},
	}
	txs := []model.InternalTransaction{
		{ID: "t1", Date: day(2), Amount: amt("1200.00")},
		{ID: "t2", Date: day(10), Amount: amt("300.00")},
	}

	req := baseRequest(settings(3, "0.01"), lines, txs)
	req.BankClosingBalance = amt("1500.005")
	rec, err := newTestEngine().ExecuteReconciliation(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 2, rec.MatchedCount)
	assert.True(t, rec.SystemClosingBalance.Equal(amt("1500.00")))
	assert.Equal(t, model.StatusCompleted, rec.Status)
}

func TestDetermineStatus(t *testing.T) {
	tests := []struct {
		name          string
		difference    string
		discrepancies int
		want          model.ReconciliationStatus
	}{
		{"balanced", "0", 0, model.StatusCompleted},
		{"just under a cent", "0.0099", 0, model.StatusCompleted},
		{"negative just under a cent", "-0.0099", 0, model.StatusCompleted},
		{"exactly a cent", "0.01", 0, model.StatusRequiresReview},
		{"negative cent", "-0.01", 0, model.StatusRequiresReview},
		{"balanced with discrepancies", "0", 2, model.StatusRequiresReview},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, determineStatus(amt(tt.difference), tt.discrepancies))
		})
	}
}

func TestEngine_BalanceUsesAllTransactions(t *testing.T) {
	lines := []model.BankStatementLine{{ID: "l1", Date: day(2), Credit: amt("100.00")}}
	txs := []model.InternalTransaction{
		{ID: "t1", Date: day(2), Amount: amt("100.00")},
		{ID: "t2", Date: day(20), Amount: amt("-40.25")},
		{ID: "t3", Date: day(25), Amount: amt("7.10")},
	}

	rec, err := newTestEngine().ExecuteReconciliation(context.Background(), baseRequest(settings(1, "0.01"), lines, txs))

	require.NoError(t, err)
	assert.Equal(t, 1, rec.MatchedCount)
	assert.True(t, rec.SystemClosingBalance.Equal(amt("66.85")), rec.SystemClosingBalance.String())
	assert.True(t, rec.BalanceDifference.Equal(amt("1433.15")), rec.BalanceDifference.String())
}

func TestEngine_PartitionInvariant(t *testing.T) {
	var lines []model.BankStatementLine
	var txs []model.InternalTransaction
	for i := 0; i < 40; i++ {
		lines = append(lines, model.BankStatementLine{
			ID:          fmt.Sprintf("l%02d", i),
			Date:        day(1 + i%20),
			Credit:      amt(fmt.Sprintf("%d.00", 10+i%6)),
			Reference:   fmt.Sprintf("REF-%d", i%13),
			Description: "client payment",
		})
	}
	for i := 0; i < 35; i++ {
		txs = append(txs, model.InternalTransaction{
			ID:          fmt.Sprintf("t%02d", i),
			Date:        day(1 + (i*7)%20),
			Amount:      amt(fmt.Sprintf("%d.00", 10+i%8)),
			ExternalID:  fmt.Sprintf("REF-%d", (i*3)%13),
			Description: "payment",
		})
	}

	rec, err := newTestEngine().ExecuteReconciliation(context.Background(), baseRequest(settings(2, "0.01"), lines, txs))
	require.NoError(t, err)

	lineCount := map[string]int{}
	txCount := map[string]int{}
	for _, m := range rec.Matches {
		lineCount[m.BankLineID]++
		txCount[m.InternalTransactionID]++
	}
	for _, d := range rec.Discrepancies {
		if d.BankLineID != "" {
			lineCount[d.BankLineID]++
		}
		if d.InternalTransactionID != "" {
			txCount[d.InternalTransactionID]++
		}
		assert.False(t, d.BankLineID != "" && d.InternalTransactionID != "", "discrepancy must reference one side only")
	}

	for _, l := range lines {
		assert.Equal(t, 1, lineCount[l.ID], "line %s", l.ID)
	}
	for _, tx := range txs {
		assert.Equal(t, 1, txCount[tx.ID], "transaction %s", tx.ID)
	}

	assert.Equal(t, len(lines), rec.MatchedCount+rec.UnmatchedBankCount)
	assert.Equal(t, len(txs), rec.MatchedCount+rec.UnmatchedInternalCount)
}

func TestEngine_Idempotent(t *testing.T) {
	lines := []model.BankStatementLine{
		{ID: "l1", Date: day(1), Credit: amt("10.00"), Description: "a"},
		{ID: "l2", Date: day(2), Credit: amt("10.00"), Description: "b"},
		{ID: "l3", Date: day(3), Debit: amt("5.00"), Description: "c"},
	}
	txs := []model.InternalTransaction{
		{ID: "t1", Date: day(2), Amount: amt("10.00"), Description: "a"},
		{ID: "t2", Date: day(9), Amount: amt("10.00"), Description: "b"},
		{ID: "t3", Date: day(4), Amount: amt("42.00"), Description: "z"},
	}
	req := baseRequest(settings(3, "0.01"), lines, txs)

	first, err := newTestEngine().ExecuteReconciliation(context.Background(), req)
	require.NoError(t, err)
	second, err := newTestEngine().ExecuteReconciliation(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEngine_AutomaticMatchingDisabled(t *testing.T) {
	s := settings(3, "0.01")
	s.UseAutomaticMatching = false
	lines := []model.BankStatementLine{{ID: "l1", Date: day(1), Reference: "TXN-ABC123", Credit: amt("500.00")}}
	txs := []model.InternalTransaction{{ID: "t1", Date: day(1), Amount: amt("500.00"), ExternalID: "ABC123"}}

	rec, err := newTestEngine().ExecuteReconciliation(context.Background(), baseRequest(s, lines, txs))

	require.NoError(t, err)
	assert.Empty(t, rec.Matches)
	assert.Len(t, rec.Discrepancies, 2)
}

func TestEngine_RejectsInvalidInput(t *testing.T) {
	t.Run("negative tolerance", func(t *testing.T) {
		s := settings(-1, "0.01")
		_, err := newTestEngine().ExecuteReconciliation(context.Background(), baseRequest(s, nil, nil))
		assert.ErrorIs(t, err, model.ErrInvalidInput)
	})

	t.Run("missing statement id", func(t *testing.T) {
		req := baseRequest(settings(1, "0.01"), nil, nil)
		req.BankStatementID = ""
		_, err := newTestEngine().ExecuteReconciliation(context.Background(), req)
		assert.ErrorIs(t, err, model.ErrInvalidInput)
	})
}

func TestEngine_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEngine().ExecuteReconciliation(ctx, baseRequest(settings(1, "0.01"), nil, nil))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheckPartition_DetectsDoubleMatch(t *testing.T) {
	lines := []model.BankStatementLine{{ID: "l1"}, {ID: "l2"}}
	txs := []model.InternalTransaction{{ID: "t1"}}
	rec := &model.Reconciliation{
		Matches: []model.Match{
			{BankLineID: "l1", InternalTransactionID: "t1"},
			{BankLineID: "l2", InternalTransactionID: "t1"},
		},
	}

	err := checkPartition(lines, txs, rec)

	assert.ErrorIs(t, err, model.ErrInconsistentState)
}

func TestClassifyDiscrepancies_SkipsMatched(t *testing.T) {
	lines := []model.BankStatementLine{{ID: "l1", Credit: amt("1")}, {ID: "l2", Credit: amt("2")}}
	txs := []model.InternalTransaction{{ID: "t1", Amount: amt("1")}, {ID: "t2", Amount: amt("3")}}
	result := &matcher.Result{
		LineMatched: []bool{true, false},
		TxMatched:   []bool{true, false},
	}

	got := classifyDiscrepancies("rec-1", lines, txs, result, func() string { return "d" })

	require.Len(t, got, 2)
	assert.Equal(t, "l2", got[0].BankLineID)
	assert.Equal(t, "t2", got[1].InternalTransactionID)
	assert.Equal(t, "rec-1", got[1].ReconciliationID)
}
