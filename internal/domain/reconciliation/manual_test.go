package reconciliation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/bankrec/internal/domain/model"
)

func TestCreateManualMatch_BypassesTolerance(t *testing.T) {
	e := newTestEngine()
	line := model.BankStatementLine{ID: "l1", Date: day(3), Credit: amt("250.00")}
	tx := model.InternalTransaction{ID: "t1", Date: day(11), Amount: amt("200.00")}

	match, err := e.CreateManualMatch(ManualMatchRequest{
		ReconciliationID: "rec-1",
		BankLine:         line,
		Transaction:      tx,
		UserID:           "accountant-7",
		Reason:           "bank fee netted off",
	})

	require.NoError(t, err)
	assert.Equal(t, model.MatchTypeManual, match.Type)
	assert.Equal(t, 1.0, match.Confidence)
	assert.True(t, match.IsManual)
	assert.Equal(t, "accountant-7", match.MatchedBy)
	assert.Equal(t, "rec-1", match.ReconciliationID)
	assert.Equal(t, "bank fee netted off", match.Reason)
	assert.Equal(t, "50.00", match.AmountDifference.StringFixed(2))
	assert.Equal(t, 8, match.DaysDifference)
	assert.Equal(t, model.MatchStatusActive, match.Status)
	assert.Equal(t, fixedNow, match.MatchedAt)
}

func TestCreateManualMatch_DefaultReason(t *testing.T) {
	match, err := newTestEngine().CreateManualMatch(ManualMatchRequest{
		BankLine:    model.BankStatementLine{ID: "l1"},
		Transaction: model.InternalTransaction{ID: "t1"},
		UserID:      "u1",
	})

	require.NoError(t, err)
	assert.Equal(t, defaultManualReason, match.Reason)
}

func TestCreateManualMatch_RequiresFields(t *testing.T) {
	tests := []struct {
		name string
		req  ManualMatchRequest
	}{
		{"missing user", ManualMatchRequest{BankLine: model.BankStatementLine{ID: "l1"}, Transaction: model.InternalTransaction{ID: "t1"}}},
		{"blank user", ManualMatchRequest{BankLine: model.BankStatementLine{ID: "l1"}, Transaction: model.InternalTransaction{ID: "t1"}, UserID: "  "}},
		{"missing line", ManualMatchRequest{Transaction: model.InternalTransaction{ID: "t1"}, UserID: "u1"}},
		{"missing transaction", ManualMatchRequest{BankLine: model.BankStatementLine{ID: "l1"}, UserID: "u1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestEngine().CreateManualMatch(tt.req)
			assert.ErrorIs(t, err, model.ErrInvalidInput)
		})
	}
}
