package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eshaffer321/bankrec/internal/domain/model"
)

func TestScore_Components(t *testing.T) {
	line := creditLine("l1", "100.00", day(10), "INV-778 ACME", "acme invoice")

	t.Run("perfect pair", func(t *testing.T) {
		b := Score(line, ledgerTx("t1", "100", day(10), "INV-778", "ACME invoice"))
		assert.InDelta(t, 0.40, b.Amount, 1e-9)
		assert.InDelta(t, 0.30, b.Date, 1e-9)
		assert.InDelta(t, 0.20, b.Description, 1e-9)
		assert.InDelta(t, 0.10, b.Reference, 1e-9)
		assert.InDelta(t, 1.0, b.Total, 1e-9)
		assert.True(t, b.ReferenceMatch)
	})

	t.Run("amount and date degrade", func(t *testing.T) {
		b := Score(line, ledgerTx("t2", "90", day(12), "", "unrelated"))
		assert.InDelta(t, 0.36, b.Amount, 1e-9)
		assert.InDelta(t, 0.20, b.Date, 1e-9)
		assert.InDelta(t, 0.0, b.Description, 1e-9)
		assert.InDelta(t, 0.0, b.Reference, 1e-9)
		assert.InDelta(t, 0.56, b.Total, 1e-9)
		assert.Equal(t, 2, b.DaysDifference)
		assert.Equal(t, "10.00", b.AmountDifference.StringFixed(2))
	})

	t.Run("empty external id never scores reference", func(t *testing.T) {
		b := Score(line, ledgerTx("t3", "100", day(10), "", "acme invoice"))
		assert.False(t, b.ReferenceMatch)
		assert.InDelta(t, 0.90, b.Total, 1e-9)
	})
}

func TestConfidence_AlwaysWithinUnitInterval(t *testing.T) {
	amounts := []string{"0", "0.01", "1", "100", "-100", "999999.99"}
	days := []int{1, 2, 15, 28}
	descriptions := []string{"", "acme", "acme acme acme", "rent march office"}

	for _, la := range amounts {
		for _, ta := range amounts {
			for _, ld := range days {
				for _, td := range days {
					for _, desc := range descriptions {
						line := model.BankStatementLine{ID: "l", Date: day(ld), Credit: amt(la), Reference: "ACME-1", Description: desc}
						tx := model.InternalTransaction{ID: "t", Date: day(td), Amount: amt(ta), ExternalID: "acme", Description: desc}

						c := Confidence(line, tx)
						assert.GreaterOrEqual(t, c, 0.0)
						assert.LessOrEqual(t, c, 1.0)
					}
				}
			}
		}
	}
}

func TestConfidence_DebitLineMatchesOutgoingEntry(t *testing.T) {
	line := model.BankStatementLine{ID: "l", Date: day(5), Debit: amt("42.50")}

	outgoing := model.InternalTransaction{ID: "t", Date: day(5), Amount: amt("-42.50")}
	assert.InDelta(t, 0.70, Confidence(line, outgoing), 1e-9)

	b := Score(line, outgoing)
	assert.True(t, b.AmountDifference.IsZero())

	incoming := model.InternalTransaction{ID: "t", Date: day(5), Amount: amt("42.50")}
	assert.InDelta(t, 0.30, Confidence(line, incoming), 1e-9, "opposite sign scores no amount")
}
