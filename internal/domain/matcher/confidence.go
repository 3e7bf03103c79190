package matcher

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/bankrec/internal/domain/model"
)

// Component weights of the confidence score.
const (
	AmountWeight      = 0.40
	DateWeight        = 0.30
	DescriptionWeight = 0.20
	ReferenceWeight   = 0.10
)

// Breakdown is the per-component result of scoring one candidate pair.
type Breakdown struct {
	Amount      float64
	Date        float64
	Description float64
	Reference   float64
	Total       float64

	AmountDifference      decimal.Decimal
	DaysDifference        int
	DescriptionSimilarity float64
	ReferenceMatch        bool
}

// Score computes the weighted confidence for a bank line and an internal
// transaction along with the sub-scores that produced it.
func Score(line model.BankStatementLine, tx model.InternalTransaction) Breakdown {
	effective := line.EffectiveAmount()
	b := Breakdown{
		AmountDifference:      effective.Sub(tx.Amount).Abs(),
		DaysDifference:        DaysBetween(line.Date, tx.Date),
		DescriptionSimilarity: DescriptionSimilarity(line.Description, tx.Description),
		ReferenceMatch:        ReferenceContainsID(line.Reference, tx.ExternalID),
	}

	b.Amount = AmountWeight * AmountSimilarity(effective, tx.Amount)

	if b.DaysDifference == 0 {
		b.Date = DateWeight
	} else {
		b.Date = math.Max(0, DateWeight-float64(b.DaysDifference)*dateStep)
	}

	b.Description = b.DescriptionSimilarity * DescriptionWeight

	if b.ReferenceMatch {
		b.Reference = ReferenceWeight
	}

	b.Total = math.Min(1.0, b.Amount+b.Date+b.Description+b.Reference)
	return b
}

// Confidence returns the clamped [0, 1] confidence for a candidate pair.
func Confidence(line model.BankStatementLine, tx model.InternalTransaction) float64 {
	return Score(line, tx).Total
}
