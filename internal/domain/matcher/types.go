package matcher

import (
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/bankrec/internal/domain/model"
)

// Phase confidence constants.
const (
	ExactConfidence         = 1.0
	AmountAndDateBase       = 0.9
	AmountAndDateDayPenalty = 0.05
)

// Result is the outcome of running all phases over one input set.
// LineMatched and TxMatched are indexed like the input slices.
type Result struct {
	Matches     []model.Match
	LineMatched []bool
	TxMatched   []bool
}

// candidate is a qualifying transaction for a bank line within one phase.
type candidate struct {
	tx         int
	confidence float64
	amountDiff decimal.Decimal
	days       int
	reason     string
}

// phase is one matching strategy. qualify is pure and read-only over its
// inputs so it may run concurrently for different bank lines.
type phase struct {
	matchType model.MatchType
	qualify   func(line *model.BankStatementLine, tx *model.InternalTransaction) (candidate, bool)
}
