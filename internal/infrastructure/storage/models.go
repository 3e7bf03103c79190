package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCandidateLimit caps candidate queries when no limit is given
const DefaultCandidateLimit = 50

// DefaultListLimit caps list queries when no limit is given
const DefaultListLimit = 20

// CandidateFilter narrows the ledger entries considered for a bank line
type CandidateFilter struct {
	Amount      decimal.Decimal // Bank line effective amount
	AmountRange decimal.Decimal // Max |Amount - tx.Amount|
	From        time.Time
	To          time.Time
	Limit       int // 0 = DefaultCandidateLimit
}

// accepts reports whether an entry amount is within the filter's range
func (f CandidateFilter) accepts(amount decimal.Decimal) bool {
	return f.Amount.Sub(amount).Abs().LessThanOrEqual(f.AmountRange)
}

func (f CandidateFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultCandidateLimit
	}
	return f.Limit
}
