// Package validator provides integrity checks for imported statements.
//
// The balance validator checks that a statement's lines explain the move
// from its opening to its closing balance. A gap usually means lines are
// missing from the import or a line was imported twice.
package validator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/bankrec/internal/domain/model"
)

// DefaultTolerance is the rounding slack allowed between the declared and
// computed closing balance.
var DefaultTolerance = decimal.New(2, -2)

// BalanceValidation contains the result of checking a statement's balances.
type BalanceValidation struct {
	// Valid is true if the lines explain the closing balance
	Valid bool

	// ComputedClosing is opening + credits - debits
	ComputedClosing decimal.Decimal

	// DeclaredClosing is the closing balance printed on the statement
	DeclaredClosing decimal.Decimal

	// Difference is declared minus computed
	Difference decimal.Decimal

	// Reason explains why validation failed (empty if valid)
	Reason string
}

// ValidateStatementBalance checks that
//
//	opening + sum(credits) - sum(debits) ≈ closing
//
// within tolerance. A negative tolerance is treated as zero.
func ValidateStatementBalance(stmt *model.BankStatement, tolerance decimal.Decimal) *BalanceValidation {
	if tolerance.IsNegative() {
		tolerance = decimal.Zero
	}

	computed := stmt.OpeningBalance
	for _, line := range stmt.Lines {
		computed = computed.Add(line.Credit).Sub(line.Debit)
	}

	diff := stmt.ClosingBalance.Sub(computed)
	result := &BalanceValidation{
		Valid:           diff.Abs().LessThanOrEqual(tolerance),
		ComputedClosing: computed,
		DeclaredClosing: stmt.ClosingBalance,
		Difference:      diff,
	}
	if result.Valid {
		return result
	}

	if diff.IsPositive() {
		result.Reason = fmt.Sprintf("closing balance %s exceeds lines total %s by %s - likely a credit is missing",
			stmt.ClosingBalance.StringFixed(2), computed.StringFixed(2), diff.StringFixed(2))
	} else {
		result.Reason = fmt.Sprintf("lines total %s exceeds closing balance %s by %s - possible duplicate credit or missing debit",
			computed.StringFixed(2), stmt.ClosingBalance.StringFixed(2), diff.Neg().StringFixed(2))
	}
	return result
}
