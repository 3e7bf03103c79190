// Package matcher pairs bank statement lines with internal ledger
// transactions.
//
// Matching runs three phases in strict order, each over the items the
// previous phase left unmatched:
//   - Exact: amount within tolerance, same calendar day, and the
//     transaction's external id appears in the bank line's reference
//   - Amount+Date: amount within tolerance and date within the tolerance window
//   - Confidence: first transaction whose weighted confidence reaches the
//     configured minimum
//
// Every phase is greedy: for each bank line, in input order, the first
// remaining transaction (in input order) that qualifies is taken. This is
// not an optimal assignment and is kept that way on purpose so results are
// reproducible.
//
// Example usage:
//
//	m := matcher.NewMatcher(settings, logger)
//	result, err := m.Run(ctx, lines, transactions)
package matcher

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/eshaffer321/bankrec/internal/domain/model"
)

// Matcher runs the automatic matching phases.
type Matcher struct {
	settings model.Settings
	logger   *slog.Logger
}

// NewMatcher creates a matcher for the given settings.
func NewMatcher(settings model.Settings, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{
		settings: settings,
		logger:   logger,
	}
}

// Run executes the phases in order. The context is checked between phases.
// Returned matches carry no ID, reconciliation ID or timestamp; the caller
// assigns those.
func (m *Matcher) Run(ctx context.Context, lines []model.BankStatementLine, txs []model.InternalTransaction) (*Result, error) {
	result := &Result{
		LineMatched: make([]bool, len(lines)),
		TxMatched:   make([]bool, len(txs)),
	}

	if !m.settings.UseAutomaticMatching {
		m.logger.Debug("automatic matching disabled, skipping phases")
		return result, nil
	}

	for _, p := range m.phases() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		before := len(result.Matches)
		if err := m.runPhase(ctx, p, lines, txs, result); err != nil {
			return nil, fmt.Errorf("%s phase: %w", p.matchType, err)
		}

		m.logger.Debug("phase complete",
			"phase", string(p.matchType),
			"matched", len(result.Matches)-before,
			"total_matched", len(result.Matches))
	}

	return result, nil
}

func (m *Matcher) phases() []phase {
	tolerance := m.settings.AmountTolerance
	window := m.settings.DateToleranceDays
	threshold := m.settings.MinimumConfidenceScore

	return []phase{
		{
			matchType: model.MatchTypeExact,
			qualify: func(line *model.BankStatementLine, tx *model.InternalTransaction) (candidate, bool) {
				diff := line.EffectiveAmount().Sub(tx.Amount).Abs()
				if diff.GreaterThan(tolerance) {
					return candidate{}, false
				}
				if !SameDay(line.Date, tx.Date) {
					return candidate{}, false
				}
				if !ReferenceContainsID(line.Reference, tx.ExternalID) {
					return candidate{}, false
				}
				return candidate{
					confidence: ExactConfidence,
					amountDiff: diff,
					reason:     fmt.Sprintf("exact match on amount, date and reference %q", tx.ExternalID),
				}, true
			},
		},
		{
			matchType: model.MatchTypeAmountAndDate,
			qualify: func(line *model.BankStatementLine, tx *model.InternalTransaction) (candidate, bool) {
				diff := line.EffectiveAmount().Sub(tx.Amount).Abs()
				if diff.GreaterThan(tolerance) {
					return candidate{}, false
				}
				days := DaysBetween(line.Date, tx.Date)
				if days > window {
					return candidate{}, false
				}
				return candidate{
					confidence: AmountAndDateBase - float64(days)*AmountAndDateDayPenalty,
					amountDiff: diff,
					days:       days,
					reason:     fmt.Sprintf("amount within tolerance, %d day(s) apart", days),
				}, true
			},
		},
		{
			matchType: model.MatchTypeML,
			qualify: func(line *model.BankStatementLine, tx *model.InternalTransaction) (candidate, bool) {
				b := Score(*line, *tx)
				if b.Total < threshold {
					return candidate{}, false
				}
				return candidate{
					confidence: b.Total,
					amountDiff: b.AmountDifference,
					days:       b.DaysDifference,
					reason:     fmt.Sprintf("confidence %.2f at or above threshold %.2f (%s)", b.Total, threshold, Explain(b)),
				}, true
			},
		},
	}
}

func (m *Matcher) runPhase(ctx context.Context, p phase, lines []model.BankStatementLine, txs []model.InternalTransaction, result *Result) error {
	if m.settings.Parallelism > 1 {
		return m.runPhaseParallel(ctx, p, lines, txs, result)
	}

	for i := range lines {
		if result.LineMatched[i] {
			continue
		}
		for j := range txs {
			if result.TxMatched[j] {
				continue
			}
			if c, ok := p.qualify(&lines[i], &txs[j]); ok {
				c.tx = j
				accept(p, lines, txs, i, c, result)
				break
			}
		}
	}
	return nil
}

// runPhaseParallel searches candidates for every remaining bank line
// concurrently, then accepts sequentially in bank-line order. Qualification
// does not depend on claims made earlier in the same phase, so taking the
// first still-unclaimed candidate reproduces the sequential scan exactly.
func (m *Matcher) runPhaseParallel(ctx context.Context, p phase, lines []model.BankStatementLine, txs []model.InternalTransaction, result *Result) error {
	candidates := make([][]candidate, len(lines))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(m.settings.Parallelism)

	for i := range lines {
		if result.LineMatched[i] {
			continue
		}
		g.Go(func() error {
			var found []candidate
			for j := range txs {
				if result.TxMatched[j] {
					continue
				}
				if c, ok := p.qualify(&lines[i], &txs[j]); ok {
					c.tx = j
					found = append(found, c)
				}
			}
			candidates[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, found := range candidates {
		for _, c := range found {
			if result.TxMatched[c.tx] {
				continue
			}
			accept(p, lines, txs, i, c, result)
			break
		}
	}
	return nil
}

func accept(p phase, lines []model.BankStatementLine, txs []model.InternalTransaction, i int, c candidate, result *Result) {
	result.LineMatched[i] = true
	result.TxMatched[c.tx] = true
	result.Matches = append(result.Matches, model.Match{
		BankLineID:            lines[i].ID,
		InternalTransactionID: txs[c.tx].ID,
		Type:                  p.matchType,
		Confidence:            c.confidence,
		AmountDifference:      c.amountDiff,
		DaysDifference:        c.days,
		Reason:                c.reason,
		Status:                model.MatchStatusActive,
	})
}
