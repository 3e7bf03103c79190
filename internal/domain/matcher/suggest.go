package matcher

import (
	"fmt"
	"sort"
	"strings"

	"github.com/eshaffer321/bankrec/internal/domain/model"
)

// DefaultSuggestionLimit caps the candidate pool when the caller gives none.
const DefaultSuggestionLimit = 5

// Suggestion tier thresholds.
const (
	exactTier         = 0.95
	amountAndDateTier = 0.85
	mlTier            = 0.70
)

// SuggestMatches scores candidate transactions for a single bank line and
// returns them ordered by confidence, highest first. The pool is cut to
// maxResults before scoring. Candidates are expected to be pre-filtered by
// amount and date proximity.
func SuggestMatches(line model.BankStatementLine, candidates []model.InternalTransaction, maxResults int) []model.MatchSuggestion {
	if maxResults <= 0 {
		maxResults = DefaultSuggestionLimit
	}
	if len(candidates) > maxResults {
		candidates = candidates[:maxResults]
	}

	suggestions := make([]model.MatchSuggestion, 0, len(candidates))
	for _, tx := range candidates {
		b := Score(line, tx)
		suggestions = append(suggestions, model.MatchSuggestion{
			Transaction:      tx,
			Type:             Classify(b),
			Confidence:       b.Total,
			AmountDifference: b.AmountDifference,
			DaysDifference:   b.DaysDifference,
			Reason:           Explain(b),
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})

	return suggestions
}

// Classify maps a scored pair onto a match type tier.
func Classify(b Breakdown) model.MatchType {
	switch {
	case b.Total >= exactTier && b.AmountDifference.IsZero() && b.DaysDifference == 0:
		return model.MatchTypeExact
	case b.Total >= amountAndDateTier:
		return model.MatchTypeAmountAndDate
	case b.Total >= mlTier:
		return model.MatchTypeML
	default:
		return model.MatchTypePartial
	}
}

// Explain builds a human-readable reason from the sub-scores that
// contributed to a confidence value.
func Explain(b Breakdown) string {
	var parts []string

	if b.AmountDifference.IsZero() {
		parts = append(parts, "exact amount")
	} else {
		parts = append(parts, "amount differs by "+b.AmountDifference.StringFixed(2))
	}

	if b.DaysDifference == 0 {
		parts = append(parts, "same date")
	} else {
		parts = append(parts, fmt.Sprintf("%d day(s) apart", b.DaysDifference))
	}

	if b.ReferenceMatch {
		parts = append(parts, "reference match")
	}

	if b.DescriptionSimilarity > 0 {
		parts = append(parts, fmt.Sprintf("description %.0f%% similar", b.DescriptionSimilarity*100))
	}

	return strings.Join(parts, ", ")
}
