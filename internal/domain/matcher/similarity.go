package matcher

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateStep is how much proximity is lost per day of difference.
const dateStep = 0.05

// AmountSimilarity returns 1.0 for equal amounts and degrades linearly with
// |a-b|/a, floored at 0. A zero reference amount only matches another zero.
func AmountSimilarity(a, b decimal.Decimal) float64 {
	if a.Equal(b) {
		return 1.0
	}
	if a.IsZero() {
		return 0
	}
	ratio := a.Sub(b).Abs().Div(a.Abs()).InexactFloat64()
	return math.Max(0, 1.0-ratio)
}

// DaysBetween returns the absolute number of calendar days between two dates.
// Time of day is ignored.
func DaysBetween(d1, d2 time.Time) int {
	diff := calendarDay(d1).Sub(calendarDay(d2)).Hours() / 24
	return int(math.Abs(math.Round(diff)))
}

// SameDay reports whether two timestamps fall on the same calendar day.
func SameDay(d1, d2 time.Time) bool {
	return DaysBetween(d1, d2) == 0
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateProximity returns 1.0 on the same calendar day, minus 0.05 per day of
// difference, floored at 0.
func DateProximity(d1, d2 time.Time) float64 {
	return math.Max(0, 1.0-float64(DaysBetween(d1, d2))*dateStep)
}

// DescriptionSimilarity is the fraction of tokens of the shorter description
// found as substrings of the longer one. Comparison is case-insensitive and
// tokens are split on whitespace. Empty input on either side scores 0.
func DescriptionSimilarity(s1, s2 string) float64 {
	a := strings.ToLower(strings.TrimSpace(s1))
	b := strings.ToLower(strings.TrimSpace(s2))
	if a == "" || b == "" {
		return 0
	}

	shorter, longer := strings.Fields(a), b
	if tb := strings.Fields(b); len(tb) < len(shorter) {
		shorter, longer = tb, a
	}

	found := 0
	for _, token := range shorter {
		if strings.Contains(longer, token) {
			found++
		}
	}
	return float64(found) / float64(len(shorter))
}

// ReferenceContainsID reports whether externalID occurs inside reference,
// ignoring case. An empty externalID never matches.
func ReferenceContainsID(reference, externalID string) bool {
	if strings.TrimSpace(externalID) == "" {
		return false
	}
	return strings.Contains(strings.ToLower(reference), strings.ToLower(externalID))
}
