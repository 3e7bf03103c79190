package matcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAmountSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"equal", "100.00", "100", 1.0},
		{"ten percent off", "100", "90", 0.9},
		{"above reference", "100", "125", 0.75},
		{"floored at zero", "100", "300", 0},
		{"zero reference equal", "0", "0", 1.0},
		{"zero reference differs", "0", "5", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AmountSimilarity(amt(tt.a), amt(tt.b)), 1e-9)
		})
	}
}

func TestDateProximity(t *testing.T) {
	assert.InDelta(t, 1.0, DateProximity(day(1), day(1)), 1e-9)
	assert.InDelta(t, 0.9, DateProximity(day(1), day(3)), 1e-9)
	assert.InDelta(t, 0.9, DateProximity(day(3), day(1)), 1e-9, "direction must not matter")
	assert.InDelta(t, 0.0, DateProximity(day(1), day(31)), 1e-9)
}

func TestDaysBetween_IgnoresTimeOfDay(t *testing.T) {
	morning := time.Date(2024, 3, 1, 0, 5, 0, 0, time.UTC)
	evening := time.Date(2024, 3, 1, 23, 55, 0, 0, time.UTC)
	nextDay := time.Date(2024, 3, 2, 0, 1, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysBetween(morning, evening))
	assert.Equal(t, 1, DaysBetween(evening, nextDay))
	assert.True(t, SameDay(morning, evening))
	assert.False(t, SameDay(morning, nextDay))
}

func TestDescriptionSimilarity(t *testing.T) {
	tests := []struct {
		name   string
		s1, s2 string
		want   float64
	}{
		{"identical", "Office Supplies", "office supplies", 1.0},
		{"shorter fully contained", "ACME", "Payment from ACME Corp", 1.0},
		{"half the tokens", "acme rent", "ACME CORP PAYMENT", 0.5},
		{"substring of a token", "pay", "PAYMENT RECEIVED", 1.0},
		{"no overlap", "coffee", "rent march", 0},
		{"empty left", "", "rent", 0},
		{"empty right", "rent", "   ", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DescriptionSimilarity(tt.s1, tt.s2), 1e-9)
		})
	}
}

func TestReferenceContainsID(t *testing.T) {
	assert.True(t, ReferenceContainsID("TXN-ABC123", "abc123"))
	assert.True(t, ReferenceContainsID("txn-abc123", "ABC123"))
	assert.False(t, ReferenceContainsID("TXN-ABC123", ""))
	assert.False(t, ReferenceContainsID("TXN-ABC123", "  "))
	assert.False(t, ReferenceContainsID("", "ABC123"))
	assert.False(t, ReferenceContainsID("TXN-ABC124", "ABC123"))
}
