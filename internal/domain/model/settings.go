package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Settings configures a single reconciliation run. The engine never
// mutates it.
type Settings struct {
	DateToleranceDays      int
	AmountTolerance        decimal.Decimal
	MinimumConfidenceScore float64
	UseAutomaticMatching   bool

	// Parallelism bounds the workers used to search candidates within a
	// phase. 0 or 1 scans sequentially.
	Parallelism int
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		DateToleranceDays:      3,
		AmountTolerance:        decimal.NewFromFloat(0.01),
		MinimumConfidenceScore: 0.70,
		UseAutomaticMatching:   true,
		Parallelism:            1,
	}
}

// Validate rejects malformed settings before any matching work begins.
func (s Settings) Validate() error {
	if s.DateToleranceDays < 0 {
		return fmt.Errorf("%w: date tolerance must not be negative, got %d", ErrInvalidInput, s.DateToleranceDays)
	}
	if s.AmountTolerance.IsNegative() {
		return fmt.Errorf("%w: amount tolerance must not be negative, got %s", ErrInvalidInput, s.AmountTolerance)
	}
	if s.MinimumConfidenceScore < 0 || s.MinimumConfidenceScore > 1 {
		return fmt.Errorf("%w: minimum confidence must be within [0, 1], got %v", ErrInvalidInput, s.MinimumConfidenceScore)
	}
	if s.Parallelism < 0 {
		return fmt.Errorf("%w: parallelism must not be negative, got %d", ErrInvalidInput, s.Parallelism)
	}
	return nil
}
