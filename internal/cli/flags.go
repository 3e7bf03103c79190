package cli

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/bankrec/internal/domain/model"
)

// Flag names shared by commands and tests.
const (
	flagDateTolerance   = "date-tolerance"
	flagAmountTolerance = "amount-tolerance"
	flagMinConfidence   = "min-confidence"
	flagNoAuto          = "no-auto"
	flagParallelism     = "parallelism"
)

// ReconcileFlags are the settings overrides of the reconcile command
type ReconcileFlags struct {
	StatementID     string
	DateTolerance   int
	AmountTolerance string
	MinConfidence   float64
	NoAuto          bool
	Parallelism     int
}

// ToSettings applies the flags the user actually set on top of base.
// changed reports whether a flag was given on the command line.
func (f ReconcileFlags) ToSettings(base model.Settings, changed func(name string) bool) (model.Settings, error) {
	settings := base

	if changed(flagDateTolerance) {
		settings.DateToleranceDays = f.DateTolerance
	}
	if changed(flagAmountTolerance) {
		tolerance, err := decimal.NewFromString(strings.TrimSpace(f.AmountTolerance))
		if err != nil {
			return model.Settings{}, fmt.Errorf("%w: --%s %q", model.ErrInvalidInput, flagAmountTolerance, f.AmountTolerance)
		}
		settings.AmountTolerance = tolerance
	}
	if changed(flagMinConfidence) {
		settings.MinimumConfidenceScore = f.MinConfidence
	}
	if changed(flagNoAuto) && f.NoAuto {
		settings.UseAutomaticMatching = false
	}
	if changed(flagParallelism) {
		settings.Parallelism = f.Parallelism
	}

	if err := settings.Validate(); err != nil {
		return model.Settings{}, err
	}
	return settings, nil
}
