// Package household aggregates per-person income, expense and account records
// into the flat inputs consumed by the projection engine.
//
// This file implements one monthly conversion strategy per payment frequency.
package household

import (
	"fmt"

	"finplan/internal/core"
)

// MonthlyConverter turns an amount paid at some frequency into its monthly equivalent.
type MonthlyConverter interface {
	MonthlyEquivalent(amount float64) float64
}

// factorConverter scales by periods per year divided by twelve.
type factorConverter struct {
	perYear float64
}

func (c factorConverter) MonthlyEquivalent(amount float64) float64 {
	return amount * c.perYear / 12
}

// MonthlyPassthrough is the identity converter for monthly amounts.
type MonthlyPassthrough struct{}

func (MonthlyPassthrough) MonthlyEquivalent(amount float64) float64 {
	return amount
}

var converters = map[core.Frequency]MonthlyConverter{
	core.Daily:     factorConverter{perYear: 365},
	core.Weekly:    factorConverter{perYear: 52},
	core.Biweekly:  factorConverter{perYear: 26},
	core.Monthly:   MonthlyPassthrough{},
	core.Quarterly: factorConverter{perYear: 4},
	core.Yearly:    factorConverter{perYear: 1},
}

// ConverterFor returns the converter for a frequency; empty means monthly.
func ConverterFor(f core.Frequency) (MonthlyConverter, error) {
	if f == "" {
		return MonthlyPassthrough{}, nil
	}
	c, ok := converters[f]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownFrequency, string(f))
	}
	return c, nil
}

// ToMonthly converts amount paid at frequency f into a monthly amount.
func ToMonthly(amount float64, f core.Frequency) (float64, error) {
	c, err := ConverterFor(f)
	if err != nil {
		return 0, err
	}
	return c.MonthlyEquivalent(amount), nil
}
