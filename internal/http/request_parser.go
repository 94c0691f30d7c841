// Package http provides the JSON API over the projection service.
//
// This file implements parsing and validation of projection adjustments
// from query strings and request bodies.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"finplan/internal/core"
	"finplan/internal/projection"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

var (
	// ErrBadRequest marks request data that could not be parsed at all.
	ErrBadRequest = errors.New("bad request")
	ErrEmptyBody  = fmt.Errorf("%w: empty body", ErrBadRequest)
)

// moneyFields maps query parameter names to the amount fields of InputsPatch.
func moneyFields(p *core.InputsPatch) map[string]**float64 {
	return map[string]**float64{
		"currentNetWorth":          &p.CurrentNetWorth,
		"currentSavings":           &p.CurrentSavings,
		"currentInvestments":       &p.CurrentInvestments,
		"currentDebt":              &p.CurrentDebt,
		"monthlyIncome":            &p.MonthlyIncome,
		"monthlyExpenses":          &p.MonthlyExpenses,
		"monthlyDebtPayment":       &p.MonthlyDebtPayment,
		"additionalMonthlySavings": &p.AdditionalMonthlySavings,
		"savingsGoal":              &p.SavingsGoal,
	}
}

func rateFields(p *core.InputsPatch) map[string]**float64 {
	return map[string]**float64{
		"incomeGrowthRate":     &p.IncomeGrowthRate,
		"expenseGrowthRate":    &p.ExpenseGrowthRate,
		"savingsInterestRate":  &p.SavingsInterestRate,
		"investmentReturnRate": &p.InvestmentReturnRate,
	}
}

// ParsePatchQuery builds an InputsPatch from query parameters named after
// the JSON fields. Unknown parameters are ignored; empty values are skipped.
//
// Amounts are rounded to cents and may use a comma decimal separator.
// Rates are decimals as in the JSON API, or percentages when suffixed with
// "%" (incomeGrowthRate=3.5%).
func ParsePatchQuery(query url.Values) (core.InputsPatch, error) {
	var patch core.InputsPatch
	for name, field := range moneyFields(&patch) {
		raw := strings.TrimSpace(query.Get(name))
		if raw == "" {
			continue
		}
		v, err := core.ParseAmount(raw)
		if err != nil {
			return core.InputsPatch{}, fmt.Errorf("%w: %s=%q: %w", ErrBadRequest, name, raw, err)
		}
		*field = &v
	}
	for name, field := range rateFields(&patch) {
		raw := strings.TrimSpace(query.Get(name))
		if raw == "" {
			continue
		}
		v, err := parseRate(raw)
		if err != nil {
			return core.InputsPatch{}, fmt.Errorf("%w: %s=%q: %w", ErrBadRequest, name, raw, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return core.InputsPatch{}, &projection.InvalidInputError{Field: name, Value: v}
		}
		*field = &v
	}
	return patch, nil
}

func parseRate(raw string) (float64, error) {
	if strings.HasSuffix(raw, "%") {
		return core.ParsePercent(raw)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, core.ErrInvalidRate
	}
	return v, nil
}

// DecodeJSON reads one JSON value from the request body into dst, rejecting
// unknown fields and trailing data.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return ErrEmptyBody
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON body", ErrBadRequest)
	}
	return nil
}

// ParseHouseholdID reads the {id} path value as a positive integer.
func ParseHouseholdID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid household id %q", ErrBadRequest, raw)
	}
	return id, nil
}
