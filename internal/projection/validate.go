package projection

import (
	"errors"
	"fmt"
	"math"

	"finplan/internal/core"
)

// ErrInvalidInput matches every *InvalidInputError via errors.Is.
var ErrInvalidInput = errors.New("invalid projection input")

// InvalidInputError names the first input field that cannot be simulated.
type InvalidInputError struct {
	Field string
	Value float64
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid projection input %s: %v", e.Field, e.Value)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Validate rejects NaN and infinite values. Negative rates and balances are
// valid and simulated as given.
func Validate(in core.ProjectionInputs) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"currentNetWorth", in.CurrentNetWorth},
		{"currentSavings", in.CurrentSavings},
		{"currentInvestments", in.CurrentInvestments},
		{"currentDebt", in.CurrentDebt},
		{"monthlyIncome", in.MonthlyIncome},
		{"monthlyExpenses", in.MonthlyExpenses},
		{"monthlyDebtPayment", in.MonthlyDebtPayment},
		{"incomeGrowthRate", in.IncomeGrowthRate},
		{"expenseGrowthRate", in.ExpenseGrowthRate},
		{"savingsInterestRate", in.SavingsInterestRate},
		{"investmentReturnRate", in.InvestmentReturnRate},
		{"additionalMonthlySavings", in.AdditionalMonthlySavings},
		{"savingsGoal", in.SavingsGoal},
	}
	for _, f := range fields {
		if !finite(f.value) {
			return &InvalidInputError{Field: f.name, Value: f.value}
		}
	}
	for i, ev := range in.LumpSumEvents {
		if !finite(ev.Amount) {
			return &InvalidInputError{Field: fmt.Sprintf("lumpSumEvents[%d].amount", i), Value: ev.Amount}
		}
	}
	return nil
}

// checkState fails when a running value has left the float64 range. The
// error names the input whose growth overflowed.
func checkState(in core.ProjectionInputs, income, expenses, savings, investments, netWorth, cumulativeSavings float64) error {
	checks := []struct {
		value float64
		field string
		input float64
	}{
		{income, "incomeGrowthRate", in.IncomeGrowthRate},
		{expenses, "expenseGrowthRate", in.ExpenseGrowthRate},
		{investments, "investmentReturnRate", in.InvestmentReturnRate},
		{savings, "savingsInterestRate", in.SavingsInterestRate},
		{netWorth, "currentNetWorth", in.CurrentNetWorth},
		{cumulativeSavings, "monthlyIncome", in.MonthlyIncome},
	}
	for _, c := range checks {
		if !finite(c.value) {
			return &InvalidInputError{Field: c.field, Value: c.input}
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
