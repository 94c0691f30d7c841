package scenario

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"finplan/internal/core"
)

const flatScenario = `
title = "Base plan"

[snapshot]
savings = 10000
investments = 5000
debt = 2000

[flows]
monthly_income = 5000
monthly_expenses = 3000
monthly_debt_payment = 200
additional_monthly_savings = 100

[rates]
income_growth = 3
expense_growth = 2
savings_interest = 4.5
investment_return = 7

[goals]
savings_goal = 20000

[[lump_sum]]
month = 12
amount = 5000
description = "Bonus"

[[lump_sum]]
month = 30
amount = -8000
description = "New car"
`

const householdScenario = `
[household]
name = "Rossi"
income_growth = 3
savings_goal = 15000

[[person]]
name = "Anna"

  [[person.income]]
  description = "Salary"
  amount = 1200
  frequency = "biweekly"

  [[person.expense]]
  description = "Rent"
  amount = 1500
  category = "housing"

  [[person.savings]]
  name = "Emergency"
  balance = 6000
  interest_rate = 4
  monthly_contribution = 150

  [[person.loan]]
  name = "Car"
  balance = 9000
  payment = 3000
  frequency = "quarterly"

  [[person.brokerage]]
  name = "ETF"
  balance = 4000
  expected_return = 6

[[lump_sum]]
month = 6
amount = 2000
description = "Gift"
`

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestDecodeFlatScenario(t *testing.T) {
	s, err := Decode(strings.NewReader(flatScenario))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if s.Name() != "Base plan" {
		t.Fatalf("name = %q", s.Name())
	}
	in, err := s.Inputs()
	if err != nil {
		t.Fatalf("Inputs: %v", err)
	}
	want := core.ProjectionInputs{
		CurrentNetWorth:          13000,
		CurrentSavings:           10000,
		CurrentInvestments:       5000,
		CurrentDebt:              2000,
		MonthlyIncome:            5000,
		MonthlyExpenses:          3000,
		MonthlyDebtPayment:       200,
		AdditionalMonthlySavings: 100,
		SavingsGoal:              20000,
	}
	if in.CurrentNetWorth != want.CurrentNetWorth || in.CurrentSavings != want.CurrentSavings ||
		in.CurrentInvestments != want.CurrentInvestments || in.CurrentDebt != want.CurrentDebt ||
		in.MonthlyIncome != want.MonthlyIncome || in.MonthlyExpenses != want.MonthlyExpenses ||
		in.MonthlyDebtPayment != want.MonthlyDebtPayment ||
		in.AdditionalMonthlySavings != want.AdditionalMonthlySavings || in.SavingsGoal != want.SavingsGoal {
		t.Fatalf("inputs = %+v", in)
	}
	if !near(in.IncomeGrowthRate, 0.03) || !near(in.ExpenseGrowthRate, 0.02) ||
		!near(in.SavingsInterestRate, 0.045) || !near(in.InvestmentReturnRate, 0.07) {
		t.Fatalf("rates not converted from percent: %+v", in)
	}
	if len(in.LumpSumEvents) != 2 || in.LumpSumEvents[1].Amount != -8000 || in.LumpSumEvents[1].Month != 30 {
		t.Fatalf("lump sums = %+v", in.LumpSumEvents)
	}
}

func TestExplicitNetWorth(t *testing.T) {
	s, err := Decode(strings.NewReader("[snapshot]\nnet_worth = -500\nsavings = 100\n"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	in, err := s.Inputs()
	if err != nil {
		t.Fatalf("Inputs: %v", err)
	}
	if in.CurrentNetWorth != -500 {
		t.Fatalf("net worth = %v, want -500", in.CurrentNetWorth)
	}
}

func TestHouseholdScenario(t *testing.T) {
	s, err := Decode(strings.NewReader(householdScenario))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !s.HasHousehold() || s.Name() != "Rossi" {
		t.Fatalf("household not detected: %+v", s)
	}

	h, err := s.Household()
	if err != nil {
		t.Fatalf("Household: %v", err)
	}
	if len(h.People) != 1 || h.People[0].Expenses[0].Frequency != core.Monthly {
		t.Fatalf("empty frequency should default to monthly: %+v", h.People)
	}
	if h.People[0].Incomes[0].Frequency != core.Biweekly {
		t.Fatalf("income frequency = %q", h.People[0].Incomes[0].Frequency)
	}
	if h.Settings.IncomeGrowthRate != 3 || h.Settings.SavingsGoal != 15000 {
		t.Fatalf("settings = %+v", h.Settings)
	}

	in, err := s.Inputs()
	if err != nil {
		t.Fatalf("Inputs: %v", err)
	}
	if !near(in.MonthlyIncome, 1200*26.0/12) {
		t.Fatalf("monthly income = %v", in.MonthlyIncome)
	}
	if !near(in.MonthlyDebtPayment, 1000) {
		t.Fatalf("monthly debt payment = %v", in.MonthlyDebtPayment)
	}
	if in.CurrentNetWorth != 6000+4000-9000 {
		t.Fatalf("net worth = %v", in.CurrentNetWorth)
	}
	if !near(in.IncomeGrowthRate, 0.03) || !near(in.SavingsInterestRate, 0.04) || !near(in.InvestmentReturnRate, 0.06) {
		t.Fatalf("rates = %+v", in)
	}
	if in.AdditionalMonthlySavings != 150 || len(in.LumpSumEvents) != 1 {
		t.Fatalf("inputs = %+v", in)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"misspelled key", "[flows]\nmonthly_incom = 10\n", ErrUnknownKeys},
		{"lump sum month", "[[lump_sum]]\nmonth = 121\namount = 1\n", ErrLumpSumMonth},
		{"lump sum month zero", "[[lump_sum]]\nmonth = 0\namount = 1\n", ErrLumpSumMonth},
		{"negative savings", "[snapshot]\nsavings = -1\n", ErrNegativeAmount},
		{"people without household", "[[person]]\nname = \"A\"\n", ErrNoHousehold},
		{"bad frequency", "[household]\nname = \"H\"\n[[person]]\nname = \"A\"\n[[person.income]]\namount = 1\nfrequency = \"hourly\"\n", core.ErrUnknownFrequency},
		{"unnamed person", "[household]\nname = \"H\"\n[[person]]\nname = \" \"\n", core.ErrEmptyName},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tc.doc))
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestDecodeSyntaxError(t *testing.T) {
	if _, err := Decode(strings.NewReader("[flows\n")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestHouseholdMissing(t *testing.T) {
	s, err := Decode(strings.NewReader(flatScenario))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, err := s.Household(); !errors.Is(err, ErrNoHousehold) {
		t.Fatalf("err = %v, want ErrNoHousehold", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.toml")
	if err := os.WriteFile(path, []byte(flatScenario), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.LumpSums) != 2 {
		t.Fatalf("lump sums = %d", len(s.LumpSums))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file err = %v", err)
	}
}
