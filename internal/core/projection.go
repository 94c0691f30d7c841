package core

import "slices"

const (
	MilestoneDebtFree MilestoneType = "debt_free"
	MilestoneSavings  MilestoneType = "savings_goal"
	MilestoneNetWorth MilestoneType = "net_worth_milestone"
	MilestoneCustom   MilestoneType = "custom"
)

type (
	MilestoneType string

	// ProjectionInputs is the flat, pre-aggregated snapshot of a household.
	// Amounts share one currency unit; rates are annual decimals (0.03 = 3%).
	ProjectionInputs struct {
		CurrentNetWorth    float64 `json:"currentNetWorth" toml:"current_net_worth"`
		CurrentSavings     float64 `json:"currentSavings" toml:"current_savings"`
		CurrentInvestments float64 `json:"currentInvestments" toml:"current_investments"`
		CurrentDebt        float64 `json:"currentDebt" toml:"current_debt"`

		MonthlyIncome      float64 `json:"monthlyIncome" toml:"monthly_income"`
		MonthlyExpenses    float64 `json:"monthlyExpenses" toml:"monthly_expenses"`
		MonthlyDebtPayment float64 `json:"monthlyDebtPayment" toml:"monthly_debt_payment"`

		IncomeGrowthRate     float64 `json:"incomeGrowthRate" toml:"income_growth_rate"`
		ExpenseGrowthRate    float64 `json:"expenseGrowthRate" toml:"expense_growth_rate"`
		SavingsInterestRate  float64 `json:"savingsInterestRate" toml:"savings_interest_rate"`
		InvestmentReturnRate float64 `json:"investmentReturnRate" toml:"investment_return_rate"`

		AdditionalMonthlySavings float64        `json:"additionalMonthlySavings,omitempty" toml:"additional_monthly_savings"`
		SavingsGoal              float64        `json:"savingsGoal,omitempty" toml:"savings_goal"`
		LumpSumEvents            []LumpSumEvent `json:"lumpSumEvents,omitempty" toml:"lump_sum"`
	}

	// LumpSumEvent is a one-time signed cash adjustment in a simulated month (1..120).
	LumpSumEvent struct {
		Month       int     `json:"month" toml:"month"`
		Amount      float64 `json:"amount" toml:"amount"`
		Description string  `json:"description" toml:"description"`
	}

	// InputsPatch carries the fields to overwrite on a stored ProjectionInputs.
	// Nil fields are left untouched.
	InputsPatch struct {
		CurrentNetWorth          *float64        `json:"currentNetWorth,omitempty"`
		CurrentSavings           *float64        `json:"currentSavings,omitempty"`
		CurrentInvestments       *float64        `json:"currentInvestments,omitempty"`
		CurrentDebt              *float64        `json:"currentDebt,omitempty"`
		MonthlyIncome            *float64        `json:"monthlyIncome,omitempty"`
		MonthlyExpenses          *float64        `json:"monthlyExpenses,omitempty"`
		MonthlyDebtPayment       *float64        `json:"monthlyDebtPayment,omitempty"`
		IncomeGrowthRate         *float64        `json:"incomeGrowthRate,omitempty"`
		ExpenseGrowthRate        *float64        `json:"expenseGrowthRate,omitempty"`
		SavingsInterestRate      *float64        `json:"savingsInterestRate,omitempty"`
		InvestmentReturnRate     *float64        `json:"investmentReturnRate,omitempty"`
		AdditionalMonthlySavings *float64        `json:"additionalMonthlySavings,omitempty"`
		SavingsGoal              *float64        `json:"savingsGoal,omitempty"`
		LumpSumEvents            *[]LumpSumEvent `json:"lumpSumEvents,omitempty"`
	}

	ProjectionDataPoint struct {
		Month      int    `json:"month"`
		Year       int    `json:"year"`
		MonthLabel string `json:"monthLabel"`

		NetWorth         float64 `json:"netWorth"`
		TotalAssets      float64 `json:"totalAssets"`
		TotalLiabilities float64 `json:"totalLiabilities"`
		Savings          float64 `json:"savings"`
		Investments      float64 `json:"investments"`
		Debt             float64 `json:"debt"`

		MonthlyIncome      float64 `json:"monthlyIncome"`
		MonthlyExpenses    float64 `json:"monthlyExpenses"`
		MonthlyDebtPayment float64 `json:"monthlyDebtPayment"`
		NetMonthlyCashFlow float64 `json:"netMonthlyCashFlow"`

		CumulativeSavings  float64 `json:"cumulativeSavings"`
		CumulativeDebtPaid float64 `json:"cumulativeDebtPaid"`
	}

	ProjectionMilestone struct {
		Month       int           `json:"month"`
		Type        MilestoneType `json:"type"`
		Title       string        `json:"title"`
		Description string        `json:"description"`
		Amount      *float64      `json:"amount,omitempty"`
	}

	ProjectionSummary struct {
		StartNetWorth           float64 `json:"startNetWorth"`
		EndNetWorth             float64 `json:"endNetWorth"`
		TotalGrowth             float64 `json:"totalGrowth"`
		TotalDebtPaid           float64 `json:"totalDebtPaid"`
		TotalSavingsAccumulated float64 `json:"totalSavingsAccumulated"`
		AverageMonthlyIncome    float64 `json:"averageMonthlyIncome"`
		AverageMonthlyExpenses  float64 `json:"averageMonthlyExpenses"`
	}

	FinancialProjection struct {
		DataPoints []ProjectionDataPoint `json:"dataPoints"`
		Milestones []ProjectionMilestone `json:"milestones"`
		Summary    ProjectionSummary     `json:"summary"`
	}
)

// IsEmpty reports whether the patch would change nothing.
func (p InputsPatch) IsEmpty() bool {
	return p == InputsPatch{}
}

// Apply returns a copy of in with the patch fields overwritten.
func (p InputsPatch) Apply(in ProjectionInputs) ProjectionInputs {
	out := in
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&out.CurrentNetWorth, p.CurrentNetWorth)
	set(&out.CurrentSavings, p.CurrentSavings)
	set(&out.CurrentInvestments, p.CurrentInvestments)
	set(&out.CurrentDebt, p.CurrentDebt)
	set(&out.MonthlyIncome, p.MonthlyIncome)
	set(&out.MonthlyExpenses, p.MonthlyExpenses)
	set(&out.MonthlyDebtPayment, p.MonthlyDebtPayment)
	set(&out.IncomeGrowthRate, p.IncomeGrowthRate)
	set(&out.ExpenseGrowthRate, p.ExpenseGrowthRate)
	set(&out.SavingsInterestRate, p.SavingsInterestRate)
	set(&out.InvestmentReturnRate, p.InvestmentReturnRate)
	set(&out.AdditionalMonthlySavings, p.AdditionalMonthlySavings)
	set(&out.SavingsGoal, p.SavingsGoal)
	if p.LumpSumEvents != nil {
		out.LumpSumEvents = slices.Clone(*p.LumpSumEvents)
	} else {
		out.LumpSumEvents = slices.Clone(in.LumpSumEvents)
	}
	return out
}

// Clone returns a deep copy so the lump sum slice is not shared.
func (in ProjectionInputs) Clone() ProjectionInputs {
	out := in
	out.LumpSumEvents = slices.Clone(in.LumpSumEvents)
	return out
}

// Clone returns a deep copy: no slice or milestone amount is shared with p.
func (p FinancialProjection) Clone() FinancialProjection {
	out := p
	out.DataPoints = slices.Clone(p.DataPoints)
	out.Milestones = slices.Clone(p.Milestones)
	for i, m := range out.Milestones {
		if m.Amount != nil {
			v := *m.Amount
			out.Milestones[i].Amount = &v
		}
	}
	return out
}
