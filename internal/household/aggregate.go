package household

import (
	"fmt"

	"finplan/internal/core"
)

// Aggregate sums every person's records into one ProjectionInputs snapshot.
// Stored percentages are converted to decimal rates.
func Aggregate(h core.Household) (core.ProjectionInputs, error) {
	var (
		in                        core.ProjectionInputs
		savingsRates, investRates weightedMean
	)

	for _, p := range h.People {
		for _, r := range p.Incomes {
			m, err := ToMonthly(r.Amount, r.Frequency)
			if err != nil {
				return core.ProjectionInputs{}, fmt.Errorf("income %q of %s: %w", r.Description, p.Name, err)
			}
			in.MonthlyIncome += m
		}
		for _, r := range p.Expenses {
			m, err := ToMonthly(r.Amount, r.Frequency)
			if err != nil {
				return core.ProjectionInputs{}, fmt.Errorf("expense %q of %s: %w", r.Description, p.Name, err)
			}
			in.MonthlyExpenses += m
		}
		for _, l := range p.Loans {
			m, err := ToMonthly(l.Payment, l.Frequency)
			if err != nil {
				return core.ProjectionInputs{}, fmt.Errorf("loan %q of %s: %w", l.Name, p.Name, err)
			}
			in.MonthlyDebtPayment += m
			in.CurrentDebt += l.Balance
		}
		for _, a := range p.SavingsAccounts {
			in.CurrentSavings += a.Balance
			in.AdditionalMonthlySavings += a.MonthlyContribution
			savingsRates.add(a.InterestRate, a.Balance)
		}
		for _, a := range p.BrokerageAccounts {
			in.CurrentInvestments += a.Balance
			investRates.add(a.ExpectedReturn, a.Balance)
		}
	}

	in.CurrentNetWorth = in.CurrentSavings + in.CurrentInvestments - in.CurrentDebt
	in.SavingsInterestRate = core.PercentToRate(savingsRates.value())
	in.InvestmentReturnRate = core.PercentToRate(investRates.value())
	in.IncomeGrowthRate = core.PercentToRate(h.Settings.IncomeGrowthRate)
	in.ExpenseGrowthRate = core.PercentToRate(h.Settings.ExpenseGrowthRate)
	in.SavingsGoal = h.Settings.SavingsGoal
	if len(h.LumpSums) > 0 {
		in.LumpSumEvents = append([]core.LumpSumEvent(nil), h.LumpSums...)
	}
	return in, nil
}

// weightedMean averages rates by balance, falling back to a plain mean when
// every balance is zero.
type weightedMean struct {
	weighted, weights, plain float64
	n                        int
}

func (w *weightedMean) add(rate, balance float64) {
	w.weighted += rate * balance
	w.weights += balance
	w.plain += rate
	w.n++
}

func (w weightedMean) value() float64 {
	switch {
	case w.n == 0:
		return 0
	case w.weights != 0:
		return w.weighted / w.weights
	default:
		return w.plain / float64(w.n)
	}
}
