// Package projection turns a household's current financial snapshot into a
// ten-year, month-by-month forecast with milestones and a summary.
//
// The engine is synchronous and holds no shared state: one Engine per caller,
// used from a single goroutine at a time.
package projection

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"finplan/internal/core"
)

const (
	// HorizonMonths is the number of simulated months after month 0.
	HorizonMonths = 120

	SavingsShare    = 0.7
	InvestmentShare = 0.3
)

// NetWorthThresholds are checked in ascending order every month.
var NetWorthThresholds = [...]float64{50000, 100000, 250000, 500000, 1000000}

// Engine generates projections from its stored inputs.
type Engine struct {
	inputs core.ProjectionInputs
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used for month labels only.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func New(inputs core.ProjectionInputs, opts ...Option) *Engine {
	e := &Engine{
		inputs: inputs.Clone(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Inputs returns a copy of the stored inputs.
func (e *Engine) Inputs() core.ProjectionInputs {
	return e.inputs.Clone()
}

// UpdateInputs merges the non-nil fields of patch into the stored inputs.
// The merged inputs are validated first; on error nothing is changed.
func (e *Engine) UpdateInputs(patch core.InputsPatch) error {
	merged := patch.Apply(e.inputs)
	if err := Validate(merged); err != nil {
		return err
	}
	e.inputs = merged
	return nil
}

// Generate runs the simulation. It never writes to the stored inputs.
// Finite inputs whose growth overflows float64 fail with *InvalidInputError
// naming the responsible rate.
func (e *Engine) Generate() (core.FinancialProjection, error) {
	in := e.inputs
	if err := Validate(in); err != nil {
		return core.FinancialProjection{}, err
	}

	start := e.now()
	points := make([]core.ProjectionDataPoint, 0, HorizonMonths+1)
	var milestones []core.ProjectionMilestone

	savings := in.CurrentSavings
	investments := in.CurrentInvestments
	debt := in.CurrentDebt
	monthlyIncome := in.MonthlyIncome
	monthlyExpenses := in.MonthlyExpenses
	monthlyDebtPayment := in.MonthlyDebtPayment
	extra := in.AdditionalMonthlySavings
	cumulativeSavings := 0.0
	cumulativeDebtPaid := 0.0
	debtFree := false
	savingsGoalReached := in.SavingsGoal <= 0 || savings >= in.SavingsGoal

	points = append(points, core.ProjectionDataPoint{
		Month:              0,
		Year:               0,
		MonthLabel:         monthLabel(start, 0),
		NetWorth:           in.CurrentNetWorth,
		TotalAssets:        savings + investments,
		TotalLiabilities:   debt,
		Savings:            savings,
		Investments:        investments,
		Debt:               debt,
		MonthlyIncome:      monthlyIncome,
		MonthlyExpenses:    monthlyExpenses,
		MonthlyDebtPayment: monthlyDebtPayment,
		NetMonthlyCashFlow: monthlyIncome - monthlyExpenses - monthlyDebtPayment - extra,
	})

	for month := 1; month <= HorizonMonths; month++ {
		if month%12 == 0 {
			monthlyIncome *= 1 + in.IncomeGrowthRate
			monthlyExpenses *= 1 + in.ExpenseGrowthRate
		}

		savings += savings * (in.SavingsInterestRate / 12)
		investments += investments * (in.InvestmentReturnRate / 12)

		netCashFlow := monthlyIncome - monthlyExpenses - monthlyDebtPayment - extra

		for _, ev := range in.LumpSumEvents {
			if ev.Month != month {
				continue
			}
			netCashFlow += ev.Amount
			if ev.Amount != 0 {
				milestones = append(milestones, lumpSumMilestone(ev))
			}
		}

		if debt > 0 && monthlyDebtPayment > 0 {
			payment := math.Min(debt, monthlyDebtPayment)
			debt -= payment
			cumulativeDebtPaid += payment
			if debt == 0 && !debtFree {
				milestones = append(milestones, debtFreeMilestone(month, cumulativeDebtPaid))
				debtFree = true
				monthlyDebtPayment = 0
				netCashFlow += payment
			}
		}

		switch {
		case netCashFlow > 0:
			savings += netCashFlow*SavingsShare + extra
			investments += netCashFlow * InvestmentShare
			cumulativeSavings += netCashFlow + extra
		case netCashFlow < 0:
			deficit := -netCashFlow
			if savings >= deficit {
				savings -= deficit
				cumulativeSavings += netCashFlow
			} else {
				consumed := savings
				savings = 0
				cumulativeSavings -= consumed
				deficit -= consumed
				investments = math.Max(0, investments-deficit)
			}
		}

		totalAssets := savings + investments
		netWorth := totalAssets - debt
		if err := checkState(in, monthlyIncome, monthlyExpenses, savings, investments, netWorth, cumulativeSavings); err != nil {
			return core.FinancialProjection{}, fmt.Errorf("month %d: %w", month, err)
		}
		points = append(points, core.ProjectionDataPoint{
			Month:              month,
			Year:               month / 12,
			MonthLabel:         monthLabel(start, month),
			NetWorth:           netWorth,
			TotalAssets:        totalAssets,
			TotalLiabilities:   debt,
			Savings:            savings,
			Investments:        investments,
			Debt:               debt,
			MonthlyIncome:      monthlyIncome,
			MonthlyExpenses:    monthlyExpenses,
			MonthlyDebtPayment: monthlyDebtPayment,
			NetMonthlyCashFlow: monthlyIncome - monthlyExpenses - monthlyDebtPayment,
			CumulativeSavings:  cumulativeSavings,
			CumulativeDebtPaid: cumulativeDebtPaid,
		})

		if !savingsGoalReached && savings >= in.SavingsGoal {
			savingsGoalReached = true
			milestones = append(milestones, savingsGoalMilestone(month, in.SavingsGoal))
		}

		if netWorth > 0 {
			previous := points[month-1].NetWorth
			for _, threshold := range NetWorthThresholds {
				if previous < threshold && netWorth >= threshold {
					milestones = append(milestones, netWorthMilestone(month, threshold))
				}
			}
		}
	}

	sort.SliceStable(milestones, func(i, j int) bool {
		return milestones[i].Month < milestones[j].Month
	})
	if milestones == nil {
		milestones = []core.ProjectionMilestone{}
	}

	return core.FinancialProjection{
		DataPoints: points,
		Milestones: milestones,
		Summary:    summarize(points),
	}, nil
}

func summarize(points []core.ProjectionDataPoint) core.ProjectionSummary {
	first := points[0]
	last := points[len(points)-1]
	var income, expenses float64
	for _, p := range points {
		income += p.MonthlyIncome
		expenses += p.MonthlyExpenses
	}
	n := float64(len(points))
	return core.ProjectionSummary{
		StartNetWorth:           first.NetWorth,
		EndNetWorth:             last.NetWorth,
		TotalGrowth:             last.NetWorth - first.NetWorth,
		TotalDebtPaid:           last.CumulativeDebtPaid,
		TotalSavingsAccumulated: last.CumulativeSavings,
		AverageMonthlyIncome:    income / n,
		AverageMonthlyExpenses:  expenses / n,
	}
}

// monthLabel names the calendar month that is offset months after start.
func monthLabel(start time.Time, offset int) string {
	first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location())
	return first.AddDate(0, offset, 0).Format("Jan 2006")
}

func lumpSumMilestone(ev core.LumpSumEvent) core.ProjectionMilestone {
	verb := "Received"
	if ev.Amount < 0 {
		verb = "Paid"
	}
	return core.ProjectionMilestone{
		Month:       ev.Month,
		Type:        core.MilestoneCustom,
		Title:       ev.Description,
		Description: fmt.Sprintf("%s $%s", verb, formatAmount(math.Abs(ev.Amount))),
		Amount:      amount(ev.Amount),
	}
}

func debtFreeMilestone(month int, paid float64) core.ProjectionMilestone {
	return core.ProjectionMilestone{
		Month:       month,
		Type:        core.MilestoneDebtFree,
		Title:       "Debt Free!",
		Description: fmt.Sprintf("All debt paid off in %d years and %d months", month/12, month%12),
		Amount:      amount(paid),
	}
}

func savingsGoalMilestone(month int, goal float64) core.ProjectionMilestone {
	return core.ProjectionMilestone{
		Month:       month,
		Type:        core.MilestoneSavings,
		Title:       "Savings Goal Reached",
		Description: fmt.Sprintf("Savings reached $%s", formatAmount(goal)),
		Amount:      amount(goal),
	}
}

func netWorthMilestone(month int, threshold float64) core.ProjectionMilestone {
	return core.ProjectionMilestone{
		Month:       month,
		Type:        core.MilestoneNetWorth,
		Title:       fmt.Sprintf("$%.0fK Net Worth", threshold/1000),
		Description: fmt.Sprintf("Net worth reached $%s", formatAmount(threshold)),
		Amount:      amount(threshold),
	}
}

func formatAmount(v float64) string {
	return humanize.CommafWithDigits(v, 2)
}

func amount(v float64) *float64 {
	return &v
}
