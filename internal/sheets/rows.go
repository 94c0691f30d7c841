package sheets

import (
	"math"

	"finplan/internal/core"
)

// Header is the first row of an exported projection.
var Header = []any{
	"Month", "Label", "Net Worth", "Savings", "Investments", "Debt",
	"Income", "Expenses", "Debt Payment", "Net Cash Flow",
	"Cumulative Savings", "Cumulative Debt Paid",
}

var milestoneHeader = []any{"Month", "Type", "Title", "Description", "Amount"}

// Rows lays a projection out as spreadsheet rows: the header, one row per data
// point, a blank separator and the milestone block. Amounts are rounded to cents.
func Rows(p core.FinancialProjection) [][]any {
	rows := make([][]any, 0, len(p.DataPoints)+len(p.Milestones)+4)
	rows = append(rows, Header)
	for _, dp := range p.DataPoints {
		rows = append(rows, []any{
			dp.Month,
			dp.MonthLabel,
			cents(dp.NetWorth),
			cents(dp.Savings),
			cents(dp.Investments),
			cents(dp.Debt),
			cents(dp.MonthlyIncome),
			cents(dp.MonthlyExpenses),
			cents(dp.MonthlyDebtPayment),
			cents(dp.NetMonthlyCashFlow),
			cents(dp.CumulativeSavings),
			cents(dp.CumulativeDebtPaid),
		})
	}

	rows = append(rows, []any{}, []any{"Milestones"}, milestoneHeader)
	for _, m := range p.Milestones {
		var amount any = ""
		if m.Amount != nil {
			amount = cents(*m.Amount)
		}
		rows = append(rows, []any{m.Month, string(m.Type), m.Title, m.Description, amount})
	}
	return rows
}

func cents(v float64) float64 {
	return math.Round(v*100) / 100
}
