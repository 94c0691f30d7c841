// Package report renders projections for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"finplan/internal/core"
)

var (
	colorBorder = lipgloss.Color("#282726")
	colorText   = lipgloss.Color("#FFFCF0")
	colorMuted  = lipgloss.Color("#6F6E69")
	colorAccent = lipgloss.Color("#3AA99F")
	colorGreen  = lipgloss.Color("#879A39")
	colorRed    = lipgloss.Color("#D14D41")
	colorYellow = lipgloss.Color("#D0A215")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorText).Align(lipgloss.Center)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	valueStyle  = lipgloss.NewStyle().Foreground(colorText)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	dimStyle    = lipgloss.NewStyle().Foreground(colorBorder)
	gainStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	lossStyle   = lipgloss.NewStyle().Foreground(colorRed)
	markStyle   = lipgloss.NewStyle().Foreground(colorYellow)
)

// Options controls what Render includes.
type Options struct {
	Title string
	// Monthly lists every month instead of one row per year.
	Monthly bool
}

// Table is a bordered text table. The first column is left aligned, the
// rest right aligned. A row holding the single cell "---" is a separator.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Render draws the title, the balance table, milestones and the summary.
func Render(p core.FinancialProjection, opts Options) string {
	title := opts.Title
	if title == "" {
		title = "Financial Projection"
	}

	var b strings.Builder
	b.WriteString(RenderTitle(title))
	b.WriteString("\n\n")
	b.WriteString(RenderTable(balanceTable(p, opts.Monthly)))
	b.WriteString("\n")
	b.WriteString(renderMilestones(p.Milestones))
	b.WriteString("\n")
	b.WriteString(renderSummary(p))
	return b.String()
}

// RenderTitle renders a centered title in a rounded box.
func RenderTitle(title string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Width(60).
		Align(lipgloss.Center).
		Padding(0, 1)
	return box.Render(titleStyle.Render(title))
}

func balanceTable(p core.FinancialProjection, monthly bool) Table {
	t := Table{
		Headers: []string{"Month", "Net Worth", "Savings", "Investments", "Debt", "Income/mo", "Expenses/mo"},
	}
	if monthly {
		t.Title = "Monthly balances"
	} else {
		t.Title = "Yearly balances"
	}
	for _, dp := range p.DataPoints {
		if !monthly && dp.Month%12 != 0 {
			continue
		}
		t.Rows = append(t.Rows, []string{
			dp.MonthLabel,
			Money(dp.NetWorth),
			Money(dp.Savings),
			Money(dp.Investments),
			Money(dp.Debt),
			Money(dp.MonthlyIncome),
			Money(dp.MonthlyExpenses),
		})
	}
	return t
}

// RenderTable renders a bordered table with headers and rows.
func RenderTable(t Table) string {
	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}
	if numCols == 0 {
		return ""
	}

	widths := make([]int, numCols)
	for i, h := range t.Headers {
		widths[i] = max(widths[i], lipgloss.Width(h))
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < numCols {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	rule := func(left, mid, right string) {
		b.WriteString(dimStyle.Render(left))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render(mid))
			}
		}
		b.WriteString(dimStyle.Render(right))
		b.WriteString("\n")
	}
	line := func(cells []string, style lipgloss.Style) {
		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if i == 0 {
				b.WriteString(style.Render(" " + cell + pad + " "))
			} else {
				b.WriteString(style.Render(" " + pad + cell + " "))
			}
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	rule("╭", "┬", "╮")
	if len(t.Headers) > 0 {
		line(t.Headers, headerStyle)
		rule("├", "┼", "┤")
	}
	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			rule("├", "┼", "┤")
			continue
		}
		line(row, valueStyle)
	}
	rule("╰", "┴", "╯")
	return b.String()
}

func renderMilestones(milestones []core.ProjectionMilestone) string {
	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(headerStyle.Render("Milestones"))
	b.WriteString("\n")
	if len(milestones) == 0 {
		b.WriteString(mutedStyle.Render("  No milestones within ten years"))
		b.WriteString("\n")
		return b.String()
	}
	for _, m := range milestones {
		when := fmt.Sprintf("month %3d", m.Month)
		b.WriteString("  ")
		b.WriteString(mutedStyle.Render(when))
		b.WriteString("  ")
		b.WriteString(markStyle.Render("◆ " + m.Title))
		if m.Description != "" {
			b.WriteString(mutedStyle.Render("  " + m.Description))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderSummary(p core.FinancialProjection) string {
	s := p.Summary
	growth := gainStyle
	if s.TotalGrowth < 0 {
		growth = lossStyle
	}

	netWorth := make([]float64, 0, len(p.DataPoints))
	for _, dp := range p.DataPoints {
		netWorth = append(netWorth, dp.NetWorth)
	}

	rows := []struct {
		label string
		value string
	}{
		{"Start net worth", valueStyle.Render(Money(s.StartNetWorth))},
		{"End net worth", valueStyle.Render(Money(s.EndNetWorth))},
		{"Total growth", growth.Render(SignedMoney(s.TotalGrowth))},
		{"Debt paid", valueStyle.Render(Money(s.TotalDebtPaid))},
		{"Savings accumulated", valueStyle.Render(Money(s.TotalSavingsAccumulated))},
		{"Avg monthly income", valueStyle.Render(Money(s.AverageMonthlyIncome))},
		{"Avg monthly expenses", valueStyle.Render(Money(s.AverageMonthlyExpenses))},
		{"Net worth trend", mutedStyle.Render(Sparkline(netWorth))},
	}

	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(headerStyle.Render("Summary"))
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("  %-22s %s\n", r.label, r.value))
	}
	return b.String()
}
