package report

import (
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// Money formats an amount rounded to whole units with thousands separators:
// 1234567.8 -> "$1,234,568", -950 -> "-$950".
func Money(v float64) string {
	r := math.Round(v)
	if r == 0 {
		return "$0"
	}
	sign := ""
	if r < 0 {
		sign = "-"
		r = -r
	}
	return sign + "$" + humanize.Commaf(r)
}

// SignedMoney is Money with an explicit plus sign for positive amounts.
func SignedMoney(v float64) string {
	if math.Round(v) > 0 {
		return "+" + Money(v)
	}
	return Money(v)
}

// Percent formats a decimal rate: 0.045 -> "4.5%".
func Percent(rate float64) string {
	return humanize.FtoaWithDigits(rate*100, 2) + "%"
}

// Sparkline draws values as a row of unicode blocks, scaled between the
// series minimum and maximum.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo

	var b strings.Builder
	for _, v := range values {
		idx := 0
		if span > 0 {
			idx = int((v - lo) / span * float64(len(blocks)-1))
		}
		b.WriteRune(blocks[idx])
	}
	return b.String()
}
