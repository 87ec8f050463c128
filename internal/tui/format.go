package tui

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simonvc/cafeledger/internal/ledger"
)

// formatAmt shows negatives in parentheses, the way statements print them.
func formatAmt(d decimal.Decimal) string {
	if d.IsNegative() {
		return "(" + ledger.FormatAmount(d.Neg()) + ")"
	}
	return ledger.FormatAmount(d)
}

// blankZero renders zero as an empty column.
func blankZero(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return formatAmt(d)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 2 {
		return string(r[:n])
	}
	return string(r[:n-2]) + ".."
}

func centerStr(s string, w int) string {
	n := len([]rune(s))
	if n >= w {
		return s
	}
	return strings.Repeat(" ", (w-n)/2) + s
}

func day(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

// monthBounds returns the first and last day of the month offset months from now.
func monthBounds(now time.Time, offset int) (time.Time, time.Time) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, offset, 0)
	return first, first.AddDate(0, 1, -1)
}
