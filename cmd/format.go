package cmd

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/simonvc/cafeledger/internal/ledger"
)

func center(s string, w int) string {
	n := utf8.RuneCountInString(s)
	if n >= w {
		return s
	}
	return strings.Repeat(" ", (w-n)/2) + s
}

// formatSigned shows negative amounts in parentheses.
func formatSigned(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "(" + ledger.FormatAmount(amount.Neg()) + ")"
	}
	return ledger.FormatAmount(amount)
}

func blankZero(amount decimal.Decimal) string {
	if amount.IsZero() {
		return ""
	}
	return ledger.FormatAmount(amount)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-2]) + ".."
}

// displayName prefers the English name when one is set.
func displayName(name, nameEn string) string {
	if nameEn != "" {
		return nameEn
	}
	return name
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func day(t time.Time) string {
	return t.Format(time.DateOnly)
}
