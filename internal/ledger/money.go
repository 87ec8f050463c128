package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ReportingCurrency is the only currency the books are kept in.
const ReportingCurrency = "IRR"

// Tolerance is the largest difference treated as equal by report-level
// consistency checks.
var Tolerance = decimal.NewFromFloat(0.01)

// WithinTolerance reports whether |a-b| < Tolerance.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(Tolerance)
}

// ParseAmount parses "1,250,000", "1250000.50" or Persian/Arabic digits.
func ParseAmount(s string) (decimal.Decimal, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= '۰' && r <= '۹':
			b.WriteRune('0' + (r - '۰'))
		case r >= '٠' && r <= '٩':
			b.WriteRune('0' + (r - '٠'))
		case r == ',' || r == '٬' || r == '_' || r == ' ':
		case r == '٫':
			b.WriteRune('.')
		default:
			b.WriteRune(r)
		}
	}
	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// FormatAmount renders an amount with thousands separators, e.g. 1250000 -> "1,250,000".
// Fractions are shown only when present.
func FormatAmount(d decimal.Decimal) string {
	neg := d.IsNegative()
	d = d.Abs().Round(2)

	whole := d.Truncate(0)
	frac := d.Sub(whole)

	digits := whole.String()
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if !frac.IsZero() {
		b.WriteString(strings.TrimPrefix(frac.StringFixed(2), "0"))
	}

	if neg && !d.IsZero() {
		return "-" + b.String()
	}
	return b.String()
}
