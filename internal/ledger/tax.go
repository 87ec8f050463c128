package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// RoundAmount rounds to the precision used for derived amounts.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// LineTax is the tax treatment of one sell line.
type LineTax struct {
	Index   int             `json:"index"`
	Amount  decimal.Decimal `json:"amount"`
	Taxable bool            `json:"taxable"`
	RateID  string          `json:"rate_id,omitempty"`
	Rate    decimal.Decimal `json:"rate"`
	Tax     decimal.Decimal `json:"tax"`
}

// SaleTax computes per-line tax for a sale. Lines are taxable when tax is
// enabled and neither the line nor its item master is exempt. The rate comes
// from the line override, else the default rate.
func SaleTax(t SellTransaction, settings TaxSettings, rates map[string]TaxRate, items map[string]Item) ([]LineTax, error) {
	out := make([]LineTax, 0, len(t.Items))
	for i, line := range t.Items {
		lt := LineTax{Index: i, Amount: line.LineAmount(), Rate: decimal.Zero, Tax: decimal.Zero}
		exempt := line.TaxExempt
		if it, ok := items[line.ItemID]; ok && it.TaxExempt {
			exempt = true
		}
		if settings.Enabled && !exempt {
			rateID := line.TaxRateID
			if rateID == "" {
				rateID = settings.DefaultTaxRateID
			}
			if rateID == "" {
				return nil, fmt.Errorf("line %d: tax enabled but no tax rate configured", i)
			}
			rate, ok := rates[rateID]
			if !ok {
				return nil, fmt.Errorf("line %d: %w: %s", i, ErrTaxRateNotFound, rateID)
			}
			lt.Taxable = true
			lt.RateID = rateID
			lt.Rate = rate.Rate
			lt.Tax = taxOn(lt.Amount, rate.Rate, settings.PricesIncludeTax)
		}
		out = append(out, lt)
	}
	return out, nil
}

func taxOn(amount, rate decimal.Decimal, inclusive bool) decimal.Decimal {
	if inclusive {
		return RoundAmount(amount.Mul(rate).Div(hundred.Add(rate)))
	}
	return RoundAmount(amount.Mul(rate).Div(hundred))
}

// TotalTax sums the tax of every line.
func TotalTax(lines []LineTax) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Tax)
	}
	return sum
}
