package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simonvc/cafeledger/internal/ledger"
)

type TaxDetail struct {
	TransactionID    string          `json:"transaction_id"`
	Date             time.Time       `json:"date"`
	IsRefund         bool            `json:"is_refund"`
	TaxableAmount    decimal.Decimal `json:"taxable_amount"`
	NonTaxableAmount decimal.Decimal `json:"non_taxable_amount"`
	Tax              decimal.Decimal `json:"tax"`
}

type TaxReport struct {
	Start            time.Time       `json:"start"`
	End              time.Time       `json:"end"`
	Enabled          bool            `json:"enabled"`
	PricesIncludeTax bool            `json:"prices_include_tax"`
	TaxableAmount    decimal.Decimal `json:"taxable_amount"`
	NonTaxableAmount decimal.Decimal `json:"non_taxable_amount"`
	TaxCollected     decimal.Decimal `json:"tax_collected"`
	Details          []TaxDetail     `json:"details"`
	SkippedEvents    int             `json:"skipped_events"`
}

// TaxReport partitions sells dated in the period into taxable and
// non-taxable amounts using the same line tax rules as journal derivation.
// A refund in the period subtracts its original sale's amounts. Sells that
// could not be derived are skipped.
func (r *Reporter) TaxReport(start, end time.Time) *TaxReport {
	settings := r.book.TaxSettings
	rep := &TaxReport{
		Start:            start,
		End:              end,
		Enabled:          settings.Enabled,
		PricesIncludeTax: settings.PricesIncludeTax,
		TaxableAmount:    decimal.Zero,
		NonTaxableAmount: decimal.Zero,
		TaxCollected:     decimal.Zero,
		SkippedEvents:    r.journal.SkippedEvents(),
	}
	saleGaps := r.gapped(ledger.EventSale)
	refundGaps := r.gapped(ledger.EventRefund)

	sells := make([]ledger.SellTransaction, len(r.book.Sells))
	copy(sells, r.book.Sells)
	sort.SliceStable(sells, func(i, j int) bool {
		if !sells[i].Date.Equal(sells[j].Date) {
			return sells[i].Date.Before(sells[j].Date)
		}
		return sells[i].ID < sells[j].ID
	})

	for _, t := range sells {
		if !inPeriod(t.Date, start, end) {
			continue
		}
		src := t
		if t.IsRefund {
			if refundGaps[t.ID] {
				continue
			}
			orig, ok := r.ix.Sells[t.OriginalTransactionID]
			if !ok {
				continue
			}
			src = orig
		}
		if saleGaps[src.ID] {
			continue
		}
		lines, err := ledger.SaleTax(src, settings, r.ix.Rates, r.ix.Items)
		if err != nil {
			continue
		}

		d := TaxDetail{
			TransactionID:    t.ID,
			Date:             t.Date,
			IsRefund:         t.IsRefund,
			TaxableAmount:    decimal.Zero,
			NonTaxableAmount: decimal.Zero,
			Tax:              decimal.Zero,
		}
		for _, l := range lines {
			if l.Taxable {
				d.TaxableAmount = d.TaxableAmount.Add(l.Amount)
			} else {
				d.NonTaxableAmount = d.NonTaxableAmount.Add(l.Amount)
			}
			d.Tax = d.Tax.Add(l.Tax)
		}
		if t.IsRefund {
			d.TaxableAmount = d.TaxableAmount.Neg()
			d.NonTaxableAmount = d.NonTaxableAmount.Neg()
			d.Tax = d.Tax.Neg()
		}

		rep.TaxableAmount = rep.TaxableAmount.Add(d.TaxableAmount)
		rep.NonTaxableAmount = rep.NonTaxableAmount.Add(d.NonTaxableAmount)
		rep.TaxCollected = rep.TaxCollected.Add(d.Tax)
		rep.Details = append(rep.Details, d)
	}
	return rep
}
