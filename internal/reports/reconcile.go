package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/simonvc/cafeledger/internal/ledger"
)

type BalanceCheck struct {
	ID         string          `json:"id"`
	Code       string          `json:"code,omitempty"`
	Name       string          `json:"name"`
	Stored     decimal.Decimal `json:"stored"`
	Computed   decimal.Decimal `json:"computed"`
	Difference decimal.Decimal `json:"difference"`
	Consistent bool            `json:"consistent"`
}

func check(id, code, name string, stored, computed decimal.Decimal) BalanceCheck {
	return BalanceCheck{
		ID:         id,
		Code:       code,
		Name:       name,
		Stored:     stored,
		Computed:   computed,
		Difference: stored.Sub(computed),
		Consistent: ledger.WithinTolerance(stored, computed),
	}
}

type Reconciliation struct {
	AsOf          time.Time      `json:"as_of"`
	Accounts      []BalanceCheck `json:"accounts"`
	Customers     []BalanceCheck `json:"customers"`
	Mismatches    int            `json:"mismatches"`
	Consistent    bool           `json:"consistent"`
	SkippedEvents int            `json:"skipped_events"`
}

// Reconcile compares stored account balances with balances recomputed from
// every posting, and stored customer balances with their open receivables as
// of asOf. Mismatches are reported, never corrected.
func (r *Reporter) Reconcile(asOf time.Time) *Reconciliation {
	rec := &Reconciliation{AsOf: asOf, SkippedEvents: r.journal.SkippedEvents()}

	computed := r.ClosingBalances()
	for _, a := range r.order {
		c := check(a.ID, a.Code, a.Name, a.Balance, computed[a.ID])
		rec.Accounts = append(rec.Accounts, c)
		if !c.Consistent {
			rec.Mismatches++
		}
	}

	for _, cust := range r.book.Customers {
		open := decimal.Zero
		for _, d := range r.openReceivables(asOf, cust.ID) {
			open = open.Add(d.Amount)
		}
		c := check(cust.ID, "", cust.Name, cust.Balance, open)
		rec.Customers = append(rec.Customers, c)
		if !c.Consistent {
			rec.Mismatches++
		}
	}

	rec.Consistent = rec.Mismatches == 0
	return rec
}
