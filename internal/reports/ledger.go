package reports

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simonvc/cafeledger/internal/ledger"
)

// LedgerQuery selects a general ledger view. Zero fields mean unbounded.
type LedgerQuery struct {
	AccountID string
	Start     *time.Time
	End       *time.Time
}

type LedgerLine struct {
	Date        time.Time        `json:"date"`
	EntryID     string           `json:"entry_id"`
	Kind        ledger.EventKind `json:"kind"`
	Description string           `json:"description"`
	Reference   string           `json:"reference"`
	Debit       decimal.Decimal  `json:"debit"`
	Credit      decimal.Decimal  `json:"credit"`
	Balance     decimal.Decimal  `json:"balance"`
}

type AccountLedger struct {
	Account        AccountLine     `json:"account"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Lines          []LedgerLine    `json:"lines"`
	TotalDebit     decimal.Decimal `json:"total_debit"`
	TotalCredit    decimal.Decimal `json:"total_credit"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
}

type GeneralLedger struct {
	Start         *time.Time             `json:"start,omitempty"`
	End           *time.Time             `json:"end,omitempty"`
	Accounts      []AccountLedger        `json:"accounts"`
	SkippedEvents int                    `json:"skipped_events"`
	Gaps          []ledger.DerivationGap `json:"gaps,omitempty"`
}

// GeneralLedger returns one account's ledger when q.AccountID is set, else
// the ledgers of every account with activity. The opening balance is the sum
// of all postings before q.Start; running balances follow the account's
// normal side.
func (r *Reporter) GeneralLedger(q LedgerQuery) (*GeneralLedger, error) {
	gl := &GeneralLedger{
		Start:         q.Start,
		End:           q.End,
		SkippedEvents: r.journal.SkippedEvents(),
		Gaps:          r.journal.Gaps,
	}

	accounts := r.order
	if q.AccountID != "" {
		a, ok := r.ix.Accounts[q.AccountID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, q.AccountID)
		}
		accounts = []ledger.Account{a}
	}

	for _, a := range accounts {
		al := r.accountLedger(a, q)
		if q.AccountID == "" && len(al.Lines) == 0 && al.OpeningBalance.IsZero() {
			continue
		}
		gl.Accounts = append(gl.Accounts, al)
	}
	return gl, nil
}

func (r *Reporter) accountLedger(a ledger.Account, q LedgerQuery) AccountLedger {
	al := AccountLedger{
		Account:        lineFor(a),
		OpeningBalance: decimal.Zero,
		TotalDebit:     decimal.Zero,
		TotalCredit:    decimal.Zero,
	}
	var from, to time.Time
	if q.Start != nil {
		from = StartOfDay(*q.Start)
	}
	if q.End != nil {
		to = EndOfDay(*q.End)
	}

	// Journal entries are already in date order with a stable tie-break.
	running := decimal.Zero
	for _, e := range r.journal.Entries {
		for _, p := range e.Postings {
			if p.AccountID != a.ID {
				continue
			}
			delta := ledger.SignedBalance(a.Type, p.Debit, p.Credit)
			if q.Start != nil && p.Date.Before(from) {
				al.OpeningBalance = al.OpeningBalance.Add(delta)
				running = running.Add(delta)
				continue
			}
			if q.End != nil && p.Date.After(to) {
				continue
			}
			running = running.Add(delta)
			al.TotalDebit = al.TotalDebit.Add(p.Debit)
			al.TotalCredit = al.TotalCredit.Add(p.Credit)
			al.Lines = append(al.Lines, LedgerLine{
				Date:        p.Date,
				EntryID:     e.ID,
				Kind:        e.Kind,
				Description: p.Description,
				Reference:   p.Reference,
				Debit:       p.Debit,
				Credit:      p.Credit,
				Balance:     running,
			})
		}
	}
	al.ClosingBalance = running
	al.Account.Debit = al.TotalDebit
	al.Account.Credit = al.TotalCredit
	al.Account.Balance = running
	return al
}

type TrialBalance struct {
	AsOf          time.Time              `json:"as_of"`
	Lines         []AccountLine          `json:"lines"`
	TotalDebit    decimal.Decimal        `json:"total_debit"`
	TotalCredit   decimal.Decimal        `json:"total_credit"`
	Balanced      bool                   `json:"balanced"`
	SkippedEvents int                    `json:"skipped_events"`
	Gaps          []ledger.DerivationGap `json:"gaps,omitempty"`
}

// TrialBalance sums every posting dated on or before asOf per account. Each
// line reports the net on its debit or credit column.
func (r *Reporter) TrialBalance(asOf time.Time) *TrialBalance {
	tb := &TrialBalance{
		AsOf:          asOf,
		TotalDebit:    decimal.Zero,
		TotalCredit:   decimal.Zero,
		SkippedEvents: r.journal.SkippedEvents(),
		Gaps:          r.journal.Gaps,
	}
	for _, l := range r.lines(onOrBefore(asOf)) {
		net := l.Debit.Sub(l.Credit)
		if net.IsPositive() {
			l.Debit, l.Credit = net, decimal.Zero
		} else {
			l.Debit, l.Credit = decimal.Zero, net.Neg()
		}
		tb.TotalDebit = tb.TotalDebit.Add(l.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(l.Credit)
		tb.Lines = append(tb.Lines, l)
	}
	tb.Balanced = ledger.WithinTolerance(tb.TotalDebit, tb.TotalCredit)
	return tb
}

// Line returns the trial balance line for an account code, preferring the
// active account.
func (tb *TrialBalance) Line(code string) (AccountLine, bool) {
	var found AccountLine
	ok := false
	for _, l := range tb.Lines {
		if l.Code != code {
			continue
		}
		if l.IsActive {
			return l, true
		}
		found, ok = l, true
	}
	return found, ok
}
