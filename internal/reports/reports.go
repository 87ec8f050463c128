// Package reports aggregates the derived journal of a Book into ledgers,
// statements and reconciliation views. Every function is a pure function of
// the Book, the account roles and its query parameters.
package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simonvc/cafeledger/internal/ledger"
)

// Reporter derives the journal of a Book once and answers report queries
// over it. A Reporter is immutable and safe for concurrent use.
type Reporter struct {
	book    *ledger.Book
	roles   ledger.AccountRoles
	journal *ledger.Journal
	ix      *ledger.Index
	order   []ledger.Account
}

func New(b *ledger.Book, roles ledger.AccountRoles) *Reporter {
	if b == nil {
		b = &ledger.Book{}
	}
	order := make([]ledger.Account, len(b.Accounts))
	copy(order, b.Accounts)
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].Code != order[j].Code {
			return order[i].Code < order[j].Code
		}
		return order[i].ID < order[j].ID
	})
	return &Reporter{
		book:    b,
		roles:   roles,
		journal: ledger.Derive(b, roles),
		ix:      ledger.NewIndex(b),
		order:   order,
	}
}

func (r *Reporter) Book() *ledger.Book         { return r.book }
func (r *Reporter) Journal() *ledger.Journal   { return r.journal }
func (r *Reporter) Roles() ledger.AccountRoles { return r.roles }

// AccountLine is one account's aggregate over a set of postings. Balance is
// signed by the account's normal side.
type AccountLine struct {
	AccountID string             `json:"account_id"`
	Code      string             `json:"code"`
	Name      string             `json:"name"`
	NameEn    string             `json:"name_en,omitempty"`
	Type      ledger.AccountType `json:"type"`
	IsActive  bool               `json:"is_active"`
	Debit     decimal.Decimal    `json:"debit"`
	Credit    decimal.Decimal    `json:"credit"`
	Balance   decimal.Decimal    `json:"balance"`
}

func lineFor(a ledger.Account) AccountLine {
	return AccountLine{
		AccountID: a.ID,
		Code:      a.Code,
		Name:      a.Name,
		NameEn:    a.NameEn,
		Type:      a.Type,
		IsActive:  a.IsActive,
		Debit:     decimal.Zero,
		Credit:    decimal.Zero,
		Balance:   decimal.Zero,
	}
}

type totals struct {
	debit, credit decimal.Decimal
	n             int
}

// sums aggregates postings per account for which keep returns true.
func (r *Reporter) sums(keep func(p ledger.Posting) bool) map[string]totals {
	out := make(map[string]totals)
	for _, e := range r.journal.Entries {
		for _, p := range e.Postings {
			if !keep(p) {
				continue
			}
			t := out[p.AccountID]
			t.debit = t.debit.Add(p.Debit)
			t.credit = t.credit.Add(p.Credit)
			t.n++
			out[p.AccountID] = t
		}
	}
	return out
}

// lines builds an AccountLine per account in code order. Inactive accounts
// appear only when they have activity.
func (r *Reporter) lines(keep func(p ledger.Posting) bool, types ...ledger.AccountType) []AccountLine {
	sums := r.sums(keep)
	var out []AccountLine
	for _, a := range r.order {
		if len(types) > 0 && !hasType(types, a.Type) {
			continue
		}
		t, active := sums[a.ID]
		if !a.IsActive && !active {
			continue
		}
		l := lineFor(a)
		if active {
			l.Debit = t.debit
			l.Credit = t.credit
			l.Balance = ledger.SignedBalance(a.Type, t.debit, t.credit)
		}
		out = append(out, l)
	}
	return out
}

func hasType(types []ledger.AccountType, t ledger.AccountType) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}

// ClosingBalances returns the normal-signed balance of every account over
// all postings, keyed by account ID. It feeds Registry.ApplyBalances.
func (r *Reporter) ClosingBalances() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(r.order))
	sums := r.sums(func(ledger.Posting) bool { return true })
	for _, a := range r.order {
		t := sums[a.ID]
		out[a.ID] = ledger.SignedBalance(a.Type, t.debit, t.credit)
	}
	return out
}

// EndOfDay returns the last instant of t's calendar day. Report dates are
// inclusive of the whole day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// StartOfDay truncates t to midnight in its location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func onOrBefore(asOf time.Time) func(ledger.Posting) bool {
	limit := EndOfDay(asOf)
	return func(p ledger.Posting) bool { return !p.Date.After(limit) }
}

func before(start time.Time) func(ledger.Posting) bool {
	limit := StartOfDay(start)
	return func(p ledger.Posting) bool { return p.Date.Before(limit) }
}

func between(start, end time.Time) func(ledger.Posting) bool {
	from, to := StartOfDay(start), EndOfDay(end)
	return func(p ledger.Posting) bool { return !p.Date.Before(from) && !p.Date.After(to) }
}

func inPeriod(d, start, end time.Time) bool {
	return !d.Before(StartOfDay(start)) && !d.After(EndOfDay(end))
}

func sumBalances(lines []AccountLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Balance)
	}
	return sum
}

// percent returns part/whole×100 rounded to 2 places, or 0 when whole is 0.
func percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).Round(2)
}
