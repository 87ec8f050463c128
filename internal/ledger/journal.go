package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EventKind names the source event an entry was derived from.
type EventKind string

const (
	EventOpeningBalance  EventKind = "opening_balance"
	EventPurchase        EventKind = "purchase"
	EventPurchasePayment EventKind = "purchase_payment"
	EventSale            EventKind = "sale"
	EventCOGS            EventKind = "cogs"
	EventSaleSettlement  EventKind = "sale_settlement"
	EventRefund          EventKind = "refund"
)

// Posting is one debit or credit line. Postings are derived, never stored as
// the source of truth.
type Posting struct {
	EntryID     string          `json:"entry_id"`
	Date        time.Time       `json:"date"`
	AccountID   string          `json:"account_id"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
}

// JournalEntry is the balanced posting set for one business event.
type JournalEntry struct {
	ID          string    `json:"id"`
	Kind        EventKind `json:"kind"`
	EventID     string    `json:"event_id"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Reference   string    `json:"reference"`
	Postings    []Posting `json:"postings"`
}

// Totals returns the entry's debit and credit sums.
func (e *JournalEntry) Totals() (decimal.Decimal, decimal.Decimal) {
	debit, credit := decimal.Zero, decimal.Zero
	for _, p := range e.Postings {
		debit = debit.Add(p.Debit)
		credit = credit.Add(p.Credit)
	}
	return debit, credit
}

// Validate checks the entry has at least two postings, no negative amounts and
// exactly equal debit and credit totals.
func (e *JournalEntry) Validate() error {
	if len(e.Postings) < 2 {
		return fmt.Errorf("%w: %s has %d postings", ErrUnbalancedEntry, e.ID, len(e.Postings))
	}
	for _, p := range e.Postings {
		if p.Debit.IsNegative() || p.Credit.IsNegative() {
			return fmt.Errorf("%w: %s on account %s", ErrNegativePosting, e.ID, p.AccountID)
		}
	}
	debit, credit := e.Totals()
	if !debit.Equal(credit) {
		return fmt.Errorf("%w: %s debits %s != credits %s", ErrUnbalancedEntry, e.ID, debit, credit)
	}
	return nil
}

// DerivationGap is a source event that could not be mapped to a balanced
// entry. It is excluded from every aggregate.
type DerivationGap struct {
	Kind    EventKind `json:"kind"`
	EventID string    `json:"event_id"`
	Reason  string    `json:"reason"`
}

func (g DerivationGap) String() string {
	return fmt.Sprintf("%s %s: %s", g.Kind, g.EventID, g.Reason)
}

// Journal is the full derived posting set for a Book.
type Journal struct {
	Entries []JournalEntry  `json:"entries"`
	Gaps    []DerivationGap `json:"gaps"`
}

// SkippedEvents is the number of events excluded from aggregates.
func (j *Journal) SkippedEvents() int {
	if j == nil {
		return 0
	}
	return len(j.Gaps)
}

// Postings flattens every entry in chronological order.
func (j *Journal) Postings() []Posting {
	if j == nil {
		return nil
	}
	var out []Posting
	for _, e := range j.Entries {
		out = append(out, e.Postings...)
	}
	return out
}

// PostingCount counts postings against an account.
func (j *Journal) PostingCount(accountID string) int {
	if j == nil {
		return 0
	}
	n := 0
	for _, e := range j.Entries {
		for _, p := range e.Postings {
			if p.AccountID == accountID {
				n++
			}
		}
	}
	return n
}

// EntriesFor returns the entries derived from one source event ID.
func (j *Journal) EntriesFor(eventID string) []JournalEntry {
	var out []JournalEntry
	for _, e := range j.Entries {
		if e.EventID == eventID {
			out = append(out, e)
		}
	}
	return out
}
