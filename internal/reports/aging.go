package reports

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simonvc/cafeledger/internal/ledger"
)

type AgingType string

const (
	AgingReceivable AgingType = "receivable"
	AgingPayable    AgingType = "payable"
)

// DefaultTerms is applied when an invoice carries no due date.
const DefaultTerms = 30 * 24 * time.Hour

type Bucket struct {
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

func (b *Bucket) add(amt decimal.Decimal) {
	b.Amount = b.Amount.Add(amt)
	b.Count++
}

type AgingBuckets struct {
	Current    Bucket `json:"current"`
	Days31to60 Bucket `json:"days_31_to_60"`
	Days61to90 Bucket `json:"days_61_to_90"`
	Over90     Bucket `json:"over_90"`
}

const (
	BucketCurrent = "current"
	Bucket31to60  = "31-60"
	Bucket61to90  = "61-90"
	BucketOver90  = "90+"
)

func (b *AgingBuckets) add(days int, amt decimal.Decimal) string {
	switch {
	case days <= 30:
		b.Current.add(amt)
		return BucketCurrent
	case days <= 60:
		b.Days31to60.add(amt)
		return Bucket31to60
	case days <= 90:
		b.Days61to90.add(amt)
		return Bucket61to90
	default:
		b.Over90.add(amt)
		return BucketOver90
	}
}

type AgingDetail struct {
	ID          string          `json:"id"`
	Party       string          `json:"party"`
	Date        time.Time       `json:"date"`
	DueDate     time.Time       `json:"due_date"`
	DaysOverdue int             `json:"days_overdue"`
	Amount      decimal.Decimal `json:"amount"`
	Bucket      string          `json:"bucket"`
}

type AgingReport struct {
	Type          AgingType       `json:"type"`
	AsOf          time.Time       `json:"as_of"`
	Buckets       AgingBuckets    `json:"buckets"`
	Total         decimal.Decimal `json:"total"`
	Details       []AgingDetail   `json:"details"`
	SkippedEvents int             `json:"skipped_events"`
}

// AgingReport buckets open credit sales (receivable) or unpaid purchases
// (payable) by days past due as of asOf. Events that could not be derived
// are left out.
func (r *Reporter) AgingReport(typ AgingType, asOf time.Time) (*AgingReport, error) {
	rep := &AgingReport{Type: typ, AsOf: asOf, Total: decimal.Zero, SkippedEvents: r.journal.SkippedEvents()}
	var details []AgingDetail

	switch typ {
	case AgingReceivable:
		details = r.openReceivables(asOf, "")
	case AgingPayable:
		details = r.openPayables(asOf)
	default:
		return nil, ledger.Invalid("type", fmt.Sprintf("unknown aging type %q", typ))
	}

	for _, d := range details {
		d.DaysOverdue = daysBetween(asOf, d.DueDate)
		d.Bucket = rep.Buckets.add(d.DaysOverdue, d.Amount)
		rep.Total = rep.Total.Add(d.Amount)
		rep.Details = append(rep.Details, d)
	}
	return rep, nil
}

func (r *Reporter) gapped(kind ledger.EventKind) map[string]bool {
	out := make(map[string]bool)
	for _, g := range r.journal.Gaps {
		if g.Kind == kind {
			out[g.EventID] = true
		}
	}
	return out
}

// refundDates maps an original sale ID to the date of its first refund.
func (r *Reporter) refundDates() map[string]time.Time {
	out := make(map[string]time.Time)
	for _, t := range r.book.Sells {
		if !t.IsRefund {
			continue
		}
		if prev, ok := out[t.OriginalTransactionID]; !ok || t.Date.Before(prev) {
			out[t.OriginalTransactionID] = t.Date
		}
	}
	return out
}

// openReceivables lists credit sales unsettled and unrefunded as of asOf,
// optionally restricted to one customer.
func (r *Reporter) openReceivables(asOf time.Time, customerID string) []AgingDetail {
	limit := EndOfDay(asOf)
	gaps := r.gapped(ledger.EventSale)
	refunds := r.refundDates()
	names := make(map[string]string, len(r.book.Customers))
	for _, c := range r.book.Customers {
		names[c.ID] = c.Name
	}

	var out []AgingDetail
	for _, t := range r.book.Sells {
		if t.IsRefund || gaps[t.ID] || t.Date.After(limit) {
			continue
		}
		if customerID != "" && t.CustomerID != customerID {
			continue
		}
		amt := t.CreditAmount()
		if !amt.IsPositive() {
			continue
		}
		if t.SettledDate != nil && !t.SettledDate.After(limit) {
			continue
		}
		if rd, ok := refunds[t.ID]; ok && !rd.After(limit) {
			continue
		}
		due := t.Date.Add(DefaultTerms)
		if t.DueDate != nil {
			due = *t.DueDate
		}
		party := names[t.CustomerID]
		if party == "" {
			party = t.CustomerID
		}
		out = append(out, AgingDetail{ID: t.ID, Party: party, Date: t.Date, DueDate: due, Amount: amt})
	}
	sortDetails(out)
	return out
}

func (r *Reporter) openPayables(asOf time.Time) []AgingDetail {
	limit := EndOfDay(asOf)
	gaps := r.gapped(ledger.EventPurchase)
	vendors := make(map[string]string, len(r.book.Vendors))
	for _, v := range r.book.Vendors {
		vendors[v.ID] = v.Name
	}

	var out []AgingDetail
	for _, s := range r.book.ShoppingItems {
		if s.Status != ledger.PurchaseBought || gaps[s.ID] || s.PurchaseDate.After(limit) || !s.PaidPrice.IsPositive() {
			continue
		}
		open := s.PaymentStatus == ledger.PaymentUnpaid
		if s.PaymentStatus == ledger.PaymentPaid && s.PaidDate != nil && s.PaidDate.After(limit) {
			open = true
		}
		if !open {
			continue
		}
		due := s.PurchaseDate.Add(DefaultTerms)
		if s.DueDate != nil {
			due = *s.DueDate
		}
		party := vendors[s.VendorID]
		if party == "" {
			party = s.Name
		}
		out = append(out, AgingDetail{ID: s.ID, Party: party, Date: s.PurchaseDate, DueDate: due, Amount: s.PaidPrice})
	}
	sortDetails(out)
	return out
}

func sortDetails(d []AgingDetail) {
	sort.SliceStable(d, func(i, j int) bool {
		if !d[i].DueDate.Equal(d[j].DueDate) {
			return d[i].DueDate.Before(d[j].DueDate)
		}
		return d[i].ID < d[j].ID
	})
}

// daysBetween counts calendar days from b to a.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(da.Sub(db).Hours() / 24)
}
