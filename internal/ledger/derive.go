package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Index holds lookup maps over a Book. Derivation and reports share it.
type Index struct {
	Items    map[string]Item
	Recipes  map[string]Recipe // by menu item ID
	Rates    map[string]TaxRate
	Sells    map[string]SellTransaction
	Accounts map[string]Account
}

func NewIndex(b *Book) *Index {
	ix := &Index{
		Items:    make(map[string]Item, len(b.Items)),
		Recipes:  make(map[string]Recipe, len(b.Recipes)),
		Rates:    make(map[string]TaxRate, len(b.TaxRates)),
		Sells:    make(map[string]SellTransaction, len(b.Sells)),
		Accounts: make(map[string]Account, len(b.Accounts)),
	}
	for _, it := range b.Items {
		ix.Items[it.ID] = it
	}
	for _, r := range b.Recipes {
		ix.Recipes[r.ItemID] = r
	}
	for _, r := range b.TaxRates {
		ix.Rates[r.ID] = r
	}
	for _, s := range b.Sells {
		ix.Sells[s.ID] = s
	}
	for _, a := range b.Accounts {
		ix.Accounts[a.ID] = a
	}
	return ix
}

// RecipeCost returns the ingredient cost of one unit of a recipe. Ingredient
// unit cost wins over the item master unit price.
func (ix *Index) RecipeCost(r Recipe) (decimal.Decimal, error) {
	cost := decimal.Zero
	for _, ing := range r.Ingredients {
		var unit decimal.Decimal
		switch {
		case ing.UnitCost != nil:
			unit = *ing.UnitCost
		default:
			it, ok := ix.Items[ing.ItemID]
			if !ok {
				return decimal.Zero, fmt.Errorf("recipe %s: %w: %s", r.Name, ErrItemNotFound, ing.ItemID)
			}
			unit = it.UnitPrice
		}
		cost = cost.Add(unit.Mul(ing.Quantity))
	}
	return cost, nil
}

// Derive maps every source event in the book to a balanced journal entry.
// The result depends only on the book and roles.
func Derive(b *Book, roles AccountRoles) *Journal {
	d := &deriver{book: b, roles: roles, ix: NewIndex(b), journal: &Journal{}}

	d.openingBalances()
	d.purchases()

	sales, refunds := splitSells(b.Sells)
	bySale := make(map[string][]JournalEntry)
	for _, t := range sales {
		bySale[t.ID] = d.sale(t)
	}
	refunded := make(map[string]string)
	for _, t := range refunds {
		d.refund(t, bySale, refunded)
	}

	sort.SliceStable(d.journal.Entries, func(i, j int) bool {
		return d.journal.Entries[i].Date.Before(d.journal.Entries[j].Date)
	})
	return d.journal
}

type deriver struct {
	book    *Book
	roles   AccountRoles
	ix      *Index
	journal *Journal
}

func splitSells(sells []SellTransaction) (sales, refunds []SellTransaction) {
	sorted := make([]SellTransaction, len(sells))
	copy(sorted, sells)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].ID < sorted[j].ID
	})
	for _, t := range sorted {
		if t.IsRefund {
			refunds = append(refunds, t)
		} else {
			sales = append(sales, t)
		}
	}
	return sales, refunds
}

func (d *deriver) gap(kind EventKind, id string, format string, args ...any) {
	d.journal.Gaps = append(d.journal.Gaps, DerivationGap{Kind: kind, EventID: id, Reason: fmt.Sprintf(format, args...)})
}

// entryBuilder accumulates postings and remembers the first mapping error.
type entryBuilder struct {
	d     *deriver
	entry JournalEntry
	err   error
}

func (d *deriver) newEntry(kind EventKind, eventID string, date time.Time, desc, ref string) *entryBuilder {
	return &entryBuilder{
		d: d,
		entry: JournalEntry{
			ID:          string(kind) + ":" + eventID,
			Kind:        kind,
			EventID:     eventID,
			Date:        date,
			Description: desc,
			Reference:   ref,
		},
	}
}

func (b *entryBuilder) post(role, code string, debit, credit decimal.Decimal, desc string) {
	if b.err != nil {
		return
	}
	if debit.IsZero() && credit.IsZero() {
		return
	}
	if debit.IsNegative() || credit.IsNegative() {
		b.err = fmt.Errorf("negative %s amount", role)
		return
	}
	if code == "" {
		b.err = fmt.Errorf("no account mapped for %s", role)
		return
	}
	acct, ok := lookupCode(b.d.book.Accounts, code)
	if !ok {
		b.err = fmt.Errorf("no account with code %s for %s", code, role)
		return
	}
	if desc == "" {
		desc = b.entry.Description
	}
	b.entry.Postings = append(b.entry.Postings, Posting{
		EntryID:     b.entry.ID,
		Date:        b.entry.Date,
		AccountID:   acct.ID,
		Debit:       debit,
		Credit:      credit,
		Description: desc,
		Reference:   b.entry.Reference,
	})
}

func (b *entryBuilder) debit(role, code string, amt decimal.Decimal) {
	b.post(role, code, amt, decimal.Zero, "")
}

func (b *entryBuilder) credit(role, code string, amt decimal.Decimal) {
	b.post(role, code, decimal.Zero, amt, "")
}

// commit validates the entry and appends it, or records a gap.
func (b *entryBuilder) commit() (JournalEntry, bool) {
	if b.err == nil {
		b.err = b.entry.Validate()
	}
	if b.err != nil {
		b.d.gap(b.entry.Kind, b.entry.EventID, "%v", b.err)
		return JournalEntry{}, false
	}
	b.d.journal.Entries = append(b.d.journal.Entries, b.entry)
	return b.entry, true
}

func (d *deriver) openingBalances() {
	accts := make([]Account, len(d.book.Accounts))
	copy(accts, d.book.Accounts)
	sortAccounts(accts)

	for _, a := range accts {
		if a.OpeningBalance.IsZero() {
			continue
		}
		if a.Code == d.roles.OpeningEquity {
			d.gap(EventOpeningBalance, a.ID, "opening balance %s on the opening balance equity account has no offset", a.OpeningBalance)
			continue
		}
		b := d.newEntry(EventOpeningBalance, a.ID, a.CreatedAt, "Opening balance: "+a.Name, a.Code)
		amt := a.OpeningBalance.Abs()
		onDebit := DebitNormal(a.Type) == a.OpeningBalance.IsPositive()
		if onDebit {
			b.debit(a.Code, a.Code, amt)
			b.credit("opening balance equity", d.roles.OpeningEquity, amt)
		} else {
			b.debit("opening balance equity", d.roles.OpeningEquity, amt)
			b.credit(a.Code, a.Code, amt)
		}
		b.commit()
	}
}

func (d *deriver) purchases() {
	items := make([]ShoppingItem, 0, len(d.book.ShoppingItems))
	for _, s := range d.book.ShoppingItems {
		if s.Status == PurchaseBought {
			items = append(items, s)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].PurchaseDate.Equal(items[j].PurchaseDate) {
			return items[i].PurchaseDate.Before(items[j].PurchaseDate)
		}
		return items[i].ID < items[j].ID
	})

	for _, s := range items {
		if s.PaidPrice.IsZero() {
			continue
		}
		if s.PaidPrice.IsNegative() {
			d.gap(EventPurchase, s.ID, "negative paid price %s", s.PaidPrice)
			continue
		}
		ref := s.VendorID
		if ref == "" {
			ref = s.ID
		}
		paidNow := s.PaymentStatus == PaymentPaid && (s.PaidDate == nil || sameDay(*s.PaidDate, s.PurchaseDate))

		b := d.newEntry(EventPurchase, s.ID, s.PurchaseDate, "Purchase: "+s.Name, ref)
		b.debit("purchase category "+s.Category, d.roles.PurchaseCode(s.Category), s.PaidPrice)
		if paidNow {
			b.credit("cash", d.roles.Cash, s.PaidPrice)
		} else {
			b.credit("accounts payable", d.roles.Payable, s.PaidPrice)
		}
		if _, ok := b.commit(); !ok || paidNow || s.PaymentStatus != PaymentPaid {
			continue
		}

		p := d.newEntry(EventPurchasePayment, s.ID, *s.PaidDate, "Payment: "+s.Name, ref)
		p.debit("accounts payable", d.roles.Payable, s.PaidPrice)
		p.credit("cash", d.roles.Cash, s.PaidPrice)
		p.commit()
	}
}

// MethodCode maps a payment method to the account code it settles into.
func (r AccountRoles) MethodCode(m PaymentMethod) (string, bool) {
	switch m {
	case MethodCash:
		return r.Cash, true
	case MethodCard, MethodTransfer:
		return r.Bank, true
	case MethodCredit:
		return r.Receivable, true
	default:
		return "", false
	}
}

// sale derives the sale entry, its COGS entry and its settlement entry.
func (d *deriver) sale(t SellTransaction) []JournalEntry {
	var out []JournalEntry

	b := d.newEntry(EventSale, t.ID, t.Date, "Sale "+t.ID, t.ID)
	payments := t.Payments()
	if len(t.SplitPayments) > 0 {
		sum := decimal.Zero
		for _, p := range payments {
			sum = sum.Add(p.Amount)
		}
		if !sum.Equal(t.TotalAmount) {
			b.err = fmt.Errorf("split payments sum to %s, total is %s", sum, t.TotalAmount)
		}
	}
	for _, p := range payments {
		code, ok := d.roles.MethodCode(p.Method)
		if !ok {
			b.err = fmt.Errorf("unknown payment method %q", p.Method)
			break
		}
		b.post(string(p.Method), code, p.Amount, decimal.Zero, fmt.Sprintf("Sale %s (%s)", t.ID, p.Method))
	}

	tax := decimal.Zero
	if lines, err := SaleTax(t, d.book.TaxSettings, d.ix.Rates, d.ix.Items); err != nil {
		if b.err == nil {
			b.err = err
		}
	} else {
		tax = TotalTax(lines)
	}

	revenue := t.TotalAmount.Add(t.DiscountAmount).Sub(tax)
	if revenue.IsNegative() && b.err == nil {
		b.err = fmt.Errorf("revenue would be negative (%s)", revenue)
	}
	b.debit("sales discount", d.roles.SalesDiscount, t.DiscountAmount)
	b.credit("sales revenue", d.roles.SalesRevenue, revenue)
	b.credit("tax payable", d.roles.TaxPayable, tax)

	entry, ok := b.commit()
	if !ok {
		return nil
	}
	out = append(out, entry)

	if cogs, ok := d.cogs(t); ok {
		out = append(out, cogs)
	}

	credit := t.CreditAmount()
	if t.SettledDate != nil && credit.IsPositive() {
		s := d.newEntry(EventSaleSettlement, t.ID, *t.SettledDate, "Settlement of sale "+t.ID, t.CustomerID)
		s.debit("cash", d.roles.Cash, credit)
		s.credit("accounts receivable", d.roles.Receivable, credit)
		if e, ok := s.commit(); ok {
			out = append(out, e)
		}
	}
	return out
}

func (d *deriver) cogs(t SellTransaction) (JournalEntry, bool) {
	b := d.newEntry(EventCOGS, t.ID, t.Date, "Cost of sale "+t.ID, t.ID)
	total := decimal.Zero
	for _, line := range t.Items {
		var unit decimal.Decimal
		switch {
		case line.UnitCost != nil:
			unit = *line.UnitCost
		default:
			r, ok := d.ix.Recipes[line.ItemID]
			if !ok {
				continue
			}
			cost, err := d.ix.RecipeCost(r)
			if err != nil {
				b.err = err
				continue
			}
			unit = cost
		}
		total = total.Add(unit.Mul(line.Quantity))
	}
	total = RoundAmount(total)
	if b.err == nil && total.IsZero() {
		return JournalEntry{}, false
	}
	b.debit("cost of goods sold", d.roles.COGS, total)
	b.credit("inventory", d.roles.Inventory, total)
	return b.commit()
}

// refund mirrors every entry derived from the original sale with debit and
// credit swapped, dated at the refund.
func (d *deriver) refund(t SellTransaction, bySale map[string][]JournalEntry, refunded map[string]string) {
	orig, ok := d.ix.Sells[t.OriginalTransactionID]
	if !ok || orig.IsRefund {
		d.gap(EventRefund, t.ID, "original transaction %q not found", t.OriginalTransactionID)
		return
	}
	if prev, ok := refunded[orig.ID]; ok {
		d.gap(EventRefund, t.ID, "transaction %s already refunded by %s", orig.ID, prev)
		return
	}
	entries := bySale[orig.ID]
	if len(entries) == 0 {
		d.gap(EventRefund, t.ID, "original transaction %s could not be derived", orig.ID)
		return
	}
	for _, src := range entries {
		if src.Date.After(t.Date) {
			d.gap(EventRefund, t.ID, "%s entry of %s is dated %s, after the refund", src.Kind, orig.ID, src.Date.Format(time.DateOnly))
			return
		}
	}
	refunded[orig.ID] = t.ID

	for _, src := range entries {
		mirror := JournalEntry{
			ID:          fmt.Sprintf("%s:%s:%s", EventRefund, t.ID, src.Kind),
			Kind:        EventRefund,
			EventID:     t.ID,
			Date:        t.Date,
			Description: "Refund of " + src.Description,
			Reference:   orig.ID,
		}
		for _, p := range src.Postings {
			mirror.Postings = append(mirror.Postings, Posting{
				EntryID:     mirror.ID,
				Date:        t.Date,
				AccountID:   p.AccountID,
				Debit:       p.Credit,
				Credit:      p.Debit,
				Description: "Refund: " + p.Description,
				Reference:   orig.ID,
			})
		}
		if err := mirror.Validate(); err != nil {
			d.gap(EventRefund, t.ID, "%v", err)
			continue
		}
		d.journal.Entries = append(d.journal.Entries, mirror)
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
