package reports

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonvc/cafeledger/internal/ledger"
)

func day(n int) time.Time {
	return time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func amt(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func newBook(t *testing.T) *ledger.Book {
	t.Helper()
	r := ledger.NewRegistry(nil).WithClock(func() time.Time { return day(0) })
	r.InitializeDefaultAccounts()
	return &ledger.Book{Accounts: r.All()}
}

func setAccount(t *testing.T, b *ledger.Book, code string, fn func(a *ledger.Account)) {
	t.Helper()
	for i := range b.Accounts {
		if b.Accounts[i].Code == code {
			fn(&b.Accounts[i])
			return
		}
	}
	t.Fatalf("no account %s", code)
}

func idOf(t *testing.T, b *ledger.Book, code string) string {
	t.Helper()
	for _, a := range b.Accounts {
		if a.Code == code {
			return a.ID
		}
	}
	t.Fatalf("no account %s", code)
	return ""
}

func bought(id, category string, price int64, date time.Time, status ledger.PaymentStatus) ledger.ShoppingItem {
	return ledger.ShoppingItem{
		ID: id, Name: id, Category: category, Quantity: amt(1), PaidPrice: amt(price),
		Status: ledger.PurchaseBought, PaymentStatus: status, PurchaseDate: date,
	}
}

func cashSale(id string, total int64, date time.Time, lines ...ledger.SellItem) ledger.SellTransaction {
	return ledger.SellTransaction{ID: id, Date: date, Items: lines, TotalAmount: amt(total), PaymentMethod: ledger.MethodCash}
}

func item(id string, qty, price int64) ledger.SellItem {
	return ledger.SellItem{ItemID: id, Name: id, Quantity: amt(qty), UnitPrice: amt(price)}
}

func assertAmount(t *testing.T, want int64, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, got.Equal(amt(want)), append([]any{"want %d got %s", want, got}, msgAndArgs...)...)
}

// busyBook exercises every derivation rule.
func busyBook(t *testing.T) *ledger.Book {
	t.Helper()
	b := newBook(t)
	setAccount(t, b, "1010", func(a *ledger.Account) { a.OpeningBalance = amt(5_000_000) })
	setAccount(t, b, "2600", func(a *ledger.Account) { a.OpeningBalance = amt(2_000_000) })
	setAccount(t, b, "3010", func(a *ledger.Account) { a.OpeningBalance = amt(3_000_000) })

	b.Items = []ledger.Item{
		{ID: "beans", Name: "Beans", UnitPrice: decimal.RequireFromString("1250.5")},
		{ID: "milk", Name: "Milk", UnitPrice: amt(40)},
		{ID: "water", Name: "Water", TaxExempt: true},
	}
	b.Recipes = []ledger.Recipe{
		{ID: "r1", ItemID: "latte", Ingredients: []ledger.Ingredient{{ItemID: "beans", Quantity: amt(18)}, {ItemID: "milk", Quantity: amt(180)}}},
		{ID: "r2", ItemID: "espresso", Ingredients: []ledger.Ingredient{{ItemID: "beans", Quantity: amt(9)}}},
	}
	b.TaxRates = []ledger.TaxRate{{ID: "vat", Name: "VAT", Rate: amt(9)}}
	b.TaxSettings = ledger.TaxSettings{Enabled: true, DefaultTaxRateID: "vat", PricesIncludeTax: true}
	b.Customers = []ledger.Customer{{ID: "c1", Name: "Reza"}}
	b.Vendors = []ledger.Vendor{{ID: "v1", Name: "Roastery"}}

	paidLater := day(20)
	beans := bought("beans-1", ledger.CategoryIngredients, 1_800_000, day(1), ledger.PaymentPaid)
	beans.PaidDate = &paidLater
	beans.VendorID = "v1"
	b.ShoppingItems = []ledger.ShoppingItem{
		beans,
		bought("grinder", ledger.CategoryEquipment, 2_500_000, day(2), ledger.PaymentPaid),
		bought("rent-mar", ledger.CategoryRent, 4_000_000, day(3), ledger.PaymentUnpaid),
		bought("cups", ledger.CategorySupplies, 123_457, day(4), ledger.PaymentPaid),
	}

	credit := ledger.SellTransaction{ID: "s3", Date: day(6), Items: []ledger.SellItem{item("latte", 4, 65_000)},
		TotalAmount: amt(260_000), PaymentMethod: ledger.MethodCredit, CustomerID: "c1"}
	settled := day(12)
	split := ledger.SellTransaction{ID: "s4", Date: day(7), Items: []ledger.SellItem{item("espresso", 3, 45_000), item("water", 1, 15_000)},
		TotalAmount: amt(140_000), DiscountAmount: amt(10_000), CustomerID: "c1", SettledDate: &settled,
		SplitPayments: []ledger.SplitPayment{{Method: ledger.MethodCard, Amount: amt(100_000)}, {Method: ledger.MethodCredit, Amount: amt(40_000)}}}
	b.Sells = []ledger.SellTransaction{
		cashSale("s1", 65_000, day(5), item("latte", 1, 65_000)),
		cashSale("s2", 90_000, day(5), item("espresso", 2, 45_000)),
		credit,
		split,
		{ID: "r1", Date: day(8), IsRefund: true, OriginalTransactionID: "s2"},
	}
	return b
}

func TestTrialBalanceAfterCashPurchase(t *testing.T) {
	b := newBook(t)
	b.ShoppingItems = []ledger.ShoppingItem{bought("p1", ledger.CategoryIngredients, 100_000, day(1), ledger.PaymentPaid)}

	tb := New(b, ledger.DefaultRoles()).TrialBalance(day(1))
	require.True(t, tb.Balanced)
	assert.Zero(t, tb.SkippedEvents)

	inv, ok := tb.Line("1300")
	require.True(t, ok)
	assertAmount(t, 100_000, inv.Debit)
	assertAmount(t, 0, inv.Credit)

	cash, ok := tb.Line("1010")
	require.True(t, ok)
	assertAmount(t, 100_000, cash.Credit)
	assertAmount(t, -100_000, cash.Balance)

	before := New(b, ledger.DefaultRoles()).TrialBalance(day(0))
	inv, _ = before.Line("1300")
	assert.True(t, inv.Debit.IsZero(), "postings after asOf are excluded")
}

func TestTrialBalanceInactiveAccounts(t *testing.T) {
	b := newBook(t)
	b.ShoppingItems = []ledger.ShoppingItem{bought("p1", ledger.CategoryIngredients, 100_000, day(1), ledger.PaymentPaid)}
	setAccount(t, b, "1300", func(a *ledger.Account) { a.IsActive = false })
	setAccount(t, b, "6030", func(a *ledger.Account) { a.IsActive = false })

	tb := New(b, ledger.DefaultRoles()).TrialBalance(day(5))
	inv, ok := tb.Line("1300")
	require.True(t, ok, "inactive accounts with activity stay in the trial balance")
	assert.False(t, inv.IsActive)
	_, ok = tb.Line("6030")
	assert.False(t, ok)
	assert.True(t, tb.Balanced)
}

func TestIncomeStatementGrossMargin(t *testing.T) {
	b := newBook(t)
	b.Items = []ledger.Item{{ID: "beans", Name: "Beans", UnitPrice: amt(1_000)}}
	b.Recipes = []ledger.Recipe{{ID: "r1", ItemID: "latte", Ingredients: []ledger.Ingredient{{ItemID: "beans", Quantity: amt(20)}}}}
	b.Sells = []ledger.SellTransaction{cashSale("s1", 50_000, day(1), item("latte", 1, 50_000))}

	is := New(b, ledger.DefaultRoles()).IncomeStatement(day(0), day(30))
	assertAmount(t, 50_000, is.Revenue.Total)
	assertAmount(t, 20_000, is.COGS.Total)
	assertAmount(t, 30_000, is.GrossProfit)
	assertAmount(t, 60, is.GrossMargin)
	assertAmount(t, 30_000, is.NetIncome)
	assertAmount(t, 60, is.NetMargin)

	empty := New(b, ledger.DefaultRoles()).IncomeStatement(day(2), day(3))
	assert.True(t, empty.Revenue.Total.IsZero())
	assert.True(t, empty.GrossMargin.IsZero(), "margin is 0 without revenue")
	assert.Empty(t, empty.Revenue.Lines)
}

func TestIncomeStatementDiscountReducesRevenue(t *testing.T) {
	b := newBook(t)
	s := cashSale("s1", 40_000, day(1), item("cake", 1, 50_000))
	s.DiscountAmount = amt(10_000)
	b.Sells = []ledger.SellTransaction{s}

	is := New(b, ledger.DefaultRoles()).IncomeStatement(day(0), day(1))
	assertAmount(t, 40_000, is.Revenue.Total)
	require.Len(t, is.Revenue.Lines, 2)
}

func TestAgingReceivableBuckets(t *testing.T) {
	b := newBook(t)
	due := day(0)
	b.Customers = []ledger.Customer{{ID: "c1", Name: "Mina"}}
	b.Sells = []ledger.SellTransaction{{
		ID: "s1", Date: day(-10), Items: []ledger.SellItem{item("cake", 1, 10_000)}, TotalAmount: amt(10_000),
		PaymentMethod: ledger.MethodCredit, CustomerID: "c1", DueDate: &due,
	}}

	rep, err := New(b, ledger.DefaultRoles()).AgingReport(AgingReceivable, day(45))
	require.NoError(t, err)
	assertAmount(t, 10_000, rep.Buckets.Days31to60.Amount)
	assert.Equal(t, 1, rep.Buckets.Days31to60.Count)
	for _, other := range []Bucket{rep.Buckets.Current, rep.Buckets.Days61to90, rep.Buckets.Over90} {
		assert.True(t, other.Amount.IsZero())
		assert.Zero(t, other.Count)
	}
	require.Len(t, rep.Details, 1)
	assert.Equal(t, 45, rep.Details[0].DaysOverdue)
	assert.Equal(t, "Mina", rep.Details[0].Party)
	assert.Equal(t, Bucket31to60, rep.Details[0].Bucket)
}

func TestAgingReceivableDefaultsAndClosedInvoices(t *testing.T) {
	b := newBook(t)
	settled := day(3)
	open := ledger.SellTransaction{ID: "open", Date: day(0), Items: []ledger.SellItem{item("cake", 1, 10_000)},
		TotalAmount: amt(10_000), PaymentMethod: ledger.MethodCredit, CustomerID: "c1"}
	paid := open
	paid.ID, paid.SettledDate = "paid", &settled
	refunded := open
	refunded.ID = "refunded"
	b.Sells = []ledger.SellTransaction{open, paid, refunded,
		{ID: "r1", Date: day(2), IsRefund: true, OriginalTransactionID: "refunded"}}

	rep, err := New(b, ledger.DefaultRoles()).AgingReport(AgingReceivable, day(29))
	require.NoError(t, err)
	require.Len(t, rep.Details, 1)
	assert.Equal(t, "open", rep.Details[0].ID)
	assert.True(t, day(30).Equal(rep.Details[0].DueDate), "due date defaults to 30 days")
	assert.Equal(t, BucketCurrent, rep.Details[0].Bucket)

	// Before settlement the settled invoice is still open.
	rep, err = New(b, ledger.DefaultRoles()).AgingReport(AgingReceivable, day(1))
	require.NoError(t, err)
	assert.Len(t, rep.Details, 3)
}

func TestAgingPayable(t *testing.T) {
	b := newBook(t)
	b.Vendors = []ledger.Vendor{{ID: "v1", Name: "Dairy Co"}}
	unpaid := bought("milk", ledger.CategoryIngredients, 70_000, day(0), ledger.PaymentUnpaid)
	unpaid.VendorID = "v1"
	paidLater := day(50)
	later := bought("beans", ledger.CategoryIngredients, 30_000, day(0), ledger.PaymentPaid)
	later.PaidDate = &paidLater
	b.ShoppingItems = []ledger.ShoppingItem{unpaid, later, bought("cash", ledger.CategorySupplies, 5_000, day(0), ledger.PaymentPaid)}

	rep, err := New(b, ledger.DefaultRoles()).AgingReport(AgingPayable, day(100))
	require.NoError(t, err)
	require.Len(t, rep.Details, 1)
	assert.Equal(t, "Dairy Co", rep.Details[0].Party)
	assertAmount(t, 70_000, rep.Buckets.Days61to90.Amount)

	rep, err = New(b, ledger.DefaultRoles()).AgingReport(AgingPayable, day(40))
	require.NoError(t, err)
	assertAmount(t, 100_000, rep.Total)

	_, err = New(b, ledger.DefaultRoles()).AgingReport("overdue", day(1))
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestGeneralLedger(t *testing.T) {
	b := newBook(t)
	b.ShoppingItems = []ledger.ShoppingItem{
		bought("p1", ledger.CategoryIngredients, 100, day(1), ledger.PaymentPaid),
		bought("p2", ledger.CategoryIngredients, 100, day(3), ledger.PaymentPaid),
		bought("p3", ledger.CategoryIngredients, 100, day(5), ledger.PaymentPaid),
	}
	rep := New(b, ledger.DefaultRoles())
	cashID := idOf(t, b, "1010")

	start, end := day(2), day(4)
	gl, err := rep.GeneralLedger(LedgerQuery{AccountID: cashID, Start: &start, End: &end})
	require.NoError(t, err)
	require.Len(t, gl.Accounts, 1)
	al := gl.Accounts[0]
	assertAmount(t, -100, al.OpeningBalance)
	require.Len(t, al.Lines, 1)
	assertAmount(t, -200, al.Lines[0].Balance)
	assertAmount(t, -200, al.ClosingBalance)
	assertAmount(t, 100, al.TotalCredit)

	all, err := rep.GeneralLedger(LedgerQuery{})
	require.NoError(t, err)
	require.Len(t, all.Accounts, 2, "only accounts with activity")
	assert.Equal(t, "1010", all.Accounts[0].Account.Code)
	assert.Len(t, all.Accounts[0].Lines, 3)
	for i := 1; i < len(all.Accounts[0].Lines); i++ {
		assert.False(t, all.Accounts[0].Lines[i].Date.Before(all.Accounts[0].Lines[i-1].Date))
	}

	_, err = rep.GeneralLedger(LedgerQuery{AccountID: "nope"})
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestCashFlowStatement(t *testing.T) {
	b := newBook(t)
	setAccount(t, b, "1010", func(a *ledger.Account) { a.OpeningBalance = amt(1_000_000) })
	b.ShoppingItems = []ledger.ShoppingItem{bought("grinder", ledger.CategoryEquipment, 400_000, day(2), ledger.PaymentPaid)}
	b.Sells = []ledger.SellTransaction{cashSale("s1", 50_000, day(3), item("cake", 1, 50_000))}

	cf := New(b, ledger.DefaultRoles()).CashFlowStatement(day(1), day(10))
	assertAmount(t, 1_000_000, cf.BeginningCash)
	assertAmount(t, 50_000, cf.NetIncome)
	assertAmount(t, 50_000, cf.Operating.Total)
	assertAmount(t, -400_000, cf.Investing.Total)
	assertAmount(t, 0, cf.Financing.Total)
	assertAmount(t, -350_000, cf.NetCashFlow)
	assertAmount(t, 650_000, cf.EndingCash)
	assert.True(t, cf.Reconciled)

	withOpening := New(b, ledger.DefaultRoles()).CashFlowStatement(day(0), day(10))
	assertAmount(t, 1_000_000, withOpening.Financing.Total, "opening equity is financing")
	assert.True(t, withOpening.BeginningCash.IsZero())
	assert.True(t, withOpening.Reconciled)
}

func TestTaxReport(t *testing.T) {
	b := newBook(t)
	b.TaxRates = []ledger.TaxRate{{ID: "vat", Name: "VAT", Rate: amt(10)}}
	b.TaxSettings = ledger.TaxSettings{Enabled: true, DefaultTaxRateID: "vat"}
	exempt := item("water", 1, 20_000)
	exempt.TaxExempt = true
	b.Sells = []ledger.SellTransaction{
		cashSale("s1", 130_000, day(1), item("cake", 1, 100_000), exempt),
		cashSale("s2", 55_000, day(2), item("latte", 1, 50_000)),
		{ID: "r1", Date: day(3), IsRefund: true, OriginalTransactionID: "s2"},
	}
	rep := New(b, ledger.DefaultRoles())

	tr := rep.TaxReport(day(0), day(10))
	assertAmount(t, 100_000, tr.TaxableAmount)
	assertAmount(t, 20_000, tr.NonTaxableAmount)
	assertAmount(t, 10_000, tr.TaxCollected)
	require.Len(t, tr.Details, 3)
	assert.True(t, tr.Details[2].IsRefund)
	assertAmount(t, -5_000, tr.Details[2].Tax)

	early := rep.TaxReport(day(0), day(2))
	assertAmount(t, 15_000, early.TaxCollected)

	tb := rep.TrialBalance(day(10))
	payable, _ := tb.Line("2100")
	assert.True(t, payable.Credit.Equal(tr.TaxCollected), "tax report agrees with the ledger")
}

func TestReconcile(t *testing.T) {
	b := newBook(t)
	b.Customers = []ledger.Customer{{ID: "c1", Name: "Reza", Balance: amt(30_000)}}
	b.ShoppingItems = []ledger.ShoppingItem{bought("p1", ledger.CategoryIngredients, 100_000, day(1), ledger.PaymentPaid)}
	b.Sells = []ledger.SellTransaction{{ID: "s1", Date: day(2), Items: []ledger.SellItem{item("cake", 1, 30_000)},
		TotalAmount: amt(30_000), PaymentMethod: ledger.MethodCredit, CustomerID: "c1"}}

	rep := New(b, ledger.DefaultRoles())
	rec := rep.Reconcile(day(5))
	assert.False(t, rec.Consistent)
	assert.Equal(t, 4, rec.Mismatches, "cash, receivable, inventory and revenue")
	require.Len(t, rec.Customers, 1)
	assert.True(t, rec.Customers[0].Consistent)

	reg := ledger.NewRegistry(b.Accounts)
	fixed := *b
	fixed.Accounts = reg.ApplyBalances(rep.ClosingBalances())
	rec = New(&fixed, ledger.DefaultRoles()).Reconcile(day(5))
	assert.True(t, rec.Consistent)
	assert.True(t, b.Accounts[0].Balance.IsZero(), "input book is not mutated")

	fixed.Customers = []ledger.Customer{{ID: "c1", Name: "Reza"}}
	rec = New(&fixed, ledger.DefaultRoles()).Reconcile(day(5))
	assert.False(t, rec.Consistent)
	assertAmount(t, -30_000, rec.Customers[0].Difference)
}

func TestReportInvariants(t *testing.T) {
	b := busyBook(t)
	rep := New(b, ledger.DefaultRoles())
	require.Zero(t, rep.Journal().SkippedEvents(), "gaps: %v", rep.Journal().Gaps)

	for n := -1; n <= 30; n++ {
		tb := rep.TrialBalance(day(n))
		assert.True(t, tb.Balanced, "trial balance day %d: %s vs %s", n, tb.TotalDebit, tb.TotalCredit)

		bs := rep.BalanceSheet(day(n))
		assert.True(t, bs.Balanced, "balance sheet day %d: %s vs %s + %s", n, bs.TotalAssets, bs.TotalLiabilities, bs.TotalEquity)
	}

	for _, period := range [][2]int{{0, 0}, {1, 5}, {5, 8}, {0, 30}, {9, 30}} {
		cf := rep.CashFlowStatement(day(period[0]), day(period[1]))
		assert.True(t, cf.Reconciled, "cash flow %v", period)
	}

	assert.Equal(t, rep.IncomeStatement(day(0), day(30)), rep.IncomeStatement(day(0), day(30)))
	assert.Equal(t, rep.BalanceSheet(day(30)), New(b, ledger.DefaultRoles()).BalanceSheet(day(30)))
	assert.Equal(t, rep.CashFlowStatement(day(0), day(30)), rep.CashFlowStatement(day(0), day(30)))
}

func TestBalanceSheetClassification(t *testing.T) {
	rep := New(busyBook(t), ledger.DefaultRoles())
	bs := rep.BalanceSheet(day(30))

	codes := func(s Section) []string {
		var out []string
		for _, l := range s.Lines {
			out = append(out, l.Code)
		}
		return out
	}
	assert.Contains(t, codes(bs.CurrentAssets), "1010")
	assert.Equal(t, []string{"1600"}, codes(bs.NonCurrentAssets))
	assert.Contains(t, codes(bs.CurrentLiabilities), "2010")
	assert.Equal(t, []string{"2600"}, codes(bs.NonCurrentLiabilities))

	last := bs.Equity.Lines[len(bs.Equity.Lines)-1]
	assert.Equal(t, CurrentEarningsName, last.Name)
	assert.True(t, last.Balance.Equal(bs.CurrentEarnings))
	assert.True(t, bs.CurrentEarnings.Equal(rep.IncomeStatement(day(-1), day(30)).NetIncome))
}

func TestRefundNetsToZeroInReports(t *testing.T) {
	b := newBook(t)
	b.Items = []ledger.Item{{ID: "beans", Name: "Beans", UnitPrice: amt(500)}}
	b.Recipes = []ledger.Recipe{{ID: "r1", ItemID: "latte", Ingredients: []ledger.Ingredient{{ItemID: "beans", Quantity: amt(18)}}}}
	b.Sells = []ledger.SellTransaction{
		cashSale("s1", 60_000, day(1), item("latte", 1, 60_000)),
		{ID: "r1", Date: day(2), IsRefund: true, OriginalTransactionID: "s1"},
	}

	tb := New(b, ledger.DefaultRoles()).TrialBalance(day(2))
	for _, l := range tb.Lines {
		assert.True(t, l.Balance.IsZero(), "%s nets to %s", l.Code, l.Balance)
	}
}

func TestRefundOfUnsettledCreditSale(t *testing.T) {
	b := newBook(t)
	b.Customers = []ledger.Customer{{ID: "c1", Name: "Reza"}}
	b.Sells = []ledger.SellTransaction{
		{ID: "s1", Date: day(1), Items: []ledger.SellItem{item("cake", 2, 25_000)},
			TotalAmount: amt(50_000), PaymentMethod: ledger.MethodCredit, CustomerID: "c1"},
		{ID: "r1", Date: day(4), IsRefund: true, OriginalTransactionID: "s1"},
	}

	rep := New(b, ledger.DefaultRoles())
	require.Empty(t, rep.Journal().Gaps)

	tb := rep.TrialBalance(day(4))
	assert.True(t, tb.Balanced)
	ar, ok := tb.Line("1100")
	require.True(t, ok)
	assert.True(t, ar.Balance.IsZero(), "receivable nets to %s", ar.Balance)

	aging, err := rep.AgingReport(AgingReceivable, day(4))
	require.NoError(t, err)
	assert.Empty(t, aging.Details)

	fixed := *b
	fixed.Accounts = ledger.NewRegistry(b.Accounts).ApplyBalances(rep.ClosingBalances())
	rec := New(&fixed, ledger.DefaultRoles()).Reconcile(day(4))
	assert.True(t, rec.Consistent, "mismatches: %d", rec.Mismatches)
}

func TestRefundDatedBeforeSettlementSurfacesAGap(t *testing.T) {
	b := newBook(t)
	b.Customers = []ledger.Customer{{ID: "c1", Name: "Reza"}}
	settled := day(5)
	b.Sells = []ledger.SellTransaction{
		{ID: "s1", Date: day(1), Items: []ledger.SellItem{item("cake", 1, 30_000)},
			TotalAmount: amt(30_000), PaymentMethod: ledger.MethodCredit, CustomerID: "c1", SettledDate: &settled},
		{ID: "r1", Date: day(3), IsRefund: true, OriginalTransactionID: "s1"},
	}

	rep := New(b, ledger.DefaultRoles())
	require.Len(t, rep.Journal().Gaps, 1)
	assert.Equal(t, ledger.EventRefund, rep.Journal().Gaps[0].Kind)
	assert.Equal(t, 1, rep.Reconcile(day(5)).SkippedEvents)
	for n := 0; n <= 6; n++ {
		assert.True(t, rep.TrialBalance(day(n)).Balanced, "day %d", n)
	}
}

type fakeSource struct {
	book    *ledger.Book
	version int64
	loads   int
}

func (f *fakeSource) Book(context.Context) (*ledger.Book, error) {
	f.loads++
	return f.book, nil
}

func (f *fakeSource) Version(context.Context) (int64, error) { return f.version, nil }

func TestServiceCachesByVersion(t *testing.T) {
	src := &fakeSource{book: newBook(t), version: 1}
	svc := NewService(src, ledger.DefaultRoles(), time.Minute)
	ctx := context.Background()

	first, err := svc.Reporter(ctx)
	require.NoError(t, err)
	second, err := svc.Reporter(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, src.loads)

	src.version = 2
	third, err := svc.Reporter(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, src.loads)

	svc.Invalidate()
	_, err = svc.Reporter(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, src.loads)
}

func TestServiceWithoutCache(t *testing.T) {
	src := &fakeSource{book: newBook(t), version: 1}
	svc := NewService(src, ledger.DefaultRoles(), time.Minute).WithoutCache()
	ctx := context.Background()

	first, err := svc.Reporter(ctx)
	require.NoError(t, err)
	second, err := svc.Reporter(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, 2, src.loads)
	svc.Invalidate()
}
