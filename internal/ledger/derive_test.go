package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func amt(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func testBook(t *testing.T) *Book {
	t.Helper()
	r := NewRegistry(nil).WithClock(func() time.Time { return day(0) })
	r.InitializeDefaultAccounts()
	return &Book{Accounts: r.All()}
}

func purchase(id, name, category string, price int64, date time.Time, status PaymentStatus) ShoppingItem {
	return ShoppingItem{
		ID:            id,
		Name:          name,
		Category:      category,
		Quantity:      amt(1),
		PaidPrice:     amt(price),
		Status:        PurchaseBought,
		PaymentStatus: status,
		PurchaseDate:  date,
	}
}

func sale(id string, total int64, method PaymentMethod, date time.Time, items ...SellItem) SellTransaction {
	return SellTransaction{ID: id, Date: date, Items: items, TotalAmount: amt(total), PaymentMethod: method}
}

func line(itemID string, qty, price int64) SellItem {
	return SellItem{ItemID: itemID, Name: itemID, Quantity: amt(qty), UnitPrice: amt(price)}
}

func accountID(t *testing.T, b *Book, code string) string {
	t.Helper()
	a, ok := lookupCode(b.Accounts, code)
	require.True(t, ok, "account %s", code)
	return a.ID
}

// net returns debit-credit per account over the given entries.
func net(entries []JournalEntry) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, e := range entries {
		for _, p := range e.Postings {
			out[p.AccountID] = out[p.AccountID].Add(p.Debit).Sub(p.Credit)
		}
	}
	return out
}

func assertAmount(t *testing.T, want int64, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, got.Equal(amt(want)), append([]any{"want %d got %s", want, got}, msgAndArgs...)...)
}

func TestDerivePurchasePaidInCash(t *testing.T) {
	b := testBook(t)
	b.ShoppingItems = []ShoppingItem{purchase("p1", "Coffee beans", CategoryIngredients, 100_000, day(1), PaymentPaid)}

	j := Derive(b, DefaultRoles())
	require.Empty(t, j.Gaps)
	require.Len(t, j.Entries, 1)

	e := j.Entries[0]
	assert.Equal(t, EventPurchase, e.Kind)
	n := net(j.Entries)
	assertAmount(t, 100_000, n[accountID(t, b, "1300")])
	assertAmount(t, -100_000, n[accountID(t, b, "1010")])
}

func TestDerivePurchaseCategories(t *testing.T) {
	b := testBook(t)
	b.ShoppingItems = []ShoppingItem{
		purchase("p1", "Grinder", CategoryEquipment, 9_000_000, day(1), PaymentPaid),
		purchase("p2", "Cups", CategorySupplies, 300_000, day(1), PaymentPaid),
		purchase("p3", "Mystery", "unlisted", 50_000, day(1), PaymentPaid),
		{ID: "p4", Name: "Milk", Category: CategoryIngredients, PaidPrice: amt(70_000), Status: PurchasePending, PaymentStatus: PaymentUnpaid},
	}

	j := Derive(b, DefaultRoles())
	require.Empty(t, j.Gaps)
	require.Len(t, j.Entries, 3, "pending items are not purchases")

	n := net(j.Entries)
	assertAmount(t, 9_000_000, n[accountID(t, b, "1600")])
	assertAmount(t, 300_000, n[accountID(t, b, "6010")])
	assertAmount(t, 50_000, n[accountID(t, b, "6090")])
}

func TestDerivePurchaseOnCreditThenPaid(t *testing.T) {
	b := testBook(t)
	p := purchase("p1", "Milk", CategoryIngredients, 200_000, day(1), PaymentPaid)
	paid := day(10)
	p.PaidDate = &paid
	unpaid := purchase("p2", "Syrup", CategoryIngredients, 80_000, day(2), PaymentUnpaid)
	b.ShoppingItems = []ShoppingItem{p, unpaid}

	j := Derive(b, DefaultRoles())
	require.Empty(t, j.Gaps)
	require.Len(t, j.Entries, 3)
	assert.Equal(t, EventPurchasePayment, j.Entries[2].Kind)
	assert.Equal(t, paid, j.Entries[2].Date)

	n := net(j.Entries)
	assertAmount(t, -80_000, n[accountID(t, b, "2010")], "only the unpaid purchase stays payable")
	assertAmount(t, -200_000, n[accountID(t, b, "1010")])
	assertAmount(t, 280_000, n[accountID(t, b, "1300")])
}

func TestDeriveSaleWithDiscountAndTax(t *testing.T) {
	b := testBook(t)
	b.TaxRates = []TaxRate{{ID: "vat", Name: "VAT", Rate: amt(10)}}
	b.TaxSettings = TaxSettings{Enabled: true, DefaultTaxRateID: "vat"}

	// Gross 60,000, discount 10,000, tax 6,000 on the gross lines.
	s := sale("s1", 56_000, MethodCash, day(1), line("latte", 2, 30_000))
	s.DiscountAmount = amt(10_000)
	b.Sells = []SellTransaction{s}

	j := Derive(b, DefaultRoles())
	require.Empty(t, j.Gaps)
	require.Len(t, j.Entries, 1)

	n := net(j.Entries)
	assertAmount(t, 56_000, n[accountID(t, b, "1010")])
	assertAmount(t, 10_000, n[accountID(t, b, "4900")])
	assertAmount(t, -6_000, n[accountID(t, b, "2100")])
	assertAmount(t, -60_000, n[accountID(t, b, "4010")])
}

func TestDeriveTaxInclusiveAndExempt(t *testing.T) {
	b := testBook(t)
	b.TaxRates = []TaxRate{{ID: "vat", Name: "VAT", Rate: amt(10)}, {ID: "low", Name: "Low", Rate: amt(5)}}
	b.TaxSettings = TaxSettings{Enabled: true, DefaultTaxRateID: "vat", PricesIncludeTax: true}
	b.Items = []Item{{ID: "bread", Name: "Bread", TaxExempt: true}}

	cake := line("cake", 1, 110_000)
	tea := line("tea", 1, 21_000)
	tea.TaxRateID = "low"
	b.Sells = []SellTransaction{sale("s1", 151_000, MethodCard, day(1), cake, tea, line("bread", 1, 20_000))}

	j := Derive(b, DefaultRoles())
	require.Empty(t, j.Gaps)

	n := net(j.Entries)
	assertAmount(t, -11_000, n[accountID(t, b, "2100")], "10,000 on cake and 1,000 on tea")
	assertAmount(t, -140_000, n[accountID(t, b, "4010")])
	assertAmount(t, 151_000, n[accountID(t, b, "1020")])
}

func TestDeriveSplitPayments(t *testing.T) {
	b := testBook(t)
	b.Customers = []Customer{{ID: "c1", Name: "Sara"}}
	s := sale("s1", 90_000, "", day(1), line("mocha", 3, 30_000))
	s.SplitPayments = []SplitPayment{
		{Method: MethodCash, Amount: amt(40_000)},
		{Method: MethodCard, Amount: amt(30_000)},
		{Method: MethodCredit, Amount: amt(20_000)},
	}
	s.CustomerID = "c1"
	settled := day(5)
	s.SettledDate = &settled
	b.Sells = []SellTransaction{s}

	j := Derive(b, DefaultRoles())
	require.Empty(t, j.Gaps)
	require.Len(t, j.Entries, 2)
	assert.Equal(t, EventSaleSettlement, j.Entries[1].Kind)

	n := net(j.Entries)
	assertAmount(t, 60_000, n[accountID(t, b, "1010")], "40,000 at sale plus 20,000 settled")
	assertAmount(t, 30_000, n[accountID(t, b, "1020")])
	assertAmount(t, 0, n[accountID(t, b, "1100")])
	assertAmount(t, -90_000, n[accountID(t, b, "4010")])
}

func TestDeriveGaps(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *Book)
		kind   EventKind
	}{
		{
			name: "split mismatch",
			mutate: func(b *Book) {
				s := sale("s1", 50_000, "", day(1), line("latte", 1, 50_000))
				s.SplitPayments = []SplitPayment{{Method: MethodCash, Amount: amt(10_000)}}
				b.Sells = append(b.Sells, s)
			},
			kind: EventSale,
		},
		{
			name: "unknown payment method",
			mutate: func(b *Book) {
				b.Sells = append(b.Sells, sale("s1", 50_000, "bitcoin", day(1), line("latte", 1, 50_000)))
			},
			kind: EventSale,
		},
		{
			name: "unknown tax rate",
			mutate: func(b *Book) {
				b.TaxSettings = TaxSettings{Enabled: true, DefaultTaxRateID: "gone"}
				b.Sells = append(b.Sells, sale("s1", 50_000, MethodCash, day(1), line("latte", 1, 50_000)))
			},
			kind: EventSale,
		},
		{
			name: "missing cash account",
			mutate: func(b *Book) {
				var kept []Account
				for _, a := range b.Accounts {
					if a.Code != "1010" {
						kept = append(kept, a)
					}
				}
				b.Accounts = kept
				b.ShoppingItems = append(b.ShoppingItems, purchase("p1", "Beans", CategoryIngredients, 10_000, day(1), PaymentPaid))
			},
			kind: EventPurchase,
		},
		{
			name: "negative revenue",
			mutate: func(b *Book) {
				b.TaxRates = []TaxRate{{ID: "vat", Name: "VAT", Rate: amt(10)}}
				b.TaxSettings = TaxSettings{Enabled: true, DefaultTaxRateID: "vat"}
				b.Sells = append(b.Sells, sale("s1", 0, MethodCash, day(1), line("latte", 1, 50_000)))
			},
			kind: EventSale,
		},
		{
			name: "refund of unknown sale",
			mutate: func(b *Book) {
				b.Sells = append(b.Sells, SellTransaction{ID: "r1", Date: day(2), IsRefund: true, OriginalTransactionID: "nope"})
			},
			kind: EventRefund,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testBook(t)
			tt.mutate(b)
			j := Derive(b, DefaultRoles())
			require.Len(t, j.Gaps, 1, "gaps: %v", j.Gaps)
			assert.Equal(t, tt.kind, j.Gaps[0].Kind)
			assert.Equal(t, 1, j.SkippedEvents())
			for _, e := range j.Entries {
				assert.NotEqual(t, j.Gaps[0].EventID, e.EventID, "gapped events must not post")
			}
		})
	}
}

func TestDeriveCOGSFromRecipe(t *testing.T) {
	b := testBook(t)
	b.Items = []Item{
		{ID: "beans", Name: "Beans", UnitPrice: amt(1_000)}, // per gram
		{ID: "milk", Name: "Milk", UnitPrice: amt(50)},      // per ml
	}
	oatCost := amt(2_000)
	b.Recipes = []Recipe{{
		ID: "r1", ItemID: "latte", Name: "Latte",
		Ingredients: []Ingredient{
			{ItemID: "beans", Quantity: amt(18)},
			{ItemID: "milk", Quantity: amt(200)},
			{ItemID: "oat", Quantity: amt(1), UnitCost: &oatCost},
		},
	}}
	snapshot := amt(5_000)
	cookie := line("cookie", 2, 20_000)
	cookie.UnitCost = &snapshot
	b.Sells = []SellTransaction{sale("s1", 100_000, MethodCash, day(1), line("latte", 1, 60_000), cookie)}

	j := Derive(b, DefaultRoles())
	require.Empty(t, j.Gaps)
	require.Len(t, j.Entries, 2)
	assert.Equal(t, EventCOGS, j.Entries[1].Kind)

	n := net(j.Entries)
	// latte: 18,000 + 10,000 + 2,000; cookies: 2 × 5,000
	assertAmount(t, 40_000, n[accountID(t, b, "5010")])
	assertAmount(t, -40_000, n[accountID(t, b, "1300")])
}

func TestDeriveCOGSMissingIngredientKeepsSale(t *testing.T) {
	b := testBook(t)
	b.Recipes = []Recipe{{ID: "r1", ItemID: "latte", Ingredients: []Ingredient{{ItemID: "unknown", Quantity: amt(1)}}}}
	b.Sells = []SellTransaction{sale("s1", 60_000, MethodCash, day(1), line("latte", 1, 60_000))}

	j := Derive(b, DefaultRoles())
	require.Len(t, j.Gaps, 1)
	assert.Equal(t, EventCOGS, j.Gaps[0].Kind)
	require.Len(t, j.Entries, 1)
	assert.Equal(t, EventSale, j.Entries[0].Kind)
}

func TestDeriveRefundSymmetry(t *testing.T) {
	b := testBook(t)
	b.Items = []Item{{ID: "beans", Name: "Beans", UnitPrice: amt(1_000)}}
	b.Recipes = []Recipe{{ID: "r1", ItemID: "espresso", Ingredients: []Ingredient{{ItemID: "beans", Quantity: amt(9)}}}}
	b.TaxRates = []TaxRate{{ID: "vat", Name: "VAT", Rate: amt(9)}}
	b.TaxSettings = TaxSettings{Enabled: true, DefaultTaxRateID: "vat"}

	orig := sale("s1", 74_300, MethodCard, day(1), line("espresso", 2, 35_000))
	orig.DiscountAmount = amt(2_000)
	refund := SellTransaction{ID: "r1", Date: day(3), IsRefund: true, OriginalTransactionID: "s1"}
	b.Sells = []SellTransaction{refund, orig}

	j := Derive(b, DefaultRoles())
	require.Empty(t, j.Gaps)

	var origEntries, refundEntries []JournalEntry
	for _, e := range j.Entries {
		switch e.EventID {
		case "s1":
			origEntries = append(origEntries, e)
		case "r1":
			refundEntries = append(refundEntries, e)
			assert.Equal(t, "s1", e.Reference)
			assert.Equal(t, day(3), e.Date)
		}
	}
	require.Len(t, origEntries, 2, "sale + cogs")
	require.Len(t, refundEntries, 2)

	for acct, v := range net(j.Entries) {
		assert.True(t, v.IsZero(), "account %s nets to %s", acct, v)
	}
	assert.NotEmpty(t, net(origEntries))

	b.Sells = append(b.Sells, SellTransaction{ID: "r2", Date: day(4), IsRefund: true, OriginalTransactionID: "s1"})
	j = Derive(b, DefaultRoles())
	require.Len(t, j.Gaps, 1, "second refund of the same sale")
	assert.Equal(t, "r2", j.Gaps[0].EventID)
}

func TestDeriveRefundBeforeSettlementIsAGap(t *testing.T) {
	b := testBook(t)
	b.Customers = []Customer{{ID: "c1", Name: "Reza"}}
	orig := sale("s1", 80_000, MethodCredit, day(1), line("latte", 2, 40_000))
	orig.CustomerID = "c1"
	settled := day(6)
	orig.SettledDate = &settled
	b.Sells = []SellTransaction{orig, {ID: "r1", Date: day(3), IsRefund: true, OriginalTransactionID: "s1"}}

	j := Derive(b, DefaultRoles())
	require.Len(t, j.Gaps, 1)
	assert.Equal(t, EventRefund, j.Gaps[0].Kind)
	assert.Equal(t, "r1", j.Gaps[0].EventID)
	assert.Contains(t, j.Gaps[0].Reason, string(EventSaleSettlement))
	for _, e := range j.Entries {
		assert.NotEqual(t, "r1", e.EventID, "no partial mirror of the sale")
	}

	settled = day(3)
	j = Derive(b, DefaultRoles())
	require.Empty(t, j.Gaps, "a refund on the settlement day mirrors everything")
	for acct, v := range net(j.Entries) {
		assert.True(t, v.IsZero(), "account %s nets to %s", acct, v)
	}
}

func TestDeriveOpeningBalances(t *testing.T) {
	b := testBook(t)
	for i := range b.Accounts {
		switch b.Accounts[i].Code {
		case "1010":
			b.Accounts[i].OpeningBalance = amt(2_000_000)
		case "2600":
			b.Accounts[i].OpeningBalance = amt(500_000)
		case "3900":
			b.Accounts[i].OpeningBalance = amt(999)
		}
	}

	j := Derive(b, DefaultRoles())
	require.Len(t, j.Gaps, 1, "opening equity cannot offset itself")
	assert.Equal(t, EventOpeningBalance, j.Gaps[0].Kind)
	assert.Equal(t, accountID(t, b, "3900"), j.Gaps[0].EventID)
	require.Len(t, j.Entries, 2)

	n := net(j.Entries)
	assertAmount(t, 2_000_000, n[accountID(t, b, "1010")])
	assertAmount(t, -500_000, n[accountID(t, b, "2600")])
	assertAmount(t, -1_500_000, n[accountID(t, b, "3900")])
}

func TestDerivedEntriesBalanceExactly(t *testing.T) {
	b := mixedBook(t)
	j := Derive(b, DefaultRoles())
	require.NotEmpty(t, j.Entries)

	for _, e := range j.Entries {
		debit, credit := e.Totals()
		assert.True(t, debit.Equal(credit), "entry %s: %s != %s", e.ID, debit, credit)
		assert.NoError(t, e.Validate())
	}
	for i := 1; i < len(j.Entries); i++ {
		assert.False(t, j.Entries[i].Date.Before(j.Entries[i-1].Date), "entries sorted by date")
	}
}

func TestDeriveIsDeterministic(t *testing.T) {
	b := mixedBook(t)
	first := Derive(b, DefaultRoles())
	second := Derive(b, DefaultRoles())
	assert.Equal(t, first, second)
}

func mixedBook(t *testing.T) *Book {
	t.Helper()
	b := testBook(t)
	b.Items = []Item{{ID: "beans", Name: "Beans", UnitPrice: decimal.RequireFromString("1333.33")}}
	b.Recipes = []Recipe{{ID: "r1", ItemID: "latte", Ingredients: []Ingredient{{ItemID: "beans", Quantity: amt(7)}}}}
	b.TaxRates = []TaxRate{{ID: "vat", Name: "VAT", Rate: decimal.RequireFromString("9")}}
	b.TaxSettings = TaxSettings{Enabled: true, DefaultTaxRateID: "vat", PricesIncludeTax: true}
	b.Customers = []Customer{{ID: "c1", Name: "Ali"}}

	b.ShoppingItems = []ShoppingItem{
		purchase("p1", "Beans", CategoryIngredients, 1_234_567, day(1), PaymentPaid),
		purchase("p2", "Rent", CategoryRent, 30_000_000, day(2), PaymentUnpaid),
	}
	s2 := sale("s2", 99_999, MethodCredit, day(4), line("latte", 3, 33_333))
	s2.CustomerID = "c1"
	b.Sells = []SellTransaction{
		sale("s1", 45_678, MethodCash, day(3), line("latte", 1, 45_678)),
		s2,
		{ID: "r1", Date: day(5), IsRefund: true, OriginalTransactionID: "s1"},
	}
	return b
}
