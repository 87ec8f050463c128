package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonvc/cafeledger/internal/ledger"
)

var t0 = time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cafe.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	s.WithClock(func() time.Time { return t0 })
	return s
}

func amt(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func TestAccounts(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	created, err := s.InitializeDefaultAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, created, len(ledger.DefaultChart))

	again, err := s.InitializeDefaultAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, again)

	opening := amt(1_000)
	petty, err := s.AddAccount(ctx, ledger.NewAccount{Code: "1030", Name: "Petty cash", Type: ledger.TypeAsset, OpeningBalance: &opening})
	require.NoError(t, err)

	got, err := s.GetAccount(ctx, petty.ID)
	require.NoError(t, err)
	assert.Equal(t, "1030", got.Code)
	assert.True(t, got.Balance.Equal(opening))
	assert.True(t, got.CreatedAt.Equal(t0))

	_, err = s.AddAccount(ctx, ledger.NewAccount{Code: "1030", Name: "Dup", Type: ledger.TypeAsset})
	assert.ErrorIs(t, err, ledger.ErrDuplicateAccount)

	_, err = s.UpdateAccount(ctx, petty.ID, ledger.AccountPatch{Code: ptr("1031")})
	assert.ErrorIs(t, err, ledger.ErrImmutableField)

	off := false
	_, err = s.UpdateAccount(ctx, petty.ID, ledger.AccountPatch{IsActive: &off, Name: ptr("Old petty cash")})
	require.NoError(t, err)
	_, err = s.AddAccount(ctx, ledger.NewAccount{Code: "1030", Name: "New petty cash", Type: ledger.TypeAsset})
	require.NoError(t, err, "inactive codes can be reused")

	active, err := s.ListAccounts(ctx, AccountFilter{Type: ledger.TypeAsset, ActiveOnly: true})
	require.NoError(t, err)
	for i, a := range active {
		assert.True(t, a.IsActive)
		if i > 0 {
			assert.LessOrEqual(t, active[i-1].Code, a.Code)
		}
	}

	_, err = s.GetAccount(ctx, "missing")
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)

	require.NoError(t, s.DeleteAccount(ctx, petty.ID, nil))
	_, err = s.GetAccount(ctx, petty.ID)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestVersionBumpsOnWrite(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	v0, err := s.Version(ctx)
	require.NoError(t, err)
	require.NoError(t, s.CreateVendor(ctx, &ledger.Vendor{Name: "Roastery"}))
	v1, err := s.Version(ctx)
	require.NoError(t, err)
	assert.Greater(t, v1, v0)

	_, err = s.ListVendors(ctx)
	require.NoError(t, err)
	v2, _ := s.Version(ctx)
	assert.Equal(t, v1, v2, "reads do not bump the version")
}

func TestSalesRefundsAndSettlement(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	cust := &ledger.Customer{Name: "Reza"}
	require.NoError(t, s.CreateCustomer(ctx, cust))

	sale := &ledger.SellTransaction{
		Date:          t0,
		Items:         []ledger.SellItem{{ItemID: "latte", Name: "Latte", Quantity: amt(2), UnitPrice: amt(50_000)}},
		TotalAmount:   amt(100_000),
		PaymentMethod: ledger.MethodCredit,
		CustomerID:    cust.ID,
	}
	require.NoError(t, s.CreateSell(ctx, sale))
	assert.NotEmpty(t, sale.ID)

	balance := func() decimal.Decimal {
		cs, err := s.ListCustomers(ctx)
		require.NoError(t, err)
		require.Len(t, cs, 1)
		return cs[0].Balance
	}
	assert.True(t, balance().Equal(amt(100_000)))

	settled, err := s.SettleSell(ctx, sale.ID, t0.AddDate(0, 0, 3))
	require.NoError(t, err)
	require.NotNil(t, settled.SettledDate)
	assert.True(t, balance().IsZero())

	_, err = s.SettleSell(ctx, sale.ID, t0.AddDate(0, 0, 4))
	assert.ErrorIs(t, err, ledger.ErrValidation)

	refund, err := s.RefundSell(ctx, sale.ID, t0.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.True(t, refund.IsRefund)
	assert.Equal(t, sale.ID, refund.OriginalTransactionID)
	assert.True(t, balance().IsZero(), "settled sales do not touch the balance on refund")

	_, err = s.RefundSell(ctx, sale.ID, t0.AddDate(0, 0, 6))
	assert.ErrorIs(t, err, ledger.ErrAlreadyRefunded)
	_, err = s.RefundSell(ctx, "nope", t0)
	assert.ErrorIs(t, err, ledger.ErrSaleNotFound)

	unknown := &ledger.SellTransaction{Date: t0, Items: sale.Items, TotalAmount: amt(1), PaymentMethod: ledger.MethodCredit, CustomerID: "ghost"}
	assert.ErrorIs(t, s.CreateSell(ctx, unknown), ledger.ErrCustomerNotFound)

	bad := &ledger.SellTransaction{Date: t0, Items: []ledger.SellItem{{ItemID: "x", Quantity: amt(-1), UnitPrice: amt(1)}}, PaymentMethod: ledger.MethodCash}
	assert.ErrorIs(t, s.CreateSell(ctx, bad), ledger.ErrValidation)

	sells, err := s.ListSells(ctx, SellFilter{CustomerID: cust.ID})
	require.NoError(t, err)
	assert.Len(t, sells, 2)
}

func TestRefundAndSettlementOrdering(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	cust := &ledger.Customer{Name: "Reza"}
	require.NoError(t, s.CreateCustomer(ctx, cust))
	balance := func() decimal.Decimal {
		cs, err := s.ListCustomers(ctx)
		require.NoError(t, err)
		require.Len(t, cs, 1)
		return cs[0].Balance
	}
	creditSale := func() *ledger.SellTransaction {
		sale := &ledger.SellTransaction{
			Date:          t0,
			Items:         []ledger.SellItem{{ItemID: "cake", Name: "Cake", Quantity: amt(1), UnitPrice: amt(30_000)}},
			TotalAmount:   amt(30_000),
			PaymentMethod: ledger.MethodCredit,
			CustomerID:    cust.ID,
		}
		require.NoError(t, s.CreateSell(ctx, sale))
		return sale
	}

	unsettled := creditSale()
	assert.True(t, balance().Equal(amt(30_000)))
	_, err := s.RefundSell(ctx, unsettled.ID, t0.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ledger.ErrValidation, "refund before the sale")
	_, err = s.RefundSell(ctx, unsettled.ID, t0.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.True(t, balance().IsZero(), "refunding an open credit sale clears the balance")

	_, err = s.SettleSell(ctx, unsettled.ID, t0.AddDate(0, 0, 3))
	assert.ErrorIs(t, err, ledger.ErrAlreadyRefunded)
	assert.True(t, balance().IsZero(), "a refunded sale cannot be collected")
	got, err := s.GetSell(ctx, unsettled.ID)
	require.NoError(t, err)
	assert.Nil(t, got.SettledDate)

	settled := creditSale()
	_, err = s.SettleSell(ctx, settled.ID, t0.AddDate(0, 0, 5))
	require.NoError(t, err)
	_, err = s.RefundSell(ctx, settled.ID, t0.AddDate(0, 0, 4))
	assert.ErrorIs(t, err, ledger.ErrValidation, "refund before the settlement")
	_, err = s.RefundSell(ctx, settled.ID, t0.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.True(t, balance().IsZero())
}

func TestListSellsFiltersOnFractionalSeconds(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	at := func(sec, nsec int) *ledger.SellTransaction {
		sale := &ledger.SellTransaction{
			Date:          time.Date(2025, time.March, 1, 9, 0, sec, nsec, time.UTC),
			Items:         []ledger.SellItem{{ItemID: "tea", Name: "Tea", Quantity: amt(1), UnitPrice: amt(20_000)}},
			TotalAmount:   amt(20_000),
			PaymentMethod: ledger.MethodCash,
		}
		require.NoError(t, s.CreateSell(ctx, sale))
		return sale
	}
	whole := at(0, 0)
	half := at(0, 500_000_000)
	later := at(1, 0)

	start := whole.Date.Add(time.Nanosecond)
	sells, err := s.ListSells(ctx, SellFilter{Start: &start})
	require.NoError(t, err)
	require.Len(t, sells, 2)
	assert.Equal(t, half.ID, sells[0].ID)
	assert.Equal(t, later.ID, sells[1].ID)

	end := half.Date
	sells, err = s.ListSells(ctx, SellFilter{End: &end})
	require.NoError(t, err)
	require.Len(t, sells, 2)
	assert.Equal(t, whole.ID, sells[0].ID)
	assert.Equal(t, half.ID, sells[1].ID)
	assert.True(t, sells[1].Date.Equal(half.Date))
}

func TestCustomizationsRoundTrip(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	sale := &ledger.SellTransaction{
		Date: t0,
		Items: []ledger.SellItem{{
			ItemID: "latte", Quantity: amt(1), UnitPrice: amt(50_000),
			Customizations: []ledger.POSCustomization{
				{Kind: ledger.CustomizationSize, Size: &ledger.SizeOption{Label: "L", PriceDelta: amt(10_000)}},
				{Kind: ledger.CustomizationNote, Note: &ledger.NoteOption{Text: "oat milk"}},
			},
		}},
		TotalAmount:   amt(60_000),
		PaymentMethod: ledger.MethodCash,
	}
	require.NoError(t, s.CreateSell(ctx, sale))

	got, err := s.GetSell(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, got.Items[0].Customizations, 2)
	assert.Equal(t, "oat milk", got.Items[0].Customizations[1].Note.Text)
	assert.True(t, got.Items[0].LineAmount().Equal(amt(60_000)))
}

func TestPurchases(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	si := &ledger.ShoppingItem{Name: "Milk", Category: ledger.CategoryIngredients, Quantity: amt(10)}
	require.NoError(t, s.CreateShoppingItem(ctx, si))
	assert.Equal(t, ledger.PurchasePending, si.Status)

	bought, err := s.MarkBought(ctx, si.ID, amt(700_000), t0, false)
	require.NoError(t, err)
	assert.Equal(t, ledger.PurchaseBought, bought.Status)
	assert.Equal(t, ledger.PaymentUnpaid, bought.PaymentStatus)

	_, err = s.MarkPaid(ctx, si.ID, t0.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ledger.ErrValidation, "paid before purchase")

	paid, err := s.MarkPaid(ctx, si.ID, t0.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.NotNil(t, paid.PaidDate)

	got, err := s.GetShoppingItem(ctx, si.ID)
	require.NoError(t, err)
	assert.True(t, got.PaidDate.Equal(t0.AddDate(0, 0, 7)))
	assert.True(t, got.PaidPrice.Equal(amt(700_000)))

	_, err = s.MarkPaid(ctx, "nope", t0)
	assert.ErrorIs(t, err, ledger.ErrPurchaseNotFound)
}

func TestTaxSettings(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	err := s.SetTaxSettings(ctx, ledger.TaxSettings{Enabled: true, DefaultTaxRateID: "vat"})
	assert.ErrorIs(t, err, ledger.ErrTaxRateNotFound)

	rate := &ledger.TaxRate{ID: "vat", Name: "VAT", Rate: amt(9)}
	require.NoError(t, s.SaveTaxRate(ctx, rate))
	require.NoError(t, s.SetTaxSettings(ctx, ledger.TaxSettings{Enabled: true, DefaultTaxRateID: "vat"}))

	ts, err := s.TaxSettings(ctx)
	require.NoError(t, err)
	assert.True(t, ts.Enabled)
	assert.Equal(t, "vat", ts.DefaultTaxRateID)

	assert.ErrorIs(t, s.SaveTaxRate(ctx, &ledger.TaxRate{Name: "Silly", Rate: amt(150)}), ledger.ErrValidation)
}

func TestBookRoundTrip(t *testing.T) {
	src := openTest(t)
	ctx := context.Background()

	_, err := src.InitializeDefaultAccounts(ctx)
	require.NoError(t, err)
	require.NoError(t, src.SaveItem(ctx, &ledger.Item{ID: "beans", Name: "Beans", UnitPrice: amt(1_000)}))
	require.NoError(t, src.SaveRecipe(ctx, &ledger.Recipe{ItemID: "latte", Name: "Latte",
		Ingredients: []ledger.Ingredient{{ItemID: "beans", Quantity: amt(18)}}}))
	require.NoError(t, src.CreateShoppingItem(ctx, &ledger.ShoppingItem{Name: "Beans", Category: ledger.CategoryIngredients,
		Quantity: amt(1), PaidPrice: amt(500_000), Status: ledger.PurchaseBought, PaymentStatus: ledger.PaymentPaid, PurchaseDate: t0}))
	require.NoError(t, src.CreateSell(ctx, &ledger.SellTransaction{Date: t0, TotalAmount: amt(60_000), PaymentMethod: ledger.MethodCard,
		Items: []ledger.SellItem{{ItemID: "latte", Quantity: amt(1), UnitPrice: amt(60_000)}}}))

	book, err := src.Book(ctx)
	require.NoError(t, err)
	assert.Len(t, book.Accounts, len(ledger.DefaultChart))
	assert.Len(t, book.Recipes, 1)
	assert.Len(t, book.Sells, 1)

	dst := openTest(t)
	require.NoError(t, dst.ReplaceBook(ctx, book))
	copied, err := dst.Book(ctx)
	require.NoError(t, err)
	assert.Equal(t, book, copied)

	j1 := ledger.Derive(book, ledger.DefaultRoles())
	j2 := ledger.Derive(copied, ledger.DefaultRoles())
	assert.Equal(t, j1, j2)
}

func TestArchiveIsAppendOnly(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	_, err := s.InitializeDefaultAccounts(ctx)
	require.NoError(t, err)
	require.NoError(t, s.CreateShoppingItem(ctx, &ledger.ShoppingItem{Name: "Cups", Category: ledger.CategorySupplies,
		Quantity: amt(1), PaidPrice: amt(90_000), Status: ledger.PurchaseBought, PaymentStatus: ledger.PaymentPaid, PurchaseDate: t0}))

	book, err := s.Book(ctx)
	require.NoError(t, err)
	j := ledger.Derive(book, ledger.DefaultRoles())
	require.Len(t, j.Entries, 1)

	n, err := s.Archive(ctx, j.Entries)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.Archive(ctx, j.Entries)
	require.NoError(t, err)
	assert.Zero(t, n, "re-archiving is idempotent")

	rows, err := s.ArchivedPostings(ctx, ArchiveFilter{EventID: j.Entries[0].EventID})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Debit.Add(rows[1].Debit).Equal(amt(90_000)))
	assert.Equal(t, ledger.EventPurchase, rows[0].Kind)

	_, err = s.writer.ExecContext(ctx, `UPDATE posting_archive SET debit = '0'`)
	assert.ErrorContains(t, err, "immutable")
	_, err = s.writer.ExecContext(ctx, `DELETE FROM posting_archive`)
	assert.ErrorContains(t, err, "cannot be removed")

	unbalanced := []ledger.JournalEntry{{ID: "x", Postings: []ledger.Posting{{AccountID: "a", Debit: amt(1)}}}}
	_, err = s.Archive(ctx, unbalanced)
	assert.ErrorIs(t, err, ledger.ErrUnbalancedEntry)
}

func ptr[T any](v T) *T { return &v }
