package client

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonvc/cafeledger/internal/ledger"
	"github.com/simonvc/cafeledger/internal/reports"
	"github.com/simonvc/cafeledger/internal/server"
	"github.com/simonvc/cafeledger/internal/store"
)

var day = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

func newClient(t *testing.T) *Client {
	t.Helper()
	c, _ := newClientAndStore(t)
	return c
}

func newClientAndStore(t *testing.T) (*Client, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "cafe.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	srv := httptest.NewServer(server.New(server.Options{
		Store:   st,
		Reports: reports.NewService(st, ledger.DefaultRoles(), time.Minute),
		Now:     func() time.Time { return day },
	}).Handler())
	t.Cleanup(srv.Close)
	return New(srv.URL), st
}

func TestTaxLookups(t *testing.T) {
	c, st := newClientAndStore(t)
	ctx := t.Context()

	ts, err := c.TaxSettings(ctx)
	require.NoError(t, err)
	assert.False(t, ts.Enabled)

	require.NoError(t, st.SaveTaxRate(ctx, &ledger.TaxRate{ID: "vat", Name: "VAT", Rate: decimal.NewFromInt(9)}))
	require.NoError(t, st.SetTaxSettings(ctx, ledger.TaxSettings{Enabled: true, DefaultTaxRateID: "vat"}))
	require.NoError(t, st.SaveItem(ctx, &ledger.Item{ID: "water", Name: "Water", TaxExempt: true}))

	ts, err = c.TaxSettings(ctx)
	require.NoError(t, err)
	assert.True(t, ts.Enabled)
	assert.Equal(t, "vat", ts.DefaultTaxRateID)

	rates, err := c.ListTaxRates(ctx)
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.True(t, rates[0].Rate.Equal(decimal.NewFromInt(9)))

	items, err := c.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].TaxExempt)
}

func TestPurchaseFlow(t *testing.T) {
	c := newClient(t)
	ctx := t.Context()

	require.NoError(t, c.Ping(ctx))
	accounts, err := c.InitAccounts(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, accounts)

	si, err := c.CreateShoppingItem(ctx, ledger.ShoppingItem{Name: "Milk", Category: ledger.CategoryIngredients, Quantity: decimal.NewFromInt(12)})
	require.NoError(t, err)
	_, err = c.MarkBought(ctx, si.ID, decimal.NewFromInt(360_000), day, false)
	require.NoError(t, err)

	pending, err := c.ListShoppingItems(ctx, ledger.PurchasePending)
	require.NoError(t, err)
	assert.Empty(t, pending)

	payables, err := c.Aging(ctx, reports.AgingPayable, day)
	require.NoError(t, err)
	assert.True(t, payables.Total.Equal(decimal.NewFromInt(360_000)))

	_, err = c.MarkPaid(ctx, si.ID, day.AddDate(0, 0, 2))
	require.NoError(t, err)

	tb, err := c.TrialBalance(ctx, day.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.True(t, tb.Balanced)
	inv, ok := tb.Line("1300")
	require.True(t, ok)
	assert.True(t, inv.Debit.Equal(decimal.NewFromInt(360_000)))

	j, err := c.Journal(ctx, si.ID)
	require.NoError(t, err)
	assert.Len(t, j.Entries, 2, "purchase on credit then payment")
}

func TestSaleFlow(t *testing.T) {
	c := newClient(t)
	ctx := t.Context()
	_, err := c.InitAccounts(ctx)
	require.NoError(t, err)

	sale, err := c.CreateSell(ctx, ledger.SellTransaction{
		Date:          day,
		Items:         []ledger.SellItem{{ItemID: "espresso", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(40_000)}},
		TotalAmount:   decimal.NewFromInt(120_000),
		PaymentMethod: ledger.MethodCard,
	})
	require.NoError(t, err)

	is, err := c.IncomeStatement(ctx, day, day)
	require.NoError(t, err)
	assert.True(t, is.NetIncome.Equal(decimal.NewFromInt(120_000)))

	_, err = c.RefundSell(ctx, sale.ID, day)
	require.NoError(t, err)
	_, err = c.RefundSell(ctx, sale.ID, day)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)

	bs, err := c.BalanceSheet(ctx, day)
	require.NoError(t, err)
	assert.True(t, bs.Balanced)
	assert.True(t, bs.TotalAssets.IsZero())
}

func TestErrorsCarryField(t *testing.T) {
	c := newClient(t)
	_, err := c.CreateCustomer(t.Context(), ledger.Customer{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "name", apiErr.Field)

	_, err = c.Commentary(t.Context(), day, day, "")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
}
