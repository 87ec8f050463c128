package cmd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonvc/cafeledger/internal/ledger"
)

func TestParseSaleItem(t *testing.T) {
	item, err := parseSaleItem("Latte:2:85,000")
	require.NoError(t, err)
	assert.Equal(t, "Latte", item.Name)
	assert.Equal(t, "latte", item.ItemID)
	assert.True(t, item.Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, item.UnitPrice.Equal(decimal.NewFromInt(85000)))

	for _, bad := range []string{"Latte", "Latte:x:100", "Latte:1:abc", "a:b:c:d"} {
		_, err := parseSaleItem(bad)
		assert.Error(t, err, bad)
	}
}

func TestParsePeriod(t *testing.T) {
	start, end, err := parsePeriod("2025-03-01", "2025-03-31")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", day(start))
	assert.Equal(t, "2025-03-31", day(end))

	_, _, err = parsePeriod("2025-03-10", "2025-03-01")
	assert.ErrorContains(t, err, "before")

	_, _, err = parsePeriod("03/01/2025", "")
	assert.ErrorContains(t, err, "--from must be YYYY-MM-DD")

	start, end, err = parsePeriod("", "")
	require.NoError(t, err)
	assert.Equal(t, 1, start.Day())
	assert.WithinDuration(t, time.Now(), end, time.Minute)
}

func TestSaleStatus(t *testing.T) {
	settled := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		t    ledger.SellTransaction
		want string
	}{
		{"cash", ledger.SellTransaction{PaymentMethod: ledger.MethodCash, TotalAmount: decimal.NewFromInt(10)}, "paid"},
		{"credit", ledger.SellTransaction{PaymentMethod: ledger.MethodCredit, TotalAmount: decimal.NewFromInt(10)}, "open credit"},
		{"settled", ledger.SellTransaction{PaymentMethod: ledger.MethodCredit, TotalAmount: decimal.NewFromInt(10), SettledDate: &settled}, "settled 2025-03-09"},
		{"refund", ledger.SellTransaction{IsRefund: true, OriginalTransactionID: "s1"}, "refund of s1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, saleStatus(tc.t))
		})
	}
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "(1,250)", formatSigned(decimal.NewFromInt(-1250)))
	assert.Equal(t, "", blankZero(decimal.Zero))
	assert.Equal(t, "Cafe", displayName("کافه", "Cafe"))
	assert.Equal(t, "کافه", displayName("کافه", ""))
	assert.Equal(t, []string{"a", "b"}, sortedKeys(map[string]string{"b": "1", "a": "2"}))
	assert.Equal(t, "  ab", center("ab", 6))
}

type fakeTaxSource struct {
	settings ledger.TaxSettings
	rates    []ledger.TaxRate
	items    []ledger.Item
	err      error
}

func (f *fakeTaxSource) TaxSettings(context.Context) (*ledger.TaxSettings, error) {
	return &f.settings, f.err
}

func (f *fakeTaxSource) ListTaxRates(context.Context) ([]ledger.TaxRate, error) {
	return f.rates, nil
}

func (f *fakeTaxSource) ListItems(context.Context) ([]ledger.Item, error) {
	return f.items, nil
}

func TestDefaultSaleTotal(t *testing.T) {
	ctx := context.Background()
	sale := ledger.SellTransaction{
		Items: []ledger.SellItem{
			{ItemID: "latte", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(50_000)},
			{ItemID: "water", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10_000)},
		},
		DiscountAmount: decimal.NewFromInt(5_000),
	}
	src := &fakeTaxSource{
		settings: ledger.TaxSettings{Enabled: true, DefaultTaxRateID: "vat"},
		rates:    []ledger.TaxRate{{ID: "vat", Name: "VAT", Rate: decimal.NewFromInt(10)}},
		items:    []ledger.Item{{ID: "water", Name: "Water", TaxExempt: true}},
	}

	total, err := defaultSaleTotal(ctx, src, sale)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(115_000)), "lines 110,000 less 5,000 plus 10,000 tax on the latte, got %s", total)

	src.settings.PricesIncludeTax = true
	total, err = defaultSaleTotal(ctx, src, sale)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(105_000)), "inclusive prices already carry the tax, got %s", total)

	src.settings = ledger.TaxSettings{}
	total, err = defaultSaleTotal(ctx, src, sale)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(105_000)))

	src.settings = ledger.TaxSettings{Enabled: true, DefaultTaxRateID: "gone"}
	_, err = defaultSaleTotal(ctx, src, sale)
	assert.ErrorIs(t, err, ledger.ErrTaxRateNotFound)

	src.err = errors.New("connection refused")
	_, err = defaultSaleTotal(ctx, src, sale)
	assert.ErrorContains(t, err, "tax settings")
}
