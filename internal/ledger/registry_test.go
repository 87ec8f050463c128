package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestInitializeDefaultAccounts(t *testing.T) {
	r := NewRegistry(nil)
	created := r.InitializeDefaultAccounts()
	require.Len(t, created, len(DefaultChart))

	for _, typ := range AllTypes {
		assert.NotEmpty(t, r.AccountsByType(typ), "expected at least one %s account", typ)
	}

	again := r.InitializeDefaultAccounts()
	assert.Nil(t, again, "second call must be a no-op")
	assert.Len(t, r.All(), len(DefaultChart))
}

func TestAddAccount(t *testing.T) {
	r := NewRegistry(nil)
	r.InitializeDefaultAccounts()

	opening := decimal.NewFromInt(5_000_000)
	acct, err := r.AddAccount(NewAccount{Code: "1030", Name: "Petty Cash", Type: TypeAsset, OpeningBalance: &opening})
	require.NoError(t, err)
	assert.True(t, acct.IsActive)
	assert.True(t, acct.Balance.Equal(opening))
	assert.True(t, acct.OpeningBalance.Equal(opening))

	noOpening, err := r.AddAccount(NewAccount{Code: "6050", Name: "Marketing", Type: TypeExpense})
	require.NoError(t, err)
	assert.True(t, noOpening.Balance.IsZero())
}

func TestAddAccountRejects(t *testing.T) {
	r := NewRegistry(nil)
	r.InitializeDefaultAccounts()

	tests := []struct {
		name string
		in   NewAccount
		want error
	}{
		{"duplicate code", NewAccount{Code: "1010", Name: "Another Cash", Type: TypeAsset}, ErrDuplicateAccount},
		{"missing code", NewAccount{Name: "No Code", Type: TypeAsset}, ErrValidation},
		{"non-numeric code", NewAccount{Code: "1A", Name: "Bad", Type: TypeAsset}, ErrValidation},
		{"missing name", NewAccount{Code: "1050", Type: TypeAsset}, ErrValidation},
		{"unknown type", NewAccount{Code: "1050", Name: "X", Type: "income"}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.AddAccount(tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}
	assert.Len(t, r.All(), len(DefaultChart), "rejected accounts must not be appended")
}

func TestAddAccountReusesInactiveCode(t *testing.T) {
	r := NewRegistry(nil)
	old, err := r.AddAccount(NewAccount{Code: "6050", Name: "Old Marketing", Type: TypeExpense})
	require.NoError(t, err)

	inactive := false
	_, err = r.UpdateAccount(old.ID, AccountPatch{IsActive: &inactive})
	require.NoError(t, err)

	_, err = r.AddAccount(NewAccount{Code: "6050", Name: "Marketing", Type: TypeExpense})
	require.NoError(t, err)

	active := true
	_, err = r.UpdateAccount(old.ID, AccountPatch{IsActive: &active})
	assert.ErrorIs(t, err, ErrDuplicateAccount)

	got, ok := r.ByCode("6050")
	require.True(t, ok)
	assert.Equal(t, "Marketing", got.Name)
}

func TestUpdateAccount(t *testing.T) {
	r := NewRegistry(nil)
	r.InitializeDefaultAccounts()
	cash, ok := r.ByCode("1010")
	require.True(t, ok)

	updated, err := r.UpdateAccount(cash.ID, AccountPatch{Name: strPtr("Till"), NameEn: strPtr("Till Cash")})
	require.NoError(t, err)
	assert.Equal(t, "Till", updated.Name)
	assert.Equal(t, "Till Cash", updated.NameEn)

	same := "1010"
	_, err = r.UpdateAccount(cash.ID, AccountPatch{Code: &same})
	assert.NoError(t, err, "patch with unchanged code is allowed")

	_, err = r.UpdateAccount(cash.ID, AccountPatch{Code: strPtr("1011")})
	assert.ErrorIs(t, err, ErrImmutableField)

	liability := TypeLiability
	_, err = r.UpdateAccount(cash.ID, AccountPatch{Type: &liability})
	assert.ErrorIs(t, err, ErrImmutableField)

	_, err = r.UpdateAccount("missing", AccountPatch{Name: strPtr("x")})
	assert.ErrorIs(t, err, ErrAccountNotFound)

	got, _ := r.Get(cash.ID)
	assert.Equal(t, "1010", got.Code)
	assert.Equal(t, TypeAsset, got.Type)
}

func TestAccountsByTypeSkipsInactive(t *testing.T) {
	r := NewRegistry(nil)
	r.InitializeDefaultAccounts()
	before := len(r.AccountsByType(TypeExpense))

	rent, _ := r.ByCode("6030")
	inactive := false
	_, err := r.UpdateAccount(rent.ID, AccountPatch{IsActive: &inactive})
	require.NoError(t, err)

	after := r.AccountsByType(TypeExpense)
	assert.Len(t, after, before-1)
	for i := 1; i < len(after); i++ {
		assert.Less(t, after[i-1].Code, after[i].Code)
	}
}

func TestDeleteAccount(t *testing.T) {
	book := testBook(t)
	book.ShoppingItems = []ShoppingItem{purchase("p1", "Beans", CategoryIngredients, 100_000, day(1), PaymentPaid)}
	j := Derive(book, DefaultRoles())

	r := NewRegistry(book.Accounts)
	inventory, _ := r.ByCode("1300")
	err := r.DeleteAccount(inventory.ID, j)
	assert.ErrorIs(t, err, ErrAccountHasPostings)

	rent, _ := r.ByCode("6030")
	require.NoError(t, r.DeleteAccount(rent.ID, j))
	_, ok := r.Get(rent.ID)
	assert.False(t, ok)
}

func TestApplyBalances(t *testing.T) {
	r := NewRegistry(nil).WithClock(func() time.Time { return day(0) })
	r.InitializeDefaultAccounts()
	cash, _ := r.ByCode("1010")

	accts := r.ApplyBalances(map[string]decimal.Decimal{cash.ID: decimal.NewFromInt(42)})
	for _, a := range accts {
		if a.ID == cash.ID {
			assert.True(t, a.Balance.Equal(decimal.NewFromInt(42)))
		} else {
			assert.True(t, a.Balance.IsZero())
		}
		assert.Equal(t, day(0), a.CreatedAt)
	}
}
