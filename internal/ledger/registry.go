package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NewID returns a time-ordered identifier.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewAccount is the input to AddAccount.
type NewAccount struct {
	Code           string           `json:"code"`
	Name           string           `json:"name"`
	NameEn         string           `json:"name_en,omitempty"`
	Type           AccountType      `json:"type"`
	Description    string           `json:"description,omitempty"`
	OpeningBalance *decimal.Decimal `json:"opening_balance,omitempty"`
}

// AccountPatch lists the fields UpdateAccount may change. Code and Type are
// accepted only when they equal the stored values.
type AccountPatch struct {
	Name        *string      `json:"name,omitempty"`
	NameEn      *string      `json:"name_en,omitempty"`
	Description *string      `json:"description,omitempty"`
	IsActive    *bool        `json:"is_active,omitempty"`
	Code        *string      `json:"code,omitempty"`
	Type        *AccountType `json:"type,omitempty"`
}

// Registry holds the chart of accounts in memory. It never touches storage;
// callers persist the results.
type Registry struct {
	accounts []Account
	now      func() time.Time
}

func NewRegistry(accounts []Account) *Registry {
	cp := make([]Account, len(accounts))
	copy(cp, accounts)
	return &Registry{accounts: cp, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the time source used for CreatedAt.
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

// All returns every account sorted by code.
func (r *Registry) All() []Account {
	out := make([]Account, len(r.accounts))
	copy(out, r.accounts)
	sortAccounts(out)
	return out
}

func (r *Registry) Get(id string) (Account, bool) {
	for _, a := range r.accounts {
		if a.ID == id {
			return a, true
		}
	}
	return Account{}, false
}

// ByCode resolves a code to an account, preferring the active one.
func (r *Registry) ByCode(code string) (Account, bool) {
	return lookupCode(r.accounts, code)
}

// InitializeDefaultAccounts seeds DefaultChart when the registry is empty and
// returns the accounts it created. It is a no-op otherwise.
func (r *Registry) InitializeDefaultAccounts() []Account {
	if len(r.accounts) > 0 {
		return nil
	}
	created := make([]Account, 0, len(DefaultChart))
	now := r.now()
	for _, e := range DefaultChart {
		created = append(created, Account{
			ID:             NewID(),
			Code:           e.Code,
			Name:           e.Name,
			NameEn:         e.NameEn,
			Type:           e.Type,
			Description:    e.Description,
			OpeningBalance: decimal.Zero,
			Balance:        decimal.Zero,
			IsActive:       true,
			CreatedAt:      now,
		})
	}
	r.accounts = append(r.accounts, created...)
	return created
}

// AddAccount validates and appends a new active account.
func (r *Registry) AddAccount(in NewAccount) (Account, error) {
	opening := decimal.Zero
	if in.OpeningBalance != nil {
		opening = *in.OpeningBalance
	}
	acct := Account{
		ID:             NewID(),
		Code:           in.Code,
		Name:           in.Name,
		NameEn:         in.NameEn,
		Type:           in.Type,
		Description:    in.Description,
		OpeningBalance: opening,
		Balance:        opening,
		IsActive:       true,
		CreatedAt:      r.now(),
	}
	if err := acct.Validate(); err != nil {
		return Account{}, err
	}
	for _, a := range r.accounts {
		if a.IsActive && a.Code == acct.Code {
			return Account{}, InvalidWrap("code", ErrDuplicateAccount,
				fmt.Sprintf("%s: %s (%s)", ErrDuplicateAccount, acct.Code, a.Name))
		}
	}
	r.accounts = append(r.accounts, acct)
	return acct, nil
}

// UpdateAccount applies a patch. Code and Type are immutable because
// historical postings are keyed by account ID and classified by type.
func (r *Registry) UpdateAccount(id string, p AccountPatch) (Account, error) {
	idx := r.index(id)
	if idx < 0 {
		return Account{}, ErrAccountNotFound
	}
	acct := r.accounts[idx]

	if p.Code != nil && *p.Code != acct.Code {
		return Account{}, InvalidWrap("code", ErrImmutableField, "account code cannot be changed")
	}
	if p.Type != nil && *p.Type != acct.Type {
		return Account{}, InvalidWrap("type", ErrImmutableField, "account type cannot be changed")
	}
	if p.Name != nil {
		acct.Name = *p.Name
	}
	if p.NameEn != nil {
		acct.NameEn = *p.NameEn
	}
	if p.Description != nil {
		acct.Description = *p.Description
	}
	if p.IsActive != nil {
		if *p.IsActive && !acct.IsActive {
			for _, a := range r.accounts {
				if a.ID != acct.ID && a.IsActive && a.Code == acct.Code {
					return Account{}, InvalidWrap("code", ErrDuplicateAccount,
						fmt.Sprintf("%s: %s is used by an active account", ErrDuplicateAccount, acct.Code))
				}
			}
		}
		acct.IsActive = *p.IsActive
	}
	if err := acct.Validate(); err != nil {
		return Account{}, err
	}
	r.accounts[idx] = acct
	return acct, nil
}

// AccountsByType returns active accounts of a type sorted by code.
func (r *Registry) AccountsByType(t AccountType) []Account {
	var out []Account
	for _, a := range r.accounts {
		if a.IsActive && a.Type == t {
			out = append(out, a)
		}
	}
	sortAccounts(out)
	return out
}

// DeleteAccount removes an account that never received a posting. Accounts
// with postings must be deactivated instead.
func (r *Registry) DeleteAccount(id string, journal *Journal) error {
	idx := r.index(id)
	if idx < 0 {
		return ErrAccountNotFound
	}
	if n := journal.PostingCount(id); n > 0 {
		return fmt.Errorf("cannot delete account %s: %w (%d)", r.accounts[idx].Code, ErrAccountHasPostings, n)
	}
	r.accounts = append(r.accounts[:idx], r.accounts[idx+1:]...)
	return nil
}

// ApplyBalances writes recomputed balances into the stored Balance field.
// Accounts missing from the map are reset to zero.
func (r *Registry) ApplyBalances(balances map[string]decimal.Decimal) []Account {
	for i := range r.accounts {
		r.accounts[i].Balance = balances[r.accounts[i].ID]
	}
	return r.All()
}

func (r *Registry) index(id string) int {
	for i, a := range r.accounts {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func lookupCode(accounts []Account, code string) (Account, bool) {
	var fallback *Account
	for i := range accounts {
		if accounts[i].Code != code {
			continue
		}
		if accounts[i].IsActive {
			return accounts[i], true
		}
		if fallback == nil {
			fallback = &accounts[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return Account{}, false
}

func sortAccounts(accts []Account) {
	sort.SliceStable(accts, func(i, j int) bool {
		if accts[i].Code != accts[j].Code {
			return accts[i].Code < accts[j].Code
		}
		return accts[i].ID < accts[j].ID
	})
}
