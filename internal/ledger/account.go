package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	TypeAsset     AccountType = "asset"
	TypeLiability AccountType = "liability"
	TypeEquity    AccountType = "equity"
	TypeRevenue   AccountType = "revenue"
	TypeCOGS      AccountType = "cogs"
	TypeExpense   AccountType = "expense"
)

var AllTypes = []AccountType{
	TypeAsset,
	TypeLiability,
	TypeEquity,
	TypeRevenue,
	TypeCOGS,
	TypeExpense,
}

type Account struct {
	ID             string          `json:"id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	NameEn         string          `json:"name_en,omitempty"`
	Type           AccountType     `json:"type"`
	Description    string          `json:"description,omitempty"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Balance        decimal.Decimal `json:"balance"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TypeLabel returns a human-readable label for an account type.
func TypeLabel(t AccountType) string {
	switch t {
	case TypeAsset:
		return "Assets"
	case TypeLiability:
		return "Liabilities"
	case TypeEquity:
		return "Equity"
	case TypeRevenue:
		return "Revenue"
	case TypeCOGS:
		return "Cost of Goods Sold"
	case TypeExpense:
		return "Expenses"
	default:
		return string(t)
	}
}

// ValidType checks if an account type string is valid.
func ValidType(t AccountType) bool {
	for _, v := range AllTypes {
		if v == t {
			return true
		}
	}
	return false
}

// DebitNormal reports whether accounts of this type increase with debits.
// Assets, COGS and Expenses are debit-normal; Liabilities, Equity and Revenue
// are credit-normal.
func DebitNormal(t AccountType) bool {
	switch t {
	case TypeAsset, TypeCOGS, TypeExpense:
		return true
	default:
		return false
	}
}

// NormalBalance returns "Debit" or "Credit" for the account type.
func NormalBalance(t AccountType) string {
	if DebitNormal(t) {
		return "Debit"
	}
	return "Credit"
}

// SignedBalance converts raw debit/credit totals into a balance signed by the
// account type's normal side.
func SignedBalance(t AccountType, debit, credit decimal.Decimal) decimal.Decimal {
	if DebitNormal(t) {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// Validate checks the account invariants that do not depend on other accounts.
func (a *Account) Validate() error {
	if strings.TrimSpace(a.Code) == "" {
		return Invalid("code", "account code is required")
	}
	for _, r := range a.Code {
		if r < '0' || r > '9' {
			return Invalid("code", fmt.Sprintf("account code %q must be numeric", a.Code))
		}
	}
	if strings.TrimSpace(a.Name) == "" {
		return Invalid("name", "account name is required")
	}
	if !ValidType(a.Type) {
		return Invalid("type", fmt.Sprintf("%s: %q", ErrInvalidAccountType, a.Type))
	}
	return nil
}
