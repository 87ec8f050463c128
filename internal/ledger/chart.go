package ledger

import "strconv"

// ChartEntry represents a predefined entry in the default cafe chart of accounts.
type ChartEntry struct {
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	NameEn      string      `json:"name_en"`
	Type        AccountType `json:"type"`
	Description string      `json:"description"`
}

// DefaultChart is seeded by InitializeDefaultAccounts. Every account type has
// at least one entry.
var DefaultChart = []ChartEntry{
	// Assets (1xxx); codes below 1500 are current
	{Code: "1010", Name: "صندوق", NameEn: "Cash", Type: TypeAsset, Description: "Cash in the till"},
	{Code: "1020", Name: "بانک", NameEn: "Bank", Type: TypeAsset, Description: "Card and transfer receipts"},
	{Code: "1100", Name: "حساب‌های دریافتنی", NameEn: "Accounts Receivable", Type: TypeAsset, Description: "Sales on credit not yet collected"},
	{Code: "1300", Name: "موجودی کالا", NameEn: "Inventory", Type: TypeAsset, Description: "Ingredients held for use"},
	{Code: "1400", Name: "پیش‌پرداخت‌ها", NameEn: "Prepaid Expenses", Type: TypeAsset, Description: "Payments made in advance"},
	{Code: "1600", Name: "تجهیزات", NameEn: "Equipment", Type: TypeAsset, Description: "Espresso machines, furniture and other long-lived assets"},

	// Liabilities (2xxx); codes below 2500 are current
	{Code: "2010", Name: "حساب‌های پرداختنی", NameEn: "Accounts Payable", Type: TypeLiability, Description: "Unpaid vendor purchases"},
	{Code: "2100", Name: "مالیات پرداختنی", NameEn: "Tax Payable", Type: TypeLiability, Description: "Tax collected on sales"},
	{Code: "2600", Name: "وام‌های بلندمدت", NameEn: "Long-term Loans", Type: TypeLiability, Description: "Loans due after one year"},

	// Equity (3xxx)
	{Code: "3010", Name: "سرمایه", NameEn: "Owner's Capital", Type: TypeEquity, Description: "Owner contributions"},
	{Code: "3100", Name: "سود انباشته", NameEn: "Retained Earnings", Type: TypeEquity, Description: "Accumulated profits"},
	{Code: "3900", Name: "تراز افتتاحیه", NameEn: "Opening Balance Equity", Type: TypeEquity, Description: "Offset for account opening balances"},

	// Revenue (4xxx)
	{Code: "4010", Name: "درآمد فروش", NameEn: "Sales Revenue", Type: TypeRevenue, Description: "Menu sales"},
	{Code: "4900", Name: "تخفیفات فروش", NameEn: "Sales Discounts", Type: TypeRevenue, Description: "Contra revenue for discounts given"},

	// COGS (5xxx)
	{Code: "5010", Name: "بهای تمام‌شده کالای فروش‌رفته", NameEn: "Cost of Goods Sold", Type: TypeCOGS, Description: "Recipe ingredient cost of sold items"},

	// Expenses (6xxx)
	{Code: "6010", Name: "ملزومات", NameEn: "Supplies", Type: TypeExpense, Description: "Cups, napkins, cleaning supplies"},
	{Code: "6020", Name: "آب و برق و گاز", NameEn: "Utilities", Type: TypeExpense, Description: "Water, power, gas"},
	{Code: "6030", Name: "اجاره", NameEn: "Rent", Type: TypeExpense, Description: "Premises rent"},
	{Code: "6040", Name: "حقوق و دستمزد", NameEn: "Salaries", Type: TypeExpense, Description: "Staff wages"},
	{Code: "6090", Name: "هزینه‌های عمومی", NameEn: "General Expenses", Type: TypeExpense, Description: "Uncategorized purchases"},
}

// Purchase categories used by shopping items.
const (
	CategoryIngredients = "ingredients"
	CategoryEquipment   = "equipment"
	CategorySupplies    = "supplies"
	CategoryUtilities   = "utilities"
	CategoryRent        = "rent"
	CategorySalaries    = "salaries"
	CategoryOther       = "other"
)

// AccountRoles maps the semantic roles used by journal derivation to account
// codes. Roles that resolve to no account produce derivation gaps.
type AccountRoles struct {
	Cash           string            `json:"cash" yaml:"cash"`
	Bank           string            `json:"bank" yaml:"bank"`
	Receivable     string            `json:"receivable" yaml:"receivable"`
	Inventory      string            `json:"inventory" yaml:"inventory"`
	Payable        string            `json:"payable" yaml:"payable"`
	TaxPayable     string            `json:"tax_payable" yaml:"tax_payable"`
	SalesRevenue   string            `json:"sales_revenue" yaml:"sales_revenue"`
	SalesDiscount  string            `json:"sales_discount" yaml:"sales_discount"`
	COGS           string            `json:"cogs" yaml:"cogs"`
	OpeningEquity  string            `json:"opening_equity" yaml:"opening_equity"`
	GeneralExpense string            `json:"general_expense" yaml:"general_expense"`
	Purchases      map[string]string `json:"purchases" yaml:"purchases"`
}

// DefaultRoles matches DefaultChart.
func DefaultRoles() AccountRoles {
	return AccountRoles{
		Cash:           "1010",
		Bank:           "1020",
		Receivable:     "1100",
		Inventory:      "1300",
		Payable:        "2010",
		TaxPayable:     "2100",
		SalesRevenue:   "4010",
		SalesDiscount:  "4900",
		COGS:           "5010",
		OpeningEquity:  "3900",
		GeneralExpense: "6090",
		Purchases: map[string]string{
			CategoryIngredients: "1300",
			CategoryEquipment:   "1600",
			CategorySupplies:    "6010",
			CategoryUtilities:   "6020",
			CategoryRent:        "6030",
			CategorySalaries:    "6040",
		},
	}
}

// Merge fills empty roles from defaults.
func (r AccountRoles) Merge(defaults AccountRoles) AccountRoles {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	out := AccountRoles{
		Cash:           pick(r.Cash, defaults.Cash),
		Bank:           pick(r.Bank, defaults.Bank),
		Receivable:     pick(r.Receivable, defaults.Receivable),
		Inventory:      pick(r.Inventory, defaults.Inventory),
		Payable:        pick(r.Payable, defaults.Payable),
		TaxPayable:     pick(r.TaxPayable, defaults.TaxPayable),
		SalesRevenue:   pick(r.SalesRevenue, defaults.SalesRevenue),
		SalesDiscount:  pick(r.SalesDiscount, defaults.SalesDiscount),
		COGS:           pick(r.COGS, defaults.COGS),
		OpeningEquity:  pick(r.OpeningEquity, defaults.OpeningEquity),
		GeneralExpense: pick(r.GeneralExpense, defaults.GeneralExpense),
		Purchases:      make(map[string]string),
	}
	for k, v := range defaults.Purchases {
		out.Purchases[k] = v
	}
	for k, v := range r.Purchases {
		out.Purchases[k] = v
	}
	return out
}

// PurchaseCode returns the account code debited for a purchase category.
func (r AccountRoles) PurchaseCode(category string) string {
	if code, ok := r.Purchases[category]; ok {
		return code
	}
	return r.GeneralExpense
}

func codeNumber(code string) int {
	n, err := strconv.Atoi(code)
	if err != nil {
		return -1
	}
	return n
}

// IsCurrent classifies asset and liability accounts for the balance sheet.
// Assets coded below 1500 and liabilities coded below 2500 are current.
func IsCurrent(a Account) bool {
	n := codeNumber(a.Code)
	switch a.Type {
	case TypeAsset:
		return n >= 0 && n < 1500
	case TypeLiability:
		return n >= 0 && n < 2500
	default:
		return false
	}
}

// IsCash reports whether the account holds cash or cash equivalents (1000-1099).
func IsCash(a Account) bool {
	n := codeNumber(a.Code)
	return a.Type == TypeAsset && n >= 1000 && n < 1100
}
