package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Vendor struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Phone   string    `json:"phone,omitempty"`
	Address string    `json:"address,omitempty"`
	Created time.Time `json:"created_at"`
}

// Item is master data for anything bought or sold.
type Item struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Unit      string          `json:"unit"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	VendorID  string          `json:"vendor_id,omitempty"`
	TaxExempt bool            `json:"tax_exempt,omitempty"`
}

type Customer struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Phone   string          `json:"phone,omitempty"`
	Balance decimal.Decimal `json:"balance"`
}

type PurchaseStatus string

const (
	PurchasePending PurchaseStatus = "pending"
	PurchaseBought  PurchaseStatus = "bought"
)

type PaymentStatus string

const (
	PaymentPaid   PaymentStatus = "paid"
	PaymentUnpaid PaymentStatus = "unpaid"
)

// ShoppingItem is a shopping-list line. Only bought items are purchases.
type ShoppingItem struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	ItemID        string          `json:"item_id,omitempty"`
	VendorID      string          `json:"vendor_id,omitempty"`
	Category      string          `json:"category"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit,omitempty"`
	PaidPrice     decimal.Decimal `json:"paid_price"`
	Status        PurchaseStatus  `json:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	PurchaseDate  time.Time       `json:"purchase_date"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	PaidDate      *time.Time      `json:"paid_date,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodCard     PaymentMethod = "card"
	MethodTransfer PaymentMethod = "transfer"
	MethodCredit   PaymentMethod = "credit"
)

type SplitPayment struct {
	Method PaymentMethod   `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

type SellItem struct {
	ItemID         string             `json:"item_id"`
	Name           string             `json:"name"`
	Quantity       decimal.Decimal    `json:"quantity"`
	UnitPrice      decimal.Decimal    `json:"unit_price"`
	TaxRateID      string             `json:"tax_rate_id,omitempty"`
	TaxExempt      bool               `json:"tax_exempt,omitempty"`
	UnitCost       *decimal.Decimal   `json:"unit_cost,omitempty"`
	Customizations []POSCustomization `json:"customizations,omitempty"`
}

// LineAmount is quantity × (unit price + customization deltas).
func (s SellItem) LineAmount() decimal.Decimal {
	unit := s.UnitPrice
	for _, c := range s.Customizations {
		unit = unit.Add(c.PriceDelta())
	}
	return unit.Mul(s.Quantity)
}

type SellTransaction struct {
	ID                    string          `json:"id"`
	Date                  time.Time       `json:"date"`
	Items                 []SellItem      `json:"items"`
	TotalAmount           decimal.Decimal `json:"total_amount"`
	PaymentMethod         PaymentMethod   `json:"payment_method"`
	DiscountAmount        decimal.Decimal `json:"discount_amount"`
	IsRefund              bool            `json:"is_refund"`
	OriginalTransactionID string          `json:"original_transaction_id,omitempty"`
	SplitPayments         []SplitPayment  `json:"split_payments,omitempty"`
	CustomerID            string          `json:"customer_id,omitempty"`
	DueDate               *time.Time      `json:"due_date,omitempty"`
	SettledDate           *time.Time      `json:"settled_date,omitempty"`
}

// Payments returns the split payments, or a single payment of the whole total.
func (t SellTransaction) Payments() []SplitPayment {
	if len(t.SplitPayments) > 0 {
		return t.SplitPayments
	}
	return []SplitPayment{{Method: t.PaymentMethod, Amount: t.TotalAmount}}
}

// CreditAmount is the part of the sale charged to the customer's account.
func (t SellTransaction) CreditAmount() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range t.Payments() {
		if p.Method == MethodCredit {
			sum = sum.Add(p.Amount)
		}
	}
	return sum
}

type Ingredient struct {
	ItemID   string           `json:"item_id"`
	Quantity decimal.Decimal  `json:"quantity"`
	UnitCost *decimal.Decimal `json:"unit_cost,omitempty"`
}

// Recipe describes the ingredients consumed by one unit of a menu item.
type Recipe struct {
	ID          string       `json:"id"`
	ItemID      string       `json:"item_id"`
	Name        string       `json:"name"`
	Ingredients []Ingredient `json:"ingredients"`
}

type TaxRate struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Rate decimal.Decimal `json:"rate"` // percent
}

type TaxSettings struct {
	Enabled          bool   `json:"enabled"`
	DefaultTaxRateID string `json:"default_tax_rate_id,omitempty"`
	PricesIncludeTax bool   `json:"prices_include_tax"`
}

// Book is the complete application state. It is the JSON blob persisted to
// the external store and the only input to report functions.
type Book struct {
	Accounts      []Account         `json:"accounts"`
	Vendors       []Vendor          `json:"vendors"`
	Items         []Item            `json:"items"`
	Customers     []Customer        `json:"customers"`
	ShoppingItems []ShoppingItem    `json:"shopping_items"`
	Sells         []SellTransaction `json:"sell_transactions"`
	Recipes       []Recipe          `json:"recipes"`
	TaxRates      []TaxRate         `json:"tax_rates"`
	TaxSettings   TaxSettings       `json:"tax_settings"`
	SavedAt       time.Time         `json:"saved_at"`
}

// CustomizationKind tags a POS customization variant.
type CustomizationKind string

const (
	CustomizationSize  CustomizationKind = "size"
	CustomizationExtra CustomizationKind = "extra"
	CustomizationNote  CustomizationKind = "note"
)

// POSCustomization is a tagged variant. Exactly one of Size, Extra or Note is
// set, matching Kind.
type POSCustomization struct {
	Kind  CustomizationKind
	Size  *SizeOption
	Extra *ExtraOption
	Note  *NoteOption
}

type SizeOption struct {
	Label      string          `json:"label"`
	PriceDelta decimal.Decimal `json:"price_delta"`
}

type ExtraOption struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type NoteOption struct {
	Text string `json:"text"`
}

// PriceDelta is the unit price change caused by the customization.
func (c POSCustomization) PriceDelta() decimal.Decimal {
	switch c.Kind {
	case CustomizationSize:
		if c.Size != nil {
			return c.Size.PriceDelta
		}
	case CustomizationExtra:
		if c.Extra != nil {
			return c.Extra.Price
		}
	case CustomizationNote:
	}
	return decimal.Zero
}

type customizationWire struct {
	Kind CustomizationKind `json:"kind"`
	Data json.RawMessage   `json:"data"`
}

func (c POSCustomization) MarshalJSON() ([]byte, error) {
	var data any
	switch c.Kind {
	case CustomizationSize:
		data = c.Size
	case CustomizationExtra:
		data = c.Extra
	case CustomizationNote:
		data = c.Note
	default:
		return nil, fmt.Errorf("unknown customization kind %q", c.Kind)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(customizationWire{Kind: c.Kind, Data: raw})
}

func (c *POSCustomization) UnmarshalJSON(b []byte) error {
	var w customizationWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	out := POSCustomization{Kind: w.Kind}
	switch w.Kind {
	case CustomizationSize:
		out.Size = &SizeOption{}
		if err := json.Unmarshal(w.Data, out.Size); err != nil {
			return fmt.Errorf("size customization: %w", err)
		}
	case CustomizationExtra:
		out.Extra = &ExtraOption{}
		if err := json.Unmarshal(w.Data, out.Extra); err != nil {
			return fmt.Errorf("extra customization: %w", err)
		}
	case CustomizationNote:
		out.Note = &NoteOption{}
		if err := json.Unmarshal(w.Data, out.Note); err != nil {
			return fmt.Errorf("note customization: %w", err)
		}
	default:
		return fmt.Errorf("unknown customization kind %q", w.Kind)
	}
	*c = out
	return nil
}
