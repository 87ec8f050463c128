package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

func requireName(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return Invalid(field, field+" is required")
	}
	return nil
}

func requireNonNegative(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return Invalid(field, fmt.Sprintf("%s must not be negative, got %s", field, v))
	}
	return nil
}

func (v *Vendor) Validate() error {
	return requireName("name", v.Name)
}

func (c *Customer) Validate() error {
	return requireName("name", c.Name)
}

func (i *Item) Validate() error {
	if err := requireName("name", i.Name); err != nil {
		return err
	}
	return requireNonNegative("unit_price", i.UnitPrice)
}

func (s *ShoppingItem) Validate() error {
	if err := requireName("name", s.Name); err != nil {
		return err
	}
	if err := requireNonNegative("quantity", s.Quantity); err != nil {
		return err
	}
	if err := requireNonNegative("paid_price", s.PaidPrice); err != nil {
		return err
	}
	switch s.Status {
	case PurchasePending, PurchaseBought:
	default:
		return Invalid("status", fmt.Sprintf("unknown status %q", s.Status))
	}
	switch s.PaymentStatus {
	case PaymentPaid, PaymentUnpaid:
	default:
		return Invalid("payment_status", fmt.Sprintf("unknown payment status %q", s.PaymentStatus))
	}
	if s.Status == PurchaseBought && s.PurchaseDate.IsZero() {
		return Invalid("purchase_date", "purchase_date is required for bought items")
	}
	if s.PaidDate != nil && s.PaidDate.Before(s.PurchaseDate) {
		return Invalid("paid_date", "paid_date is before purchase_date")
	}
	return nil
}

// ValidPaymentMethod checks a payment method string.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case MethodCash, MethodCard, MethodTransfer, MethodCredit:
		return true
	}
	return false
}

func (t *SellTransaction) Validate() error {
	if t.Date.IsZero() {
		return Invalid("date", "date is required")
	}
	if t.IsRefund {
		if t.OriginalTransactionID == "" {
			return Invalid("original_transaction_id", "refunds must reference the original transaction")
		}
		return nil
	}
	if len(t.Items) == 0 {
		return Invalid("items", "a sale needs at least one item")
	}
	for i, it := range t.Items {
		if it.Quantity.Sign() <= 0 {
			return Invalid(fmt.Sprintf("items[%d].quantity", i), "quantity must be positive")
		}
		if err := requireNonNegative(fmt.Sprintf("items[%d].unit_price", i), it.UnitPrice); err != nil {
			return err
		}
	}
	if err := requireNonNegative("total_amount", t.TotalAmount); err != nil {
		return err
	}
	if err := requireNonNegative("discount_amount", t.DiscountAmount); err != nil {
		return err
	}
	if len(t.SplitPayments) == 0 && !ValidPaymentMethod(t.PaymentMethod) {
		return Invalid("payment_method", fmt.Sprintf("unknown payment method %q", t.PaymentMethod))
	}
	for i, p := range t.SplitPayments {
		if !ValidPaymentMethod(p.Method) {
			return Invalid(fmt.Sprintf("split_payments[%d].method", i), fmt.Sprintf("unknown payment method %q", p.Method))
		}
		if err := requireNonNegative(fmt.Sprintf("split_payments[%d].amount", i), p.Amount); err != nil {
			return err
		}
	}
	if t.CreditAmount().IsPositive() && t.CustomerID == "" {
		return Invalid("customer_id", "credit sales need a customer")
	}
	return nil
}

func (r *Recipe) Validate() error {
	if r.ItemID == "" {
		return Invalid("item_id", "recipe must name the menu item it produces")
	}
	if len(r.Ingredients) == 0 {
		return Invalid("ingredients", "recipe needs at least one ingredient")
	}
	for i, ing := range r.Ingredients {
		if ing.ItemID == "" {
			return Invalid(fmt.Sprintf("ingredients[%d].item_id", i), "ingredient item is required")
		}
		if ing.Quantity.Sign() <= 0 {
			return Invalid(fmt.Sprintf("ingredients[%d].quantity", i), "quantity must be positive")
		}
		if ing.UnitCost != nil {
			if err := requireNonNegative(fmt.Sprintf("ingredients[%d].unit_cost", i), *ing.UnitCost); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *TaxRate) Validate() error {
	if err := requireName("name", t.Name); err != nil {
		return err
	}
	if t.Rate.IsNegative() || t.Rate.GreaterThan(decimal.NewFromInt(100)) {
		return Invalid("rate", fmt.Sprintf("rate must be between 0 and 100, got %s", t.Rate))
	}
	return nil
}
