package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simonvc/cafeledger/internal/ledger"
)

const shoppingColumns = `id, name, item_id, vendor_id, category, quantity, unit, paid_price, status, payment_status, purchase_date, due_date, paid_date, notes`

func (s *Store) CreateShoppingItem(ctx context.Context, si *ledger.ShoppingItem) error {
	if si.ID == "" {
		si.ID = ledger.NewID()
	}
	if si.Status == "" {
		si.Status = ledger.PurchasePending
	}
	if si.PaymentStatus == "" {
		si.PaymentStatus = ledger.PaymentUnpaid
	}
	if err := si.Validate(); err != nil {
		return err
	}
	return s.write(ctx, func(tx *sql.Tx) error {
		return upsertShoppingItem(ctx, tx, si)
	})
}

func (s *Store) GetShoppingItem(ctx context.Context, id string) (*ledger.ShoppingItem, error) {
	return getShoppingItem(ctx, s.reader, id)
}

func (s *Store) ListShoppingItems(ctx context.Context) ([]ledger.ShoppingItem, error) {
	return listShoppingItems(ctx, s.reader)
}

// MarkBought records that a pending item was bought for price on date. An
// item paid at the till is paid on the purchase date.
func (s *Store) MarkBought(ctx context.Context, id string, price decimal.Decimal, date time.Time, paid bool) (*ledger.ShoppingItem, error) {
	return s.updateShoppingItem(ctx, id, func(si *ledger.ShoppingItem) {
		si.Status = ledger.PurchaseBought
		si.PaidPrice = price
		si.PurchaseDate = date
		if paid {
			si.PaymentStatus = ledger.PaymentPaid
			si.PaidDate = &date
		}
	})
}

// MarkPaid settles an unpaid purchase on date.
func (s *Store) MarkPaid(ctx context.Context, id string, date time.Time) (*ledger.ShoppingItem, error) {
	return s.updateShoppingItem(ctx, id, func(si *ledger.ShoppingItem) {
		si.PaymentStatus = ledger.PaymentPaid
		si.PaidDate = &date
	})
}

func (s *Store) DeleteShoppingItem(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "shopping_items", id, ledger.ErrPurchaseNotFound)
}

func (s *Store) updateShoppingItem(ctx context.Context, id string, fn func(si *ledger.ShoppingItem)) (*ledger.ShoppingItem, error) {
	var out *ledger.ShoppingItem
	err := s.write(ctx, func(tx *sql.Tx) error {
		si, err := getShoppingItem(ctx, tx, id)
		if err != nil {
			return err
		}
		fn(si)
		if err := si.Validate(); err != nil {
			return err
		}
		out = si
		return upsertShoppingItem(ctx, tx, si)
	})
	return out, err
}

func upsertShoppingItem(ctx context.Context, tx *sql.Tx, si *ledger.ShoppingItem) error {
	purchaseDate := ""
	if !si.PurchaseDate.IsZero() {
		purchaseDate = formatTime(si.PurchaseDate)
	}
	_, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO shopping_items (`+shoppingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		si.ID, si.Name, si.ItemID, si.VendorID, si.Category, si.Quantity.String(), si.Unit, si.PaidPrice.String(),
		string(si.Status), string(si.PaymentStatus), purchaseDate, nullTime(si.DueDate), nullTime(si.PaidDate), si.Notes)
	if err != nil {
		return fmt.Errorf("save shopping item: %w", err)
	}
	return nil
}

func getShoppingItem(ctx context.Context, q queryer, id string) (*ledger.ShoppingItem, error) {
	row := q.QueryRowContext(ctx, `SELECT `+shoppingColumns+` FROM shopping_items WHERE id = ?`, id)
	si, err := scanShoppingItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ledger.ErrPurchaseNotFound, id)
	}
	return si, err
}

func listShoppingItems(ctx context.Context, q queryer) ([]ledger.ShoppingItem, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+shoppingColumns+` FROM shopping_items ORDER BY purchase_date, id`)
	if err != nil {
		return nil, fmt.Errorf("list shopping items: %w", err)
	}
	defer rows.Close()

	var out []ledger.ShoppingItem
	for rows.Next() {
		si, err := scanShoppingItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *si)
	}
	return out, rows.Err()
}

func scanShoppingItem(row scanner) (*ledger.ShoppingItem, error) {
	var si ledger.ShoppingItem
	var status, payment, purchaseDate string
	var due, paid sql.NullString
	err := row.Scan(&si.ID, &si.Name, &si.ItemID, &si.VendorID, &si.Category, &si.Quantity, &si.Unit,
		&si.PaidPrice, &status, &payment, &purchaseDate, &due, &paid, &si.Notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan shopping item: %w", err)
	}
	si.Status = ledger.PurchaseStatus(status)
	si.PaymentStatus = ledger.PaymentStatus(payment)
	if purchaseDate != "" {
		si.PurchaseDate = parseTime(purchaseDate)
	}
	si.DueDate = timePtr(due)
	si.PaidDate = timePtr(paid)
	return &si, nil
}
