package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simonvc/cafeledger/internal/ledger"
)

// CreateSell records a sale. Credit sales add to the customer's stored
// balance. Refunds go through RefundSell.
func (s *Store) CreateSell(ctx context.Context, t *ledger.SellTransaction) error {
	if t.IsRefund {
		return ledger.Invalid("is_refund", "refunds are created from the original sale")
	}
	if t.ID == "" {
		t.ID = ledger.NewID()
	}
	if t.Date.IsZero() {
		t.Date = s.now()
	}
	if err := t.Validate(); err != nil {
		return err
	}
	return s.write(ctx, func(tx *sql.Tx) error {
		if credit := t.CreditAmount(); credit.IsPositive() {
			if err := s.customerExists(ctx, tx, t.CustomerID); err != nil {
				return err
			}
			if err := adjustCustomer(ctx, tx, t.CustomerID, credit); err != nil {
				return err
			}
		}
		return insertSell(ctx, tx, t)
	})
}

// RefundSell refunds a sale in full on date. A sale can be refunded once.
func (s *Store) RefundSell(ctx context.Context, originalID string, date time.Time) (*ledger.SellTransaction, error) {
	if date.IsZero() {
		date = s.now()
	}
	var refund *ledger.SellTransaction
	err := s.write(ctx, func(tx *sql.Tx) error {
		orig, err := getSell(ctx, tx, originalID)
		if err != nil {
			return err
		}
		if orig.IsRefund {
			return ledger.Invalid("original_transaction_id", "a refund cannot be refunded")
		}
		switch {
		case date.Before(orig.Date):
			return ledger.Invalid("date", "refund is before the sale")
		case orig.SettledDate != nil && date.Before(*orig.SettledDate):
			return ledger.Invalid("date", "refund is before the settlement")
		}
		if err := checkNotRefunded(ctx, tx, orig.ID); err != nil {
			return err
		}

		refund = &ledger.SellTransaction{
			ID:                    ledger.NewID(),
			Date:                  date,
			Items:                 orig.Items,
			TotalAmount:           orig.TotalAmount,
			PaymentMethod:         orig.PaymentMethod,
			DiscountAmount:        orig.DiscountAmount,
			IsRefund:              true,
			OriginalTransactionID: orig.ID,
			SplitPayments:         orig.SplitPayments,
			CustomerID:            orig.CustomerID,
		}
		if err := refund.Validate(); err != nil {
			return err
		}
		if credit := orig.CreditAmount(); credit.IsPositive() && orig.SettledDate == nil {
			if err := adjustCustomer(ctx, tx, orig.CustomerID, credit.Neg()); err != nil {
				return err
			}
		}
		return insertSell(ctx, tx, refund)
	})
	return refund, err
}

// SettleSell records collection of a credit sale on date.
func (s *Store) SettleSell(ctx context.Context, id string, date time.Time) (*ledger.SellTransaction, error) {
	if date.IsZero() {
		date = s.now()
	}
	var out *ledger.SellTransaction
	err := s.write(ctx, func(tx *sql.Tx) error {
		t, err := getSell(ctx, tx, id)
		if err != nil {
			return err
		}
		credit := t.CreditAmount()
		switch {
		case t.IsRefund || !credit.IsPositive():
			return ledger.Invalid("id", "only credit sales can be settled")
		case t.SettledDate != nil:
			return ledger.Invalid("settled_date", "sale is already settled")
		case date.Before(t.Date):
			return ledger.Invalid("settled_date", "settlement is before the sale")
		}
		if err := checkNotRefunded(ctx, tx, t.ID); err != nil {
			return err
		}
		t.SettledDate = &date
		if err := adjustCustomer(ctx, tx, t.CustomerID, credit.Neg()); err != nil {
			return err
		}
		out = t
		return updateSellBody(ctx, tx, t)
	})
	return out, err
}

func checkNotRefunded(ctx context.Context, tx *sql.Tx, id string) error {
	var existing string
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM sell_transactions WHERE is_refund = 1 AND original_transaction_id = ?`, id).Scan(&existing)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s by %s", ledger.ErrAlreadyRefunded, id, existing)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("check refund: %w", err)
	}
	return nil
}

func (s *Store) GetSell(ctx context.Context, id string) (*ledger.SellTransaction, error) {
	return getSell(ctx, s.reader, id)
}

func (s *Store) ListSells(ctx context.Context, f SellFilter) ([]ledger.SellTransaction, error) {
	query := `SELECT body FROM sell_transactions WHERE 1=1`
	args := []any{}
	if f.CustomerID != "" {
		query += ` AND customer_id = ?`
		args = append(args, f.CustomerID)
	}
	if f.Start != nil {
		query += ` AND date >= ?`
		args = append(args, formatTime(*f.Start))
	}
	if f.End != nil {
		query += ` AND date <= ?`
		args = append(args, formatTime(*f.End))
	}
	query += ` ORDER BY date, id`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
		if f.Offset > 0 {
			query += fmt.Sprintf(` OFFSET %d`, f.Offset)
		}
	}
	return listSells(ctx, s.reader, query, args...)
}

func listSells(ctx context.Context, q queryer, query string, args ...any) ([]ledger.SellTransaction, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sells: %w", err)
	}
	defer rows.Close()

	var out []ledger.SellTransaction
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan sell: %w", err)
		}
		var t ledger.SellTransaction
		if err := json.Unmarshal([]byte(body), &t); err != nil {
			return nil, fmt.Errorf("decode sell: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func getSell(ctx context.Context, q queryer, id string) (*ledger.SellTransaction, error) {
	var body string
	err := q.QueryRowContext(ctx, `SELECT body FROM sell_transactions WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ledger.ErrSaleNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get sell: %w", err)
	}
	var t ledger.SellTransaction
	if err := json.Unmarshal([]byte(body), &t); err != nil {
		return nil, fmt.Errorf("decode sell %s: %w", id, err)
	}
	return &t, nil
}

func insertSell(ctx context.Context, tx *sql.Tx, t *ledger.SellTransaction) error {
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode sell: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO sell_transactions (id, date, is_refund, original_transaction_id, customer_id, body) VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, formatTime(t.Date), boolToInt(t.IsRefund), t.OriginalTransactionID, t.CustomerID, string(body))
	if err != nil {
		return fmt.Errorf("insert sell: %w", err)
	}
	return nil
}

func updateSellBody(ctx context.Context, tx *sql.Tx, t *ledger.SellTransaction) error {
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode sell: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE sell_transactions SET body = ? WHERE id = ?`, string(body), t.ID); err != nil {
		return fmt.Errorf("update sell: %w", err)
	}
	return nil
}

func adjustCustomer(ctx context.Context, tx *sql.Tx, id string, delta decimal.Decimal) error {
	var bal decimal.Decimal
	err := tx.QueryRowContext(ctx, `SELECT balance FROM customers WHERE id = ?`, id).Scan(&bal)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ledger.ErrCustomerNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("read customer balance: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE customers SET balance = ? WHERE id = ?`, bal.Add(delta).String(), id); err != nil {
		return fmt.Errorf("update customer balance: %w", err)
	}
	return nil
}

// SaveRecipe inserts or replaces a recipe. One recipe per menu item.
func (s *Store) SaveRecipe(ctx context.Context, r *ledger.Recipe) error {
	if r.ID == "" {
		r.ID = ledger.NewID()
	}
	if err := r.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode recipe: %w", err)
	}
	return s.write(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM recipes WHERE item_id = ? AND id != ?`, r.ItemID, r.ID); err != nil {
			return fmt.Errorf("replace recipe: %w", err)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recipes (id, item_id, name, body) VALUES (?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET item_id = excluded.item_id, name = excluded.name, body = excluded.body`,
			r.ID, r.ItemID, r.Name, string(body))
		if err != nil {
			return fmt.Errorf("save recipe: %w", err)
		}
		return nil
	})
}

func (s *Store) ListRecipes(ctx context.Context) ([]ledger.Recipe, error) {
	return listRecipes(ctx, s.reader)
}

func listRecipes(ctx context.Context, q queryer) ([]ledger.Recipe, error) {
	rows, err := q.QueryContext(ctx, `SELECT body FROM recipes ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	var out []ledger.Recipe
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		var r ledger.Recipe
		if err := json.Unmarshal([]byte(body), &r); err != nil {
			return nil, fmt.Errorf("decode recipe: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) DeleteRecipe(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "recipes", id, ledger.ErrRecipeNotFound)
}
