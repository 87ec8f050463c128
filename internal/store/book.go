package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/simonvc/cafeledger/internal/ledger"
)

// Book reads a consistent snapshot of the whole application state.
func (s *Store) Book(ctx context.Context) (*ledger.Book, error) {
	tx, err := s.reader.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback()

	b := &ledger.Book{SavedAt: s.now()}
	if b.Accounts, err = listAccounts(ctx, tx, AccountFilter{}); err != nil {
		return nil, err
	}
	if b.Vendors, err = listVendors(ctx, tx); err != nil {
		return nil, err
	}
	if b.Items, err = listItems(ctx, tx); err != nil {
		return nil, err
	}
	if b.Customers, err = listCustomers(ctx, tx); err != nil {
		return nil, err
	}
	if b.ShoppingItems, err = listShoppingItems(ctx, tx); err != nil {
		return nil, err
	}
	if b.Sells, err = listSells(ctx, tx, `SELECT body FROM sell_transactions ORDER BY date, id`); err != nil {
		return nil, err
	}
	if b.Recipes, err = listRecipes(ctx, tx); err != nil {
		return nil, err
	}
	if b.TaxRates, err = listTaxRates(ctx, tx); err != nil {
		return nil, err
	}
	if b.TaxSettings, err = taxSettings(ctx, tx); err != nil {
		return nil, err
	}
	return b, nil
}

// ReplaceBook overwrites the whole state with b in one transaction. The
// posting archive is left untouched.
func (s *Store) ReplaceBook(ctx context.Context, b *ledger.Book) error {
	return s.write(ctx, func(tx *sql.Tx) error {
		for _, table := range bookTables {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}

		for i := range b.Accounts {
			if err := insertAccount(ctx, tx, &b.Accounts[i]); err != nil {
				return err
			}
		}
		for _, v := range b.Vendors {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO vendors (id, name, phone, address, created_at) VALUES (?, ?, ?, ?, ?)`,
				v.ID, v.Name, v.Phone, v.Address, formatTime(v.Created)); err != nil {
				return fmt.Errorf("insert vendor %s: %w", v.ID, err)
			}
		}
		for _, it := range b.Items {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO items (id, name, category, unit, unit_price, vendor_id, tax_exempt) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				it.ID, it.Name, it.Category, it.Unit, it.UnitPrice.String(), it.VendorID, boolToInt(it.TaxExempt)); err != nil {
				return fmt.Errorf("insert item %s: %w", it.ID, err)
			}
		}
		for _, c := range b.Customers {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO customers (id, name, phone, balance) VALUES (?, ?, ?, ?)`,
				c.ID, c.Name, c.Phone, c.Balance.String()); err != nil {
				return fmt.Errorf("insert customer %s: %w", c.ID, err)
			}
		}
		for i := range b.ShoppingItems {
			if err := upsertShoppingItem(ctx, tx, &b.ShoppingItems[i]); err != nil {
				return err
			}
		}
		for i := range b.Sells {
			if err := insertSell(ctx, tx, &b.Sells[i]); err != nil {
				return err
			}
		}
		for _, r := range b.Recipes {
			body, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("encode recipe: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO recipes (id, item_id, name, body) VALUES (?, ?, ?, ?)`,
				r.ID, r.ItemID, r.Name, string(body)); err != nil {
				return fmt.Errorf("insert recipe %s: %w", r.ID, err)
			}
		}
		for _, r := range b.TaxRates {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO tax_rates (id, name, rate) VALUES (?, ?, ?)`, r.ID, r.Name, r.Rate.String()); err != nil {
				return fmt.Errorf("insert tax rate %s: %w", r.ID, err)
			}
		}
		return putSetting(ctx, tx, settingTax, b.TaxSettings)
	})
}
