package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/simonvc/cafeledger/internal/ledger"
)

func (s *Store) CreateVendor(ctx context.Context, v *ledger.Vendor) error {
	if err := v.Validate(); err != nil {
		return err
	}
	if v.ID == "" {
		v.ID = ledger.NewID()
	}
	if v.Created.IsZero() {
		v.Created = s.now()
	}
	_, err := s.writer.ExecContext(ctx,
		`INSERT INTO vendors (id, name, phone, address, created_at) VALUES (?, ?, ?, ?, ?)`,
		v.ID, v.Name, v.Phone, v.Address, formatTime(v.Created))
	if err != nil {
		return fmt.Errorf("insert vendor: %w", err)
	}
	return nil
}

func (s *Store) ListVendors(ctx context.Context) ([]ledger.Vendor, error) {
	return listVendors(ctx, s.reader)
}

func listVendors(ctx context.Context, q queryer) ([]ledger.Vendor, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name, phone, address, created_at FROM vendors ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	defer rows.Close()

	var out []ledger.Vendor
	for rows.Next() {
		var v ledger.Vendor
		var created string
		if err := rows.Scan(&v.ID, &v.Name, &v.Phone, &v.Address, &created); err != nil {
			return nil, fmt.Errorf("scan vendor: %w", err)
		}
		v.Created = parseTime(created)
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) DeleteVendor(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "vendors", id, ledger.ErrVendorNotFound)
}

// SaveItem inserts or replaces an item master record.
func (s *Store) SaveItem(ctx context.Context, it *ledger.Item) error {
	if err := it.Validate(); err != nil {
		return err
	}
	if it.ID == "" {
		it.ID = ledger.NewID()
	}
	_, err := s.writer.ExecContext(ctx,
		`INSERT INTO items (id, name, category, unit, unit_price, vendor_id, tax_exempt) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, category = excluded.category, unit = excluded.unit,
		 unit_price = excluded.unit_price, vendor_id = excluded.vendor_id, tax_exempt = excluded.tax_exempt`,
		it.ID, it.Name, it.Category, it.Unit, it.UnitPrice.String(), it.VendorID, boolToInt(it.TaxExempt))
	if err != nil {
		return fmt.Errorf("save item: %w", err)
	}
	return nil
}

func (s *Store) GetItem(ctx context.Context, id string) (*ledger.Item, error) {
	var it ledger.Item
	var exempt int
	err := s.reader.QueryRowContext(ctx,
		`SELECT id, name, category, unit, unit_price, vendor_id, tax_exempt FROM items WHERE id = ?`, id,
	).Scan(&it.ID, &it.Name, &it.Category, &it.Unit, &it.UnitPrice, &it.VendorID, &exempt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	it.TaxExempt = exempt == 1
	return &it, nil
}

func (s *Store) ListItems(ctx context.Context) ([]ledger.Item, error) {
	return listItems(ctx, s.reader)
}

func listItems(ctx context.Context, q queryer) ([]ledger.Item, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, category, unit, unit_price, vendor_id, tax_exempt FROM items ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var out []ledger.Item
	for rows.Next() {
		var it ledger.Item
		var exempt int
		if err := rows.Scan(&it.ID, &it.Name, &it.Category, &it.Unit, &it.UnitPrice, &it.VendorID, &exempt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		it.TaxExempt = exempt == 1
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "items", id, ledger.ErrItemNotFound)
}

func (s *Store) CreateCustomer(ctx context.Context, c *ledger.Customer) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = ledger.NewID()
	}
	_, err := s.writer.ExecContext(ctx,
		`INSERT INTO customers (id, name, phone, balance) VALUES (?, ?, ?, ?)`,
		c.ID, c.Name, c.Phone, c.Balance.String())
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]ledger.Customer, error) {
	return listCustomers(ctx, s.reader)
}

func listCustomers(ctx context.Context, q queryer) ([]ledger.Customer, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name, phone, balance FROM customers ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var out []ledger.Customer
	for rows.Next() {
		var c ledger.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Balance); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) customerExists(ctx context.Context, q queryer, id string) error {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers WHERE id = ?`, id).Scan(&n); err != nil {
		return fmt.Errorf("check customer: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ledger.ErrCustomerNotFound, id)
	}
	return nil
}

func (s *Store) deleteByID(ctx context.Context, table, id string, notFound error) error {
	res, err := s.writer.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound
	}
	return nil
}
