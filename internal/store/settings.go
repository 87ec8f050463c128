package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/simonvc/cafeledger/internal/ledger"
)

const settingTax = "tax_settings"

func (s *Store) SaveTaxRate(ctx context.Context, r *ledger.TaxRate) error {
	if r.ID == "" {
		r.ID = ledger.NewID()
	}
	if err := r.Validate(); err != nil {
		return err
	}
	_, err := s.writer.ExecContext(ctx,
		`INSERT INTO tax_rates (id, name, rate) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, rate = excluded.rate`,
		r.ID, r.Name, r.Rate.String())
	if err != nil {
		return fmt.Errorf("save tax rate: %w", err)
	}
	return nil
}

func (s *Store) ListTaxRates(ctx context.Context) ([]ledger.TaxRate, error) {
	return listTaxRates(ctx, s.reader)
}

func listTaxRates(ctx context.Context, q queryer) ([]ledger.TaxRate, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name, rate FROM tax_rates ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list tax rates: %w", err)
	}
	defer rows.Close()

	var out []ledger.TaxRate
	for rows.Next() {
		var r ledger.TaxRate
		if err := rows.Scan(&r.ID, &r.Name, &r.Rate); err != nil {
			return nil, fmt.Errorf("scan tax rate: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) DeleteTaxRate(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "tax_rates", id, ledger.ErrTaxRateNotFound)
}

func (s *Store) TaxSettings(ctx context.Context) (ledger.TaxSettings, error) {
	return taxSettings(ctx, s.reader)
}

func taxSettings(ctx context.Context, q queryer) (ledger.TaxSettings, error) {
	var ts ledger.TaxSettings
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, settingTax).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return ts, nil
	}
	if err != nil {
		return ts, fmt.Errorf("read tax settings: %w", err)
	}
	if err := json.Unmarshal([]byte(value), &ts); err != nil {
		return ts, fmt.Errorf("decode tax settings: %w", err)
	}
	return ts, nil
}

// SetTaxSettings stores the tax settings. The default rate must exist.
func (s *Store) SetTaxSettings(ctx context.Context, ts ledger.TaxSettings) error {
	return s.write(ctx, func(tx *sql.Tx) error {
		if ts.DefaultTaxRateID != "" {
			var n int
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM tax_rates WHERE id = ?`, ts.DefaultTaxRateID).Scan(&n); err != nil {
				return fmt.Errorf("check tax rate: %w", err)
			}
			if n == 0 {
				return ledger.InvalidWrap("default_tax_rate_id", ledger.ErrTaxRateNotFound,
					fmt.Sprintf("%s: %s", ledger.ErrTaxRateNotFound, ts.DefaultTaxRateID))
			}
		}
		return putSetting(ctx, tx, settingTax, ts)
	})
}

func putSetting(ctx context.Context, tx *sql.Tx, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", key, err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, string(b))
	if err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}
