package store

import (
	"context"
	"database/sql"
	"fmt"
)

func (s *Store) migrate(ctx context.Context) error {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	var version int
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version < 1 {
		if err := migrateV1(ctx, tx); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return tx.Commit()
}

// bookTables are the tables whose writes bump book_version.
var bookTables = []string{
	"accounts", "vendors", "items", "customers", "shopping_items",
	"sell_transactions", "recipes", "tax_rates", "settings",
}

func migrateV1(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id              TEXT PRIMARY KEY,
			code            TEXT NOT NULL,
			name            TEXT NOT NULL,
			name_en         TEXT NOT NULL DEFAULT '',
			type            TEXT NOT NULL CHECK (type IN ('asset','liability','equity','revenue','cogs','expense')),
			description     TEXT NOT NULL DEFAULT '',
			opening_balance TEXT NOT NULL DEFAULT '0',
			balance         TEXT NOT NULL DEFAULT '0',
			is_active       INTEGER NOT NULL DEFAULT 1,
			created_at      TEXT NOT NULL
		)`,
		// Codes are unique among active accounts only; retired codes may be reused.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_active_code ON accounts(code) WHERE is_active = 1`,

		`CREATE TABLE IF NOT EXISTS vendors (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			phone      TEXT NOT NULL DEFAULT '',
			address    TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS items (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			category   TEXT NOT NULL DEFAULT '',
			unit       TEXT NOT NULL DEFAULT '',
			unit_price TEXT NOT NULL DEFAULT '0',
			vendor_id  TEXT NOT NULL DEFAULT '',
			tax_exempt INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS customers (
			id      TEXT PRIMARY KEY,
			name    TEXT NOT NULL,
			phone   TEXT NOT NULL DEFAULT '',
			balance TEXT NOT NULL DEFAULT '0'
		)`,

		`CREATE TABLE IF NOT EXISTS shopping_items (
			id             TEXT PRIMARY KEY,
			name           TEXT NOT NULL,
			item_id        TEXT NOT NULL DEFAULT '',
			vendor_id      TEXT NOT NULL DEFAULT '',
			category       TEXT NOT NULL DEFAULT '',
			quantity       TEXT NOT NULL DEFAULT '0',
			unit           TEXT NOT NULL DEFAULT '',
			paid_price     TEXT NOT NULL DEFAULT '0',
			status         TEXT NOT NULL CHECK (status IN ('pending','bought')),
			payment_status TEXT NOT NULL CHECK (payment_status IN ('paid','unpaid')),
			purchase_date  TEXT NOT NULL DEFAULT '',
			due_date       TEXT,
			paid_date      TEXT,
			notes          TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_shopping_items_date ON shopping_items(purchase_date)`,

		// Lines, splits and customizations are nested, so the full transaction
		// is kept as JSON next to the columns used for lookups.
		`CREATE TABLE IF NOT EXISTS sell_transactions (
			id                      TEXT PRIMARY KEY,
			date                    TEXT NOT NULL,
			is_refund               INTEGER NOT NULL DEFAULT 0,
			original_transaction_id TEXT NOT NULL DEFAULT '',
			customer_id             TEXT NOT NULL DEFAULT '',
			body                    TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sells_date ON sell_transactions(date)`,
		`CREATE INDEX IF NOT EXISTS idx_sells_customer ON sell_transactions(customer_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_sells_one_refund ON sell_transactions(original_transaction_id) WHERE is_refund = 1`,

		`CREATE TABLE IF NOT EXISTS recipes (
			id      TEXT PRIMARY KEY,
			item_id TEXT NOT NULL,
			name    TEXT NOT NULL DEFAULT '',
			body    TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_recipes_item ON recipes(item_id)`,

		`CREATE TABLE IF NOT EXISTS tax_rates (
			id   TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			rate TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS book_version (
			id      INTEGER PRIMARY KEY CHECK (id = 1),
			version INTEGER NOT NULL
		)`,
		`INSERT OR IGNORE INTO book_version (id, version) VALUES (1, 0)`,

		// Append-only archive of derived postings, keyed by entry ID.
		`CREATE TABLE IF NOT EXISTS posting_archive (
			entry_id    TEXT NOT NULL,
			seq         INTEGER NOT NULL,
			kind        TEXT NOT NULL,
			event_id    TEXT NOT NULL,
			date        TEXT NOT NULL,
			account_id  TEXT NOT NULL,
			debit       TEXT NOT NULL,
			credit      TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			reference   TEXT NOT NULL DEFAULT '',
			archived_at TEXT NOT NULL,
			PRIMARY KEY (entry_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_archive_account ON posting_archive(account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_archive_event ON posting_archive(event_id)`,

		`CREATE TRIGGER IF NOT EXISTS trg_archive_no_update
		BEFORE UPDATE ON posting_archive
		BEGIN
			SELECT RAISE(ABORT, 'archived postings are immutable');
		END`,
		`CREATE TRIGGER IF NOT EXISTS trg_archive_no_delete
		BEFORE DELETE ON posting_archive
		BEGIN
			SELECT RAISE(ABORT, 'archived postings cannot be removed');
		END`,
	}

	for _, table := range bookTables {
		for _, op := range []string{"INSERT", "UPDATE", "DELETE"} {
			stmts = append(stmts, fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS trg_%s_version_%s
				AFTER %s ON %s
				BEGIN
					UPDATE book_version SET version = version + 1 WHERE id = 1;
				END`, table, op, op, table))
		}
	}

	stmts = append(stmts, `INSERT INTO schema_version (version) VALUES (1)`)

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
