package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/simonvc/cafeledger/internal/ledger"
)

const accountColumns = `id, code, name, name_en, type, description, opening_balance, balance, is_active, created_at`

// InitializeDefaultAccounts seeds the default chart when no account exists.
func (s *Store) InitializeDefaultAccounts(ctx context.Context) ([]ledger.Account, error) {
	var created []ledger.Account
	err := s.write(ctx, func(tx *sql.Tx) error {
		existing, err := listAccounts(ctx, tx, AccountFilter{})
		if err != nil {
			return err
		}
		created = ledger.NewRegistry(existing).WithClock(s.now).InitializeDefaultAccounts()
		for i := range created {
			if err := insertAccount(ctx, tx, &created[i]); err != nil {
				return err
			}
		}
		return nil
	})
	return created, err
}

func (s *Store) AddAccount(ctx context.Context, in ledger.NewAccount) (ledger.Account, error) {
	var acct ledger.Account
	err := s.write(ctx, func(tx *sql.Tx) error {
		existing, err := listAccounts(ctx, tx, AccountFilter{})
		if err != nil {
			return err
		}
		acct, err = ledger.NewRegistry(existing).WithClock(s.now).AddAccount(in)
		if err != nil {
			return err
		}
		return insertAccount(ctx, tx, &acct)
	})
	return acct, err
}

func (s *Store) UpdateAccount(ctx context.Context, id string, patch ledger.AccountPatch) (ledger.Account, error) {
	var acct ledger.Account
	err := s.write(ctx, func(tx *sql.Tx) error {
		existing, err := listAccounts(ctx, tx, AccountFilter{})
		if err != nil {
			return err
		}
		acct, err = ledger.NewRegistry(existing).UpdateAccount(id, patch)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE accounts SET name = ?, name_en = ?, description = ?, is_active = ? WHERE id = ?`,
			acct.Name, acct.NameEn, acct.Description, boolToInt(acct.IsActive), acct.ID)
		if err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		return nil
	})
	return acct, err
}

func (s *Store) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	row := s.reader.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	acct, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrAccountNotFound
	}
	return acct, err
}

func (s *Store) ListAccounts(ctx context.Context, filter AccountFilter) ([]ledger.Account, error) {
	return listAccounts(ctx, s.reader, filter)
}

// DeleteAccount removes an account that has no postings in journal.
func (s *Store) DeleteAccount(ctx context.Context, id string, journal *ledger.Journal) error {
	return s.write(ctx, func(tx *sql.Tx) error {
		existing, err := listAccounts(ctx, tx, AccountFilter{})
		if err != nil {
			return err
		}
		if err := ledger.NewRegistry(existing).DeleteAccount(id, journal); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		return nil
	})
}

// ApplyBalances stores recomputed balances. Accounts missing from the map
// are reset to zero.
func (s *Store) ApplyBalances(ctx context.Context, balances map[string]decimal.Decimal) ([]ledger.Account, error) {
	var out []ledger.Account
	err := s.write(ctx, func(tx *sql.Tx) error {
		existing, err := listAccounts(ctx, tx, AccountFilter{})
		if err != nil {
			return err
		}
		out = ledger.NewRegistry(existing).ApplyBalances(balances)
		for _, a := range out {
			if _, err := tx.ExecContext(ctx, `UPDATE accounts SET balance = ? WHERE id = ? AND balance != ?`,
				a.Balance.String(), a.ID, a.Balance.String()); err != nil {
				return fmt.Errorf("update balance %s: %w", a.Code, err)
			}
		}
		return nil
	})
	return out, err
}

func insertAccount(ctx context.Context, tx *sql.Tx, a *ledger.Account) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Code, a.Name, a.NameEn, string(a.Type), a.Description,
		a.OpeningBalance.String(), a.Balance.String(), boolToInt(a.IsActive), formatTime(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert account %s: %w", a.Code, err)
	}
	return nil
}

func listAccounts(ctx context.Context, q queryer, filter AccountFilter) ([]ledger.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE 1=1`
	args := []any{}
	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(filter.Type))
	}
	if filter.ActiveOnly {
		query += ` AND is_active = 1`
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *acct)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(accounts, func(i, j int) bool {
		if accounts[i].Code != accounts[j].Code {
			return accounts[i].Code < accounts[j].Code
		}
		return accounts[i].ID < accounts[j].ID
	})
	return accounts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*ledger.Account, error) {
	var acct ledger.Account
	var typ, createdAt string
	var active int
	err := row.Scan(&acct.ID, &acct.Code, &acct.Name, &acct.NameEn, &typ, &acct.Description,
		&acct.OpeningBalance, &acct.Balance, &active, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	acct.Type = ledger.AccountType(typ)
	acct.IsActive = active == 1
	acct.CreatedAt = parseTime(createdAt)
	return &acct, nil
}
