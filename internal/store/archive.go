package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/simonvc/cafeledger/internal/ledger"
)

// ArchivedPosting is a posting row from the append-only archive.
type ArchivedPosting struct {
	ledger.Posting
	Seq        int              `json:"seq"`
	Kind       ledger.EventKind `json:"kind"`
	EventID    string           `json:"event_id"`
	ArchivedAt string           `json:"archived_at"`
}

// Archive appends the postings of entries not yet archived and returns how
// many rows were added. Entries already present are skipped; archived rows
// are never updated or deleted.
func (s *Store) Archive(ctx context.Context, entries []ledger.JournalEntry) (int, error) {
	added := 0
	err := s.write(ctx, func(tx *sql.Tx) error {
		stamp := formatTime(s.now())
		for _, e := range entries {
			if err := e.Validate(); err != nil {
				return err
			}
			for i, p := range e.Postings {
				res, err := tx.ExecContext(ctx,
					`INSERT INTO posting_archive (entry_id, seq, kind, event_id, date, account_id, debit, credit, description, reference, archived_at)
					 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
					 ON CONFLICT(entry_id, seq) DO NOTHING`,
					e.ID, i, string(e.Kind), e.EventID, formatTime(p.Date), p.AccountID,
					p.Debit.String(), p.Credit.String(), p.Description, p.Reference, stamp)
				if err != nil {
					return fmt.Errorf("archive %s/%d: %w", e.ID, i, err)
				}
				if n, _ := res.RowsAffected(); n > 0 {
					added++
				}
			}
		}
		return nil
	})
	return added, err
}

func (s *Store) ArchivedPostings(ctx context.Context, f ArchiveFilter) ([]ArchivedPosting, error) {
	query := `SELECT entry_id, seq, kind, event_id, date, account_id, debit, credit, description, reference, archived_at
		FROM posting_archive WHERE 1=1`
	args := []any{}
	if f.AccountID != "" {
		query += ` AND account_id = ?`
		args = append(args, f.AccountID)
	}
	if f.EventID != "" {
		query += ` AND event_id = ?`
		args = append(args, f.EventID)
	}
	query += ` ORDER BY date, entry_id, seq`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
		if f.Offset > 0 {
			query += fmt.Sprintf(` OFFSET %d`, f.Offset)
		}
	}

	rows, err := s.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list archive: %w", err)
	}
	defer rows.Close()

	var out []ArchivedPosting
	for rows.Next() {
		var ap ArchivedPosting
		var kind, date string
		if err := rows.Scan(&ap.EntryID, &ap.Seq, &kind, &ap.EventID, &date, &ap.AccountID,
			&ap.Debit, &ap.Credit, &ap.Description, &ap.Reference, &ap.ArchivedAt); err != nil {
			return nil, fmt.Errorf("scan archived posting: %w", err)
		}
		ap.Kind = ledger.EventKind(kind)
		ap.Date = parseTime(date)
		out = append(out, ap)
	}
	return out, rows.Err()
}
