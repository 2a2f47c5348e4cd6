package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"fintrack/internal/core"
	"fintrack/internal/ledger"

	_ "modernc.org/sqlite"
)

var _ ledger.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements ledger.Store. Rows come back in position order, which is
// the order they were appended.
func (r *SQLiteRepository) Load(ctx context.Context) ([]core.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT position, kind, amount, category, date FROM entries ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []core.Entry{}
	for rows.Next() {
		var (
			pos                          int64
			kind, amount, category, date string
		)
		if err := rows.Scan(&pos, &kind, &amount, &category, &date); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e, err := core.NewEntry(kind, amount, category, date)
		if err != nil {
			return nil, fmt.Errorf("entry at position %d: %w", pos, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// Save implements ledger.Store by replacing every row inside one transaction.
func (r *SQLiteRepository) Save(ctx context.Context, entries []core.Entry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entries (position, kind, amount, category, date) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, i+1, e.Kind.String(), core.FormatAmount(e.Amount), e.Category, e.Date.String()); err != nil {
			return fmt.Errorf("insert entry %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// AppendEntry adds one row after the last position. A non-empty eventID makes
// the call idempotent: a redelivered event is ignored and the existing
// position is returned.
func (r *SQLiteRepository) AppendEntry(ctx context.Context, eventID string, e core.Entry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}

	var id sql.NullString
	if eventID != "" {
		id = sql.NullString{String: eventID, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO entries (position, kind, amount, category, date, event_id)
		VALUES ((SELECT COALESCE(MAX(position), 0) + 1 FROM entries), ?, ?, ?, ?, ?)`,
		e.Kind.String(), core.FormatAmount(e.Amount), e.Category, e.Date.String(), id)
	if err != nil {
		return "", fmt.Errorf("insert entry: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 && id.Valid {
		var pos int64
		if err := r.db.QueryRowContext(ctx, `SELECT position FROM entries WHERE event_id = ?`, eventID).Scan(&pos); err != nil {
			return "", fmt.Errorf("lookup duplicate event %s: %w", eventID, err)
		}
		slog.InfoContext(ctx, "Duplicate entry event ignored", "event_id", eventID, "position", pos)
		return strconv.FormatInt(pos, 10), nil
	}

	pos, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Entry saved to SQLite",
		"position", pos,
		"kind", e.Kind,
		"amount", core.FormatAmount(e.Amount),
		"category", e.Category,
		"date", e.Date.String())

	return strconv.FormatInt(pos, 10), nil
}

// Count returns the number of stored entries.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}
