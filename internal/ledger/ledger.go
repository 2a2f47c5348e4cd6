// Package ledger holds the ordered collection of entries and keeps it in
// sync with a Store.
//
// A Ledger is not safe for concurrent use. Callers that share one across
// goroutines (the HTTP server) serialise access themselves.
package ledger

import (
	"context"
	"fmt"

	"fintrack/internal/core"
)

// Store persists the full entry sequence. Load of a store that has never been
// written returns an empty slice and no error.
type Store interface {
	Load(ctx context.Context) ([]core.Entry, error)
	Save(ctx context.Context, entries []core.Entry) error
}

type Ledger struct {
	store   Store
	entries []core.Entry
}

// Open loads every persisted entry. A malformed store is returned as an error
// and no Ledger is built.
func Open(ctx context.Context, store Store) (*Ledger, error) {
	entries, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return &Ledger{store: store, entries: entries}, nil
}

// Append adds e and rewrites the store. When the rewrite fails the in-memory
// sequence is restored, so memory never runs ahead of storage.
func (l *Ledger) Append(ctx context.Context, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	n := len(l.entries)
	l.entries = append(l.entries, e)
	if err := l.store.Save(ctx, l.entries); err != nil {
		l.entries = l.entries[:n]
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

// Entries returns a copy of the sequence in append order.
func (l *Ledger) Entries() []core.Entry {
	return append([]core.Entry(nil), l.entries...)
}

func (l *Ledger) Len() int {
	return len(l.entries)
}

// Totals aggregates every entry.
func (l *Ledger) Totals() core.Totals {
	return core.ComputeTotals(l.entries)
}

// TotalsForMonth aggregates the entries dated in year/month.
func (l *Ledger) TotalsForMonth(year, month int) (core.Totals, error) {
	return core.TotalsForMonth(l.entries, year, month)
}

// Summary builds the month view over the current entries.
func (l *Ledger) Summary(year, month int) (core.MonthSummary, error) {
	return core.Summarize(l.entries, year, month)
}
