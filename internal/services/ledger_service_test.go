package services

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/storage/flatfile"
)

type fakePublisher struct {
	mu        sync.Mutex
	published []core.Entry
	err       error
	closed    bool
}

func (p *fakePublisher) PublishEntryRecorded(_ context.Context, e core.Entry) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.published = append(p.published, e)
	return "evt-1", nil
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

func newService(t *testing.T, pub Publisher) (*LedgerService, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "financial_data.txt")
	l, err := ledger.Open(context.Background(), flatfile.New(path))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	var buf bytes.Buffer
	logger := log.New(log.Config{Output: &buf})
	return NewLedgerService(l, pub, logger), path
}

func TestRecordPersistsAndPublishes(t *testing.T) {
	pub := &fakePublisher{}
	svc, path := newService(t, pub)
	ctx := context.Background()

	var hooked []core.Entry
	svc.OnRecord(func(e core.Entry) { hooked = append(hooked, e) })

	inputs := []RecordInput{
		{Kind: "income", Amount: "1000", Category: "Salary", Date: "2024-01-15"},
		{Kind: "expense", Amount: "200", Category: "Groceries", Date: "2024-01-20"},
	}
	for _, in := range inputs {
		if _, err := svc.Record(ctx, in); err != nil {
			t.Fatalf("Record(%+v): %v", in, err)
		}
	}

	totals := svc.Totals()
	if totals.Net.String() != "800" {
		t.Fatalf("expected net 800, got %s", totals.Net)
	}
	if len(pub.published) != 2 || len(hooked) != 2 {
		t.Fatalf("expected 2 published and 2 hooked, got %d and %d", len(pub.published), len(hooked))
	}

	// A fresh ledger over the same file sees both entries.
	reopened, err := ledger.Open(ctx, flatfile.New(path))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Len() != 2 {
		t.Fatalf("expected 2 persisted entries, got %d", reopened.Len())
	}
}

func TestRecordRejectsInvalidInput(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newService(t, pub)

	tests := []struct {
		name string
		in   RecordInput
		want error
	}{
		{"bad kind", RecordInput{Kind: "gift", Amount: "10", Category: "x", Date: "2024-01-01"}, core.ErrInvalidKind},
		{"bad amount", RecordInput{Kind: "income", Amount: "ten", Category: "x", Date: "2024-01-01"}, core.ErrInvalidAmount},
		{"zero amount", RecordInput{Kind: "income", Amount: "0", Category: "x", Date: "2024-01-01"}, core.ErrNonPositiveAmount},
		{"bad date", RecordInput{Kind: "income", Amount: "10", Category: "x", Date: "2024-13-01"}, core.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Record(context.Background(), tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if n := len(svc.Entries()); n != 0 {
		t.Fatalf("rejected input must not be stored, got %d entries", n)
	}
	if len(pub.published) != 0 {
		t.Fatalf("rejected input must not be published")
	}
}

func TestRecordSucceedsWhenPublishFails(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc, _ := newService(t, pub)

	_, err := svc.Record(context.Background(), RecordInput{Kind: "expense", Amount: "5", Category: "Coffee", Date: "2024-02-01"})
	if err != nil {
		t.Fatalf("publish failure must not fail Record: %v", err)
	}
	if len(svc.Entries()) != 1 {
		t.Fatalf("expected entry stored")
	}
}

func TestMonthSummaryAndClose(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newService(t, pub)
	ctx := context.Background()
	svc.Record(ctx, RecordInput{Kind: "income", Amount: "1000", Category: "Salary", Date: "2024-01-15"})
	svc.Record(ctx, RecordInput{Kind: "expense", Amount: "50", Category: "Food", Date: "2024-02-03"})

	sum, err := svc.MonthSummary(2024, 1)
	if err != nil {
		t.Fatalf("MonthSummary: %v", err)
	}
	if len(sum.Entries) != 1 || sum.Totals.Income.String() != "1000" {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if _, err := svc.MonthSummary(2024, 13); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}

	if err := svc.Close(); err != nil || !pub.closed {
		t.Fatalf("expected publisher closed, err=%v", err)
	}
}

func TestConcurrentRecord(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Record(ctx, RecordInput{Kind: "expense", Amount: "1", Category: "x", Date: "2024-03-01"})
		}()
	}
	wg.Wait()

	if got := svc.Totals().Expenses.String(); got != "20" {
		t.Fatalf("expected 20 in expenses, got %s", got)
	}
}
