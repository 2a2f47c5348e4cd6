package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentLedger, Output: &buf})

	l.Info("Entry recorded", FieldEntryKind, "income")
	out := buf.String()
	if !strings.Contains(out, "component=ledger") || !strings.Contains(out, "kind=income") {
		t.Fatalf("unexpected output: %s", out)
	}

	buf.Reset()
	l.WithComponent(ComponentHTTP).Warn("slow")
	if !strings.Contains(buf.String(), "component=http") {
		t.Fatalf("expected http component, got %s", buf.String())
	}

	buf.Reset()
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered at info level, got %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithComponent(ComponentHTTP).
		WithOperation(OpAppend).
		WithEntry("expense", "12.5", "Food", "2024-01-01").
		WithMonth(2024, 1)
	if f[FieldOperation] != OpAppend || f[FieldAmount] != "12.5" || f[FieldMonth] != 1 {
		t.Fatalf("unexpected fields: %v", f)
	}
	if got := len(f.ToSlice()); got != len(f)*2 {
		t.Fatalf("expected %d items, got %d", len(f)*2, got)
	}
}
