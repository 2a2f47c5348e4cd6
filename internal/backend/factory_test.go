package backend

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
	"fintrack/internal/storage/flatfile"
)

func quietFactory() *DefaultFactory {
	return NewFactory(log.New(log.Config{Output: &bytes.Buffer{}}))
}

func TestCreateStore(t *testing.T) {
	dir := t.TempDir()
	f := quietFactory()
	ctx := context.Background()

	res, err := f.CreateStore(ctx, Config{Type: FileBackend, DataFile: filepath.Join(dir, "data.txt")})
	if err != nil {
		t.Fatalf("file backend: %v", err)
	}
	if _, ok := res.Store.(*flatfile.Store); !ok || res.Cleanup != nil {
		t.Fatalf("expected flat-file store without cleanup, got %T", res.Store)
	}

	res, err = f.CreateStore(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "db", "fintrack.db")})
	if err != nil {
		t.Fatalf("sqlite backend: %v", err)
	}
	if _, ok := res.Store.(*storage.SQLiteRepository); !ok || res.Cleanup == nil {
		t.Fatalf("expected sqlite store with cleanup, got %T", res.Store)
	}
	if err := res.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
}

func TestCreateStoreInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"unknown type", Config{Type: "memory"}, "invalid backend type"},
		{"file without path", Config{Type: FileBackend}, "data file path"},
		{"sqlite without path", Config{Type: SQLiteBackend}, "SQLite database path"},
		{"amqp without queue", Config{Type: FileBackend, DataFile: "x", AMQPURL: "amqp://localhost"}, "exchange and queue"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := quietFactory().CreateStore(context.Background(), tt.cfg)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestOpenServiceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "financial_data.txt")
	cfg := Config{Type: FileBackend, DataFile: path}
	ctx := context.Background()

	res, err := quietFactory().OpenService(ctx, cfg)
	if err != nil {
		t.Fatalf("OpenService: %v", err)
	}
	if _, err := res.Service.Record(ctx, services.RecordInput{Kind: "income", Amount: "1000.0", Category: "Salary", Date: "2024-01-15"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := res.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read data file: %v", err)
	}
	if string(data) != "income,1000,Salary,2024-01-15\n" {
		t.Fatalf("unexpected file content %q", data)
	}

	res, err = quietFactory().OpenService(ctx, cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer res.Cleanup()
	if n := len(res.Service.Entries()); n != 1 {
		t.Fatalf("expected 1 entry after reopen, got %d", n)
	}
}

func TestOpenServiceMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "financial_data.txt")
	os.WriteFile(path, []byte("income,abc,Salary,2024-01-15\n"), 0644)

	if _, err := quietFactory().OpenService(context.Background(), Config{Type: FileBackend, DataFile: path}); err == nil {
		t.Fatal("expected load error for malformed file")
	}
}

func TestFromAppConfig(t *testing.T) {
	app := &config.Config{
		DataBackend:  "sqlite",
		DataFile:     "financial_data.txt",
		SQLiteDBPath: "data/fintrack.db",
		AMQPExchange: "fintrack",
		AMQPQueue:    "entries",
	}
	cfg, err := FromAppConfig(app)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "data/fintrack.db" || cfg.AMQPURL != "" {
		t.Fatalf("unexpected config %+v", cfg)
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	if got := GetBackendTypeStrings(); len(got) != 2 || got[0] != "file" {
		t.Fatalf("unexpected backend types %v", got)
	}
}
