// Package flatfile persists the ledger as plain text, one entry per line:
//
//	kind,amount,category,date
//
// There is no header and no quoting. A category that contains a comma is
// written as-is and cannot be read back; that limitation is kept on purpose
// so existing files stay byte-compatible.
package flatfile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// DefaultPath is the file used when no path is configured.
const DefaultPath = "financial_data.txt"

const fieldCount = 4

// fileMode applies to a data file that does not exist yet.
const fileMode fs.FileMode = 0o644

// ErrMalformedRecord is returned by Load for a line that is not a valid entry.
var ErrMalformedRecord = errors.New("malformed record")

var _ ledger.Store = (*Store)(nil)

type Store struct {
	path string
}

func New(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Load reads every line of the file. A missing file is an empty ledger.
// Lines have no length limit.
func (s *Store) Load(ctx context.Context) ([]core.Entry, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []core.Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	entries := []core.Entry{}
	r := bufio.NewReader(f)
	for lineNo := 1; ; lineNo++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, readErr := r.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, fmt.Errorf("read %s: %w", s.path, readErr)
		}
		if line == "" && readErr != nil {
			break
		}
		e, err := ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", s.path, lineNo, err)
		}
		entries = append(entries, e)
		if readErr != nil {
			break
		}
	}
	return entries, nil
}

// Save rewrites the whole file. The data goes to a temporary file in the same
// directory first and is renamed over the target, so a failed write leaves
// the previous content in place.
func (s *Store) Save(ctx context.Context, entries []core.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, e := range entries {
		if _, err := w.WriteString(FormatLine(e) + "\n"); err != nil {
			tmp.Close()
			return fmt.Errorf("write %s: %w", s.path, err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	mode := fileMode
	if fi, err := os.Stat(s.path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

// FormatLine renders one entry in file order.
func FormatLine(e core.Entry) string {
	return strings.Join([]string{
		e.Kind.String(),
		core.FormatAmount(e.Amount),
		e.Category,
		e.Date.String(),
	}, ",")
}

// ParseLine is the inverse of FormatLine. Surrounding whitespace of the line
// is ignored; the fields themselves are taken verbatim.
//
// A line must hold a complete valid entry: an unknown kind, a non-positive
// amount or a non-canonical date is malformed just like a wrong field count.
// A hand-edited line such as "expense,0,Food,2024-01-20" therefore stops
// Load, and the application refuses to start until the line is fixed.
func ParseLine(line string) (core.Entry, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != fieldCount {
		return core.Entry{}, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedRecord, fieldCount, len(fields))
	}
	kind, err := core.ParseKind(fields[0])
	if err != nil {
		return core.Entry{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	amount, err := core.ParseAmount(fields[1])
	if err != nil {
		return core.Entry{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	date, err := core.ParseDate(fields[3])
	if err != nil {
		return core.Entry{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return core.Entry{Kind: kind, Amount: amount, Category: fields[2], Date: date}, nil
}
