package services

import (
	"context"
	"fmt"
	"io"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
)

// Publisher announces entries after they are persisted.
type Publisher interface {
	PublishEntryRecorded(ctx context.Context, e core.Entry) (string, error)
}

// RecordInput is the raw user input for one entry, as typed into a form.
type RecordInput struct {
	Kind     string `json:"kind" form:"kind"`
	Amount   string `json:"amount" form:"amount"`
	Category string `json:"category" form:"category"`
	Date     string `json:"date" form:"date"`
}

// LedgerService orchestrates ledger writes and event publishing.
// It is safe for concurrent use.
type LedgerService struct {
	mu        sync.Mutex
	ledger    *ledger.Ledger
	publisher Publisher
	logger    *log.Logger
	onRecord  []func(core.Entry)
}

// NewLedgerService wraps l. publisher may be nil.
func NewLedgerService(l *ledger.Ledger, publisher Publisher, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &LedgerService{
		ledger:    l,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentLedger),
	}
}

// OnRecord registers fn to run after every successful Record.
func (s *LedgerService) OnRecord(fn func(core.Entry)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRecord = append(s.onRecord, fn)
}

// Record validates in, appends it to the ledger and publishes an event.
// Validation errors wrap the core sentinels; nothing is stored when they occur.
func (s *LedgerService) Record(ctx context.Context, in RecordInput) (core.Entry, error) {
	e, err := core.NewEntry(in.Kind, in.Amount, in.Category, in.Date)
	if err != nil {
		fields := log.NewFields().
			WithOperation(log.OpValidate).
			WithEntry(in.Kind, in.Amount, in.Category, in.Date).
			WithErrorType(log.ErrorTypeValidation).
			WithError(err)
		s.logger.WarnContext(ctx, "Entry rejected", fields.ToSlice()...)
		return core.Entry{}, err
	}

	s.mu.Lock()
	err = s.ledger.Append(ctx, e)
	hooks := append(([]func(core.Entry))(nil), s.onRecord...)
	s.mu.Unlock()
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to append entry",
			log.FieldOperation, log.OpAppend,
			log.FieldErrorType, log.ErrorTypeStorage,
			log.FieldError, err)
		return core.Entry{}, err
	}

	s.logger.InfoContext(ctx, "Entry recorded",
		log.FieldEntryKind, e.Kind.String(),
		log.FieldAmount, core.FormatAmount(e.Amount),
		log.FieldCategory, e.Category,
		log.FieldDate, e.Date.String())

	for _, fn := range hooks {
		fn(e)
	}

	s.publish(ctx, e)
	return e, nil
}

// publish is best effort: the entry is already persisted.
func (s *LedgerService) publish(ctx context.Context, e core.Entry) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No publisher configured, skipping entry event")
		return
	}
	id, err := s.publisher.PublishEntryRecorded(ctx, e)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish entry event",
			log.FieldOperation, log.OpPublish,
			log.FieldErrorType, log.ErrorTypeNetwork,
			log.FieldError, err)
		return
	}
	s.logger.DebugContext(ctx, "Entry event published", log.FieldEventID, id)
}

// Entries returns a snapshot of the ledger in append order.
func (s *LedgerService) Entries() []core.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Entries()
}

func (s *LedgerService) Totals() core.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Totals()
}

// MonthSummary returns the summary of one calendar month.
func (s *LedgerService) MonthSummary(year, month int) (core.MonthSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Summary(year, month)
}

// Close releases the publisher when it holds a connection.
func (s *LedgerService) Close() error {
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close publisher: %w", err)
		}
	}
	return nil
}
