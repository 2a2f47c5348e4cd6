package backend

import (
	"context"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
	"fintrack/internal/storage/flatfile"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

var _ Factory = (*DefaultFactory)(nil)

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateStore implements Factory.CreateStore
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*StoreResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case FileBackend:
		store := flatfile.New(config.DataFile)
		f.logger.InfoContext(ctx, "Initialized file backend", "path", store.Path())
		return &StoreResult{Store: store}, nil
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return &StoreResult{Store: repo, Cleanup: repo.Close}, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// OpenService loads the ledger from the configured store and wraps it in a
// LedgerService. An unreachable broker is logged and the service runs
// without publishing.
func (f *DefaultFactory) OpenService(ctx context.Context, config Config) (*ServiceResult, error) {
	res, err := f.CreateStore(ctx, config)
	if err != nil {
		return nil, err
	}

	l, err := ledger.Open(ctx, res.Store)
	if err != nil {
		if res.Cleanup != nil {
			res.Cleanup()
		}
		return nil, err
	}
	f.logger.InfoContext(ctx, "Ledger loaded", log.FieldCount, l.Len())

	var publisher services.Publisher
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			publisher = client
		}
	}

	svc := services.NewLedgerService(l, publisher, f.logger)
	cleanup := func() error {
		var errs []error
		if err := svc.Close(); err != nil {
			errs = append(errs, err)
		}
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				errs = append(errs, fmt.Errorf("store: %w", err))
			}
		}
		if len(errs) > 0 {
			return fmt.Errorf("close backend: %v", errs)
		}
		return nil
	}

	return &ServiceResult{Service: svc, Cleanup: cleanup}, nil
}
