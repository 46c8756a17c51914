package backend

import (
	"context"
	"fmt"

	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/persistence"
	"fintrack/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case FileBackend:
		return f.createFileBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	slot, err := storage.NewSQLiteSlot(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite slot: %w", err)
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		log.FieldSlotKey, config.Key())

	return &BackendResult{
		Type:    SQLiteBackend,
		Slot:    slot,
		Cleanup: slot.Close,
	}, nil
}

func (f *DefaultFactory) createFileBackend(config Config) (*BackendResult, error) {
	slot, err := storage.NewFileSlot(config.DataDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file slot: %w", err)
	}

	f.logger.Info("Initialized file backend",
		"data_directory", config.DataDirectory,
		log.FieldSlotKey, config.Key())

	return &BackendResult{
		Type: FileBackend,
		Slot: slot,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	f.logger.Info("Initialized memory backend", log.FieldSlotKey, config.Key())

	return &BackendResult{
		Type: MemoryBackend,
		Slot: storage.NewMemorySlot(),
	}, nil
}

// OpenLedger loads the ledger from the backend slot and returns a write-through store
func OpenLedger(ctx context.Context, result *BackendResult, key string, logger *log.Logger) *ledger.Store {
	if logger == nil {
		logger = log.Discard()
	}
	adapter := persistence.NewAdapter(result.Slot, key, logger.Logger.With(log.FieldComponent, log.ComponentStorage))
	initial := adapter.Load(ctx)
	logger.Info("Ledger loaded",
		log.FieldBackend, result.Type.String(),
		log.FieldSlotKey, adapter.Key(),
		log.FieldCount, len(initial))
	return ledger.NewStore(initial, adapter)
}
