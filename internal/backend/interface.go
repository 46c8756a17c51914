package backend

import (
	"context"

	"fintrack/internal/persistence"
)

// CleanupFunc releases resources held by a backend
type CleanupFunc func() error

// Pinger is implemented by slots that can report their health
type Pinger interface {
	Ping(ctx context.Context) error
}

// BackendResult contains the opened slot and an optional cleanup function
type BackendResult struct {
	Type    BackendType
	Slot    persistence.Slot
	Cleanup CleanupFunc
}

// Ready reports whether the slot is usable. Slots without a health check are always ready.
func (r *BackendResult) Ready(ctx context.Context) error {
	if p, ok := r.Slot.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close runs the cleanup function if there is one
func (r *BackendResult) Close() error {
	if r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend opens the slot selected by config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// File specific
	DataDirectory string

	// SQLite specific
	SQLiteDBPath string

	// Slot key shared by every backend
	StorageKey string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
