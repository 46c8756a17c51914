// Package persistence loads and saves the ledger to a single named durable slot.
//
// Missing or malformed slot content is never reported to the caller: the adapter falls back
// to a fixed seed set so the ledger is never empty on first run.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
)

// DefaultKey is the slot name the ledger is stored under.
const DefaultKey = "finance-tracker-transactions"

// ErrNotFound is returned by a Slot when the key holds no value.
var ErrNotFound = errors.New("slot not found")

// Slot is a durable key-value cell holding opaque bytes.
type Slot interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Adapter serializes the full transaction list into one slot.
type Adapter struct {
	slot   Slot
	key    string
	logger *slog.Logger
}

func NewAdapter(slot Slot, key string, logger *slog.Logger) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{slot: slot, key: key, logger: logger}
}

// Key returns the slot name used by the adapter.
func (a *Adapter) Key() string { return a.key }

// Load returns the stored transactions, or the seed set when the slot is absent,
// unreadable or does not hold a JSON array of records.
func (a *Adapter) Load(ctx context.Context) []core.Transaction {
	raw, err := a.slot.Get(ctx, a.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			a.logger.InfoContext(ctx, "Ledger slot empty, using seed data", "key", a.key)
		} else {
			a.logger.WarnContext(ctx, "Failed to read ledger slot, using seed data", "key", a.key, "error", err)
		}
		return Seed()
	}

	txs, err := decode(raw)
	if err != nil {
		a.logger.WarnContext(ctx, "Corrupt ledger slot, using seed data", "key", a.key, "error", err)
		return Seed()
	}

	a.logger.DebugContext(ctx, "Ledger loaded", "key", a.key, "count", len(txs))
	return txs
}

// Save replaces the slot content with the full list.
func (a *Adapter) Save(ctx context.Context, txs []core.Transaction) error {
	if txs == nil {
		txs = []core.Transaction{}
	}
	raw, err := json.Marshal(txs)
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	if err := a.slot.Put(ctx, a.key, raw); err != nil {
		return fmt.Errorf("write ledger slot %q: %w", a.key, err)
	}
	return nil
}

func decode(raw []byte) ([]core.Transaction, error) {
	var txs []core.Transaction
	if err := json.Unmarshal(raw, &txs); err != nil {
		return nil, err
	}
	// "null" unmarshals into a nil slice without error.
	if txs == nil {
		return nil, errors.New("stored value is not an array")
	}
	return txs, nil
}
