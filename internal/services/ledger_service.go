package services

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/query"
	"fintrack/internal/summary"
)

// Publisher announces ledger mutations to out-of-process consumers
type Publisher interface {
	PublishLedgerChange(ctx context.Context, op amqp.ChangeOp, id string, revision uint64) error
}

// View is a filtered, date-descending list of transactions and its summary
type View struct {
	Filter       query.Filter       `json:"-"`
	Revision     uint64             `json:"revision"`
	Transactions []core.Transaction `json:"transactions"`
	Summary      summary.Summary    `json:"summary"`
}

// DefaultViewCacheSize and DefaultViewCacheTTL size the summary cache built by NewViewCache
const (
	DefaultViewCacheSize = 64
	DefaultViewCacheTTL  = 5 * time.Minute
)

// NewViewCache returns the LRU cache used for computed views
func NewViewCache() *cache.LRUCache[View] {
	return cache.NewLRUCache[View](DefaultViewCacheSize, DefaultViewCacheTTL)
}

// LedgerService is the entry point the presentation layer calls into. It
// orchestrates the store, the query engine and the aggregator, and publishes a
// change notification after every mutation.
type LedgerService struct {
	store     *ledger.Store
	publisher Publisher
	views     cache.Cache[View]
	logger    *log.Logger
}

// NewLedgerService wires a service around store. publisher and views may be nil.
func NewLedgerService(store *ledger.Store, publisher Publisher, views cache.Cache[View], logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.Discard()
	}
	return &LedgerService{
		store:     store,
		publisher: publisher,
		views:     views,
		logger:    logger.WithComponent(log.ComponentLedger),
	}
}

// GetAll returns the full, unfiltered collection in store order
func (s *LedgerService) GetAll() []core.Transaction {
	return s.store.Snapshot()
}

// Get returns one transaction by id
func (s *LedgerService) Get(id string) (core.Transaction, bool) {
	return s.store.Get(id)
}

// Revision returns the store revision
func (s *LedgerService) Revision() uint64 {
	return s.store.Revision()
}

// Upsert creates or replaces tx and returns the revision the change produced.
// A persistence failure is logged and returned, but the in-memory change stays applied.
func (s *LedgerService) Upsert(ctx context.Context, tx core.Transaction) (created bool, revision uint64, err error) {
	created, revision, err = s.store.Upsert(ctx, tx)
	op := log.OpUpdate
	if created {
		op = log.OpCreate
	}
	fields := log.NewFields().
		WithOperation(op).
		WithTransaction(tx.ID, tx.Type.String(), tx.Amount.String(), tx.Category).
		WithRevision(revision)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist ledger", fields.WithError(err).ToSlice()...)
		return created, revision, fmt.Errorf("persist ledger: %w", err)
	}
	s.logger.InfoContext(ctx, "Transaction saved", fields.ToSlice()...)
	s.publish(ctx, amqp.OpUpsert, tx.ID, revision)
	return created, revision, nil
}

// Remove deletes the transaction with id. An unknown id is a no-op.
func (s *LedgerService) Remove(ctx context.Context, id string) (removed bool, revision uint64, err error) {
	removed, revision, err = s.store.Delete(ctx, id)
	if !removed {
		s.logger.DebugContext(ctx, "Delete of unknown transaction ignored", log.FieldTransactionID, id)
		return false, revision, nil
	}
	fields := log.NewFields().WithOperation(log.OpDelete).WithRevision(revision)
	fields[log.FieldTransactionID] = id
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist ledger", fields.WithError(err).ToSlice()...)
		return true, revision, fmt.Errorf("persist ledger: %w", err)
	}
	s.logger.InfoContext(ctx, "Transaction deleted", fields.ToSlice()...)
	s.publish(ctx, amqp.OpDelete, id, revision)
	return true, revision, nil
}

// Query filters and sorts all
func (s *LedgerService) Query(all []core.Transaction, f query.Filter) []core.Transaction {
	return query.Apply(all, f)
}

// Summarize aggregates an already filtered list
func (s *LedgerService) Summarize(ctx context.Context, filtered []core.Transaction) (summary.Summary, error) {
	return summary.Summarize(ctx, filtered)
}

// View applies f to the current collection and summarizes the result. Views
// are cached per store revision, so any mutation invalidates them.
func (s *LedgerService) View(ctx context.Context, f query.Filter) (View, error) {
	all, rev := s.store.SnapshotAt()
	key := strconv.FormatUint(rev, 10) + "|" + f.Key()

	if s.views != nil {
		if v, ok := s.views.Get(key); ok {
			return v.clone(), nil
		}
	}

	rows := query.Apply(all, f)
	sum, err := summary.Summarize(ctx, rows)
	if err != nil {
		return View{}, fmt.Errorf("summarize: %w", err)
	}
	v := View{Filter: f, Revision: rev, Transactions: rows, Summary: sum}

	if s.views != nil {
		s.views.Set(key, v.clone())
	}
	return v, nil
}

// clone copies the slices of v so a caller cannot reach the cached value.
func (v View) clone() View {
	v.Transactions = slices.Clone(v.Transactions)
	v.Summary.ByCategory = slices.Clone(v.Summary.ByCategory)
	v.Summary.ByMonth = slices.Clone(v.Summary.ByMonth)
	return v
}

// Categories returns the default categories followed by any other category
// used in the ledger, in first-seen order
func (s *LedgerService) Categories() []string {
	out := make([]string, 0, len(core.DefaultCategories))
	seen := make(map[string]bool)
	for _, c := range core.DefaultCategories {
		seen[c] = true
		out = append(out, c)
	}
	for _, tx := range s.store.Snapshot() {
		if !seen[tx.Category] {
			seen[tx.Category] = true
			out = append(out, tx.Category)
		}
	}
	return out
}

func (s *LedgerService) publish(ctx context.Context, op amqp.ChangeOp, id string, revision uint64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerChange(ctx, op, id, revision); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish ledger change",
			log.FieldOperation, log.OpPublish,
			log.FieldTransactionID, id,
			log.FieldError, err.Error())
	}
}
