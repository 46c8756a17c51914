// Package worker exports the persisted ledger to an external report.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/query"
	"fintrack/internal/sheets"
	"fintrack/internal/summary"
)

// Loader reads the current ledger from its durable slot.
type Loader interface {
	Load(ctx context.Context) []core.Transaction
}

// ExportWorker rebuilds the report from the slot on every change message and
// on a fixed interval, so lost messages are caught up by the next tick.
type ExportWorker struct {
	loader Loader
	writer sheets.ReportWriter
	logger *log.Logger
	now    func() time.Time

	mu       sync.Mutex
	exports  int
	lastRev  uint64
	lastAt   time.Time
}

func NewExportWorker(loader Loader, writer sheets.ReportWriter, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportWorker{
		loader: loader,
		writer: writer,
		logger: logger.WithComponent(log.ComponentWorker),
		now:    time.Now,
	}
}

// HandleLedgerChange exports the ledger in response to one change message
func (w *ExportWorker) HandleLedgerChange(ctx context.Context, msg *amqp.LedgerChangeMessage) error {
	w.logger.DebugContext(ctx, "Processing ledger change",
		log.FieldOperation, string(msg.Op),
		log.FieldTransactionID, msg.ID,
		log.FieldRevision, msg.Revision)
	return w.Export(ctx, msg.Revision)
}

// Export loads the ledger, orders it newest first and writes the report
func (w *ExportWorker) Export(ctx context.Context, revision uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rows := query.Apply(w.loader.Load(ctx), query.Filter{})
	sum, err := summary.Summarize(ctx, rows)
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}

	r := sheets.Report{
		GeneratedAt:  w.now(),
		Revision:     revision,
		Transactions: rows,
		Summary:      sum,
	}
	if err := w.writer.WriteReport(ctx, r); err != nil {
		w.logger.ErrorContext(ctx, "Failed to export report",
			log.FieldOperation, log.OpExport,
			log.FieldError, err.Error())
		return fmt.Errorf("write report: %w", err)
	}

	w.exports++
	w.lastRev = revision
	w.lastAt = r.GeneratedAt
	w.logger.InfoContext(ctx, "Exported ledger report",
		log.FieldOperation, log.OpExport,
		log.FieldCount, len(rows),
		log.FieldRevision, revision)
	return nil
}

// Run exports once immediately and then every interval until ctx is done.
// Export errors are logged and retried on the next tick.
func (w *ExportWorker) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("export interval must be positive, got %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		_ = w.Export(ctx, w.LastRevision())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Exports returns the number of successful exports
func (w *ExportWorker) Exports() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.exports
}

// LastRevision returns the revision of the last successful export
func (w *ExportWorker) LastRevision() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastRev
}

// LastExportAt returns when the last successful export was generated, or the
// zero time before the first one.
func (w *ExportWorker) LastExportAt() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastAt
}
