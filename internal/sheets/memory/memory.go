// Package memory is an in-process ReportWriter for development and tests.
package memory

import (
	"context"
	"sync"

	ports "fintrack/internal/sheets"
)

// Writer keeps the last report it was given as sheet rows.
type Writer struct {
	mu           sync.Mutex
	writes       int
	last         ports.Report
	transactions [][]any
	summary      [][]any
}

var _ ports.ReportWriter = (*Writer)(nil)

func New() *Writer { return &Writer{} }

// WriteReport replaces the stored report.
func (w *Writer) WriteReport(ctx context.Context, r ports.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes++
	w.last = r
	w.transactions = ports.TransactionRows(r)
	w.summary = ports.SummaryRows(r)
	return nil
}

// Writes returns how many reports have been written.
func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}

// Last returns the most recent report, if any.
func (w *Writer) Last() (ports.Report, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last, w.writes > 0
}

// Rows returns the transaction and summary rows of the most recent report.
func (w *Writer) Rows() (transactions, summary [][]any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.transactions, w.summary
}
