// Package sheets defines the one-way report export port and the row layout
// shared by its adapters.
package sheets

import (
	"context"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/summary"
)

// Report is a point-in-time export of the whole ledger.
type Report struct {
	GeneratedAt  time.Time
	Revision     uint64
	Transactions []core.Transaction
	Summary      summary.Summary
}

// ReportWriter replaces the previously exported report with r. Reports are
// never read back.
type ReportWriter interface {
	WriteReport(ctx context.Context, r Report) error
}
