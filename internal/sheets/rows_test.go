package sheets

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/summary"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport(t *testing.T) Report {
	t.Helper()
	txs := []core.Transaction{
		{ID: "3", Type: core.Expense, Amount: decimal.RequireFromString("60"), Category: "Transport", Date: core.MustParseDate("2024-02-01"), Description: "Train pass"},
		{ID: "1", Type: core.Expense, Amount: decimal.RequireFromString("35.50"), Category: "Food", Date: core.MustParseDate("2024-01-10"), Description: "Grocery shopping"},
		{ID: "2", Type: core.Income, Amount: decimal.RequireFromString("1200"), Category: "Salary", Date: core.MustParseDate("2024-01-15"), Description: "Monthly salary"},
	}
	sum, err := summary.Summarize(context.Background(), txs)
	require.NoError(t, err)
	return Report{
		GeneratedAt:  time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		Revision:     4,
		Transactions: txs,
		Summary:      sum,
	}
}

func TestTransactionRows(t *testing.T) {
	rows := TransactionRows(sampleReport(t))
	require.Len(t, rows, 4)
	assert.Equal(t, TransactionsHeader, rows[0])
	assert.Equal(t, []any{"1", "2024-01-10", "expense", "Food", "Grocery shopping", 35.5}, rows[2])
}

func TestTransactionRowsEmpty(t *testing.T) {
	rows := TransactionRows(Report{})
	assert.Equal(t, [][]any{TransactionsHeader}, rows)
}

func TestSummaryRows(t *testing.T) {
	rows := SummaryRows(sampleReport(t))

	assert.Equal(t, []any{"Generated", "2024-03-01 09:30:00", "Revision", "4"}, rows[0])
	assert.Equal(t, []any{"Income", 1200.0, "Expenses", 95.5}, rows[1])
	assert.Equal(t, []any{"Balance", 1104.5}, rows[2])
	assert.Equal(t, MonthsHeader, rows[4])
	assert.Equal(t, []any{"2024-01", 1200.0, 35.5, 1164.5}, rows[5])
	assert.Equal(t, []any{"2024-02", 0.0, 60.0, -60.0}, rows[6])
	assert.Equal(t, CategoriesHeader, rows[8])
	assert.Equal(t, []any{"Transport", 60.0}, rows[9])
	assert.Equal(t, []any{"Food", 35.5}, rows[10])
	assert.Equal(t, []any{"Salary", 0.0}, rows[11])
	assert.Len(t, rows, 12)
}
