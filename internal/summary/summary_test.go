package summary

import (
	"context"
	"testing"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(id string, typ core.TransactionType, amount, category, date string) core.Transaction {
	d, _ := core.ParseDate(date)
	return core.Transaction{ID: id, Type: typ, Amount: decimal.RequireFromString(amount), Category: category, Date: d}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "%s: want %s, got %s", msg, want, got)
}

func example() []core.Transaction {
	return []core.Transaction{
		tx("1", core.Expense, "35.50", "Food", "2024-01-10"),
		tx("2", core.Income, "1200", "Income", "2024-01-15"),
		tx("3", core.Expense, "60", "Transport", "2024-02-01"),
	}
}

func TestComputeTotalsExample(t *testing.T) {
	got := ComputeTotals(example())
	assertDec(t, "1200", got.Income, "income")
	assertDec(t, "95.50", got.Expenses, "expenses")
	assertDec(t, "1104.50", got.Balance, "balance")
}

func TestComputeTotalsBalanceIdentity(t *testing.T) {
	all := example()
	subsets := [][]core.Transaction{nil, {}, all[:1], all[1:2], all[1:], all}
	for _, sub := range subsets {
		got := ComputeTotals(sub)
		assert.True(t, got.Balance.Equal(got.Income.Sub(got.Expenses)))
	}

	empty := ComputeTotals(nil)
	assert.True(t, empty.Income.IsZero())
	assert.True(t, empty.Expenses.IsZero())
	assert.True(t, empty.Balance.IsZero())
}

func TestByCategoryFirstSeenOrderExpensesOnly(t *testing.T) {
	txs := []core.Transaction{
		tx("1", core.Expense, "10", "Transport", "2024-01-01"),
		tx("2", core.Income, "100", "Salary", "2024-01-02"),
		tx("3", core.Expense, "5.25", "Food", "2024-01-03"),
		tx("4", core.Expense, "4.75", "Transport", "2024-01-04"),
		tx("5", core.Income, "7", "Food", "2024-01-05"),
	}
	got := ByCategory(txs)
	require.Len(t, got, 3)
	assert.Equal(t, "Transport", got[0].Category)
	assertDec(t, "14.75", got[0].Amount, "Transport")
	assert.Equal(t, "Salary", got[1].Category)
	assertDec(t, "0", got[1].Amount, "income-only category")
	assert.Equal(t, "Food", got[2].Category)
	assertDec(t, "5.25", got[2].Amount, "Food ignores income")
}

func TestByCategoryOnlyPresentCategories(t *testing.T) {
	got := ByCategory(example()[:1])
	require.Len(t, got, 1)
	assert.Equal(t, "Food", got[0].Category)

	assert.Empty(t, ByCategory(nil))
	assert.NotNil(t, ByCategory(nil))
}

func TestByMonthExample(t *testing.T) {
	got := ByMonth(example())
	require.Len(t, got, 2)
	assert.Equal(t, "2024-01", got[0].Month)
	assertDec(t, "35.50", got[0].Expense, "jan expense")
	assertDec(t, "1200", got[0].Income, "jan income")
	assert.Equal(t, "2024-02", got[1].Month)
	assertDec(t, "60", got[1].Expense, "feb expense")
	assertDec(t, "0", got[1].Income, "feb income")
}

func TestByMonthSortedAndSkipsInvalidDates(t *testing.T) {
	txs := []core.Transaction{
		tx("1", core.Expense, "1", "Food", "2024-11-05"),
		tx("2", core.Expense, "1", "Food", "2023-12-31"),
		tx("3", core.Income, "2", "Salary", "2024-02-29"),
		tx("4", core.Expense, "9", "Food", "nope"),
		tx("5", core.Expense, "3", "Food", "2024-11-30"),
	}
	got := ByMonth(txs)
	months := make([]string, len(got))
	for i, m := range got {
		months[i] = m.Month
	}
	assert.Equal(t, []string{"2023-12", "2024-02", "2024-11"}, months)
	assertDec(t, "4", got[2].Expense, "nov expense")
}

func TestByMonthCountsUnknownTypeAsIncome(t *testing.T) {
	txs := []core.Transaction{
		tx("1", core.Expense, "5", "Food", "2024-03-01"),
		tx("2", core.TransactionType("refund"), "7", "Food", "2024-03-02"),
	}
	got := ByMonth(txs)
	require.Len(t, got, 1)
	assertDec(t, "7", got[0].Income, "unknown type income")
	assertDec(t, "5", got[0].Expense, "expense")

	totals := ComputeTotals(txs)
	assertDec(t, "0", totals.Income, "totals count only income records")
}

func TestSummarizeMatchesReductions(t *testing.T) {
	all := example()
	s, err := Summarize(context.Background(), all)
	require.NoError(t, err)
	assert.Equal(t, ComputeTotals(all), s.Totals)
	assert.Equal(t, ByCategory(all), s.ByCategory)
	assert.Equal(t, ByMonth(all), s.ByMonth)
	assert.Equal(t, []string{"1", "2", "3"}, []string{all[0].ID, all[1].ID, all[2].ID}, "input untouched")
}

func TestSummarizeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Summarize(ctx, example())
	assert.ErrorIs(t, err, context.Canceled)
}
