// Package summary computes derived rollups over a filtered view of the ledger.
//
// Every function is a pure reduction: none of them modifies its input.
package summary

import (
	"context"
	"slices"
	"strings"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Totals are the overall income, expense and balance figures.
type Totals struct {
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Balance  decimal.Decimal `json:"balance"`
}

// CategoryTotal is the summed expense amount of one category.
type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// MonthTotal holds the income and expense sums of one "YYYY-MM" month.
type MonthTotal struct {
	Month   string          `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// Summary bundles the three rollups of one view.
type Summary struct {
	Totals     Totals          `json:"totals"`
	ByCategory []CategoryTotal `json:"by_category"`
	ByMonth    []MonthTotal    `json:"by_month"`
}

// ComputeTotals sums income and expenses; Balance is Income minus Expenses.
func ComputeTotals(txs []core.Transaction) Totals {
	income, expenses := decimal.Zero, decimal.Zero
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			income = income.Add(tx.Amount)
		case core.Expense:
			expenses = expenses.Add(tx.Amount)
		}
	}
	return Totals{Income: income, Expenses: expenses, Balance: income.Sub(expenses)}
}

// ByCategory returns one row per distinct category in first-seen order. Only expenses
// accumulate, so a category holding only income is present with a zero amount.
// Categories absent from txs are absent from the result.
func ByCategory(txs []core.Transaction) []CategoryTotal {
	out := []CategoryTotal{}
	index := map[string]int{}
	for _, tx := range txs {
		i, ok := index[tx.Category]
		if !ok {
			i = len(out)
			index[tx.Category] = i
			out = append(out, CategoryTotal{Category: tx.Category, Amount: decimal.Zero})
		}
		if tx.Type == core.Expense {
			out[i].Amount = out[i].Amount.Add(tx.Amount)
		}
	}
	return out
}

// ByMonth groups by the "YYYY-MM" key of each date and returns rows in ascending key
// order. Anything that is not an expense counts as income. Transactions with an invalid
// date have no month and are skipped.
func ByMonth(txs []core.Transaction) []MonthTotal {
	out := []MonthTotal{}
	index := map[string]int{}
	for _, tx := range txs {
		if !tx.Date.IsValid() {
			continue
		}
		key := tx.Date.MonthKey()
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, MonthTotal{Month: key, Income: decimal.Zero, Expense: decimal.Zero})
		}
		if tx.Type == core.Expense {
			out[i].Expense = out[i].Expense.Add(tx.Amount)
		} else {
			out[i].Income = out[i].Income.Add(tx.Amount)
		}
	}
	slices.SortFunc(out, func(a, b MonthTotal) int { return strings.Compare(a.Month, b.Month) })
	return out
}

// Summarize runs the three reductions concurrently over the same input.
func Summarize(ctx context.Context, txs []core.Transaction) (Summary, error) {
	var s Summary
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.Totals = ComputeTotals(txs)
		return ctx.Err()
	})
	g.Go(func() error {
		s.ByCategory = ByCategory(txs)
		return ctx.Err()
	})
	g.Go(func() error {
		s.ByMonth = ByMonth(txs)
		return ctx.Err()
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return s, nil
}
