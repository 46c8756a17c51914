package sheets

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	TransactionsHeader = []any{"ID", "Date", "Type", "Category", "Description", "Amount"}
	MonthsHeader       = []any{"Month", "Income", "Expense", "Balance"}
	CategoriesHeader   = []any{"Category", "Expenses"}
)

// TransactionRows lays out the transactions of r, header first, in the order given.
func TransactionRows(r Report) [][]any {
	rows := make([][]any, 0, len(r.Transactions)+1)
	rows = append(rows, TransactionsHeader)
	for _, tx := range r.Transactions {
		rows = append(rows, []any{
			tx.ID,
			tx.Date.String(),
			tx.Type.String(),
			tx.Category,
			tx.Description,
			number(tx.Amount),
		})
	}
	return rows
}

// SummaryRows lays out the totals, the monthly series and the category breakdown of r.
func SummaryRows(r Report) [][]any {
	s := r.Summary
	rows := [][]any{
		{"Generated", r.GeneratedAt.UTC().Format("2006-01-02 15:04:05"), "Revision", fmt.Sprint(r.Revision)},
		{"Income", number(s.Totals.Income), "Expenses", number(s.Totals.Expenses)},
		{"Balance", number(s.Totals.Balance)},
		{},
		MonthsHeader,
	}
	for _, m := range s.ByMonth {
		rows = append(rows, []any{m.Month, number(m.Income), number(m.Expense), number(m.Income.Sub(m.Expense))})
	}
	rows = append(rows, []any{}, CategoriesHeader)
	for _, c := range s.ByCategory {
		rows = append(rows, []any{c.Category, number(c.Amount)})
	}
	return rows
}

func number(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
