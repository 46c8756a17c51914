package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"

	"fintrack/internal/core"
	"fintrack/internal/summary"
)

var cellEscaper = strings.NewReplacer("|", `\|`, "\n", " ")

// TransactionsMarkdown renders transactions as a markdown table in the given order.
func TransactionsMarkdown(txs []core.Transaction) string {
	var b strings.Builder
	b.WriteString("# Transactions\n\n")
	if len(txs) == 0 {
		b.WriteString("_No transactions._\n")
		return b.String()
	}
	b.WriteString("| Date | Type | Category | Amount | Description | ID |\n")
	b.WriteString("|:---|:---|:---|---:|:---|:---|\n")
	for _, tx := range txs {
		amount := core.FormatUSD(tx.Amount)
		if tx.Type == core.Expense {
			amount = "-" + amount
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | `%s` |\n",
			tx.Date, tx.Type, cellEscaper.Replace(tx.Category), amount,
			cellEscaper.Replace(tx.Description), tx.ID)
	}
	return b.String()
}

// SummaryMarkdown renders totals, expenses by category and the monthly series.
func SummaryMarkdown(s summary.Summary) string {
	var b strings.Builder
	b.WriteString("# Summary\n\n")
	b.WriteString("| Income | Expenses | Balance |\n")
	b.WriteString("|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %s | %s | %s |\n\n",
		core.FormatUSD(s.Totals.Income), core.FormatUSD(s.Totals.Expenses), core.FormatUSD(s.Totals.Balance))

	b.WriteString("## Expenses by category\n\n")
	if len(s.ByCategory) == 0 {
		b.WriteString("_No categories._\n\n")
	} else {
		b.WriteString("| Category | Amount |\n")
		b.WriteString("|:---|---:|\n")
		for _, c := range s.ByCategory {
			fmt.Fprintf(&b, "| %s | %s |\n", cellEscaper.Replace(c.Category), core.FormatUSD(c.Amount))
		}
		b.WriteString("\n")
	}

	b.WriteString("## By month\n\n")
	if len(s.ByMonth) == 0 {
		b.WriteString("_No dated transactions._\n")
		return b.String()
	}
	b.WriteString("| Month | Income | Expenses |\n")
	b.WriteString("|:---|---:|---:|\n")
	for _, m := range s.ByMonth {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", m.Month, core.FormatUSD(m.Income), core.FormatUSD(m.Expense))
	}
	return b.String()
}

// printMarkdown renders md for the terminal, falling back to the raw text.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Fprintln(os.Stderr, "markdown rendering failed:", err)
	fmt.Print(md)
}
