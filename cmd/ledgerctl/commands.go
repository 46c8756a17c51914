package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"fintrack/internal/core"
	"fintrack/internal/query"
)

// Commands are the ledger subcommands registered by main.
var Commands = []subcommands.Command{
	&listCmd{},
	&addCmd{},
	&rmCmd{},
	&searchCmd{},
	&summaryCmd{},
}

// filterFlags are shared by the commands that read a filtered view.
type filterFlags struct {
	category string
	from     string
	to       string
}

func (p *filterFlags) register(f *flag.FlagSet) {
	f.StringVar(&p.category, "c", core.AllCategories, "Only show this category.")
	f.StringVar(&p.from, "from", "", "Inclusive start date (YYYY-MM-DD).")
	f.StringVar(&p.to, "to", "", "Inclusive end date (YYYY-MM-DD).")
}

func (p *filterFlags) filter(text string) (query.Filter, error) {
	f := query.Filter{Query: text, Category: p.category}
	if p.from != "" {
		d, err := core.ParseDate(p.from)
		if err != nil {
			return f, fmt.Errorf("-from: %w", err)
		}
		f.From = d
	}
	if p.to != "" {
		d, err := core.ParseDate(p.to)
		if err != nil {
			return f, fmt.Errorf("-to: %w", err)
		}
		f.To = d
	}
	return f, nil
}

type listCmd struct {
	filterFlags
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list transactions, newest first" }
func (*listCmd) Usage() string {
	return `ledgerctl list [-c <category>] [-from <date>] [-to <date>]

  Lists the transactions of the ledger sorted by date descending.
`
}

func (p *listCmd) SetFlags(f *flag.FlagSet) { p.register(f) }

func (p *listCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return printView(ctx, &p.filterFlags, "", false)
}

type searchCmd struct {
	filterFlags
}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "find transactions by description or category" }
func (*searchCmd) Usage() string {
	return `ledgerctl search [-c <category>] [-from <date>] [-to <date>] <text>

  Lists transactions whose description or category contains text, ignoring case.
`
}

func (p *searchCmd) SetFlags(f *flag.FlagSet) { p.register(f) }

func (p *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: search text is required.")
		return subcommands.ExitUsageError
	}
	return printView(ctx, &p.filterFlags, strings.Join(f.Args(), " "), false)
}

type summaryCmd struct {
	filterFlags
	query string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "show totals by category and by month" }
func (*summaryCmd) Usage() string {
	return `ledgerctl summary [-q <text>] [-c <category>] [-from <date>] [-to <date>]

  Prints income, expenses and balance of the filtered view, followed by
  expenses per category and income and expenses per month.
`
}

func (p *summaryCmd) SetFlags(f *flag.FlagSet) {
	p.register(f)
	f.StringVar(&p.query, "q", "", "Only summarize transactions matching this text.")
}

func (p *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return printView(ctx, &p.filterFlags, p.query, true)
}

func printView(ctx context.Context, flags *filterFlags, text string, withSummary bool) subcommands.ExitStatus {
	filter, err := flags.filter(text)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	svc, closeFn, err := openService(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer closeFn()

	view, err := svc.View(ctx, filter)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if withSummary {
		printMarkdown(SummaryMarkdown(view.Summary))
	} else {
		printMarkdown(TransactionsMarkdown(view.Transactions))
	}
	return subcommands.ExitSuccess
}

type addCmd struct {
	entry core.Entry
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record an income or expense" }
func (*addCmd) Usage() string {
	return `ledgerctl add -type <income|expense> -amount <n> -category <name> [-date <date>] [-id <id>] [description]

  Adds a transaction, or replaces the one with the same -id.
`
}

func (p *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.entry.Type, "type", string(core.Expense), "Transaction type (income, expense).")
	f.StringVar(&p.entry.Amount, "amount", "", "Positive amount, '.' or ',' as decimal separator.")
	f.StringVar(&p.entry.Category, "category", "", "Category name.")
	f.StringVar(&p.entry.Date, "date", core.Today().String(), "Transaction date (YYYY-MM-DD).")
	f.StringVar(&p.entry.ID, "id", "", "Replace the transaction with this id.")
}

func (p *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	entry := p.entry
	entry.Description = strings.Join(f.Args(), " ")

	tx, err := entry.Validate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	svc, closeFn, err := openService(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer closeFn()

	created, rev, err := svc.Upsert(ctx, tx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	verb := "Updated"
	if created {
		verb = "Added"
	}
	fmt.Printf("%s %s %s %s (%s) at revision %d\n", verb, tx.Type, core.FormatUSD(tx.Amount), tx.Category, tx.ID, rev)
	return subcommands.ExitSuccess
}

type rmCmd struct{}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "delete transactions by id" }
func (*rmCmd) Usage() string {
	return `ledgerctl rm <id>...

  Removes the transactions with the given ids. Unknown ids are ignored.
`
}

func (*rmCmd) SetFlags(*flag.FlagSet) {}

func (*rmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one id is required.")
		return subcommands.ExitUsageError
	}

	svc, closeFn, err := openService(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer closeFn()

	var errs []error
	for _, id := range f.Args() {
		removed, rev, err := svc.Remove(ctx, id)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
		case removed:
			fmt.Printf("Removed %s at revision %d\n", id, rev)
		default:
			fmt.Printf("No transaction %s\n", id)
		}
	}
	if err := errors.Join(errs...); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
