// Package query derives the filtered, date-ordered view of the ledger.
package query

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// Filter selects transactions. Zero fields match everything.
type Filter struct {
	// Query is matched case-insensitively against "description category".
	Query string
	// Category is matched exactly; "All" or empty matches any category.
	Category string
	// From and To are inclusive bounds; the invalid (zero) date leaves a side unbounded.
	From core.Date
	To   core.Date
}

// Key returns a stable representation of f, suitable as a cache key. Text fields are
// quoted so no two distinct filters share a key.
func (f Filter) Key() string {
	return strconv.Quote(f.Query) + "|" + strconv.Quote(f.Category) + "|" + f.From.String() + "|" + f.To.String()
}

// Matches reports whether tx satisfies every predicate of f.
func (f Filter) Matches(tx core.Transaction) bool {
	return f.matchesText(tx) && f.matchesCategory(tx) && f.matchesDates(tx)
}

func (f Filter) matchesText(tx core.Transaction) bool {
	if f.Query == "" {
		return true
	}
	haystack := strings.ToLower(tx.Description + " " + tx.Category)
	return strings.Contains(haystack, strings.ToLower(f.Query))
}

func (f Filter) matchesCategory(tx core.Transaction) bool {
	return f.Category == "" || f.Category == core.AllCategories || f.Category == tx.Category
}

// A record with an invalid date fails any set bound.
func (f Filter) matchesDates(tx core.Transaction) bool {
	if f.From.IsValid() && (!tx.Date.IsValid() || tx.Date.Before(f.From)) {
		return false
	}
	if f.To.IsValid() && (!tx.Date.IsValid() || tx.Date.After(f.To)) {
		return false
	}
	return true
}

// Apply returns the transactions of all matching f, sorted by date descending.
// Equal dates keep their relative input order. all is never modified.
func Apply(all []core.Transaction, f Filter) []core.Transaction {
	out := make([]core.Transaction, 0, len(all))
	for _, tx := range all {
		if f.Matches(tx) {
			out = append(out, tx)
		}
	}
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		return b.Date.Compare(a.Date)
	})
	return out
}

// ParseFilter builds a Filter from the q, category, from and to parameters.
// Unparseable bounds are ignored.
func ParseFilter(v url.Values) Filter {
	f := Filter{
		Query:    v.Get("q"),
		Category: strings.TrimSpace(v.Get("category")),
	}
	if d, err := core.ParseDate(v.Get("from")); err == nil {
		f.From = d
	}
	if d, err := core.ParseDate(v.Get("to")); err == nil {
		f.To = d
	}
	return f
}

// Values is the inverse of ParseFilter.
func (f Filter) Values() url.Values {
	v := url.Values{}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	if f.From.IsValid() {
		v.Set("from", f.From.String())
	}
	if f.To.IsValid() {
		v.Set("to", f.To.String())
	}
	return v
}
