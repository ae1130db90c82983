// Package report turns an in-memory set of transactions into the figures
// shown by the dashboard, analytics and reports views. Every function here
// is pure: inputs are never mutated and no state is kept between calls.
package report

import (
	"slices"
	"strings"

	"fintrack/internal/core"
)

// Filter returns the transactions that satisfy every active predicate of c,
// in input order.
func Filter(txs []core.Transaction, c core.Criteria) ([]core.Transaction, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if c.Matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Search keeps transactions whose description or category contains term,
// ignoring case. An empty term keeps everything.
func Search(txs []core.Transaction, term string) []core.Transaction {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return slices.Clone(txs)
	}
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if strings.Contains(strings.ToLower(t.Description), term) ||
			strings.Contains(strings.ToLower(t.Category), term) {
			out = append(out, t)
		}
	}
	return out
}

// Sort returns a sorted copy. The sort is stable in both directions: equal
// keys keep their input order.
func Sort(txs []core.Transaction, spec core.SortSpec) ([]core.Transaction, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	cmp := compareBy(spec.Field)
	if spec.Direction == core.Desc {
		asc := cmp
		cmp = func(a, b core.Transaction) int { return asc(b, a) }
	}
	out := slices.Clone(txs)
	slices.SortStableFunc(out, cmp)
	return out, nil
}

func compareBy(field core.SortField) func(a, b core.Transaction) int {
	switch field {
	case core.SortByAmount:
		return func(a, b core.Transaction) int { return a.Amount.Cmp(b.Amount) }
	case core.SortByCategory:
		return func(a, b core.Transaction) int { return strings.Compare(a.Category, b.Category) }
	default:
		return func(a, b core.Transaction) int { return a.Date.Compare(b.Date) }
	}
}

// Recent returns up to n transactions, newest first.
func Recent(txs []core.Transaction, n int) []core.Transaction {
	out, _ := Sort(txs, core.SortSpec{Field: core.SortByDate, Direction: core.Desc})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
