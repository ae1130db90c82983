package report

import (
	"slices"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// BreakdownByCategory sums |amount| per category, income and expenses
// together, largest first. Categories with equal totals keep the order in
// which they first appear in txs. Category names are compared exactly.
func BreakdownByCategory(txs []core.Transaction) []CategoryTotal {
	var out []CategoryTotal
	pos := make(map[string]int)
	for _, t := range txs {
		i, ok := pos[t.Category]
		if !ok {
			i = len(out)
			pos[t.Category] = i
			out = append(out, CategoryTotal{Category: t.Category, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(t.Amount.Abs())
	}
	slices.SortStableFunc(out, func(a, b CategoryTotal) int { return b.Total.Cmp(a.Total) })
	return out
}

// CategoriesWithKind keeps the entries of breakdown whose category has at
// least one transaction of the given kind in txs, preserving breakdown
// order. A limit <= 0 means no limit.
func CategoriesWithKind(breakdown []CategoryTotal, txs []core.Transaction, kind core.Kind, limit int) []CategoryTotal {
	want := 1
	if kind == core.Expense {
		want = -1
	}
	seen := make(map[string]bool)
	for _, t := range txs {
		if t.Amount.Sign() == want {
			seen[t.Category] = true
		}
	}

	out := make([]CategoryTotal, 0)
	for _, c := range breakdown {
		if !seen[c.Category] {
			continue
		}
		out = append(out, c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
