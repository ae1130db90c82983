package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

var ref = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func tx(id string, amount int64, category string, date time.Time) core.Transaction {
	kind := core.Income
	if amount < 0 {
		kind = core.Expense
	}
	return core.Transaction{
		ID:          id,
		UserID:      "u1",
		Date:        date,
		Type:        kind,
		Amount:      decimal.NewFromInt(amount),
		Category:    category,
		Description: category + " " + id,
	}
}

func daysAgo(n int) time.Time {
	return ref.AddDate(0, 0, -n)
}

// sample mirrors a small month of activity.
func sample() []core.Transaction {
	return []core.Transaction{
		tx("1", 5000, "Salary", daysAgo(5)),
		tx("2", -1500, "Housing", daysAgo(3)),
		tx("3", -200, "Food", daysAgo(2)),
		tx("4", -100, "Transportation", daysAgo(1)),
		tx("5", 1000, "Investment", daysAgo(0)),
	}
}

func ids(txs []core.Transaction) []string {
	out := make([]string, len(txs))
	for i, t := range txs {
		out[i] = t.ID
	}
	return out
}

func equalIDs(t *testing.T, got []core.Transaction, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("got ids %v, want %v", g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("got ids %v, want %v", g, want)
		}
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func equalDec(t *testing.T, what string, got, want decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Fatalf("%s = %s, want %s", what, got, want)
	}
}
