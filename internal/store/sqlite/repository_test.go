package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

var day = time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "data", "fintrack.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func insert(t *testing.T, r *Repository, user string, kind core.Kind, amount string, category string, date time.Time) core.Transaction {
	t.Helper()
	tr, err := r.Insert(context.Background(), user, core.NewTransaction{
		Type:        kind,
		Amount:      decimal.RequireFromString(amount),
		Category:    category,
		Description: category + " entry",
		Date:        date,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	return tr
}

func TestInsertAndList(t *testing.T) {
	r := newTestRepo(t)
	got := insert(t, r, "u1", core.Expense, "12.34", "Food", day)
	if !got.Amount.Equal(decimal.RequireFromString("-12.34")) {
		t.Fatalf("expense should be stored negative, got %s", got.Amount)
	}

	list, err := r.List(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one row, got %d", len(list))
	}
	row := list[0]
	if row.ID != got.ID || !row.Amount.Equal(got.Amount) || !row.Date.Equal(day) || row.Type != core.Expense {
		t.Fatalf("round trip mismatch: %+v vs %+v", row, got)
	}

	if others, _ := r.List(context.Background(), "u2"); len(others) != 0 {
		t.Fatalf("u2 should see nothing, got %d rows", len(others))
	}
}

func TestInsertRejectsInvalid(t *testing.T) {
	r := newTestRepo(t)
	_, err := r.Insert(context.Background(), "u1", core.NewTransaction{Type: core.Income, Amount: decimal.NewFromInt(-5), Category: "x", Description: "y", Date: day})
	if !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestQuery(t *testing.T) {
	r := newTestRepo(t)
	insert(t, r, "u1", core.Income, "5000", "Salary", day.AddDate(0, 0, -5))
	insert(t, r, "u1", core.Expense, "1500", "Housing", day.AddDate(0, 0, -3))
	insert(t, r, "u1", core.Expense, "200", "Food", day.AddDate(0, 0, -2))
	insert(t, r, "u1", core.Expense, "100", "Food", day.AddDate(0, 0, -2))
	insert(t, r, "u1", core.Income, "1000", "Investment", day)
	insert(t, r, "u1", core.Expense, "999", "Food", day.AddDate(0, -2, 0))
	insert(t, r, "u2", core.Expense, "50", "Food", day)

	base := store.Query{UserID: "u1", Criteria: core.Criteria{Window: core.MonthToDate(day)}}
	lo := decimal.RequireFromString("-199.995")
	hi := decimal.NewFromInt(0)

	cases := []struct {
		name   string
		mutate func(q *store.Query)
		want   []string
	}{
		{"month newest first", func(q *store.Query) {}, []string{"Investment", "Food", "Food", "Housing", "Salary"}},
		{"expenses by amount", func(q *store.Query) {
			q.Criteria.Type = core.Expense
			q.Sort = core.SortSpec{Field: core.SortByAmount, Direction: core.Asc}
		}, []string{"Housing", "Food", "Food"}},
		{"income only", func(q *store.Query) { q.Criteria.Type = core.Income }, []string{"Investment", "Salary"}},
		{"category", func(q *store.Query) {
			q.Criteria.Category = "Food"
			q.Sort = core.SortSpec{Field: core.SortByDate, Direction: core.Asc}
		}, []string{"Food", "Food"}},
		{"amount bounds", func(q *store.Query) {
			q.Criteria.MinAmount = &lo
			q.Criteria.MaxAmount = &hi
		}, []string{"Food"}},
		{"by category", func(q *store.Query) {
			q.Sort = core.SortSpec{Field: core.SortByCategory, Direction: core.Asc}
		}, []string{"Food", "Food", "Housing", "Investment", "Salary"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := base
			tc.mutate(&q)
			got, err := r.Query(context.Background(), q)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %d rows, want %d", len(got), len(tc.want))
			}
			for i := range tc.want {
				if got[i].Category != tc.want[i] || got[i].UserID != "u1" {
					t.Fatalf("row %d = %s/%s, want %s", i, got[i].UserID, got[i].Category, tc.want[i])
				}
			}
		})
	}
}

func TestQueryTiesKeepInsertionOrder(t *testing.T) {
	r := newTestRepo(t)
	first := insert(t, r, "u1", core.Expense, "10", "A", day)
	second := insert(t, r, "u1", core.Expense, "10", "B", day)

	for _, dir := range []core.Direction{core.Asc, core.Desc} {
		got, err := r.Query(context.Background(), store.Query{
			UserID:   "u1",
			Criteria: core.Criteria{Window: core.MonthToDate(day)},
			Sort:     core.SortSpec{Field: core.SortByAmount, Direction: dir},
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 || got[0].ID != first.ID || got[1].ID != second.ID {
			t.Fatalf("%s: ties should keep insertion order", dir)
		}
	}
}

func TestQueryValidates(t *testing.T) {
	r := newTestRepo(t)
	w := core.MonthToDate(day)
	_, err := r.Query(context.Background(), store.Query{UserID: "u1", Criteria: core.Criteria{Window: core.Window{Start: w.End, End: w.Start}}})
	if !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fintrack.db")
	for i := 0; i < 2; i++ {
		r, err := NewRepository(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		r.Close()
	}
}
