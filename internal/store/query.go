package store

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Dialect adapts the shared query builder to one database.
type Dialect struct {
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	// Time encodes a time bound for comparison against the date column.
	Time func(t time.Time) any
	// Amount encodes an amount bound for comparison against AmountColumn.
	// lower is true for the minimum bound.
	Amount func(d decimal.Decimal, lower bool) any
	// AmountColumn is the signed amount column or expression.
	AmountColumn string
	// TieBreak orders rows with equal sort keys by insertion.
	TieBreak string
}

var sortColumns = map[core.SortField]string{
	core.SortByDate:     "date",
	core.SortByCategory: "category",
}

// Where builds the WHERE and ORDER BY clauses for q. q must be valid.
func (d Dialect) Where(q Query) (string, []any) {
	var (
		conds []string
		args  []any
	)
	bind := func(v any) string {
		args = append(args, v)
		return d.Placeholder(len(args))
	}

	c := q.Criteria
	conds = append(conds,
		"user_id = "+bind(q.UserID),
		"date >= "+bind(d.Time(c.Start)),
		"date <= "+bind(d.Time(c.End)),
	)

	switch c.Type {
	case core.Income:
		conds = append(conds, "("+d.AmountColumn+" > 0 OR ("+d.AmountColumn+" = 0 AND type = "+bind(string(core.Income))+"))")
	case core.Expense:
		conds = append(conds, "("+d.AmountColumn+" < 0 OR ("+d.AmountColumn+" = 0 AND type = "+bind(string(core.Expense))+"))")
	}
	if c.Category != "" && c.Category != core.AllCategories {
		conds = append(conds, "category = "+bind(c.Category))
	}
	if c.MinAmount != nil {
		conds = append(conds, d.AmountColumn+" >= "+bind(d.Amount(*c.MinAmount, true)))
	}
	if c.MaxAmount != nil {
		conds = append(conds, d.AmountColumn+" <= "+bind(d.Amount(*c.MaxAmount, false)))
	}

	return "WHERE " + strings.Join(conds, " AND ") + " " + d.OrderBy(q.Sort), args
}

// OrderBy renders spec with the dialect tie-break. Fields outside the known
// set fall back to date.
func (d Dialect) OrderBy(spec core.SortSpec) string {
	col, ok := sortColumns[spec.Field]
	if spec.Field == core.SortByAmount {
		col, ok = d.AmountColumn, true
	}
	if !ok {
		col = "date"
	}
	dir := "DESC"
	if spec.Direction == core.Asc {
		dir = "ASC"
	}
	return "ORDER BY " + col + " " + dir + ", " + d.TieBreak + " ASC"
}

// QuestionMark is the SQLite placeholder style.
func QuestionMark(int) string { return "?" }

// Dollar is the Postgres placeholder style.
func Dollar(n int) string { return "$" + strconv.Itoa(n) }
