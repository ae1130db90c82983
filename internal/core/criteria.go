package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	SortByDate     SortField = "date"
	SortByAmount   SortField = "amount"
	SortByCategory SortField = "category"

	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type (
	SortField string
	Direction string

	// Window is an inclusive [Start, End] range.
	Window struct {
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
	}

	// Criteria selects transactions. Start and End are always set; the
	// remaining fields are optional.
	Criteria struct {
		Window
		Type      Kind             `json:"type,omitempty"`
		Category  string           `json:"category,omitempty"`
		MinAmount *decimal.Decimal `json:"min_amount,omitempty"`
		MaxAmount *decimal.Decimal `json:"max_amount,omitempty"`
	}

	SortSpec struct {
		Field     SortField `json:"field"`
		Direction Direction `json:"direction"`
	}
)

// DefaultSort is newest first.
var DefaultSort = SortSpec{Field: SortByDate, Direction: Desc}

func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return Invalid("window", "start and end are required")
	}
	if w.Start.After(w.End) {
		return Invalid("window", "start date is after end date")
	}
	return nil
}

// Contains reports whether t lies in the window, both ends included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func (c Criteria) Validate() error {
	if err := c.Window.Validate(); err != nil {
		return err
	}
	switch c.Type {
	case "", AllKinds, Income, Expense:
	default:
		return Invalid("type", "must be all, income or expense")
	}
	if c.MinAmount != nil && c.MaxAmount != nil && c.MinAmount.GreaterThan(*c.MaxAmount) {
		return Invalid("amount", "min amount is greater than max amount")
	}
	return nil
}

// MatchesType is true when no type filter is active or the derived kind matches.
func (c Criteria) MatchesType(t Transaction) bool {
	return c.Type == "" || c.Type == AllKinds || t.Kind() == c.Type
}

func (c Criteria) MatchesCategory(t Transaction) bool {
	return c.Category == "" || c.Category == AllCategories || t.Category == c.Category
}

func (c Criteria) Matches(t Transaction) bool {
	if !c.Contains(t.Date) || !c.MatchesType(t) || !c.MatchesCategory(t) {
		return false
	}
	if c.MinAmount != nil && t.Amount.LessThan(*c.MinAmount) {
		return false
	}
	if c.MaxAmount != nil && t.Amount.GreaterThan(*c.MaxAmount) {
		return false
	}
	return true
}

// MonthToDate is the default window of the transactions and reports views:
// first day of now's month through the end of now's day.
func MonthToDate(now time.Time) Window {
	return Window{
		Start: StartOfMonth(now),
		End:   EndOfDay(now),
	}
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// ParseSortSpec reads a field and direction; empty values fall back to DefaultSort.
func ParseSortSpec(field, direction string) (SortSpec, error) {
	spec := DefaultSort
	if f := strings.ToLower(strings.TrimSpace(field)); f != "" {
		spec.Field = SortField(f)
	}
	if d := strings.ToLower(strings.TrimSpace(direction)); d != "" {
		spec.Direction = Direction(d)
	}
	return spec, spec.Validate()
}

func (s SortSpec) Validate() error {
	switch s.Field {
	case SortByDate, SortByAmount, SortByCategory:
	default:
		return Invalid("sort", "must be date, amount or category")
	}
	switch s.Direction {
	case Asc, Desc:
	default:
		return Invalid("direction", "must be asc or desc")
	}
	return nil
}
