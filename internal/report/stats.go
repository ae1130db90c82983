package report

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.New(5, -1)
)

// Totals splits a set of transactions into inflows and outflows. Both are
// non-negative.
type Totals struct {
	Income   decimal.Decimal
	Expenses decimal.Decimal
}

func (t Totals) Net() decimal.Decimal {
	return t.Income.Sub(t.Expenses)
}

func (t Totals) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Income   decimal.Decimal `json:"income"`
		Expenses decimal.Decimal `json:"expenses"`
		Net      decimal.Decimal `json:"net"`
	}{t.Income, t.Expenses, t.Net()})
}

// Summarize totals txs by sign. Zero amounts contribute nothing.
func Summarize(txs []core.Transaction) Totals {
	tot := Totals{Income: decimal.Zero, Expenses: decimal.Zero}
	for _, t := range txs {
		switch t.Amount.Sign() {
		case 1:
			tot.Income = tot.Income.Add(t.Amount)
		case -1:
			tot.Expenses = tot.Expenses.Add(t.Amount.Abs())
		}
	}
	return tot
}

// Stats are the headline figures of the dashboard.
type Stats struct {
	TotalBalance    decimal.Decimal `json:"total_balance"`
	MonthlyIncome   decimal.Decimal `json:"monthly_income"`
	MonthlyExpenses decimal.Decimal `json:"monthly_expenses"`
	// SavingsRate is nil when there was no income this month.
	SavingsRate *int        `json:"savings_rate"`
	Window      core.Window `json:"window"`
	WindowTotal Totals      `json:"window_totals"`
}

// ComputeStats derives the dashboard figures at instant now.
//
// TotalBalance sums every amount in txs. The monthly figures cover the
// first day of now's month through now. WindowTotal covers window.
func ComputeStats(txs []core.Transaction, window core.Window, now time.Time) (Stats, error) {
	if err := window.Validate(); err != nil {
		return Stats{}, err
	}
	month := core.Window{Start: core.StartOfMonth(now), End: now}

	balance := decimal.Zero
	var monthly, windowed []core.Transaction
	for _, t := range txs {
		balance = balance.Add(t.Amount)
		if month.Contains(t.Date) {
			monthly = append(monthly, t)
		}
		if window.Contains(t.Date) {
			windowed = append(windowed, t)
		}
	}

	m := Summarize(monthly)
	s := Stats{
		TotalBalance:    balance,
		MonthlyIncome:   m.Income,
		MonthlyExpenses: m.Expenses,
		Window:          window,
		WindowTotal:     Summarize(windowed),
	}
	rate, err := SavingsRate(m.Income, m.Expenses)
	switch {
	case err == nil:
		s.SavingsRate = &rate
	case !errors.Is(err, core.ErrDivisionUndefined):
		return Stats{}, err
	}
	return s, nil
}

// SavingsRate is round((income-expenses)/income*100), with halves rounded
// toward positive infinity. It may be negative when expenses exceed income.
func SavingsRate(income, expenses decimal.Decimal) (int, error) {
	if income.IsZero() {
		return 0, core.ErrDivisionUndefined
	}
	rate := income.Sub(expenses).Mul(hundred).Div(income)
	return int(rate.Add(half).Floor().IntPart()), nil
}

// SavingsRateLabel renders the rate as "42%" or "N/A".
func (s Stats) SavingsRateLabel() string {
	if s.SavingsRate == nil {
		return "N/A"
	}
	return strconv.Itoa(*s.SavingsRate) + "%"
}
