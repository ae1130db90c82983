package report

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const (
	Day   Granularity = "day"
	Month Granularity = "month"
)

type (
	Granularity string

	// Bucket aggregates the transactions of one calendar day or month.
	// Income and Expenses are both non-negative.
	Bucket struct {
		Label    string          `json:"label"`
		Start    time.Time       `json:"start"`
		End      time.Time       `json:"end"`
		Income   decimal.Decimal `json:"income"`
		Expenses decimal.Decimal `json:"expenses"`
	}

	// Timeframe is a named chart range.
	Timeframe struct {
		Name        string      `json:"name"`
		Granularity Granularity `json:"granularity"`
		Count       int         `json:"count"`
	}
)

func (b Bucket) Net() decimal.Decimal {
	return b.Income.Sub(b.Expenses)
}

var timeframes = map[string]Timeframe{
	"7days":   {Name: "7days", Granularity: Day, Count: 7},
	"30days":  {Name: "30days", Granularity: Day, Count: 30},
	"90days":  {Name: "90days", Granularity: Day, Count: 90},
	"1month":  {Name: "1month", Granularity: Month, Count: 1},
	"3months": {Name: "3months", Granularity: Month, Count: 3},
	"6months": {Name: "6months", Granularity: Month, Count: 6},
	"1year":   {Name: "1year", Granularity: Month, Count: 12},
}

// DefaultTimeframe is used when the caller does not pick one.
var DefaultTimeframe = timeframes["6months"]

// ParseTimeframe resolves a preset name. Empty input returns DefaultTimeframe.
func ParseTimeframe(name string) (Timeframe, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultTimeframe, nil
	}
	tf, ok := timeframes[name]
	if !ok {
		return Timeframe{}, core.Invalid("timeframe", "unknown timeframe "+name)
	}
	return tf, nil
}

// Bucketize groups txs into count consecutive calendar buckets ending with
// the one that contains reference. The result is ordered oldest first and
// always has exactly count entries; buckets with no activity hold zeros.
// Transactions outside the covered range are ignored.
func Bucketize(txs []core.Transaction, g Granularity, count int, reference time.Time) ([]Bucket, error) {
	if count <= 0 {
		return nil, core.Invalid("count", "bucket count must be positive")
	}
	if g != Day && g != Month {
		return nil, core.Invalid("granularity", "must be day or month")
	}

	buckets := make([]Bucket, count)
	index := make(map[int]int, count)
	for i := 0; i < count; i++ {
		var start, end time.Time
		var label string
		if g == Day {
			start = core.StartOfDay(reference).AddDate(0, 0, -i)
			end = core.EndOfDay(start)
			label = start.Format("Jan 2")
		} else {
			y, m, _ := reference.Date()
			start = time.Date(y, m-time.Month(i), 1, 0, 0, 0, 0, reference.Location())
			end = start.AddDate(0, 1, 0).Add(-time.Nanosecond)
			label = start.Format("Jan")
		}
		pos := count - 1 - i
		buckets[pos] = Bucket{Label: label, Start: start, End: end, Income: decimal.Zero, Expenses: decimal.Zero}
		index[bucketKey(g, start)] = pos
	}

	for _, t := range txs {
		pos, ok := index[bucketKey(g, t.Date)]
		if !ok {
			continue
		}
		switch t.Amount.Sign() {
		case 1:
			buckets[pos].Income = buckets[pos].Income.Add(t.Amount)
		case -1:
			buckets[pos].Expenses = buckets[pos].Expenses.Add(t.Amount.Abs())
		}
	}
	return buckets, nil
}

// bucketKey identifies a calendar day (yyyymmdd) or month (yyyymm).
func bucketKey(g Granularity, t time.Time) int {
	y, m, d := t.Date()
	if g == Month {
		return y*100 + int(m)
	}
	return y*10000 + int(m)*100 + d
}

// NetSeries returns income minus expenses per bucket.
func NetSeries(buckets []Bucket) []decimal.Decimal {
	out := make([]decimal.Decimal, len(buckets))
	for i, b := range buckets {
		out[i] = b.Net()
	}
	return out
}

// Span is the window covered by a bucket series, from the first bucket's
// start to the last bucket's end.
func Span(buckets []Bucket) core.Window {
	if len(buckets) == 0 {
		return core.Window{}
	}
	return core.Window{Start: buckets[0].Start, End: buckets[len(buckets)-1].End}
}
