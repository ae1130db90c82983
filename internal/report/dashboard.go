package report

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const (
	// TopExpenseCategories is how many expense categories the dashboard lists.
	TopExpenseCategories = 5
	// RecentLimit is the length of the dashboard's recent activity list.
	RecentLimit = 5
)

const (
	MetricAll      Metric = "all"
	MetricIncome   Metric = "income"
	MetricExpenses Metric = "expenses"
)

type (
	// Metric selects which series the analytics chart shows.
	Metric string

	Dashboard struct {
		Timeframe         Timeframe          `json:"timeframe"`
		Stats             Stats              `json:"stats"`
		Series            []Bucket           `json:"series"`
		ExpenseCategories []CategoryTotal    `json:"expense_categories"`
		IncomeSources     []CategoryTotal    `json:"income_sources"`
		Categories        []CategoryTotal    `json:"categories"`
		Recent            []core.Transaction `json:"recent"`
	}

	// Series is the chart-ready form of a bucket list. Income or Expenses
	// is nil when the metric excludes it.
	Series struct {
		Labels   []string          `json:"labels"`
		Income   []decimal.Decimal `json:"income,omitempty"`
		Expenses []decimal.Decimal `json:"expenses,omitempty"`
	}

	Analytics struct {
		Timeframe     Timeframe         `json:"timeframe"`
		Metric        Metric            `json:"metric"`
		Chart         Series            `json:"chart"`
		Net           []decimal.Decimal `json:"net"`
		Categories    []CategoryTotal   `json:"categories"`
		IncomeSources []CategoryTotal   `json:"income_sources"`
	}

	Report struct {
		Criteria     core.Criteria      `json:"criteria"`
		Transactions []core.Transaction `json:"transactions"`
		Totals       Totals             `json:"totals"`
		Categories   []CategoryTotal    `json:"categories"`
		Count        int                `json:"count"`
	}
)

// ParseMetric accepts all, income or expenses; empty means all.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return MetricAll, nil
	case MetricAll, MetricIncome, MetricExpenses:
		return m, nil
	default:
		return "", core.Invalid("metric", "must be all, income or expenses")
	}
}

// BuildDashboard assembles the dashboard view at instant now. The stats
// window is the span of the timeframe's buckets; the category list and the
// recent activity cover every transaction in txs.
func BuildDashboard(txs []core.Transaction, tf Timeframe, now time.Time) (Dashboard, error) {
	buckets, err := Bucketize(txs, tf.Granularity, tf.Count, now)
	if err != nil {
		return Dashboard{}, err
	}
	stats, err := ComputeStats(txs, Span(buckets), now)
	if err != nil {
		return Dashboard{}, err
	}
	breakdown := BreakdownByCategory(txs)
	return Dashboard{
		Timeframe:         tf,
		Stats:             stats,
		Series:            buckets,
		ExpenseCategories: CategoriesWithKind(breakdown, txs, core.Expense, TopExpenseCategories),
		IncomeSources:     CategoriesWithKind(breakdown, txs, core.Income, 0),
		Categories:        breakdown,
		Recent:            Recent(txs, RecentLimit),
	}, nil
}

// BuildAnalytics assembles the analytics view at instant now.
func BuildAnalytics(txs []core.Transaction, tf Timeframe, metric Metric, now time.Time) (Analytics, error) {
	buckets, err := Bucketize(txs, tf.Granularity, tf.Count, now)
	if err != nil {
		return Analytics{}, err
	}
	breakdown := BreakdownByCategory(txs)
	return Analytics{
		Timeframe:     tf,
		Metric:        metric,
		Chart:         ChartSeries(buckets, metric),
		Net:           NetSeries(buckets),
		Categories:    breakdown,
		IncomeSources: CategoriesWithKind(breakdown, txs, core.Income, 0),
	}, nil
}

// ChartSeries flattens buckets into parallel label/value slices.
func ChartSeries(buckets []Bucket, metric Metric) Series {
	s := Series{Labels: make([]string, len(buckets))}
	withIncome := metric != MetricExpenses
	withExpenses := metric != MetricIncome
	if withIncome {
		s.Income = make([]decimal.Decimal, len(buckets))
	}
	if withExpenses {
		s.Expenses = make([]decimal.Decimal, len(buckets))
	}
	for i, b := range buckets {
		s.Labels[i] = b.Label
		if withIncome {
			s.Income[i] = b.Income
		}
		if withExpenses {
			s.Expenses[i] = b.Expenses
		}
	}
	return s
}

// BuildReport filters txs by c and orders the result by spec. Totals and
// the category breakdown cover the filtered set.
func BuildReport(txs []core.Transaction, c core.Criteria, spec core.SortSpec) (Report, error) {
	filtered, err := Filter(txs, c)
	if err != nil {
		return Report{}, err
	}
	sorted, err := Sort(filtered, spec)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Criteria:     c,
		Transactions: sorted,
		Totals:       Summarize(sorted),
		Categories:   BreakdownByCategory(sorted),
		Count:        len(sorted),
	}, nil
}
