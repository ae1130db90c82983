package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/report"
	"fintrack/internal/store"
)

type Store struct {
	mu    sync.RWMutex
	items []core.Transaction
	now   func() time.Time
}

func New() *Store {
	return &Store{now: time.Now}
}

// NewWithDemo returns a store holding the demo month for userID, dated
// relative to now.
func NewWithDemo(userID string, now time.Time) *Store {
	s := New()
	s.items = DemoTransactions(userID, now)
	return s
}

// Insert stores the transaction and returns it with a generated ID.
func (s *Store) Insert(_ context.Context, userID string, n core.NewTransaction) (core.Transaction, error) {
	n, err := n.Normalize()
	if err != nil {
		return core.Transaction{}, err
	}
	t := n.Transaction(uuid.NewString(), userID, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, t)
	return t, nil
}

func (s *Store) Query(_ context.Context, q store.Query) ([]core.Transaction, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	filtered, err := report.Filter(s.forUser(q.UserID), q.Criteria)
	if err != nil {
		return nil, err
	}
	return report.Sort(filtered, q.Sort)
}

func (s *Store) List(_ context.Context, userID string) ([]core.Transaction, error) {
	return s.forUser(userID), nil
}

// Len returns the number of stored transactions across all users.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) Close() error { return nil }

func (s *Store) forUser(userID string) []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.DeleteFunc(slices.Clone(s.items), func(t core.Transaction) bool {
		return t.UserID != userID
	})
}

// DemoTransactions is the sample activity shown to a fresh user: a salary,
// three expenses and a dividend over the last five days.
func DemoTransactions(userID string, now time.Time) []core.Transaction {
	seed := []struct {
		days        int
		amount      int64
		category    string
		description string
	}{
		{5, 5000, "Salary", "Monthly Salary"},
		{3, -1500, "Housing", "Rent Payment"},
		{2, -200, "Food", "Grocery Shopping"},
		{1, -100, "Transportation", "Fuel"},
		{0, 1000, "Investment", "Stock Dividends"},
	}

	out := make([]core.Transaction, 0, len(seed))
	for _, d := range seed {
		kind := core.Income
		if d.amount < 0 {
			kind = core.Expense
		}
		date := now.Add(-time.Duration(d.days) * 24 * time.Hour)
		out = append(out, core.Transaction{
			ID:          uuid.NewString(),
			UserID:      userID,
			Date:        date,
			Type:        kind,
			Amount:      decimal.NewFromInt(d.amount),
			Category:    d.category,
			Description: d.description,
			CreatedAt:   date,
		})
	}
	return out
}
