package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/feed"
	applog "fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/store"
)

var ErrNotificationNotFound = errors.New("notification not found")

const (
	viewDashboard = "dashboard"
	viewAnalytics = "analytics"
)

// viewKey identifies a cached dashboard or analytics payload
type viewKey struct {
	UserID string
	View   string
	Param  string
}

type (
	// ListRequest selects, orders and searches a user's transactions
	ListRequest struct {
		UserID   string
		Criteria core.Criteria
		Sort     core.SortSpec
		Search   string
	}

	ListResult struct {
		Transactions []core.Transaction `json:"transactions"`
		Totals       report.Totals      `json:"totals"`
		Count        int                `json:"count"`
	}

	Option func(*TransactionService)
)

// TransactionService orchestrates the store, the change feed and the report engine
type TransactionService struct {
	store     store.ReadWriter
	publisher feed.Publisher
	inbox     *feed.Inbox
	views     cache.Cache[viewKey, any]
	now       func() time.Time
}

// WithPublisher sets where change events go after a successful insert
func WithPublisher(p feed.Publisher) Option {
	return func(s *TransactionService) { s.publisher = p }
}

// WithViewCache caches dashboard and analytics payloads per user
func WithViewCache(size int, ttl time.Duration) Option {
	return func(s *TransactionService) { s.views = cache.NewLRUCache[viewKey, any](size, ttl) }
}

func WithClock(now func() time.Time) Option {
	return func(s *TransactionService) { s.now = now }
}

func NewTransactionService(st store.ReadWriter, inbox *feed.Inbox, opts ...Option) *TransactionService {
	s := &TransactionService{
		store: st,
		inbox: inbox,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.inbox == nil {
		s.inbox = feed.NewInbox(feed.DefaultInboxCapacity)
	}
	return s
}

// CleanExpired drops expired cached payloads, letting the service register
// with a cache.Manager.
func (s *TransactionService) CleanExpired() int {
	if s.views == nil {
		return 0
	}
	return s.views.CleanExpired()
}

// Create stores a new transaction and announces it on the change feed
func (s *TransactionService) Create(ctx context.Context, userID string, n core.NewTransaction) (core.Transaction, error) {
	if userID == "" {
		return core.Transaction{}, core.Invalid("user", "user is required")
	}
	n, err := n.Normalize()
	if err != nil {
		return core.Transaction{}, err
	}

	t, err := s.store.Insert(ctx, userID, n)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.Invalidate(userID)

	fields := applog.NewFields().
		WithComponent(applog.ComponentTransaction).
		WithOperation(applog.OpCreate).
		WithUser(userID).
		WithTransaction(t.ID, t.Amount, t.Category)

	// Don't fail the request, the transaction is already stored
	if err := s.publishInserted(ctx, t); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change event", append(fields.ToSlice(), applog.FieldError, err)...)
	}

	slog.InfoContext(ctx, "Transaction created", fields.ToSlice()...)
	return t, nil
}

func (s *TransactionService) publishInserted(ctx context.Context, t core.Transaction) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No publisher configured, skipping change event")
		return nil
	}
	e, err := feed.TransactionInserted(t, s.now())
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, e)
}

// List returns the matching transactions with their totals. A non-empty
// search term narrows the result after filtering and sorting.
func (s *TransactionService) List(ctx context.Context, req ListRequest) (ListResult, error) {
	txs, err := s.store.Query(ctx, store.Query{UserID: req.UserID, Criteria: req.Criteria, Sort: req.Sort})
	if err != nil {
		return ListResult{}, err
	}
	if req.Search != "" {
		txs = report.Search(txs, req.Search)
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	return ListResult{Transactions: txs, Totals: report.Summarize(txs), Count: len(txs)}, nil
}

// Dashboard assembles the dashboard for the named timeframe
func (s *TransactionService) Dashboard(ctx context.Context, userID, timeframe string) (report.Dashboard, error) {
	tf, err := report.ParseTimeframe(timeframe)
	if err != nil {
		return report.Dashboard{}, err
	}
	key := viewKey{UserID: userID, View: viewDashboard, Param: tf.Name}
	if d, ok := cached[report.Dashboard](s, key); ok {
		return d, nil
	}

	txs, err := s.all(ctx, userID)
	if err != nil {
		return report.Dashboard{}, err
	}
	d, err := report.BuildDashboard(txs, tf, s.now())
	if err != nil {
		return report.Dashboard{}, err
	}
	s.remember(key, d)
	return d, nil
}

// Analytics assembles the chart payload for the named timeframe and metric
func (s *TransactionService) Analytics(ctx context.Context, userID, timeframe, metric string) (report.Analytics, error) {
	tf, err := report.ParseTimeframe(timeframe)
	if err != nil {
		return report.Analytics{}, err
	}
	m, err := report.ParseMetric(metric)
	if err != nil {
		return report.Analytics{}, err
	}
	key := viewKey{UserID: userID, View: viewAnalytics, Param: tf.Name + "/" + string(m)}
	if a, ok := cached[report.Analytics](s, key); ok {
		return a, nil
	}

	txs, err := s.all(ctx, userID)
	if err != nil {
		return report.Analytics{}, err
	}
	a, err := report.BuildAnalytics(txs, tf, m, s.now())
	if err != nil {
		return report.Analytics{}, err
	}
	s.remember(key, a)
	return a, nil
}

// Report filters, sorts and summarizes the user's transactions
func (s *TransactionService) Report(ctx context.Context, userID string, c core.Criteria, spec core.SortSpec) (report.Report, error) {
	if err := c.Validate(); err != nil {
		return report.Report{}, err
	}
	txs, err := s.all(ctx, userID)
	if err != nil {
		return report.Report{}, err
	}
	if spec == (core.SortSpec{}) {
		spec = core.DefaultSort
	}
	return report.BuildReport(txs, c, spec)
}

func (s *TransactionService) all(ctx context.Context, userID string) ([]core.Transaction, error) {
	if userID == "" {
		return nil, core.Invalid("user", "user is required")
	}
	txs, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Notifications returns the user's inbox, newest first, and its unread count
func (s *TransactionService) Notifications(userID string) ([]feed.Notification, int) {
	return s.inbox.List(userID), s.inbox.UnreadCount(userID)
}

// MarkRead marks one notification, or all of them when id is empty. It
// returns how many notifications changed state.
func (s *TransactionService) MarkRead(userID, id string) (int, error) {
	if id == "" {
		return s.inbox.MarkAllRead(userID), nil
	}
	for _, n := range s.inbox.List(userID) {
		if n.ID != id {
			continue
		}
		if !n.Unread {
			return 0, nil
		}
		s.inbox.MarkRead(userID, id)
		return 1, nil
	}
	return 0, ErrNotificationNotFound
}

// Invalidate drops every cached payload of userID and reports how many were removed
func (s *TransactionService) Invalidate(userID string) int {
	if s.views == nil {
		return 0
	}
	return s.views.DeleteFunc(func(k viewKey) bool { return k.UserID == userID })
}

// Ping checks the store when it supports health checks
func (s *TransactionService) Ping(ctx context.Context) error {
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

func cached[T any](s *TransactionService, key viewKey) (T, bool) {
	var zero T
	if s.views == nil {
		return zero, false
	}
	v, ok := s.views.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

func (s *TransactionService) remember(key viewKey, v any) {
	if s.views != nil {
		s.views.Set(key, v)
	}
}
