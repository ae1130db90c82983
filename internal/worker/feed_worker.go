package worker

import (
	"context"
	"log/slog"
	"time"

	"fintrack/internal/feed"
	applog "fintrack/internal/log"
)

const defaultRetryInterval = 2 * time.Second

// Invalidator drops cached views that depend on a user's data
type Invalidator interface {
	Invalidate(userID string) int
}

// FeedWorker turns change events into inbox notifications and keeps cached
// dashboards fresh
type FeedWorker struct {
	stream        feed.Stream
	inbox         *feed.Inbox
	invalidator   Invalidator
	retryInterval time.Duration
}

func NewFeedWorker(stream feed.Stream, inbox *feed.Inbox, invalidator Invalidator) *FeedWorker {
	return &FeedWorker{
		stream:        stream,
		inbox:         inbox,
		invalidator:   invalidator,
		retryInterval: defaultRetryInterval,
	}
}

// SetRetryInterval sets the pause between failed subscriptions
func (w *FeedWorker) SetRetryInterval(d time.Duration) {
	if d > 0 {
		w.retryInterval = d
	}
}

// Run consumes the stream until ctx is cancelled. A closed or failed
// subscription is retried.
func (w *FeedWorker) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "Feed worker started")
	defer slog.InfoContext(ctx, "Feed worker stopped")

	for {
		events, err := w.stream.Subscribe(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to subscribe to change feed", "error", err)
		} else {
			w.drain(ctx, events)
		}

		if ctx.Err() != nil {
			return nil
		}
		slog.WarnContext(ctx, "Change feed closed, resubscribing", "retry_in", w.retryInterval)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.retryInterval):
		}
	}
}

func (w *FeedWorker) drain(ctx context.Context, events <-chan feed.ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			w.HandleEvent(ctx, e)
		}
	}
}

// HandleEvent applies one change event. Events that do not describe a
// visible change still invalidate the user's cached views.
func (w *FeedWorker) HandleEvent(ctx context.Context, e feed.ChangeEvent) {
	if w.invalidator != nil && e.Entity == feed.EntityTransaction {
		w.invalidator.Invalidate(e.UserID)
	}

	fields := applog.NewFields().
		WithComponent(applog.ComponentWorker).
		WithEvent(string(e.Type), string(e.Entity)).
		WithUser(e.UserID)

	n, ok := feed.Describe(e)
	if !ok {
		slog.DebugContext(ctx, "Change event produced no notification", fields.ToSlice()...)
		return
	}
	w.inbox.Add(n)

	slog.InfoContext(ctx, "Notification delivered", append(fields.ToSlice(), "notification_id", n.ID)...)
}
