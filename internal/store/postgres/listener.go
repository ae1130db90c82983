package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"fintrack/internal/feed"
)

const (
	// ChannelName is the NOTIFY channel written by the change trigger.
	ChannelName = "fintrack_changes"

	minReconnectInterval = 10 * time.Second
	maxReconnectInterval = time.Minute
	pingInterval         = 90 * time.Second
)

// Listener is a feed.Stream over Postgres LISTEN/NOTIFY.
type Listener struct {
	connStr string
	buffer  int
}

func NewListener(connStr string) *Listener {
	return &Listener{connStr: connStr, buffer: 64}
}

// Subscribe opens a dedicated listening connection. The returned channel
// closes when ctx is done. pq reconnects on its own after a dropped
// connection; notifications sent while disconnected are lost.
func (l *Listener) Subscribe(ctx context.Context) (<-chan feed.ChangeEvent, error) {
	listener := pq.NewListener(l.connStr, minReconnectInterval, maxReconnectInterval, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnected:
			slog.Info("Connected to Postgres notification channel", "channel", ChannelName)
		case pq.ListenerEventDisconnected:
			slog.Warn("Disconnected from Postgres notification channel", "error", err)
		case pq.ListenerEventReconnected:
			slog.Info("Reconnected to Postgres notification channel", "channel", ChannelName)
		case pq.ListenerEventConnectionAttemptFailed:
			slog.Error("Postgres listener connection attempt failed", "error", err)
		}
	})

	if err := listener.Listen(ChannelName); err != nil {
		listener.Close()
		return nil, fmt.Errorf("listen on %s: %w", ChannelName, err)
	}

	out := make(chan feed.ChangeEvent, l.buffer)
	go l.pump(ctx, listener, out)
	return out, nil
}

func (l *Listener) pump(ctx context.Context, listener *pq.Listener, out chan<- feed.ChangeEvent) {
	defer close(out)
	defer listener.Close()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case n := <-listener.Notify:
			if n == nil {
				// sent after a reconnect
				continue
			}
			e, err := DecodeNotification(n.Extra)
			if err != nil {
				slog.WarnContext(ctx, "Dropping malformed change notification", "error", err)
				continue
			}
			select {
			case out <- e:
			case <-ctx.Done():
				return
			}
		case <-ticker.C:
			go func() {
				if err := listener.Ping(); err != nil {
					slog.Warn("Postgres listener ping failed", "error", err)
				}
			}()
		}
	}
}

// DecodeNotification parses a trigger payload.
func DecodeNotification(payload string) (feed.ChangeEvent, error) {
	e, err := feed.EventFromJSON([]byte(payload))
	if err != nil {
		return feed.ChangeEvent{}, fmt.Errorf("decode notification: %w", err)
	}
	return e, nil
}
