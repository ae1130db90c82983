package feed

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

const (
	KindTransaction NotificationKind = "transaction"
	KindAccount     NotificationKind = "account"
	KindSecurity    NotificationKind = "security"
	KindSystem      NotificationKind = "system"
)

type (
	NotificationKind string

	Notification struct {
		ID      string           `json:"id"`
		UserID  string           `json:"user_id"`
		Title   string           `json:"title"`
		Message string           `json:"message"`
		Kind    NotificationKind `json:"type"`
		Time    time.Time        `json:"time"`
		Unread  bool             `json:"unread"`
	}
)

// Describe turns a change event into a user-facing notification. It reports
// false for events that produce nothing to show: account inserts and
// deletes, account updates that change no tracked setting, and payloads
// that cannot be decoded.
func Describe(e ChangeEvent) (Notification, bool) {
	n := Notification{
		ID:     uuid.NewString(),
		UserID: e.UserID,
		Time:   e.OccurredAt,
		Unread: true,
	}
	if n.Time.IsZero() {
		n.Time = time.Now()
	}

	switch e.Entity {
	case EntityTransaction:
		msg, ok := describeTransaction(e)
		if !ok {
			return Notification{}, false
		}
		n.Title, n.Kind, n.Message = "Transaction Update", KindTransaction, msg
	case EntityAccount:
		msg, ok := describeAccount(e)
		if !ok {
			return Notification{}, false
		}
		n.Title, n.Kind, n.Message = "Account Update", KindAccount, msg
	default:
		return Notification{}, false
	}
	return n, true
}

func describeTransaction(e ChangeEvent) (string, bool) {
	switch e.Type {
	case Insert:
		t, ok, err := e.TransactionAfter()
		if err != nil || !ok {
			return "", false
		}
		return "New " + string(t.Kind()) + " of " + core.FormatUSD(t.Amount) + " added for " + t.Category, true
	case Update:
		t, ok, err := e.TransactionAfter()
		if err != nil || !ok {
			return "", false
		}
		return "Transaction updated: " + core.FormatUSD(t.Amount) + " for " + t.Category, true
	case Delete:
		t, ok, err := e.TransactionBefore()
		if err != nil || !ok {
			return "", false
		}
		return "Transaction of " + core.FormatUSD(t.Amount) + " has been deleted", true
	}
	return "", false
}

func describeAccount(e ChangeEvent) (string, bool) {
	if e.Type != Update {
		return "", false
	}
	before, _, err := e.AccountBefore()
	if err != nil {
		return "", false
	}
	after, ok, err := e.AccountAfter()
	if err != nil || !ok {
		return "", false
	}
	changes := AccountChanges(before, after)
	if len(changes) == 0 {
		return "", false
	}
	return "Account settings updated: " + strings.Join(changes, ", "), true
}

// AccountChanges lists the tracked settings that differ, in display order.
func AccountChanges(before, after Account) []string {
	var changes []string
	if before.FullName != after.FullName {
		changes = append(changes, "name")
	}
	if before.EmailNotifications != after.EmailNotifications {
		changes = append(changes, "email notification settings")
	}
	if before.PushNotifications != after.PushNotifications {
		changes = append(changes, "push notification settings")
	}
	if before.Theme != after.Theme {
		changes = append(changes, "theme")
	}
	if before.Language != after.Language {
		changes = append(changes, "language")
	}
	if before.Timezone != after.Timezone {
		changes = append(changes, "timezone")
	}
	return changes
}
