// Package feed carries row-level change events from the stores to the
// notification inbox.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fintrack/internal/core"
)

const (
	Insert EventType = "insert"
	Update EventType = "update"
	Delete EventType = "delete"

	EntityTransaction Entity = "transaction"
	EntityAccount     Entity = "account"
)

type (
	EventType string
	Entity    string

	// ChangeEvent describes one row change. Before is empty for inserts and
	// After is empty for deletes.
	ChangeEvent struct {
		Type       EventType       `json:"type"`
		Entity     Entity          `json:"entity"`
		UserID     string          `json:"user_id"`
		Before     json.RawMessage `json:"before,omitempty"`
		After      json.RawMessage `json:"after,omitempty"`
		OccurredAt time.Time       `json:"occurred_at"`
	}

	// Account is the subset of user settings whose changes are reported.
	Account struct {
		ID                 string `json:"id"`
		FullName           string `json:"full_name"`
		EmailNotifications bool   `json:"email_notifications"`
		PushNotifications  bool   `json:"push_notifications"`
		Theme              string `json:"theme"`
		Language           string `json:"language"`
		Timezone           string `json:"timezone"`
	}

	// Stream yields change events until ctx is cancelled, then closes the
	// channel. Subscribing again after a close starts a fresh sequence.
	Stream interface {
		Subscribe(ctx context.Context) (<-chan ChangeEvent, error)
	}

	Publisher interface {
		Publish(ctx context.Context, e ChangeEvent) error
	}
)

// TransactionInserted builds the event emitted after a successful insert.
func TransactionInserted(t core.Transaction, at time.Time) (ChangeEvent, error) {
	after, err := json.Marshal(t)
	if err != nil {
		return ChangeEvent{}, fmt.Errorf("encode transaction: %w", err)
	}
	return ChangeEvent{
		Type:       Insert,
		Entity:     EntityTransaction,
		UserID:     t.UserID,
		After:      after,
		OccurredAt: at,
	}, nil
}

func (e ChangeEvent) Validate() error {
	switch e.Type {
	case Insert, Update, Delete:
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	switch e.Entity {
	case EntityTransaction, EntityAccount:
	default:
		return fmt.Errorf("unknown entity %q", e.Entity)
	}
	return nil
}

func (e ChangeEvent) TransactionBefore() (core.Transaction, bool, error) {
	return decode[core.Transaction](e.Before)
}

func (e ChangeEvent) TransactionAfter() (core.Transaction, bool, error) {
	return decode[core.Transaction](e.After)
}

func (e ChangeEvent) AccountBefore() (Account, bool, error) {
	return decode[Account](e.Before)
}

func (e ChangeEvent) AccountAfter() (Account, bool, error) {
	return decode[Account](e.After)
}

// decode reports false without error when the payload is absent.
func decode[T any](raw json.RawMessage) (T, bool, error) {
	var v T
	if len(raw) == 0 || string(raw) == "null" {
		return v, false, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, err
	}
	return v, true, nil
}

// ToJSON encodes the event for the wire.
func (e ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes and validates a wire event.
func EventFromJSON(data []byte) (ChangeEvent, error) {
	var e ChangeEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return ChangeEvent{}, err
	}
	if err := e.Validate(); err != nil {
		return ChangeEvent{}, err
	}
	return e, nil
}
