package amqp

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"fintrack/internal/feed"
)

// MessageType tags change-event publishings.
const MessageType = "fintrack.change"

// NewPublishing wraps a change event into a persistent JSON message.
func NewPublishing(e feed.ChangeEvent) (amqp091.Publishing, error) {
	if err := e.Validate(); err != nil {
		return amqp091.Publishing{}, err
	}
	body, err := e.ToJSON()
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	ts := e.OccurredAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    uuid.NewString(),
		Type:         MessageType,
		Timestamp:    ts,
		Body:         body,
	}, nil
}

// EventFromDelivery decodes a consumed message body.
func EventFromDelivery(body []byte) (feed.ChangeEvent, error) {
	e, err := feed.EventFromJSON(body)
	if err != nil {
		return feed.ChangeEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return e, nil
}
