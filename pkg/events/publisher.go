package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"staybook/pkg/logger"
)

const (
	TypeBookingCreated   = "booking.created"
	TypeBookingConfirmed = "booking.confirmed"
	TypeBookingCancelled = "booking.cancelled"
)

// BookingEvent is the audit record emitted after a booking changes state.
// Delivery is best effort; the booking collection stays the source of truth.
type BookingEvent struct {
	Type          string    `json:"type"`
	BookingID     string    `json:"booking_id"`
	RequestID     string    `json:"request_id"`
	UserID        string    `json:"user_id"`
	RoomID        string    `json:"room_id,omitempty"`
	Status        string    `json:"status"`
	FailureReason string    `json:"failure_reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type Publisher struct {
	writer *kafka.Writer
	log    *logger.Logger
}

func NewPublisher(brokers []string, topic string, log *logger.Logger) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Error("Failed to deliver booking events", "count", len(messages), "error", err)
			}
		},
	}
	return &Publisher{writer: writer, log: log}
}

// Publish emits the event without blocking the saga. Failures are logged and
// swallowed.
func (p *Publisher) Publish(ctx context.Context, event BookingEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.log.Error("Failed to encode booking event", "type", event.Type, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.BookingID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-id", Value: []byte(uuid.NewString())},
			{Key: "event-type", Value: []byte(event.Type)},
			{Key: "source", Value: []byte("bookings-service")},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("Failed to publish booking event",
			"type", event.Type,
			"booking_id", event.BookingID,
			"error", err,
		)
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
