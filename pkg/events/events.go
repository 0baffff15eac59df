package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/vaxpoint/bookings/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
		})
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Event subjects
const (
	UserRegistered     = "user.registered"
	BookingCreated     = "booking.created"
	BookingRescheduled = "booking.rescheduled"
)

// Event payloads
type UserRegisteredEvent struct {
	Phone        int64     `json:"phone"`
	Name         string    `json:"name"`
	RegisteredAt time.Time `json:"registered_at"`
}

type BookingCreatedEvent struct {
	BookingID int64     `json:"booking_id"`
	Phone     int64     `json:"phone"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	SlotDate  string    `json:"slot_date"`
	SlotTime  string    `json:"slot_time"`
	DoseType  string    `json:"dose_type"`
	CreatedAt time.Time `json:"created_at"`
}

type BookingRescheduledEvent struct {
	BookingID     int64     `json:"booking_id"`
	Phone         int64     `json:"phone"`
	Name          string    `json:"name"`
	Email         string    `json:"email,omitempty"`
	OldSlotDate   string    `json:"old_slot_date"`
	OldSlotTime   string    `json:"old_slot_time"`
	SlotDate      string    `json:"slot_date"`
	SlotTime      string    `json:"slot_time"`
	RescheduledAt time.Time `json:"rescheduled_at"`
}
