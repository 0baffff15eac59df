// Package notify delivers booking mail off the request path. It
// consumes booking events from the bus so a slow or failing mail
// provider never delays an API response.
package notify

import (
	"encoding/json"

	"github.com/vaxpoint/bookings/internal/mailer"
	"github.com/vaxpoint/bookings/pkg/events"
	"github.com/vaxpoint/bookings/pkg/logger"
)

// queue groups consumer instances so each event is mailed once.
const queue = "mailer"

type Consumer struct {
	bus  events.Subscriber
	mail mailer.Service
}

func NewConsumer(bus events.Subscriber, mail mailer.Service) *Consumer {
	return &Consumer{bus: bus, mail: mail}
}

// Start registers the queue subscriptions. Events for users without a
// registered email are dropped.
func (c *Consumer) Start() error {
	if err := c.bus.QueueSubscribe(events.BookingCreated, queue, c.onBookingCreated); err != nil {
		return err
	}
	return c.bus.QueueSubscribe(events.BookingRescheduled, queue, c.onBookingRescheduled)
}

func (c *Consumer) onBookingCreated(msg *events.Message) {
	var event events.BookingCreatedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Error("Failed to decode booking created event", "error", err, "subject", msg.Subject)
		return
	}
	if event.Email == "" {
		return
	}

	if err := c.mail.SendBookingConfirmation(event.Email, event.Name,
		event.SlotDate, event.SlotTime, event.DoseType); err != nil {
		logger.Warn("Failed to send booking confirmation", "error", err, "booking_id", event.BookingID)
	}
}

func (c *Consumer) onBookingRescheduled(msg *events.Message) {
	var event events.BookingRescheduledEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Error("Failed to decode booking rescheduled event", "error", err, "subject", msg.Subject)
		return
	}
	if event.Email == "" {
		return
	}

	if err := c.mail.SendRescheduleNotice(event.Email, event.Name,
		event.SlotDate, event.SlotTime); err != nil {
		logger.Warn("Failed to send reschedule notice", "error", err, "booking_id", event.BookingID)
	}
}
