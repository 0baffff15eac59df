package mailer

import (
	"github.com/vaxpoint/bookings/pkg/logger"
)

// DevMailer logs mail instead of sending it.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendBookingConfirmation(toEmail, toName, date, slot, doseType string) error {
	logger.Info("[DEV MAIL] Booking confirmation",
		"to", toEmail,
		"name", toName,
		"date", date,
		"slot", slot,
		"dose_type", doseType,
	)
	return nil
}

func (d *DevMailer) SendRescheduleNotice(toEmail, toName, date, slot string) error {
	logger.Info("[DEV MAIL] Reschedule notice",
		"to", toEmail,
		"name", toName,
		"date", date,
		"slot", slot,
	)
	return nil
}
