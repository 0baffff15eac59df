package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

type MailerSendClient struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	m := &MailerSendClient{
		enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}

	return m
}

func (m *MailerSendClient) SendBookingConfirmation(toEmail, toName, date, slot, doseType string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	dose := "first"
	if doseType == "second_dose" {
		dose = "second"
	}

	subject := "Your vaccination slot is confirmed"
	html := fmt.Sprintf(`
		<h2>Slot confirmed</h2>
		<p>Hi %s,</p>
		<p>Your %s dose appointment is booked for <strong>%s</strong> at <strong>%s</strong>.</p>
		<p>You can move it up to 24 hours before the slot starts.</p>
	`, toName, dose, date, slot)

	text := fmt.Sprintf("Your %s dose appointment is booked for %s at %s.", dose, date, slot)

	return m.sendEmail(toEmail, toName, subject, text, html)
}

func (m *MailerSendClient) SendRescheduleNotice(toEmail, toName, date, slot string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := "Your vaccination slot was moved"
	html := fmt.Sprintf(`
		<h2>Slot updated</h2>
		<p>Hi %s,</p>
		<p>Your appointment is now <strong>%s</strong> at <strong>%s</strong>.</p>
	`, toName, date, slot)

	text := fmt.Sprintf("Your appointment is now %s at %s.", date, slot)

	return m.sendEmail(toEmail, toName, subject, text, html)
}

func (m *MailerSendClient) sendEmail(toEmail, toName, subject, text, html string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(subject)

	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	_, err := m.client.Email.Send(ctx, msg)
	return err
}
