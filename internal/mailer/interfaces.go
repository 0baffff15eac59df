package mailer

type Service interface {
	SendBookingConfirmation(toEmail, toName, date, slot, doseType string) error
	SendRescheduleNotice(toEmail, toName, date, slot string) error
}
