package domain

import (
	"math"
	"time"

	"github.com/vaxpoint/bookings/internal/slots"
)

type DoseType string

const (
	FirstDose  DoseType = "first_dose"
	SecondDose DoseType = "second_dose"
)

// DoseTypeFor derives the dose a new booking represents from the
// user's vaccination progress. Fully vaccinated users get no booking.
func DoseTypeFor(status VaccinationStatus) (DoseType, error) {
	switch status {
	case StatusNone:
		return FirstDose, nil
	case StatusFirstDoseDone:
		return SecondDose, nil
	default:
		return "", ErrAlreadyVaccinated
	}
}

type Booking struct {
	ID         int64     `json:"id"`
	OwnerPhone int64     `json:"owner_phone"`
	SlotDate   time.Time `json:"slot_date"`
	SlotTime   string    `json:"slot_time"`
	DoseType   DoseType  `json:"dose_type"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RescheduleCutoffHours is the window boundary: a slot may be moved
// only while strictly more than this many hours remain before it.
const RescheduleCutoffHours = 24

// StartsAt combines the stored date and slot label into an instant.
func (b *Booking) StartsAt() time.Time {
	return slots.StartTime(b.SlotDate, b.SlotTime)
}

// RescheduleWindowOpen reports whether the booking may still be moved.
// The remaining time is rounded up to whole hours, so an exact 24-hour
// gap keeps the window closed.
func (b *Booking) RescheduleWindowOpen(now time.Time) bool {
	diff := b.StartsAt().Sub(now)
	if diff < 0 {
		diff = -diff
	}
	hours := int(math.Ceil(diff.Hours()))
	return hours > RescheduleCutoffHours
}

type CreateBookingRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type BookingDTO struct {
	ID        int64     `json:"id"`
	Phone     int64     `json:"phone"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	DoseType  string    `json:"dose_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Booking) ToDTO() BookingDTO {
	return BookingDTO{
		ID:        b.ID,
		Phone:     b.OwnerPhone,
		Date:      slots.FormatDate(b.SlotDate),
		Time:      b.SlotTime,
		DoseType:  string(b.DoseType),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// BookingFilter narrows admin booking listings. Nil fields are
// unconstrained.
type BookingFilter struct {
	Date       *time.Time
	Time       *string
	DoseType   *DoseType
	OwnerPhone *int64
}
