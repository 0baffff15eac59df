package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vaxpoint/bookings/internal/cache"
	"github.com/vaxpoint/bookings/internal/domain"
	"github.com/vaxpoint/bookings/internal/repo/postgres"
	"github.com/vaxpoint/bookings/internal/slots"
	"github.com/vaxpoint/bookings/pkg/events"
	"github.com/vaxpoint/bookings/pkg/logger"
)

type BookingService interface {
	AvailableSlots(ctx context.Context, date time.Time) ([]string, error)
	Book(ctx context.Context, phone int64, date time.Time, label string) (*domain.Booking, error)
	Reschedule(ctx context.Context, phone int64, date time.Time, label string) (*domain.Booking, error)
	BookingForUser(ctx context.Context, phone int64) (*domain.Booking, error)
	ListBookings(ctx context.Context, caller *domain.User, filter domain.BookingFilter, limit, offset int) ([]domain.Booking, error)
}

type bookingService struct {
	bookingRepo postgres.BookingRepository
	userRepo    postgres.UserRepository
	cache       cache.AvailabilityCache
	eventBus    events.Publisher
	now         func() time.Time
}

func NewBookingService(
	bookingRepo postgres.BookingRepository,
	userRepo postgres.UserRepository,
	availability cache.AvailabilityCache,
	eventBus events.Publisher,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		userRepo:    userRepo,
		cache:       availability,
		eventBus:    eventBus,
		now:         time.Now,
	}
}

// AvailableSlots returns the catalog labels with remaining capacity on
// date, in catalog order.
func (s *bookingService) AvailableSlots(ctx context.Context, date time.Time) ([]string, error) {
	if labels, ok := s.cache.Get(ctx, date); ok {
		return labels, nil
	}

	bookings, err := s.bookingRepo.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list bookings for date: %w", err)
	}

	// No bookings yet: every slot is open, skip the tally.
	if len(bookings) == 0 {
		labels := slots.Labels()
		s.cache.Set(ctx, date, labels)
		return labels, nil
	}

	tally := make(map[string]int, slots.Count)
	for _, b := range bookings {
		tally[b.SlotTime]++
	}

	open := make([]string, 0, slots.Count)
	for _, label := range slots.Labels() {
		if tally[label] < slots.Capacity {
			open = append(open, label)
		}
	}

	s.cache.Set(ctx, date, open)
	return open, nil
}

// Book registers a slot for the user. The dose the booking represents
// follows from the user's vaccination progress, and a user holds at
// most one booking at a time.
func (s *bookingService) Book(ctx context.Context, phone int64, date time.Time, label string) (*domain.Booking, error) {
	if !slots.Contains(label) {
		return nil, domain.ErrInvalidSlot
	}

	user, err := s.userRepo.FindByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	doseType, err := domain.DoseTypeFor(user.VaccinationStatus)
	if err != nil {
		return nil, err
	}

	existing, err := s.bookingRepo.FindByOwner(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("find existing booking: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrAlreadyBooked
	}

	booking, err := s.bookingRepo.Create(ctx, &domain.Booking{
		OwnerPhone: phone,
		SlotDate:   date,
		SlotTime:   label,
		DoseType:   doseType,
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, date)

	event := events.BookingCreatedEvent{
		BookingID: booking.ID,
		Phone:     booking.OwnerPhone,
		Name:      user.Name,
		Email:     user.Email,
		SlotDate:  slots.FormatDate(booking.SlotDate),
		SlotTime:  booking.SlotTime,
		DoseType:  string(booking.DoseType),
		CreatedAt: booking.CreatedAt,
	}
	if err := s.eventBus.Publish(ctx, events.BookingCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking created event", "error", err, "booking_id", booking.ID)
	}

	return booking, nil
}

// Reschedule moves the user's booking to a new date and slot. The move
// is permitted only while more than 24 hours remain before the current
// slot starts; the dose type never changes.
func (s *bookingService) Reschedule(ctx context.Context, phone int64, date time.Time, label string) (*domain.Booking, error) {
	if !slots.Contains(label) {
		return nil, domain.ErrInvalidSlot
	}

	existing, err := s.bookingRepo.FindByOwner(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("find existing booking: %w", err)
	}
	if existing == nil {
		return nil, domain.ErrNotBooked
	}

	if !existing.RescheduleWindowOpen(s.now()) {
		return nil, domain.ErrRescheduleWindowClosed
	}

	updated, err := s.bookingRepo.UpdateSlot(ctx, phone, date, label)
	if err != nil {
		return nil, fmt.Errorf("update booking: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrNotBooked
	}

	s.cache.Invalidate(ctx, existing.SlotDate)
	s.cache.Invalidate(ctx, date)

	event := events.BookingRescheduledEvent{
		BookingID:     updated.ID,
		Phone:         updated.OwnerPhone,
		OldSlotDate:   slots.FormatDate(existing.SlotDate),
		OldSlotTime:   existing.SlotTime,
		SlotDate:      slots.FormatDate(updated.SlotDate),
		SlotTime:      updated.SlotTime,
		RescheduledAt: updated.UpdatedAt,
	}
	if user, err := s.userRepo.FindByPhone(ctx, phone); err == nil && user != nil {
		event.Name = user.Name
		event.Email = user.Email
	}
	if err := s.eventBus.Publish(ctx, events.BookingRescheduled, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking rescheduled event", "error", err, "booking_id", updated.ID)
	}

	return updated, nil
}

func (s *bookingService) BookingForUser(ctx context.Context, phone int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.FindByOwner(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil {
		return nil, domain.ErrNotBooked
	}
	return booking, nil
}

func (s *bookingService) ListBookings(ctx context.Context, caller *domain.User, filter domain.BookingFilter, limit, offset int) ([]domain.Booking, error) {
	if caller == nil || !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s.bookingRepo.List(ctx, filter, limit, offset)
}
