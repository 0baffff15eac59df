package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaxpoint/bookings/internal/domain"
	"github.com/vaxpoint/bookings/internal/slots"
	"github.com/vaxpoint/bookings/pkg/events"
)

// ---------- Mocks ----------

type mockBookingRepo struct {
	nextID  int64
	byOwner map[int64]*domain.Booking
	failAll error
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{nextID: 1, byOwner: make(map[int64]*domain.Booking)}
}

func (m *mockBookingRepo) Create(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	if _, exists := m.byOwner[b.OwnerPhone]; exists {
		return nil, domain.ErrAlreadyBooked
	}

	count := 0
	for _, existing := range m.byOwner {
		if existing.SlotDate.Equal(b.SlotDate) && existing.SlotTime == b.SlotTime {
			count++
		}
	}
	if count >= slots.Capacity {
		return nil, domain.ErrSlotFull
	}

	created := *b
	created.ID = m.nextID
	m.nextID++
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	m.byOwner[b.OwnerPhone] = &created

	result := created
	return &result, nil
}

func (m *mockBookingRepo) FindByOwner(_ context.Context, phone int64) (*domain.Booking, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	b, exists := m.byOwner[phone]
	if !exists {
		return nil, nil
	}
	result := *b
	return &result, nil
}

func (m *mockBookingRepo) ListByDate(_ context.Context, date time.Time) ([]domain.Booking, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	var bookings []domain.Booking
	for _, b := range m.byOwner {
		if b.SlotDate.Equal(date) {
			bookings = append(bookings, *b)
		}
	}
	return bookings, nil
}

func (m *mockBookingRepo) UpdateSlot(_ context.Context, phone int64, date time.Time, label string) (*domain.Booking, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	b, exists := m.byOwner[phone]
	if !exists {
		return nil, nil
	}
	b.SlotDate = date
	b.SlotTime = label
	b.UpdatedAt = time.Now()
	result := *b
	return &result, nil
}

func (m *mockBookingRepo) List(_ context.Context, filter domain.BookingFilter, limit, offset int) ([]domain.Booking, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	var bookings []domain.Booking
	for _, b := range m.byOwner {
		if filter.Date != nil && !b.SlotDate.Equal(*filter.Date) {
			continue
		}
		if filter.Time != nil && b.SlotTime != *filter.Time {
			continue
		}
		if filter.DoseType != nil && b.DoseType != *filter.DoseType {
			continue
		}
		if filter.OwnerPhone != nil && b.OwnerPhone != *filter.OwnerPhone {
			continue
		}
		bookings = append(bookings, *b)
	}
	return bookings, nil
}

type mockUserRepo struct {
	nextID  int64
	byPhone map[int64]*domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{nextID: 1, byPhone: make(map[int64]*domain.User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	if _, exists := m.byPhone[u.Phone]; exists {
		return nil, domain.ErrUserExists
	}
	created := *u
	created.ID = m.nextID
	m.nextID++
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	m.byPhone[u.Phone] = &created

	result := created
	return &result, nil
}

func (m *mockUserRepo) FindByPhone(_ context.Context, phone int64) (*domain.User, error) {
	u, exists := m.byPhone[phone]
	if !exists {
		return nil, nil
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) List(_ context.Context, filter domain.UserFilter, limit, offset int) ([]domain.User, error) {
	var users []domain.User
	for _, u := range m.byPhone {
		if filter.Age != nil && u.Age != *filter.Age {
			continue
		}
		if filter.Pincode != nil && u.Pincode != *filter.Pincode {
			continue
		}
		if filter.VaccinationStatus != nil && u.VaccinationStatus != *filter.VaccinationStatus {
			continue
		}
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		users = append(users, *u)
	}
	return users, nil
}

type mockPublisher struct {
	subjects []string
	payloads []interface{}
}

func (m *mockPublisher) Publish(_ context.Context, subject string, data interface{}) error {
	m.subjects = append(m.subjects, subject)
	m.payloads = append(m.payloads, data)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

type mockCache struct {
	invalidated []string
}

func (m *mockCache) Get(context.Context, time.Time) ([]string, bool) { return nil, false }
func (m *mockCache) Set(context.Context, time.Time, []string)        {}
func (m *mockCache) Invalidate(_ context.Context, date time.Time) {
	m.invalidated = append(m.invalidated, date.Format("2006-01-02"))
}

// ---------- Fixtures ----------

type fixture struct {
	svc         *bookingService
	bookingRepo *mockBookingRepo
	userRepo    *mockUserRepo
	bus         *mockPublisher
	cache       *mockCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		bookingRepo: newMockBookingRepo(),
		userRepo:    newMockUserRepo(),
		bus:         &mockPublisher{},
		cache:       &mockCache{},
	}
	f.svc = NewBookingService(f.bookingRepo, f.userRepo, f.cache, f.bus).(*bookingService)
	return f
}

func (f *fixture) addUser(t *testing.T, phone int64, status domain.VaccinationStatus) *domain.User {
	t.Helper()
	u, err := f.userRepo.Create(context.Background(), &domain.User{
		Name:              fmt.Sprintf("user-%d", phone),
		Phone:             phone,
		Age:               30,
		VaccinationStatus: status,
		Role:              domain.RoleUser,
	})
	if err != nil {
		t.Fatalf("add user: %v", err)
	}
	return u
}

var testDate = time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)

// ---------- AvailabilityEngine ----------

func TestAvailableSlots_EmptyDateReturnsFullCatalog(t *testing.T) {
	f := newFixture(t)

	open, err := f.svc.AvailableSlots(context.Background(), testDate)

	require.NoError(t, err)
	assert.Equal(t, slots.Labels(), open)
}

func TestAvailableSlots_ExcludesFullSlot(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < slots.Capacity; i++ {
		phone := int64(9000000000 + i)
		f.addUser(t, phone, domain.StatusNone)
		_, err := f.svc.Book(context.Background(), phone, testDate, "10 AM")
		require.NoError(t, err)
	}

	open, err := f.svc.AvailableSlots(context.Background(), testDate)

	require.NoError(t, err)
	assert.Len(t, open, 13)
	assert.NotContains(t, open, "10 AM")
	assert.Equal(t, "10:30 AM", open[0])
	assert.Equal(t, "4:30 PM", open[12])
}

func TestAvailableSlots_PartiallyBookedSlotStaysOpen(t *testing.T) {
	f := newFixture(t)

	f.addUser(t, 9000000001, domain.StatusNone)
	_, err := f.svc.Book(context.Background(), 9000000001, testDate, "11 AM")
	require.NoError(t, err)

	open, err := f.svc.AvailableSlots(context.Background(), testDate)

	require.NoError(t, err)
	assert.Equal(t, slots.Labels(), open)
}

func TestAvailableSlots_StoreFailureSurfaced(t *testing.T) {
	f := newFixture(t)
	f.bookingRepo.failAll = domain.StoreError(errors.New("connection refused"))

	_, err := f.svc.AvailableSlots(context.Background(), testDate)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

// ---------- BookingLifecycle: create ----------

func TestBook_FirstDoseForUnvaccinatedUser(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, 9876543210, domain.StatusNone)

	booking, err := f.svc.Book(context.Background(), 9876543210, testDate, "10 AM")

	require.NoError(t, err)
	assert.Equal(t, domain.FirstDose, booking.DoseType)
	assert.Equal(t, int64(9876543210), booking.OwnerPhone)
	assert.Equal(t, "10 AM", booking.SlotTime)
	assert.True(t, booking.SlotDate.Equal(testDate))
	assert.Contains(t, f.bus.subjects, "booking.created")
	assert.Contains(t, f.cache.invalidated, "2026-01-10")
}

func TestBook_SecondDoseAfterFirstCompleted(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, 9876543210, domain.StatusFirstDoseDone)

	booking, err := f.svc.Book(context.Background(), 9876543210, testDate, "2 PM")

	require.NoError(t, err)
	assert.Equal(t, domain.SecondDose, booking.DoseType)
}

func TestBook_FullyVaccinatedRejected(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, 9876543210, domain.StatusAllCompleted)

	_, err := f.svc.Book(context.Background(), 9876543210, testDate, "10 AM")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAlreadyVaccinated)

	existing, _ := f.bookingRepo.FindByOwner(context.Background(), 9876543210)
	assert.Nil(t, existing, "no record may be created for a fully vaccinated user")
}

func TestBook_SecondAttemptAlreadyBooked(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, 9876543210, domain.StatusNone)

	_, err := f.svc.Book(context.Background(), 9876543210, testDate, "10 AM")
	require.NoError(t, err)

	_, err = f.svc.Book(context.Background(), 9876543210, testDate.AddDate(0, 0, 1), "11 AM")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAlreadyBooked)
}

func TestBook_UnknownLabelRejectedBeforeStore(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, 9876543210, domain.StatusNone)
	f.bookingRepo.failAll = domain.StoreError(errors.New("down"))

	_, err := f.svc.Book(context.Background(), 9876543210, testDate, "5 PM")

	// Catalog validation fires before the store is touched.
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidSlot)
}

func TestBook_UnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Book(context.Background(), 1234567890, testDate, "10 AM")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestBook_SlotAtCapacityRejected(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < slots.Capacity; i++ {
		phone := int64(9000000000 + i)
		f.addUser(t, phone, domain.StatusNone)
		_, err := f.svc.Book(context.Background(), phone, testDate, "3 PM")
		require.NoError(t, err)
	}

	f.addUser(t, 9999999999, domain.StatusNone)
	_, err := f.svc.Book(context.Background(), 9999999999, testDate, "3 PM")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSlotFull)
}

func TestBook_EventCarriesContactDetails(t *testing.T) {
	f := newFixture(t)
	u := f.addUser(t, 9876543210, domain.StatusNone)
	f.userRepo.byPhone[u.Phone].Email = "asha@example.com"

	_, err := f.svc.Book(context.Background(), 9876543210, testDate, "10 AM")

	require.NoError(t, err)
	require.Len(t, f.bus.payloads, 1)

	event, ok := f.bus.payloads[0].(events.BookingCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, "asha@example.com", event.Email)
	assert.Equal(t, u.Name, event.Name)
	assert.Equal(t, "10 January 2026", event.SlotDate)
}

// ---------- BookingLifecycle: reschedule ----------

func TestReschedule_SucceedsOutsideWindow(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, 9876543210, domain.StatusNone)

	_, err := f.svc.Book(context.Background(), 9876543210, testDate, "10 AM")
	require.NoError(t, err)

	// 48 hours before the slot starts.
	f.svc.now = func() time.Time {
		return time.Date(2026, time.January, 8, 10, 0, 0, 0, time.UTC)
	}

	newDate := testDate.AddDate(0, 0, 5)
	updated, err := f.svc.Reschedule(context.Background(), 9876543210, newDate, "2:30 PM")

	require.NoError(t, err)
	assert.True(t, updated.SlotDate.Equal(newDate))
	assert.Equal(t, "2:30 PM", updated.SlotTime)
	assert.Equal(t, domain.FirstDose, updated.DoseType, "dose type never changes on reschedule")
	assert.Contains(t, f.bus.subjects, "booking.rescheduled")
}

func TestReschedule_ExactlyTwentyFourHoursClosed(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, 9876543210, domain.StatusNone)

	_, err := f.svc.Book(context.Background(), 9876543210, testDate, "10 AM")
	require.NoError(t, err)

	// Slot starts 2026-01-10 10:00 UTC; exactly 24 hours remain.
	f.svc.now = func() time.Time {
		return time.Date(2026, time.January, 9, 10, 0, 0, 0, time.UTC)
	}

	_, err = f.svc.Reschedule(context.Background(), 9876543210, testDate.AddDate(0, 0, 2), "11 AM")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRescheduleWindowClosed)

	unchanged, _ := f.bookingRepo.FindByOwner(context.Background(), 9876543210)
	require.NotNil(t, unchanged)
	assert.Equal(t, "10 AM", unchanged.SlotTime)
	assert.True(t, unchanged.SlotDate.Equal(testDate))
}

func TestReschedule_JustOverTwentyFourHoursOpen(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, 9876543210, domain.StatusNone)

	_, err := f.svc.Book(context.Background(), 9876543210, testDate, "10 AM")
	require.NoError(t, err)

	f.svc.now = func() time.Time {
		return time.Date(2026, time.January, 9, 9, 59, 59, 0, time.UTC)
	}

	_, err = f.svc.Reschedule(context.Background(), 9876543210, testDate.AddDate(0, 0, 2), "11 AM")

	assert.NoError(t, err)
}

func TestReschedule_ClosedShortlyBeforeNewSlot(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, 9876543210, domain.StatusNone)

	_, err := f.svc.Book(context.Background(), 9876543210, testDate, "10 AM")
	require.NoError(t, err)

	f.svc.now = func() time.Time {
		return time.Date(2026, time.January, 8, 10, 0, 0, 0, time.UTC)
	}
	newDate := testDate.AddDate(0, 0, 5)
	_, err = f.svc.Reschedule(context.Background(), 9876543210, newDate, "2:30 PM")
	require.NoError(t, err)

	// 2 hours before the new slot starts the window is closed again.
	f.svc.now = func() time.Time {
		return time.Date(2026, time.January, 15, 12, 30, 0, 0, time.UTC)
	}
	_, err = f.svc.Reschedule(context.Background(), 9876543210, newDate.AddDate(0, 0, 1), "10 AM")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRescheduleWindowClosed)

	unchanged, _ := f.bookingRepo.FindByOwner(context.Background(), 9876543210)
	require.NotNil(t, unchanged)
	assert.Equal(t, "2:30 PM", unchanged.SlotTime)
	assert.True(t, unchanged.SlotDate.Equal(newDate))
}

func TestReschedule_NotBooked(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, 9876543210, domain.StatusNone)

	_, err := f.svc.Reschedule(context.Background(), 9876543210, testDate, "10 AM")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotBooked)
}

func TestReschedule_UnknownLabelRejected(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, 9876543210, domain.StatusNone)

	_, err := f.svc.Reschedule(context.Background(), 9876543210, testDate, "midnight")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidSlot)
}

// ---------- Admin queries ----------

func TestListBookings_RequiresAdmin(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, 9876543210, domain.StatusNone)

	_, err := f.svc.ListBookings(context.Background(), user, domain.BookingFilter{}, 20, 0)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestListBookings_AdminFilterByDateAndTime(t *testing.T) {
	f := newFixture(t)
	admin := &domain.User{Phone: 9000000000, Role: domain.RoleAdmin}

	f.addUser(t, 9876543210, domain.StatusNone)
	f.addUser(t, 9876543211, domain.StatusNone)
	_, err := f.svc.Book(context.Background(), 9876543210, testDate, "10 AM")
	require.NoError(t, err)
	_, err = f.svc.Book(context.Background(), 9876543211, testDate, "11 AM")
	require.NoError(t, err)

	label := "10 AM"
	got, err := f.svc.ListBookings(context.Background(), admin, domain.BookingFilter{Date: &testDate, Time: &label}, 20, 0)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(9876543210), got[0].OwnerPhone)
}
