package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoseTypeFor(t *testing.T) {
	dose, err := DoseTypeFor(StatusNone)
	require.NoError(t, err)
	assert.Equal(t, FirstDose, dose)

	dose, err = DoseTypeFor(StatusFirstDoseDone)
	require.NoError(t, err)
	assert.Equal(t, SecondDose, dose)

	_, err = DoseTypeFor(StatusAllCompleted)
	assert.ErrorIs(t, err, ErrAlreadyVaccinated)
}

func TestBooking_StartsAt(t *testing.T) {
	b := &Booking{
		SlotDate: time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC),
		SlotTime: "2:30 PM",
	}

	assert.Equal(t, time.Date(2026, time.March, 5, 14, 30, 0, 0, time.UTC), b.StartsAt())
}

func TestBooking_RescheduleWindowOpen(t *testing.T) {
	start := time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC)
	b := &Booking{
		SlotDate: time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC),
		SlotTime: "10 AM",
	}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"48 hours before", start.Add(-48 * time.Hour), true},
		{"just over 24 hours before", start.Add(-24*time.Hour - time.Second), true},
		{"exactly 24 hours before", start.Add(-24 * time.Hour), false},
		{"2 hours before", start.Add(-2 * time.Hour), false},
		{"at slot start", start, false},
		{"2 hours after", start.Add(2 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.RescheduleWindowOpen(tt.now))
		})
	}
}
