// Package slots holds the fixed daily catalog of bookable time slots.
// The catalog is one constant table used for both validation and
// enumeration so the two can never drift apart.
package slots

import (
	"fmt"
	"time"
)

// Capacity is the maximum number of bookings per (date, slot) pair.
const Capacity = 10

// DateLayout is the calendar-day format accepted and returned by the
// API, e.g. "10 January 2026". The year is explicit: slot start
// instants are computed from it rather than from any assumed year.
const DateLayout = "2 January 2006"

type slot struct {
	label  string
	hour   int
	minute int
}

// Fourteen half-hour slots, 10:00 through 16:30, shared by all dates.
var catalog = [...]slot{
	{"10 AM", 10, 0},
	{"10:30 AM", 10, 30},
	{"11 AM", 11, 0},
	{"11:30 AM", 11, 30},
	{"12 PM", 12, 0},
	{"12:30 PM", 12, 30},
	{"1 PM", 13, 0},
	{"1:30 PM", 13, 30},
	{"2 PM", 14, 0},
	{"2:30 PM", 14, 30},
	{"3 PM", 15, 0},
	{"3:30 PM", 15, 30},
	{"4 PM", 16, 0},
	{"4:30 PM", 16, 30},
}

// Count is the number of slots per day.
const Count = len(catalog)

// Labels returns the slot labels in catalog order.
func Labels() []string {
	labels := make([]string, Count)
	for i, s := range catalog {
		labels[i] = s.label
	}
	return labels
}

// Index returns the catalog position of label.
func Index(label string) (int, bool) {
	for i, s := range catalog {
		if s.label == label {
			return i, true
		}
	}
	return 0, false
}

func Contains(label string) bool {
	_, ok := Index(label)
	return ok
}

// StartTime combines a calendar day and a slot label into the slot's
// start instant. The label must be one of the catalog labels; unknown
// labels map to the start of the day.
func StartTime(date time.Time, label string) time.Time {
	i, ok := Index(label)
	if !ok {
		return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	}
	s := catalog[i]
	return time.Date(date.Year(), date.Month(), date.Day(), s.hour, s.minute, 0, 0, date.Location())
}

// ParseDate parses a day label like "10 January 2026" into a UTC
// calendar day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want day, month name and year", s)
	}
	return t, nil
}

// FormatDate renders a calendar day in the API's day-label format.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
