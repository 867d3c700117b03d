package calendar

import (
	"fmt"
	"time"
)

const layout = "2006-01-02"

// Date is a civil calendar day in YYYY-MM-DD form. The string form sorts
// chronologically, so plain comparison operators order dates.
type Date string

// Of returns the calendar day of t in t's own location.
func Of(t time.Time) Date {
	return Date(t.Format(layout))
}

// Today returns the calendar day of the clock's current time.
func Today(now time.Time) Date {
	return Of(now)
}

// Parse validates s and returns it as a Date.
func Parse(s string) (Date, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Of(t), nil
}

// Valid reports whether d is a well-formed date.
func (d Date) Valid() bool {
	_, err := time.Parse(layout, string(d))
	return err == nil
}

// AddDays shifts d by n days. Arithmetic is done in UTC so DST never skips a day.
func (d Date) AddDays(n int) Date {
	t, err := time.Parse(layout, string(d))
	if err != nil {
		return d
	}
	return Of(t.AddDate(0, 0, n))
}

// At returns the instant at hour:minute on d in loc.
func (d Date) At(hour, minute int, loc *time.Location) time.Time {
	t, err := time.Parse(layout, string(d))
	if err != nil {
		return time.Time{}
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, loc)
}

// Weekday returns the day of the week d falls on.
func (d Date) Weekday() time.Weekday {
	t, err := time.Parse(layout, string(d))
	if err != nil {
		return time.Sunday
	}
	return t.Weekday()
}

func (d Date) String() string {
	return string(d)
}
