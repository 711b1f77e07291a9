// Package clock centralizes "now" and date arithmetic in the business timezone
package clock

import (
	"fmt"
	"time"
)

// Clock supplies the current instant in the business timezone.
// Every component that compares instants to "now" or "today" takes a Clock
// instead of calling time.Now directly.
type Clock interface {
	Now() time.Time
	Today() time.Time
	Location() *time.Location
}

// BusinessClock is the production Clock, pinned to one fixed timezone
// regardless of the host system timezone.
type BusinessClock struct {
	loc *time.Location
}

// NewBusinessClock creates a clock for the given IANA timezone name
func NewBusinessClock(tz string) (*BusinessClock, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", tz, err)
	}
	return &BusinessClock{loc: loc}, nil
}

// Now returns the current instant in the business timezone
func (c *BusinessClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// Today returns midnight of the current business day
func (c *BusinessClock) Today() time.Time {
	return Midnight(c.Now())
}

// Location returns the business timezone
func (c *BusinessClock) Location() *time.Location {
	return c.loc
}

// Midnight truncates t to the start of its calendar day, keeping the location
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AtHour returns the instant at the given whole hour of t's calendar day
func AtHour(t time.Time, hour int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, hour, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ParseDate parses a YYYY-MM-DD date in the given location
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FixedClock is a Clock frozen at a single instant, used in tests.
type FixedClock struct {
	Instant time.Time
}

func (c *FixedClock) Now() time.Time             { return c.Instant }
func (c *FixedClock) Today() time.Time           { return Midnight(c.Instant) }
func (c *FixedClock) Location() *time.Location   { return c.Instant.Location() }
func (c *FixedClock) Advance(d time.Duration)    { c.Instant = c.Instant.Add(d) }
