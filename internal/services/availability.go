// Package services contains business logic for the application
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/clock"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/database"
)

// Slot is one bookable start time on a given date
type Slot struct {
	Time string    // "HH:MM" in business time
	At   time.Time // full instant
}

// AvailabilityStore is the slice of the repository the engine reads from
type AvailabilityStore interface {
	StaffAppointmentsBetween(ctx context.Context, staffID uint, from, to time.Time) ([]database.Appointment, error)
	BlockedSlotsFor(ctx context.Context, staffID uint, date time.Time) ([]database.BlockedSlot, error)
}

// Availability turns working hours, booked appointments and blocked
// intervals into the conflict-free bookable slot set.
type Availability struct {
	store AvailabilityStore
	clock clock.Clock
}

// NewAvailability creates the slot availability engine
func NewAvailability(store AvailabilityStore, clk clock.Clock) *Availability {
	return &Availability{store: store, clock: clk}
}

// slotDuration is the fixed bookable window
const slotDuration = database.SlotMinutes * time.Minute

// Slots returns the ordered bookable slots for one staff member on one
// calendar date. For today, slots whose hour has already begun are
// never offered.
func (a *Availability) Slots(ctx context.Context, staff *database.Staff, date time.Time) ([]Slot, error) {
	day := clock.Midnight(date.In(a.clock.Location()))
	now := a.clock.Now()

	appts, err := a.store.StaffAppointmentsBetween(ctx, staff.ID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to load day appointments: %w", err)
	}
	blocks, err := a.store.BlockedSlotsFor(ctx, staff.ID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load blocked slots: %w", err)
	}

	var slots []Slot
	for hour := staff.StartHour; hour < staff.EndHour; hour++ {
		at := clock.AtHour(day, hour)
		if clock.SameDay(day, now) && hour <= now.Hour() {
			continue
		}
		if conflictsWithAppointments(at, appts) || coveredByBlocks(at, blocks) {
			continue
		}
		slots = append(slots, Slot{Time: at.Format("15:04"), At: at})
	}
	return slots, nil
}

// IsFree checks a single instant without generating the full day list.
// Callers must re-check immediately before committing a booking; the
// storage uniqueness constraint remains the final authority.
func (a *Availability) IsFree(ctx context.Context, staff *database.Staff, at time.Time) (bool, error) {
	at = at.In(a.clock.Location())
	if at.Hour() < staff.StartHour || at.Hour() >= staff.EndHour {
		return false, nil
	}
	now := a.clock.Now()
	if clock.SameDay(at, now) && at.Hour() <= now.Hour() {
		return false, nil
	}

	appts, err := a.store.StaffAppointmentsBetween(ctx, staff.ID, at.Add(-slotDuration), at.Add(slotDuration))
	if err != nil {
		return false, fmt.Errorf("failed to load appointments: %w", err)
	}
	if conflictsWithAppointments(at, appts) {
		return false, nil
	}

	blocks, err := a.store.BlockedSlotsFor(ctx, staff.ID, clock.Midnight(at))
	if err != nil {
		return false, fmt.Errorf("failed to load blocked slots: %w", err)
	}
	return !coveredByBlocks(at, blocks), nil
}

// conflictsWithAppointments applies the half-open overlap rule: two
// one-hour windows conflict iff each starts strictly before the other
// ends. Back-to-back slots never conflict.
func conflictsWithAppointments(at time.Time, appts []database.Appointment) bool {
	end := at.Add(slotDuration)
	for _, appt := range appts {
		apptEnd := appt.ScheduledAt.Add(slotDuration)
		if appt.ScheduledAt.Before(end) && at.Before(apptEnd) {
			return true
		}
	}
	return false
}

// coveredByBlocks reports whether the slot's time of day falls inside
// any blocked interval. The store already filtered one-off intervals to
// the matching date, so only time-of-day remains to compare.
func coveredByBlocks(at time.Time, blocks []database.BlockedSlot) bool {
	minute := at.Hour()*60 + at.Minute()
	for _, b := range blocks {
		start, err1 := minuteOfDay(b.StartTime)
		end, err2 := minuteOfDay(b.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		if minute >= start && minute < end {
			return true
		}
	}
	return false
}

// minuteOfDay parses "HH:MM" into minutes since midnight
func minuteOfDay(hhmm string) (int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", hhmm, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
