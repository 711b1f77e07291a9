// Package services contains business logic for the application
package services

import (
	"context"
	"sort"
	"time"

	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/clock"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/database"
)

// StatsStore is the slice of the repository the statistics use
type StatsStore interface {
	AllStaffAppointmentsBetween(ctx context.Context, staffID uint, from, to time.Time) ([]database.Appointment, error)
}

// MonthlyStats aggregates one staff member's month, computed client-side
// from a single date-range query.
type MonthlyStats struct {
	Month          time.Time // first day of the month
	Total          int
	ByStatus       map[database.AppointmentStatus]int
	BusiestWeekday time.Weekday
	PeakHours      []int // top 3 hours by count, busiest first
	CompletionRate float64
}

// StatsService computes monthly statistics for the admin panel
type StatsService struct {
	store StatsStore
	clock clock.Clock
}

// NewStatsService creates a new stats service instance
func NewStatsService(store StatsStore, clk clock.Clock) *StatsService {
	return &StatsService{store: store, clock: clk}
}

// Monthly aggregates the calendar month containing ref:
// totals by status, busiest day of week, top-3 peak hours, and
// completion rate = completed / (total - cancelled).
func (s *StatsService) Monthly(ctx context.Context, staffID uint, ref time.Time) (*MonthlyStats, error) {
	ref = ref.In(s.clock.Location())
	from := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, s.clock.Location())
	to := from.AddDate(0, 1, 0)

	appts, err := s.store.AllStaffAppointmentsBetween(ctx, staffID, from, to)
	if err != nil {
		return nil, err
	}

	stats := &MonthlyStats{
		Month:    from,
		Total:    len(appts),
		ByStatus: make(map[database.AppointmentStatus]int),
	}

	byWeekday := make(map[time.Weekday]int)
	byHour := make(map[int]int)
	for _, appt := range appts {
		stats.ByStatus[appt.Status]++
		if appt.Status != database.StatusCancelled {
			at := appt.ScheduledAt.In(s.clock.Location())
			byWeekday[at.Weekday()]++
			byHour[at.Hour()]++
		}
	}

	best := -1
	for wd, n := range byWeekday {
		if n > best || (n == best && wd < stats.BusiestWeekday) {
			stats.BusiestWeekday = wd
			best = n
		}
	}

	hours := make([]int, 0, len(byHour))
	for h := range byHour {
		hours = append(hours, h)
	}
	sort.Slice(hours, func(i, j int) bool {
		if byHour[hours[i]] != byHour[hours[j]] {
			return byHour[hours[i]] > byHour[hours[j]]
		}
		return hours[i] < hours[j]
	})
	if len(hours) > 3 {
		hours = hours[:3]
	}
	stats.PeakHours = hours

	if denom := stats.Total - stats.ByStatus[database.StatusCancelled]; denom > 0 {
		stats.CompletionRate = float64(stats.ByStatus[database.StatusCompleted]) / float64(denom)
	}

	return stats, nil
}
