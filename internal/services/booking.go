// Package services contains business logic for the application
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/clock"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/database"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/errs"
)

// BookingStore is the slice of the repository the booking lifecycle uses
type BookingStore interface {
	CreateAppointment(ctx context.Context, appt *database.Appointment) error
	FindActiveByPhone(ctx context.Context, phone string) (*database.Appointment, error)
	FindAppointmentByID(ctx context.Context, idPrefix string) (*database.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id string, status database.AppointmentStatus) error
	StaffAppointmentsBetween(ctx context.Context, staffID uint, from, to time.Time) ([]database.Appointment, error)
	CountByDay(ctx context.Context, staffID uint, from, to time.Time) (map[string]int, error)
	ArchiveExpired(ctx context.Context, before time.Time) (int, error)
	UpsertClient(ctx context.Context, phone, name string, bookedAt time.Time) error
}

// BookingService enforces the appointment lifecycle invariants
type BookingService struct {
	store BookingStore
	avail *Availability
	clock clock.Clock
	log   zerolog.Logger
}

// NewBookingService creates a new booking service instance
func NewBookingService(store BookingStore, avail *Availability, clk clock.Clock, log zerolog.Logger) *BookingService {
	return &BookingService{store: store, avail: avail, clock: clk, log: log}
}

// BookingRequest carries everything needed to commit a booking
type BookingRequest struct {
	Phone   string
	Name    string
	Staff   *database.Staff
	Service database.ServiceCategory
	At      time.Time
}

// Create books a slot. It pre-checks the one-active-appointment and
// slot-free invariants, then inserts; the partial unique indexes decide
// any race, so a losing concurrent booking surfaces as a Conflict.
func (s *BookingService) Create(ctx context.Context, req BookingRequest) (*database.Appointment, error) {
	if !req.At.After(s.clock.Now()) {
		return nil, errs.E(errs.Validation, "scheduled instant must be in the future")
	}

	active, err := s.store.FindActiveByPhone(ctx, req.Phone)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, errs.E(errs.Conflict, "customer already has an active appointment")
	}

	free, err := s.avail.IsFree(ctx, req.Staff, req.At)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, errs.E(errs.Conflict, "slot is no longer available")
	}

	appt := &database.Appointment{
		ID:            uuid.NewString(),
		CustomerPhone: req.Phone,
		CustomerName:  req.Name,
		StaffID:       req.Staff.ID,
		Service:       req.Service,
		ScheduledAt:   req.At,
		Status:        database.StatusPending,
	}
	if err := s.store.CreateAppointment(ctx, appt); err != nil {
		return nil, err
	}

	// Client registration is best-effort: the booking already committed.
	if err := s.store.UpsertClient(ctx, req.Phone, req.Name, s.clock.Now()); err != nil {
		s.log.Error().Err(err).Str("phone", req.Phone).Msg("client upsert failed")
	}

	appt.Staff = *req.Staff
	return appt, nil
}

// ActiveFor returns the customer's active appointment, or nil
func (s *BookingService) ActiveFor(ctx context.Context, phone string) (*database.Appointment, error) {
	return s.store.FindActiveByPhone(ctx, phone)
}

// CancelByCustomer cancels the customer's own active appointment
func (s *BookingService) CancelByCustomer(ctx context.Context, phone string) (*database.Appointment, error) {
	appt, err := s.store.FindActiveByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, errs.E(errs.NotFound, "no active appointment to cancel")
	}
	if err := s.store.UpdateAppointmentStatus(ctx, appt.ID, database.StatusCancelled); err != nil {
		return nil, err
	}
	appt.Status = database.StatusCancelled
	return appt, nil
}

// Confirm moves a pending appointment to confirmed
func (s *BookingService) Confirm(ctx context.Context, staffID uint, idPrefix string) (*database.Appointment, error) {
	return s.transition(ctx, staffID, idPrefix, database.StatusConfirmed)
}

// Complete marks an appointment completed on behalf of its own staff member
func (s *BookingService) Complete(ctx context.Context, staffID uint, idPrefix string) (*database.Appointment, error) {
	return s.transition(ctx, staffID, idPrefix, database.StatusCompleted)
}

// CancelByStaff cancels an appointment on the customer's behalf. The
// caller is responsible for the best-effort customer notification.
func (s *BookingService) CancelByStaff(ctx context.Context, staffID uint, idPrefix string) (*database.Appointment, error) {
	return s.transition(ctx, staffID, idPrefix, database.StatusCancelled)
}

// transition applies an admin status change with ownership and
// monotonicity checks: cross-staff mutation is a hard error, and
// terminal statuses admit no further transition.
func (s *BookingService) transition(ctx context.Context, staffID uint, idPrefix string, to database.AppointmentStatus) (*database.Appointment, error) {
	appt, err := s.store.FindAppointmentByID(ctx, idPrefix)
	if err != nil {
		return nil, err
	}
	if appt.StaffID != staffID {
		return nil, errs.E(errs.Authorization, "appointment belongs to another staff member")
	}
	if appt.Status.Terminal() {
		return nil, errs.E(errs.Conflict, fmt.Sprintf("appointment already %s", appt.Status))
	}
	if err := s.store.UpdateAppointmentStatus(ctx, appt.ID, to); err != nil {
		return nil, err
	}
	appt.Status = to
	return appt, nil
}

// DayAppointments returns a staff member's non-cancelled appointments
// for one calendar date
func (s *BookingService) DayAppointments(ctx context.Context, staffID uint, date time.Time) ([]database.Appointment, error) {
	day := clock.Midnight(date.In(s.clock.Location()))
	return s.store.StaffAppointmentsBetween(ctx, staffID, day, day.AddDate(0, 0, 1))
}

// WeekAppointments returns the next seven days of appointments plus
// per-day counts, starting today.
func (s *BookingService) WeekAppointments(ctx context.Context, staffID uint) ([]database.Appointment, map[string]int, error) {
	from := s.clock.Today()
	to := from.AddDate(0, 0, 7)
	appts, err := s.store.StaffAppointmentsBetween(ctx, staffID, from, to)
	if err != nil {
		return nil, nil, err
	}
	counts, err := s.store.CountByDay(ctx, staffID, from, to)
	if err != nil {
		return nil, nil, err
	}
	return appts, counts, nil
}

// SweepExpired archives past-due non-cancelled appointments. Invoked at
// startup and on a fixed interval; repeating it with nothing newly
// expired returns 0 and changes nothing.
func (s *BookingService) SweepExpired(ctx context.Context) (int, error) {
	n, err := s.store.ArchiveExpired(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info().Int("archived", n).Msg("expired appointments swept")
	}
	return n, nil
}
