// Package services contains notification logic
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/clock"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/database"
)

// Sender is the outbound free-text half of the messaging boundary
type Sender interface {
	SendText(ctx context.Context, to, text string) error
}

// ReminderStore is the slice of the repository the reminder worker uses
type ReminderStore interface {
	AppointmentsBetween(ctx context.Context, from, to time.Time) ([]database.Appointment, error)
	MarkReminded(ctx context.Context, id string) error
}

// NotificationService sends confirmations, cancellations and reminders.
// Every send is best-effort: a delivery failure is logged and never
// rolls back the state change that triggered it.
type NotificationService struct {
	sender Sender
	store  ReminderStore
	clock  clock.Clock
	log    zerolog.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(sender Sender, store ReminderStore, clk clock.Clock, log zerolog.Logger) *NotificationService {
	return &NotificationService{sender: sender, store: store, clock: clk, log: log}
}

// ServiceLabel returns the customer-facing name of a service category
func ServiceLabel(cat database.ServiceCategory) string {
	switch cat {
	case database.ServiceHaircut:
		return "Corte de cabello"
	case database.ServiceBeard:
		return "Barba"
	case database.ServiceBoth:
		return "Corte y barba"
	default:
		return string(cat)
	}
}

// SendBookingConfirmation confirms a fresh booking to the customer
func (s *NotificationService) SendBookingConfirmation(ctx context.Context, appt *database.Appointment) {
	at := appt.ScheduledAt.In(s.clock.Location())
	msg := fmt.Sprintf(
		"✅ *¡Cita confirmada!*\n\n"+
			"💈 Servicio: %s\n"+
			"✂️ Barbero: %s\n"+
			"📆 Fecha: %s\n"+
			"⏰ Hora: %s\n\n"+
			"¡Te esperamos! Escribe *menu* si necesitas algo más.",
		ServiceLabel(appt.Service),
		appt.Staff.Name,
		at.Format("02/01/2006"),
		at.Format("15:04"),
	)
	s.send(ctx, appt.CustomerPhone, msg, "booking confirmation")
}

// SendStaffCancellation tells the customer their appointment was
// cancelled by the shop
func (s *NotificationService) SendStaffCancellation(ctx context.Context, appt *database.Appointment) {
	at := appt.ScheduledAt.In(s.clock.Location())
	msg := fmt.Sprintf(
		"❌ *Cita cancelada*\n\n"+
			"Tu cita del %s a las %s fue cancelada por la barbería.\n"+
			"Escribe *menu* para agendar una nueva cita.",
		at.Format("02/01/2006"),
		at.Format("15:04"),
	)
	s.send(ctx, appt.CustomerPhone, msg, "staff cancellation")
}

// SendSessionExpired sends the closing notice after an inactivity timeout
func (s *NotificationService) SendSessionExpired(ctx context.Context, phone string) {
	s.send(ctx, phone,
		"⌛ Tu sesión expiró por inactividad. Escribe cualquier mensaje para comenzar de nuevo.",
		"session expired notice")
}

// StartReminderWorker periodically reminds customers of tomorrow's
// appointments. Each appointment is reminded at most once.
func (s *NotificationService) StartReminderWorker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info().Msg("reminder worker started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("reminder worker stopped")
			return
		case <-ticker.C:
			s.checkAndSendReminders(ctx)
		}
	}
}

// checkAndSendReminders sends reminders for tomorrow's active appointments
func (s *NotificationService) checkAndSendReminders(ctx context.Context) {
	tomorrow := s.clock.Today().AddDate(0, 0, 1)
	appts, err := s.store.AppointmentsBetween(ctx, tomorrow, tomorrow.AddDate(0, 0, 1))
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load appointments for reminders")
		return
	}

	for _, appt := range appts {
		if appt.ReminderSent {
			continue
		}
		at := appt.ScheduledAt.In(s.clock.Location())
		msg := fmt.Sprintf(
			"🔔 *Recordatorio*\n\n"+
				"Mañana a las *%s* tienes cita de %s con %s.\n"+
				"¡Te esperamos!",
			at.Format("15:04"),
			ServiceLabel(appt.Service),
			appt.Staff.Name,
		)
		if err := s.sender.SendText(ctx, appt.CustomerPhone, msg); err != nil {
			s.log.Warn().Err(err).Str("phone", appt.CustomerPhone).Msg("reminder delivery failed")
			continue
		}
		if err := s.store.MarkReminded(ctx, appt.ID); err != nil {
			s.log.Error().Err(err).Str("appointment", appt.ID).Msg("failed to mark reminder sent")
		}
	}
}

func (s *NotificationService) send(ctx context.Context, phone, msg, kind string) {
	if err := s.sender.SendText(ctx, phone, msg); err != nil {
		s.log.Warn().Err(err).Str("phone", phone).Msgf("%s delivery failed", kind)
	}
}
