package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/clock"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/database"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/errs"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/services"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/session"
)

// bookingHorizonDays is how far ahead a customer may book
const bookingHorizonDays = 7

// BookingFlow drives the customer-facing multi-step booking dialogue
type BookingFlow struct {
	sessions session.Store
	staff    *services.StaffService
	avail    *services.Availability
	booking  *services.BookingService
	notify   *services.NotificationService
	msgr     Messenger
	clock    clock.Clock
	log      zerolog.Logger
}

// NewBookingFlow creates the customer booking state machine
func NewBookingFlow(
	sessions session.Store,
	staff *services.StaffService,
	avail *services.Availability,
	booking *services.BookingService,
	notify *services.NotificationService,
	msgr Messenger,
	clk clock.Clock,
	log zerolog.Logger,
) *BookingFlow {
	return &BookingFlow{
		sessions: sessions,
		staff:    staff,
		avail:    avail,
		booking:  booking,
		notify:   notify,
		msgr:     msgr,
		clock:    clk,
		log:      log,
	}
}

// SendGreeting welcomes the identity and offers the main menu
func (f *BookingFlow) SendGreeting(ctx context.Context, sess *session.Session) error {
	return f.msgr.SendChoices(ctx, sess.Phone,
		"💈 ¡Bienvenido a *Big Brother Barber Shop*!\n¿Qué deseas hacer?",
		mainMenuButtons())
}

func mainMenuButtons() []Button {
	return []Button{
		{Label: "📅 Agendar cita", Data: "book"},
		{Label: "👀 Ver mi cita", Data: "view"},
		{Label: "❌ Cancelar cita", Data: "cancelme"},
	}
}

// Handle advances the conversation one step
func (f *BookingFlow) Handle(ctx context.Context, sess *session.Session, ev Event) error {
	// "menu" abandons the flow from any step and clears its state. An
	// admin driving the flow for a client drops back to the panel.
	if isMenuCommand(ev) {
		admin := sess.Admin != nil && sess.Booking.TargetPhone != ""
		sess.ResetFlow()
		if err := f.sessions.Put(ctx, sess); err != nil {
			return err
		}
		if admin {
			return f.msgr.SendText(ctx, sess.Phone, "🏠 Agendamiento cancelado. Escribe tu comando para abrir el panel.")
		}
		return f.msgr.SendChoices(ctx, sess.Phone, "🏠 Menú principal. ¿Qué deseas hacer?", mainMenuButtons())
	}

	switch sess.Step {
	case session.StepMenu:
		return f.handleMenu(ctx, sess, ev)
	case session.StepName:
		return f.handleName(ctx, sess, ev)
	case session.StepStaff:
		return f.handleStaff(ctx, sess, ev)
	case session.StepService:
		return f.handleService(ctx, sess, ev)
	case session.StepDate:
		return f.handleDate(ctx, sess, ev)
	case session.StepTime:
		return f.handleTime(ctx, sess, ev)
	case session.StepCancelConfirm:
		return f.handleCancelConfirm(ctx, sess, ev)
	default:
		sess.ResetFlow()
		if err := f.sessions.Put(ctx, sess); err != nil {
			return err
		}
		return f.SendGreeting(ctx, sess)
	}
}

func isMenuCommand(ev Event) bool {
	p := strings.ToLower(strings.TrimSpace(ev.Payload))
	return p == "menu" || p == "menú"
}

func (f *BookingFlow) handleMenu(ctx context.Context, sess *session.Session, ev Event) error {
	if ev.Kind != KindSelection {
		return f.msgr.SendChoices(ctx, sess.Phone, "Usa los botones 👆 para continuar:", mainMenuButtons())
	}

	switch ev.Payload {
	case "book":
		active, err := f.booking.ActiveFor(ctx, sess.Phone)
		if err != nil {
			return err
		}
		if active != nil {
			return f.msgr.SendChoices(ctx, sess.Phone,
				"Ya tienes una cita activa:\n\n"+formatAppointment(active, f.clock.Location())+
					"\n\nCancélala primero si deseas otra.",
				mainMenuButtons())
		}
		sess.Step = session.StepName
		if err := f.sessions.Put(ctx, sess); err != nil {
			return err
		}
		return f.msgr.SendText(ctx, sess.Phone, "✏️ ¿Cuál es tu nombre?")

	case "view":
		active, err := f.booking.ActiveFor(ctx, sess.Phone)
		if err != nil {
			return err
		}
		if active == nil {
			return f.msgr.SendChoices(ctx, sess.Phone,
				"No tienes citas activas. ¿Deseas agendar una?", mainMenuButtons())
		}
		return f.msgr.SendChoices(ctx, sess.Phone,
			"📅 Tu cita:\n\n"+formatAppointment(active, f.clock.Location()),
			mainMenuButtons())

	case "cancelme":
		active, err := f.booking.ActiveFor(ctx, sess.Phone)
		if err != nil {
			return err
		}
		if active == nil {
			return f.msgr.SendChoices(ctx, sess.Phone,
				"No tienes citas activas para cancelar.", mainMenuButtons())
		}
		sess.Step = session.StepCancelConfirm
		if err := f.sessions.Put(ctx, sess); err != nil {
			return err
		}
		return f.msgr.SendChoices(ctx, sess.Phone,
			"¿Seguro que deseas cancelar esta cita?\n\n"+formatAppointment(active, f.clock.Location()),
			[]Button{
				{Label: "Sí, cancelar", Data: "cxl|yes"},
				{Label: "No, conservarla", Data: "cxl|no"},
			})

	default:
		return f.msgr.SendChoices(ctx, sess.Phone, "Usa los botones 👆 para continuar:", mainMenuButtons())
	}
}

func (f *BookingFlow) handleName(ctx context.Context, sess *session.Session, ev Event) error {
	name := strings.TrimSpace(ev.Payload)
	if ev.Kind != KindText || len([]rune(name)) < 2 || len([]rune(name)) > 100 {
		return f.msgr.SendText(ctx, sess.Phone,
			"El nombre debe tener entre 2 y 100 caracteres. ✏️ ¿Cuál es tu nombre?")
	}

	sess.Booking.Name = name
	sess.Step = session.StepStaff
	if err := f.sessions.Put(ctx, sess); err != nil {
		return err
	}
	return f.sendStaffList(ctx, sess)
}

func (f *BookingFlow) sendStaffList(ctx context.Context, sess *session.Session) error {
	staff, err := f.staff.ListActive(ctx)
	if err != nil {
		return err
	}
	rows := make([]Button, 0, len(staff))
	for _, st := range staff {
		rows = append(rows, Button{
			Label: "✂️ " + st.Name,
			Data:  fmt.Sprintf("staff|%d", st.ID),
		})
	}
	return f.msgr.SendList(ctx, sess.Phone,
		fmt.Sprintf("Mucho gusto, %s. ¿Con cuál barbero?", sess.Booking.Name),
		[]Section{{Title: "Barberos", Rows: rows}})
}

func (f *BookingFlow) handleStaff(ctx context.Context, sess *session.Session, ev Event) error {
	id, ok := selectionID(ev, "staff")
	if !ok {
		return f.sendStaffList(ctx, sess)
	}
	staffID, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return f.sendStaffList(ctx, sess)
	}
	if _, err := f.staff.ByID(ctx, uint(staffID)); err != nil {
		if errs.Is(err, errs.NotFound) {
			return f.sendStaffList(ctx, sess)
		}
		return err
	}

	sess.Booking.StaffID = uint(staffID)
	sess.Step = session.StepService
	if err := f.sessions.Put(ctx, sess); err != nil {
		return err
	}
	return f.sendServiceChoices(ctx, sess)
}

func (f *BookingFlow) sendServiceChoices(ctx context.Context, sess *session.Session) error {
	return f.msgr.SendChoices(ctx, sess.Phone, "💈 ¿Qué servicio deseas?", []Button{
		{Label: services.ServiceLabel(database.ServiceHaircut), Data: "svc|haircut"},
		{Label: services.ServiceLabel(database.ServiceBeard), Data: "svc|beard"},
		{Label: services.ServiceLabel(database.ServiceBoth), Data: "svc|both"},
	})
}

func (f *BookingFlow) handleService(ctx context.Context, sess *session.Session, ev Event) error {
	id, ok := selectionID(ev, "svc")
	if !ok || !validService(id) {
		return f.sendServiceChoices(ctx, sess)
	}

	sess.Booking.Service = id
	sess.Step = session.StepDate
	if err := f.sessions.Put(ctx, sess); err != nil {
		return err
	}
	return f.sendDateList(ctx, sess)
}

func validService(id string) bool {
	switch database.ServiceCategory(id) {
	case database.ServiceHaircut, database.ServiceBeard, database.ServiceBoth:
		return true
	}
	return false
}

func (f *BookingFlow) sendDateList(ctx context.Context, sess *session.Session) error {
	today := f.clock.Today()
	rows := make([]Button, 0, bookingHorizonDays)
	for i := 0; i < bookingHorizonDays; i++ {
		day := today.AddDate(0, 0, i)
		rows = append(rows, Button{
			Label: dateLabel(day, today),
			Data:  "date|" + day.Format("2006-01-02"),
		})
	}
	return f.msgr.SendList(ctx, sess.Phone, "📆 ¿Qué día te queda bien?",
		[]Section{{Title: "Próximos días", Rows: rows}})
}

func (f *BookingFlow) handleDate(ctx context.Context, sess *session.Session, ev Event) error {
	raw, ok := selectionID(ev, "date")
	if !ok {
		return f.sendDateList(ctx, sess)
	}
	day, err := clock.ParseDate(raw, f.clock.Location())
	if err != nil {
		return f.sendDateList(ctx, sess)
	}
	today := f.clock.Today()
	if day.Before(today) || day.After(today.AddDate(0, 0, bookingHorizonDays-1)) {
		return f.sendDateList(ctx, sess)
	}

	sess.Booking.Date = day
	sess.Step = session.StepTime
	sess.Booking.Page = 0
	if err := f.sessions.Put(ctx, sess); err != nil {
		return err
	}
	return f.sendTimeList(ctx, sess, 0, "")
}

// sendTimeList shows one page of the refreshed slot list for the chosen
// date. An empty day routes back to the date step.
func (f *BookingFlow) sendTimeList(ctx context.Context, sess *session.Session, page int, notice string) error {
	staff, err := f.staff.ByID(ctx, sess.Booking.StaffID)
	if err != nil {
		return err
	}
	slots, err := f.avail.Slots(ctx, staff, sess.Booking.Date)
	if err != nil {
		return err
	}
	if len(slots) == 0 {
		sess.Step = session.StepDate
		if err := f.sessions.Put(ctx, sess); err != nil {
			return err
		}
		if err := f.msgr.SendText(ctx, sess.Phone,
			"😔 No quedan horarios disponibles ese día. Elige otra fecha:"); err != nil {
			return err
		}
		return f.sendDateList(ctx, sess)
	}

	rows := make([]Button, 0, len(slots))
	for _, slot := range slots {
		rows = append(rows, Button{Label: "🕐 " + slot.Time, Data: "time|" + slot.Time})
	}
	rows = paginate(rows, page, fmt.Sprintf("more|%d", page+1), "➡️ Ver más horarios")

	text := "⏰ Horarios disponibles el " + sess.Booking.Date.Format("02/01/2006") + ":"
	if notice != "" {
		text = notice + "\n\n" + text
	}
	return f.msgr.SendList(ctx, sess.Phone, text, []Section{{Title: "Horarios", Rows: rows}})
}

func (f *BookingFlow) handleTime(ctx context.Context, sess *session.Session, ev Event) error {
	if page, ok := selectionID(ev, "more"); ok {
		n, err := strconv.Atoi(page)
		if err != nil {
			n = 0
		}
		sess.Booking.Page = n
		if err := f.sessions.Put(ctx, sess); err != nil {
			return err
		}
		return f.sendTimeList(ctx, sess, n, "")
	}

	raw, ok := selectionID(ev, "time")
	if !ok {
		return f.sendTimeList(ctx, sess, sess.Booking.Page, "")
	}
	hhmm, err := time.Parse("15:04", raw)
	if err != nil {
		return f.sendTimeList(ctx, sess, sess.Booking.Page, "")
	}

	staff, err := f.staff.ByID(ctx, sess.Booking.StaffID)
	if err != nil {
		return err
	}
	at := clock.AtHour(sess.Booking.Date, hhmm.Hour())

	// The flow books for the sender unless an admin entered it for a
	// target identity.
	phone := sess.Phone
	if sess.Booking.TargetPhone != "" {
		phone = sess.Booking.TargetPhone
	}

	appt, err := f.booking.Create(ctx, services.BookingRequest{
		Phone:   phone,
		Name:    sess.Booking.Name,
		Staff:   staff,
		Service: database.ServiceCategory(sess.Booking.Service),
		At:      at,
	})
	if err != nil {
		switch errs.KindOf(err) {
		case errs.Conflict:
			// Slot raced away; refresh the list rather than silently
			// picking another slot.
			return f.sendTimeList(ctx, sess, 0, "⚠️ Esa hora ya fue tomada.")
		case errs.Validation:
			return f.sendTimeList(ctx, sess, 0, "⚠️ Esa hora ya no es válida.")
		default:
			return err
		}
	}

	// Flow committed: the session is destroyed and the confirmation is
	// handed to the messaging boundary.
	if err := f.sessions.Delete(ctx, sess.Phone); err != nil {
		return err
	}
	f.notify.SendBookingConfirmation(ctx, appt)
	if sess.Booking.TargetPhone != "" {
		return f.msgr.SendText(ctx, sess.Phone,
			fmt.Sprintf("✅ Cita agendada para %s (%s).", sess.Booking.Name, phone))
	}
	return nil
}

func (f *BookingFlow) handleCancelConfirm(ctx context.Context, sess *session.Session, ev Event) error {
	answer, ok := selectionID(ev, "cxl")
	if !ok {
		sess.ResetFlow()
		if err := f.sessions.Put(ctx, sess); err != nil {
			return err
		}
		return f.msgr.SendChoices(ctx, sess.Phone, "🏠 Menú principal. ¿Qué deseas hacer?", mainMenuButtons())
	}

	if answer != "yes" {
		sess.ResetFlow()
		if err := f.sessions.Put(ctx, sess); err != nil {
			return err
		}
		return f.msgr.SendChoices(ctx, sess.Phone, "Tu cita sigue en pie. 😊", mainMenuButtons())
	}

	appt, err := f.booking.CancelByCustomer(ctx, sess.Phone)
	if err != nil {
		if errs.Is(err, errs.NotFound) {
			sess.ResetFlow()
			if putErr := f.sessions.Put(ctx, sess); putErr != nil {
				return putErr
			}
			return f.msgr.SendChoices(ctx, sess.Phone, "No tienes citas activas.", mainMenuButtons())
		}
		return err
	}

	if err := f.sessions.Delete(ctx, sess.Phone); err != nil {
		return err
	}
	at := appt.ScheduledAt.In(f.clock.Location())
	return f.msgr.SendText(ctx, sess.Phone,
		fmt.Sprintf("✅ Tu cita del %s a las %s fue cancelada. ¡Vuelve pronto!",
			at.Format("02/01/2006"), at.Format("15:04")))
}

// selectionID extracts the value of a "prefix|value" selection payload
func selectionID(ev Event, prefix string) (string, bool) {
	if ev.Kind != KindSelection {
		return "", false
	}
	parts := strings.SplitN(strings.TrimSpace(ev.Payload), "|", 2)
	if len(parts) != 2 || parts[0] != prefix {
		return "", false
	}
	return parts[1], true
}

// formatAppointment renders one appointment for the customer
func formatAppointment(appt *database.Appointment, loc *time.Location) string {
	at := appt.ScheduledAt.In(loc)
	return fmt.Sprintf("💈 %s\n✂️ %s\n📆 %s a las %s",
		services.ServiceLabel(appt.Service),
		appt.Staff.Name,
		at.Format("02/01/2006"),
		at.Format("15:04"))
}

// spanishWeekdays abbreviates weekday names for date rows
var spanishWeekdays = map[time.Weekday]string{
	time.Sunday:    "Dom",
	time.Monday:    "Lun",
	time.Tuesday:   "Mar",
	time.Wednesday: "Mié",
	time.Thursday:  "Jue",
	time.Friday:    "Vie",
	time.Saturday:  "Sáb",
}

func dateLabel(day, today time.Time) string {
	switch {
	case clock.SameDay(day, today):
		return "Hoy " + day.Format("02/01")
	case clock.SameDay(day, today.AddDate(0, 0, 1)):
		return "Mañana " + day.Format("02/01")
	default:
		return spanishWeekdays[day.Weekday()] + " " + day.Format("02/01")
	}
}
