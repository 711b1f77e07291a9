// Package bot contains the admin panel actions
package bot

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/clock"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/database"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/errs"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/services"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/session"
)

// idPrefixLen keeps selection payloads short while staying unique
// within one staff member's lists
const idPrefixLen = 8

// recurringToken marks "every day" in block flow payloads
const recurringToken = "R"

// runAction executes one canonical admin action. Params come from the
// typed command form; an empty params slice falls back to the
// selection-driven flow.
func (a *AdminPanel) runAction(ctx context.Context, sess *session.Session, action string, params []string) error {
	sess.Admin.State = session.AdminMenu
	if err := a.sessions.Put(ctx, sess); err != nil {
		return err
	}

	switch action {
	case "panel", "":
		return a.sendPanel(ctx, sess)
	case "today":
		return a.viewDay(ctx, sess, a.clock.Today())
	case "week":
		return a.viewWeek(ctx, sess)
	case "day":
		if len(params) > 0 {
			return a.viewDate(ctx, sess, params[0])
		}
		return a.sendDatePicker(ctx, sess, "avd", "📆 ¿Qué fecha quieres revisar?")
	case "block":
		if len(params) > 0 {
			return a.blockFromParams(ctx, sess, params)
		}
		return a.sendBlockDatePicker(ctx, sess)
	case "unblock":
		if len(params) > 0 {
			return a.unblockFromParams(ctx, sess, params)
		}
		return a.sendUnblockList(ctx, sess, 0)
	case "book":
		return a.bookForClient(ctx, sess, params)
	case "confirm":
		if len(params) > 0 {
			return a.confirmAppointment(ctx, sess, params[0])
		}
		return a.sendAppointmentPicker(ctx, sess, "acf", "afm", 0)
	case "complete":
		if len(params) > 0 {
			return a.completeAppointment(ctx, sess, params[0])
		}
		return a.sendAppointmentPicker(ctx, sess, "acp", "acm", 0)
	case "cancel":
		if len(params) > 0 {
			return a.cancelAppointment(ctx, sess, params[0])
		}
		return a.sendAppointmentPicker(ctx, sess, "acx", "axm", 0)
	case "note":
		return a.noteAction(ctx, sess, params)
	case "stats":
		return a.viewStats(ctx, sess)
	case "help":
		return a.sendHelp(ctx, sess)
	case "logout":
		return a.logout(ctx, sess)
	default:
		return a.sendPanel(ctx, sess)
	}
}

// sendPanel shows the admin menu as a sectioned list
func (a *AdminPanel) sendPanel(ctx context.Context, sess *session.Session) error {
	staff, err := a.staff.ByID(ctx, sess.Admin.StaffID)
	if err != nil {
		return err
	}
	return a.msgr.SendList(ctx, sess.Phone,
		fmt.Sprintf("🔧 Panel de %s. Elige una opción:", staff.Name),
		[]Section{
			{Title: "Agenda", Rows: []Button{
				{Label: "📅 Citas de hoy", Data: "adm|today"},
				{Label: "🗓 Citas de la semana", Data: "adm|week"},
				{Label: "📆 Ver una fecha", Data: "adm|day"},
			}},
			{Title: "Gestión", Rows: []Button{
				{Label: "🚫 Bloquear hora", Data: "adm|block"},
				{Label: "🔓 Desbloquear hora", Data: "adm|unblock"},
				{Label: "✔️ Completar cita", Data: "adm|complete"},
				{Label: "❌ Cancelar cita", Data: "adm|cancel"},
				{Label: "📝 Nota de cliente", Data: "adm|note"},
			}},
			{Title: "Más", Rows: []Button{
				{Label: "📊 Estadísticas del mes", Data: "adm|stats"},
				{Label: "👋 Salir", Data: "adm|logout"},
			}},
		})
}

func (a *AdminPanel) viewDate(ctx context.Context, sess *session.Session, raw string) error {
	day, err := clock.ParseDate(raw, a.clock.Location())
	if err != nil {
		return a.sendDatePicker(ctx, sess, "avd", "📆 Fecha inválida. ¿Qué fecha quieres revisar?")
	}
	return a.viewDay(ctx, sess, day)
}

func (a *AdminPanel) viewDay(ctx context.Context, sess *session.Session, day time.Time) error {
	appts, err := a.booking.DayAppointments(ctx, sess.Admin.StaffID, day)
	if err != nil {
		return err
	}
	if len(appts) == 0 {
		return a.msgr.SendText(ctx, sess.Phone,
			fmt.Sprintf("📅 Sin citas el %s.", day.Format("02/01/2006")))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📅 Citas del %s:\n", day.Format("02/01/2006"))
	for _, appt := range appts {
		b.WriteString("\n" + a.describeAppointment(&appt))
	}
	return a.msgr.SendText(ctx, sess.Phone, b.String())
}

func (a *AdminPanel) viewWeek(ctx context.Context, sess *session.Session) error {
	appts, counts, err := a.booking.WeekAppointments(ctx, sess.Admin.StaffID)
	if err != nil {
		return err
	}
	if len(appts) == 0 {
		return a.msgr.SendText(ctx, sess.Phone, "🗓 Sin citas en los próximos 7 días.")
	}
	var b strings.Builder
	b.WriteString("🗓 Próximos 7 días:\n")
	today := a.clock.Today()
	for i := 0; i < 7; i++ {
		day := today.AddDate(0, 0, i)
		if n := counts[day.Format("2006-01-02")]; n > 0 {
			fmt.Fprintf(&b, "\n*%s* · %d citas", dateLabel(day, today), n)
			for _, appt := range appts {
				if clock.SameDay(appt.ScheduledAt.In(a.clock.Location()), day) {
					b.WriteString("\n  " + a.describeAppointment(&appt))
				}
			}
		}
	}
	return a.msgr.SendText(ctx, sess.Phone, b.String())
}

// sendDatePicker offers the next seven days under the given selection prefix
func (a *AdminPanel) sendDatePicker(ctx context.Context, sess *session.Session, prefix, text string) error {
	today := a.clock.Today()
	rows := make([]Button, 0, 7)
	for i := 0; i < 7; i++ {
		day := today.AddDate(0, 0, i)
		rows = append(rows, Button{
			Label: dateLabel(day, today),
			Data:  prefix + "|" + day.Format("2006-01-02"),
		})
	}
	return a.msgr.SendList(ctx, sess.Phone, text, []Section{{Title: "Fechas", Rows: rows}})
}

// --- block / unblock ---

func (a *AdminPanel) sendBlockDatePicker(ctx context.Context, sess *session.Session) error {
	today := a.clock.Today()
	rows := []Button{{Label: "🔁 Todos los días", Data: "abd|" + recurringToken}}
	for i := 0; i < 7; i++ {
		day := today.AddDate(0, 0, i)
		rows = append(rows, Button{
			Label: dateLabel(day, today),
			Data:  "abd|" + day.Format("2006-01-02"),
		})
	}
	return a.msgr.SendList(ctx, sess.Phone,
		"🚫 ¿Qué día quieres bloquear una hora?",
		[]Section{{Title: "Fechas", Rows: rows}})
}

// blockDate resolves a block-flow date token: nil means recurring
func (a *AdminPanel) blockDate(tok string) (*time.Time, error) {
	if tok == recurringToken {
		return nil, nil
	}
	day, err := clock.ParseDate(tok, a.clock.Location())
	if err != nil {
		return nil, err
	}
	return &day, nil
}

func (a *AdminPanel) chooseBlockHourPage(ctx context.Context, sess *session.Session, data string) error {
	tok, pageRaw := splitSelection(data)
	return a.chooseBlockHour(ctx, sess, tok, atoiOr(pageRaw, 0))
}

// chooseBlockHour lists the staff member's blockable hours for the
// chosen date: working hours not already blocked.
func (a *AdminPanel) chooseBlockHour(ctx context.Context, sess *session.Session, tok string, page int) error {
	date, err := a.blockDate(tok)
	if err != nil {
		return a.sendBlockDatePicker(ctx, sess)
	}
	staff, err := a.staff.ByID(ctx, sess.Admin.StaffID)
	if err != nil {
		return err
	}
	checkDate := a.clock.Today()
	if date != nil {
		checkDate = *date
	}
	blocked, err := a.blocks.List(ctx, staff.ID)
	if err != nil {
		return err
	}

	rows := make([]Button, 0, staff.EndHour-staff.StartHour)
	for hour := staff.StartHour; hour < staff.EndHour; hour++ {
		if hourBlocked(blocked, hour, checkDate, date == nil) {
			continue
		}
		rows = append(rows, Button{
			Label: fmt.Sprintf("🕐 %02d:00", hour),
			Data:  fmt.Sprintf("abh|%s|%d", tok, hour),
		})
	}
	if len(rows) == 0 {
		return a.msgr.SendText(ctx, sess.Phone, "No quedan horas por bloquear ese día.")
	}
	rows = paginate(rows, page, fmt.Sprintf("abm|%s|%d", tok, page+1), "➡️ Más horas")
	return a.msgr.SendList(ctx, sess.Phone, "🕐 ¿Qué hora bloqueas?",
		[]Section{{Title: "Horas", Rows: rows}})
}

// hourBlocked reports whether an hour is already covered for the date.
// For a recurring request only recurring intervals count.
func hourBlocked(blocked []database.BlockedSlot, hour int, date time.Time, recurringOnly bool) bool {
	for _, b := range blocked {
		if recurringOnly && !b.Recurring {
			continue
		}
		if !b.Recurring && (b.Date == nil || !clock.SameDay(*b.Date, date)) {
			continue
		}
		if b.StartTime <= fmt.Sprintf("%02d:00", hour) && fmt.Sprintf("%02d:00", hour) < b.EndTime {
			return true
		}
	}
	return false
}

func (a *AdminPanel) chooseBlockReason(ctx context.Context, sess *session.Session, data string) error {
	rows := []Button{
		{Label: "🍽 Almuerzo", Data: "abr|" + data + "|lunch"},
		{Label: "☕ Descanso", Data: "abr|" + data + "|break"},
		{Label: "👤 Personal", Data: "abr|" + data + "|personal"},
		{Label: "📌 Otro", Data: "abr|" + data + "|other"},
	}
	return a.msgr.SendList(ctx, sess.Phone, "¿Motivo del bloqueo?",
		[]Section{{Title: "Motivos", Rows: rows}})
}

func (a *AdminPanel) createBlock(ctx context.Context, sess *session.Session, data string) error {
	parts := strings.Split(data, "|")
	if len(parts) != 3 {
		return a.sendPanel(ctx, sess)
	}
	date, err := a.blockDate(parts[0])
	if err != nil {
		return a.sendBlockDatePicker(ctx, sess)
	}
	hour, err := strconv.Atoi(parts[1])
	if err != nil {
		return a.sendBlockDatePicker(ctx, sess)
	}
	staff, err := a.staff.ByID(ctx, sess.Admin.StaffID)
	if err != nil {
		return err
	}

	slot, err := a.blocks.BlockHour(ctx, staff, date, hour, database.BlockReason(parts[2]))
	if err != nil {
		return a.respondErr(ctx, sess, err)
	}

	when := "todos los días"
	if slot.Date != nil {
		when = "el " + slot.Date.Format("02/01/2006")
	}
	return a.msgr.SendText(ctx, sess.Phone,
		fmt.Sprintf("🚫 Hora %s bloqueada %s.", slot.StartTime, when))
}

func (a *AdminPanel) blockFromParams(ctx context.Context, sess *session.Session, params []string) error {
	hour, err := strconv.Atoi(params[0])
	if err != nil {
		return a.sendBlockDatePicker(ctx, sess)
	}
	var date *time.Time
	if len(params) > 1 {
		if date, err = a.blockDate(params[1]); err != nil {
			return a.sendBlockDatePicker(ctx, sess)
		}
	}
	staff, err := a.staff.ByID(ctx, sess.Admin.StaffID)
	if err != nil {
		return err
	}
	slot, err := a.blocks.BlockHour(ctx, staff, date, hour, database.ReasonOther)
	if err != nil {
		return a.respondErr(ctx, sess, err)
	}
	return a.msgr.SendText(ctx, sess.Phone,
		fmt.Sprintf("🚫 Hora %s bloqueada.", slot.StartTime))
}

func (a *AdminPanel) unblockFromParams(ctx context.Context, sess *session.Session, params []string) error {
	hour, err := strconv.Atoi(params[0])
	if err != nil {
		return a.sendUnblockList(ctx, sess, 0)
	}
	var date *time.Time
	if len(params) > 1 {
		if date, err = a.blockDate(params[1]); err != nil {
			return a.sendUnblockList(ctx, sess, 0)
		}
	}
	if err := a.blocks.UnblockHour(ctx, sess.Admin.StaffID, date, hour); err != nil {
		return a.respondErr(ctx, sess, err)
	}
	return a.msgr.SendText(ctx, sess.Phone, fmt.Sprintf("🔓 Hora %02d:00 desbloqueada.", hour))
}

func (a *AdminPanel) sendUnblockList(ctx context.Context, sess *session.Session, page int) error {
	blocked, err := a.blocks.List(ctx, sess.Admin.StaffID)
	if err != nil {
		return err
	}
	if len(blocked) == 0 {
		return a.msgr.SendText(ctx, sess.Phone, "No tienes horas bloqueadas.")
	}
	rows := make([]Button, 0, len(blocked))
	for _, b := range blocked {
		when := "🔁 diario"
		if b.Date != nil {
			when = b.Date.Format("02/01")
		}
		rows = append(rows, Button{
			Label: fmt.Sprintf("%s · %s (%s)", b.StartTime, when, blockReasonLabel(b.Reason)),
			Data:  "aub|" + b.ID[:idPrefixLen],
		})
	}
	rows = paginate(rows, page, fmt.Sprintf("aum|%d", page+1), "➡️ Más bloqueos")
	return a.msgr.SendList(ctx, sess.Phone, "🔓 ¿Qué bloqueo quitas?",
		[]Section{{Title: "Bloqueos", Rows: rows}})
}

func (a *AdminPanel) unblockByID(ctx context.Context, sess *session.Session, idPrefix string) error {
	if err := a.blocks.UnblockByID(ctx, sess.Admin.StaffID, idPrefix); err != nil {
		return a.respondErr(ctx, sess, err)
	}
	return a.msgr.SendText(ctx, sess.Phone, "🔓 Bloqueo eliminado.")
}

func blockReasonLabel(r database.BlockReason) string {
	switch r {
	case database.ReasonLunch:
		return "almuerzo"
	case database.ReasonBreak:
		return "descanso"
	case database.ReasonPersonal:
		return "personal"
	default:
		return "otro"
	}
}

// --- book for a client ---

var targetPhoneRe = regexp.MustCompile(`^\d{7,15}$`)

// bookForClient seeds the customer booking flow on the admin's own
// session with the target identity pinned. The one-active-appointment
// rule is checked against the target before the flow starts.
func (a *AdminPanel) bookForClient(ctx context.Context, sess *session.Session, params []string) error {
	if len(params) == 0 || !targetPhoneRe.MatchString(params[0]) {
		return a.msgr.SendText(ctx, sess.Phone,
			"Uso: agendar <teléfono>\nEl teléfono lleva solo dígitos (7 a 15).")
	}
	phone := params[0]

	active, err := a.booking.ActiveFor(ctx, phone)
	if err != nil {
		return err
	}
	if active != nil {
		return a.msgr.SendText(ctx, sess.Phone,
			"⚠️ Ese cliente ya tiene una cita activa. Cancélala primero.")
	}

	sess.Booking = session.Booking{TargetPhone: phone}
	sess.Step = session.StepName
	if err := a.sessions.Put(ctx, sess); err != nil {
		return err
	}
	return a.msgr.SendText(ctx, sess.Phone, "✏️ ¿Cuál es el nombre del cliente?")
}

// --- complete / cancel ---

// sendAppointmentPicker lists the staff member's upcoming non-terminal
// appointments under the given selection prefix
func (a *AdminPanel) sendAppointmentPicker(ctx context.Context, sess *session.Session, selPrefix, morePrefix string, page int) error {
	appts, _, err := a.booking.WeekAppointments(ctx, sess.Admin.StaffID)
	if err != nil {
		return err
	}
	rows := make([]Button, 0, len(appts))
	for _, appt := range appts {
		if appt.Status.Terminal() {
			continue
		}
		at := appt.ScheduledAt.In(a.clock.Location())
		rows = append(rows, Button{
			Label: fmt.Sprintf("%s %s · %s", at.Format("02/01"), at.Format("15:04"), appt.CustomerName),
			Data:  selPrefix + "|" + appt.ID[:idPrefixLen],
		})
	}
	if len(rows) == 0 {
		return a.msgr.SendText(ctx, sess.Phone, "No tienes citas pendientes en los próximos 7 días.")
	}
	rows = paginate(rows, page, fmt.Sprintf("%s|%d", morePrefix, page+1), "➡️ Más citas")

	verb := "completar"
	switch selPrefix {
	case "acx":
		verb = "cancelar"
	case "acf":
		verb = "confirmar"
	}
	return a.msgr.SendList(ctx, sess.Phone, fmt.Sprintf("¿Qué cita deseas %s?", verb),
		[]Section{{Title: "Citas", Rows: rows}})
}

func (a *AdminPanel) confirmAppointment(ctx context.Context, sess *session.Session, idPrefix string) error {
	appt, err := a.booking.Confirm(ctx, sess.Admin.StaffID, idPrefix)
	if err != nil {
		return a.respondErr(ctx, sess, err)
	}
	return a.msgr.SendText(ctx, sess.Phone,
		fmt.Sprintf("✅ Cita de %s confirmada.", appt.CustomerName))
}

func (a *AdminPanel) completeAppointment(ctx context.Context, sess *session.Session, idPrefix string) error {
	appt, err := a.booking.Complete(ctx, sess.Admin.StaffID, idPrefix)
	if err != nil {
		return a.respondErr(ctx, sess, err)
	}
	return a.msgr.SendText(ctx, sess.Phone,
		fmt.Sprintf("✔️ Cita de %s marcada como completada.", appt.CustomerName))
}

func (a *AdminPanel) cancelAppointment(ctx context.Context, sess *session.Session, idPrefix string) error {
	appt, err := a.booking.CancelByStaff(ctx, sess.Admin.StaffID, idPrefix)
	if err != nil {
		return a.respondErr(ctx, sess, err)
	}
	// Customer notification is best-effort; the cancellation stands
	// even if delivery fails.
	a.notify.SendStaffCancellation(ctx, appt)
	return a.msgr.SendText(ctx, sess.Phone,
		fmt.Sprintf("❌ Cita de %s cancelada. El cliente fue notificado.", appt.CustomerName))
}

// --- notes ---

func (a *AdminPanel) noteAction(ctx context.Context, sess *session.Session, params []string) error {
	if len(params) == 0 {
		return a.sendClientPicker(ctx, sess, 0)
	}
	if len(params) == 1 {
		return a.startNote(ctx, sess, params[0])
	}
	// "note <phone> <text...>" writes the note in one shot.
	sess.Admin.NotePhone = params[0]
	return a.saveNote(ctx, sess, strings.Join(params[1:], " "))
}

func (a *AdminPanel) sendClientPicker(ctx context.Context, sess *session.Session, page int) error {
	clients, err := a.clients.Recent(ctx, 50)
	if err != nil {
		return err
	}
	if len(clients) == 0 {
		return a.msgr.SendText(ctx, sess.Phone, "Aún no hay clientes registrados.")
	}
	rows := make([]Button, 0, len(clients))
	for _, c := range clients {
		rows = append(rows, Button{
			Label: fmt.Sprintf("%s · %s", c.Name, c.Phone),
			Data:  "ant|" + c.Phone,
		})
	}
	rows = paginate(rows, page, fmt.Sprintf("anm|%d", page+1), "➡️ Más clientes")
	return a.msgr.SendList(ctx, sess.Phone, "📝 ¿Sobre qué cliente?",
		[]Section{{Title: "Clientes", Rows: rows}})
}

func (a *AdminPanel) startNote(ctx context.Context, sess *session.Session, phone string) error {
	sess.Admin.State = session.AdminAwaitingNote
	sess.Admin.NotePhone = phone

	// Pin the note to the client's active appointment when there is one.
	sess.Admin.NoteAppt = ""
	if appt, err := a.booking.ActiveFor(ctx, phone); err == nil && appt != nil {
		sess.Admin.NoteAppt = appt.ID
	}
	if err := a.sessions.Put(ctx, sess); err != nil {
		return err
	}

	text := "📝 Escribe la nota (máx. 500 caracteres), o *cancelar* para volver."
	if notes, err := a.clients.Notes(ctx, phone, 3); err == nil && len(notes) > 0 {
		var b strings.Builder
		b.WriteString("Notas anteriores:\n")
		for _, n := range notes {
			fmt.Fprintf(&b, "• %s (%s)\n", n.Text, n.CreatedAt.Format("02/01/2006"))
		}
		text = b.String() + "\n" + text
	}
	return a.msgr.SendText(ctx, sess.Phone, text)
}

func (a *AdminPanel) handleNoteText(ctx context.Context, sess *session.Session, text string) error {
	if t := strings.ToLower(strings.TrimSpace(text)); t == "cancelar" || t == "cancel" {
		return a.runAction(ctx, sess, "panel", nil)
	}
	return a.saveNote(ctx, sess, text)
}

func (a *AdminPanel) saveNote(ctx context.Context, sess *session.Session, text string) error {
	var apptID *string
	if sess.Admin.NoteAppt != "" {
		id := sess.Admin.NoteAppt
		apptID = &id
	}
	_, err := a.clients.AddNote(ctx, sess.Admin.StaffID, sess.Admin.NotePhone, text, apptID)
	if err != nil {
		if errs.Is(err, errs.Validation) {
			return a.msgr.SendText(ctx, sess.Phone,
				"⚠️ La nota debe tener entre 1 y 500 caracteres. Intenta de nuevo, o *cancelar*.")
		}
		return err
	}

	sess.Admin.State = session.AdminMenu
	sess.Admin.NotePhone = ""
	sess.Admin.NoteAppt = ""
	if err := a.sessions.Put(ctx, sess); err != nil {
		return err
	}
	return a.msgr.SendText(ctx, sess.Phone, "📝 Nota guardada.")
}

// --- stats / help / logout ---

var spanishMonths = map[time.Month]string{
	time.January: "enero", time.February: "febrero", time.March: "marzo",
	time.April: "abril", time.May: "mayo", time.June: "junio",
	time.July: "julio", time.August: "agosto", time.September: "septiembre",
	time.October: "octubre", time.November: "noviembre", time.December: "diciembre",
}

var spanishWeekdayNames = map[time.Weekday]string{
	time.Sunday: "domingo", time.Monday: "lunes", time.Tuesday: "martes",
	time.Wednesday: "miércoles", time.Thursday: "jueves",
	time.Friday: "viernes", time.Saturday: "sábado",
}

func (a *AdminPanel) viewStats(ctx context.Context, sess *session.Session) error {
	stats, err := a.stats.Monthly(ctx, sess.Admin.StaffID, a.clock.Now())
	if err != nil {
		return err
	}
	if stats.Total == 0 {
		return a.msgr.SendText(ctx, sess.Phone, "📊 Sin citas este mes todavía.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Estadísticas de %s %d\n\n", spanishMonths[stats.Month.Month()], stats.Month.Year())
	fmt.Fprintf(&b, "Total de citas: %d\n", stats.Total)
	fmt.Fprintf(&b, "✔️ Completadas: %d\n", stats.ByStatus[database.StatusCompleted])
	fmt.Fprintf(&b, "⏳ Pendientes: %d\n", stats.ByStatus[database.StatusPending])
	fmt.Fprintf(&b, "✅ Confirmadas: %d\n", stats.ByStatus[database.StatusConfirmed])
	fmt.Fprintf(&b, "❌ Canceladas: %d\n\n", stats.ByStatus[database.StatusCancelled])
	fmt.Fprintf(&b, "Día más ocupado: %s\n", spanishWeekdayNames[stats.BusiestWeekday])
	if len(stats.PeakHours) > 0 {
		hours := make([]string, len(stats.PeakHours))
		for i, h := range stats.PeakHours {
			hours[i] = fmt.Sprintf("%02d:00", h)
		}
		fmt.Fprintf(&b, "Horas pico: %s\n", strings.Join(hours, ", "))
	}
	fmt.Fprintf(&b, "Tasa de finalización: %.0f%%", stats.CompletionRate*100)
	return a.msgr.SendText(ctx, sess.Phone, b.String())
}

func (a *AdminPanel) sendHelp(ctx context.Context, sess *session.Session) error {
	help := "🔧 Comandos del panel:\n\n" +
		"admin <alias> <pin> — abrir el panel\n" +
		"admin <alias> <pin> hoy — citas de hoy\n" +
		"admin <alias> <pin> semana — próximos 7 días\n" +
		"admin <alias> <pin> bloquear <hora> [fecha] — bloquear\n" +
		"admin <alias> <pin> desbloquear <hora> [fecha]\n" +
		"admin <alias> <pin> agendar <teléfono> — agendar para un cliente\n" +
		"admin <alias> <pin> confirmar <id>\n" +
		"admin <alias> <pin> completar <id>\n" +
		"admin <alias> <pin> cancelar <id>\n" +
		"admin <alias> <pin> nota <teléfono> <texto>\n" +
		"admin <alias> <pin> estadisticas\n" +
		"admin <alias> <pin> salir"
	return a.msgr.SendText(ctx, sess.Phone, help)
}

func (a *AdminPanel) logout(ctx context.Context, sess *session.Session) error {
	if err := a.sessions.Delete(ctx, sess.Phone); err != nil {
		return err
	}
	return a.msgr.SendText(ctx, sess.Phone, "👋 Sesión cerrada. ¡Hasta pronto!")
}

// respondErr converts a typed service error into the admin-facing
// message, leaving the panel in a safe state. Infrastructure errors
// propagate to the router.
func (a *AdminPanel) respondErr(ctx context.Context, sess *session.Session, err error) error {
	switch errs.KindOf(err) {
	case errs.Authorization:
		a.log.Warn().Err(err).Uint("staff_id", sess.Admin.StaffID).Msg("cross-staff action rejected")
		return a.msgr.SendText(ctx, sess.Phone, "⛔ Eso pertenece a otro barbero.")
	case errs.Conflict:
		return a.msgr.SendText(ctx, sess.Phone, "⚠️ "+conflictMessage(err))
	case errs.NotFound:
		return a.msgr.SendText(ctx, sess.Phone, "🔍 No se encontró. Revisa el panel e intenta de nuevo.")
	case errs.Validation:
		return a.msgr.SendText(ctx, sess.Phone, "⚠️ Dato inválido. Revisa e intenta de nuevo.")
	default:
		return err
	}
}

func conflictMessage(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "already blocked"):
		return "Esa hora ya está bloqueada."
	case strings.Contains(msg, "already"):
		return "Esa cita ya fue finalizada."
	default:
		return "La acción entra en conflicto con el estado actual."
	}
}

func (a *AdminPanel) describeAppointment(appt *database.Appointment) string {
	at := appt.ScheduledAt.In(a.clock.Location())
	return fmt.Sprintf("%s %s · %s · %s [%s] (%s)",
		statusEmoji(appt.Status),
		at.Format("15:04"),
		appt.CustomerName,
		services.ServiceLabel(appt.Service),
		appt.ID[:idPrefixLen],
		appt.CustomerPhone)
}

func statusEmoji(status database.AppointmentStatus) string {
	switch status {
	case database.StatusPending:
		return "⏳"
	case database.StatusConfirmed:
		return "✅"
	case database.StatusCancelled:
		return "❌"
	case database.StatusCompleted:
		return "✔️"
	default:
		return "❓"
	}
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
