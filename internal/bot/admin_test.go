package bot

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/clock"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/database"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/services"
)

func TestParseAdminCommand(t *testing.T) {
	cases := []struct {
		name   string
		text   string
		ok     bool
		action string
		params []string
	}{
		{"panel default", "admin alex 1234", true, "panel", nil},
		{"spanish action", "admin alex 1234 hoy", true, "today", []string{}},
		{"english action", "admin alex 1234 week", true, "week", []string{}},
		{"case insensitive", "ADMIN Alex 1234 HOY", true, "today", []string{}},
		{"params preserved", "admin alex 1234 nota 3001112233 Prefiere Corte Bajo", true, "note",
			[]string{"3001112233", "Prefiere", "Corte", "Bajo"}},
		{"accented stats", "admin alex 1234 estadísticas", true, "stats", []string{}},
		{"plain text", "hola buenas", false, "", nil},
		{"prefix only", "admin", false, "", nil},
		{"missing pin", "admin alex", false, "", nil},
		{"alpha pin", "admin alex abcd", false, "", nil},
		{"short pin", "admin alex 123", false, "", nil},
		{"unknown action", "admin alex 1234 fly", false, "", nil},
		{"alias with symbols", "admin a!ex 1234", false, "", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, ok := ParseAdminCommand(tc.text)
			require.Equal(t, tc.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tc.action, cmd.Action)
			if len(tc.params) > 0 {
				assert.Equal(t, tc.params, cmd.Params)
			}
		})
	}
}

func TestAdmin_LoginOpensPanel(t *testing.T) {
	app := newTestApp(t)

	app.text(customer, "admin alex 1234")
	panel := app.msgr.last(t)
	assert.Contains(t, panel.Text, "Panel de Alex")
	assert.Contains(t, panel.rowData(), "adm|today")
	assert.Contains(t, panel.rowData(), "adm|logout")
}

func TestAdmin_BadCredentialsAreGeneric(t *testing.T) {
	app := newTestApp(t)

	app.text(customer, "admin alex 9999")
	wrongPin := app.msgr.last(t).Text
	app.msgr.reset()
	app.text(customer, "admin nadie 1234")
	unknownAlias := app.msgr.last(t).Text

	assert.Contains(t, wrongPin, "Credenciales inválidas")
	assert.Equal(t, wrongPin, unknownAlias)
}

func TestAdmin_MalformedCommandFallsThrough(t *testing.T) {
	app := newTestApp(t)

	// Not a structured command: the identity just gets the customer
	// greeting, nothing admin-shaped leaks.
	app.text(customer, "admin alex")
	fallthru := app.msgr.last(t)
	assert.Contains(t, fallthru.Text, "Bienvenido")
	assert.NotContains(t, strings.ToLower(fallthru.Text), "credenciales")
}

func TestAdmin_TodayAndWeekViews(t *testing.T) {
	app := newTestApp(t)
	walkToTimeStep(t, app, customer)
	app.tap(customer, "time|11:00")

	app.text("staffchat", "admin alex 1234 hoy")
	assert.Contains(t, app.msgr.last(t).Text, "Sin citas")

	app.text("staffchat", "admin alex 1234 semana")
	week := app.msgr.last(t).Text
	assert.Contains(t, week, "Carlos")
	assert.Contains(t, week, "11:00")
}

func TestAdmin_CompleteAppointment(t *testing.T) {
	app := newTestApp(t)
	walkToTimeStep(t, app, customer)
	app.tap(customer, "time|11:00")

	appt, err := app.booking.ActiveFor(context.Background(), customer)
	require.NoError(t, err)

	app.text("staffchat", fmt.Sprintf("admin alex 1234 completar %s", appt.ID[:idPrefixLen]))
	assert.Contains(t, app.msgr.last(t).Text, "completada")

	done, err := app.store.FindAppointmentByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, database.StatusCompleted, done.Status)
}

func TestAdmin_ConfirmAppointment(t *testing.T) {
	app := newTestApp(t)
	walkToTimeStep(t, app, customer)
	app.tap(customer, "time|11:00")

	appt, err := app.booking.ActiveFor(context.Background(), customer)
	require.NoError(t, err)
	require.Equal(t, database.StatusPending, appt.Status)

	app.text("staffchat", fmt.Sprintf("admin alex 1234 confirmar %s", appt.ID[:idPrefixLen]))
	assert.Contains(t, app.msgr.last(t).Text, "confirmada")

	confirmed, err := app.store.FindAppointmentByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, database.StatusConfirmed, confirmed.Status)
}

func TestAdmin_CancelNotifiesCustomer(t *testing.T) {
	app := newTestApp(t)
	walkToTimeStep(t, app, customer)
	app.tap(customer, "time|11:00")
	app.msgr.reset()

	appt, err := app.booking.ActiveFor(context.Background(), customer)
	require.NoError(t, err)

	app.text("staffchat", fmt.Sprintf("admin alex 1234 cancelar %s", appt.ID[:idPrefixLen]))

	var customerNotified, staffConfirmed bool
	for _, m := range app.msgr.sent {
		if m.To == customer && strings.Contains(m.Text, "cancelada por la barbería") {
			customerNotified = true
		}
		if m.To == "staffchat" && strings.Contains(m.Text, "cancelada") {
			staffConfirmed = true
		}
	}
	assert.True(t, customerNotified, "customer should get the cancellation notice")
	assert.True(t, staffConfirmed)
}

func TestAdmin_BlockAndUnblockByCommand(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	app.text("staffchat", "admin alex 1234 bloquear 12")
	assert.Contains(t, app.msgr.last(t).Text, "bloqueada")

	alex, err := app.store.FindStaffByID(ctx, app.staffID)
	require.NoError(t, err)
	blocked, err := app.store.BlockedSlotsFor(ctx, alex.ID, app.clk.Today())
	require.NoError(t, err)
	require.Len(t, blocked, 1)
	assert.Equal(t, "12:00", blocked[0].StartTime)
	assert.True(t, blocked[0].Recurring)

	app.text("staffchat", "admin alex 1234 desbloquear 12")
	assert.Contains(t, app.msgr.last(t).Text, "desbloqueada")
	blocked, err = app.store.BlockedSlotsFor(ctx, alex.ID, app.clk.Today())
	require.NoError(t, err)
	assert.Empty(t, blocked)
}

func TestAdmin_BlockFlowViaButtons(t *testing.T) {
	app := newTestApp(t)

	app.text("staffchat", "admin alex 1234")
	app.tap("staffchat", "adm|block")
	datePicker := app.msgr.last(t)
	assert.Contains(t, datePicker.rowData(), "abd|R")

	app.tap("staffchat", "abd|R")
	hours := app.msgr.last(t)
	assert.Contains(t, hours.rowData(), "abh|R|12")

	app.tap("staffchat", "abh|R|12")
	reasons := app.msgr.last(t)
	assert.Contains(t, reasons.rowData(), "abr|R|12|lunch")

	app.tap("staffchat", "abr|R|12|lunch")
	assert.Contains(t, app.msgr.last(t).Text, "bloqueada")

	// The blocked hour is no longer offered for blocking.
	app.tap("staffchat", "adm|block")
	app.tap("staffchat", "abd|R")
	assert.NotContains(t, app.msgr.last(t).rowData(), "abh|R|12")
}

func TestAdmin_NoteDialogue(t *testing.T) {
	app := newTestApp(t)
	walkToTimeStep(t, app, customer)
	app.tap(customer, "time|11:00")

	app.text("staffchat", "admin alex 1234")
	app.tap("staffchat", "adm|note")
	picker := app.msgr.last(t)
	assert.Contains(t, picker.rowData(), "ant|"+customer)

	app.tap("staffchat", "ant|"+customer)
	assert.Contains(t, app.msgr.last(t).Text, "Escribe la nota")

	app.text("staffchat", "Prefiere <b>degradado</b> alto")
	assert.Contains(t, app.msgr.last(t).Text, "Nota guardada")

	notes, err := app.store.NotesForClient(context.Background(), customer, 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Text, "&lt;b&gt;")
	assert.Equal(t, app.staffID, notes[0].StaffID)
}

func TestAdmin_NoteCancelKeyword(t *testing.T) {
	app := newTestApp(t)
	walkToTimeStep(t, app, customer)
	app.tap(customer, "time|11:00")

	app.text("staffchat", "admin alex 1234")
	app.tap("staffchat", "adm|note")
	app.tap("staffchat", "ant|"+customer)
	app.text("staffchat", "cancelar")
	assert.Contains(t, app.msgr.last(t).Text, "Panel de Alex")

	notes, err := app.store.NotesForClient(context.Background(), customer, 10)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestAdmin_Stats(t *testing.T) {
	app := newTestApp(t)
	walkToTimeStep(t, app, customer)
	app.tap(customer, "time|11:00")

	appt, err := app.booking.ActiveFor(context.Background(), customer)
	require.NoError(t, err)
	_, err = app.booking.Complete(context.Background(), app.staffID, appt.ID)
	require.NoError(t, err)

	app.text("staffchat", "admin alex 1234 estadisticas")
	stats := app.msgr.last(t).Text
	assert.Contains(t, stats, "Estadísticas de marzo 2026")
	assert.Contains(t, stats, "Total de citas: 1")
	assert.Contains(t, stats, "100%")
}

func TestAdmin_BookForClient(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	const target = "3009998877"

	app.text("staffchat", "admin alex 1234 agendar "+target)
	assert.Contains(t, app.msgr.last(t).Text, "nombre del cliente")

	app.text("staffchat", "Don Pedro")
	assert.Contains(t, app.msgr.last(t).rowData(), fmt.Sprintf("staff|%d", app.staffID))

	app.tap("staffchat", fmt.Sprintf("staff|%d", app.staffID))
	app.tap("staffchat", "svc|haircut")
	tomorrow := clock.Midnight(testInstant).AddDate(0, 0, 1).Format("2006-01-02")
	app.tap("staffchat", "date|"+tomorrow)
	app.tap("staffchat", "time|10:00")

	appt, err := app.booking.ActiveFor(ctx, target)
	require.NoError(t, err)
	require.NotNil(t, appt)
	assert.Equal(t, "Don Pedro", appt.CustomerName)
	assert.Equal(t, database.StatusPending, appt.Status)

	// The admin gets a summary and the session is gone.
	assert.Contains(t, app.msgr.last(t).Text, "agendada para Don Pedro")
	assert.Zero(t, app.sessions.Len())
}

func TestAdmin_BookForClient_ActiveTargetRejected(t *testing.T) {
	app := newTestApp(t)
	walkToTimeStep(t, app, customer)
	app.tap(customer, "time|11:00")

	app.text("staffchat", "admin alex 1234 agendar "+customer)
	assert.Contains(t, app.msgr.last(t).Text, "ya tiene una cita activa")
}

func TestAdmin_BookForClient_BadPhoneReprompts(t *testing.T) {
	app := newTestApp(t)

	app.text("staffchat", "admin alex 1234 agendar abc")
	assert.Contains(t, app.msgr.last(t).Text, "solo dígitos")
}

func TestAdmin_BookForClient_MenuDropsBackToPanel(t *testing.T) {
	app := newTestApp(t)

	app.text("staffchat", "admin alex 1234 agendar 3009998877")
	app.text("staffchat", "menu")
	assert.Contains(t, app.msgr.last(t).Text, "cancelado")

	// The next command lands on the panel, not the customer flow.
	app.text("staffchat", "admin alex 1234 hoy")
	assert.Contains(t, app.msgr.last(t).Text, "Sin citas")
}

func TestAdmin_UnblockOtherStaffBlockIsRejected(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	// A second barber blocks an hour; alex forges the unblock payload.
	staffSvc := services.NewStaffService(app.store, services.BcryptHasher{})
	require.NoError(t, staffSvc.Seed(ctx, []services.RosterEntry{
		{Alias: "bruno", Name: "Bruno", Pin: "9876", StartHour: 9, EndHour: 17},
	}))
	other, err := app.store.FindStaffByAlias(ctx, "bruno")
	require.NoError(t, err)

	blockSvc := services.NewBlockService(app.store, app.clk)
	slot, err := blockSvc.BlockHour(ctx, other, nil, 12, database.ReasonBreak)
	require.NoError(t, err)

	app.text("staffchat", "admin alex 1234")
	app.tap("staffchat", "aub|"+slot.ID[:idPrefixLen])
	assert.Contains(t, app.msgr.last(t).Text, "otro barbero")

	remaining, err := blockSvc.List(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestAdmin_Logout(t *testing.T) {
	app := newTestApp(t)

	app.text("staffchat", "admin alex 1234")
	app.tap("staffchat", "adm|logout")
	assert.Contains(t, app.msgr.last(t).Text, "Sesión cerrada")
	assert.Zero(t, app.sessions.Len())

	// The identity is a plain customer again.
	app.text("staffchat", "hola")
	assert.Contains(t, app.msgr.last(t).Text, "Bienvenido")
}

func TestAdmin_DayViewByDate(t *testing.T) {
	app := newTestApp(t)
	walkToTimeStep(t, app, customer)
	app.tap(customer, "time|11:00")

	tomorrow := clock.Midnight(testInstant).AddDate(0, 0, 1).Format("2006-01-02")
	app.text("staffchat", "admin alex 1234 fecha "+tomorrow)
	day := app.msgr.last(t).Text
	assert.Contains(t, day, "Carlos")
	assert.Contains(t, day, "11:00")
}
