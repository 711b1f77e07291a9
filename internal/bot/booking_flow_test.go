package bot

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/clock"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/database"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/services"
)

const customer = "3001112233"

// walkToTimeStep drives a fresh identity to the time-selection step
func walkToTimeStep(t *testing.T, app *testApp, identity string) string {
	t.Helper()
	app.text(identity, "hola") // greeting
	app.tap(identity, "book")
	app.text(identity, "Carlos")
	app.tap(identity, fmt.Sprintf("staff|%d", app.staffID))
	app.tap(identity, "svc|haircut")

	tomorrow := clock.Midnight(testInstant).AddDate(0, 0, 1).Format("2006-01-02")
	app.tap(identity, "date|"+tomorrow)
	return tomorrow
}

func TestFlow_FullBooking(t *testing.T) {
	app := newTestApp(t)

	app.text(customer, "hola")
	greeting := app.msgr.last(t)
	assert.Contains(t, greeting.Text, "Bienvenido")
	assert.Equal(t, []string{"book", "view", "cancelme"}, greeting.rowData())

	app.tap(customer, "book")
	assert.Contains(t, app.msgr.last(t).Text, "nombre")

	app.text(customer, "Carlos")
	staffList := app.msgr.last(t)
	assert.Contains(t, staffList.Text, "Carlos")
	assert.Contains(t, staffList.rowData(), fmt.Sprintf("staff|%d", app.staffID))

	app.tap(customer, fmt.Sprintf("staff|%d", app.staffID))
	assert.Equal(t, []string{"svc|haircut", "svc|beard", "svc|both"}, app.msgr.last(t).rowData())

	app.tap(customer, "svc|haircut")
	tomorrow := clock.Midnight(testInstant).AddDate(0, 0, 1).Format("2006-01-02")
	assert.Contains(t, app.msgr.last(t).rowData(), "date|"+tomorrow)

	app.tap(customer, "date|"+tomorrow)
	assert.Contains(t, app.msgr.last(t).rowData(), "time|10:00")

	app.tap(customer, "time|10:00")
	confirmation := app.msgr.last(t)
	assert.Contains(t, confirmation.Text, "confirmada")

	// The flow committed: session destroyed, appointment persisted.
	assert.Zero(t, app.sessions.Len())
	appt, err := app.booking.ActiveFor(context.Background(), customer)
	require.NoError(t, err)
	require.NotNil(t, appt)
	assert.Equal(t, database.StatusPending, appt.Status)
}

func TestFlow_NameReprompts(t *testing.T) {
	app := newTestApp(t)
	app.text(customer, "hola")
	app.tap(customer, "book")

	app.text(customer, "C")
	assert.Contains(t, app.msgr.last(t).Text, "entre 2 y 100")

	// Still at the name step: a valid name moves on.
	app.text(customer, "Carlos")
	assert.Contains(t, app.msgr.last(t).Text, "barbero")
}

func TestFlow_SlotRaceShowsRefreshedList(t *testing.T) {
	app := newTestApp(t)
	tomorrowStr := walkToTimeStep(t, app, customer)
	tomorrow := clock.Midnight(testInstant).AddDate(0, 0, 1)

	// Another customer takes 10:00 between list render and commit.
	alex, err := app.store.FindStaffByID(context.Background(), app.staffID)
	require.NoError(t, err)
	_, err = app.booking.Create(context.Background(), services.BookingRequest{
		Phone: "3009998877", Name: "Andrés", Staff: alex,
		Service: database.ServiceBeard, At: clock.AtHour(tomorrow, 10),
	})
	require.NoError(t, err)

	app.tap(customer, "time|10:00")
	refreshed := app.msgr.last(t)
	assert.Contains(t, refreshed.Text, "ya fue tomada")
	assert.Contains(t, refreshed.Text, "Horarios disponibles")
	assert.NotContains(t, refreshed.rowData(), "time|10:00")
	assert.Contains(t, refreshed.rowData(), "time|11:00")

	// The customer is still mid-flow and can pick another slot.
	app.tap(customer, "time|11:00")
	assert.Contains(t, app.msgr.last(t).Text, "confirmada")
	_ = tomorrowStr
}

func TestFlow_MenuAbandonsMidFlow(t *testing.T) {
	app := newTestApp(t)
	walkToTimeStep(t, app, customer)

	app.text(customer, "menú")
	menu := app.msgr.last(t)
	assert.Contains(t, menu.Text, "Menú principal")
	assert.Equal(t, []string{"book", "view", "cancelme"}, menu.rowData())

	// Accumulated state was dropped: booking starts from the name again.
	app.tap(customer, "book")
	assert.Contains(t, app.msgr.last(t).Text, "nombre")
}

func TestFlow_SecondActiveAppointmentRejectedAtEntry(t *testing.T) {
	app := newTestApp(t)
	tomorrow := walkToTimeStep(t, app, customer)
	app.tap(customer, "time|10:00")
	_ = tomorrow

	app.text(customer, "hola")
	app.tap(customer, "book")
	blocked := app.msgr.last(t)
	assert.Contains(t, blocked.Text, "Ya tienes una cita activa")
	assert.Equal(t, []string{"book", "view", "cancelme"}, blocked.rowData())
}

func TestFlow_ViewAndCancel(t *testing.T) {
	app := newTestApp(t)
	walkToTimeStep(t, app, customer)
	app.tap(customer, "time|10:00")

	app.text(customer, "hola")
	app.tap(customer, "view")
	assert.Contains(t, app.msgr.last(t).Text, "Tu cita")

	app.tap(customer, "cancelme")
	confirm := app.msgr.last(t)
	assert.Equal(t, []string{"cxl|yes", "cxl|no"}, confirm.rowData())

	app.tap(customer, "cxl|yes")
	assert.Contains(t, app.msgr.last(t).Text, "fue cancelada")

	active, err := app.booking.ActiveFor(context.Background(), customer)
	require.NoError(t, err)
	assert.Nil(t, active)
	assert.Zero(t, app.sessions.Len())
}

func TestFlow_CancelDeclinedKeepsAppointment(t *testing.T) {
	app := newTestApp(t)
	walkToTimeStep(t, app, customer)
	app.tap(customer, "time|10:00")

	app.text(customer, "hola")
	app.tap(customer, "cancelme")
	app.tap(customer, "cxl|no")
	assert.Contains(t, app.msgr.last(t).Text, "sigue en pie")

	active, err := app.booking.ActiveFor(context.Background(), customer)
	require.NoError(t, err)
	assert.NotNil(t, active)
}

func TestFlow_EmptyDayRoutesBackToDates(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	// Block the whole day.
	alex, err := app.store.FindStaffByID(ctx, app.staffID)
	require.NoError(t, err)
	blocks := services.NewBlockService(app.store, app.clk)
	for hour := alex.StartHour; hour < alex.EndHour; hour++ {
		_, err := blocks.BlockHour(ctx, alex, nil, hour, database.ReasonOther)
		require.NoError(t, err)
	}

	walkToTimeStep(t, app, customer)
	last := app.msgr.last(t)
	assert.Contains(t, last.rowData()[0], "date|")
}
