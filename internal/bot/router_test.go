package bot

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/clock"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/database"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/services"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/session"
)

func TestRouter_ExpiredIdentityIsRegreeted(t *testing.T) {
	app := newTestApp(t)

	app.text(customer, "hola")
	app.tap(customer, "book")
	assert.Contains(t, app.msgr.last(t).Text, "nombre")

	// Simulate the inactivity watchdog firing.
	require.NoError(t, app.sessions.Delete(context.Background(), customer))

	// What would have been the name answer restarts the flow instead.
	app.text(customer, "Carlos")
	assert.Contains(t, app.msgr.last(t).Text, "Bienvenido")
}

func TestRouter_UnknownIdentityGetsGreeting(t *testing.T) {
	app := newTestApp(t)

	app.text(customer, "cualquier cosa")
	greeting := app.msgr.last(t)
	assert.Contains(t, greeting.Text, "Bienvenido")
	assert.Equal(t, 1, app.sessions.Len())
}

func TestRouter_IdentitiesAreSerialized(t *testing.T) {
	db, err := database.Connect(":memory:", false)
	require.NoError(t, err)
	store := database.NewStore(db)
	clk := &clock.FixedClock{Instant: testInstant}
	log := zerolog.Nop()

	var mu sync.Mutex
	var active, maxActive int
	probe := &gatedMessenger{inner: &fakeMessenger{}, enter: func() {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()
		time.Sleep(2 * time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
	}}

	staffSvc := services.NewStaffService(store, services.BcryptHasher{})
	avail := services.NewAvailability(store, clk)
	bookingSvc := services.NewBookingService(store, avail, clk, log)
	notifySvc := services.NewNotificationService(probe, store, clk, log)
	sessions := session.NewMemoryStore(session.TTL, nil)

	flow := NewBookingFlow(sessions, staffSvc, avail, bookingSvc, notifySvc, probe, clk, log)
	admin := NewAdminPanel(sessions, staffSvc, bookingSvc,
		services.NewBlockService(store, clk), services.NewClientService(store),
		services.NewStatsService(store, clk), notifySvc, probe, clk, log)
	router := NewRouter(sessions, flow, admin, probe, log)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			router.Handle(context.Background(), Event{Identity: customer, Kind: KindText, Payload: "hola"})
		}()
	}
	wg.Wait()

	// Same identity never runs two handlers at once.
	assert.Equal(t, 1, maxActive)
}

func TestRouter_LockStripesAreBounded(t *testing.T) {
	app := newTestApp(t)

	// The same identity always maps to the same lock.
	assert.Same(t, app.router.lockFor(customer), app.router.lockFor(customer))

	// Many distinct identities share the fixed stripe set without
	// blocking each other or growing router state.
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			identity := fmt.Sprintf("300%07d", n)
			app.router.Handle(context.Background(), Event{Identity: identity, Kind: KindText, Payload: "hola"})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 200, app.sessions.Len())
}

// gatedMessenger invokes enter on every send before delegating
type gatedMessenger struct {
	inner Messenger
	enter func()
}

func (c *gatedMessenger) SendText(ctx context.Context, to, text string) error {
	c.enter()
	return c.inner.SendText(ctx, to, text)
}

func (c *gatedMessenger) SendChoices(ctx context.Context, to, text string, buttons []Button) error {
	c.enter()
	return c.inner.SendChoices(ctx, to, text, buttons)
}

func (c *gatedMessenger) SendList(ctx context.Context, to, text string, sections []Section) error {
	c.enter()
	return c.inner.SendList(ctx, to, text, sections)
}
