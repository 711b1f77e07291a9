package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/clock"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/database"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/services"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/session"
)

// testInstant is a Monday morning at 10:30
var testInstant = time.Date(2026, time.March, 9, 10, 30, 0, 0, time.UTC)

// sentMessage is one captured outbound message
type sentMessage struct {
	To   string
	Text string
	Rows []Button // choices or flattened list rows
}

// fakeMessenger records every outbound message; it also serves as the
// notification Sender.
type fakeMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeMessenger) SendText(_ context.Context, to, text string) error {
	f.record(sentMessage{To: to, Text: text})
	return nil
}

func (f *fakeMessenger) SendChoices(_ context.Context, to, text string, buttons []Button) error {
	f.record(sentMessage{To: to, Text: text, Rows: buttons})
	return nil
}

func (f *fakeMessenger) SendList(_ context.Context, to, text string, sections []Section) error {
	msg := sentMessage{To: to, Text: text}
	for _, sec := range sections {
		msg.Rows = append(msg.Rows, sec.Rows...)
	}
	f.record(msg)
	return nil
}

func (f *fakeMessenger) record(m sentMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, m)
}

func (f *fakeMessenger) last(t *testing.T) sentMessage {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

func (f *fakeMessenger) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
}

// rowData lists the selection payloads of the last message's rows
func (m sentMessage) rowData() []string {
	out := make([]string, len(m.Rows))
	for i, r := range m.Rows {
		out[i] = r.Data
	}
	return out
}

// testApp wires the full stack against in-memory storage
type testApp struct {
	store    *database.Store
	sessions *session.MemoryStore
	msgr     *fakeMessenger
	router   *Router
	booking  *services.BookingService
	clk      *clock.FixedClock
	staffID  uint
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db, err := database.Connect(":memory:", false)
	require.NoError(t, err)
	store := database.NewStore(db)

	clk := &clock.FixedClock{Instant: testInstant}
	msgr := &fakeMessenger{}
	log := zerolog.Nop()

	staffSvc := services.NewStaffService(store, services.BcryptHasher{})
	require.NoError(t, staffSvc.Seed(context.Background(), []services.RosterEntry{
		{Alias: "alex", Name: "Alex", Pin: "1234", StartHour: 9, EndHour: 17},
	}))
	alex, err := store.FindStaffByAlias(context.Background(), "alex")
	require.NoError(t, err)

	avail := services.NewAvailability(store, clk)
	bookingSvc := services.NewBookingService(store, avail, clk, log)
	blockSvc := services.NewBlockService(store, clk)
	clientSvc := services.NewClientService(store)
	statsSvc := services.NewStatsService(store, clk)
	notifySvc := services.NewNotificationService(msgr, store, clk, log)

	sessions := session.NewMemoryStore(session.TTL, nil)
	flow := NewBookingFlow(sessions, staffSvc, avail, bookingSvc, notifySvc, msgr, clk, log)
	admin := NewAdminPanel(sessions, staffSvc, bookingSvc, blockSvc, clientSvc, statsSvc, notifySvc, msgr, clk, log)
	router := NewRouter(sessions, flow, admin, msgr, log)

	return &testApp{
		store:    store,
		sessions: sessions,
		msgr:     msgr,
		router:   router,
		booking:  bookingSvc,
		clk:      clk,
		staffID:  alex.ID,
	}
}

func (a *testApp) text(identity, payload string) {
	a.router.Handle(context.Background(), Event{Identity: identity, Kind: KindText, Payload: payload})
}

func (a *testApp) tap(identity, payload string) {
	a.router.Handle(context.Background(), Event{Identity: identity, Kind: KindSelection, Payload: payload})
}
