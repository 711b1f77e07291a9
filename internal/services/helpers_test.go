package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/clock"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/database"
)

// testInstant is a Monday morning; availability scenarios build on it
var testInstant = time.Date(2026, time.March, 9, 10, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) *database.Store {
	t.Helper()
	db, err := database.Connect(":memory:", false)
	require.NoError(t, err)
	return database.NewStore(db)
}

func newTestStaff(t *testing.T, store *database.Store, alias string) *database.Staff {
	t.Helper()
	staff := &database.Staff{
		Alias:     alias,
		Name:      "Alex",
		PinHash:   "x",
		StartHour: 9,
		EndHour:   17,
		IsActive:  true,
	}
	require.NoError(t, store.UpsertStaff(context.Background(), staff))
	found, err := store.FindStaffByAlias(context.Background(), alias)
	require.NoError(t, err)
	return found
}

func fixedClock() *clock.FixedClock {
	return &clock.FixedClock{Instant: testInstant}
}

func testBooking(store *database.Store, clk clock.Clock) *BookingService {
	return NewBookingService(store, NewAvailability(store, clk), clk, zerolog.Nop())
}
