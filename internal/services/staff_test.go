package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/errs"
)

func seedRoster(t *testing.T, svc *StaffService) {
	t.Helper()
	require.NoError(t, svc.Seed(context.Background(), []RosterEntry{
		{Alias: "alex", Name: "Alex", Pin: "1234", StartHour: 9, EndHour: 17},
		{Alias: "bruno", Name: "Bruno", Pin: "9876", StartHour: 10, EndHour: 18},
	}))
}

func TestAuthenticate(t *testing.T) {
	store := newTestStore(t)
	svc := NewStaffService(store, BcryptHasher{})
	seedRoster(t, svc)
	ctx := context.Background()

	staff, err := svc.Authenticate(ctx, "alex", "1234")
	require.NoError(t, err)
	assert.Equal(t, "Alex", staff.Name)

	// Alias matching is case-insensitive.
	_, err = svc.Authenticate(ctx, "ALEX", "1234")
	assert.NoError(t, err)
}

func TestAuthenticate_GenericFailure(t *testing.T) {
	store := newTestStore(t)
	svc := NewStaffService(store, BcryptHasher{})
	seedRoster(t, svc)
	ctx := context.Background()

	// Unknown alias and wrong PIN are indistinguishable to the caller.
	_, badAlias := svc.Authenticate(ctx, "nobody", "1234")
	_, badPin := svc.Authenticate(ctx, "alex", "0000")

	assert.True(t, errs.Is(badAlias, errs.Authentication))
	assert.True(t, errs.Is(badPin, errs.Authentication))
	assert.Equal(t, badAlias.Error(), badPin.Error())
}

func TestSeed_Idempotent(t *testing.T) {
	store := newTestStore(t)
	svc := NewStaffService(store, BcryptHasher{})
	seedRoster(t, svc)
	seedRoster(t, svc)
	ctx := context.Background()

	staff, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, staff, 2)

	// Credentials still work after a re-seed.
	_, err = svc.Authenticate(ctx, "bruno", "9876")
	assert.NoError(t, err)
}

func TestSeed_RotatesChangedPin(t *testing.T) {
	store := newTestStore(t)
	svc := NewStaffService(store, BcryptHasher{})
	seedRoster(t, svc)
	ctx := context.Background()

	require.NoError(t, svc.Seed(ctx, []RosterEntry{
		{Alias: "alex", Name: "Alex", Pin: "5555", StartHour: 9, EndHour: 17},
	}))

	_, err := svc.Authenticate(ctx, "alex", "1234")
	assert.True(t, errs.Is(err, errs.Authentication))
	_, err = svc.Authenticate(ctx, "alex", "5555")
	assert.NoError(t, err)
}
