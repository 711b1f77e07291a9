// Package services contains business logic for the application
package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/database"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/errs"
)

// PinHasher is the opaque hash/verify capability for staff PINs
type PinHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, hash string) bool
}

// BcryptHasher implements PinHasher with bcrypt; comparison is constant-time
type BcryptHasher struct {
	Cost int
}

// Hash derives an opaque hash from the secret
func (h BcryptHasher) Hash(secret string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	raw, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash pin: %w", err)
	}
	return string(raw), nil
}

// Verify reports whether the secret matches the stored hash
func (h BcryptHasher) Verify(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// StaffStore is the slice of the repository the staff directory uses
type StaffStore interface {
	FindStaffByID(ctx context.Context, id uint) (*database.Staff, error)
	FindStaffByAlias(ctx context.Context, alias string) (*database.Staff, error)
	ListActiveStaff(ctx context.Context) ([]database.Staff, error)
	UpsertStaff(ctx context.Context, staff *database.Staff) error
}

// StaffService is the staff directory plus PIN authentication
type StaffService struct {
	store  StaffStore
	hasher PinHasher
}

// NewStaffService creates a new staff service instance
func NewStaffService(store StaffStore, hasher PinHasher) *StaffService {
	return &StaffService{store: store, hasher: hasher}
}

// Authenticate verifies an alias/PIN pair. Unknown alias and wrong PIN
// return the same generic error so the admin surface leaks nothing.
func (s *StaffService) Authenticate(ctx context.Context, alias, pin string) (*database.Staff, error) {
	staff, err := s.store.FindStaffByAlias(ctx, strings.ToLower(alias))
	if err != nil {
		if errs.Is(err, errs.NotFound) {
			return nil, errs.E(errs.Authentication, "invalid credentials")
		}
		return nil, err
	}
	if !s.hasher.Verify(pin, staff.PinHash) {
		return nil, errs.E(errs.Authentication, "invalid credentials")
	}
	return staff, nil
}

// ByID returns an active staff member
func (s *StaffService) ByID(ctx context.Context, id uint) (*database.Staff, error) {
	return s.store.FindStaffByID(ctx, id)
}

// ListActive returns the bookable roster
func (s *StaffService) ListActive(ctx context.Context) ([]database.Staff, error) {
	return s.store.ListActiveStaff(ctx)
}

// RosterEntry is one staff member from the configuration roster
type RosterEntry struct {
	Alias     string
	Name      string
	Pin       string
	StartHour int
	EndHour   int
}

// Seed upserts the configured roster at startup. An unchanged PIN keeps
// its existing hash.
func (s *StaffService) Seed(ctx context.Context, roster []RosterEntry) error {
	for _, entry := range roster {
		alias := strings.ToLower(entry.Alias)

		pinHash := ""
		if existing, err := s.store.FindStaffByAlias(ctx, alias); err == nil {
			if s.hasher.Verify(entry.Pin, existing.PinHash) {
				pinHash = existing.PinHash
			}
		} else if !errs.Is(err, errs.NotFound) {
			return err
		}
		if pinHash == "" {
			var err error
			pinHash, err = s.hasher.Hash(entry.Pin)
			if err != nil {
				return err
			}
		}

		staff := &database.Staff{
			Alias:     alias,
			Name:      entry.Name,
			PinHash:   pinHash,
			StartHour: entry.StartHour,
			EndHour:   entry.EndHour,
			IsActive:  true,
		}
		if err := s.store.UpsertStaff(ctx, staff); err != nil {
			return err
		}
	}
	return nil
}
