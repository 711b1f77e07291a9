// Package services contains business logic for the application
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/clock"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/database"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/errs"
)

// BlockStore is the slice of the repository the block operations use
type BlockStore interface {
	CreateBlockedSlot(ctx context.Context, slot *database.BlockedSlot) error
	DeleteBlockedSlot(ctx context.Context, staffID uint, date *time.Time, startTime string) error
	FindBlockedSlotByID(ctx context.Context, idPrefix string) (*database.BlockedSlot, error)
	DeleteBlockedSlotByID(ctx context.Context, idPrefix string) error
	BlockedSlotsFor(ctx context.Context, staffID uint, date time.Time) ([]database.BlockedSlot, error)
	ListBlockedSlots(ctx context.Context, staffID uint) ([]database.BlockedSlot, error)
}

// BlockService manages staff-declared exclusion windows
type BlockService struct {
	store BlockStore
	clock clock.Clock
}

// NewBlockService creates a new block service instance
func NewBlockService(store BlockStore, clk clock.Clock) *BlockService {
	return &BlockService{store: store, clock: clk}
}

// BlockHour blocks one slot-sized window for the staff member. A nil
// date declares a recurring daily interval. Hours outside working hours
// and already-blocked hours are rejected.
func (s *BlockService) BlockHour(ctx context.Context, staff *database.Staff, date *time.Time, hour int, reason database.BlockReason) (*database.BlockedSlot, error) {
	if hour < staff.StartHour || hour >= staff.EndHour {
		return nil, errs.E(errs.Validation, "hour is outside working hours")
	}

	checkDate := s.clock.Today()
	if date != nil {
		d := clock.Midnight(date.In(s.clock.Location()))
		date = &d
		checkDate = d
	}

	existing, err := s.store.BlockedSlotsFor(ctx, staff.ID, checkDate)
	if err != nil {
		return nil, err
	}
	startMin := hour * 60
	for _, b := range existing {
		from, err1 := minuteOfDay(b.StartTime)
		to, err2 := minuteOfDay(b.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		if startMin >= from && startMin < to {
			return nil, errs.E(errs.Conflict, "hour is already blocked")
		}
	}

	slot := &database.BlockedSlot{
		ID:        uuid.NewString(),
		StaffID:   staff.ID,
		Date:      date,
		StartTime: fmt.Sprintf("%02d:00", hour),
		EndTime:   fmt.Sprintf("%02d:00", hour+1),
		Reason:    reason,
		Recurring: date == nil,
	}
	if err := s.store.CreateBlockedSlot(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// UnblockHour removes the interval matching the (staff, date, start)
// triple; nil date targets the recurring interval.
func (s *BlockService) UnblockHour(ctx context.Context, staffID uint, date *time.Time, hour int) error {
	if date != nil {
		d := clock.Midnight(date.In(s.clock.Location()))
		date = &d
	}
	return s.store.DeleteBlockedSlot(ctx, staffID, date, fmt.Sprintf("%02d:00", hour))
}

// UnblockByID removes a blocked interval by id prefix. The interval
// must belong to the given staff member.
func (s *BlockService) UnblockByID(ctx context.Context, staffID uint, idPrefix string) error {
	slot, err := s.store.FindBlockedSlotByID(ctx, idPrefix)
	if err != nil {
		return err
	}
	if slot.StaffID != staffID {
		return errs.E(errs.Authorization, "blocked slot belongs to another staff member")
	}
	return s.store.DeleteBlockedSlotByID(ctx, slot.ID)
}

// List returns all of a staff member's blocked intervals
func (s *BlockService) List(ctx context.Context, staffID uint) ([]database.BlockedSlot, error) {
	return s.store.ListBlockedSlots(ctx, staffID)
}
