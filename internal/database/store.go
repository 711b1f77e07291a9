// Package database contains database models and operations
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/errs"
)

// Store implements the repository ports consumed by the service layer.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store on top of an open database handle
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// activeStatuses are the statuses that hold a slot and block a new booking
var activeStatuses = []AppointmentStatus{StatusPending, StatusConfirmed}

// CreateAppointment inserts a new appointment. A violation of the
// (staff, instant) or active-customer unique index is returned as a
// Conflict so the losing side of a race gets "slot unavailable".
func (s *Store) CreateAppointment(ctx context.Context, appt *Appointment) error {
	if err := s.db.WithContext(ctx).Create(appt).Error; err != nil {
		if isUniqueViolation(err) {
			return errs.Wrap(errs.Conflict, "slot or customer already booked", err)
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

// isUniqueViolation detects a unique index violation. The string check
// covers SQLite errors the driver does not translate to ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// FindActiveByPhone returns the customer's pending or confirmed
// appointment, or nil when they hold none.
func (s *Store) FindActiveByPhone(ctx context.Context, phone string) (*Appointment, error) {
	var appt Appointment
	err := s.db.WithContext(ctx).
		Preload("Staff").
		Where("customer_phone = ? AND status IN ?", phone, activeStatuses).
		First(&appt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active appointment: %w", err)
	}
	return &appt, nil
}

// FindAppointmentByID resolves an appointment by full id or id prefix
func (s *Store) FindAppointmentByID(ctx context.Context, idPrefix string) (*Appointment, error) {
	var appts []Appointment
	err := s.db.WithContext(ctx).
		Preload("Staff").
		Where("id LIKE ?", idPrefix+"%").
		Limit(2).
		Find(&appts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find appointment: %w", err)
	}
	if len(appts) != 1 {
		return nil, errs.E(errs.NotFound, "appointment not found")
	}
	return &appts[0], nil
}

// UpdateAppointmentStatus transitions an appointment to the given status
func (s *Store) UpdateAppointmentStatus(ctx context.Context, id string, status AppointmentStatus) error {
	result := s.db.WithContext(ctx).
		Model(&Appointment{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update appointment status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.E(errs.NotFound, "appointment not found")
	}
	return nil
}

// StaffAppointmentsBetween returns a staff member's non-cancelled
// appointments in [from, to), ordered by instant.
func (s *Store) StaffAppointmentsBetween(ctx context.Context, staffID uint, from, to time.Time) ([]Appointment, error) {
	var appts []Appointment
	err := s.db.WithContext(ctx).
		Where("staff_id = ? AND scheduled_at >= ? AND scheduled_at < ? AND status != ?",
			staffID, from, to, StatusCancelled).
		Order("scheduled_at").
		Find(&appts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, nil
}

// AllStaffAppointmentsBetween returns every appointment in the range,
// cancelled included, for statistics.
func (s *Store) AllStaffAppointmentsBetween(ctx context.Context, staffID uint, from, to time.Time) ([]Appointment, error) {
	var appts []Appointment
	err := s.db.WithContext(ctx).
		Where("staff_id = ? AND scheduled_at >= ? AND scheduled_at < ?", staffID, from, to).
		Order("scheduled_at").
		Find(&appts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, nil
}

// AppointmentsBetween returns every staff member's active appointments
// in [from, to), used by the reminder worker.
func (s *Store) AppointmentsBetween(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	var appts []Appointment
	err := s.db.WithContext(ctx).
		Preload("Staff").
		Where("scheduled_at >= ? AND scheduled_at < ? AND status IN ?", from, to, activeStatuses).
		Order("scheduled_at").
		Find(&appts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, nil
}

// MarkReminded flags an appointment so its reminder is sent only once
func (s *Store) MarkReminded(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).
		Model(&Appointment{}).
		Where("id = ?", id).
		Update("reminder_sent", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", result.Error)
	}
	return nil
}

// CountByDay aggregates non-cancelled appointment counts per calendar day
func (s *Store) CountByDay(ctx context.Context, staffID uint, from, to time.Time) (map[string]int, error) {
	type row struct {
		Day string
		N   int
	}
	var rows []row
	err := s.db.WithContext(ctx).
		Model(&Appointment{}).
		Select("date(scheduled_at) AS day, count(*) AS n").
		Where("staff_id = ? AND scheduled_at >= ? AND scheduled_at < ? AND status != ?",
			staffID, from, to, StatusCancelled).
		Group("date(scheduled_at)").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count appointments by day: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Day] = r.N
	}
	return counts, nil
}

// ArchiveExpired moves past-due non-cancelled appointments into the
// history table, one overwritten record per customer, and deletes the
// originals. Returns the number of appointments processed.
func (s *Store) ArchiveExpired(ctx context.Context, before time.Time) (int, error) {
	var processed int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var expired []Appointment
		if err := tx.
			Where("scheduled_at < ? AND status != ?", before, StatusCancelled).
			Find(&expired).Error; err != nil {
			return err
		}
		for _, appt := range expired {
			hist := AppointmentHistory{
				CustomerPhone: appt.CustomerPhone,
				CustomerName:  appt.CustomerName,
				StaffID:       appt.StaffID,
				Service:       appt.Service,
				ScheduledAt:   appt.ScheduledAt,
				Status:        appt.Status,
				ArchivedAt:    time.Now(),
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "customer_phone"}},
				UpdateAll: true,
			}).Create(&hist).Error; err != nil {
				return err
			}
			if err := tx.Delete(&Appointment{}, "id = ?", appt.ID).Error; err != nil {
				return err
			}
		}
		processed = len(expired)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to archive expired appointments: %w", err)
	}
	return processed, nil
}

// CreateBlockedSlot inserts a new blocked interval
func (s *Store) CreateBlockedSlot(ctx context.Context, slot *BlockedSlot) error {
	if err := s.db.WithContext(ctx).Create(slot).Error; err != nil {
		return fmt.Errorf("failed to create blocked slot: %w", err)
	}
	return nil
}

// DeleteBlockedSlot removes a blocked interval by its
// (staff, date, start-time) triple. A nil date matches recurring intervals.
func (s *Store) DeleteBlockedSlot(ctx context.Context, staffID uint, date *time.Time, startTime string) error {
	q := s.db.WithContext(ctx).Where("staff_id = ? AND start_time = ?", staffID, startTime)
	if date == nil {
		q = q.Where("date IS NULL")
	} else {
		q = q.Where("date = ?", *date)
	}
	result := q.Delete(&BlockedSlot{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete blocked slot: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.E(errs.NotFound, "blocked slot not found")
	}
	return nil
}

// FindBlockedSlotByID loads a blocked interval by full id or id prefix
func (s *Store) FindBlockedSlotByID(ctx context.Context, idPrefix string) (*BlockedSlot, error) {
	var slot BlockedSlot
	err := s.db.WithContext(ctx).
		Where("id LIKE ?", idPrefix+"%").
		First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.E(errs.NotFound, "blocked slot not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find blocked slot: %w", err)
	}
	return &slot, nil
}

// DeleteBlockedSlotByID removes a blocked interval by full id or id prefix
func (s *Store) DeleteBlockedSlotByID(ctx context.Context, idPrefix string) error {
	result := s.db.WithContext(ctx).
		Where("id LIKE ?", idPrefix+"%").
		Delete(&BlockedSlot{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete blocked slot: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.E(errs.NotFound, "blocked slot not found")
	}
	return nil
}

// BlockedSlotsFor returns the intervals that apply to the given date:
// recurring ones always match, one-off ones match on the exact date.
func (s *Store) BlockedSlotsFor(ctx context.Context, staffID uint, date time.Time) ([]BlockedSlot, error) {
	var slots []BlockedSlot
	err := s.db.WithContext(ctx).
		Where("staff_id = ? AND (recurring = ? OR date = ?)", staffID, true, date).
		Order("start_time").
		Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list blocked slots: %w", err)
	}
	return slots, nil
}

// ListBlockedSlots returns all blocked intervals for a staff member
func (s *Store) ListBlockedSlots(ctx context.Context, staffID uint) ([]BlockedSlot, error) {
	var slots []BlockedSlot
	err := s.db.WithContext(ctx).
		Where("staff_id = ?", staffID).
		Order("recurring DESC, date, start_time").
		Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list blocked slots: %w", err)
	}
	return slots, nil
}

// FindStaffByID retrieves an active staff member by id
func (s *Store) FindStaffByID(ctx context.Context, id uint) (*Staff, error) {
	var staff Staff
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&staff).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.E(errs.NotFound, "staff not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find staff: %w", err)
	}
	return &staff, nil
}

// FindStaffByAlias retrieves an active staff member by login alias
func (s *Store) FindStaffByAlias(ctx context.Context, alias string) (*Staff, error) {
	var staff Staff
	err := s.db.WithContext(ctx).
		Where("alias = ? AND is_active = ?", alias, true).
		First(&staff).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.E(errs.NotFound, "staff not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find staff: %w", err)
	}
	return &staff, nil
}

// ListActiveStaff returns all bookable staff members ordered by name
func (s *Store) ListActiveStaff(ctx context.Context) ([]Staff, error) {
	var staff []Staff
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name").
		Find(&staff).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	return staff, nil
}

// UpsertStaff creates or updates a staff member keyed by alias,
// used when seeding the roster at startup.
func (s *Store) UpsertStaff(ctx context.Context, staff *Staff) error {
	var existing Staff
	err := s.db.WithContext(ctx).Where("alias = ?", staff.Alias).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := s.db.WithContext(ctx).Create(staff).Error; err != nil {
			return fmt.Errorf("failed to create staff: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to find staff: %w", err)
	}
	staff.ID = existing.ID
	staff.CreatedAt = existing.CreatedAt
	if err := s.db.WithContext(ctx).Save(staff).Error; err != nil {
		return fmt.Errorf("failed to update staff: %w", err)
	}
	return nil
}

// UpdateStaffPinHash replaces a staff member's PIN hash
func (s *Store) UpdateStaffPinHash(ctx context.Context, id uint, pinHash string) error {
	result := s.db.WithContext(ctx).
		Model(&Staff{}).
		Where("id = ?", id).
		Update("pin_hash", pinHash)
	if result.Error != nil {
		return fmt.Errorf("failed to update pin hash: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.E(errs.NotFound, "staff not found")
	}
	return nil
}

// SetStaffActive flips a staff member's bookable flag
func (s *Store) SetStaffActive(ctx context.Context, id uint, active bool) error {
	result := s.db.WithContext(ctx).
		Model(&Staff{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return fmt.Errorf("failed to update active flag: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.E(errs.NotFound, "staff not found")
	}
	return nil
}

// UpsertClient registers or refreshes a client record on a successful
// booking: name update, counter increment, last-booked instant.
func (s *Store) UpsertClient(ctx context.Context, phone, name string, bookedAt time.Time) error {
	client := Client{
		Phone:        phone,
		Name:         name,
		Appointments: 1,
		LastBookedAt: &bookedAt,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "phone"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"name":           name,
			"appointments":   gorm.Expr("appointments + 1"),
			"last_booked_at": bookedAt,
			"updated_at":     time.Now(),
		}),
	}).Create(&client).Error
	if err != nil {
		return fmt.Errorf("failed to upsert client: %w", err)
	}
	return nil
}

// FindClient retrieves a client by phone
func (s *Store) FindClient(ctx context.Context, phone string) (*Client, error) {
	var client Client
	err := s.db.WithContext(ctx).Where("phone = ?", phone).First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.E(errs.NotFound, "client not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find client: %w", err)
	}
	return &client, nil
}

// RecentClients returns the most recently booked clients
func (s *Store) RecentClients(ctx context.Context, limit int) ([]Client, error) {
	var clients []Client
	err := s.db.WithContext(ctx).
		Order("last_booked_at DESC").
		Limit(limit).
		Find(&clients).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}

// CreateNote attaches a note to a client
func (s *Store) CreateNote(ctx context.Context, note *ClientNote) error {
	if err := s.db.WithContext(ctx).Create(note).Error; err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

// NotesForClient returns a client's notes, newest first
func (s *Store) NotesForClient(ctx context.Context, phone string, limit int) ([]ClientNote, error) {
	var notes []ClientNote
	err := s.db.WithContext(ctx).
		Where("client_phone = ?", phone).
		Order("created_at DESC").
		Limit(limit).
		Find(&notes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}
