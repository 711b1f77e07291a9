// Package database contains database models and operations
package database

import (
	"time"

	"gorm.io/gorm"
)

// Staff represents a barber who can be booked
type Staff struct {
	ID        uint   `gorm:"primaryKey"`
	Alias     string `gorm:"uniqueIndex;size:20;not null"` // admin command login, lowercase
	Name      string `gorm:"not null"`
	PinHash   string `gorm:"not null"` // opaque hash, never the raw PIN
	StartHour int    `gorm:"not null"` // working hours, 0-23
	EndHour   int    `gorm:"not null"` // exclusive, > StartHour
	IsActive  bool   `gorm:"default:true;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`

	// Relations
	Appointments []Appointment `gorm:"foreignKey:StaffID"`
}

// SlotMinutes is the fixed slot duration for every staff member
const SlotMinutes = 60

// ServiceCategory is the kind of service being booked
type ServiceCategory string

const (
	ServiceHaircut ServiceCategory = "haircut"
	ServiceBeard   ServiceCategory = "beard"
	ServiceBoth    ServiceCategory = "both"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

// Terminal reports whether the status admits no further transition
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Appointment represents a booked slot for one customer
type Appointment struct {
	ID            string            `gorm:"primaryKey;size:36"`
	CustomerPhone string            `gorm:"index;size:20;not null"` // digits and leading + only
	CustomerName  string            `gorm:"size:100;not null"`
	StaffID       uint              `gorm:"index;not null"`
	Service       ServiceCategory   `gorm:"size:10;not null"`
	ScheduledAt   time.Time         `gorm:"index;not null"`
	Status        AppointmentStatus `gorm:"size:10;index;not null;default:'pending'"`
	ReminderSent  bool              `gorm:"default:false"`
	CreatedAt     time.Time

	// Relations
	Staff Staff `gorm:"foreignKey:StaffID"`
}

// AppointmentHistory keeps the last archived appointment per customer.
// The expiry sweep overwrites the row on each pass.
type AppointmentHistory struct {
	CustomerPhone string          `gorm:"primaryKey;size:20"`
	CustomerName  string          `gorm:"size:100"`
	StaffID       uint
	Service       ServiceCategory   `gorm:"size:10"`
	ScheduledAt   time.Time
	Status        AppointmentStatus `gorm:"size:10"`
	ArchivedAt    time.Time
}

// BlockReason is why a staff member blocked an interval
type BlockReason string

const (
	ReasonLunch    BlockReason = "lunch"
	ReasonBreak    BlockReason = "break"
	ReasonPersonal BlockReason = "personal"
	ReasonOther    BlockReason = "other"
)

// BlockedSlot is a staff-declared exclusion window. A nil Date means the
// interval recurs every day and conflicts are matched by time-of-day only.
type BlockedSlot struct {
	ID        string      `gorm:"primaryKey;size:36"`
	StaffID   uint        `gorm:"index;not null"`
	Date      *time.Time  `gorm:"index"`           // nil => recurring daily
	StartTime string      `gorm:"size:5;not null"` // "HH:MM", < EndTime
	EndTime   string      `gorm:"size:5;not null"`
	Reason    BlockReason `gorm:"size:10;not null;default:'other'"`
	Recurring bool        `gorm:"index"`
	CreatedAt time.Time
}

// Client is auto-registered on first booking and upserted on every booking
type Client struct {
	Phone        string `gorm:"primaryKey;size:20"`
	Name         string `gorm:"size:100"`
	Appointments int    `gorm:"default:0"`
	LastBookedAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Relations
	Notes []ClientNote `gorm:"foreignKey:ClientPhone"`
}

// ClientNote is a staff annotation on a client, optionally tied to one appointment
type ClientNote struct {
	ID            string  `gorm:"primaryKey;size:36"`
	ClientPhone   string  `gorm:"index;size:20;not null"`
	StaffID       uint    `gorm:"index;not null"`
	AppointmentID *string `gorm:"size:36"`
	Text          string  `gorm:"size:500;not null"` // HTML-escaped before save
	CreatedAt     time.Time
}
