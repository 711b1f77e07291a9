// Package database handles database connections and initialization
package database

import (
	"fmt"

	// Use pure-Go SQLite driver
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the database, runs migrations and installs the
// uniqueness constraints that back the booking invariants.
func Connect(dbPath string, debug bool) (*gorm.DB, error) {
	var gormLogger logger.Interface
	if debug {
		gormLogger = logger.Default.LogMode(logger.Info)
	} else {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Staff{},
		&Appointment{},
		&AppointmentHistory{},
		&BlockedSlot{},
		&Client{},
		&ClientNote{},
	); err != nil {
		return err
	}

	// The application pre-checks availability, but these partial unique
	// indexes are the final authority: a concurrent double booking loses
	// here and surfaces as a conflict, never as a silent overwrite.
	constraints := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_staff_slot
		   ON appointments(staff_id, scheduled_at)
		   WHERE status IN ('pending','confirmed')`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_active_customer
		   ON appointments(customer_phone)
		   WHERE status IN ('pending','confirmed')`,
	}
	for _, stmt := range constraints {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}

	return nil
}
