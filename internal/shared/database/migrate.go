package database

import (
	"evently-booking/internal/availability"
	"evently-booking/internal/bookings"
	"evently-booking/internal/waitlist"

	"gorm.io/gorm"
)

// Migrate runs auto-migrations for the booking core tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&availability.EventAvailability{},
		&bookings.Booking{},
		&bookings.BookingItem{},
		&bookings.BookingAuditLog{},
		&waitlist.WaitlistEntry{},
		&waitlist.WaitlistAuditLog{},
	)
}
