package database

import (
	"fmt"

	"gorm.io/gorm"
)

// MigrateConstraints applies constraints and indexes that GORM's
// auto-migration cannot express: partial unique indexes, check
// constraints on the capacity counters, and the composite indexes
// both sweepers scan on.
func MigrateConstraints(db *gorm.DB) error {
	statements := []string{
		// At most one active waitlist entry per user per event.
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_waitlist_active_user_event
		 ON waitlist_entries (user_id, event_id)
		 WHERE status IN ('PENDING', 'NOTIFIED')`,

		// Priority is unique per event among active entries.
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_waitlist_active_priority
		 ON waitlist_entries (event_id, priority)
		 WHERE status IN ('PENDING', 'NOTIFIED')`,

		// Expiry sweep scans for overdue holds.
		`CREATE INDEX IF NOT EXISTS idx_bookings_status_expires
		 ON bookings (status, expires_at)`,

		// User booking history is read newest-first.
		`CREATE INDEX IF NOT EXISTS idx_bookings_user_date
		 ON bookings (user_id, booking_date DESC)`,

		// Notification sweep scans for overdue waitlist windows.
		`CREATE INDEX IF NOT EXISTS idx_waitlist_status_expires
		 ON waitlist_entries (status, expires_at)`,

		// Capacity counters never go negative; the clamp in total
		// updates keeps available at zero instead.
		`DO $$
		 BEGIN
		   IF NOT EXISTS (
		     SELECT 1 FROM pg_constraint WHERE conname = 'chk_availability_non_negative'
		   ) THEN
		     ALTER TABLE event_availability
		       ADD CONSTRAINT chk_availability_non_negative
		       CHECK (available >= 0 AND reserved >= 0 AND confirmed >= 0 AND total_capacity >= 0);
		   END IF;
		 END $$`,

		`DO $$
		 BEGIN
		   IF NOT EXISTS (
		     SELECT 1 FROM pg_constraint WHERE conname = 'chk_availability_version_positive'
		   ) THEN
		     ALTER TABLE event_availability
		       ADD CONSTRAINT chk_availability_version_positive
		       CHECK (version >= 1);
		   END IF;
		 END $$`,

		`DO $$
		 BEGIN
		   IF NOT EXISTS (
		     SELECT 1 FROM pg_constraint WHERE conname = 'chk_bookings_quantity_positive'
		   ) THEN
		     ALTER TABLE bookings
		       ADD CONSTRAINT chk_bookings_quantity_positive
		       CHECK (quantity >= 1);
		   END IF;
		 END $$`,
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to apply constraint: %w", err)
		}
	}

	return nil
}
