package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"evently-booking/internal/availability"
	"evently-booking/internal/shared/config"
	"evently-booking/internal/shared/database"
	"evently-booking/internal/shared/middleware"

	"github.com/golang-jwt/jwt/v4"
)

// Seeder resets the booking core to a known state for local testing.
// Catalog rows normally arrive over the event bus; the seeder writes
// them directly so the API is usable without the upstream service.
type Seeder struct {
	db  *database.DB
	cfg *config.Config
}

func main() {
	cleanOnly := flag.Bool("clean-only", false, "truncate tables and exit without seeding")
	skipTokens := flag.Bool("skip-tokens", false, "do not print dev bearer tokens")
	flag.Parse()

	fmt.Println("🌱 Starting Evently Booking Seeder...")

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db, cfg: cfg}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	if *cleanOnly {
		fmt.Println("\n🎉 Clean completed!")
		return
	}

	fmt.Println("\n🌱 Seeding capacity ledger...")
	if err := seeder.SeedLedger(); err != nil {
		log.Fatalf("Failed to seed ledger: %v", err)
	}
	fmt.Println("✅ Ledger seeded successfully")

	if !*skipTokens {
		fmt.Println("\n🔑 Dev tokens (signed with JWT_SECRET):")
		if err := seeder.PrintDevTokens(); err != nil {
			log.Fatalf("Failed to issue dev tokens: %v", err)
		}
	}

	fmt.Println("\n🎉 Seeding completed! Booking core is ready for testing.")
}

// CleanDatabase truncates all tables in the correct order (respecting foreign key constraints)
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"waitlist_audit_logs",
		"waitlist_entries",
		"booking_audit_logs",
		"booking_items",
		"bookings",
		"event_availability",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	// Drop cached availability so reads reflect the fresh ledger
	if s.db.Redis != nil {
		if err := s.db.Redis.FlushDB(context.Background()).Err(); err != nil {
			log.Printf("Warning: failed to clear Redis cache: %v", err)
		}
	}

	return nil
}

// SeedLedger creates capacity rows for a handful of demo events.
func (s *Seeder) SeedLedger() error {
	now := time.Now().UTC()

	eventsData := []struct {
		eventID  int64
		name     string
		capacity int
		price    float64
	}{
		{1, "Go Conference 2026", 10, 25.00},
		{2, "Indie Rock Night", 120, 45.50},
		{3, "Startup Pitch Evening", 80, 0.00},
		{4, "Jazz at the Riverside", 60, 75.00},
		{5, "Tiny Venue Acoustic Set", 2, 30.00},
	}

	for _, data := range eventsData {
		row := availability.EventAvailability{
			EventID:       data.eventID,
			EventName:     data.name,
			TotalCapacity: data.capacity,
			Available:     data.capacity,
			Reserved:      0,
			Confirmed:     0,
			Price:         data.price,
			Version:       1,
			LastUpdated:   now,
		}

		if err := s.db.PostgreSQL.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create ledger row for event %d: %w", data.eventID, err)
		}

		fmt.Printf("    ✅ Event %d: %s (capacity %d, price %.2f)\n", data.eventID, data.name, data.capacity, data.price)
	}

	return nil
}

// PrintDevTokens issues bearer tokens for one admin and two regular
// users so the API can be exercised with curl right away.
func (s *Seeder) PrintDevTokens() error {
	now := time.Now()
	expiresIn := s.cfg.JWT.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 24 * time.Hour
	}

	accounts := []struct {
		label  string
		userID int64
		email  string
		role   string
	}{
		{"admin", 1, "admin@evently.com", middleware.RoleAdmin},
		{"user1", 2, "alice@example.com", middleware.RoleUser},
		{"user2", 3, "bob@example.com", middleware.RoleUser},
	}

	for _, acct := range accounts {
		claims := middleware.AccessClaims{
			UserID:    acct.userID,
			Email:     acct.email,
			Role:      acct.role,
			TokenType: "access",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    s.cfg.JWT.Issuer,
				Subject:   fmt.Sprintf("%d", acct.userID),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			},
		}

		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWT.Secret))
		if err != nil {
			return fmt.Errorf("failed to sign token for %s: %w", acct.label, err)
		}

		fmt.Printf("  %s (%s):\n    %s\n", acct.label, acct.email, token)
	}

	return nil
}
