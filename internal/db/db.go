package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"carshare-backend/config"
	"carshare-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("Running database migrations...")
	if err := db.AutoMigrate(
		&model.Vehicle{},
		&model.Booking{},
		&model.PushSubscription{},
	); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}

	if cfg.EnableExclusionConstraint {
		log.Println("Applying booking exclusion-constraint DDL...")
		if err := applyExclusionDDL(db); err != nil {
			return nil, fmt.Errorf("exclusion DDL failed: %w", err)
		}
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// applyExclusionDDL installs the store-level no-double-booking backstop: a
// GIST exclusion constraint over (vehicle_id, [start_time, end_time)) that
// only considers confirmed/active rows. The scheduler's own transactional
// check handles the common path; the constraint catches conflicting inserts
// from other application instances sharing this database.
func applyExclusionDDL(db *gorm.DB) error {
	ddls := []string{
		// Range operators over a scalar vehicle_id need btree_gist.
		"CREATE EXTENSION IF NOT EXISTS btree_gist;",

		"ALTER TABLE bookings DROP CONSTRAINT IF EXISTS bookings_interval_valid;",
		"ALTER TABLE bookings ADD CONSTRAINT bookings_interval_valid CHECK (start_time < end_time);",

		// Exclude overlapping [) ranges per vehicle among live bookings.
		"ALTER TABLE bookings DROP CONSTRAINT IF EXISTS bookings_no_overlap;",
		"ALTER TABLE bookings ADD CONSTRAINT bookings_no_overlap " +
			"EXCLUDE USING GIST (vehicle_id WITH =, tstzrange(start_time, end_time, '[)') WITH &&) " +
			"WHERE (status IN ('confirmed', 'active'));",

		// Availability reads and the overlap count hit this path constantly.
		"CREATE INDEX IF NOT EXISTS idx_bookings_vehicle_start ON bookings (vehicle_id, start_time);",
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
