package config

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"ethlog/ethmodel"
)

// InitDB opens the connection pool against cfg.DatabaseURL and sizes it
// per cfg.DatabaseMaxConnections.
func InitDB(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.DatabaseMaxConnections / 4)
	sqlDB.SetMaxOpenConns(cfg.DatabaseMaxConnections)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// EnsureDatabaseConnection verifies that we can connect to and use the
// database beyond a bare TCP handshake.
func EnsureDatabaseConnection(db *gorm.DB) error {
	var result int64
	if err := db.Raw("SELECT 1").Scan(&result).Error; err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("database connection test returned unexpected result: %d", result)
	}
	return nil
}

// WaitForEventTable polls for the migrated ETH_EVENT table to appear,
// retrying a few times. Store.Init is expected to have already run
// migrations by the time this is called; this is a defensive check
// against a store that initialized against a different database.
func WaitForEventTable(db *gorm.DB) error {
	const maxRetries = 3
	const retryDelay = 2 * time.Second

	model := &ethmodel.EventRecord{}
	for i := 0; i < maxRetries; i++ {
		if db.Migrator().HasTable(model) {
			return nil
		}
		if i < maxRetries-1 {
			log.Warn().Int("attempt", i+1).Msg("ETH_EVENT table not found yet, retrying")
			time.Sleep(retryDelay)
		}
	}
	return fmt.Errorf("required table ETH_EVENT does not exist after %d attempts", maxRetries)
}
