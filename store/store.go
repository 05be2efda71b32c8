// Package store implements the Event Store: idempotent schema
// migrations, ordered append, and paginated/filtered reads over a
// relational backing pool. It owns the connection pool handle it is
// constructed with and nothing else.
package store

import (
	"embed"
	"errors"
	"time"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"ethlog/apperr"
	"ethlog/ethmodel"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps the GORM handle bound to the ETH_EVENT table. Safe for
// concurrent use; every Save uses its own transaction.
type Store struct {
	db *gorm.DB
}

// Init runs pending schema migrations against db's underlying pool and
// returns a ready Store. Re-running against an up-to-date schema is a
// no-op.
func Init(db *gorm.DB) (*Store, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, apperr.New(apperr.MigrationError, "acquire sql.DB handle", err)
	}

	driver, err := pgmigrate.WithInstance(sqlDB, &pgmigrate.Config{})
	if err != nil {
		return nil, apperr.New(apperr.MigrationError, "construct postgres migration driver", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, apperr.New(apperr.MigrationError, "load embedded migration source", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, apperr.New(apperr.MigrationError, "construct migrator", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, apperr.New(apperr.MigrationError, "apply migrations", err)
	}

	log.Info().Msg("event store schema up to date")
	return &Store{db: db}, nil
}

// Save inserts data as a new row inside a single transaction and
// returns the row populated with its assigned id, version 0, and
// timestamps. Safe to call from multiple goroutines in parallel.
func (s *Store) Save(data ethmodel.EventData) (ethmodel.EventRecord, error) {
	now := time.Now().UnixMilli()
	record := ethmodel.EventRecord{
		Version:           0,
		CreateEpochMillis: now,
		UpdateEpochMillis: now,
		Data:              data,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&record).Error
	})
	if err != nil {
		return ethmodel.EventRecord{}, apperr.New(apperr.StorageError, "save event", err)
	}
	return record, nil
}

// Fetch returns up to limit rows with id >= fromID, ascending by id,
// optionally restricted to rows whose data.event_type.type equals
// filter.
func (s *Store) Fetch(filter *ethmodel.EventTypeTag, fromID uint64, limit uint32) ([]ethmodel.EventRecord, error) {
	query := s.db.Model(&ethmodel.EventRecord{}).
		Where(`"id" >= ?`, fromID).
		Order(`"id" ASC`).
		Limit(int(limit))

	if filter != nil {
		query = query.Where(`data -> 'event_type' ->> 'type' = ?`, string(*filter))
	}

	var records []ethmodel.EventRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, apperr.New(apperr.StorageError, "fetch events", err)
	}
	return records, nil
}
