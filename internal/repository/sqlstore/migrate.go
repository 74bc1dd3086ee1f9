package sqlstore

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// One directory per dialect; the files are numbered the golang-migrate way
// (000001_name.up.sql / 000001_name.down.sql).
//
//go:embed migrations
var migrationsFS embed.FS

// Migrate applies every pending up migration. Running it on an up-to-date
// database is a no-op.
func (s *Store) Migrate() error {
	m, done, err := s.migrator()
	if err != nil {
		return err
	}
	defer done()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("sqlstore: migrating up: %w", err)
	}
	return nil
}

// MigrateDown rolls every migration back, dropping all tables.
func (s *Store) MigrateDown() error {
	m, done, err := s.migrator()
	if err != nil {
		return err
	}
	defer done()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("sqlstore: migrating down: %w", err)
	}
	return nil
}

// migrator builds a *migrate.Migrate for the store's dialect. The returned func
// releases whatever the migrator opened.
//
// SQLite runs on the store's own handle (an in-memory database only exists on
// that connection), and the migrate driver is never closed because closing it
// would close the shared pool. Postgres gets a dedicated handle that is closed
// together with the migrator.
func (s *Store) migrator() (*migrate.Migrate, func(), error) {
	src, err := iofs.New(migrationsFS, "migrations/"+s.driver)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlstore: loading %s migrations: %w", s.driver, err)
	}

	switch s.driver {
	case DriverSQLite:
		drv, err := migratesqlite.WithInstance(s.db.DB, &migratesqlite.Config{})
		if err != nil {
			src.Close()
			return nil, nil, fmt.Errorf("sqlstore: sqlite migrate driver: %w", err)
		}
		m, err := migrate.NewWithInstance("iofs", src, DriverSQLite, drv)
		if err != nil {
			src.Close()
			return nil, nil, fmt.Errorf("sqlstore: creating migrator: %w", err)
		}
		return m, func() { src.Close() }, nil

	case DriverPostgres:
		conn, err := sql.Open("pgx", s.dsn)
		if err != nil {
			src.Close()
			return nil, nil, fmt.Errorf("sqlstore: opening migration connection: %w", err)
		}
		drv, err := migratepgx.WithInstance(conn, &migratepgx.Config{})
		if err != nil {
			conn.Close()
			src.Close()
			return nil, nil, fmt.Errorf("sqlstore: pgx migrate driver: %w", err)
		}
		m, err := migrate.NewWithInstance("iofs", src, "pgx5", drv)
		if err != nil {
			drv.Close()
			src.Close()
			return nil, nil, fmt.Errorf("sqlstore: creating migrator: %w", err)
		}
		return m, func() { m.Close() }, nil
	}

	src.Close()
	return nil, nil, fmt.Errorf("sqlstore: unsupported driver %q", s.driver)
}
