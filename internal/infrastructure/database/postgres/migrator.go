package postgres

import (
	stdliberrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file" // File source driver

	"github.com/turtacn/CaseIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CaseIntel/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Migrate instance
// ─────────────────────────────────────────────────────────────────────────────

// newMigrate binds golang-migrate to the open pool and the migration files
// under dir.
func (c *Connection) newMigrate(dir string) (*migrate.Migrate, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "resolve migrations directory")
	}
	driver, err := migratepg.WithInstance(c.db, &migratepg.Config{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create migration driver")
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+filepath.ToSlash(abs), "postgres", driver)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create migrate instance")
	}
	return m, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Apply
// ─────────────────────────────────────────────────────────────────────────────

// RunMigrations applies every pending migration in dir.  No pending
// migration is not an error.
func (c *Connection) RunMigrations(dir string) error {
	m, err := c.newMigrate(dir)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !stdliberrors.Is(err, migrate.ErrNoChange) {
		version, _, _ := m.Version()
		return errors.Wrap(err, errors.ErrCodeInternal, fmt.Sprintf("failed to run migrations (current version: %d)", version))
	}

	version, dirty, err := m.Version()
	if err != nil && !stdliberrors.Is(err, migrate.ErrNilVersion) {
		c.logger.Warn("Failed to get migration version", logging.Err(err))
	}
	c.logger.Info("Database migrations completed",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty),
	)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Rollback
// ─────────────────────────────────────────────────────────────────────────────

// RollbackMigrations rolls the schema back by steps migrations.
func (c *Connection) RollbackMigrations(dir string, steps int) error {
	if steps <= 0 {
		return errors.InvalidParam(fmt.Sprintf("steps must be greater than 0, got %d", steps))
	}
	m, err := c.newMigrate(dir)
	if err != nil {
		return err
	}
	if err := m.Steps(-steps); err != nil {
		if stdliberrors.Is(err, migrate.ErrNoChange) {
			return errors.New(errors.ErrCodeBadRequest, "no migrations to roll back")
		}
		return errors.Wrap(err, errors.ErrCodeInternal, fmt.Sprintf("failed to rollback %d step(s)", steps))
	}
	c.logger.Info("Database migrations rolled back", logging.Int("steps", steps))
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Status
// ─────────────────────────────────────────────────────────────────────────────

// MigrationStatus returns the applied version and whether a previous
// migration left the schema dirty.  A fresh database reports version 0.
func (c *Connection) MigrationStatus(dir string) (version uint, dirty bool, err error) {
	m, err := c.newMigrate(dir)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if err != nil {
		if stdliberrors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get migration version")
	}
	return version, dirty, nil
}

// ForceMigrationVersion marks the schema as being at version without running
// anything.  It is the recovery path for a dirty schema.
func (c *Connection) ForceMigrationVersion(dir string, version int) error {
	m, err := c.newMigrate(dir)
	if err != nil {
		return err
	}
	if err := m.Force(version); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, fmt.Sprintf("failed to force version %d", version))
	}
	c.logger.Warn("Migration version forced", logging.Int("version", version))
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Migration files
// ─────────────────────────────────────────────────────────────────────────────

// MigrationFiles lists the migration versions found in dir and checks that
// every version has both an up and a down file.
func MigrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "read migrations directory")
	}
	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	var versions []string
	for v := range ups {
		if !downs[v] {
			return nil, errors.New(errors.ErrCodeInternal, "migration has no down file").WithDetail(v)
		}
		versions = append(versions, v)
	}
	for v := range downs {
		if !ups[v] {
			return nil, errors.New(errors.ErrCodeInternal, "migration has no up file").WithDetail(v)
		}
	}
	sort.Strings(versions)
	return versions, nil
}

//Personal.AI order the ending
