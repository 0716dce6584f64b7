package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const (
	migrationDir         = "migrations"
	migrationMaxRetries  = 3
	migrationBaseBackoff = 100 * time.Millisecond
	migrationMaxBackoff  = 3 * time.Second
)

// MigrationStatus describes one embedded migration.
type MigrationStatus struct {
	Version uint
	Name    string
	Applied bool
}

// Migrator applies the embedded schema migrations.
type Migrator struct {
	m *migrate.Migrate
}

// NewMigrator opens a migrator against databaseURL (postgres:// or postgresql://).
func NewMigrator(databaseURL string) (*Migrator, error) {
	source, err := iofs.New(migrationFiles, migrationDir)
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("init migrator: %w", err)
	}

	return &Migrator{m: m}, nil
}

// Up applies all pending migrations. Lock contention with a concurrent
// migrator is retried with exponential backoff.
func (mg *Migrator) Up(ctx context.Context) error {
	var err error
	for attempt := 0; attempt < migrationMaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * migrationBaseBackoff
			if backoff > migrationMaxBackoff {
				backoff = migrationMaxBackoff
			}
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		err = mg.m.Up()
		if err == nil || errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		if !shouldRetryMigration(err) {
			return fmt.Errorf("migrate up: %w", err)
		}
	}

	return fmt.Errorf("migrate up: exceeded max retries (%d): %w", migrationMaxRetries, err)
}

// Down reverts the most recently applied migration.
func (mg *Migrator) Down() error {
	if err := mg.m.Steps(-1); err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// Status lists every embedded migration and whether it has been applied.
func (mg *Migrator) Status() ([]MigrationStatus, bool, error) {
	current, dirty, err := mg.m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return nil, false, fmt.Errorf("read migration version: %w", err)
	}

	available, err := embeddedMigrations()
	if err != nil {
		return nil, false, err
	}

	for i := range available {
		available[i].Applied = current > 0 && available[i].Version <= current
	}
	return available, dirty, nil
}

// Close releases the source and database handles.
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

// Migrations exposes the embedded up-migrations in version order, for
// environments where golang-migrate's locking is unavailable (e.g. tests on
// CockroachDB).
func Migrations() ([]string, fs.FS, error) {
	available, err := embeddedMigrations()
	if err != nil {
		return nil, nil, err
	}
	sub, err := fs.Sub(migrationFiles, migrationDir)
	if err != nil {
		return nil, nil, err
	}
	names := make([]string, 0, len(available))
	for _, m := range available {
		names = append(names, m.Name)
	}
	return names, sub, nil
}

func embeddedMigrations() ([]MigrationStatus, error) {
	entries, err := fs.ReadDir(migrationFiles, migrationDir)
	if err != nil {
		return nil, fmt.Errorf("read embedded migrations: %w", err)
	}

	var out []MigrationStatus
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		prefix, _, _ := strings.Cut(path.Base(name), "_")
		version, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse migration version %s: %w", name, err)
		}
		out = append(out, MigrationStatus{Version: uint(version), Name: name})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func migrateURL(databaseURL string) string {
	for _, scheme := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(databaseURL, scheme) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, scheme)
		}
	}
	return databaseURL
}

func shouldRetryMigration(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, database.ErrLocked) || errors.Is(err, migrate.ErrLockTimeout) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "55P03" { // lock_not_available
		return true
	}

	var dbErr database.Error
	if errors.As(err, &dbErr) && dbErr.OrigErr != nil && errors.As(dbErr.OrigErr, &pgErr) {
		return pgErr.Code == "55P03"
	}

	return false
}
