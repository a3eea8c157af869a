package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"quizforge/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

//go:embed migrations
var migrationsFS embed.FS

// RunMigrations brings the generation-log schema up to date for db's driver.
func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	switch db.DriverName() {
	case DriverSQLite:
		return migrateSQLite(db)
	case DriverOracle:
		return execMigrations(ctx, db, migrationsFS, "migrations/oracle")
	default:
		return fmt.Errorf("no migrations for driver %q", db.DriverName())
	}
}

func migrateSQLite(db *sqlx.DB) error {
	src, err := iofs.New(migrationsFS, "migrations/sqlite")
	if err != nil {
		return fmt.Errorf("could not open sqlite migrations: %w", err)
	}
	drv, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create sqlite migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, DriverSQLite, drv)
	if err != nil {
		return fmt.Errorf("could not create migrator: %w", err)
	}
	// m.Close would close db as well; it stays open for the caller.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not apply sqlite migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Get().Info("SQLite migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// execMigrations runs every *.up.sql file under dir in name order, one statement per file.
// Objects that already exist are skipped so the run is repeatable.
func execMigrations(ctx context.Context, db *sqlx.DB, fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("could not read migrations directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}
		content, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("could not read migration file %s: %w", entry.Name(), err)
		}

		stmt := strings.TrimSuffix(strings.TrimSpace(string(content)), ";")
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			if isAlreadyExists(err) {
				logger.Get().Info("Migration already applied", zap.String("file", entry.Name()))
				continue
			}
			return fmt.Errorf("could not execute migration %s: %w", entry.Name(), err)
		}
		logger.Get().Info("Executed migration", zap.String("file", entry.Name()))
	}
	return nil
}

// isAlreadyExists matches ORA-00955 (name already used) and ORA-01408 (column list already indexed).
func isAlreadyExists(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "ORA-00955") || strings.Contains(msg, "ORA-01408")
}
