package database

import (
	"fmt"

	"quizforge/internal/config"
	"quizforge/internal/logger"

	"github.com/jmoiron/sqlx"
	_ "github.com/sijms/go-ora/v2" // Oracle driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	DriverSQLite = "sqlite"
	DriverOracle = "oracle"
)

func init() {
	// sqlx only knows the bind styles of the cgo driver names.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
	sqlx.BindDriver(DriverOracle, sqlx.NAMED)
}

// Connect opens the generation-log database named by genlog.db.driver.
func Connect(cfg config.GenLogDBConfig) (*sqlx.DB, error) {
	switch cfg.Driver {
	case DriverSQLite, DriverOracle:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("genlog.db.dsn is required for driver %q", cfg.Driver)
	}

	db, err := sqlx.Connect(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Driver, err)
	}
	if cfg.Driver == DriverSQLite {
		// A single writer avoids SQLITE_BUSY and keeps :memory: databases on one connection.
		db.SetMaxOpenConns(1)
	}

	logger.Get().Info("Connected to generation log database", zap.String("driver", cfg.Driver))
	return db, nil
}
