package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/artur/clipdrop/internal/logging"
)

// DB wraps the sqlite connection pool shared by the repositories.
type DB struct {
	*sql.DB
	log zerolog.Logger
}

// New opens (creating if needed) the sqlite file at path.
func New(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// busy_timeout lets concurrent writers from handler goroutines wait instead of failing with SQLITE_BUSY.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log := logging.Component("database")
	log.Info().Str("path", path).Msg("database opened")

	return &DB{DB: sqlDB, log: log}, nil
}

// Wrap adapts an already opened pool, mainly for tests using :memory:.
func Wrap(sqlDB *sql.DB) *DB {
	return &DB{DB: sqlDB, log: logging.Component("database")}
}
