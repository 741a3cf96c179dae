package database

import (
	"fmt"
)

// Migrate creates the schema if it does not exist yet. It is safe to run on every start.
func (db *DB) Migrate() error {
	db.log.Info().Msg("running migrations")

	migrations := []string{
		// Users table
		`CREATE TABLE IF NOT EXISTS users (
			user_id INTEGER PRIMARY KEY,
			username TEXT,
			first_name TEXT,
			joined_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			total_downloads INTEGER DEFAULT 0
		)`,

		// Downloads table; user_id is not a declared foreign key
		`CREATE TABLE IF NOT EXISTS downloads (
			id INTEGER PRIMARY KEY,
			user_id INTEGER,
			platform TEXT,
			url TEXT,
			download_time TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			success INTEGER DEFAULT 1
		)`,
		`CREATE INDEX IF NOT EXISTS idx_downloads_user_id ON downloads(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_downloads_download_time ON downloads(download_time)`,

		// Daily rollup read by the dashboard API
		`CREATE VIEW IF NOT EXISTS stats AS
			SELECT date(download_time) AS date,
				COUNT(*) AS attempts,
				COALESCE(SUM(success), 0) AS successful,
				COUNT(DISTINCT user_id) AS users
			FROM downloads
			GROUP BY date(download_time)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}

	db.log.Info().Msg("migrations completed successfully")
	return nil
}
