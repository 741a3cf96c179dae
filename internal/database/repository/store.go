package repository

import (
	"context"
	"database/sql"
)

// Store bundles the repositories behind the operations the bot needs.
// One Store is built at startup and handed to the handlers.
type Store struct {
	Users     *UserRepository
	Downloads *DownloadRepository
	Stats     *StatsRepository
}

// NewStore creates a Store over db
func NewStore(db *sql.DB) *Store {
	return &Store{
		Users:     NewUserRepository(db),
		Downloads: NewDownloadRepository(db),
		Stats:     NewStatsRepository(db),
	}
}

// RegisterUser inserts the user if absent
func (s *Store) RegisterUser(ctx context.Context, userID int64, username, firstName string) error {
	return s.Users.Register(ctx, userID, username, firstName)
}

// RecordDownload logs an attempt and increments the user's counter
func (s *Store) RecordDownload(ctx context.Context, userID int64, platform, url string, success bool) error {
	return s.Downloads.Record(ctx, userID, platform, url, success)
}

// AggregateStats returns user and successful download totals
func (s *Store) AggregateStats(ctx context.Context) (*Stats, error) {
	return s.Stats.Aggregate(ctx)
}
