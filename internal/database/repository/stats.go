package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Stats is the aggregate shown by /stats
type Stats struct {
	Users     int64
	Downloads int64
}

// DailyStats is one row of the stats rollup view
type DailyStats struct {
	Date       string `json:"date"`
	Attempts   int64  `json:"attempts"`
	Successful int64  `json:"successful"`
	Users      int64  `json:"users"`
}

// StatsRepository serves read-only aggregates
type StatsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a new StatsRepository
func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Aggregate returns the user count and the count of successful downloads
func (r *StatsRepository) Aggregate(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&stats.Users); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM downloads WHERE success = 1").Scan(&stats.Downloads); err != nil {
		return nil, fmt.Errorf("failed to count downloads: %w", err)
	}

	return stats, nil
}

// GetDaily returns the most recent rows of the daily rollup (top N days)
func (r *StatsRepository) GetDaily(ctx context.Context, limit int) ([]DailyStats, error) {
	query := `SELECT date, attempts, successful, users FROM stats ORDER BY date DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily stats: %w", err)
	}
	defer rows.Close()

	results := make([]DailyStats, 0)
	for rows.Next() {
		var item DailyStats
		var date sql.NullString
		if err := rows.Scan(&date, &item.Attempts, &item.Successful, &item.Users); err != nil {
			return nil, fmt.Errorf("failed to scan daily stats: %w", err)
		}
		item.Date = date.String
		results = append(results, item)
	}

	return results, rows.Err()
}
