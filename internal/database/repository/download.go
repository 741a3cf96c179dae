package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/artur/clipdrop/internal/database/models"
)

// DownloadRepository handles download log persistence
type DownloadRepository struct {
	db *sql.DB
}

// NewDownloadRepository creates a new DownloadRepository
func NewDownloadRepository(db *sql.DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

// Record logs one fetch attempt and bumps the owner's total_downloads.
// The counter is incremented for failed attempts as well.
func (r *DownloadRepository) Record(ctx context.Context, userID int64, platform, url string, success bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insert := `INSERT INTO downloads (user_id, platform, url, success) VALUES (?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insert, userID, platform, url, boolToInt(success)); err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}

	update := `UPDATE users SET total_downloads = total_downloads + 1 WHERE user_id = ?`
	if _, err := tx.ExecContext(ctx, update, userID); err != nil {
		return fmt.Errorf("failed to increment user downloads: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit download: %w", err)
	}
	return nil
}

// GetUserDownloadCount returns logged attempts for a user
func (r *DownloadRepository) GetUserDownloadCount(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM downloads WHERE user_id = ?`, userID).Scan(&count)
	return count, err
}

// GetSuccessfulDownloads returns successful downloads by all users
func (r *DownloadRepository) GetSuccessfulDownloads(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM downloads WHERE success = 1").Scan(&count)
	return count, err
}

// CountOn returns attempts (successful or not) logged on day (YYYY-MM-DD, UTC)
func (r *DownloadRepository) CountOn(ctx context.Context, day string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM downloads WHERE date(download_time) = ?", day).Scan(&count)
	return count, err
}

// PlatformCount is the number of successful downloads for one platform
type PlatformCount struct {
	Platform string
	Count    int64
}

// GetPlatformDistribution returns successful downloads grouped by platform
func (r *DownloadRepository) GetPlatformDistribution(ctx context.Context) ([]PlatformCount, error) {
	query := `
		SELECT platform, COUNT(*) AS count
		FROM downloads
		WHERE success = 1
		GROUP BY platform
		ORDER BY count DESC, platform ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get platform distribution: %w", err)
	}
	defer rows.Close()

	var results []PlatformCount
	for rows.Next() {
		var item PlatformCount
		var platform sql.NullString
		if err := rows.Scan(&platform, &item.Count); err != nil {
			return nil, fmt.Errorf("failed to scan platform count: %w", err)
		}
		item.Platform = platform.String
		results = append(results, item)
	}

	return results, rows.Err()
}

// GetRecent returns the most recent download records (newest first)
func (r *DownloadRepository) GetRecent(ctx context.Context, limit int) ([]models.Download, error) {
	query := `
		SELECT id, user_id, platform, url, download_time, success
		FROM downloads
		ORDER BY download_time DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent downloads: %w", err)
	}
	defer rows.Close()

	var downloads []models.Download
	for rows.Next() {
		var d models.Download
		var userID sql.NullInt64
		var platform, url sql.NullString
		var when sql.NullTime
		var success sql.NullInt64
		if err := rows.Scan(&d.ID, &userID, &platform, &url, &when, &success); err != nil {
			return nil, fmt.Errorf("failed to scan download: %w", err)
		}
		d.UserID = userID.Int64
		d.Platform = platform.String
		d.URL = url.String
		d.DownloadTime = when.Time
		d.Success = success.Int64 != 0
		downloads = append(downloads, d)
	}

	return downloads, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
