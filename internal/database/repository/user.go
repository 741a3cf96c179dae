package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/artur/clipdrop/internal/database/models"
)

// UserRepository handles user data persistence
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Register inserts the user unless a row with the same id already exists.
// Username and first name from later contacts are ignored.
func (r *UserRepository) Register(ctx context.Context, userID int64, username, firstName string) error {
	query := `INSERT OR IGNORE INTO users (user_id, username, first_name) VALUES (?, ?, ?)`

	if _, err := r.db.ExecContext(ctx, query, userID, nullString(username), nullString(firstName)); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

// GetByID retrieves a user, returning nil when it does not exist
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	query := `
		SELECT user_id, username, first_name, joined_date, total_downloads
		FROM users
		WHERE user_id = ?
	`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetTotalUsers returns total number of unique users
func (r *UserRepository) GetTotalUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// CountJoinedOn returns users whose join date falls on day (YYYY-MM-DD, UTC)
func (r *UserRepository) CountJoinedOn(ctx context.Context, day string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE date(joined_date) = ?", day).Scan(&count)
	return count, err
}

// GetTopUsers returns users with the highest download counter (top N)
func (r *UserRepository) GetTopUsers(ctx context.Context, limit int) ([]models.User, error) {
	query := `
		SELECT user_id, username, first_name, joined_date, total_downloads
		FROM users
		ORDER BY total_downloads DESC, user_id ASC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	return users, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	user := &models.User{}
	var username, firstName sql.NullString
	var joined sql.NullTime
	var total sql.NullInt64

	if err := row.Scan(&user.UserID, &username, &firstName, &joined, &total); err != nil {
		return nil, err
	}

	user.Username = username.String
	user.FirstName = firstName.String
	user.JoinedDate = joined.Time
	user.TotalDownloads = total.Int64
	return user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
