package models

import "time"

// User represents a Telegram account that has talked to the bot
type User struct {
	UserID         int64
	Username       string
	FirstName      string
	JoinedDate     time.Time
	TotalDownloads int64
}

// DisplayName returns the first name, then the username, then "Anonymous"
func (u User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return u.Username
	}
	return "Anonymous"
}
