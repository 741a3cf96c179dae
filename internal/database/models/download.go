package models

import "time"

// Download represents one logged fetch attempt
type Download struct {
	ID           int64
	UserID       int64
	Platform     string
	URL          string
	DownloadTime time.Time
	Success      bool
}
