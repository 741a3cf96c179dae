package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/artur/clipdrop/internal/database/repository"
)

func TestDownloadRepository_Record(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	downloads := repository.NewDownloadRepository(db)
	ctx := context.Background()

	users.Register(ctx, 12345, "", "Test")

	if err := downloads.Record(ctx, 12345, "tiktok", "https://vm.tiktok.com/ZMabc123/", true); err != nil {
		t.Fatalf("Failed to record download: %v", err)
	}

	count, err := downloads.GetUserDownloadCount(ctx, 12345)
	if err != nil {
		t.Fatalf("Failed to get count: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected count 1, got %d", count)
	}

	recent, err := downloads.GetRecent(ctx, 20)
	if err != nil {
		t.Fatalf("Failed to get recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(recent))
	}
	d := recent[0]
	if d.UserID != 12345 || d.Platform != "tiktok" || d.URL != "https://vm.tiktok.com/ZMabc123/" || !d.Success {
		t.Errorf("Unexpected record: %+v", d)
	}
	if d.DownloadTime.IsZero() {
		t.Error("Expected download_time to default to creation time")
	}
}

// total_downloads counts attempts, not successes.
func TestDownloadRepository_Record_IncrementsOnFailure(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	downloads := repository.NewDownloadRepository(db)
	ctx := context.Background()

	users.Register(ctx, 1, "", "Test")

	tests := []struct {
		success bool
		want    int64
	}{
		{true, 1},
		{false, 2},
		{false, 3},
		{true, 4},
	}

	for _, tt := range tests {
		if err := downloads.Record(ctx, 1, "youtube", "https://youtu.be/x", tt.success); err != nil {
			t.Fatalf("Failed to record: %v", err)
		}
		user, err := users.GetByID(ctx, 1)
		if err != nil {
			t.Fatalf("Failed to get user: %v", err)
		}
		if user.TotalDownloads != tt.want {
			t.Errorf("after success=%v: total_downloads = %d, want %d", tt.success, user.TotalDownloads, tt.want)
		}
	}

	successful, err := downloads.GetSuccessfulDownloads(ctx)
	if err != nil {
		t.Fatalf("Failed to count successful: %v", err)
	}
	if successful != 2 {
		t.Errorf("Expected 2 successful downloads, got %d", successful)
	}
}

func TestDownloadRepository_Record_Concurrent(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	downloads := repository.NewDownloadRepository(db)
	ctx := context.Background()

	users.Register(ctx, 1, "", "Test")

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := downloads.Record(ctx, 1, "twitter", "https://x.com/a", i%2 == 0); err != nil {
				t.Errorf("Failed to record: %v", err)
			}
		}(i)
	}
	wg.Wait()

	user, err := users.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("Failed to get user: %v", err)
	}
	if user.TotalDownloads != n {
		t.Errorf("Expected total_downloads %d, got %d", n, user.TotalDownloads)
	}
}

func TestDownloadRepository_CountOn(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	downloads := repository.NewDownloadRepository(db)
	ctx := context.Background()

	users.Register(ctx, 1, "", "Test")
	downloads.Record(ctx, 1, "tiktok", "u1", true)
	downloads.Record(ctx, 1, "tiktok", "u2", false)
	if _, err := db.Exec(`INSERT INTO downloads (user_id, platform, url, download_time, success) VALUES (1, 'tiktok', 'old', '2020-01-01 10:00:00', 1)`); err != nil {
		t.Fatalf("Failed to insert old record: %v", err)
	}

	today := time.Now().UTC().Format("2006-01-02")
	count, err := downloads.CountOn(ctx, today)
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 attempts today, got %d", count)
	}
}

func TestDownloadRepository_GetPlatformDistribution(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	downloads := repository.NewDownloadRepository(db)
	ctx := context.Background()

	users.Register(ctx, 1, "", "Test")
	downloads.Record(ctx, 1, "tiktok", "a", true)
	downloads.Record(ctx, 1, "tiktok", "b", true)
	downloads.Record(ctx, 1, "tiktok", "c", true)
	downloads.Record(ctx, 1, "instagram", "d", true)
	downloads.Record(ctx, 1, "instagram", "e", false)
	downloads.Record(ctx, 1, "facebook", "f", false)

	dist, err := downloads.GetPlatformDistribution(ctx)
	if err != nil {
		t.Fatalf("Failed to get distribution: %v", err)
	}
	if len(dist) != 2 {
		t.Fatalf("Expected 2 platforms with successes, got %d", len(dist))
	}
	if dist[0].Platform != "tiktok" || dist[0].Count != 3 {
		t.Errorf("Expected tiktok=3 first, got %s=%d", dist[0].Platform, dist[0].Count)
	}
	if dist[1].Platform != "instagram" || dist[1].Count != 1 {
		t.Errorf("Expected instagram=1 second, got %s=%d", dist[1].Platform, dist[1].Count)
	}
}

func TestDownloadRepository_GetRecent(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	downloads := repository.NewDownloadRepository(db)
	ctx := context.Background()

	users.Register(ctx, 1, "", "Test")
	for i := 0; i < 25; i++ {
		downloads.Record(ctx, 1, "tiktok", "u", i%3 != 0)
	}

	recent, err := downloads.GetRecent(ctx, 20)
	if err != nil {
		t.Fatalf("Failed to get recent: %v", err)
	}
	if len(recent) != 20 {
		t.Fatalf("Expected 20 records, got %d", len(recent))
	}
	if recent[0].ID != 25 {
		t.Errorf("Expected newest record (id 25) first, got id %d", recent[0].ID)
	}
}
