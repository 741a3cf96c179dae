package downloader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/artur/clipdrop/internal/platform"
)

type fakeExtractor struct {
	calls int
	dir   string
	write func(dir string) (*VideoInfo, error)
}

func (f *fakeExtractor) Extract(ctx context.Context, url, dir string, maxSize int64) (*VideoInfo, error) {
	f.calls++
	f.dir = dir
	return f.write(dir)
}

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestFetcher_Fetch_Success(t *testing.T) {
	base := filepath.Join(t.TempDir(), "downloads")
	ext := &fakeExtractor{write: func(dir string) (*VideoInfo, error) {
		p := filepath.Join(dir, "clip.mp4")
		if err := os.WriteFile(p, []byte("video"), 0o644); err != nil {
			return nil, err
		}
		return &VideoInfo{FilePath: p, Title: "clip", Uploader: "alice", Duration: 12}, nil
	}}

	f := NewFetcher(base, 50*1024*1024, ext)
	info, err := f.Fetch(context.Background(), platform.TikTok, "https://vm.tiktok.com/ZMabc123/")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if info.Title != "clip" || info.Uploader != "alice" || info.Duration != 12 {
		t.Errorf("unexpected info: %+v", info)
	}
	if filepath.Dir(ext.dir) != base {
		t.Errorf("extractor dir %s should be a subdirectory of %s", ext.dir, base)
	}

	if err := info.Cleanup(); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if _, err := os.Stat(ext.dir); !os.IsNotExist(err) {
		t.Errorf("work dir should be removed after cleanup, stat err = %v", err)
	}
}

func TestFetcher_Fetch_Defaults(t *testing.T) {
	long := strings.Repeat("й", 150)
	ext := &fakeExtractor{write: func(dir string) (*VideoInfo, error) {
		p := filepath.Join(dir, "x.mp4")
		os.WriteFile(p, nil, 0o644)
		return &VideoInfo{FilePath: p}, nil
	}}

	f := NewFetcher(t.TempDir(), 1, ext)

	info, err := f.Fetch(context.Background(), platform.TikTok, "https://tiktok.com/a")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if info.Title != "Video" {
		t.Errorf("Title = %q, want Video", info.Title)
	}
	if info.Uploader != "Unknown" {
		t.Errorf("Uploader = %q, want Unknown", info.Uploader)
	}

	ext.write = func(dir string) (*VideoInfo, error) {
		p := filepath.Join(dir, "x.mp4")
		os.WriteFile(p, nil, 0o644)
		return &VideoInfo{FilePath: p, Title: long, Uploader: "bob"}, nil
	}
	info, err = f.Fetch(context.Background(), platform.TikTok, "https://tiktok.com/a")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got := len([]rune(info.Title)); got != 100 {
		t.Errorf("title length = %d runes, want 100", got)
	}
}

func TestFetcher_Fetch_Error(t *testing.T) {
	cause := errors.New("Private video")
	ext := &fakeExtractor{write: func(dir string) (*VideoInfo, error) {
		os.WriteFile(filepath.Join(dir, "partial.mp4.part"), []byte("x"), 0o644)
		return nil, cause
	}}

	f := NewFetcher(t.TempDir(), 1, ext)
	_, err := f.Fetch(context.Background(), platform.Instagram, "https://instagram.com/reel/xyz")

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("FetchError should unwrap to the cause")
	}
	if fetchErr.URL != "https://instagram.com/reel/xyz" {
		t.Errorf("URL = %q", fetchErr.URL)
	}
	if err.Error() != "Private video" {
		t.Errorf("Error() = %q, want the cause message", err.Error())
	}
	if _, statErr := os.Stat(ext.dir); !os.IsNotExist(statErr) {
		t.Errorf("work dir should be removed on failure")
	}
}

func TestFetcher_Routing(t *testing.T) {
	okWrite := func(dir string) (*VideoInfo, error) {
		p := filepath.Join(dir, "v.mp4")
		os.WriteFile(p, nil, 0o644)
		return &VideoInfo{FilePath: p}, nil
	}
	fallback := &fakeExtractor{write: okWrite}
	yt := &fakeExtractor{write: okWrite}

	f := NewFetcher(t.TempDir(), 1, fallback)
	f.Use(platform.YouTube, yt)

	tests := []struct {
		label        platform.Label
		wantFallback int
		wantYouTube  int
	}{
		{platform.YouTube, 0, 1},
		{platform.TikTok, 1, 1},
		{platform.Twitter, 2, 1},
	}

	for _, tt := range tests {
		info, err := f.Fetch(context.Background(), tt.label, "https://example.com")
		if err != nil {
			t.Fatalf("Fetch(%s) error = %v", tt.label, err)
		}
		info.Cleanup()
		if fallback.calls != tt.wantFallback || yt.calls != tt.wantYouTube {
			t.Errorf("after %s: fallback=%d youtube=%d, want %d/%d",
				tt.label, fallback.calls, yt.calls, tt.wantFallback, tt.wantYouTube)
		}
	}
}

func TestLocateOutput(t *testing.T) {
	dir := t.TempDir()

	exact := filepath.Join(dir, "exact.mp4")
	writeFile(t, exact, 1)
	if got, err := locateOutput(exact); err != nil || got != exact {
		t.Errorf("locateOutput(exact) = %q, %v", got, err)
	}

	writeFile(t, filepath.Join(dir, "merged.mkv"), 1)
	writeFile(t, filepath.Join(dir, "merged.webm"), 1)
	got, err := locateOutput(filepath.Join(dir, "merged.mp4"))
	if err != nil {
		t.Fatalf("locateOutput(sibling) error = %v", err)
	}
	if got != filepath.Join(dir, "merged.mkv") {
		t.Errorf("expected .mkv to win over .webm, got %s", got)
	}

	writeFile(t, filepath.Join(dir, "audio.m4a"), 1)
	if _, err := locateOutput(filepath.Join(dir, "audio.mp4")); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound for unknown extension, got %v", err)
	}
}

func TestVideoInfo_Cleanup_WithoutWorkDir(t *testing.T) {
	p := filepath.Join(t.TempDir(), "v.mp4")
	writeFile(t, p, 1)

	info := &VideoInfo{FilePath: p}
	if err := info.Cleanup(); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Error("file should be removed")
	}
	if err := info.Cleanup(); err != nil {
		t.Errorf("second Cleanup() should be a no-op, got %v", err)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 7, "this is"},
		{"привет мир", 6, "привет"},
	}

	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Funny Clip", "Funny Clip"},
		{"a/b\\c:d", "a_b_c_d"},
		{"  spaced   out  ", "spaced out"},
		{"", "Video"},
		{"..", "Video"},
	}

	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
