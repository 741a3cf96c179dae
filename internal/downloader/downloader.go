package downloader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/artur/clipdrop/internal/logging"
	"github.com/artur/clipdrop/internal/platform"
)

const (
	maxTitleLength  = 100
	defaultTitle    = "Video"
	defaultUploader = "Unknown"
)

// knownExtensions are probed when the extractor's reported filename is missing on disk.
var knownExtensions = []string{".mp4", ".mkv", ".webm"}

var (
	// ErrFileNotFound is returned when extraction finished but no output file exists.
	ErrFileNotFound = errors.New("downloaded file not found")

	// ErrNoFormats is returned when the source offers no downloadable video format.
	ErrNoFormats = errors.New("no video formats found")

	// ErrUnsupported is returned when an extractor cannot handle the URL shape.
	ErrUnsupported = errors.New("unsupported URL")
)

// FetchError wraps any failure to produce a playable local file.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// VideoInfo describes a downloaded file and its metadata.
type VideoInfo struct {
	FilePath string
	Title    string
	Uploader string
	Duration int // seconds

	workDir string
}

// Cleanup removes the downloaded file and its per-request scratch directory.
func (v *VideoInfo) Cleanup() error {
	if v.workDir != "" {
		return os.RemoveAll(v.workDir)
	}
	if err := os.Remove(v.FilePath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Extractor resolves a URL into a local video file inside dir.
type Extractor interface {
	Extract(ctx context.Context, url, dir string, maxSize int64) (*VideoInfo, error)
}

// Fetcher picks an extractor per platform and owns the scratch directory.
type Fetcher struct {
	dir        string
	maxSize    int64
	fallback   Extractor
	extractors map[platform.Label]Extractor
	log        zerolog.Logger
}

// NewFetcher creates a Fetcher writing under dir. fallback serves every
// platform without a dedicated extractor.
func NewFetcher(dir string, maxSize int64, fallback Extractor) *Fetcher {
	return &Fetcher{
		dir:        dir,
		maxSize:    maxSize,
		fallback:   fallback,
		extractors: make(map[platform.Label]Extractor),
		log:        logging.Component("downloader"),
	}
}

// Use routes a platform to a dedicated extractor.
func (f *Fetcher) Use(label platform.Label, e Extractor) {
	f.extractors[label] = e
}

// MaxSize returns the configured size ceiling in bytes.
func (f *Fetcher) MaxSize() int64 {
	return f.maxSize
}

// Fetch downloads url into a fresh scratch subdirectory. Any failure is
// returned as *FetchError and leaves nothing on disk.
func (f *Fetcher) Fetch(ctx context.Context, label platform.Label, url string) (*VideoInfo, error) {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("failed to create download dir: %w", err)}
	}

	workDir := filepath.Join(f.dir, uuid.NewString())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("failed to create work dir: %w", err)}
	}

	extractor := f.fallback
	if e, ok := f.extractors[label]; ok {
		extractor = e
	}

	log := f.log.With().Str("platform", label.String()).Str("url", url).Logger()
	start := time.Now()

	info, err := extractor.Extract(ctx, url, workDir, f.maxSize)
	if err != nil {
		os.RemoveAll(workDir)
		log.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("extraction failed")
		return nil, &FetchError{URL: url, Err: err}
	}

	info.workDir = workDir
	info.Title = truncate(orDefault(info.Title, defaultTitle), maxTitleLength)
	info.Uploader = orDefault(info.Uploader, defaultUploader)

	log.Info().Str("file", filepath.Base(info.FilePath)).Dur("elapsed", time.Since(start)).Msg("extraction finished")
	return info, nil
}

// locateOutput returns expected if it exists, otherwise the first sibling
// with the same base name and a known video extension.
func locateOutput(expected string) (string, error) {
	if _, err := os.Stat(expected); err == nil {
		return expected, nil
	}

	base := strings.TrimSuffix(expected, filepath.Ext(expected))
	for _, ext := range knownExtensions {
		candidate := base + ext
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", ErrFileNotFound
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
