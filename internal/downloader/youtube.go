package downloader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/kkdai/youtube/v2"
)

var youtubeIDRe = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/shorts/)([a-zA-Z0-9_-]{11})`)

// YouTubeExtractor downloads YouTube videos natively, without yt-dlp.
type YouTubeExtractor struct {
	client youtube.Client
}

func NewYouTubeExtractor() *YouTubeExtractor {
	return &YouTubeExtractor{
		client: youtube.Client{},
	}
}

func (d *YouTubeExtractor) Extract(ctx context.Context, url, dir string, maxSize int64) (*VideoInfo, error) {
	videoID := extractYouTubeID(url)
	if videoID == "" {
		return nil, fmt.Errorf("%w: no YouTube video id in %q", ErrUnsupported, url)
	}

	video, err := d.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to get video info: %w", err)
	}

	format, err := selectFormat(video.Formats.WithAudioChannels(), maxSize)
	if err != nil {
		return nil, err
	}

	stream, _, err := d.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream: %w", err)
	}
	defer stream.Close()

	path := filepath.Join(dir, sanitizeFilename(video.Title)+".mp4")
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, stream); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to download video: %w", err)
	}

	return &VideoInfo{
		FilePath: path,
		Title:    video.Title,
		Uploader: video.Author,
		Duration: int(video.Duration.Seconds()),
	}, nil
}

// selectFormat picks the highest quality mp4 that fits in maxSize. Formats
// with unknown length count as fitting. If nothing fits, the smallest mp4 is
// returned and the caller's size check rejects it.
func selectFormat(formats youtube.FormatList, maxSize int64) (*youtube.Format, error) {
	var mp4 []youtube.Format
	for _, f := range formats {
		if strings.Contains(f.MimeType, "video/mp4") {
			mp4 = append(mp4, f)
		}
	}
	if len(mp4) == 0 {
		return nil, ErrNoFormats
	}

	sort.SliceStable(mp4, func(i, j int) bool {
		qi, qj := parseQualityNum(mp4[i].QualityLabel), parseQualityNum(mp4[j].QualityLabel)
		if qi != qj {
			return qi > qj
		}
		return mp4[i].Bitrate > mp4[j].Bitrate
	})

	for i := range mp4 {
		if mp4[i].ContentLength <= maxSize {
			return &mp4[i], nil
		}
	}

	smallest := &mp4[0]
	for i := range mp4 {
		if mp4[i].ContentLength < smallest.ContentLength {
			smallest = &mp4[i]
		}
	}
	return smallest, nil
}

func extractYouTubeID(text string) string {
	matches := youtubeIDRe.FindStringSubmatch(text)
	if len(matches) > 1 {
		return matches[1]
	}
	return ""
}

func parseQualityNum(quality string) int {
	var num int
	fmt.Sscanf(quality, "%dp", &num)
	return num
}
