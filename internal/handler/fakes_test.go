package handler

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/artur/clipdrop/internal/database/repository"
	"github.com/artur/clipdrop/internal/downloader"
	"github.com/artur/clipdrop/internal/platform"
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	// failOn returns a non-nil error to make Send fail for c
	failOn func(c tgbotapi.Chattable) error
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != nil {
		if err := s.failOn(c); err != nil {
			return tgbotapi.Message{}, err
		}
	}
	s.sent = append(s.sent, c)
	return tgbotapi.Message{MessageID: len(s.sent)}, nil
}

func (s *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (s *fakeSender) messages() []tgbotapi.MessageConfig {
	var out []tgbotapi.MessageConfig
	for _, c := range s.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (s *fakeSender) edits() []tgbotapi.EditMessageTextConfig {
	var out []tgbotapi.EditMessageTextConfig
	for _, c := range s.sent {
		if m, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (s *fakeSender) videos() []tgbotapi.VideoConfig {
	var out []tgbotapi.VideoConfig
	for _, c := range s.sent {
		if m, ok := c.(tgbotapi.VideoConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

type downloadRecord struct {
	userID   int64
	platform string
	url      string
	success  bool
}

type fakeStore struct {
	mu         sync.Mutex
	registered []int64
	records    []downloadRecord
	stats      *repository.Stats
	statsErr   error
}

func (s *fakeStore) RegisterUser(_ context.Context, userID int64, _, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registered = append(s.registered, userID)
	return nil
}

func (s *fakeStore) RecordDownload(_ context.Context, userID int64, platform, url string, success bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, downloadRecord{userID, platform, url, success})
	return nil
}

func (s *fakeStore) AggregateStats(context.Context) (*repository.Stats, error) {
	if s.statsErr != nil {
		return nil, s.statsErr
	}
	return s.stats, nil
}

// fakeFetcher writes a sparse file of the given size so large sizes stay cheap.
type fakeFetcher struct {
	t        *testing.T
	dir      string
	size     int64
	title    string
	uploader string
	err      error

	calls    int
	lastPath string
}

func newFakeFetcher(t *testing.T, size int64) *fakeFetcher {
	return &fakeFetcher{
		t:        t,
		dir:      t.TempDir(),
		size:     size,
		title:    "Funny cat",
		uploader: "catlover",
	}
}

func (f *fakeFetcher) Fetch(_ context.Context, _ platform.Label, _ string) (*downloader.VideoInfo, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	path := filepath.Join(f.dir, f.title+".mp4")
	file, err := os.Create(path)
	if err != nil {
		f.t.Fatalf("create fake video: %v", err)
	}
	if err := file.Truncate(f.size); err != nil {
		f.t.Fatalf("truncate fake video: %v", err)
	}
	file.Close()

	f.lastPath = path
	return &downloader.VideoInfo{
		FilePath: path,
		Title:    f.title,
		Uploader: f.uploader,
		Duration: 12,
	}, nil
}

func textMessage(text string) tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			MessageID: 10,
			Text:      text,
			Chat:      &tgbotapi.Chat{ID: 42},
			From:      &tgbotapi.User{ID: 7, UserName: "ann", FirstName: "Ann"},
		},
	}
}

func commandMessage(command string) tgbotapi.Update {
	update := textMessage("/" + command)
	update.Message.Entities = []tgbotapi.MessageEntity{
		{Type: "bot_command", Offset: 0, Length: len(command) + 1},
	}
	return update
}

func callbackUpdate(data string) tgbotapi.Update {
	return tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb-1",
			Data: data,
			From: &tgbotapi.User{ID: 7},
			Message: &tgbotapi.Message{
				MessageID: 3,
				Chat:      &tgbotapi.Chat{ID: 99},
			},
		},
	}
}
