package handler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/artur/clipdrop/internal/bot"
	"github.com/artur/clipdrop/internal/downloader"
	"github.com/artur/clipdrop/internal/logging"
	"github.com/artur/clipdrop/internal/metrics"
	"github.com/artur/clipdrop/internal/platform"
)

const maxErrorLength = 200

const (
	textInvalidURL  = "Send a valid URL starting with http"
	textUnsupported = "Unsupported platform"
)

// LinkHandler takes any non-command text, downloads the linked video and
// sends it back to the chat.
type LinkHandler struct {
	store   Store
	fetcher Fetcher
	maxSize int64
	log     zerolog.Logger
}

func NewLinkHandler(store Store, fetcher Fetcher, maxSize int64) *LinkHandler {
	return &LinkHandler{
		store:   store,
		fetcher: fetcher,
		maxSize: maxSize,
		log:     logging.Component("link"),
	}
}

func (h *LinkHandler) CanHandle(update tgbotapi.Update) bool {
	return update.Message != nil && update.Message.Text != "" && !update.Message.IsCommand()
}

// request is the state of one link being processed.
type request struct {
	sender     bot.Sender
	chatID     int64
	replyTo    int
	progressID int
	user       *tgbotapi.User
	label      platform.Label
	url        string
	log        zerolog.Logger
}

func (h *LinkHandler) Handle(ctx context.Context, sender bot.Sender, update tgbotapi.Update) {
	msg := update.Message
	if msg.From == nil || msg.Chat == nil {
		return
	}

	text := strings.TrimSpace(msg.Text)
	chatID := msg.Chat.ID

	if !platform.IsURL(text) {
		metrics.RequestsTotal.WithLabelValues("", metrics.OutcomeRejected).Inc()
		reply(sender, chatID, textInvalidURL, h.log)
		return
	}

	label, ok := platform.Detect(text)
	if !ok {
		metrics.RequestsTotal.WithLabelValues("", metrics.OutcomeUnsupported).Inc()
		h.log.Debug().Str("url", text).Msg("unsupported platform")
		reply(sender, chatID, textUnsupported, h.log)
		return
	}

	req := &request{
		sender:  sender,
		chatID:  chatID,
		replyTo: msg.MessageID,
		user:    msg.From,
		label:   label,
		url:     text,
		log: h.log.With().
			Int64("user_id", msg.From.ID).
			Str("platform", string(label)).
			Str("url", text).
			Logger(),
	}

	metrics.InFlight.Inc()
	defer metrics.InFlight.Dec()

	h.process(ctx, req)
}

func (h *LinkHandler) process(ctx context.Context, req *request) {
	progress := tgbotapi.NewMessage(req.chatID, fmt.Sprintf("Downloading from %s...", req.label))
	progress.ReplyToMessageID = req.replyTo
	if sent, err := req.sender.Send(progress); err != nil {
		req.log.Warn().Err(err).Msg("failed to send progress message")
	} else {
		req.progressID = sent.MessageID
	}

	if err := h.store.RegisterUser(ctx, req.user.ID, req.user.UserName, req.user.FirstName); err != nil {
		req.log.Error().Err(err).Msg("failed to register user")
	}

	req.log.Info().Msg("fetching video")
	start := time.Now()
	info, err := h.fetcher.Fetch(ctx, req.label, req.url)
	metrics.FetchDuration.WithLabelValues(string(req.label)).Observe(time.Since(start).Seconds())
	if err != nil {
		h.fail(ctx, req, err, metrics.OutcomeFetchFailed)
		return
	}
	defer func() {
		if err := info.Cleanup(); err != nil {
			req.log.Warn().Err(err).Str("path", info.FilePath).Msg("failed to remove downloaded file")
		}
	}()

	stat, err := os.Stat(info.FilePath)
	if err != nil {
		h.fail(ctx, req, &downloader.FetchError{URL: req.url, Err: err}, metrics.OutcomeFetchFailed)
		return
	}

	// size rejects are not recorded as download attempts
	if stat.Size() > h.maxSize {
		req.log.Info().Int64("size", stat.Size()).Msg("file exceeds size limit")
		metrics.RequestsTotal.WithLabelValues(string(req.label), metrics.OutcomeTooLarge).Inc()
		h.updateProgress(req, fmt.Sprintf("File too big (max %s)", humanize.IBytes(uint64(h.maxSize))))
		return
	}

	if _, err := req.sender.Request(tgbotapi.NewChatAction(req.chatID, tgbotapi.ChatUploadVideo)); err != nil {
		req.log.Debug().Err(err).Msg("failed to send chat action")
	}

	video := tgbotapi.NewVideo(req.chatID, tgbotapi.FilePath(info.FilePath))
	video.Caption = formatCaption(info)
	video.Duration = info.Duration
	video.SupportsStreaming = true
	video.ReplyToMessageID = req.replyTo
	if _, err := req.sender.Send(video); err != nil {
		h.fail(ctx, req, err, metrics.OutcomeDeliveryFail)
		return
	}

	if err := h.store.RecordDownload(ctx, req.user.ID, string(req.label), req.url, true); err != nil {
		req.log.Error().Err(err).Msg("failed to record download")
	}

	if req.progressID != 0 {
		if _, err := req.sender.Request(tgbotapi.NewDeleteMessage(req.chatID, req.progressID)); err != nil {
			req.log.Warn().Err(err).Msg("failed to delete progress message")
		}
	}

	metrics.RequestsTotal.WithLabelValues(string(req.label), metrics.OutcomeSuccess).Inc()
	metrics.DeliveredBytes.WithLabelValues(string(req.label)).Add(float64(stat.Size()))
	req.log.Info().
		Str("title", info.Title).
		Str("size", humanize.IBytes(uint64(stat.Size()))).
		Msg("video delivered")
}

// fail reports err to the user and records an unsuccessful attempt.
func (h *LinkHandler) fail(ctx context.Context, req *request, err error, outcome string) {
	req.log.Error().Err(err).Str("outcome", outcome).Msg("download failed")
	metrics.RequestsTotal.WithLabelValues(string(req.label), outcome).Inc()

	h.updateProgress(req, formatError(err))

	if err := h.store.RecordDownload(ctx, req.user.ID, string(req.label), req.url, false); err != nil {
		req.log.Error().Err(err).Msg("failed to record failed download")
	}
}

// updateProgress replaces the progress text, or sends a fresh message if the
// progress message never went out.
func (h *LinkHandler) updateProgress(req *request, text string) {
	if req.progressID == 0 {
		reply(req.sender, req.chatID, text, req.log)
		return
	}

	edit := tgbotapi.NewEditMessageText(req.chatID, req.progressID, text)
	if _, err := req.sender.Send(edit); err != nil {
		req.log.Warn().Err(err).Msg("failed to edit progress message")
	}
}

func formatCaption(info *downloader.VideoInfo) string {
	return fmt.Sprintf("%s\nBy: %s\nNo watermark!", info.Title, info.Uploader)
}

func formatError(err error) string {
	text := err.Error()
	var fetchErr *downloader.FetchError
	if errors.As(err, &fetchErr) && fetchErr.Err != nil {
		text = fetchErr.Err.Error()
	}

	if runes := []rune(text); len(runes) > maxErrorLength {
		text = string(runes[:maxErrorLength])
	}
	return fmt.Sprintf("Error: %s\nCheck if video is public!", text)
}
