package bot

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/artur/clipdrop/internal/logging"
	"github.com/artur/clipdrop/internal/metrics"
)

// Sender is the part of the Telegram API the handlers talk to.
// *tgbotapi.BotAPI implements it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// API is what the listener needs on top of Sender.
type API interface {
	Sender
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Handler interface {
	CanHandle(update tgbotapi.Update) bool
	Handle(ctx context.Context, sender Sender, update tgbotapi.Update)
}

type Bot struct {
	api      API
	username string
	adminID  int64
	handlers []Handler
	inFlight sync.WaitGroup
	log      zerolog.Logger
}

// New authorizes against Telegram with token.
func New(token string, adminID int64) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api: %w", err)
	}

	b := NewWithAPI(api, adminID)
	b.username = api.Self.UserName
	b.log.Info().Str("account", api.Self.UserName).Msg("authorized")
	return b, nil
}

// NewWithAPI builds a Bot over an existing API client.
func NewWithAPI(api API, adminID int64) *Bot {
	return &Bot{
		api:      api,
		adminID:  adminID,
		handlers: make([]Handler, 0),
		log:      logging.Component("bot"),
	}
}

// RegisterHandler appends h; the first handler whose CanHandle matches wins.
func (b *Bot) RegisterHandler(h Handler) {
	b.handlers = append(b.handlers, h)
	b.log.Debug().Str("handler", fmt.Sprintf("%T", h)).Msg("registered handler")
}

func (b *Bot) String() string {
	return "telegram-listener"
}

// Serve receives updates until ctx is cancelled. Each matched update runs in
// its own goroutine so a slow download never blocks the receive loop.
func (b *Bot) Serve(ctx context.Context) error {
	b.log.Info().Int("handlers", len(b.handlers)).Msg("starting bot")

	// skip whatever queued up while the bot was offline
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
		b.log.Warn().Err(err).Msg("failed to drop pending updates")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info().Msg("bot stopped receiving updates")
			return nil
		case update, ok := <-updates:
			if !ok {
				return errors.New("updates channel closed")
			}
			b.Dispatch(ctx, update)
		}
	}
}

// Dispatch hands update to the first matching handler and reports whether one matched.
func (b *Bot) Dispatch(ctx context.Context, update tgbotapi.Update) bool {
	switch {
	case update.Message != nil:
		metrics.UpdatesTotal.WithLabelValues("message").Inc()
		b.log.Debug().
			Int64("chat_id", chatID(update)).
			Str("from", userName(update.Message.From)).
			Str("text", update.Message.Text).
			Msg("message received")
	case update.CallbackQuery != nil:
		metrics.UpdatesTotal.WithLabelValues("callback").Inc()
		b.log.Debug().
			Str("from", userName(update.CallbackQuery.From)).
			Str("data", update.CallbackQuery.Data).
			Msg("callback received")
	default:
		metrics.UpdatesTotal.WithLabelValues("other").Inc()
		return false
	}

	for _, handler := range b.handlers {
		if !handler.CanHandle(update) {
			continue
		}

		// requests are not cancellable once started, even on shutdown
		hctx := context.WithoutCancel(ctx)
		b.inFlight.Add(1)
		go b.run(hctx, handler, update)
		return true
	}

	b.log.Debug().Msg("no handler found for update")
	return false
}

func (b *Bot) run(ctx context.Context, h Handler, update tgbotapi.Update) {
	defer b.inFlight.Done()
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Str("handler", fmt.Sprintf("%T", h)).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("handler panicked")
		}
	}()

	h.Handle(ctx, b.api, update)
}

// Wait blocks until in-flight handlers finish or timeout elapses.
func (b *Bot) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		b.inFlight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// SendStartupNotification tells the admin chat that the bot is up. No-op when adminID is 0.
func (b *Bot) SendStartupNotification() {
	if b.adminID == 0 {
		return
	}

	text := "✅ Bot started"
	if b.username != "" {
		text += " as @" + b.username
	}

	if _, err := b.api.Send(tgbotapi.NewMessage(b.adminID, text)); err != nil {
		b.log.Warn().Err(err).Int64("admin_id", b.adminID).Msg("failed to send startup notification")
	}
}

func chatID(update tgbotapi.Update) int64 {
	if update.Message != nil && update.Message.Chat != nil {
		return update.Message.Chat.ID
	}
	return 0
}

func userName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	if u.UserName != "" {
		return "@" + u.UserName
	}
	return u.FirstName
}
