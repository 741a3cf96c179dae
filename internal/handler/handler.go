// Package handler implements the Telegram update handlers: the bot commands,
// the inline menu callbacks and the link download flow.
package handler

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/artur/clipdrop/internal/bot"
	"github.com/artur/clipdrop/internal/database/repository"
	"github.com/artur/clipdrop/internal/downloader"
	"github.com/artur/clipdrop/internal/platform"
)

// Store is the persistence the handlers write to. *repository.Store implements it.
type Store interface {
	RegisterUser(ctx context.Context, userID int64, username, firstName string) error
	RecordDownload(ctx context.Context, userID int64, platform, url string, success bool) error
	AggregateStats(ctx context.Context) (*repository.Stats, error)
}

// Fetcher downloads a video. *downloader.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, label platform.Label, url string) (*downloader.VideoInfo, error)
}

// Callback data of the inline menu buttons.
const (
	callbackStats = "stats"
	callbackHelp  = "help"
)

func isCommand(update tgbotapi.Update, name string) bool {
	return update.Message != nil && update.Message.IsCommand() && update.Message.Command() == name
}

func isCallback(update tgbotapi.Update, data string) bool {
	return update.CallbackQuery != nil && update.CallbackQuery.Data == data
}

// targetChat returns the chat a reply to update should go to.
func targetChat(update tgbotapi.Update) int64 {
	switch {
	case update.Message != nil && update.Message.Chat != nil:
		return update.Message.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil:
		return update.CallbackQuery.Message.Chat.ID
	}
	return 0
}

// answerCallback stops the client-side spinner on the pressed button.
func answerCallback(sender bot.Sender, update tgbotapi.Update, log zerolog.Logger) {
	if update.CallbackQuery == nil {
		return
	}
	if _, err := sender.Request(tgbotapi.NewCallback(update.CallbackQuery.ID, "")); err != nil {
		log.Warn().Err(err).Msg("failed to answer callback")
	}
}

func reply(sender bot.Sender, chatID int64, text string, log zerolog.Logger) (tgbotapi.Message, error) {
	msg, err := sender.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
	}
	return msg, err
}
