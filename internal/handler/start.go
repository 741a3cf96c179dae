package handler

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/artur/clipdrop/internal/bot"
	"github.com/artur/clipdrop/internal/logging"
)

type StartHandler struct {
	store Store
	log   zerolog.Logger
}

func NewStartHandler(store Store) *StartHandler {
	return &StartHandler{
		store: store,
		log:   logging.Component("start"),
	}
}

func (h *StartHandler) CanHandle(update tgbotapi.Update) bool {
	return isCommand(update, "start")
}

func (h *StartHandler) Handle(ctx context.Context, sender bot.Sender, update tgbotapi.Update) {
	from := update.Message.From
	if from == nil {
		return
	}

	userName := getUserName(from.FirstName, from.UserName)
	h.log.Info().Int64("user_id", from.ID).Str("name", userName).Msg("greeting user")

	if err := h.store.RegisterUser(ctx, from.ID, from.UserName, from.FirstName); err != nil {
		h.log.Error().Err(err).Int64("user_id", from.ID).Msg("failed to register user")
	}

	msg := tgbotapi.NewMessage(update.Message.Chat.ID, formatGreeting(userName))
	msg.ReplyMarkup = menuKeyboard()
	if _, err := sender.Send(msg); err != nil {
		h.log.Error().Err(err).Msg("failed to send greeting")
	}
}

func menuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Stats", callbackStats)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Help", callbackHelp)),
	)
}

func getUserName(firstName, userName string) string {
	if firstName != "" {
		return firstName
	}
	return userName
}

func formatGreeting(userName string) string {
	return "Welcome " + userName + "!\n\n" +
		"Send me video links from:\n" +
		"TikTok (no watermark!)\n" +
		"Instagram Reels\n" +
		"YouTube Shorts\n" +
		"Twitter/X\n" +
		"Facebook\n\n" +
		"Just paste the link!"
}
