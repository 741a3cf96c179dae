package handler

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/artur/clipdrop/internal/bot"
	"github.com/artur/clipdrop/internal/logging"
)

const helpText = "How to use:\n1. Copy video link\n2. Paste here\n3. Wait for download"

// HelpHandler answers /help and the Help menu button.
type HelpHandler struct {
	log zerolog.Logger
}

func NewHelpHandler() *HelpHandler {
	return &HelpHandler{log: logging.Component("help")}
}

func (h *HelpHandler) CanHandle(update tgbotapi.Update) bool {
	return isCommand(update, "help") || isCallback(update, callbackHelp)
}

func (h *HelpHandler) Handle(_ context.Context, sender bot.Sender, update tgbotapi.Update) {
	answerCallback(sender, update, h.log)
	reply(sender, targetChat(update), helpText, h.log)
}
