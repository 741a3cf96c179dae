package handler

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/artur/clipdrop/internal/bot"
	"github.com/artur/clipdrop/internal/logging"
)

// StatsHandler answers /stats and the Stats menu button with the global totals.
type StatsHandler struct {
	store Store
	log   zerolog.Logger
}

func NewStatsHandler(store Store) *StatsHandler {
	return &StatsHandler{
		store: store,
		log:   logging.Component("stats"),
	}
}

func (h *StatsHandler) CanHandle(update tgbotapi.Update) bool {
	return isCommand(update, "stats") || isCallback(update, callbackStats)
}

func (h *StatsHandler) Handle(ctx context.Context, sender bot.Sender, update tgbotapi.Update) {
	answerCallback(sender, update, h.log)

	stats, err := h.store.AggregateStats(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to aggregate stats")
		reply(sender, targetChat(update), "Stats are unavailable right now", h.log)
		return
	}

	reply(sender, targetChat(update), fmt.Sprintf("Users: %d\nDownloads: %d", stats.Users, stats.Downloads), h.log)
}
