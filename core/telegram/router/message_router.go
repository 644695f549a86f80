package router

import (
	tg "github.com/m3rciful/buttonbot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// TextRoute sends every non-command text message to handler.
func TextRoute(handler tele.HandlerFunc) tg.Route {
	return tg.Route{
		Endpoint: tele.OnText,
		Handler: func(c tele.Context) error {
			return handleWithSummary(c, "text", handler)
		},
	}
}
