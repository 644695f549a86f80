package router

import (
	"log/slog"

	"github.com/m3rciful/buttonbot/core/logger"
	tg "github.com/m3rciful/buttonbot/core/telegram"
	"github.com/m3rciful/buttonbot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute answers every callback query to clear the client spinner, then calls handler.
func CallbackRoute(handler tele.HandlerFunc) tg.Route {
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler: func(c tele.Context) error {
			if c.Callback() == nil {
				return nil
			}
			_ = c.Respond()
			key := callbacks.Data(c)
			return handleWithSummary(c, "callback", handler,
				slog.String("cb_key", logger.SanitizeLimit(key, 128)),
			)
		},
	}
}
