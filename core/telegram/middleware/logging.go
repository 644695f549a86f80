package middleware

import (
	"context"
	"log/slog"

	"github.com/m3rciful/buttonbot/core/logger"
	"github.com/m3rciful/buttonbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/buttonbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// LoggerMiddleware assigns the request id, stores the logging context and
// logs one sampled receipt line per update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		var chatID, userID int64
		chat, user := c.Chat(), c.Sender()
		if chat != nil {
			chatID = chat.ID
		}
		if user != nil {
			userID = user.ID
		}
		rid := logger.BuildRID(upd.ID, chatID, userID)
		c.Set("rid", rid)

		ctx := logger.WithRID(logger.WithUpdateMeta(context.Background(), upd.ID, userID, chatID), rid)
		ctx = logger.WithLogger(ctx, logger.Component("tg"))
		tghelpers.StoreContext(c, ctx)

		if logger.ShouldSampleDebug() {
			attrs := []slog.Attr{slog.String("status", "ok")}
			if chat != nil {
				attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
			}
			if user != nil {
				attrs = append(attrs,
					slog.String("username", logger.SanitizeLimit(user.Username, 64)),
					slog.String("lang", user.LanguageCode),
				)
			}
			switch {
			case upd.Callback != nil:
				attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(callbacks.Data(c), 128)))
			case upd.Message != nil:
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(c.Text(), 256)))
			}
			logger.LogEvent(ctx, nil, slog.LevelDebug, "update.received", attrs...)
		}

		return next(c)
	}
}
