package middleware

import (
	"log/slog"

	"github.com/m3rciful/buttonbot/core/logger"
	tghelpers "github.com/m3rciful/buttonbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions defines how admin-only checks behave.
type AdminOptions struct {
	AdminID  int64
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware lets only the admin reach downstream handlers.
// Rejections are expected traffic and are logged at INFO.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if opts.AdminID == 0 || tghelpers.SenderID(c) == opts.AdminID {
				return next(c)
			}
			logger.Info(tghelpers.BuildContext(c), "tg", "auth.denied",
				slog.String("status", "denied"),
			)
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}
