package router

import (
	"log/slog"

	"github.com/m3rciful/buttonbot/core/logger"
	tg "github.com/m3rciful/buttonbot/core/telegram"
	"github.com/m3rciful/buttonbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes prepares command handlers wrapped with the admin gate and a summary log line.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}

	gate := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	})

	routes := make([]tg.Route, 0, len(reg.Commands()))
	for cmd, def := range reg.Commands() {
		name := "command." + normalizeHandlerName(cmd)
		h := def.Handler
		if def.AdminOnly {
			h = gate(h)
		}
		routes = append(routes, tg.Route{
			Endpoint: cmd,
			Handler: func(c tele.Context) error {
				return handleWithSummary(c, name, h)
			},
		})
	}

	logger.TWire.Info("tg.wire",
		slog.String("status", "ok"),
		slog.Int("commands", len(routes)),
	)
	return routes
}
