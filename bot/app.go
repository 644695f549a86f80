// Package bot composes the button bot: session store, conversation
// dispatcher, audit trail, health endpoint and the stats job.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/buttonbot/bot/audit"
	"github.com/m3rciful/buttonbot/bot/conversation"
	"github.com/m3rciful/buttonbot/core/bootstrap"
	coreconfig "github.com/m3rciful/buttonbot/core/config"
	"github.com/m3rciful/buttonbot/core/health"
	"github.com/m3rciful/buttonbot/core/logger"
	coretelegram "github.com/m3rciful/buttonbot/core/telegram"
	"github.com/m3rciful/buttonbot/core/telegram/router"
	tgsender "github.com/m3rciful/buttonbot/core/telegram/sender"
	"github.com/m3rciful/buttonbot/core/telegram/state"
)

const shutdownTimeout = 5 * time.Second

// App holds the wired components of one bot process.
type App struct {
	cfg      *coreconfig.Config
	infra    *bootstrap.Result
	registry *coretelegram.Registry
	conv     *conversation.Dispatcher
	sender   *tgsender.Dispatcher

	health    *health.Server
	scheduler *gocron.Scheduler
}

// New bootstraps infrastructure and builds the dispatcher and command registry.
func New(ctx context.Context, cfg *coreconfig.Config) (*App, error) {
	infra, err := bootstrap.Run(ctx, bootstrap.Options{Config: cfg})
	if err != nil {
		return nil, err
	}
	app, err := newApp(cfg, infra)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	return app, nil
}

func newApp(cfg *coreconfig.Config, infra *bootstrap.Result) (*App, error) {
	var recorder audit.Recorder = audit.Nop{}
	if infra != nil && infra.DB != nil {
		recorder = audit.NewPostgresRecorder(infra.DB)
	}

	ttl := time.Duration(cfg.Session.TTLMinutes) * time.Minute
	reg := coretelegram.NewRegistry()
	conv, err := conversation.New(conversation.Options{
		AdminID:      cfg.Telegram.AdminID,
		Greeting:     cfg.Bot.Greeting,
		ContactLabel: cfg.Bot.ContactLabel,
		ContactURL:   cfg.Bot.ContactURL,
		Sessions:     state.NewStore(ttl),
		Audit:        recorder,
		Commands:     func() []tele.Command { return reg.ListCommands(true) },
	})
	if err != nil {
		return nil, err
	}

	app := &App{
		cfg:      cfg,
		infra:    infra,
		registry: reg,
		conv:     conv,
		sender:   tgsender.NewDispatcher(tgsender.Options{MaxRetries: 2}),
	}
	app.registerCommands()
	return app, nil
}

func (a *App) registerCommands() {
	a.registry.RegisterCommand("/start", coretelegram.Command{
		Handler:     a.conv.Start,
		Description: "Show the greeting",
	})
	a.registry.RegisterCommand("/request", coretelegram.Command{
		Handler:     a.conv.Request,
		Description: "Send a request",
	})
	a.registry.RegisterCommand("/help", coretelegram.Command{
		Handler:     a.conv.Help,
		Description: "List commands",
	})
	a.registry.RegisterCommand("/addbutton", coretelegram.Command{
		Handler:     a.conv.AddButton,
		Description: "Create a custom button",
		AdminOnly:   true,
	})
	a.registry.RegisterCommand("/cancel", coretelegram.Command{
		Handler:     a.conv.Cancel,
		Description: "Abandon button creation",
		AdminOnly:   true,
	})
}

// Sessions reports the number of open conversations.
func (a *App) Sessions() int {
	return a.conv.Sessions().Len()
}

// SendFailures reports outbound messages dropped after retries.
func (a *App) SendFailures() uint64 {
	return a.sender.Failures()
}

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID:       a.cfg.Telegram.AdminID,
		OnAdminReject: a.conv.Deny,
	})
	routes = append(routes,
		router.TextRoute(a.conv.OnText),
		router.CallbackRoute(a.conv.OnCallback),
	)

	return coretelegram.RunOptions{
		Config:      a.cfg,
		Registry:    a.registry,
		Dispatcher:  a.sender,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg, nil),
		Routes:      routes,
		OnStart:     a.start,
		OnStop:      a.stop,
	}, nil
}

func (a *App) start(ctx context.Context, _ coretelegram.Runtime) error {
	if addr := a.cfg.Health.Listen; addr != "" {
		a.health = health.New(addr, a)
		a.health.Start()
	}
	scheduler, err := a.scheduleStats(ctx)
	if err != nil {
		return err
	}
	a.scheduler = scheduler
	return nil
}

func (a *App) stop(ctx context.Context, _ coretelegram.Runtime) error {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	var errs []error
	if a.health != nil {
		sctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		errs = append(errs, a.health.Shutdown(sctx))
		cancel()
	}
	errs = append(errs, a.infra.Close())
	err := errors.Join(errs...)
	if err != nil {
		logger.Warn(ctx, "app", "app.stop",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
	return err
}
