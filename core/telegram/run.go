// Package telegram wires the telebot runtime: poller, HTTP client, global
// middleware, command registry and routes.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/buttonbot/core/config"
	"github.com/m3rciful/buttonbot/core/logger"
	tghelpers "github.com/m3rciful/buttonbot/core/telegram/helpers"
	tgsender "github.com/m3rciful/buttonbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// Middleware describes a global bot middleware to be registered via bot.Use.
type Middleware struct {
	Name string
	Use  tele.MiddlewareFunc
}

// Route declares a single bot handler bound to an arbitrary endpoint.
// Endpoint values are passed directly to tele.Bot.Handle.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls the behaviour of RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	DispatcherOptions tgsender.Options
	Dispatcher        *tgsender.Dispatcher

	Middlewares []Middleware
	Routes      []Route

	DisableWebhookCleanup bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
}

// RunTelegram builds the bot from opts and serves updates until ctx is done.
// Cancellation is a clean shutdown and yields nil.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if opts.Config == nil {
		return errors.New("telegram: nil config provided")
	}
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}

	bot, err := newBot(ctx, opts)
	if err != nil {
		return err
	}

	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = tgsender.NewDispatcher(opts.DispatcherOptions)
	}
	tghelpers.SetDispatcher(dispatcher)
	defer func() {
		dispatcher.Close()
		tghelpers.SetDispatcher(nil)
	}()

	wire(bot, opts)
	rt := Runtime{Bot: bot, Dispatcher: dispatcher, Registry: opts.Registry}
	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	runErr := serve(ctx, bot)
	logger.TG.Info("tg.stopped", slog.String("status", "ok"))

	if opts.OnStop != nil {
		if err := opts.OnStop(context.WithoutCancel(ctx), rt); err != nil {
			return err
		}
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func newBot(ctx context.Context, opts RunOptions) (*tele.Bot, error) {
	cfg := opts.Config
	poller := BuildPoller(cfg)
	started := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:   cfg.Telegram.Token,
		Poller:  poller,
		Client:  BuildHTTPClient(time.Duration(longPollTimeout(cfg)) * time.Second),
		OnError: onError,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	logMode(ctx, bot, poller, cfg, time.Since(started), opts.DisableWebhookCleanup)
	return bot, nil
}

// wire installs global middleware first so it wraps every route.
func wire(bot *tele.Bot, opts RunOptions) {
	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, r := range opts.Routes {
		if r.Endpoint != nil && r.Handler != nil {
			bot.Handle(r.Endpoint, r.Handler)
		}
	}
	InitBotCommands(bot, opts.Registry)
}

// serve blocks in bot.Start until ctx ends or the poller gives up.
func serve(ctx context.Context, bot *tele.Bot) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		bot.Start()
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		bot.Stop()
		<-done
		return ctx.Err()
	}
}

// onError receives errors returned by handlers. They are logged and never stop the poller.
func onError(err error, c tele.Context) {
	ctx := context.Background()
	if c != nil {
		ctx = tghelpers.BuildContext(c)
	}
	logger.Error(ctx, "tg", "tg.handler_error",
		slog.String("status", "fail"),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)
}

func logMode(ctx context.Context, bot *tele.Bot, poller tele.Poller, cfg *coreconfig.Config, took time.Duration, skipCleanup bool) {
	if p, ok := poller.(*tele.Webhook); ok {
		logger.TG.LogAttrs(ctx, slog.LevelInfo, "tg.mode",
			slog.String("mode", coreconfig.RunModeWebhook),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
			slog.Duration("duration", logger.RoundMS(took)),
		)
		return
	}
	logger.TG.LogAttrs(ctx, slog.LevelInfo, "tg.mode",
		slog.String("mode", coreconfig.RunModeLongpoll),
		slog.Int("timeout_seconds", longPollTimeout(cfg)),
		slog.Duration("duration", logger.RoundMS(took)),
	)
	if skipCleanup {
		return
	}
	// a webhook left over from an earlier deployment blocks getUpdates.
	if err := bot.RemoveWebhook(false); err != nil {
		logger.TG.LogAttrs(ctx, slog.LevelWarn, "tg.delete_webhook",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.TG.LogAttrs(ctx, slog.LevelDebug, "tg.delete_webhook", slog.String("status", "ok"))
}
