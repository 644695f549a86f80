// Package cmd drives process startup: configuration, bootstrap, signal
// handling and the Telegram runtime.
package cmd

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	coreconfig "github.com/m3rciful/buttonbot/core/config"
	"github.com/m3rciful/buttonbot/core/logger"
	coretelegram "github.com/m3rciful/buttonbot/core/telegram"
)

// TelegramApp is the minimal interface required to run a Telegram bot.
type TelegramApp interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
}

// Options describe how to load configuration, bootstrap the app, and run the bot.
type Options struct {
	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (*coreconfig.Config, error)
	Bootstrap  func(ctx context.Context, cfg *coreconfig.Config) (TelegramApp, error)

	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
}

// Run loads the configuration, bootstraps the app and serves Telegram updates
// until SIGINT or SIGTERM. The returned error describes a startup or runtime failure.
func Run(opts Options) error {
	if opts.Bootstrap == nil {
		return errors.New("cmd: Bootstrap is required")
	}
	load, run, shutdownLogger := opts.LoadConfig, opts.RunTelegram, opts.ShutdownLogger
	if load == nil {
		load = coreconfig.Load
	}
	if run == nil {
		run = coretelegram.RunTelegram
	}
	if shutdownLogger == nil {
		shutdownLogger = logger.Shutdown
	}

	path := configPath(opts)
	log.Printf("loading config: %q", path)
	cfg, err := load(path)
	if err != nil {
		return fmt.Errorf("cmd: failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() {
		if err := shutdownLogger(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	begun := time.Now()
	app, err := opts.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap failed: %w", err)
	}
	runOpts, err := app.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: telegram options build failed: %w", err)
	}
	return run(ctx, withLifecycleLogs(runOpts, begun))
}

// configPath prefers the env override and falls back to the default path.
func configPath(opts Options) string {
	env := cmp.Or(opts.ConfigEnvVar, "CONFIG_PATH")
	return cmp.Or(os.Getenv(env), opts.DefaultConfigPath)
}

// withLifecycleLogs logs "ready" after the app's own OnStart succeeds and
// "shutdown" before its OnStop runs.
func withLifecycleLogs(ro coretelegram.RunOptions, begun time.Time) coretelegram.RunOptions {
	onStart, onStop := ro.OnStart, ro.OnStop
	ro.OnStart = func(ctx context.Context, rt coretelegram.Runtime) error {
		if onStart != nil {
			if err := onStart(ctx, rt); err != nil {
				return err
			}
		}
		logger.Info(ctx, "app", "ready",
			slog.String("status", "ok"),
			slog.Duration("startup_duration", logger.RoundMS(time.Since(begun))),
		)
		return nil
	}
	ro.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		logger.Info(ctx, "app", "shutdown")
		if onStop == nil {
			return nil
		}
		return onStop(ctx, rt)
	}
	return ro
}
