// Package logger wires the process-wide structured logger on top of log/slog.
//
// Records are rendered by a handler that keeps a stable key order, compacts
// request ids and pulls update metadata (rid, user, chat, handler) out of the
// context. Output is fanned out asynchronously to stdout and an optional file.
package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/buttonbot/core/buildinfo"
	coreconfig "github.com/m3rciful/buttonbot/core/config"
)

var (
	initOnce   sync.Once
	shutdownMu sync.Mutex
	shutdowned bool

	logWriter  *asyncWriter
	logClosers []io.Closer

	levelVar      slog.LevelVar
	debugSampler  = newRatioSampler(defaultSampleNum, defaultSampleDen)
	traceOverride bool

	// L is the root logger; slog.Default() until InitLogger runs.
	L *slog.Logger

	// Component loggers, rebuilt whenever L changes.
	TG, TWire, DB, MIG *slog.Logger
)

func init() {
	L = slog.Default()
	wireComponents()
}

// InitLogger configures the global structured logger. Calls after the first are no-ops.
func InitLogger(cfg *coreconfig.Config) error {
	initOnce.Do(func() {
		var lc coreconfig.LoggingConfig
		if cfg != nil {
			lc = cfg.Logging
		}
		set := resolveSettings(lc)

		levelVar.Set(set.level)
		debugSampler.Set(set.sampleNum, set.sampleDen)
		traceOverride = set.trace

		outputs, closers := openOutputs(set)
		logClosers = closers
		logWriter = newAsyncWriter(outputs, 64*1024)

		L = slog.New(newStructuredHandler(handlerConfig{
			level:    &levelVar,
			writer:   logWriter,
			format:   set.format,
			keyOrder: set.keyOrder,
		}))
		slog.SetDefault(L)

		wireComponents()
		logStartup(cfg, set)
	})
	return nil
}

func wireComponents() {
	TG, TWire = Component("tg"), Component("tg.wire")
	DB, MIG = Component("db"), Component("db.migrate")
}

func logStartup(cfg *coreconfig.Config, set settings) {
	build := []slog.Attr{
		slog.String("version", buildinfo.Version),
		slog.String("commit", buildinfo.Commit),
		slog.String("built", buildinfo.Date),
		slog.String("go", runtime.Version()),
		slog.String("cfg_profile", set.profile),
	}
	if cfg != nil {
		build = append(build,
			slog.String("mode", cfg.Telegram.RunMode),
			slog.Bool("audit", cfg.Database.Enabled()),
		)
	}
	Info(context.Background(), "app", "startup", build...)
}

// Shutdown drains the async writer and closes the log file. Only the first
// call does any work.
func Shutdown() error {
	shutdownMu.Lock()
	defer shutdownMu.Unlock()
	if shutdowned {
		return nil
	}
	shutdowned = true

	var errs []error
	if logWriter != nil {
		errs = append(errs, logWriter.Flush(), logWriter.Close())
	}
	for _, c := range logClosers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// LogEvent writes one record whose message and leading "event" attribute are
// both event. A nil logg means the one carried by ctx.
func LogEvent(ctx context.Context, logg *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}
	if logg == nil {
		if logg = FromContext(ctx); logg == nil {
			return
		}
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, level, event, attrs...)
}

// Component returns L tagged with component=name, or L itself for a blank name.
func Component(name string) *slog.Logger {
	name = strings.TrimSpace(name)
	if L == nil || name == "" {
		return L
	}
	return L.With("component", name)
}

// Event is LogEvent on Component(component).
func Event(ctx context.Context, component string, level slog.Level, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), level, event, attrs...)
}

func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelDebug, event, attrs...)
}

func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelInfo, event, attrs...)
}

func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelWarn, event, attrs...)
}

func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelError, event, attrs...)
}

// ShouldSampleDebug gates per-update debug lines. TRACE=1 lets every one through.
func ShouldSampleDebug() bool {
	return traceOverride || debugSampler.Allow()
}

// Status is "fail" for a non-nil error and "ok" otherwise.
func Status(err error) string {
	if err != nil {
		return "fail"
	}
	return "ok"
}

// RoundMS rounds d to whole milliseconds; negative durations become zero.
func RoundMS(d time.Duration) time.Duration {
	return max(d, 0).Round(time.Millisecond)
}
