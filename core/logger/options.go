package logger

import (
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	coreconfig "github.com/m3rciful/buttonbot/core/config"
)

const (
	defaultSampleNum = 1
	defaultSampleDen = 50
	defaultLogFile   = "bot.log"
)

// settings is LoggingConfig resolved to concrete values.
type settings struct {
	level     slog.Level
	format    logFormat
	keyOrder  []string
	profile   string
	sampleNum int
	sampleDen int
	trace     bool
	filePath  string
}

var levelsByName = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

func resolveSettings(lc coreconfig.LoggingConfig) settings {
	set := settings{
		level:     slog.LevelInfo,
		format:    formatJSON,
		keyOrder:  append([]string(nil), defaultKeyOrder...),
		profile:   "prod",
		sampleNum: defaultSampleNum,
		sampleDen: defaultSampleDen,
		trace:     envFlag("TRACE") || envFlag("LOG_TRACE"),
	}

	if lvl, ok := levelsByName[lower(lc.Level)]; ok {
		set.level = lvl
	}
	if p := lower(lc.Profile); p != "" {
		set.profile = p
	}

	switch lower(lc.Format) {
	case "kv", "text", "pretty":
		set.format = formatKV
	case "json":
	case "":
		// local profiles read better as key=value lines
		if set.profile == "debug" || set.profile == "dev" {
			set.format = formatKV
		}
	}

	if raw := strings.TrimSpace(lc.KeysOrder); raw != "" && raw != "default" {
		var order []string
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				order = append(order, k)
			}
		}
		if len(order) > 0 {
			set.keyOrder = order
		}
	}

	switch spec := lower(lc.DebugSample); spec {
	case "":
	case "off", "0/0":
		set.sampleNum, set.sampleDen = 0, 0
	default:
		if num, den := parseRatioSpec(spec); num > 0 && den > 0 {
			set.sampleNum, set.sampleDen = num, den
		}
	}

	if dir := strings.TrimSpace(lc.Dir); dir != "" {
		file := strings.TrimSpace(lc.BotFile)
		if file == "" {
			file = defaultLogFile
		}
		set.filePath = filepath.Join(dir, file)
	}
	return set
}

// openOutputs returns stdout plus the log file when one is configured.
// File errors are reported on the standard logger and leave stdout only.
func openOutputs(set settings) ([]io.Writer, []io.Closer) {
	writers := []io.Writer{os.Stdout}
	if set.filePath == "" {
		return writers, nil
	}
	if err := os.MkdirAll(filepath.Dir(set.filePath), 0o755); err != nil {
		log.Printf("logger: failed to create log dir for %s: %v", set.filePath, err)
		return writers, nil
	}
	f, err := os.OpenFile(set.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("logger: failed to open log file %s: %v", set.filePath, err)
		return writers, nil
	}
	return append(writers, f), []io.Closer{f}
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func envFlag(name string) bool {
	switch lower(os.Getenv(name)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
