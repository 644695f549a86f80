package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	metaKey
)

// updateMeta is what the handler needs to correlate a record with a Telegram update.
type updateMeta struct {
	rid      string
	handler  string
	updateID int
	userID   int64
	chatID   int64
}

func metaFrom(ctx context.Context) updateMeta {
	if ctx == nil {
		return updateMeta{}
	}
	m, _ := ctx.Value(metaKey).(updateMeta)
	return m
}

func withMeta(ctx context.Context, edit func(*updateMeta)) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	m := metaFrom(ctx)
	edit(&m)
	return context.WithValue(ctx, metaKey, m)
}

// WithLogger returns ctx carrying log. A nil logger leaves ctx untouched.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey, log)
}

// FromContext returns the logger stored by WithLogger, or L.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
			return l
		}
	}
	return L
}

// WithRID sets the request id reported on every record logged with ctx.
func WithRID(ctx context.Context, rid string) context.Context {
	return withMeta(ctx, func(m *updateMeta) { m.rid = rid })
}

func RIDFrom(ctx context.Context) string { return metaFrom(ctx).rid }

// WithUpdateMeta records the update, user and chat ids.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	return withMeta(ctx, func(m *updateMeta) {
		m.updateID, m.userID, m.chatID = updateID, userID, chatID
	})
}

// WithHandler names the handler serving the update. Empty names are ignored.
func WithHandler(ctx context.Context, handler string) context.Context {
	if handler == "" {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	return withMeta(ctx, func(m *updateMeta) { m.handler = handler })
}

func HandlerFrom(ctx context.Context) string { return metaFrom(ctx).handler }
func UserIDFrom(ctx context.Context) int64   { return metaFrom(ctx).userID }
func ChatIDFrom(ctx context.Context) int64   { return metaFrom(ctx).chatID }
func UpdateIDFrom(ctx context.Context) int   { return metaFrom(ctx).updateID }

// SanitizeLimit keeps at most n runes of s after removing control and
// format characters. Tabs and newlines survive.
func SanitizeLimit(s string, n int) string {
	if n <= 0 || s == "" {
		return ""
	}
	out := make([]rune, 0, min(len(s), n))
	for _, r := range s {
		if len(out) == n {
			break
		}
		if r != '\n' && r != '\t' && (unicode.IsControl(r) || unicode.Is(unicode.Cf, r)) {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

// BuildRID joins the update, chat and user ids as "update:chat:user".
func BuildRID(updateID int, chatID, userID int64) string {
	return fmt.Sprintf("%d:%d:%d", updateID, chatID, userID)
}

// CompactRID rewrites each numeric segment of a BuildRID value in base36,
// dot separated. Anything else comes back as is.
func CompactRID(rid string) string {
	rid = strings.TrimSpace(rid)
	segs := strings.Split(rid, ":")
	if len(segs) != 3 {
		return rid
	}
	for i, seg := range segs {
		n, err := strconv.ParseInt(seg, 10, 64)
		if err != nil {
			return rid
		}
		segs[i] = strconv.FormatInt(n, 36)
	}
	return strings.Join(segs, ".")
}
