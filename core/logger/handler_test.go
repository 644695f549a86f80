package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func renderOne(t *testing.T, format logFormat, ctx context.Context, component string, level slog.Level, event string, attrs ...slog.Attr) string {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	handler := newStructuredHandler(handlerConfig{
		level:    slog.LevelDebug,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	})
	LogEvent(ctx, slog.New(handler).With("component", component), level, event, attrs...)
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return strings.TrimSpace(buf.String())
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	line := renderOne(t, formatKV, ctx, "conversation", slog.LevelInfo, "step.changed",
		slog.String("status", "OK"),
		slog.String("from_step", "idle"),
	)
	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=conversation", "event=step.changed", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9", "from_step=idle"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), line)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	ctx := WithRID(context.Background(), "12:34:56")
	ctx = WithHandler(ctx, "addbutton")

	line := renderOne(t, formatJSON, ctx, "tg", slog.LevelError, "handler.handled",
		slog.String("status", "fail"),
		slog.String("err", "boom"),
		slog.Duration("duration", 1500*time.Microsecond),
	)
	if !strings.HasPrefix(line, "{") {
		t.Fatalf("expected JSON, got %s", line)
	}
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"tg"`, `"event":"handler.handled"`, `"status":"fail"`, `"rid":"` + CompactRID("12:34:56") + `"`, `"rid_full":"12:34:56"`, `"handler":"addbutton"`, `"duration_ms":2`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestStructuredHandlerDropsUnknownOutcome(t *testing.T) {
	line := renderOne(t, formatKV, context.Background(), "", slog.LevelInfo, "x",
		slog.String("outcome", "exploded"),
		slog.String("cb_key", ""),
	)
	if strings.Contains(line, "outcome=") || strings.Contains(line, "cb_key=") {
		t.Fatalf("expected outcome and empty cb_key to be dropped, got %s", line)
	}
	if !strings.Contains(line, "component=app") {
		t.Fatalf("expected default component, got %s", line)
	}
}

func TestStructuredHandlerQuotesValues(t *testing.T) {
	line := renderOne(t, formatKV, context.Background(), "conversation", slog.LevelInfo, "button.created",
		slog.String("button", "Foo Bar"),
		slog.Any("options", []string{"A", "B"}),
	)
	if !strings.Contains(line, `button="Foo Bar"`) {
		t.Fatalf("expected quoted button, got %s", line)
	}
	if !strings.Contains(line, "options=A,B") {
		t.Fatalf("expected joined options, got %s", line)
	}
}

func TestCompactRID(t *testing.T) {
	if got := CompactRID("35:36:71"); got != "z.10.1z" {
		t.Fatalf("CompactRID = %s", got)
	}
	if got := CompactRID("not-a-rid"); got != "not-a-rid" {
		t.Fatalf("CompactRID should leave foreign ids alone, got %s", got)
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	got := []bool{s.Allow(), s.Allow(), s.Allow(), s.Allow()}
	want := []bool{true, false, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Allow #%d = %v, want %v", i, got[i], want[i])
		}
	}

	if n, d := parseRatioSpec("2/5"); n != 2 || d != 5 {
		t.Fatalf("parseRatioSpec(2/5) = %d/%d", n, d)
	}
	if n, d := parseRatioSpec("10"); n != 1 || d != 10 {
		t.Fatalf("parseRatioSpec(10) = %d/%d", n, d)
	}
	if n, d := parseRatioSpec("off"); n != 0 || d != 0 {
		t.Fatalf("parseRatioSpec(off) = %d/%d", n, d)
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("a\x00b\u200bc", 10); got != "abc" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
	if got := SanitizeLimit("héllo", 2); got != "hé" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
}
