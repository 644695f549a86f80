package logger

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

type handlerConfig struct {
	level    slog.Leveler
	writer   *asyncWriter
	format   logFormat
	keyOrder []string
}

// structuredHandler writes one flat line per record. Groups become dotted
// keys and durations become *_ms integers.
type structuredHandler struct {
	cfg    handlerConfig
	attrs  []slog.Attr
	groups []string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if cfg.keyOrder == nil {
		cfg.keyOrder = slices.Clone(defaultKeyOrder)
	}
	return &structuredHandler{cfg: cfg}
}

func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return errors.New("logger: writer not initialized")
	}
	asJSON := h.cfg.format == formatJSON

	rec := record{}
	ts := r.Time.UTC()
	rec["ts"] = ts.Truncate(time.Millisecond).Format(timeFormatMillis)
	rec["level"] = normalizeLevel(r.Level.String())
	if asJSON {
		rec["ts_unix_nano"] = ts.UnixNano()
	}

	prefix := strings.Join(h.groups, ".")
	for _, a := range h.attrs {
		rec.add(prefix, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		rec.add(prefix, a)
		return true
	})
	rec.fillFromContext(ctx)
	rec.finish(r.Message, asJSON)

	var (
		line []byte
		err  error
	)
	if asJSON {
		line, err = rec.json(h.cfg.keyOrder)
		if err != nil {
			return err
		}
	} else {
		line = rec.kv(h.cfg.keyOrder)
	}
	return h.cfg.writer.Write(append(line, '\n'))
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(slices.Clip(h.attrs), attrs...)
	return &next
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(slices.Clip(h.groups), name)
	return &next
}

// record is a flattened log line keyed by attribute name.
type record map[string]any

func (rec record) add(prefix string, attr slog.Attr) {
	key := attr.Key
	if prefix != "" {
		if key == "" {
			key = prefix
		} else {
			key = prefix + "." + key
		}
	}
	val := attr.Value.Resolve()
	if val.Kind() == slog.KindGroup {
		for _, child := range val.Group() {
			rec.add(key, child)
		}
		return
	}
	if key == "" {
		return
	}
	if k, v, ok := flatValue(key, val); ok {
		rec[k] = v
	}
}

// fillFromContext adds update metadata the record does not already carry.
func (rec record) fillFromContext(ctx context.Context) {
	m := metaFrom(ctx)
	rec.setMissing("rid", m.rid, m.rid != "")
	rec.setMissing("update_id", m.updateID, m.updateID != 0)
	rec.setMissing("user_id", m.userID, m.userID != 0)
	rec.setMissing("chat_id", m.chatID, m.chatID != 0)
	rec.setMissing("handler", m.handler, m.handler != "")
}

func (rec record) setMissing(key string, val any, present bool) {
	if !present {
		return
	}
	if _, ok := rec[key]; !ok {
		rec[key] = val
	}
}

// finish applies defaults, normalizes enum-like fields and drops empty values.
func (rec record) finish(msg string, keepFullRID bool) {
	if rid, _ := rec["rid"].(string); rid != "" {
		if short := CompactRID(rid); short != rid {
			rec["rid"] = short
			if keepFullRID {
				rec["rid_full"] = rid
			}
		}
	}
	if ev, _ := rec["event"].(string); ev == "" {
		rec["event"] = cmp.Or(msg, "unknown")
	}
	if c, _ := rec["component"].(string); c == "" {
		rec["component"] = "app"
	}
	if s, ok := rec["status"].(string); ok {
		rec["status"] = normalizeStatus(s)
	}
	if o, ok := rec["outcome"].(string); ok {
		if norm, known := normalizeOutcome(o); known {
			rec["outcome"] = norm
		} else {
			delete(rec, "outcome")
		}
	}
	for k, v := range rec {
		if s, isStr := v.(string); v == nil || (isStr && s == "") {
			delete(rec, k)
		}
	}
}

// keys returns the configured order first, then the rest alphabetically.
func (rec record) keys(order []string) []string {
	out := make([]string, 0, len(rec))
	for _, k := range order {
		if _, ok := rec[k]; ok && !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	head := len(out)
	for k := range rec {
		if !slices.Contains(out[:head], k) {
			out = append(out, k)
		}
	}
	slices.Sort(out[head:])
	return out
}

func (rec record) json(order []string) ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range rec.keys(order) {
		raw, err := json.Marshal(rec[k])
		if err != nil {
			return nil, fmt.Errorf("logger: encode %s: %w", k, err)
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		b.Write(raw)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

func (rec record) kv(order []string) []byte {
	parts := make([]string, 0, len(rec))
	for _, k := range rec.keys(order) {
		s := fmt.Sprint(rec[k])
		if strings.ContainsFunc(s, needsQuote) {
			s = strconv.Quote(s)
		}
		parts = append(parts, k+"="+s)
	}
	return []byte(strings.Join(parts, " "))
}

func needsQuote(r rune) bool {
	return r <= ' ' || r == '=' || r == '"'
}

// flatValue converts an attribute to a JSON friendly scalar. Durations are
// renamed to *_ms and rendered in whole milliseconds.
func flatValue(key string, val slog.Value) (string, any, bool) {
	switch val.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(val.String()), true
	case slog.KindBool:
		return key, val.Bool(), true
	case slog.KindInt64:
		return key, val.Int64(), true
	case slog.KindUint64:
		if u := val.Uint64(); u <= math.MaxInt64 {
			return key, int64(u), true
		}
		return key, val.Uint64(), true
	case slog.KindFloat64:
		return key, val.Float64(), true
	case slog.KindDuration:
		return msKey(key), RoundMS(val.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, val.Time().UTC().Format(time.RFC3339Nano), true
	}
	switch x := val.Any().(type) {
	case nil:
		return key, nil, false
	case error:
		return key, x.Error(), true
	case []string:
		return key, strings.Join(x, ","), true
	case fmt.Stringer:
		return key, x.String(), true
	default:
		return key, fmt.Sprint(x), true
	}
}

func msKey(key string) string {
	if key == "duration" {
		return "duration_ms"
	}
	if strings.HasSuffix(key, "_ms") {
		return key
	}
	return key + "_ms"
}
