// Package callbacks reads inline button callback data.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Split parses Telebot's \f<unique>|<payload> encoding. Data without the
// leading form feed is returned whole as payload with an empty unique.
func Split(data string) (unique, payload string) {
	raw, ok := strings.CutPrefix(data, "\f")
	if !ok {
		return "", data
	}
	unique, payload, _ = strings.Cut(raw, "|")
	return strings.TrimSpace(unique), payload
}

// Data returns the button tag carried by the callback. Raw tags are returned
// as-is, while Telebot-encoded ones yield their unique key followed by
// "_" and the payload when present.
func Data(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		if cb.Data == "" {
			return cb.Unique
		}
		return cb.Unique + "_" + cb.Data
	}
	unique, payload := Split(cb.Data)
	switch {
	case unique == "":
		return payload
	case payload == "":
		return unique
	}
	return unique + "_" + payload
}
