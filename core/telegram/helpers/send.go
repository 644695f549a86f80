package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/buttonbot/core/logger"
	"github.com/m3rciful/buttonbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
// A nil dispatcher makes every send synchronous.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := globalDispatcher.Load()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	err := disp.EnqueueKeyed(ctx, orderKey(c), action, endpoint, run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}

// orderKey keeps sends to one chat on one sender worker.
func orderKey(c tele.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	return SenderID(c)
}

// SendText sends plain text to the chat of the update, with an optional inline menu.
func SendText(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	opts := &tele.SendOptions{}
	if markup != nil {
		opts.ReplyMarkup = markup
	}
	return sendAsync(c, "send.text", "sendMessage", func() error {
		return c.Send(text, opts)
	})
}
