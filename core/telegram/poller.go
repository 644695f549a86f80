package telegram

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/buttonbot/core/config"

	tele "gopkg.in/telebot.v4"
)

const defaultLongPollTimeout = 10

// BuildPoller returns a webhook listener or a long poller depending on the run mode.
func BuildPoller(cfg *coreconfig.Config) tele.Poller {
	if strings.EqualFold(cfg.Telegram.RunMode, coreconfig.RunModeWebhook) {
		return &tele.Webhook{
			Listen:   fmt.Sprintf("%s:%d", cfg.Webhook.Listen, cfg.Webhook.Port),
			Endpoint: &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
		}
	}
	return &tele.LongPoller{Timeout: time.Duration(longPollTimeout(cfg)) * time.Second}
}

func longPollTimeout(cfg *coreconfig.Config) int {
	if cfg.Telegram.LongPollTimeoutSeconds > 0 {
		return cfg.Telegram.LongPollTimeoutSeconds
	}
	return defaultLongPollTimeout
}
